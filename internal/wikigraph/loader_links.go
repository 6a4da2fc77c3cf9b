package wikigraph

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/WeGoToMars/WikiGraph-Explorer/internal/progress"
	"github.com/WeGoToMars/WikiGraph-Explorer/internal/sqldump/gzline"
	"github.com/WeGoToMars/WikiGraph-Explorer/internal/sqldump/rowstream"
	"github.com/WeGoToMars/WikiGraph-Explorer/internal/sqldump/tuple"
	"github.com/WeGoToMars/WikiGraph-Explorer/pipeline"
)

// Edge is a pair of page indices accumulated during link ingestion and
// consumed once by the graph builder.
type Edge struct {
	From Index
	To   Index
}

// LinkLoader resolves each raw (from_page_id, lt_id) edge into
// (from_index, to_index) by joining the pagelinks table against the
// page-id and link-target lookups.
type LinkLoader struct {
	dumpPath string
	reader   gzline.Reader
	reporter *progress.Reporter
	log      *logrus.Entry

	pageIDIndex     map[uint32]Index
	linktargetIndex map[uint64]Index

	edges       []Edge
	sized       bool
	parseMisses uint64
	fromMisses  uint64
	toMisses    uint64
}

// NewLinkLoader returns a LinkLoader resolving edges against the given
// page-id and link-target lookups.
func NewLinkLoader(dumpPath string, reader gzline.Reader, reporter *progress.Reporter, log *logrus.Entry, pageIDIndex map[uint32]Index, linktargetIndex map[uint64]Index) *LinkLoader {
	return &LinkLoader{
		dumpPath:        dumpPath,
		reader:          reader,
		reporter:        reporter,
		log:             log,
		pageIDIndex:     pageIDIndex,
		linktargetIndex: linktargetIndex,
	}
}

func (l *LinkLoader) presize(firstBatchSize int) {
	estimate, err := gzline.EstimateRecordCount(l.dumpPath, firstBatchSize)
	if err != nil || estimate <= 0 {
		estimate = firstBatchSize
	}
	l.edges = make([]Edge, 0, estimate)
	l.sized = true
}

// Consume implements pipeline.Sink.
func (l *LinkLoader) Consume(_ context.Context, payload pipeline.Payload) error {
	batch, ok := payload.(*rowstream.Batch[tuple.PageLinkRow])
	if !ok {
		return xerrors.Errorf("link loader: unexpected payload type %T", payload)
	}
	if !l.sized && len(batch.Rows) > 0 {
		l.presize(len(batch.Rows))
	}
	for _, row := range batch.Rows {
		fromIdx, fromOK := l.pageIDIndex[row.FromPageID]
		if !fromOK {
			l.fromMisses++
			continue
		}
		toIdx, toOK := l.linktargetIndex[row.LinkTargetID]
		if !toOK {
			l.toMisses++
			continue
		}
		l.edges = append(l.edges, Edge{From: fromIdx, To: toIdx})
	}
	l.reporter.Report(uint64(len(l.edges)), byteProgress(l.reader))
	return nil
}

// Finalize logs the per-side join-miss diagnostic counters once.
func (l *LinkLoader) Finalize() {
	if l.log != nil {
		l.log.WithFields(logrus.Fields{
			"edges":        len(l.edges),
			"parse_misses": l.parseMisses,
			"from_misses":  l.fromMisses,
			"to_misses":    l.toMisses,
		}).Info("finished loading links")
	}
	l.reporter.Force(byteProgress(l.reader))
}

// ParseMissesPtr exposes the parse-miss counter so a RowParser can
// increment it directly while decoding.
func (l *LinkLoader) ParseMissesPtr() *uint64 { return &l.parseMisses }

// Edges returns the accumulated edge list. Ownership transfers to the
// caller, the same move-out convention as PageLoader.Pages.
func (l *LinkLoader) Edges() []Edge { return l.edges }
