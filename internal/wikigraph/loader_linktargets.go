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

// LinkTargetLoader builds link_target_id -> index by joining the
// linktarget table against the title lookup built by the page loader.
type LinkTargetLoader struct {
	reader   gzline.Reader
	reporter *progress.Reporter
	log      *logrus.Entry

	titleIndex map[string]Index

	linktargetIndex map[uint64]Index
	count           uint64
	parseMisses     uint64
	titleMisses     uint64
}

// NewLinkTargetLoader returns a LinkTargetLoader. pageCount sizes
// linktargetIndex up front: it is a close upper bound since almost
// every article is the target of at least one link-target row.
func NewLinkTargetLoader(reader gzline.Reader, reporter *progress.Reporter, log *logrus.Entry, titleIndex map[string]Index, pageCount int) *LinkTargetLoader {
	return &LinkTargetLoader{
		reader:          reader,
		reporter:        reporter,
		log:             log,
		titleIndex:      titleIndex,
		linktargetIndex: make(map[uint64]Index, pageCount),
	}
}

// Consume implements pipeline.Sink.
func (l *LinkTargetLoader) Consume(_ context.Context, payload pipeline.Payload) error {
	batch, ok := payload.(*rowstream.Batch[tuple.LinkTargetRow])
	if !ok {
		return xerrors.Errorf("link-target loader: unexpected payload type %T", payload)
	}
	for _, row := range batch.Rows {
		idx, found := l.titleIndex[row.Title]
		if !found {
			l.titleMisses++
			continue
		}
		l.linktargetIndex[row.LinkTargetID] = idx
		l.count++
	}
	l.reporter.Report(l.count, byteProgress(l.reader))
	return nil
}

// Finalize logs the join-miss diagnostic counter once.
func (l *LinkTargetLoader) Finalize() {
	if l.log != nil {
		l.log.WithFields(logrus.Fields{
			"link_targets": l.count,
			"parse_misses": l.parseMisses,
			"title_misses": l.titleMisses,
		}).Info("finished loading link targets")
	}
	l.reporter.Force(byteProgress(l.reader))
}

// ParseMissesPtr exposes the parse-miss counter so a RowParser can
// increment it directly while decoding.
func (l *LinkTargetLoader) ParseMissesPtr() *uint64 { return &l.parseMisses }

// LinkTargetIndex returns the lt_id -> index lookup built during
// loading. It is only valid until the link loader finishes.
func (l *LinkTargetLoader) LinkTargetIndex() map[uint64]Index { return l.linktargetIndex }
