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

// PageLoader builds the dense page vector and its two lookups
// (page_id -> index, title -> index) from the page table. It implements
// pipeline.Sink so it can sit at the end of a pipeline fed by a
// rowstream.RowParser[tuple.PageRow].
type PageLoader struct {
	dumpPath string
	reader   gzline.Reader
	reporter *progress.Reporter
	log      *logrus.Entry

	pages        []Page
	pageIDIndex  map[uint32]Index
	titleIndex   map[string]Index
	sized        bool
	parseMisses  uint64
	duplicateIDs uint64
}

// NewPageLoader returns a PageLoader that will read lines from reader
// (opened against dumpPath) and report progress through reporter.
func NewPageLoader(dumpPath string, reader gzline.Reader, reporter *progress.Reporter, log *logrus.Entry) *PageLoader {
	return &PageLoader{
		dumpPath: dumpPath,
		reader:   reader,
		reporter: reporter,
		log:      log,
	}
}

// presize grows the page vector and both lookups to an estimated
// capacity derived from the size of the first parsed batch, so the bulk
// load proceeds without rehashing or reallocating. The estimate is a
// pure optimization: an undershoot just means normal Go map/slice
// growth kicks in later.
func (l *PageLoader) presize(firstBatchSize int) {
	estimate, err := gzline.EstimateRecordCount(l.dumpPath, firstBatchSize)
	if err != nil || estimate <= 0 {
		estimate = firstBatchSize
	}
	l.pages = make([]Page, 0, estimate)
	l.pageIDIndex = make(map[uint32]Index, estimate)
	l.titleIndex = make(map[string]Index, estimate)
	l.sized = true
}

// Consume implements pipeline.Sink.
func (l *PageLoader) Consume(_ context.Context, payload pipeline.Payload) error {
	batch, ok := payload.(*rowstream.Batch[tuple.PageRow])
	if !ok {
		return xerrors.Errorf("page loader: unexpected payload type %T", payload)
	}
	if !l.sized && len(batch.Rows) > 0 {
		l.presize(len(batch.Rows))
	}
	for _, row := range batch.Rows {
		l.insert(row)
	}
	l.reporter.Report(uint64(len(l.pages)), byteProgress(l.reader))
	return nil
}

func (l *PageLoader) insert(row tuple.PageRow) {
	if _, exists := l.pageIDIndex[row.PageID]; exists {
		l.duplicateIDs++
		return
	}
	idx := Index(len(l.pages))
	l.pages = append(l.pages, Page{Title: row.Title, IsRedirect: row.IsRedirect})
	l.pageIDIndex[row.PageID] = idx
	l.titleIndex[row.Title] = idx
}

// Finalize shrinks the page vector to its exact final length (it lives
// for the remainder of the program) and logs the parse-miss and
// duplicate-page-id diagnostic counters once.
func (l *PageLoader) Finalize() {
	if cap(l.pages) > len(l.pages) {
		shrunk := make([]Page, len(l.pages))
		copy(shrunk, l.pages)
		l.pages = shrunk
	}
	if l.log != nil {
		l.log.WithFields(logrus.Fields{
			"pages":         len(l.pages),
			"parse_misses":  l.parseMisses,
			"duplicate_ids": l.duplicateIDs,
		}).Info("finished loading pages")
	}
	l.reporter.Force(byteProgress(l.reader))
}

// ParseMisses returns the number of page rows skipped for failing to
// parse or belonging to a non-main namespace.
func (l *PageLoader) ParseMisses() uint64 { return l.parseMisses }

// Pages returns the loaded page vector. Ownership transfers to the
// caller: the loader must not be used again afterwards (see
// internal/ingest for the consuming move into the graph builder).
func (l *PageLoader) Pages() []Page { return l.pages }

// PageIDIndex returns the page_id -> index lookup built during loading.
// It is only valid until the link loader finishes and the
// orchestrator reclaims it.
func (l *PageLoader) PageIDIndex() map[uint32]Index { return l.pageIDIndex }

// TitleIndex returns the title -> index lookup. Unlike PageIDIndex, it
// survives into the query phase.
func (l *PageLoader) TitleIndex() map[string]Index { return l.titleIndex }

// ParseMissesPtr exposes the parse-miss counter so a RowParser can
// increment it directly while decoding.
func (l *PageLoader) ParseMissesPtr() *uint64 { return &l.parseMisses }

func byteProgress(r gzline.Reader) progress.ByteProgress {
	if r == nil {
		return progress.ByteProgress{}
	}
	p := r.Progress()
	return progress.ByteProgress{TotalBytes: p.TotalBytes, CurrentBytes: p.CurrentBytes}
}
