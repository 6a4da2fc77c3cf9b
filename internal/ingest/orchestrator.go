package ingest

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/WeGoToMars/WikiGraph-Explorer/internal/concurrent"
	"github.com/WeGoToMars/WikiGraph-Explorer/internal/progress"
	"github.com/WeGoToMars/WikiGraph-Explorer/internal/sqldump/gzline"
	"github.com/WeGoToMars/WikiGraph-Explorer/internal/sqldump/rowstream"
	"github.com/WeGoToMars/WikiGraph-Explorer/internal/sqldump/tuple"
	"github.com/WeGoToMars/WikiGraph-Explorer/internal/wikigraph"
	"github.com/WeGoToMars/WikiGraph-Explorer/pipeline"
)

// DumpPaths names the three gzip-compressed SQL dump files an
// Orchestrator run consumes.
type DumpPaths struct {
	Pages       string
	LinkTargets string
	PageLinks   string
}

// Orchestrator sequences the page, link-target, and link loaders and
// then the graph builder, owning the lifetime of every auxiliary
// lookup structure and reclaiming it the moment the stage that needed
// it finishes.
type Orchestrator struct {
	cfg *Config
	log *logrus.Entry

	parallel bool
}

// New returns an Orchestrator configured by cfg, logging through log
// (which may be nil). parallel selects the parallel decompression
// profile (the pgzip-backed reader) over the sequential one.
func New(cfg *Config, log *logrus.Entry, parallel bool) *Orchestrator {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Orchestrator{cfg: cfg, log: log, parallel: parallel}
}

func (o *Orchestrator) openReader(path string) (gzline.Reader, error) {
	if o.parallel {
		return gzline.NewParallelReader(path, o.cfg.Parallelism, int(o.cfg.ChunkSize), path+".gzi")
	}
	return gzline.NewSequentialReader(path)
}

// runStage drives a single reader+pipeline thread pair to
// completion: the pipeline service pulls lines out of reader through
// source, decodes and inserts them into sink, and the reader service
// waits for that to finish before surfacing any decompression error the
// reader accumulated along the way.
func runStage(ctx context.Context, name string, reader gzline.Reader, source pipeline.Source, pipe *pipeline.Pipeline, sink pipeline.Sink) error {
	done := make(chan struct{})

	pipelineSvc := concurrent.NewServiceFunc(name+"-pipeline", func(ctx context.Context) error {
		defer close(done)
		return pipe.Run(ctx, source, sink)
	})
	readerSvc := concurrent.NewServiceFunc(name+"-reader", func(ctx context.Context) error {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		return reader.Err()
	})

	group := concurrent.Group{pipelineSvc, readerSvc}
	if err := group.Run(ctx); err != nil {
		return xerrors.Errorf("%s: %w", name, err)
	}
	return nil
}

// Run executes the full page->link-target->link->graph-build sequence
// and returns the finished, query-ready QueryEngine.
func (o *Orchestrator) Run(ctx context.Context, paths DumpPaths) (*wikigraph.QueryEngine, error) {
	pages, titleIndex, pageIDIndex, err := o.loadPages(ctx, paths.Pages)
	if err != nil {
		return nil, xerrors.Errorf("ingest: %w", err)
	}

	linktargetIndex, err := o.loadLinkTargets(ctx, paths.LinkTargets, titleIndex, len(pages))
	if err != nil {
		return nil, xerrors.Errorf("ingest: %w", err)
	}

	edges, err := o.loadLinks(ctx, paths.PageLinks, pageIDIndex, linktargetIndex)
	if err != nil {
		return nil, xerrors.Errorf("ingest: %w", err)
	}

	// Staged reclamation: page_id_index and linktarget_index are only
	// needed to resolve edges. Once the edge list is built, drop them
	// before the (expensive, large) graph build runs so the two peaks
	// never overlap.
	pageIDIndex = nil
	linktargetIndex = nil

	graphReporter := progress.New(o.cfg.RefreshRate, nil)
	graph, err := wikigraph.BuildGraph(pages, titleIndex, edges, graphReporter, o.log)
	edges = nil
	if err != nil {
		return nil, xerrors.Errorf("ingest: %w", err)
	}

	return wikigraph.NewQueryEngine(graph, o.log), nil
}

func (o *Orchestrator) loadPages(ctx context.Context, path string) ([]wikigraph.Page, map[string]wikigraph.Index, map[uint32]wikigraph.Index, error) {
	reader, err := o.openReader(path)
	if err != nil {
		return nil, nil, nil, xerrors.Errorf("open page dump: %w", err)
	}
	defer reader.Close()

	reporter := progress.New(o.cfg.RefreshRate, nil)
	loader := wikigraph.NewPageLoader(path, reader, reporter, entryOrNil(o.log, "page"))

	source := rowstream.NewReaderSource(reader)
	parser := rowstream.NewRowParser(tuple.ParsePageRow, loader.ParseMissesPtr())
	pipe := pipeline.New(pipeline.NewFIFO(parser))

	if err := runStage(ctx, "pages", reader, source, pipe, loader); err != nil {
		return nil, nil, nil, err
	}
	loader.Finalize()

	return loader.Pages(), loader.TitleIndex(), loader.PageIDIndex(), nil
}

func (o *Orchestrator) loadLinkTargets(ctx context.Context, path string, titleIndex map[string]wikigraph.Index, pageCount int) (map[uint64]wikigraph.Index, error) {
	reader, err := o.openReader(path)
	if err != nil {
		return nil, xerrors.Errorf("open linktarget dump: %w", err)
	}
	defer reader.Close()

	reporter := progress.New(o.cfg.RefreshRate, nil)
	loader := wikigraph.NewLinkTargetLoader(reader, reporter, entryOrNil(o.log, "linktarget"), titleIndex, pageCount)

	source := rowstream.NewReaderSource(reader)
	parser := rowstream.NewRowParser(tuple.ParseLinkTargetRow, loader.ParseMissesPtr())
	pipe := pipeline.New(pipeline.NewFIFO(parser))

	if err := runStage(ctx, "linktargets", reader, source, pipe, loader); err != nil {
		return nil, err
	}
	loader.Finalize()

	return loader.LinkTargetIndex(), nil
}

func (o *Orchestrator) loadLinks(ctx context.Context, path string, pageIDIndex map[uint32]wikigraph.Index, linktargetIndex map[uint64]wikigraph.Index) ([]wikigraph.Edge, error) {
	reader, err := o.openReader(path)
	if err != nil {
		return nil, xerrors.Errorf("open pagelinks dump: %w", err)
	}
	defer reader.Close()

	reporter := progress.New(o.cfg.RefreshRate, nil)
	loader := wikigraph.NewLinkLoader(path, reader, reporter, entryOrNil(o.log, "pagelinks"), pageIDIndex, linktargetIndex)

	source := rowstream.NewReaderSource(reader)
	parser := rowstream.NewRowParser(tuple.ParsePageLinkRow, loader.ParseMissesPtr())
	pipe := pipeline.New(pipeline.NewFIFO(parser))

	if err := runStage(ctx, "pagelinks", reader, source, pipe, loader); err != nil {
		return nil, err
	}
	loader.Finalize()

	return loader.Edges(), nil
}

func entryOrNil(log *logrus.Entry, component string) *logrus.Entry {
	if log == nil {
		return nil
	}
	return log.WithField("component", component)
}
