package wikigraph

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/WeGoToMars/WikiGraph-Explorer/internal/progress"
)

// QueryEngine exposes title resolution, all-shortest-paths search, and
// basic stats to collaborators, wrapping an already-built, immutable
// Graph. It is safe for concurrent use: every method is read-only over
// the graph's CSR arrays, and each call to Search gets its own scratch
// BFS state.
type QueryEngine struct {
	graph    *Graph
	log      *logrus.Entry
	progress *progress.LayeredReporter
}

// NewQueryEngine returns a QueryEngine over graph. log may be nil.
func NewQueryEngine(graph *Graph, log *logrus.Entry) *QueryEngine {
	return &QueryEngine{
		graph:    graph,
		log:      log,
		progress: progress.NewLayered(0, nil),
	}
}

// SubscribeProgress registers cb to receive layered BFS progress for
// every Search call on this engine.
func (q *QueryEngine) SubscribeProgress(cb progress.LayeredCallback) {
	q.progress.Subscribe(cb)
}

// ResolveTitle implements resolve_title(title) -> index | not-found.
func (q *QueryEngine) ResolveTitle(title string) (Index, error) {
	return q.graph.ResolveTitle(title)
}

// PageCount implements page_count() -> u32.
func (q *QueryEngine) PageCount() uint32 { return uint32(q.graph.PageCount()) }

// LinkCount implements link_count() -> u64.
func (q *QueryEngine) LinkCount() uint64 { return uint64(q.graph.LinkCount()) }

// Search implements all_shortest_paths(start_index, end_index) -> list
// of list of index. Each call is tagged with a v4 UUID purely so its log
// lines can be correlated; the ID has no bearing on the result and is
// never part of it.
func (q *QueryEngine) Search(ctx context.Context, start, end Index) ([][]Index, error) {
	queryID := uuid.New()
	log := q.log
	if log != nil {
		log = log.WithField("query_id", queryID.String())
		log.WithFields(logrus.Fields{"start": start, "end": end}).Info("starting shortest-path search")
	}

	paths, err := AllShortestPaths(ctx, q.graph, start, end, q.progress)

	if log != nil {
		if err != nil {
			log.WithError(err).Warn("shortest-path search failed")
		} else {
			log.WithField("paths_found", len(paths)).Info("finished shortest-path search")
		}
	}
	return paths, err
}

// Page returns the Page at idx, mostly useful for rendering a Search
// result's titles.
func (q *QueryEngine) Page(idx Index) (Page, error) { return q.graph.Page(idx) }
