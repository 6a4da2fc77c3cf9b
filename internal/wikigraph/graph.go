package wikigraph

import (
	"github.com/sirupsen/logrus"

	"github.com/WeGoToMars/WikiGraph-Explorer/internal/progress"
)

// Graph is the compact, immutable directed graph a query phase runs
// breadth-first search against: a dense page vector plus a CSR
// (compressed sparse row) adjacency list built once from the edge list
// produced by the link loader.
//
// CSR keeps the whole adjacency in two flat slices instead of a
// map[Index][]Index or a slice-of-slices: offsets has one entry per
// page plus a sentinel, and targets[offsets[i]:offsets[i+1]] is page
// i's out-neighbors. That trades the ability to mutate the graph after
// construction for a single contiguous allocation and no per-node
// slice-header overhead, which matters at full-dump scale.
type Graph struct {
	pages      []Page
	titleIndex map[string]Index

	offsets []uint32 // len(pages)+1
	targets []Index  // len(edges), duplicates preserved
}

// BuildGraph consumes pages, titleIndex and edges — the moved-out
// results of the page, link-target and link loaders — and returns the
// CSR graph. edges is read but not retained; the caller may discard it
// once BuildGraph returns. An edge whose From or To falls outside
// [0, len(pages)) is an invariant violation (the loaders are supposed
// to only ever emit indices they themselves resolved) and aborts
// construction with ErrIndexOutOfRange rather than panicking.
//
// Construction is two passes over edges plus one over pages, reporting
// progress through reporter after each pass:
//  1. count out-degree per page,
//  2. turn counts into CSR offsets (running sum),
//  3. walk edges again, placing each target at the next free slot in
//     its row using a scratch cursor slice.
// A duplicate edge (the same pagelinks row appearing twice, or two
// redirects resolving to the same target) is preserved, not deduped:
// BFS distances are unaffected by parallel edges, and deduping would
// cost an extra sort or set per row for no query-visible benefit.
func BuildGraph(pages []Page, titleIndex map[string]Index, edges []Edge, reporter *progress.Reporter, log *logrus.Entry) (*Graph, error) {
	n := len(pages)
	outDegree := make([]uint32, n)
	for _, e := range edges {
		if int(e.From) >= n || int(e.To) >= n {
			return nil, ErrIndexOutOfRange
		}
		outDegree[e.From]++
	}

	offsets := make([]uint32, n+1)
	for i := 0; i < n; i++ {
		offsets[i+1] = offsets[i] + outDegree[i]
	}
	if reporter != nil {
		reporter.Report(uint64(len(edges)/2), progress.ByteProgress{})
	}

	cursor := make([]uint32, n)
	copy(cursor, offsets[:n])

	targets := make([]Index, len(edges))
	for _, e := range edges {
		slot := cursor[e.From]
		targets[slot] = e.To
		cursor[e.From] = slot + 1
	}
	if reporter != nil {
		reporter.Force(progress.ByteProgress{TotalBytes: uint64(len(edges)), CurrentBytes: uint64(len(edges))})
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"pages": n,
			"edges": len(edges),
		}).Info("built adjacency graph")
	}

	return &Graph{
		pages:      pages,
		titleIndex: titleIndex,
		offsets:    offsets,
		targets:    targets,
	}, nil
}

// PageCount returns the number of pages in the graph.
func (g *Graph) PageCount() int { return len(g.pages) }

// LinkCount returns the number of edges in the graph, duplicates
// included.
func (g *Graph) LinkCount() int { return len(g.targets) }

// Page returns the Page at idx.
func (g *Graph) Page(idx Index) (Page, error) {
	if int(idx) >= len(g.pages) {
		return Page{}, ErrIndexOutOfRange
	}
	return g.pages[idx], nil
}

// ResolveTitle looks up a page's index by exact title match.
func (g *Graph) ResolveTitle(title string) (Index, error) {
	idx, ok := g.titleIndex[title]
	if !ok {
		return 0, ErrNotFound
	}
	return idx, nil
}

// neighbors returns idx's out-neighbor slice without copying.
func (g *Graph) neighbors(idx Index) []Index {
	return g.targets[g.offsets[idx]:g.offsets[idx+1]]
}
