package wikigraph

import (
	"context"

	"github.com/WeGoToMars/WikiGraph-Explorer/internal/progress"
)

const unreached = ^uint32(0)

// AllShortestPaths runs a layered breadth-first search from start to
// end and enumerates every path of minimum length between them. It
// returns an empty, non-nil slice (no error) if end is unreachable
// from start, and a single zero-length path [start] if start == end.
//
// The search always finishes the layer it is in before stopping: the
// moment end is dequeued is not the moment to stop, because later
// nodes in that same layer may still contribute additional shortest
// predecessors of end. Before each layer is explored, the loop stops if
// dist[end] is known and the layer lies deeper than dist[end].
func AllShortestPaths(ctx context.Context, g *Graph, start, end Index, reporter *progress.LayeredReporter) ([][]Index, error) {
	n := len(g.pages)
	if int(start) >= n || int(end) >= n {
		return nil, ErrIndexOutOfRange
	}
	if start == end {
		return [][]Index{{start}}, nil
	}

	dist := make([]uint32, n)
	for i := range dist {
		dist[i] = unreached
	}
	parents := make([][]Index, n)

	dist[start] = 0
	frontier := []Index{start}
	var explored uint64
	layer := 0

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if dist[end] != unreached && uint32(layer) > dist[end] {
			break
		}

		next := make([]Index, 0, len(frontier))
		for _, u := range frontier {
			for _, v := range g.neighbors(u) {
				switch {
				case dist[v] == unreached:
					dist[v] = dist[u] + 1
					parents[v] = append(parents[v], u)
					next = append(next, v)
				case dist[v] == dist[u]+1:
					if last := len(parents[v]) - 1; last < 0 || parents[v][last] != u {
						parents[v] = append(parents[v], u)
					}
				}
			}
		}

		explored += uint64(len(frontier))
		if reporter != nil {
			reporter.Report(progress.Layer{
				CurrentLayer:       layer,
				LayerSize:          len(frontier),
				LayerExploredCount: len(frontier),
				TotalExploredNodes: int(explored),
			}, false)
		}

		frontier = next
		layer++
	}
	if reporter != nil {
		reporter.Report(progress.Layer{
			CurrentLayer:       layer,
			TotalExploredNodes: int(explored),
		}, true)
	}

	if dist[end] == unreached {
		return [][]Index{}, nil
	}
	return enumeratePaths(start, end, parents), nil
}

// enumeratePaths walks the predecessor lists backward from end to
// start with an explicit stack (large Wikipedia shortest paths can run
// deep enough that a naive recursive enumeration risks the goroutine
// stack), then reverses each completed path into start->end order.
func enumeratePaths(start, end Index, parents [][]Index) [][]Index {
	type frame struct {
		node Index
		path []Index
	}

	var results [][]Index
	stack := []frame{{node: end, path: []Index{end}}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.node == start {
			reversed := make([]Index, len(top.path))
			for i, v := range top.path {
				reversed[len(top.path)-1-i] = v
			}
			results = append(results, reversed)
			continue
		}

		for _, p := range parents[top.node] {
			extended := make([]Index, len(top.path)+1)
			copy(extended, top.path)
			extended[len(top.path)] = p
			stack = append(stack, frame{node: p, path: extended})
		}
	}
	return results
}
