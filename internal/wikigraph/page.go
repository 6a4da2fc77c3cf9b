// Package wikigraph owns the data model and the compact directed graph
// assembled from a MediaWiki SQL dump: the dense page vector, the
// staged lookup structures used to resolve a dump's raw identifiers
// into page indices, and the CSR-style adjacency that the breadth-first
// search queries once the graph is built.
package wikigraph

import "golang.org/x/xerrors"

// Page is a main-namespace Wikipedia article record. A page's index —
// its position in the owning Graph's dense page vector — is the
// system's canonical identifier after ingestion; PageID only matters
// during loading.
type Page struct {
	Title      string
	IsRedirect bool
}

// Index identifies a Page by its position in the dense page vector.
type Index uint32

var (
	// ErrNotFound is returned by title/index lookups that miss.
	ErrNotFound = xerrors.New("not found")
	// ErrIndexOutOfRange reports an index that is not below the page
	// count: BuildGraph returns it for an edge outside the page vector
	// (an invariant violation), and Page and AllShortestPaths return it
	// for an out-of-range argument.
	ErrIndexOutOfRange = xerrors.New("page index out of range")
)
