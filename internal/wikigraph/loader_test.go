package wikigraph

import (
	"context"
	"testing"

	"gopkg.in/check.v1"

	"github.com/WeGoToMars/WikiGraph-Explorer/internal/progress"
	"github.com/WeGoToMars/WikiGraph-Explorer/internal/sqldump/rowstream"
	"github.com/WeGoToMars/WikiGraph-Explorer/internal/sqldump/tuple"
)

// Register our test-suite with go test.
func Test(t *testing.T) { check.TestingT(t) }

// LoaderChainTestSuite exercises the page->link-target->link loader chain as one
// stateful fixture: SetUpTest loads pages, link targets and links
// before every test method, so each method inspects a freshly built
// chain.
type LoaderChainTestSuite struct {
	pageLoader       *PageLoader
	linkTargetLoader *LinkTargetLoader
	linkLoader       *LinkLoader
}

var _ = check.Suite(new(LoaderChainTestSuite))

func (s *LoaderChainTestSuite) SetUpTest(c *check.C) {
	reporter := progress.New(0, nil)
	s.pageLoader = NewPageLoader("", nil, reporter, nil)

	c.Assert(s.pageLoader.Consume(context.Background(), &rowstream.Batch[tuple.PageRow]{
		Rows: []tuple.PageRow{
			{PageID: 1, Title: "Go (programming language)"},
			{PageID: 2, Title: "Rust (programming language)"},
			{PageID: 3, Title: "Redirect Target", IsRedirect: true},
		},
	}), check.IsNil)
	s.pageLoader.Finalize()

	linkTargetReporter := progress.New(0, nil)
	s.linkTargetLoader = NewLinkTargetLoader(nil, linkTargetReporter, nil, s.pageLoader.TitleIndex(), len(s.pageLoader.Pages()))
	c.Assert(s.linkTargetLoader.Consume(context.Background(), &rowstream.Batch[tuple.LinkTargetRow]{
		Rows: []tuple.LinkTargetRow{
			{LinkTargetID: 100, Title: "Rust (programming language)"},
			{LinkTargetID: 200, Title: "Nonexistent Page"},
		},
	}), check.IsNil)
	s.linkTargetLoader.Finalize()

	linkReporter := progress.New(0, nil)
	s.linkLoader = NewLinkLoader("", nil, linkReporter, nil, s.pageLoader.PageIDIndex(), s.linkTargetLoader.LinkTargetIndex())
	c.Assert(s.linkLoader.Consume(context.Background(), &rowstream.Batch[tuple.PageLinkRow]{
		Rows: []tuple.PageLinkRow{
			{FromPageID: 1, LinkTargetID: 100},
			{FromPageID: 1, LinkTargetID: 200}, // to-miss: title never resolved
			{FromPageID: 99, LinkTargetID: 100}, // from-miss: unknown page id
		},
	}), check.IsNil)
	s.linkLoader.Finalize()
}

func (s *LoaderChainTestSuite) TestPageLoaderBuildsDenseVectorAndLookups(c *check.C) {
	c.Assert(s.pageLoader.Pages(), check.HasLen, 3)
	idx, ok := s.pageLoader.TitleIndex()["Go (programming language)"]
	c.Assert(ok, check.Equals, true)
	c.Assert(s.pageLoader.Pages()[idx].Title, check.Equals, "Go (programming language)")
}

func (s *LoaderChainTestSuite) TestLinkTargetLoaderJoinsAgainstTitleIndex(c *check.C) {
	idx := s.linkTargetLoader.LinkTargetIndex()
	rustIdx, ok := idx[100]
	c.Assert(ok, check.Equals, true)
	c.Assert(s.pageLoader.Pages()[rustIdx].Title, check.Equals, "Rust (programming language)")

	_, ok = idx[200]
	c.Assert(ok, check.Equals, false)
}

func (s *LoaderChainTestSuite) TestLinkLoaderResolvesOnlyFullyJoinedEdges(c *check.C) {
	edges := s.linkLoader.Edges()
	c.Assert(edges, check.HasLen, 1)
	c.Assert(edges[0].From, check.Equals, s.pageLoader.PageIDIndex()[1])
	c.Assert(edges[0].To, check.Equals, s.linkTargetLoader.LinkTargetIndex()[100])
}

func (s *LoaderChainTestSuite) TestChainEndToEndIntoGraph(c *check.C) {
	g, err := BuildGraph(s.pageLoader.Pages(), s.pageLoader.TitleIndex(), s.linkLoader.Edges(), nil, nil)
	c.Assert(err, check.IsNil)
	c.Assert(g.PageCount(), check.Equals, 3)
	c.Assert(g.LinkCount(), check.Equals, 1)

	from, err := g.ResolveTitle("Go (programming language)")
	c.Assert(err, check.IsNil)
	to, err := g.ResolveTitle("Rust (programming language)")
	c.Assert(err, check.IsNil)

	paths, err := AllShortestPaths(context.Background(), g, from, to, nil)
	c.Assert(err, check.IsNil)
	c.Assert(paths, check.HasLen, 1)
	c.Assert(paths[0], check.DeepEquals, []Index{from, to})
}
