package tuple

// PageRow is a single, namespace-0 row parsed from the page table:
// (page_id, namespace, title, is_redirect, ...trailing columns ignored).
type PageRow struct {
	PageID     uint32
	Title      string
	IsRedirect bool
}

// LinkTargetRow is a single, namespace-0 row parsed from the linktarget
// table: (lt_id, namespace, title, ...trailing columns ignored).
type LinkTargetRow struct {
	LinkTargetID uint64
	Title        string
}

// PageLinkRow is a single row parsed from the pagelinks table whose
// source page has namespace 0:
// (from_page_id, from_namespace, lt_id, ...trailing columns ignored).
type PageLinkRow struct {
	FromPageID   uint32
	LinkTargetID uint64
}

const mainNamespace = 0

// ParsePageRow decodes one page-table tuple. ok is false if the fields
// fail to parse or the row belongs to a non-main namespace; callers
// should silently skip such rows.
func ParsePageRow(tuple string) (PageRow, bool) {
	c := NewCursor(tuple)

	pageID, ok := c.NextUint()
	if !ok {
		return PageRow{}, false
	}
	ns, ok := c.NextInt()
	if !ok {
		return PageRow{}, false
	}
	if ns != mainNamespace {
		return PageRow{}, false
	}
	title, ok := c.NextString()
	if !ok {
		return PageRow{}, false
	}
	isRedirect, ok := c.NextBool()
	if !ok {
		return PageRow{}, false
	}
	return PageRow{PageID: uint32(pageID), Title: title, IsRedirect: isRedirect}, true
}

// ParseLinkTargetRow decodes one linktarget-table tuple. ok is false if
// the fields fail to parse or the row belongs to a non-main namespace.
func ParseLinkTargetRow(tuple string) (LinkTargetRow, bool) {
	c := NewCursor(tuple)

	ltID, ok := c.NextUint()
	if !ok {
		return LinkTargetRow{}, false
	}
	ns, ok := c.NextInt()
	if !ok {
		return LinkTargetRow{}, false
	}
	if ns != mainNamespace {
		return LinkTargetRow{}, false
	}
	title, ok := c.NextString()
	if !ok {
		return LinkTargetRow{}, false
	}
	return LinkTargetRow{LinkTargetID: ltID, Title: title}, true
}

// ParsePageLinkRow decodes one pagelinks-table tuple. ok is false if the
// fields fail to parse or the source page belongs to a non-main
// namespace.
func ParsePageLinkRow(tuple string) (PageLinkRow, bool) {
	c := NewCursor(tuple)

	fromPageID, ok := c.NextUint()
	if !ok {
		return PageLinkRow{}, false
	}
	fromNS, ok := c.NextInt()
	if !ok {
		return PageLinkRow{}, false
	}
	if fromNS != mainNamespace {
		return PageLinkRow{}, false
	}
	ltID, ok := c.NextUint()
	if !ok {
		return PageLinkRow{}, false
	}
	return PageLinkRow{FromPageID: uint32(fromPageID), LinkTargetID: ltID}, true
}
