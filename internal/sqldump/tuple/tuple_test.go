package tuple

import "testing"

func TestSplitBasic(t *testing.T) {
	line := `INSERT INTO x VALUES (1,0,'A_B',0),(2,0,'C',1);`
	tuples, ok := Split(line)
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := []string{`1,0,'A_B',0`, `2,0,'C',1`}
	if len(tuples) != len(want) {
		t.Fatalf("got %v, want %v", tuples, want)
	}
	for i := range want {
		if tuples[i] != want[i] {
			t.Errorf("tuple[%d] = %q, want %q", i, tuples[i], want[i])
		}
	}
}

func TestSplitRejectsNonInsertLines(t *testing.T) {
	for _, line := range []string{
		"-- a comment",
		"CREATE TABLE `page` (`page_id` int);",
		"",
		"/*!40000 ALTER TABLE `page` DISABLE KEYS */;",
	} {
		if _, ok := Split(line); ok {
			t.Errorf("Split(%q) unexpectedly succeeded", line)
		}
	}
}

func TestTupleSplitEndToEnd(t *testing.T) {
	line := `INSERT INTO x VALUES (1,0,'A_B',0),(2,0,'C',1);`
	tuples, ok := Split(line)
	if !ok {
		t.Fatal("expected ok=true")
	}

	type record struct {
		id    int64
		title string
		flag  bool
	}
	var got []record
	for _, tup := range tuples {
		c := NewCursor(tup)
		id, _ := c.NextInt()
		_, _ = c.NextInt() // namespace, unused in this test
		title, _ := c.NextString()
		flag, _ := c.NextBool()
		got = append(got, record{id, title, flag})
	}

	want := []record{{1, "A B", false}, {2, "C", true}}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStringEscapes(t *testing.T) {
	c := NewCursor(`7,0,'O\'Neil\\s',0`)
	_, _ = c.NextInt()
	_, _ = c.NextInt()
	title, ok := c.NextString()
	if !ok {
		t.Fatal("expected ok=true")
	}
	if title != `O'Neil\s` {
		t.Fatalf("got %q, want %q", title, `O'Neil\s`)
	}
}

func TestParsePageRowFiltersNamespace(t *testing.T) {
	if _, ok := ParsePageRow(`5,1,'Talk page',0`); ok {
		t.Fatal("expected namespace-1 row to be rejected")
	}
	row, ok := ParsePageRow(`5,0,'Some_Title',1`)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if row.PageID != 5 || row.Title != "Some Title" || !row.IsRedirect {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestParseLinkTargetRow(t *testing.T) {
	row, ok := ParseLinkTargetRow(`99,0,'B'`)
	if !ok || row.LinkTargetID != 99 || row.Title != "B" {
		t.Fatalf("unexpected result: %+v ok=%v", row, ok)
	}
	if _, ok := ParseLinkTargetRow(`99,2,'B'`); ok {
		t.Fatal("expected namespace-2 row to be rejected")
	}
}

func TestParsePageLinkRow(t *testing.T) {
	row, ok := ParsePageLinkRow(`10,0,99`)
	if !ok || row.FromPageID != 10 || row.LinkTargetID != 99 {
		t.Fatalf("unexpected result: %+v ok=%v", row, ok)
	}
	if _, ok := ParsePageLinkRow(`10,1,99`); ok {
		t.Fatal("expected non-main source namespace row to be rejected")
	}
}

func TestMalformedRowsAreRejectedNotPanicking(t *testing.T) {
	cases := []string{"", "abc", "1,0", "1,0,'unterminated"}
	for _, c := range cases {
		if _, ok := ParsePageRow(c); ok {
			t.Errorf("ParsePageRow(%q) unexpectedly succeeded", c)
		}
		if _, ok := ParseLinkTargetRow(c); ok {
			t.Errorf("ParseLinkTargetRow(%q) unexpectedly succeeded", c)
		}
		if _, ok := ParsePageLinkRow(c); ok {
			t.Errorf("ParsePageLinkRow(%q) unexpectedly succeeded", c)
		}
	}
}
