package gzline

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeGzipFixture(t *testing.T, lines []string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.sql.gz")

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	for i, line := range lines {
		if i > 0 {
			gz.Write([]byte("\n"))
		}
		gz.Write([]byte(line))
	}
	if len(lines) > 0 {
		gz.Write([]byte("\n"))
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip.Close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func drainLines(t *testing.T, r Reader) []string {
	t.Helper()
	ctx := context.Background()
	var lines []string
	for {
		line, ok := r.NextLine(ctx)
		if !ok {
			break
		}
		lines = append(lines, line)
	}
	if err := r.Err(); err != nil {
		t.Fatalf("reader error: %v", err)
	}
	return lines
}

func TestSequentialReaderYieldsLinesInOrder(t *testing.T) {
	want := []string{
		"-- comment",
		"INSERT INTO page VALUES (1,0,'A',0);",
		"INSERT INTO page VALUES (2,0,'B',0);",
	}
	path := writeGzipFixture(t, want)

	r, err := NewSequentialReader(path)
	if err != nil {
		t.Fatalf("NewSequentialReader: %v", err)
	}
	defer r.Close()

	got := drainLines(t, r)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSequentialReaderProgressReachesTotal(t *testing.T) {
	path := writeGzipFixture(t, []string{"a", "b", "c"})
	r, err := NewSequentialReader(path)
	if err != nil {
		t.Fatalf("NewSequentialReader: %v", err)
	}
	defer r.Close()

	drainLines(t, r)
	p := r.Progress()
	if p.CurrentBytes == 0 || p.CurrentBytes > p.TotalBytes {
		t.Fatalf("unexpected progress: %+v", p)
	}
}

func TestSequentialReaderEmptyFile(t *testing.T) {
	path := writeGzipFixture(t, nil)
	r, err := NewSequentialReader(path)
	if err != nil {
		t.Fatalf("NewSequentialReader: %v", err)
	}
	defer r.Close()

	got := drainLines(t, r)
	if len(got) != 0 {
		t.Fatalf("expected no lines, got %v", got)
	}
}

func TestSequentialReaderOpenFailureIsFatal(t *testing.T) {
	if _, err := NewSequentialReader(filepath.Join(t.TempDir(), "missing.gz")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestBlockIndexRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.sql.gz.gzi")

	idx := &BlockIndex{TotalBytes: 12345, Offsets: []uint64{10, 20, 30}}
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadBlockIndex(path)
	if err != nil {
		t.Fatalf("LoadBlockIndex: %v", err)
	}
	if loaded.TotalBytes != idx.TotalBytes || len(loaded.Offsets) != len(idx.Offsets) {
		t.Fatalf("got %+v, want %+v", loaded, idx)
	}
	for i := range idx.Offsets {
		if loaded.Offsets[i] != idx.Offsets[i] {
			t.Errorf("offset[%d] = %d, want %d", i, loaded.Offsets[i], idx.Offsets[i])
		}
	}
}

func TestLoadFreshBlockIndexRejectsStaleSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.sql.gz.gzi")

	idx := &BlockIndex{TotalBytes: 12345, Offsets: []uint64{10, 20, 30}}
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := loadFreshBlockIndex(path, 12345); err != nil {
		t.Fatalf("loadFreshBlockIndex with matching size: %v", err)
	}
	if _, err := loadFreshBlockIndex(path, 99999); err == nil {
		t.Fatal("expected an error for a size mismatch")
	}
}
