// Package rowstream wires gzline.Reader and the tuple parser into the
// teacher's generic pipeline package: a Source that yields raw lines, a
// Processor that splits and decodes them into typed row batches, and
// the small Payload types both stages need. Package wikigraph supplies
// the Sink that actually inserts the decoded rows.
package rowstream

import (
	"context"
	"sync/atomic"

	"github.com/WeGoToMars/WikiGraph-Explorer/internal/sqldump/gzline"
	"github.com/WeGoToMars/WikiGraph-Explorer/internal/sqldump/tuple"
	"github.com/WeGoToMars/WikiGraph-Explorer/pipeline"
)

// LinePayload carries a single decompressed line through the first
// pipeline stage.
type LinePayload struct {
	Line string
}

// Clone implements pipeline.Payload. Lines are immutable once read, so
// cloning just copies the string header.
func (p *LinePayload) Clone() pipeline.Payload { return &LinePayload{Line: p.Line} }

// MarkAsProcessed implements pipeline.Payload.
func (p *LinePayload) MarkAsProcessed() {}

// Batch carries the zero or more typed rows decoded from a single line.
// A line that is not an INSERT statement, or whose tuples all fail to
// parse, never produces a Batch: the parsing Processor returns a nil
// Payload instead, signaling "this processor chose not to forward
// anything downstream".
type Batch[T any] struct {
	Rows []T
}

// Clone implements pipeline.Payload.
func (b *Batch[T]) Clone() pipeline.Payload {
	cp := make([]T, len(b.Rows))
	copy(cp, b.Rows)
	return &Batch[T]{Rows: cp}
}

// MarkAsProcessed implements pipeline.Payload.
func (b *Batch[T]) MarkAsProcessed() {}

// ReaderSource adapts a gzline.Reader into a pipeline.Source of
// LinePayloads, the way crawler/linkSource adapts a graph.LinkIterator
// into a pipeline.Source of crawlerPayloads.
type ReaderSource struct {
	reader gzline.Reader
	line   string
}

// NewReaderSource returns a pipeline.Source backed by r.
func NewReaderSource(r gzline.Reader) *ReaderSource {
	return &ReaderSource{reader: r}
}

// Next implements pipeline.Source.
func (s *ReaderSource) Next(ctx context.Context) bool {
	line, ok := s.reader.NextLine(ctx)
	if !ok {
		return false
	}
	s.line = line
	return true
}

// Payload implements pipeline.Source.
func (s *ReaderSource) Payload() pipeline.Payload {
	return &LinePayload{Line: s.line}
}

// Error implements pipeline.Source.
func (s *ReaderSource) Error() error {
	return s.reader.Err()
}

// RowParser is a pipeline.Processor that splits a line into tuples and
// decodes each one with parse, counting decode misses in *misses
// (incremented with sync/atomic since downstream code may eventually
// run this across a worker pool). A line that yields no valid rows
// produces no output Payload.
type RowParser[T any] struct {
	parse  func(tuple string) (T, bool)
	misses *uint64
}

// NewRowParser returns a RowParser that decodes tuples with parse and
// tallies failures into misses.
func NewRowParser[T any](parse func(string) (T, bool), misses *uint64) *RowParser[T] {
	return &RowParser[T]{parse: parse, misses: misses}
}

// Process implements pipeline.Processor.
func (p *RowParser[T]) Process(_ context.Context, payload pipeline.Payload) (pipeline.Payload, error) {
	line := payload.(*LinePayload).Line

	tuples, ok := tuple.Split(line)
	if !ok {
		return nil, nil
	}

	rows := make([]T, 0, len(tuples))
	for _, t := range tuples {
		row, ok := p.parse(t)
		if !ok {
			if p.misses != nil {
				atomic.AddUint64(p.misses, 1)
			}
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &Batch[T]{Rows: rows}, nil
}
