package pipeline

import (
	"context"
	"strings"
	"testing"
)

type stringPayload string

func (p stringPayload) Clone() Payload    { return p }
func (stringPayload) MarkAsProcessed()    {}

type sliceSource struct {
	items []string
	pos   int
}

func (s *sliceSource) Next(ctx context.Context) bool {
	if s.pos >= len(s.items) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceSource) Payload() Payload {
	return stringPayload(s.items[s.pos-1])
}

func (s *sliceSource) Error() error { return nil }

type sliceSink struct {
	out []string
}

func (s *sliceSink) Consume(_ context.Context, p Payload) error {
	s.out = append(s.out, string(p.(stringPayload)))
	return nil
}

func TestPipelineUppercasesThroughFIFO(t *testing.T) {
	upper := ProcessorFunc(func(_ context.Context, p Payload) (Payload, error) {
		return stringPayload(strings.ToUpper(string(p.(stringPayload)))), nil
	})

	p := New(NewFIFO(upper))
	src := &sliceSource{items: []string{"a", "b", "c"}}
	sink := &sliceSink{}

	if err := p.Run(context.Background(), src, sink); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := []string{"A", "B", "C"}
	if len(sink.out) != len(want) {
		t.Fatalf("got %d outputs, want %d: %v", len(sink.out), len(want), sink.out)
	}
	for i, v := range want {
		if sink.out[i] != v {
			t.Errorf("output[%d] = %q, want %q", i, sink.out[i], v)
		}
	}
}

func TestPipelineDropsNilPayload(t *testing.T) {
	dropOdd := ProcessorFunc(func(_ context.Context, p Payload) (Payload, error) {
		s := string(p.(stringPayload))
		if len(s)%2 != 0 {
			return nil, nil
		}
		return p, nil
	})

	p := New(NewFIFO(dropOdd))
	src := &sliceSource{items: []string{"a", "bb", "ccc", "dddd"}}
	sink := &sliceSink{}

	if err := p.Run(context.Background(), src, sink); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := []string{"bb", "dddd"}
	if len(sink.out) != len(want) {
		t.Fatalf("got %v, want %v", sink.out, want)
	}
}
