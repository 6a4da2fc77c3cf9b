package concurrent

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGroupRunSucceeds(t *testing.T) {
	var ran [2]bool
	g := Group{
		NewServiceFunc("a", func(ctx context.Context) error { ran[0] = true; return nil }),
		NewServiceFunc("b", func(ctx context.Context) error { ran[1] = true; return nil }),
	}
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !ran[0] || !ran[1] {
		t.Fatalf("not all services ran: %v", ran)
	}
}

func TestGroupRunCancelsOnError(t *testing.T) {
	boom := errors.New("boom")
	cancelled := make(chan struct{})

	g := Group{
		NewServiceFunc("failing", func(ctx context.Context) error { return boom }),
		NewServiceFunc("long-running", func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				close(cancelled)
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		}),
	}

	err := g.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("long-running service was never cancelled")
	}
}
