// Package concurrent runs the small, fixed sets of long-lived goroutines
// that make up a dump-loading stage: a reader thread that decompresses
// and tokenizes, and a pipeline thread that parses and inserts.
package concurrent

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/xerrors"
)

// Service describes a named unit of work that runs until its context is
// cancelled or it completes on its own.
type Service interface {
	// Name returns a short, log-friendly identifier for this service.
	Name() string
	// Run executes the service and blocks until ctx is cancelled or the
	// service has nothing more to do.
	Run(ctx context.Context) error
}

// ServiceFunc adapts a plain function into a Service.
type ServiceFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// NewServiceFunc returns a Service that runs fn under the given name.
func NewServiceFunc(name string, fn func(ctx context.Context) error) ServiceFunc {
	return ServiceFunc{name: name, fn: fn}
}

// Name implements Service.
func (s ServiceFunc) Name() string { return s.name }

// Run implements Service.
func (s ServiceFunc) Run(ctx context.Context) error { return s.fn(ctx) }

// Group is a list of Service instances that run concurrently.
type Group []Service

// Run launches every Service in the group and blocks until all of them
// have returned. If any Service returns a non-nil error, the shared
// context passed to the remaining Services is cancelled so they can wind
// down early; every reported error is joined into the returned
// *multierror.Error.
func (g Group) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	var wg sync.WaitGroup
	errCh := make(chan error, len(g))
	wg.Add(len(g))
	for _, s := range g {
		go func(s Service) {
			defer wg.Done()
			if err := s.Run(runCtx); err != nil {
				errCh <- xerrors.Errorf("%s: %w", s.Name(), err)
				cancelFn()
			}
		}(s)
	}
	wg.Wait()
	close(errCh)

	var err error
	for svcErr := range errCh {
		err = multierror.Append(err, svcErr)
	}
	return err
}
