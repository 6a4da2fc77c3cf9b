package pipeline

import (
	"context"
	"sync"

	"golang.org/x/xerrors"
)

// Pipeline represents a generic, multi-stage processing pipeline. Each
// stage reads its input from the channel produced by the previous stage
// and writes its output to the channel consumed by the next one; a
// Source feeds the first stage and a Sink drains the last.
type Pipeline struct {
	stages []StageRunner
}

// New returns a new Pipeline instance made up of the specified stages,
// run in order.
func New(stages ...StageRunner) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes the pipeline reading from src and writing to sink, and
// blocks until either src is exhausted, sink has consumed everything
// that was emitted by the last stage, or ctx is cancelled. Run returns
// the first error reported by the source, any stage, or the sink.
func (p *Pipeline) Run(ctx context.Context, src Source, sink Sink) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(p.stages)+2)

	stageCtx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	// Allocate the channel chain: stageChs[i] feeds stage i and is fed
	// by stage i-1 (or the source, for i == 0).
	stageChs := make([]chan Payload, len(p.stages)+1)
	for i := range stageChs {
		stageChs[i] = make(chan Payload)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(stageChs[0])
		sourceWorker(stageCtx, src, stageChs[0], errCh)
	}()

	for i, stage := range p.stages {
		wg.Add(1)
		go func(i int, stage StageRunner) {
			defer wg.Done()
			defer close(stageChs[i+1])
			params := workerParams{
				stage: i,
				inCh:  stageChs[i],
				outCh: stageChs[i+1],
				errCh: errCh,
			}
			stage.Run(stageCtx, params)
		}(i, stage)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		sinkWorker(stageCtx, sink, stageChs[len(stageChs)-1], errCh)
	}()

	go func() {
		wg.Wait()
		close(errCh)
	}()

	var err error
	for stageErr := range errCh {
		if stageErr == nil {
			continue
		}
		if err == nil {
			err = stageErr
			cancelFn()
		}
	}
	return err
}

type workerParams struct {
	stage int
	inCh  chan Payload
	outCh chan<- Payload
	errCh chan<- error
}

func (w workerParams) StageIndex() int {
	return w.stage
}

func (w workerParams) Input() <-chan Payload {
	return w.inCh
}

func (w workerParams) Output() chan<- Payload {
	return w.outCh
}

func (w workerParams) Error() chan<- error {
	return w.errCh
}

func maybeEmitError(err error, errCh chan<- error) {
	select {
	case errCh <- err:
	default:
	}
}

func sourceWorker(ctx context.Context, source Source, outCh chan<- Payload, errCh chan<- error) {
	for source.Next(ctx) {
		payload := source.Payload()
		select {
		case outCh <- payload:
		case <-ctx.Done():
			return
		}
	}
	// check for errors
	if err := source.Error(); err != nil {
		wrappedErr := xerrors.Errorf("pipeline source: %w", err)
		maybeEmitError(wrappedErr, errCh)
	}
}

func sinkWorker(ctx context.Context, sink Sink, inCh <-chan Payload, errCh chan<- error) {
	for {
		select {
		case payload, ok := <-inCh:
			if !ok {
				return
			}
			if err := sink.Consume(ctx, payload); err != nil {
				wrappedErr := xerrors.Errorf("pipeline sink: %w", err)
				maybeEmitError(wrappedErr, errCh)
				return
			}
			payload.MarkAsProcessed()
		case <-ctx.Done():
			return
		}
	}
}
