package pipeline

import (
	"context"

	"golang.org/x/xerrors"
)

// fifo processes payloads sequentially thereby maintaining their order
type fifo struct {
	proc Processor
}

// NewFIFO returns a StageRunner that processes incoming payloads in a
// first-in-first-out Fashion. Each input is passed to the specified processor
// and its output is emitted to the next stage
func NewFIFO(proc Processor) StageRunner {
	return fifo{proc: proc}
}

// Run implements StageRunner
func (f fifo) Run(ctx context.Context, params StageParams) {
	for {
		select {
		case <-ctx.Done():
			return
		case payloadIn, ok := <-params.Input():
			if !ok {
				return
			}
			payloadOut, err := f.proc.Process(ctx, payloadIn)
			if err != nil {
				wrappedErr := xerrors.Errorf("pipeline stage %d: %w", params.StageIndex(), err)
				maybeEmitError(wrappedErr, params.Error())
				return
			}
			// if processor did not output a payload for the next stage,
			// there is nothing we need to do
			if payloadOut == nil {
				payloadIn.MarkAsProcessed()
				continue
			}
			// output processed data
			select {
			case params.Output() <- payloadOut:
			case <-ctx.Done():
				return
			}
		}
	}
}
