package pipeline

import "context"

// Payload is implemented by values that can be sent through a pipeline.
type Payload interface {
	// Clone returns a new Payload that is a deep copy of the original.
	Clone() Payload
	// MarkAsProcessed is invoked by the pipeline when the payload has
	// either been emitted to a Sink or dropped by a Processor.
	MarkAsProcessed()
}

// ProcessorFunc is an adapter that allows the use of plain functions as
// Processor instances.
type ProcessorFunc func(context.Context, Payload) (Payload, error)

// Process calls f(ctx, p).
func (f ProcessorFunc) Process(ctx context.Context, p Payload) (Payload, error) {
	return f(ctx, p)
}

// Processor implements types that can process Payloads as part of a
// pipeline stage.
type Processor interface {
	// Process operates on the input payload and returns a new payload
	// to be forwarded to the next pipeline stage. Processors may also
	// opt to prevent the payload from reaching the rest of the pipeline
	// by returning a nil payload value instead.
	Process(ctx context.Context, payload Payload) (Payload, error)
}

// StageParams encapsulates the information required for executing a
// pipeline stage. The pipeline passes a StageParams instance to the Run
// method of each stage.
type StageParams interface {
	// StageIndex returns the position of this stage in the pipeline.
	StageIndex() int
	// Input returns a channel for reading the input payloads for a stage.
	Input() <-chan Payload
	// Output returns a channel for writing the output payload of a stage.
	Output() chan<- Payload
	// Error returns a channel for writing errors encountered by a stage
	// while processing payloads.
	Error() chan<- error
}

// StageRunner is implemented by types that can be strung together to
// form a multi-stage pipeline.
type StageRunner interface {
	// Run implements the processing logic for this stage by reading
	// incoming payloads from an input channel, processing them and
	// writing the results to an output channel.
	Run(context.Context, StageParams)
}

// Source is implemented by types that generate Payload instances which
// can be piped into a pipeline.
type Source interface {
	// Next fetches the next payload from the source and makes it
	// available via a call to Payload. It returns false once no more
	// items are available or the context is cancelled.
	Next(context.Context) bool
	// Payload returns the payload fetched by the last call to Next.
	Payload() Payload
	// Error returns the last error encountered by the source.
	Error() error
}

// Sink is implemented by types that can consume Payload instances
// emitted by a pipeline.
type Sink interface {
	// Consume processes a Payload emitted by the pipeline.
	Consume(context.Context, Payload) error
}
