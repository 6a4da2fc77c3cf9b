// Package gzline decompresses a gzip-compressed dump file and exposes
// its contents as a bounded stream of newline-delimited lines, with
// compressed-byte progress tracking. Two implementations share the same
// interface: a Sequential reader for portability, and a Parallel reader
// that fans decompression out across a worker pool for throughput.
package gzline

import "context"

// Progress reports the denominator (total compressed bytes, known at
// open time) and numerator (the decompressor's current offset within
// the compressed stream, updated at line boundaries) of how much of the
// input has been read. It is deliberately expressed in compressed-domain
// bytes so a UI's progress bar matches the fraction of the file actually
// read off disk.
type Progress struct {
	TotalBytes   uint64
	CurrentBytes uint64
}

// Reader is the common interface implemented by both line-reader
// profiles. NextLine blocks until a line is available, the stream ends,
// or ctx is cancelled.
type Reader interface {
	// NextLine returns the next decompressed line (without its
	// trailing newline), and ok=true. It returns ok=false once the
	// underlying stream is exhausted and the line queue has drained, or
	// ctx is cancelled.
	NextLine(ctx context.Context) (line string, ok bool)
	// Progress returns the current compressed-byte progress.
	Progress() Progress
	// Err returns the first error encountered by the background
	// decompressor, if any. It should be checked once NextLine first
	// returns ok=false.
	Err() error
	// Close releases the resources held by the reader. It is safe to
	// call Close multiple times.
	Close() error
}
