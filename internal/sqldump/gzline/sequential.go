package gzline

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/xerrors"
)

const defaultQueueCapacity = 16

// countingReader wraps an io.Reader and tracks the number of bytes that
// have been read from it so far. Sitting below the gzip decompressor,
// its count is the compressed-domain read offset.
type countingReader struct {
	r     io.Reader
	count uint64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	atomic.AddUint64(&c.count, uint64(n))
	return n, err
}

// SequentialReader decompresses a gzip file with a single-threaded
// decoder and feeds completed lines into a bounded queue. It is the
// portable profile: simple, and correct on every platform.
type SequentialReader struct {
	file       *os.File
	counting   *countingReader
	totalBytes uint64

	lineCh chan string
	doneCh chan struct{}

	mu      sync.Mutex
	err     error
	closed  bool
	current uint64
}

// NewSequentialReader opens path, a gzip-compressed text file, and
// starts a background goroutine that decompresses it and populates a
// bounded line queue. Open-failure is fatal and returned immediately;
// all other errors surface later via Err.
func NewSequentialReader(path string) (*SequentialReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("gzline: open %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, xerrors.Errorf("gzline: stat %q: %w", path, err)
	}

	cr := &countingReader{r: f}
	r := &SequentialReader{
		file:       f,
		counting:   cr,
		totalBytes: uint64(info.Size()),
		lineCh:     make(chan string, defaultQueueCapacity),
		doneCh:     make(chan struct{}),
	}
	go r.run()
	return r, nil
}

func (r *SequentialReader) run() {
	defer close(r.doneCh)
	defer close(r.lineCh)

	gz, err := gzip.NewReader(r.counting)
	if err != nil {
		r.setErr(xerrors.Errorf("gzline: open gzip stream: %w", err))
		return
	}
	defer gz.Close()

	br := bufio.NewReader(gz)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = trimNewline(line)
			r.lineCh <- line
			atomic.StoreUint64(&r.current, atomic.LoadUint64(&r.counting.count))
		}
		if err != nil {
			if err != io.EOF {
				r.setErr(xerrors.Errorf("gzline: decompress: %w", err))
			}
			return
		}
	}
}

func trimNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		s = s[:n-1]
	}
	if n := len(s); n > 0 && s[n-1] == '\r' {
		s = s[:n-1]
	}
	return s
}

func (r *SequentialReader) setErr(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

// NextLine implements Reader.
func (r *SequentialReader) NextLine(ctx context.Context) (string, bool) {
	select {
	case line, ok := <-r.lineCh:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

// Progress implements Reader.
func (r *SequentialReader) Progress() Progress {
	return Progress{
		TotalBytes:   r.totalBytes,
		CurrentBytes: atomic.LoadUint64(&r.current),
	}
}

// Err implements Reader.
func (r *SequentialReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close implements Reader.
func (r *SequentialReader) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()
	return r.file.Close()
}
