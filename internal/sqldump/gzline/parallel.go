package gzline

import (
	"bufio"
	"context"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/klauspost/pgzip"
	"golang.org/x/xerrors"
)

const defaultChunkSize = 4 << 20 // 4 MiB, matches the default chunk_size config option.
const defaultParallelBlocks = 16

// ParallelReader decompresses a gzip file with pgzip's multi-threaded
// deflate-block decoder and feeds completed lines into a bounded queue,
// the same as SequentialReader. Downstream code treats the two
// implementations identically via the Reader interface.
type ParallelReader struct {
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

// NewParallelReader opens path and starts decompressing it with the
// given number of decoder workers (0 ⇒ all available hardware threads)
// and chunk size (0 ⇒ defaultChunkSize). If an index file is present at
// indexPath and its recorded TotalBytes still matches path's current
// size, it is imported and used to presize this run's own checkpoint
// table (see newBlockIndexBuilder below) so rebuilding the index does
// not grow the backing slice by repeated doubling; a file that has
// changed size since the index was written is treated as stale and
// ignored. A fresh index is written back to indexPath once the read
// completes successfully.
func NewParallelReader(path string, parallelism, chunkSize int, indexPath string) (*ParallelReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("gzline: open %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, xerrors.Errorf("gzline: stat %q: %w", path, err)
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	idx, _ := loadFreshBlockIndex(indexPath, uint64(info.Size())) // best-effort; absent/stale index is not fatal

	cr := &countingReader{r: f}
	r := &ParallelReader{
		file:       f,
		counting:   cr,
		totalBytes: uint64(info.Size()),
		lineCh:     make(chan string, defaultQueueCapacity),
		doneCh:     make(chan struct{}),
	}
	go r.run(parallelism, chunkSize, indexPath, idx)
	return r, nil
}

// loadFreshBlockIndex loads the index at path, discarding it if its
// recorded TotalBytes no longer matches the data file it was built
// against (the data file was replaced or truncated since the index
// was exported).
func loadFreshBlockIndex(path string, currentSize uint64) (*BlockIndex, error) {
	idx, err := LoadBlockIndex(path)
	if err != nil {
		return nil, err
	}
	if idx.TotalBytes != currentSize {
		return nil, xerrors.New("gzline: block index is stale")
	}
	return idx, nil
}

func (r *ParallelReader) run(parallelism, chunkSize int, indexPath string, prior *BlockIndex) {
	defer close(r.doneCh)
	defer close(r.lineCh)

	blocks := parallelism
	if blocks <= 0 {
		blocks = runtime.GOMAXPROCS(0)
	}
	gz, err := pgzip.NewReaderN(r.counting, chunkSize, blocks)
	if err != nil {
		r.setErr(xerrors.Errorf("gzline: open parallel gzip stream: %w", err))
		return
	}
	defer gz.Close()

	builder := newBlockIndexBuilder(chunkSize)
	if prior != nil {
		builder.presize(len(prior.Offsets))
	}
	br := bufio.NewReader(gz)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = trimNewline(line)
			r.lineCh <- line
			offset := atomic.LoadUint64(&r.counting.count)
			atomic.StoreUint64(&r.current, offset)
			builder.observe(offset)
		}
		if err != nil {
			if err != io.EOF {
				r.setErr(xerrors.Errorf("gzline: decompress: %w", err))
				return
			}
			break
		}
	}
	if indexPath != "" {
		_ = builder.build(r.totalBytes).Save(indexPath) // best-effort export
	}
}

func (r *ParallelReader) setErr(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

// NextLine implements Reader.
func (r *ParallelReader) NextLine(ctx context.Context) (string, bool) {
	select {
	case line, ok := <-r.lineCh:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

// Progress implements Reader.
func (r *ParallelReader) Progress() Progress {
	return Progress{
		TotalBytes:   r.totalBytes,
		CurrentBytes: atomic.LoadUint64(&r.current),
	}
}

// Err implements Reader.
func (r *ParallelReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close implements Reader.
func (r *ParallelReader) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()
	return r.file.Close()
}
