package gzline

import (
	"bufio"
	"encoding/binary"
	"os"

	"golang.org/x/xerrors"
)

// blockIndexMagic identifies this module's own `.gzi` sidecar format. It
// is not a BGZF/bgzip index and is not meant to interoperate with other
// tools. A subsequent run of this reader still recomputes every
// checkpoint; it only uses the saved table's length to presize its own.
const blockIndexMagic = "WGE1"

// BlockIndex is a sparse table of compressed-byte offsets observed
// during a parallel read, imported by a later ParallelReader run over
// the same (unchanged) file to presize the checkpoint table it builds
// for its own export, and exported again once that run finishes.
type BlockIndex struct {
	TotalBytes uint64
	Offsets    []uint64
}

// Save writes idx to path in this module's binary `.gzi` format.
func (idx *BlockIndex) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.Errorf("gzline: create block index %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(blockIndexMagic); err != nil {
		return xerrors.Errorf("gzline: write block index magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, idx.TotalBytes); err != nil {
		return xerrors.Errorf("gzline: write block index header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(idx.Offsets))); err != nil {
		return xerrors.Errorf("gzline: write block index length: %w", err)
	}
	for _, off := range idx.Offsets {
		if err := binary.Write(w, binary.LittleEndian, off); err != nil {
			return xerrors.Errorf("gzline: write block index entry: %w", err)
		}
	}
	return w.Flush()
}

// LoadBlockIndex reads a previously-saved `.gzi` file. A missing file,
// or one that fails magic validation, returns a non-nil error; callers
// treat the index as an optional optimization and proceed without it.
func LoadBlockIndex(path string) (*BlockIndex, error) {
	if path == "" {
		return nil, xerrors.New("gzline: empty block index path")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("gzline: open block index %q: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic := make([]byte, len(blockIndexMagic))
	if _, err := r.Read(magic); err != nil || string(magic) != blockIndexMagic {
		return nil, xerrors.New("gzline: block index magic mismatch")
	}

	var idx BlockIndex
	if err := binary.Read(r, binary.LittleEndian, &idx.TotalBytes); err != nil {
		return nil, xerrors.Errorf("gzline: read block index header: %w", err)
	}
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, xerrors.Errorf("gzline: read block index length: %w", err)
	}
	idx.Offsets = make([]uint64, n)
	for i := range idx.Offsets {
		if err := binary.Read(r, binary.LittleEndian, &idx.Offsets[i]); err != nil {
			return nil, xerrors.Errorf("gzline: read block index entry %d: %w", i, err)
		}
	}
	return &idx, nil
}

// blockIndexBuilder accumulates a checkpoint roughly every chunkSize
// bytes of compressed input observed, for later export via build.
type blockIndexBuilder struct {
	chunkSize int
	lastMark  uint64
	offsets   []uint64
}

func newBlockIndexBuilder(chunkSize int) *blockIndexBuilder {
	return &blockIndexBuilder{chunkSize: chunkSize}
}

// presize grows the checkpoint slice's capacity to hint, the number of
// checkpoints a prior run over the same file observed, so this run's
// index build does not repeatedly double the backing array.
func (b *blockIndexBuilder) presize(hint int) {
	if hint > 0 {
		b.offsets = make([]uint64, 0, hint)
	}
}

func (b *blockIndexBuilder) observe(compressedOffset uint64) {
	if b.chunkSize <= 0 {
		return
	}
	if compressedOffset-b.lastMark >= uint64(b.chunkSize) {
		b.offsets = append(b.offsets, compressedOffset)
		b.lastMark = compressedOffset
	}
}

func (b *blockIndexBuilder) build(totalBytes uint64) *BlockIndex {
	return &BlockIndex{TotalBytes: totalBytes, Offsets: b.offsets}
}
