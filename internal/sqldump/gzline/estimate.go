package gzline

import (
	"encoding/binary"
	"io"
	"os"

	"golang.org/x/xerrors"
)

const mib = 1 << 20

// EstimateRecordCount approximates how many INSERT tuples a gzip dump
// contains, so callers can pre-size containers before streaming the
// file. It exploits the known property that MediaWiki dumps emit
// roughly 1 MiB of uncompressed text per INSERT INTO line:
//
//  1. reads the gzip trailer's little-endian ISIZE field (uncompressed
//     size modulo 2^32) to approximate the uncompressed size;
//  2. divides that by the compressed file size to get a compression
//     ratio;
//  3. scales recordsInFirstLine by (compressedSize / 1 MiB) * ratio.
//
// The result is only ever used to pre-size a slice or map; correctness
// never depends on it, only peak memory and throughput do, so it is
// clamped to a sane minimum rather than treated as authoritative.
func EstimateRecordCount(path string, recordsInFirstLine int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, xerrors.Errorf("gzline: estimate: open %q: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, xerrors.Errorf("gzline: estimate: stat %q: %w", path, err)
	}
	compressedSize := info.Size()
	if compressedSize < 4 {
		return recordsInFirstLine, nil
	}

	if _, err := f.Seek(-4, io.SeekEnd); err != nil {
		return 0, xerrors.Errorf("gzline: estimate: seek trailer: %w", err)
	}
	var isize uint32
	if err := binary.Read(f, binary.LittleEndian, &isize); err != nil {
		return 0, xerrors.Errorf("gzline: estimate: read ISIZE: %w", err)
	}

	if isize == 0 || recordsInFirstLine <= 0 {
		return recordsInFirstLine, nil
	}

	ratio := float64(isize) / float64(compressedSize)
	mibs := float64(compressedSize) / float64(mib)
	estimate := int(mibs * float64(recordsInFirstLine) * ratio)
	if estimate < recordsInFirstLine {
		estimate = recordsInFirstLine
	}
	return estimate, nil
}
