// Package gcs implements the Golomb Compressed Set builder, reader, and
// on-disk container format: a static, disk-resident probabilistic
// membership structure with no false negatives and a tunable
// false-positive rate of 1/P.
package gcs

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	// FooterSize is the fixed byte length of the trailing footer.
	FooterSize = 40
	// Magic terminates every GCS file: the last 8 bytes.
	Magic = "[GCS:v0]"
)

var (
	// ErrOverflow is returned when N*P would overflow a u64.
	ErrOverflow = errors.New("gcs: n*p overflows u64")
	// ErrInvalidParameter is returned for an out-of-range P.
	ErrInvalidParameter = errors.New("gcs: invalid parameter")
	// ErrBadMagic is returned when a file's footer magic doesn't match,
	// i.e. it is not a GCS file.
	ErrBadMagic = errors.New("gcs: not a GCS file")
)

// indexEntry is one sparse checkpoint: the reduced hash value at the
// checkpoint and the payload bit offset at which decoding resumes to
// produce the element immediately after it.
type indexEntry struct {
	value     uint64
	bitOffset uint64
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func mulOverflowsU64(n, p uint64) bool {
	if n == 0 || p == 0 {
		return false
	}
	return n > ^uint64(0)/p
}
