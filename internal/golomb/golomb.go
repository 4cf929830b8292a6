// Package golomb encodes and decodes non-negative integers in Golomb-Rice
// form: a unary quotient prefix followed by a fixed-width binary
// remainder, the variable-length code the GCS payload is built from.
package golomb

import (
	"errors"
	"fmt"

	"gcstool/internal/bitio"
)

// ErrInvalidParameter is returned for a Golomb parameter P outside the
// supported range.
var ErrInvalidParameter = errors.New("golomb: invalid parameter")

// maxUnaryChunk bounds how many consecutive one-bits a single WriteBits
// call packs for the unary prefix. A pathological quotient is split into
// chunks this wide instead of assuming q+1 fits in one 64-bit write.
const maxUnaryChunk = 63

// Log2Ceil returns ceil(log2(p)), the remainder width for Golomb-Rice
// coding under modulus p. p need not be a power of two.
func Log2Ceil(p uint64) uint8 {
	if p <= 1 {
		return 0
	}
	n := p - 1
	var bits uint8
	for n > 0 {
		bits++
		n >>= 1
	}
	return bits
}

func checkParameter(p uint64) (log2p uint8, err error) {
	if p < 1 {
		return 0, fmt.Errorf("p=%d: %w", p, ErrInvalidParameter)
	}
	log2p = Log2Ceil(p)
	if log2p > 63 {
		return 0, fmt.Errorf("p=%d needs a %d-bit remainder: %w", p, log2p, ErrInvalidParameter)
	}
	return log2p, nil
}

// Encoder writes non-negative integers in Golomb-Rice form with
// parameter p onto a bit writer.
type Encoder struct {
	w     *bitio.Writer
	p     uint64
	log2p uint8
}

// NewEncoder constructs an Encoder writing onto w with parameter p.
func NewEncoder(w *bitio.Writer, p uint64) (*Encoder, error) {
	log2p, err := checkParameter(p)
	if err != nil {
		return nil, err
	}
	return &Encoder{w: w, p: p, log2p: log2p}, nil
}

// Encode writes val and returns the number of bits written.
func (e *Encoder) Encode(val uint64) (int, error) {
	q := val / e.p
	r := val % e.p

	written := 0
	for q >= maxUnaryChunk {
		n, err := e.w.WriteBits(maxUnaryChunk, (uint64(1)<<maxUnaryChunk)-1)
		if err != nil {
			return written, err
		}
		written += n
		q -= maxUnaryChunk
	}

	// q is now < maxUnaryChunk; the terminating zero bit fits alongside it
	// in one write: q one-bits followed by a zero, width q+1.
	n, err := e.w.WriteBits(uint8(q+1), (uint64(1)<<(q+1))-2)
	if err != nil {
		return written, err
	}
	written += n

	n, err = e.w.WriteBits(e.log2p, r)
	if err != nil {
		return written, err
	}
	written += n

	return written, nil
}

// Flush pads and flushes the underlying bit writer, returning the number
// of padding bits written.
func (e *Encoder) Flush() (int, error) {
	return e.w.Flush()
}

// Decoder reads Golomb-Rice coded integers with parameter p from a bit
// reader.
type Decoder struct {
	r     *bitio.Reader
	p     uint64
	log2p uint8
}

// NewDecoder constructs a Decoder reading from r with parameter p.
func NewDecoder(r *bitio.Reader, p uint64) (*Decoder, error) {
	log2p, err := checkParameter(p)
	if err != nil {
		return nil, err
	}
	return &Decoder{r: r, p: p, log2p: log2p}, nil
}

// Decode reads and returns the next encoded value.
func (d *Decoder) Decode() (uint64, error) {
	var q uint64
	for {
		bit, err := d.r.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 0 {
			break
		}
		q++
	}

	r, err := d.r.ReadBits(d.log2p)
	if err != nil {
		return 0, err
	}

	return q*d.p + r, nil
}
