package gcs

import (
	"fmt"
	"io"
	"sort"

	"gcstool/internal/bitio"
	"gcstool/internal/golomb"
)

// Reader answers probabilistic membership queries against a GCS file
// built by Builder. A Reader is not safe for concurrent queries — each
// goroutine needs its own Reader over its own seekable handle.
type Reader struct {
	source io.ReadSeeker
	bits   *bitio.Reader

	n uint64
	p uint64

	endOfData uint64 // byte offset where the index section starts
	index     []indexEntry
}

// NewReader constructs a Reader over source. Initialize must be called
// once before Exists.
func NewReader(source io.ReadSeeker) *Reader {
	return &Reader{source: source, bits: bitio.NewReader(source)}
}

// N returns the declared element count read from the footer. Valid only
// after Initialize.
func (r *Reader) N() uint64 { return r.n }

// P returns the reciprocal false-positive rate read from the footer.
// Valid only after Initialize.
func (r *Reader) P() uint64 { return r.p }

// Initialize parses the footer and loads the index.
func (r *Reader) Initialize() error {
	if _, err := r.source.Seek(-FooterSize, io.SeekEnd); err != nil {
		return fmt.Errorf("gcs: seeking to footer: %w", err)
	}

	n, err := readU64(r.source)
	if err != nil {
		return fmt.Errorf("gcs: reading N: %w", err)
	}
	p, err := readU64(r.source)
	if err != nil {
		return fmt.Errorf("gcs: reading P: %w", err)
	}
	endOfData, err := readU64(r.source)
	if err != nil {
		return fmt.Errorf("gcs: reading end_of_data: %w", err)
	}
	indexLen, err := readU64(r.source)
	if err != nil {
		return fmt.Errorf("gcs: reading index_len: %w", err)
	}

	var magic [8]byte
	if _, err := io.ReadFull(r.source, magic[:]); err != nil {
		return fmt.Errorf("gcs: reading magic: %w", err)
	}
	if string(magic[:]) != Magic {
		return fmt.Errorf("gcs: %w", ErrBadMagic)
	}

	r.n = n
	r.p = p
	r.endOfData = endOfData

	if _, err := r.source.Seek(int64(endOfData), io.SeekStart); err != nil {
		return fmt.Errorf("gcs: seeking to index: %w", err)
	}

	r.index = make([]indexEntry, 1, indexLen+1)
	r.index[0] = indexEntry{} // implicit (0, 0) checkpoint
	for i := uint64(0); i < indexLen; i++ {
		value, err := readU64(r.source)
		if err != nil {
			return fmt.Errorf("gcs: reading index entry %d: %w", i, err)
		}
		bitOffset, err := readU64(r.source)
		if err != nil {
			return fmt.Errorf("gcs: reading index entry %d: %w", i, err)
		}
		r.index = append(r.index, indexEntry{value: value, bitOffset: bitOffset})
	}

	return nil
}

// Exists reports whether target was a member of the set the Reader was
// built from, with false-positive probability bounded by 1/P and no
// false negatives.
func (r *Reader) Exists(target uint64) (bool, error) {
	np := r.n * r.p
	var h uint64
	if np > 0 {
		h = target % np
	}

	i, found := sort.Find(len(r.index), func(i int) int {
		switch {
		case r.index[i].value < h:
			return 1
		case r.index[i].value > h:
			return -1
		default:
			return 0
		}
	})
	if found && i > 0 {
		return true, nil
	}

	// h == 0 matches only the implicit (0, 0) checkpoint, which is not an
	// element: the first decoded delta decides.
	entry := r.index[0]
	if i > 0 {
		entry = r.index[i-1]
	}

	if err := r.bits.Seek(int64(entry.bitOffset)); err != nil {
		return false, fmt.Errorf("gcs: seeking to bit offset %d: %w", entry.bitOffset, err)
	}

	decoder, err := golomb.NewDecoder(r.bits, r.p)
	if err != nil {
		return false, fmt.Errorf("gcs: %w", err)
	}

	log2p := uint64(golomb.Log2Ceil(r.p))
	bitPos, endBits := entry.bitOffset, r.endOfData*8
	last := entry.value
	for mustDecode := found; mustDecode || last < h; mustDecode = false {
		// Every codeword is at least 1+log2p bits; fewer remaining bits
		// before end_of_data are padding.
		if bitPos+1+log2p > endBits {
			return false, nil
		}

		delta, err := decoder.Decode()
		if err != nil {
			return false, fmt.Errorf("gcs: decoding payload: %w", err)
		}
		bitPos += delta/r.p + 1 + log2p
		last += delta
	}

	return last == h, nil
}
