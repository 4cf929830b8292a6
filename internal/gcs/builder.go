package gcs

import (
	"fmt"
	"io"
	"slices"

	"gcstool/internal/bitio"
	"gcstool/internal/golomb"
	"gcstool/internal/parallel"
)

// Builder accumulates hashes and, once Finish is called, emits a complete
// GCS file onto its sink: Golomb-coded payload, sparse index, and footer.
// A Builder is single-use — Finish consumes it.
type Builder struct {
	sink             io.Writer
	n                uint64
	p                uint64
	np               uint64
	indexGranularity uint64
	values           []uint64
	finished         bool
}

// NewBuilder constructs a Builder targeting n*p as its hash range. n is
// frozen here and never recomputed in Finish: soundness (no false
// negatives) depends on the exact same n*p being used to normalize at
// build time and to reduce queries at read time, so the declared n —
// not the number of Add calls actually made, not the post-dedup count —
// is what ends up in the footer. See DESIGN.md.
func NewBuilder(sink io.Writer, n, p, indexGranularity uint64) (*Builder, error) {
	if p < 1 {
		return nil, fmt.Errorf("gcs: p=%d: %w", p, ErrInvalidParameter)
	}
	if golomb.Log2Ceil(p) > 63 {
		return nil, fmt.Errorf("gcs: p=%d needs more than 63 remainder bits: %w", p, ErrInvalidParameter)
	}
	if mulOverflowsU64(n, p) {
		return nil, fmt.Errorf("gcs: n=%d * p=%d: %w", n, p, ErrOverflow)
	}

	return &Builder{
		sink:             sink,
		n:                n,
		p:                p,
		np:               n * p,
		indexGranularity: indexGranularity,
		values:           make([]uint64, 0, n),
	}, nil
}

// Add appends a raw hash for later normalization. O(1).
func (b *Builder) Add(hash uint64) {
	b.values = append(b.values, hash)
}

// Finish consumes the Builder: normalizes every hash mod n*p, sorts and
// deduplicates, Golomb-delta-encodes the result, and writes the sparse
// index and footer. The Builder must not be used afterward.
func (b *Builder) Finish() error {
	if b.finished {
		return fmt.Errorf("gcs: Finish called more than once")
	}
	b.finished = true

	sorted := parallel.NormalizeAndSort(b.values, b.np)
	b.values = nil
	deduped := slices.Compact(sorted)

	encoder, err := golomb.NewEncoder(bitio.NewWriter(b.sink), b.p)
	if err != nil {
		return fmt.Errorf("gcs: %w", err)
	}

	var index []indexEntry
	if b.indexGranularity > 0 {
		index = make([]indexEntry, 0, len(deduped)/int(b.indexGranularity))
	}

	var last, totalBits uint64
	for i, v := range deduped {
		written, err := encoder.Encode(v - last)
		if err != nil {
			return fmt.Errorf("gcs: encoding element %d: %w", i, err)
		}
		totalBits += uint64(written)
		last = v

		if b.indexGranularity > 0 && i > 0 && i%int(b.indexGranularity) == 0 {
			index = append(index, indexEntry{value: v, bitOffset: totalBits})
		}
	}

	padding, err := encoder.Flush()
	if err != nil {
		return fmt.Errorf("gcs: flushing payload: %w", err)
	}

	endOfDataBits := totalBits + uint64(padding)
	if endOfDataBits%8 != 0 {
		panic("gcs: end of data is not byte-aligned")
	}
	endOfDataBytes := endOfDataBits / 8

	for _, e := range index {
		if err := writeU64(b.sink, e.value); err != nil {
			return fmt.Errorf("gcs: writing index: %w", err)
		}
		if err := writeU64(b.sink, e.bitOffset); err != nil {
			return fmt.Errorf("gcs: writing index: %w", err)
		}
	}

	if err := writeU64(b.sink, b.n); err != nil {
		return fmt.Errorf("gcs: writing footer: %w", err)
	}
	if err := writeU64(b.sink, b.p); err != nil {
		return fmt.Errorf("gcs: writing footer: %w", err)
	}
	if err := writeU64(b.sink, endOfDataBytes); err != nil {
		return fmt.Errorf("gcs: writing footer: %w", err)
	}
	if err := writeU64(b.sink, uint64(len(index))); err != nil {
		return fmt.Errorf("gcs: writing footer: %w", err)
	}
	if _, err := b.sink.Write([]byte(Magic)); err != nil {
		return fmt.Errorf("gcs: writing footer magic: %w", err)
	}

	if f, ok := b.sink.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("gcs: flushing sink: %w", err)
		}
	}

	return nil
}
