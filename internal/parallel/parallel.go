// Package parallel holds the one piece of concurrency GCSBuilder.Finish
// is explicitly allowed to use: normalizing and sorting the hash vector,
// embarrassingly parallel and confined entirely to that call.
package parallel

import (
	"slices"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// SequentialThreshold is the input length below which NormalizeAndSort
// skips chunking and errgroup entirely; coordination overhead isn't worth
// it for small inputs.
const SequentialThreshold = 1 << 16

const chunkCount = 8

// NormalizeAndSort reduces every value mod np and returns the result in
// ascending order. values is left untouched; the returned slice is new.
//
// A np of 0 (the empty-set construction, N=0) is treated as "leave values
// unreduced" rather than dividing by zero — Builder passes np == 0 only
// when it was constructed with n = 0, and any values added are then
// sorted as they are.
func NormalizeAndSort(values []uint64, np uint64) []uint64 {
	out := make([]uint64, len(values))
	copy(out, values)

	if len(out) == 0 {
		return out
	}

	if np == 0 || len(out) < SequentialThreshold {
		if np > 0 {
			for i, v := range out {
				out[i] = v % np
			}
		}
		slices.Sort(out)
		return out
	}

	chunkSize := (len(out) + chunkCount - 1) / chunkCount
	chunks := lo.Chunk(out, chunkSize)

	var g errgroup.Group
	for _, chunk := range chunks {
		g.Go(func() error {
			for i, v := range chunk {
				chunk[i] = v % np
			}
			slices.Sort(chunk)
			return nil
		})
	}
	_ = g.Wait() // normalize/sort never produce an error

	return mergeSorted(chunks)
}

// mergeSorted k-way merges already-ascending chunks into one slice.
func mergeSorted(chunks [][]uint64) []uint64 {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	merged := make([]uint64, 0, total)

	idx := make([]int, len(chunks))
	for {
		best := -1
		for ci, i := range idx {
			if i >= len(chunks[ci]) {
				continue
			}
			if best == -1 || chunks[ci][i] < chunks[best][idx[best]] {
				best = ci
			}
		}
		if best == -1 {
			break
		}
		merged = append(merged, chunks[best][idx[best]])
		idx[best]++
	}
	return merged
}
