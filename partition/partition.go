// Package partition splits the global edge sequence into one contiguous,
// half-open range per rank.
package partition

import "fmt"

// BoundsError reports a rank or group size for which no partition exists.
type BoundsError struct {
	Rank int
	Size int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("no partition for rank %d in a group of %d", e.Rank, e.Size)
}

// Range is the half-open index range [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	return r.End - r.Start
}

func (r Range) Empty() bool {
	return r.Start == r.End
}

// ChunkSize is ceil(total / size).
func ChunkSize(total, size int) int {
	return (total + size - 1) / size
}

// Bounds returns the range of rank among size ranks over total items.
// Ranks whose start would lie past the end own an empty range at total.
func Bounds(total, rank, size int) (Range, error) {
	if size < 1 || rank < 0 || rank >= size || total < 0 {
		return Range{}, &BoundsError{Rank: rank, Size: size}
	}
	chunk := ChunkSize(total, size)
	start := min(rank*chunk, total)
	end := min(start+chunk, total)
	return Range{Start: start, End: end}, nil
}

// All returns the ranges of every rank, in rank order.
func All(total, size int) ([]Range, error) {
	if size < 1 || total < 0 {
		return nil, &BoundsError{Rank: 0, Size: size}
	}
	ranges := make([]Range, size)
	for rank := range ranges {
		r, err := Bounds(total, rank, size)
		if err != nil {
			return nil, err
		}
		ranges[rank] = r
	}
	return ranges, nil
}

// Slice returns the items owned by rank. The result shares memory with items.
func Slice[T any](items []T, rank, size int) ([]T, Range, error) {
	r, err := Bounds(len(items), rank, size)
	if err != nil {
		return nil, Range{}, err
	}
	return items[r.Start:r.End], r, nil
}
