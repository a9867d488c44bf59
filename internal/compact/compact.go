package compact

import (
	"context"

	"github.com/Faultbox/isomesh/internal/kernel"
)

// Result is a dense list of the sparse ids whose flag was set, in
// increasing order. Index has exactly Count entries.
type Result struct {
	Count uint32
	Index []uint32
}

// Compact collects every i in [0, n) with flag(i) set. flag is called from
// many goroutines and must not mutate shared state.
func Compact(ctx context.Context, p *kernel.Pool, n int, flag func(i int) bool) (Result, error) {
	offsets := make([]uint32, n)
	if err := p.Dispatch(ctx, n, func(i int) {
		if flag(i) {
			offsets[i] = 1
		}
	}); err != nil {
		return Result{}, err
	}

	count, err := ExclusiveScan(ctx, p, offsets, offsets)
	if err != nil {
		return Result{}, err
	}

	index := make([]uint32, count)
	err = p.DispatchRange(ctx, n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			next := count
			if i+1 < n {
				next = offsets[i+1]
			}
			if next != offsets[i] {
				index[offsets[i]] = uint32(i)
			}
		}
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Count: count, Index: index}, nil
}

// CompactBits collects the raised flags of b.
func CompactBits(ctx context.Context, p *kernel.Pool, b *Bitset) (Result, error) {
	return Compact(ctx, p, b.Len(), b.Get)
}

// Offsets converts per-item output counts into exclusive write offsets, so
// a later parallel pass can write item i's outputs at
// [offsets[i], offsets[i]+weights[i]) without contention.
func Offsets(ctx context.Context, p *kernel.Pool, weights []uint32) ([]uint32, uint32, error) {
	offsets := make([]uint32, len(weights))
	total, err := ExclusiveScan(ctx, p, weights, offsets)
	if err != nil {
		return nil, 0, err
	}
	return offsets, total, nil
}
