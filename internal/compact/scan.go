// Package compact turns sparse flag arrays into dense index lists using a
// two-level parallel prefix sum.
package compact

import (
	"context"
	stdmath "math"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/Faultbox/isomesh/internal/kernel"
)

// BlockSize is the number of items scanned by one work item in the local pass.
const BlockSize = 1024

// ErrOverflow is returned when a prefix sum does not fit in uint32.
var ErrOverflow = errors.New("compact: prefix sum exceeds uint32")

// ExclusiveScan writes the exclusive prefix sum of in to out and returns
// the total. in and out may be the same slice.
//
// Blocks of BlockSize items are scanned in parallel, the block totals are
// scanned recursively with the same routine, and each block's base offset
// is then added back in parallel.
func ExclusiveScan(ctx context.Context, p *kernel.Pool, in, out []uint32) (uint32, error) {
	n := len(in)
	if len(out) < n {
		return 0, errors.Errorf("compact: output length %d shorter than input %d", len(out), n)
	}
	if n <= BlockSize {
		return scanSerial(in, out)
	}

	blocks := (n + BlockSize - 1) / BlockSize
	sums := make([]uint32, blocks)
	var overflow atomic.Bool
	err := p.DispatchBlocks(ctx, n, BlockSize, func(b, lo, hi int) {
		var acc uint64
		for i := lo; i < hi; i++ {
			v := in[i]
			out[i] = uint32(acc)
			acc += uint64(v)
		}
		if acc > stdmath.MaxUint32 {
			overflow.Store(true)
		}
		sums[b] = uint32(acc)
	})
	if err != nil {
		return 0, err
	}
	if overflow.Load() {
		return 0, ErrOverflow
	}

	total, err := ExclusiveScan(ctx, p, sums, sums)
	if err != nil {
		return 0, err
	}

	err = p.DispatchBlocks(ctx, n, BlockSize, func(b, lo, hi int) {
		base := sums[b]
		if base == 0 {
			return
		}
		for i := lo; i < hi; i++ {
			out[i] += base
		}
	})
	return total, err
}

func scanSerial(in, out []uint32) (uint32, error) {
	var acc uint64
	for i, v := range in {
		out[i] = uint32(acc)
		acc += uint64(v)
	}
	if acc > stdmath.MaxUint32 {
		return 0, ErrOverflow
	}
	return uint32(acc), nil
}
