// Package kernel runs data-parallel work on a bounded pool of goroutines.
//
// A dispatch covers a one-dimensional range of work items. Items are split
// into contiguous chunks, each chunk runs on one goroutine, and Dispatch
// returns only after every item has been processed: the return is the
// synchronization point between pipeline stages.
package kernel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk keeps tiny dispatches from paying goroutine overhead per item.
const minChunk = 256

// Pool dispatches kernels over work-item ranges.
type Pool struct {
	workers int
}

// NewPool creates a pool running at most workers goroutines per dispatch.
// Non-positive values use GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Workers returns the parallelism of the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// Dispatch calls fn(i) for every i in [0, n).
func (p *Pool) Dispatch(ctx context.Context, n int, fn func(i int)) error {
	return p.DispatchRange(ctx, n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			fn(i)
		}
	})
}

// DispatchRange calls fn on disjoint sub-ranges [lo, hi) covering [0, n).
func (p *Pool) DispatchRange(ctx context.Context, n int, fn func(lo, hi int)) error {
	if n <= 0 {
		return ctx.Err()
	}
	chunk := (n + p.workers*4 - 1) / (p.workers * 4)
	if chunk < minChunk {
		chunk = minChunk
	}
	return p.dispatch(ctx, n, chunk, fn)
}

// DispatchBlocks calls fn(block, lo, hi) once per fixed-size block of
// [0, n). The last block may be short.
func (p *Pool) DispatchBlocks(ctx context.Context, n, blockSize int, fn func(block, lo, hi int)) error {
	if n <= 0 {
		return ctx.Err()
	}
	blocks := (n + blockSize - 1) / blockSize
	return p.DispatchRange(ctx, blocks, func(blo, bhi int) {
		for b := blo; b < bhi; b++ {
			lo := b * blockSize
			hi := min(lo+blockSize, n)
			fn(b, lo, hi)
		}
	})
}

func (p *Pool) dispatch(ctx context.Context, n, chunk int, fn func(lo, hi int)) error {
	if n <= chunk || p.workers == 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(0, n)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
