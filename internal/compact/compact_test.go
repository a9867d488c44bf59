package compact

import (
	"context"
	stdmath "math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/isomesh/internal/kernel"
)

func TestExclusiveScan_MatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := kernel.NewPool(4)
	// Sizes straddle one block, many blocks, and enough blocks to recurse.
	for _, n := range []int{0, 1, 7, BlockSize, BlockSize + 1, 50_000, BlockSize*BlockSize + 3} {
		in := make([]uint32, n)
		for i := range in {
			in[i] = uint32(rng.Intn(7))
		}
		out := make([]uint32, n)
		total, err := ExclusiveScan(context.Background(), p, in, out)
		require.NoError(t, err)

		var acc uint32
		for i, v := range in {
			if out[i] != acc {
				t.Fatalf("n=%d: out[%d] = %d, want %d", n, i, out[i], acc)
			}
			acc += v
		}
		assert.Equal(t, acc, total, "n=%d", n)
	}
}

func TestExclusiveScan_InPlace(t *testing.T) {
	n := 3*BlockSize + 17
	buf := make([]uint32, n)
	for i := range buf {
		buf[i] = 2
	}
	total, err := ExclusiveScan(context.Background(), kernel.NewPool(3), buf, buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(2*n), total)
	for i, v := range buf {
		require.Equal(t, uint32(2*i), v)
	}
}

func TestExclusiveScan_Overflow(t *testing.T) {
	in := []uint32{stdmath.MaxUint32, 1}
	_, err := ExclusiveScan(context.Background(), kernel.NewPool(1), in, make([]uint32, 2))
	assert.ErrorIs(t, err, ErrOverflow)

	big := make([]uint32, 4*BlockSize)
	for i := range big {
		big[i] = stdmath.MaxUint32 / 1000
	}
	_, err = ExclusiveScan(context.Background(), kernel.NewPool(2), big, make([]uint32, len(big)))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestCompact_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := kernel.NewPool(8)
	for _, n := range []int{1, 100, 4096, 200_003} {
		for _, density := range []float64{0, 0.01, 0.5, 1} {
			flags := make([]bool, n)
			want := 0
			for i := range flags {
				if rng.Float64() < density {
					flags[i] = true
					want++
				}
			}

			res, err := Compact(context.Background(), p, n, func(i int) bool { return flags[i] })
			require.NoError(t, err)
			require.Equal(t, uint32(want), res.Count, "n=%d density=%v", n, density)
			require.Len(t, res.Index, want)
			for i, id := range res.Index {
				require.True(t, flags[id], "index %d -> %d not flagged", i, id)
				if i > 0 {
					require.Greater(t, id, res.Index[i-1], "dense index must be strictly increasing")
				}
			}
		}
	}
}

func TestCompact_AllFalse(t *testing.T) {
	res, err := Compact(context.Background(), kernel.NewPool(2), 10_000, func(int) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Count)
	assert.Empty(t, res.Index)
}

func TestCompactBits(t *testing.T) {
	p := kernel.NewPool(4)
	b := NewBitset(5000)
	require.NoError(t, p.Dispatch(context.Background(), b.Len(), func(i int) {
		if i%3 == 0 {
			b.Set(i)
		}
	}))
	assert.Equal(t, 1667, b.Count())

	res, err := CompactBits(context.Background(), p, b)
	require.NoError(t, err)
	require.Equal(t, uint32(1667), res.Count)
	for i, id := range res.Index {
		require.Equal(t, uint32(3*i), id)
	}
}

func TestBitset_CountAndReset(t *testing.T) {
	b := NewBitset(130)
	for _, i := range []int{0, 63, 64, 127, 128, 129} {
		b.Set(i)
	}
	b.Set(64)
	assert.Equal(t, 6, b.Count())
	assert.True(t, b.Get(129))
	assert.False(t, b.Get(65))

	b.Reset()
	assert.Zero(t, b.Count())
	assert.Equal(t, 130, b.Len())
}

func TestOffsets(t *testing.T) {
	weights := []uint32{2, 0, 6, 4, 0, 2}
	offsets, total, err := Offsets(context.Background(), kernel.NewPool(2), weights)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2, 2, 8, 12, 12}, offsets)
	assert.Equal(t, uint32(14), total)
}
