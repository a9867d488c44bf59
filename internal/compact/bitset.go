package compact

import (
	"math/bits"
	"sync/atomic"
)

// Bitset is a packed set of flags that many goroutines may set at once.
type Bitset struct {
	words []uint64
	n     int
}

// NewBitset returns a cleared bitset of n flags.
func NewBitset(n int) *Bitset {
	return &Bitset{words: make([]uint64, (n+63)/64), n: n}
}

// Len returns the number of flags.
func (b *Bitset) Len() int {
	return b.n
}

// Set raises flag i. Safe for concurrent use.
func (b *Bitset) Set(i int) {
	atomic.OrUint64(&b.words[i>>6], 1<<(uint(i)&63))
}

// Get reports flag i. Reads must happen after the writing stage completed.
func (b *Bitset) Get(i int) bool {
	return b.words[i>>6]&(1<<(uint(i)&63)) != 0
}

// Count returns the number of raised flags.
func (b *Bitset) Count() int {
	var c int
	for _, w := range b.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// Reset lowers every flag so the set can be reused by the next pass.
func (b *Bitset) Reset() {
	clear(b.words)
}
