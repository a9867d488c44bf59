package slicer

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/Faultbox/isomesh/internal/kernel"
	"github.com/Faultbox/isomesh/pkg/math"
)

// linker chains segments into loops. Segments are bucketed by the key of
// their start point; head holds the first segment of each bucket and next
// the following one, both as indices into the segment slice.
type linker struct {
	head    []int32
	next    []int32
	visited []bool
}

func newLinker(buckets, maxSegments int) *linker {
	return &linker{
		head:    make([]int32, buckets),
		next:    make([]int32, maxSegments),
		visited: make([]bool, maxSegments),
	}
}

// build inserts every segment. Insertion is lock-free: each segment owns
// its next slot and is published with a CAS on the bucket head.
func (l *linker) build(ctx context.Context, p *kernel.Pool, segs []Segment) error {
	if len(segs) > len(l.head)*maxLoad {
		return errors.Wrapf(ErrHashTableTooSmall, "%d segments for %d buckets", len(segs), len(l.head))
	}
	if err := p.Dispatch(ctx, len(l.head), func(b int) { l.head[b] = -1 }); err != nil {
		return err
	}
	size := uint32(len(l.head))
	return p.Dispatch(ctx, len(segs), func(i int) {
		l.visited[i] = false
		b := segs[i].StartKey % size
		for {
			h := atomic.LoadInt32(&l.head[b])
			l.next[i] = h
			if atomic.CompareAndSwapInt32(&l.head[b], h, int32(i)) {
				return
			}
		}
	})
}

// find returns the segment starting at the given crossing, or -1. Several
// keys share a bucket, so candidates must match both key and position.
func (l *linker) find(segs []Segment, key uint32, pos math.Vec2) int32 {
	for i := l.head[key%uint32(len(l.head))]; i >= 0; i = l.next[i] {
		if segs[i].StartKey == key && segs[i].Start == pos {
			return i
		}
	}
	return -1
}

// link walks every unvisited segment until its chain returns to the start
// and appends the resulting loops to dst. Walks run in segment order, so
// the loops come out in the same order on every run.
func (l *linker) link(segs []Segment, dst *Loops) error {
	for s := range segs {
		if l.visited[s] {
			continue
		}
		mark := dst.begin()
		dst.push(segs[s].Start)
		cur := int32(s)
		for steps := 0; ; steps++ {
			l.visited[cur] = true
			nxt := l.find(segs, segs[cur].EndKey, segs[cur].End)
			if nxt < 0 {
				return errors.Wrapf(ErrUnclosedLoop, "no segment continues from %v", segs[cur].End)
			}
			if nxt == int32(s) {
				break
			}
			if l.visited[nxt] || steps >= len(segs) {
				return errors.Wrapf(ErrUnclosedLoop, "chain from segment %d runs into another loop", s)
			}
			dst.push(segs[nxt].Start)
			cur = nxt
		}
		dst.end(mark)
	}
	return nil
}
