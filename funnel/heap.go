// Package funnel orchestrates the three-stage retrieval funnel: a Hamming
// scan over the bit keyspace, Matryoshka-truncated cosine refinement, and a
// full-precision cosine re-rank.
package funnel

import (
	"container/heap"

	"github.com/google/uuid"
)

// item is one candidate tracked by a bounded heap: an id and the score
// used to order it. Higher score is "better" regardless of whether the
// underlying metric is a similarity (bigger is better) or a distance
// (smaller is better) — callers negate distances before pushing so "worse"
// consistently means "smallest score".
type item struct {
	id    uuid.UUID
	score float32
	seq   int // insertion order, used to break exact-score ties deterministically
}

// boundedMaxHeap retains the capacity best-scoring items seen so far in
// O(log capacity) per push and O(capacity) total memory, independent of how
// many candidates are offered — the heap-bounded top-k structure named by
// the funnel's stage contracts.
//
// The heap root is always the *worst* of the retained items: pushing a
// better candidate once full evicts the root, exactly as
// container/heap-based bounded selection works.
type boundedMaxHeap struct {
	capacity int
	items    []item
	nextSeq  int
}

func newBoundedMaxHeap(capacity int) *boundedMaxHeap {
	return &boundedMaxHeap{capacity: capacity, items: make([]item, 0, capacity)}
}

// Len implements heap.Interface.
func (h *boundedMaxHeap) Len() int { return len(h.items) }

// Less implements heap.Interface: the root is the worst (lowest-score)
// retained item, with later-inserted items treated as "worse" on an
// exact tie so ties resolve to whichever candidate arrived first.
func (h *boundedMaxHeap) Less(i, j int) bool {
	if h.items[i].score != h.items[j].score {
		return h.items[i].score < h.items[j].score
	}
	return h.items[i].seq > h.items[j].seq
}

// Swap implements heap.Interface.
func (h *boundedMaxHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

// Push implements heap.Interface.
func (h *boundedMaxHeap) Push(x any) { h.items = append(h.items, x.(item)) }

// Pop implements heap.Interface.
func (h *boundedMaxHeap) Pop() any {
	n := len(h.items)
	it := h.items[n-1]
	h.items = h.items[:n-1]
	return it
}

// offer inserts (id, score) if the heap isn't yet at capacity, or if score
// beats the current worst retained item, evicting that worst item.
func (h *boundedMaxHeap) offer(id uuid.UUID, score float32) {
	it := item{id: id, score: score, seq: h.nextSeq}
	h.nextSeq++

	if h.Len() < h.capacity {
		heap.Push(h, it)
		return
	}
	if h.capacity == 0 {
		return
	}
	if worse(h.items[0], it) {
		h.items[0] = it
		heap.Fix(h, 0)
	}
}

// worse reports whether a should be evicted in favor of b: b has a
// strictly higher score, or an exact tie broken in favor of whichever item
// arrived first (the lower seq).
func worse(a, b item) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.seq > b.seq
}

// drain empties the heap and returns its contents sorted best-first.
func (h *boundedMaxHeap) drain() []item {
	out := make([]item, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(item)
	}
	return out
}
