package engine

import (
	"container/heap"
	"time"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/platform"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/target"
)

// inFlightRecord is the tuple spec §3 names: (probe, socket-handle,
// issued-at-monotonic, deadline), with deadline = issued-at + RTT.
type inFlightRecord struct {
	probe    target.Probe
	handle   platform.Handle
	issuedAt time.Time
	deadline time.Time
	index    int // position in the deadline heap, maintained by container/heap
}

// deadlineHeap is a container/heap-based min-heap keyed by deadline,
// giving the engine O(log n) access to the earliest in-flight deadline
// (spec §4.D's "earliest deadline" in the wait_for computation) and
// O(log n) removal of an arbitrary record when its event resolves before
// its deadline. Adapted from github.com/joeycumines/go-eventloop's
// eventloop.Loop timerHeap, which uses the identical container/heap
// pattern to track JS timer deadlines — repurposed here to index probe
// deadlines instead.
type deadlineHeap []*inFlightRecord

func (h deadlineHeap) Len() int { return len(h) }
func (h deadlineHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }
func (h deadlineHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *deadlineHeap) Push(x any) {
	rec := x.(*inFlightRecord)
	rec.index = len(*h)
	*h = append(*h, rec)
}

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	rec := old[n-1]
	old[n-1] = nil
	rec.index = -1
	*h = old[:n-1]
	return rec
}

// earliest returns the record with the soonest deadline, or nil if empty.
func (h deadlineHeap) earliest() *inFlightRecord {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// remove extracts rec from the heap once it has been resolved by an
// event or a timeout sweep.
func (h *deadlineHeap) remove(rec *inFlightRecord) {
	if rec.index < 0 || rec.index >= len(*h) {
		return
	}
	heap.Remove(h, rec.index)
}
