// Package target implements the lazy, restartable (ip, port) probe stream
// (spec §4.A): a port-major cross product of a host iterator and a port
// list, plus a FIFO retry queue. The retry queue has no fixed size limit:
// every requeued probe is held until it is drawn again.
package target

import (
	"net/netip"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/targetparse"
)

// Probe is one attempt to connect to one (ip, port); two probes are
// equivalent when (IP, Port) match regardless of Attempt (spec §3).
type Probe struct {
	IP      netip.Addr
	Port    int
	Attempt int
}

// Stream is the engine-owned cursor over the target cross product. It
// never materialises the full host x port product (spec §5 memory
// discipline) — only the current host iterator's cursor and a retry FIFO
// are held in memory.
type Stream struct {
	ports   []int
	hosts   *targetparse.HostIterator
	portIdx int

	retry   []Probe
	pending []Probe
}

// New builds a Stream from a parsed port list and host iterator, sweeping
// all hosts for each port before advancing to the next port (port-major
// order, spec §3 invariant).
func New(ports []int, hosts *targetparse.HostIterator) *Stream {
	hosts.Reset()
	return &Stream{ports: ports, hosts: hosts}
}

// Len returns the total number of forward probes this stream will ever
// yield (excluding retries), computable up front for progress reporting
// without materialising the cross product (spec §4.A).
func (s *Stream) Len() int {
	return len(s.ports) * s.hosts.Len()
}

// NextForward returns the next probe in port-major order, or ok=false
// once every port's host sweep is exhausted.
func (s *Stream) NextForward() (Probe, bool) {
	for s.portIdx < len(s.ports) {
		if ip, ok := s.hosts.Next(); ok {
			return Probe{IP: ip, Port: s.ports[s.portIdx]}, true
		}
		s.portIdx++
		s.hosts.Reset()
	}
	return Probe{}, false
}

// ForwardExhausted reports whether every port's host sweep has completed.
func (s *Stream) ForwardExhausted() bool {
	return s.portIdx >= len(s.ports)
}

// PushRetry enqueues a probe for retry; retries preserve FIFO order among
// themselves (spec §5 ordering guarantee).
func (s *Stream) PushRetry(p Probe) {
	s.retry = append(s.retry, p)
}

// RetryLen reports the number of probes currently queued for retry.
func (s *Stream) RetryLen() int {
	return len(s.retry)
}

// NextRetry pops the oldest queued retry, or ok=false if none are queued.
func (s *Stream) NextRetry() (Probe, bool) {
	if len(s.retry) == 0 {
		return Probe{}, false
	}
	p := s.retry[0]
	s.retry = s.retry[1:]
	return p, true
}

// Done reports whether the stream has nothing left to yield: the forward
// cursor is exhausted and both the retry and pending queues are empty.
func (s *Stream) Done() bool {
	return s.ForwardExhausted() && len(s.retry) == 0 && len(s.pending) == 0
}

// PushPending re-enqueues a probe that never actually consumed a connect
// attempt (dial-time resource exhaustion, spec §7) — it does not count
// against the probe's retry budget and is drained ahead of both the
// forward cursor and the retry queue, since dropping it would silently
// skip a target rather than merely delay it.
func (s *Stream) PushPending(p Probe) {
	s.pending = append(s.pending, p)
}

// PendingLen reports the number of probes queued for re-admission after a
// transient dial failure.
func (s *Stream) PendingLen() int {
	return len(s.pending)
}

// NextPending pops the oldest queued pending probe, or ok=false if none.
func (s *Stream) NextPending() (Probe, bool) {
	if len(s.pending) == 0 {
		return Probe{}, false
	}
	p := s.pending[0]
	s.pending = s.pending[1:]
	return p, true
}
