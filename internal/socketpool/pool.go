package socketpool

import (
	"errors"
	"time"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/platform"
)

// Outcome classifies a completed or failed connect attempt. It is the
// socket pool's answer to "what happened", which the engine turns into a
// retry or a Verdict — the pool itself never constructs a Verdict value;
// §3's tagged variant lives in internal/verdict and only the engine maps
// outcomes onto it.
type Outcome int

const (
	// OutcomeConnected: the three-way handshake completed.
	OutcomeConnected Outcome = iota
	// OutcomeRefused: the peer actively reset/refused the connection.
	OutcomeRefused
	// OutcomeUnreachable: a non-fatal network error terminated the probe
	// (host/network unreachable); non-retryable per spec §4.D.
	OutcomeUnreachable
	// OutcomeRetryableError: some other transient error occurred on the
	// socket; retryable like a timeout.
	OutcomeRetryableError
)

// Pool owns every open socket and the in-flight map keyed by handle. The
// multiplexer it drives only borrows handles (spec §3 ownership note).
type Pool struct {
	mux       Multiplexer
	inflight  map[platform.Handle]struct{}
	capacity  int
}

// NewPool creates a socket pool bounded at capacity concurrently in-flight
// sockets, driving the given multiplexer backend.
func NewPool(mux Multiplexer, capacity int) *Pool {
	return &Pool{mux: mux, inflight: make(map[platform.Handle]struct{}, capacity), capacity: capacity}
}

// Len reports the current in-flight socket count.
func (p *Pool) Len() int { return len(p.inflight) }

// Capacity reports the soft cap M (spec §3).
func (p *Pool) Capacity() int { return p.capacity }

// SetCapacity lowers (or raises) the pool's soft cap. Used by the engine
// to shrink M by one on each descriptor exhaustion without aborting the
// scan (spec §7); the engine never raises it again, so a shrunk cap stays
// in force for the rest of the run.
func (p *Pool) SetCapacity(capacity int) { p.capacity = capacity }

// Full reports whether the pool is at its current capacity.
func (p *Pool) Full() bool { return len(p.inflight) >= p.capacity }

// DialResult is the outcome of issuing connect() on a fresh socket.
type DialResult struct {
	// Handle is valid only when Pending is true: the socket is now
	// in-flight and registered with the multiplexer.
	Handle platform.Handle
	// Pending means connect() returned "in progress"; the caller must
	// track this handle until a Wait event or deadline resolves it.
	Pending bool
	// Immediate, when Pending is false, is the outcome observed without
	// waiting (an immediate success or immediate refusal).
	Immediate Outcome
	// Err is set for dial errors the engine should treat as fatal or
	// resource-exhaustion per spec §7 (e.g. EMFILE), not as a Verdict.
	Err error
}

// Dial creates a nonblocking socket and issues connect(ip, port). Only a
// connect that genuinely resolves without waiting — a synchronous success
// or a synchronous refusal/unreachable error — takes the immediate branch
// and closes the socket itself without consuming an in-flight slot (spec
// §4.D step 1's "do NOT consume an in-flight slot" bullets). Everything
// else, including the overwhelmingly common ErrConnectInProgress case for
// a non-loopback peer, registers with the multiplexer and is resolved
// later by Classify once the socket becomes writable.
func (p *Pool) Dial(ip [4]byte, port int) DialResult {
	h, err := platform.NewNonblockingSocket()
	if err != nil {
		return DialResult{Err: err}
	}

	err = platform.Connect(h, ip, port)
	if err == nil {
		_ = platform.CloseSocket(h)
		return DialResult{Immediate: OutcomeConnected}
	}
	if !errors.Is(err, platform.ErrConnectInProgress) {
		if platform.IsRefused(err) {
			_ = platform.CloseSocket(h)
			return DialResult{Immediate: OutcomeRefused}
		}
		if platform.IsUnreachable(err) {
			_ = platform.CloseSocket(h)
			return DialResult{Immediate: OutcomeUnreachable}
		}
	}

	if regErr := p.mux.Register(h); regErr != nil {
		_ = platform.CloseSocket(h)
		return DialResult{Err: regErr}
	}
	p.inflight[h] = struct{}{}
	return DialResult{Handle: h, Pending: true}
}

// Wait blocks until at least one event is ready or timeout elapses,
// returning zero or more (handle, event) pairs.
func (p *Pool) Wait(timeout time.Duration) ([]Event, error) {
	return p.mux.Wait(timeout)
}

// Classify reads SO_ERROR as the authoritative signal for a
// writable-or-error event, resolving the same-cycle writable/error race
// the spec leaves open (§9) by always trusting the pending-error read
// over the raw event flags.
func Classify(h platform.Handle) Outcome {
	err := platform.SocketError(h)
	if err == nil {
		return OutcomeConnected
	}
	if platform.IsRefused(err) {
		return OutcomeRefused
	}
	if platform.IsUnreachable(err) {
		return OutcomeUnreachable
	}
	return OutcomeRetryableError
}

// Release closes the socket and forgets it, freeing its in-flight slot.
// Every exit path (success, error, shutdown) must call Release exactly
// once per handle returned as Pending (spec §9 scoped-acquisition note).
func (p *Pool) Release(h platform.Handle) {
	if _, ok := p.inflight[h]; !ok {
		return
	}
	_ = p.mux.Unregister(h)
	_ = platform.CloseSocket(h)
	delete(p.inflight, h)
}

// CloseAll releases every in-flight socket, used on engine shutdown
// (interrupt or fatal error) so no descriptor leaks past the scan (spec
// §5 cancellation note).
func (p *Pool) CloseAll() {
	for h := range p.inflight {
		_ = p.mux.Unregister(h)
		_ = platform.CloseSocket(h)
		delete(p.inflight, h)
	}
}

// Close shuts the multiplexer down after CloseAll.
func (p *Pool) Close() error {
	return p.mux.Close()
}
