// Package engine implements the single-threaded probe loop (spec §4.D):
// one admission phase that issues nonblocking connects up to the rate
// governor and the socket pool's capacity, followed by one readiness wait,
// followed by event classification and deadline sweep, repeated until the
// target stream and every retry/pending queue are empty.
package engine

import (
	"container/heap"
	"context"
	"time"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/blocklist"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/clock"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/platform"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/rategov"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/socketpool"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/target"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/verdict"
)

// Config holds the engine's tunables that are not themselves a dependency
// (spec §3 ScanConfig fields not already owned by another component).
type Config struct {
	// Retries is the maximum number of re-attempts for a probe that times
	// out or hits a retryable transient error. 0 means no retries.
	Retries int
	// RTT is the per-attempt deadline: issued-at + RTT is a timeout.
	RTT time.Duration
	// LowWaterDivisor sets the in-flight low-water mark (capacity /
	// divisor) below which queued retries are drained even while the
	// forward cursor still has work, preventing retry starvation (spec
	// §4.A). 0 or 1 disables the low-water carve-out (retries only drain
	// once the forward cursor is exhausted).
	LowWaterDivisor int
}

// Engine wires every leaf component into the scan's main loop. All fields
// are supplied by the caller (cmd/tcpyscan) — the engine holds no global
// state (spec §9 "no process-wide singletons").
type Engine struct {
	Stream    *target.Stream
	Governor  *rategov.Governor
	Pool      *socketpool.Pool
	Sink      *verdict.Sink
	Blocklist *blocklist.Set
	Clock     clock.Clock
	Config    Config

	byHandle map[platform.Handle]*inFlightRecord
	heap     deadlineHeap
	stats    Stats

	// lastResourceExhausted records the most recent descriptor/memory
	// exhaustion the pool hit, wrapped as the typed error spec §7
	// describes (never returned from Run — the engine handles it by
	// shrinking pool capacity, not by aborting). Exposed via
	// LastResourceExhausted for diagnostics logging.
	lastResourceExhausted *ResourceExhaustedError
}

// New constructs an Engine ready to Run.
func New(stream *target.Stream, gov *rategov.Governor, pool *socketpool.Pool, sink *verdict.Sink, bl *blocklist.Set, clk clock.Clock, cfg Config) *Engine {
	return &Engine{
		Stream:    stream,
		Governor:  gov,
		Pool:      pool,
		Sink:      sink,
		Blocklist: bl,
		Clock:     clk,
		Config:    cfg,
		byHandle:  make(map[platform.Handle]*inFlightRecord),
	}
}

// LastResourceExhausted returns the most recent resource-exhaustion error
// the pool hit during this run, or nil if none occurred. The engine never
// aborts on it (spec §7) — it shrinks the pool's capacity and keeps
// going — so this is diagnostic only.
func (e *Engine) LastResourceExhausted() *ResourceExhaustedError {
	return e.lastResourceExhausted
}

// Run drives the scan to completion: every target has been admitted and
// every in-flight probe resolved, or ctx was cancelled. Cancellation closes
// every outstanding socket before returning (spec §5 cancellation note).
func (e *Engine) Run(ctx context.Context) (Stats, error) {
	e.stats.Started = e.Clock.Now()

	for {
		if err := ctx.Err(); err != nil {
			e.Pool.CloseAll()
			e.stats.Elapsed = e.Clock.Now().Sub(e.stats.Started)
			return e.stats, err
		}

		e.admit()

		if e.Pool.Len() == 0 && !e.hasWork() {
			break
		}

		waitFor := e.waitFor()
		events, err := e.Pool.Wait(waitFor)
		if err != nil {
			e.Pool.CloseAll()
			e.stats.Elapsed = e.Clock.Now().Sub(e.stats.Started)
			return e.stats, err
		}
		for _, ev := range events {
			rec, ok := e.byHandle[ev.Handle]
			if !ok {
				continue
			}
			e.resolve(rec, socketpool.Classify(ev.Handle))
		}

		e.sweepDeadlines(e.Clock.Now())
	}

	e.stats.Elapsed = e.Clock.Now().Sub(e.stats.Started)
	return e.stats, nil
}

// admit issues nonblocking connects until the rate governor, the pool's
// capacity, or the target stream itself withholds further work (spec §4.D
// step 1).
func (e *Engine) admit() {
	for {
		if e.Pool.Full() || !e.hasWork() {
			return
		}

		now := e.Clock.Now()
		if e.Governor.AllowAt(now).After(now) {
			return
		}

		probe, ok := e.popNext()
		if !ok {
			return
		}
		if e.Blocklist.Blocked(probe.IP) {
			continue
		}

		e.Governor.Record(now)
		if probe.Attempt > 0 {
			e.stats.RetriesIssued++
		} else {
			e.stats.ProbesIssued++
		}

		res := e.Pool.Dial(probe.IP.As4(), probe.Port)
		switch {
		case res.Err != nil:
			if platform.IsResourceExhausted(res.Err) {
				e.lastResourceExhausted = &ResourceExhaustedError{Cause: res.Err}
				e.stats.ResourceExhaustedCount++
				if c := e.Pool.Capacity(); c > 1 {
					e.Pool.SetCapacity(c - 1)
				}
			}
			e.Stream.PushPending(probe)
		case res.Pending:
			rec := &inFlightRecord{probe: probe, handle: res.Handle, issuedAt: now, deadline: now.Add(e.Config.RTT)}
			heap.Push(&e.heap, rec)
			e.byHandle[res.Handle] = rec
		default:
			e.emit(probe, res.Immediate)
		}
	}
}

// hasWork reports whether the target stream could still yield a probe,
// via any of its three queues.
func (e *Engine) hasWork() bool {
	return e.Stream.PendingLen() > 0 || e.Stream.RetryLen() > 0 || !e.Stream.ForwardExhausted()
}

// popNext draws the next probe to admit, prioritising probes that never
// actually consumed a connect attempt (pending), then retries once the
// low-water condition is met or the forward cursor is exhausted, then
// fresh forward probes (spec §4.A retry-starvation note).
func (e *Engine) popNext() (target.Probe, bool) {
	if p, ok := e.Stream.NextPending(); ok {
		return p, true
	}

	retryReady := e.Stream.ForwardExhausted() || e.Pool.Len() < e.lowWaterMark()
	if retryReady {
		if p, ok := e.Stream.NextRetry(); ok {
			return p, true
		}
	}
	if p, ok := e.Stream.NextForward(); ok {
		return p, true
	}
	return e.Stream.NextRetry()
}

func (e *Engine) lowWaterMark() int {
	div := e.Config.LowWaterDivisor
	if div <= 1 {
		return 0
	}
	return e.Pool.Capacity() / div
}

// waitFor computes how long Pool.Wait may block: the earlier of the next
// rate-governed admission time (only while there is still work waiting on
// it) and the earliest in-flight deadline (spec §4.D step 2).
func (e *Engine) waitFor() time.Duration {
	now := e.Clock.Now()
	var w time.Duration = -1

	if !e.Pool.Full() && e.hasWork() {
		w = e.Governor.AllowAt(now).Sub(now)
	}
	if rec := e.heap.earliest(); rec != nil {
		d := rec.deadline.Sub(now)
		if w < 0 || d < w {
			w = d
		}
	}
	if w < 0 {
		w = 0
	}
	return w
}

// sweepDeadlines resolves every in-flight probe whose deadline has passed
// as of now without its event having fired (spec §4.D step 5).
func (e *Engine) sweepDeadlines(now time.Time) {
	for {
		rec := e.heap.earliest()
		if rec == nil || rec.deadline.After(now) {
			return
		}
		e.Pool.Release(rec.handle)
		delete(e.byHandle, rec.handle)
		e.heap.remove(rec)
		e.requeueOrFilter(rec.probe)
	}
}

// resolve finalises an in-flight probe whose multiplexer event fired
// (spec §4.D step 4).
func (e *Engine) resolve(rec *inFlightRecord, outcome socketpool.Outcome) {
	e.Pool.Release(rec.handle)
	delete(e.byHandle, rec.handle)
	e.heap.remove(rec)

	if outcome == socketpool.OutcomeRetryableError {
		e.requeueOrFilter(rec.probe)
		return
	}
	e.emit(rec.probe, outcome)
}

// requeueOrFilter retries a probe that timed out or hit a transient error,
// up to the configured retry budget, otherwise emits a filtered verdict
// (spec §4.D "retryable" branch).
func (e *Engine) requeueOrFilter(p target.Probe) {
	if p.Attempt < e.Config.Retries {
		e.Stream.PushRetry(target.Probe{IP: p.IP, Port: p.Port, Attempt: p.Attempt + 1})
		return
	}
	e.Sink.Emit(p.IP, p.Port, verdict.Filtered)
	e.stats.FilteredCount++
}

// emit turns an immediate or resolved dial outcome into a verdict.
func (e *Engine) emit(p target.Probe, outcome socketpool.Outcome) {
	switch outcome {
	case socketpool.OutcomeConnected:
		e.Sink.Emit(p.IP, p.Port, verdict.Open)
		e.stats.OpenCount++
	case socketpool.OutcomeRefused:
		e.Sink.Emit(p.IP, p.Port, verdict.Closed)
		e.stats.ClosedCount++
	case socketpool.OutcomeUnreachable:
		e.Sink.Emit(p.IP, p.Port, verdict.Filtered)
		e.stats.FilteredCount++
	}
}
