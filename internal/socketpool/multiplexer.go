// Package socketpool owns the engine's nonblocking sockets and the
// readiness multiplexer that watches them. It borrows handles to the
// poller but never transfers ownership: the Pool alone opens and closes
// sockets, per spec (§3 "the multiplexer knows every in-flight
// socket-handle and nothing else").
package socketpool

import (
	"fmt"
	"time"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/platform"
)

// Event reports a multiplexer-observed state transition for one handle.
// Flags are not mutually exclusive: Writable and Error/Hup can both be set
// within the same event, and SO_ERROR is the authoritative tiebreak
// (spec §9 open question).
type Event struct {
	Handle   platform.Handle
	Writable bool
	Error    bool
	Hup      bool
}

// Multiplexer is the uniform capability set the engine depends on; no
// platform branch appears above this interface. Semantics are
// level-triggered: a writable event not acted upon is redelivered on the
// next Wait call (spec §4.C).
type Multiplexer interface {
	Register(h platform.Handle) error
	Unregister(h platform.Handle) error
	Wait(timeout time.Duration) ([]Event, error)
	Close() error
}

// New selects a multiplexer backend. "auto" prefers the platform's
// scalable backend (epoll/kqueue/WSAPoll) and falls back to the portable
// poll(2) backend if the scalable one fails to initialise.
func New(kind platform.PollerKind) (Multiplexer, error) {
	switch kind {
	case platform.PollerPoll:
		return newPollMultiplexer()
	case platform.PollerAuto, "":
		if m, err := newScalableMultiplexer(); err == nil {
			return m, nil
		}
		return newPollMultiplexer()
	default:
		if kind == platform.DefaultPollerKind() {
			return newScalableMultiplexer()
		}
		return nil, fmt.Errorf("socketpool: unsupported poller kind %q on this platform", kind)
	}
}
