//go:build darwin

package socketpool

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/platform"
)

// kqueueMultiplexer is the scalable Darwin/BSD backend, adapted from
// eventloop.FastPoller's kqueue implementation (poller_darwin.go) the same
// way poller_linux.go adapts the epoll one: single-goroutine use means no
// locking is needed around the fd set.
type kqueueMultiplexer struct {
	kq       int
	eventBuf [512]unix.Kevent_t
}

func newScalableMultiplexer() (Multiplexer, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	return &kqueueMultiplexer{kq: kq}, nil
}

func (p *kqueueMultiplexer) Register(h platform.Handle) error {
	kev := unix.Kevent_t{Ident: uint64(h), Filter: unix.EVFILT_WRITE, Flags: unix.EV_ADD | unix.EV_ENABLE}
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{kev}, nil, nil)
	return err
}

func (p *kqueueMultiplexer) Unregister(h platform.Handle) error {
	kev := unix.Kevent_t{Ident: uint64(h), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE}
	_, _ = unix.Kevent(p.kq, []unix.Kevent_t{kev}, nil, nil) // ignore errors on delete, fd may already be gone
	return nil
}

func (p *kqueueMultiplexer) Wait(timeout time.Duration) ([]Event, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		ts = &unix.Timespec{Sec: int64(timeout / time.Second), Nsec: int64(timeout % time.Second)}
	}
	n, err := unix.Kevent(p.kq, nil, p.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		kev := p.eventBuf[i]
		events = append(events, Event{
			Handle:   platform.Handle(kev.Ident),
			Writable: kev.Filter == unix.EVFILT_WRITE,
			Error:    kev.Flags&unix.EV_ERROR != 0,
			Hup:      kev.Flags&unix.EV_EOF != 0,
		})
	}
	return events, nil
}

func (p *kqueueMultiplexer) Close() error {
	return unix.Close(p.kq)
}
