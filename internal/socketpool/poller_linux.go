//go:build linux

package socketpool

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/platform"
)

// epollMultiplexer is the scalable Linux backend. Adapted from
// github.com/joeycumines/go-eventloop's eventloop.FastPoller (poller_linux.go):
// same EpollCreate1/EpollCtl/EpollWait sequence and event-bit translation,
// but with all locking and version-counter staleness checks removed —
// this scanner calls Register/Unregister/Wait from a single goroutine, so
// the concurrent-mutation hazard the teacher guards against cannot occur
// here.
type epollMultiplexer struct {
	epfd     int
	eventBuf [512]unix.EpollEvent
}

func newScalableMultiplexer() (Multiplexer, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollMultiplexer{epfd: epfd}, nil
}

func (p *epollMultiplexer) Register(h platform.Handle) error {
	ev := &unix.EpollEvent{Events: unix.EPOLLOUT, Fd: int32(h)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, int(h), ev)
}

func (p *epollMultiplexer) Unregister(h platform.Handle) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, int(h), nil)
}

func (p *epollMultiplexer) Wait(timeout time.Duration) ([]Event, error) {
	timeoutMs := durationToMillis(timeout)
	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		raw := p.eventBuf[i]
		events = append(events, Event{
			Handle:   platform.Handle(raw.Fd),
			Writable: raw.Events&unix.EPOLLOUT != 0,
			Error:    raw.Events&unix.EPOLLERR != 0,
			Hup:      raw.Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0,
		})
	}
	return events, nil
}

func (p *epollMultiplexer) Close() error {
	return unix.Close(p.epfd)
}
