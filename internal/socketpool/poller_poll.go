//go:build linux || darwin

package socketpool

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/platform"
)

// pollMultiplexer is the portable poll(2) fallback, used when the
// scalable backend fails to initialise under "auto" or the user
// explicitly selects -t poll.
// It keeps its own registered-handle set since poll(2) takes the full
// interest list on every call, unlike epoll/kqueue's persistent kernel
// state.
type pollMultiplexer struct {
	fds []unix.PollFd
	idx map[platform.Handle]int
}

func newPollMultiplexer() (Multiplexer, error) {
	return &pollMultiplexer{idx: make(map[platform.Handle]int)}, nil
}

func (p *pollMultiplexer) Register(h platform.Handle) error {
	if _, ok := p.idx[h]; ok {
		return nil
	}
	p.idx[h] = len(p.fds)
	p.fds = append(p.fds, unix.PollFd{Fd: int32(h), Events: unix.POLLOUT})
	return nil
}

func (p *pollMultiplexer) Unregister(h platform.Handle) error {
	i, ok := p.idx[h]
	if !ok {
		return nil
	}
	last := len(p.fds) - 1
	p.fds[i] = p.fds[last]
	p.fds = p.fds[:last]
	delete(p.idx, h)
	if i != last {
		p.idx[platform.Handle(p.fds[i].Fd)] = i
	}
	return nil
}

func (p *pollMultiplexer) Wait(timeout time.Duration) ([]Event, error) {
	if len(p.fds) == 0 {
		time.Sleep(timeout)
		return nil, nil
	}
	n, err := unix.Poll(p.fds, durationToMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	events := make([]Event, 0, n)
	for _, pfd := range p.fds {
		if pfd.Revents == 0 {
			continue
		}
		events = append(events, Event{
			Handle:   platform.Handle(pfd.Fd),
			Writable: pfd.Revents&unix.POLLOUT != 0,
			Error:    pfd.Revents&unix.POLLERR != 0,
			Hup:      pfd.Revents&(unix.POLLHUP|unix.POLLRDHUP) != 0,
		})
	}
	return events, nil
}

func (p *pollMultiplexer) Close() error {
	p.fds = nil
	p.idx = nil
	return nil
}

// durationToMillis clamps a wait duration to poll(2)/epoll_wait's int
// timeout, rounding up so the engine never busy-spins below its intended
// cadence.
func durationToMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d.Milliseconds()
	if d%time.Millisecond != 0 {
		ms++
	}
	if ms > 1<<31-1 {
		ms = 1<<31 - 1
	}
	return int(ms)
}
