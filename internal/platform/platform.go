// Package platform abstracts the per-OS primitives the probe engine needs:
// nonblocking socket creation, pending-error retrieval, the packet-size
// constant used for bandwidth accounting, and the default readiness-poller
// backend. No platform branches appear above this package.
package platform

import "errors"

// ErrUnsupportedFamily names the non-IPv4 case — this scanner is IPv4-only
// (spec: IPv6 undocumented upstream, not guessed at). NewNonblockingSocket
// takes no family argument, always creates an IPv4 socket, and does not
// return this error.
var ErrUnsupportedFamily = errors.New("platform: only IPv4 is supported")

// ErrConnectInProgress is returned by Connect when the kernel has
// accepted the nonblocking connect but not yet resolved it (EINPROGRESS on
// unix, WSAEWOULDBLOCK/WSAEINPROGRESS on Windows). Callers must register
// the socket with a Multiplexer and wait for writability, then consult
// SocketError — it is never equivalent to a nil (synchronously completed)
// or a synchronously-failed connect.
var ErrConnectInProgress = errors.New("platform: connect in progress")

// PollerKind names a readiness-multiplexer backend.
type PollerKind string

const (
	PollerAuto  PollerKind = "auto"
	PollerEpoll PollerKind = "epoll"
	PollerKqueue PollerKind = "kqueue"
	PollerWSAPoll PollerKind = "wsapoll"
	PollerPoll  PollerKind = "poll"
)

// ReservedDescriptors is subtracted from the OS descriptor limit when
// computing the default socket pool ceiling (stdio, listening sockets,
// log/report file handles).
const ReservedDescriptors = 16

// DefaultCeiling caps the auto-computed pool size even when the OS allows
// far more descriptors, keeping behaviour predictable across hosts.
const DefaultCeiling = 8192
