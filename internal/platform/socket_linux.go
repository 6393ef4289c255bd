//go:build linux

package platform

import (
	"golang.org/x/sys/unix"
)

// Handle is a platform socket handle; on unix it is simply the file
// descriptor.
type Handle int

// packetBits is the Ethernet+IP+TCP-SYN frame size Linux's raw queueing
// accounts for, in bits, per spec (~74 bytes including headers).
const packetBits = 74 * 8

// PacketBits returns the platform packet-size constant used for bandwidth
// accounting (bits per probe issued).
func PacketBits() int { return packetBits }

// DefaultPollerKind returns the scalable backend preferred on this OS.
func DefaultPollerKind() PollerKind { return PollerEpoll }

// MaxDescriptors returns the process's current open-file soft limit.
func MaxDescriptors() (int, error) {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0, err
	}
	return int(rlim.Cur), nil
}

// NewNonblockingSocket creates a nonblocking IPv4 TCP socket.
func NewNonblockingSocket() (Handle, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return 0, err
	}
	return Handle(fd), nil
}

// Connect issues a nonblocking connect to ip:port. A nil error means the
// handshake completed synchronously (common on loopback); EINPROGRESS is
// reported as ErrConnectInProgress, distinct from both that and any
// synchronous refusal/unreachable error, so the caller never mistakes
// "still connecting" for "connected".
func Connect(h Handle, ip [4]byte, port int) error {
	sa := &unix.SockaddrInet4{Port: port, Addr: ip}
	err := unix.Connect(int(h), sa)
	if err == unix.EINPROGRESS {
		return ErrConnectInProgress
	}
	return err
}

// SocketError reads and clears the socket's pending error (SO_ERROR),
// the authoritative signal for classifying a writable-or-error event.
func SocketError(h Handle) error {
	errno, err := unix.GetsockoptInt(int(h), unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno == 0 {
		return nil
	}
	return unix.Errno(errno)
}

// CloseSocket closes the socket handle.
func CloseSocket(h Handle) error {
	return unix.Close(int(h))
}

// IsRefused reports whether err represents an actively refused connection.
func IsRefused(err error) bool {
	return err == unix.ECONNREFUSED
}

// IsUnreachable reports whether err represents a non-retryable
// host/network-unreachable failure.
func IsUnreachable(err error) bool {
	return err == unix.EHOSTUNREACH || err == unix.ENETUNREACH || err == unix.ENETDOWN || err == unix.EHOSTDOWN
}

// IsResourceExhausted reports descriptor/memory exhaustion on socket
// creation, which the engine treats by shrinking the pool rather than
// aborting (spec §7).
func IsResourceExhausted(err error) bool {
	return err == unix.EMFILE || err == unix.ENFILE || err == unix.ENOBUFS || err == unix.ENOMEM
}
