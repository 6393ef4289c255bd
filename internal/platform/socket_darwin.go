//go:build darwin

package platform

import (
	"golang.org/x/sys/unix"
)

// Handle is a platform socket handle; on unix it is simply the file
// descriptor.
type Handle int

// packetBits mirrors Linux's constant; BSD/Darwin Ethernet+IP+TCP-SYN
// framing is close enough that a single non-Windows constant is faithful.
const packetBits = 74 * 8

func PacketBits() int { return packetBits }

func DefaultPollerKind() PollerKind { return PollerKqueue }

func MaxDescriptors() (int, error) {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0, err
	}
	return int(rlim.Cur), nil
}

func NewNonblockingSocket() (Handle, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return 0, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return 0, err
	}
	unix.CloseOnExec(fd)
	return Handle(fd), nil
}

// Connect issues a nonblocking connect to ip:port. A nil error means the
// handshake completed synchronously; EINPROGRESS is reported as
// ErrConnectInProgress so the caller never mistakes "still connecting"
// for "connected".
func Connect(h Handle, ip [4]byte, port int) error {
	sa := &unix.SockaddrInet4{Port: port, Addr: ip}
	err := unix.Connect(int(h), sa)
	if err == unix.EINPROGRESS {
		return ErrConnectInProgress
	}
	return err
}

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

func CloseSocket(h Handle) error {
	return unix.Close(int(h))
}

func IsRefused(err error) bool {
	return err == unix.ECONNREFUSED
}

func IsUnreachable(err error) bool {
	return err == unix.EHOSTUNREACH || err == unix.ENETUNREACH || err == unix.ENETDOWN || err == unix.EHOSTDOWN
}

func IsResourceExhausted(err error) bool {
	return err == unix.EMFILE || err == unix.ENFILE || err == unix.ENOBUFS || err == unix.ENOMEM
}
