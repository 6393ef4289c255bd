//go:build windows

package platform

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Handle is a platform socket handle.
type Handle windows.Handle

// packetBits is the smaller Ethernet+IP+TCP-SYN framing constant Windows'
// network stack accounts for (~66 bytes including headers), per spec.
const packetBits = 66 * 8

func PacketBits() int { return packetBits }

// DefaultPollerKind returns WSAPoll: readiness-based, level-triggered,
// the Windows primitive that matches this scanner's polling contract
// (unlike IOCP, which is completion- not readiness-based).
func DefaultPollerKind() PollerKind { return PollerWSAPoll }

// MaxDescriptors has no direct Windows analogue to POSIX RLIMIT_NOFILE;
// Winsock's practical ceiling is governed by available non-paged pool
// rather than a per-process descriptor table, so a conservative fixed
// ceiling is used instead.
func MaxDescriptors() (int, error) {
	return DefaultCeiling, nil
}

var (
	ws2_32       = windows.NewLazySystemDLL("ws2_32.dll")
	procIoctl    = ws2_32.NewProc("ioctlsocket")
	fionbio      = 0x8004667e // FIONBIO
)

func setNonblocking(s windows.Handle) error {
	var mode uint32 = 1
	r1, _, err := procIoctl.Call(uintptr(s), uintptr(fionbio), uintptr(unsafe.Pointer(&mode)))
	if r1 != 0 {
		return err
	}
	return nil
}

// NewNonblockingSocket creates a nonblocking IPv4 TCP socket.
func NewNonblockingSocket() (Handle, error) {
	s, err := windows.Socket(windows.AF_INET, windows.SOCK_STREAM, windows.IPPROTO_TCP)
	if err != nil {
		return 0, err
	}
	if err := setNonblocking(s); err != nil {
		_ = windows.Closesocket(s)
		return 0, err
	}
	return Handle(s), nil
}

// Connect issues a nonblocking connect to ip:port. A nil error means the
// handshake completed synchronously; WSAEWOULDBLOCK/WSAEINPROGRESS are
// reported as ErrConnectInProgress so the caller never mistakes "still
// connecting" for "connected".
func Connect(h Handle, ip [4]byte, port int) error {
	sa := &windows.SockaddrInet4{Port: port, Addr: ip}
	err := windows.Connect(windows.Handle(h), sa)
	if err == windows.WSAEWOULDBLOCK || err == windows.WSAEINPROGRESS {
		return ErrConnectInProgress
	}
	return err
}

// SocketError reads and clears the socket's pending error.
func SocketError(h Handle) error {
	errno, err := windows.GetsockoptInt(windows.Handle(h), windows.SOL_SOCKET, windows.SO_ERROR)
	if err != nil {
		return err
	}
	if errno == 0 {
		return nil
	}
	return windows.Errno(errno)
}

// CloseSocket closes the socket handle.
func CloseSocket(h Handle) error {
	return windows.Closesocket(windows.Handle(h))
}

func IsRefused(err error) bool {
	return err == windows.WSAECONNREFUSED
}

func IsUnreachable(err error) bool {
	return err == windows.WSAEHOSTUNREACH || err == windows.WSAENETUNREACH || err == windows.WSAENETDOWN
}

func IsResourceExhausted(err error) bool {
	return err == windows.WSAEMFILE || err == windows.WSAENOBUFS
}
