package platform_test

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/platform"
)

func TestConnect_openPortNeverReportsImmediateSuccessAsAnythingElse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	go func() {
		for {
			c, err := listener.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()

	h, err := platform.NewNonblockingSocket()
	require.NoError(t, err)
	defer platform.CloseSocket(h)

	port := listener.Addr().(*net.TCPAddr).Port
	connErr := platform.Connect(h, [4]byte{127, 0, 0, 1}, port)

	// A nonblocking connect either completes synchronously (nil) or is
	// still underway (ErrConnectInProgress) — it must never be silently
	// conflated with a refusal or an unrelated error.
	if connErr != nil {
		assert.True(t, errors.Is(connErr, platform.ErrConnectInProgress), "unexpected connect error: %v", connErr)
	}
}

