package socketpool_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/platform"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/socketpool"
)

func TestPool_dialOpenPortResolvesToConnected(t *testing.T) {
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

	mux, err := socketpool.New(platform.PollerPoll)
	require.NoError(t, err)
	defer mux.Close()
	pool := socketpool.NewPool(mux, 4)

	port := listener.Addr().(*net.TCPAddr).Port
	res := pool.Dial([4]byte{127, 0, 0, 1}, port)
	require.NoError(t, res.Err)

	outcome := res.Immediate
	if res.Pending {
		events, err := pool.Wait(2 * time.Second)
		require.NoError(t, err)
		require.Len(t, events, 1)
		outcome = socketpool.Classify(events[0].Handle)
		pool.Release(events[0].Handle)
	}

	assert.Equal(t, socketpool.OutcomeConnected, outcome)
	assert.Equal(t, 0, pool.Len())
}

func TestPool_emptyPoolNotFullAndCapacityAdjustable(t *testing.T) {
	mux, err := socketpool.New(platform.PollerPoll)
	require.NoError(t, err)
	defer mux.Close()
	pool := socketpool.NewPool(mux, 1)

	assert.False(t, pool.Full())
	assert.Equal(t, 1, pool.Capacity())

	pool.SetCapacity(2)
	assert.Equal(t, 2, pool.Capacity())
}
