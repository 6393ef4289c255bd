package engine_test

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/blocklist"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/clock"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/engine"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/platform"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/rategov"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/socketpool"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/target"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/targetparse"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/verdict"
)

type recorder struct {
	results []verdict.Result
}

func (r *recorder) Report(res verdict.Result) { r.results = append(r.results, res) }

func freeLoopbackPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

// TestEngine_Run_classifiesOpenAndClosedPorts exercises the real
// nonblocking-connect + readiness-poll path end to end against loopback
// sockets, standing in for scenarios S1/S2 of a live scan: one port with
// a listener (open) and one with nothing behind it (closed).
func TestEngine_Run_classifiesOpenAndClosedPorts(t *testing.T) {
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
	openPort := listener.Addr().(*net.TCPAddr).Port
	closedPort := freeLoopbackPort(t)

	hosts, err := targetparse.ParseHosts("127.0.0.1")
	require.NoError(t, err)
	stream := target.New([]int{openPort, closedPort}, hosts)

	gov, err := rategov.New(0, 0, platform.PacketBits())
	require.NoError(t, err)

	mux, err := socketpool.New(platform.PollerPoll)
	require.NoError(t, err)
	pool := socketpool.NewPool(mux, 16)
	defer pool.Close()

	rec := &recorder{}
	sink := verdict.New(rec, true, 16)
	bl := blocklist.New(nil)

	eng := engine.New(stream, gov, pool, sink, bl, clock.Real{}, engine.Config{
		Retries:         0,
		RTT:             750 * time.Millisecond,
		LowWaterDivisor: 4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := eng.Run(ctx)
	require.NoError(t, err)

	byPort := map[int]verdict.Verdict{}
	for _, r := range rec.results {
		byPort[r.Port] = r.Verdict
	}
	assert.Equal(t, verdict.Open, byPort[openPort])
	assert.Equal(t, verdict.Closed, byPort[closedPort])
	assert.Equal(t, 1, stats.OpenCount)
	assert.Equal(t, 1, stats.ClosedCount)
	assert.Equal(t, 0, stats.FilteredCount)
}

// TestEngine_Run_respectsBlocklist confirms a blocked host never reaches
// the socket pool at all — no verdict is emitted for it.
func TestEngine_Run_respectsBlocklist(t *testing.T) {
	closedPort := freeLoopbackPort(t)

	hosts, err := targetparse.ParseHosts("127.0.0.1")
	require.NoError(t, err)
	stream := target.New([]int{closedPort}, hosts)

	gov, err := rategov.New(0, 0, platform.PacketBits())
	require.NoError(t, err)

	mux, err := socketpool.New(platform.PollerPoll)
	require.NoError(t, err)
	pool := socketpool.NewPool(mux, 4)
	defer pool.Close()

	rec := &recorder{}
	sink := verdict.New(rec, true, 4)
	bl := blocklist.New([]netip.Addr{netip.MustParseAddr("127.0.0.1")})

	eng := engine.New(stream, gov, pool, sink, bl, clock.Real{}, engine.Config{
		Retries:         0,
		RTT:             500 * time.Millisecond,
		LowWaterDivisor: 4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = eng.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, rec.results)
}
