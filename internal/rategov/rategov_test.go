package rategov_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/rategov"
)

func TestNew_rejectsInvalidInputs(t *testing.T) {
	_, err := rategov.New(-1, 0, 592)
	assert.Error(t, err)

	_, err = rategov.New(0, -1, 592)
	assert.Error(t, err)

	_, err = rategov.New(0, 0, 0)
	assert.Error(t, err)
}

func TestGovernor_uncappedAllowsImmediately(t *testing.T) {
	g, err := rategov.New(0, 0, 592)
	require.NoError(t, err)

	now := time.Unix(100, 0)
	assert.True(t, !g.AllowAt(now).After(now))
	g.Record(now)
	assert.True(t, !g.AllowAt(now).After(now))
}

func TestGovernor_bandwidthCapPacesByPacketBits(t *testing.T) {
	// 592 bits per packet, 592 bits/sec cap -> exactly one packet per second.
	g, err := rategov.New(592, 0, 592)
	require.NoError(t, err)

	t0 := time.Unix(0, 0)
	assert.True(t, !g.AllowAt(t0).After(t0))
	g.Record(t0)

	assert.Equal(t, t0.Add(time.Second), g.AllowAt(t0))

	t1 := t0.Add(time.Second)
	assert.True(t, !g.AllowAt(t1).After(t1))
}

func TestGovernor_packetRateCapIsIndependentOfBandwidth(t *testing.T) {
	g, err := rategov.New(0, 10, 592)
	require.NoError(t, err)

	t0 := time.Unix(0, 0)
	g.Record(t0)

	next := g.AllowAt(t0)
	assert.Equal(t, t0.Add(100*time.Millisecond), next)
}

func TestGovernor_effectiveAdmitIsMaxOfBothCaps(t *testing.T) {
	// bandwidth cap wants 1s between admits, packet-rate cap only 100ms.
	g, err := rategov.New(592, 10, 592)
	require.NoError(t, err)

	t0 := time.Unix(0, 0)
	g.Record(t0)

	assert.Equal(t, t0.Add(time.Second), g.AllowAt(t0))
}
