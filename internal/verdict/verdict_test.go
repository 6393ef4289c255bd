package verdict_test

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/verdict"
)

type collector struct {
	reported []verdict.Result
}

func (c *collector) Report(r verdict.Result) { c.reported = append(c.reported, r) }

func TestSink_dedupesByIPAndPort(t *testing.T) {
	c := &collector{}
	s := verdict.New(c, true, 8)
	ip := netip.MustParseAddr("192.0.2.1")

	s.Emit(ip, 80, verdict.Open)
	s.Emit(ip, 80, verdict.Open)

	require.Len(t, c.reported, 1)
	assert.Equal(t, verdict.Open, c.reported[0].Verdict)
}

func TestSink_suppressesClosedUnlessRequested(t *testing.T) {
	c := &collector{}
	s := verdict.New(c, false, 8)
	ip := netip.MustParseAddr("192.0.2.1")

	s.Emit(ip, 80, verdict.Closed)
	assert.Empty(t, c.reported)

	s.Emit(ip, 81, verdict.Open)
	require.Len(t, c.reported, 1)
}

func TestSink_reportsClosedWhenOptedIn(t *testing.T) {
	c := &collector{}
	s := verdict.New(c, true, 8)
	ip := netip.MustParseAddr("192.0.2.1")

	s.Emit(ip, 80, verdict.Closed)
	require.Len(t, c.reported, 1)
	assert.Equal(t, verdict.Closed, c.reported[0].Verdict)
}

func TestSink_dedupSetStaysBoundedByCapacity(t *testing.T) {
	c := &collector{}
	s := verdict.New(c, true, 2)
	ip := netip.MustParseAddr("192.0.2.1")

	// Fill the bounded dedup window past its capacity with distinct keys
	// so the first one is evicted, then repeat it — it must be treated
	// as fresh (and reported again), proving the set never grows past
	// its configured bound regardless of how many distinct pairs pass
	// through it.
	s.Emit(ip, 1, verdict.Open)
	s.Emit(ip, 2, verdict.Open)
	s.Emit(ip, 3, verdict.Open)
	s.Emit(ip, 1, verdict.Open)

	require.Len(t, c.reported, 4)
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "open", verdict.Open.String())
	assert.Equal(t, "closed", verdict.Closed.String())
	assert.Equal(t, "filtered", verdict.Filtered.String())
}
