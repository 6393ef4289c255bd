package blocklist_test

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/blocklist"
)

func TestSet_blocksOnlyListedAddresses(t *testing.T) {
	s := blocklist.New([]netip.Addr{
		netip.MustParseAddr("192.0.2.1"),
		netip.MustParseAddr("192.0.2.2"),
	})

	assert.True(t, s.Blocked(netip.MustParseAddr("192.0.2.1")))
	assert.False(t, s.Blocked(netip.MustParseAddr("192.0.2.3")))
}

func TestSet_nilAndEmptyNeverBlock(t *testing.T) {
	var s *blocklist.Set
	assert.False(t, s.Blocked(netip.MustParseAddr("192.0.2.1")))

	empty := blocklist.New(nil)
	assert.False(t, empty.Blocked(netip.MustParseAddr("192.0.2.1")))
}
