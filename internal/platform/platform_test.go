package platform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/platform"
)

func TestDefaultCapacity_withinCeilingAndPositive(t *testing.T) {
	m := platform.DefaultCapacity()
	assert.Greater(t, m, 0)
	assert.LessOrEqual(t, m, platform.DefaultCeiling)
}

func TestPacketBits_isPositive(t *testing.T) {
	assert.Greater(t, platform.PacketBits(), 0)
}

func TestDefaultPollerKind_isNonEmpty(t *testing.T) {
	assert.NotEmpty(t, platform.DefaultPollerKind())
}
