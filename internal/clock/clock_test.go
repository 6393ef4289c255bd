package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/clock"
)

func TestFake_advanceMovesTimeWithoutSleeping(t *testing.T) {
	f := clock.NewFake()
	start := f.Now()

	f.Advance(5 * time.Second)

	assert.Equal(t, start.Add(5*time.Second), f.Now())
}

func TestReal_nowIsMonotonicallyNonDecreasing(t *testing.T) {
	var r clock.Real
	a := r.Now()
	b := r.Now()
	assert.False(t, b.Before(a))
}
