package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError_unwrapsCause(t *testing.T) {
	cause := errors.New("bad cidr")
	err := &ConfigError{Message: "parsing -h hosts", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "bad cidr")
	assert.Contains(t, err.Error(), "parsing -h hosts")
}

func TestFatalProbeError_unwrapsCause(t *testing.T) {
	cause := errors.New("kernel panic on broadcast connect")
	err := &FatalProbeError{Address: "255.255.255.255:80", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "255.255.255.255:80")
}

func TestResourceExhaustedError_unwrapsCause(t *testing.T) {
	cause := errors.New("too many open files")
	err := &ResourceExhaustedError{Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "too many open files")
}
