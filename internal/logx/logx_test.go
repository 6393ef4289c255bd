package logx_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/logx"
)

func TestNew_verbosityMapsToLevel(t *testing.T) {
	cases := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{9, zerolog.TraceLevel},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		l := logx.New(&buf, c.verbosity, false)
		assert.Equal(t, c.want, l.GetLevel())
	}
}

func TestNew_respectsLevelWhenLogging(t *testing.T) {
	var buf bytes.Buffer
	l := logx.New(&buf, 0, false)

	l.Info().Msg("should be suppressed")
	assert.Empty(t, buf.String())

	l.Warn().Msg("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestIsTerminal_falseForRegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "logx-test")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	assert.False(t, logx.IsTerminal(f))
}
