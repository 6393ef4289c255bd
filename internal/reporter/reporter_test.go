package reporter_test

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/reporter"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/verdict"
)

func TestLineReporter_writesOneLinePerResult(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.New(&buf)

	r.Report(verdict.Result{IP: netip.MustParseAddr("192.0.2.1"), Port: 80, Verdict: verdict.Open})
	r.Report(verdict.Result{IP: netip.MustParseAddr("192.0.2.1"), Port: 443, Verdict: verdict.Filtered})

	require.NoError(t, r.Flush())
	assert.Equal(t, "192.0.2.1 80 open\n192.0.2.1 443 filtered\n", buf.String())
}

func TestLineReporter_buffersUntilFlush(t *testing.T) {
	var buf bytes.Buffer
	r := reporter.New(&buf)

	r.Report(verdict.Result{IP: netip.MustParseAddr("192.0.2.1"), Port: 22, Verdict: verdict.Closed})
	assert.Empty(t, buf.String())

	require.NoError(t, r.Flush())
	assert.Equal(t, "192.0.2.1 22 closed\n", buf.String())
}
