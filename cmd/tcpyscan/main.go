// Command tcpyscan is the single-threaded, nonblocking-connect TCP port
// scanner described by this repository's design documents: it resolves a
// target expression and a port expression into a probe stream, paces
// admission against a bandwidth/packet-rate governor, and drives a
// readiness-multiplexed socket pool until every probe has a verdict.
package main

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/blocklist"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/clock"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/cliconfig"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/engine"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/logx"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/platform"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/rategov"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/reporter"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/socketpool"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/target"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/targetparse"
	"github.com/CiscoCXSecurity/tcpy-scanner/internal/verdict"
)

// Version is overwritten via -ldflags at release build time.
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	code := 0
	cmd := &cobra.Command{
		Use:          "tcpyscan [flags] target...",
		Short:        "Single-threaded, event-driven, nonblocking-connect TCP port scanner",
		Version:      Version,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			code, err = execute(cmd, args)
			return err
		},
	}
	cliconfig.BindFlags(cmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("tcpyscan", Version)
			return nil
		},
	})

	if err := cmd.Execute(); err != nil {
		if code == 0 {
			code = 1 // cobra's own flag/usage errors are config errors
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return code
}

// execute builds every collaborator from the parsed Config and drives the
// scan to completion, returning the exit code spec §6 names alongside any
// error cobra should report to stderr.
func execute(cmd *cobra.Command, args []string) (int, error) {
	cfg, err := cliconfig.Load(cmd, args)
	if err != nil {
		return 1, err
	}

	logger := logx.New(os.Stderr, cfg.Verbosity, logx.IsTerminal(os.Stderr))

	hostsExpr, err := expandTargets(cfg)
	if err != nil {
		return 1, &engine.ConfigError{Message: "reading target file", Cause: err}
	}
	hosts, err := targetparse.ParseHosts(hostsExpr)
	if err != nil {
		return 1, &engine.ConfigError{Message: "parsing targets", Cause: err}
	}
	ports, err := targetparse.ParsePorts(cfg.PortsExpr)
	if err != nil {
		return 1, &engine.ConfigError{Message: "parsing -p ports", Cause: err}
	}

	bl, err := buildBlocklist(cfg.Blocklist)
	if err != nil {
		return 1, &engine.ConfigError{Message: "parsing -B blocklist", Cause: err}
	}

	capacity := cfg.MaxSockets
	if capacity <= 0 {
		capacity = platform.DefaultCapacity()
	}

	mux, err := socketpool.New(platform.PollerKind(cfg.PollType))
	if err != nil {
		return 1, &engine.ConfigError{Message: "initialising readiness poller", Cause: err}
	}
	pool := socketpool.NewPool(mux, capacity)

	gov, err := rategov.New(cfg.BandwidthBps, cfg.PacketsPps, platform.PacketBits())
	if err != nil {
		return 1, &engine.ConfigError{Message: "configuring rate governor", Cause: err}
	}

	rep := reporter.New(os.Stdout)
	sink := verdict.New(rep, cfg.ReportClosed, capacity)
	stream := target.New(ports, hosts)

	eng := engine.New(stream, gov, pool, sink, bl, clock.Real{}, engine.Config{
		Retries:         cfg.Retries,
		RTT:             durationFromSeconds(cfg.RTTSeconds),
		LowWaterDivisor: 4,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info().
		Int("targets", hosts.Len()).
		Int("ports", len(ports)).
		Int("capacity", capacity).
		Msg("scan starting")

	stats, runErr := eng.Run(ctx)
	_ = rep.Flush()
	_ = pool.Close()

	logger.Info().
		Int("probes_issued", stats.ProbesIssued).
		Int("retries_issued", stats.RetriesIssued).
		Int("open", stats.OpenCount).
		Int("closed", stats.ClosedCount).
		Int("filtered", stats.FilteredCount).
		Int("resource_exhausted", stats.ResourceExhaustedCount).
		Dur("elapsed", stats.Elapsed).
		Msg("scan complete")
	if exhausted := eng.LastResourceExhausted(); exhausted != nil {
		logger.Warn().
			Int("count", stats.ResourceExhaustedCount).
			Int("final_capacity", pool.Capacity()).
			Err(exhausted).
			Msg("socket pool capacity shrunk under descriptor exhaustion")
	}
	fmt.Fprintf(os.Stderr, "scanned %d ports across %d hosts: %d open, %d closed, %d filtered (%s)\n",
		len(ports), hosts.Len(), stats.OpenCount, stats.ClosedCount, stats.FilteredCount, stats.Elapsed)

	if runErr != nil {
		if runErr == context.Canceled {
			return 0, nil
		}
		return 2, &engine.FatalProbeError{Address: "scan", Cause: runErr}
	}
	return 0, nil
}

// expandTargets joins positional target expressions and -f FILE lines
// into the single comma-separated expression targetparse.ParseHosts
// expects.
func expandTargets(cfg *cliconfig.Config) (string, error) {
	var fields []string
	fields = append(fields, cfg.Targets...)
	if cfg.TargetFile != "" {
		data, err := os.ReadFile(cfg.TargetFile)
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				fields = append(fields, line)
			}
		}
	}
	return strings.Join(fields, ","), nil
}

func buildBlocklist(raw []string) (*blocklist.Set, error) {
	addrs := make([]netip.Addr, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		a, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid blocklist address %q: %w", s, err)
		}
		addrs = append(addrs, a)
	}
	return blocklist.New(addrs), nil
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
