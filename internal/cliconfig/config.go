// Package cliconfig binds the spec's CLI flag table to a cobra command
// tree with optional viper-backed file/environment overrides, grounded on
// cuemby-warren's cobra root-command style and nabbar-golib's cobra+viper
// pairing (DESIGN.md).
package cliconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/engine"
)

// Config is the populated, validated configuration record the engine's
// collaborators are built from (spec §6's CLI surface, plus §6 of
// SPEC_FULL.md's --config/env layer).
type Config struct {
	Targets    []string
	TargetFile string
	PortsExpr  string

	BandwidthBps int64
	PacketsPps   int64
	RTTSeconds   float64
	MaxSockets   int
	Retries      int
	PollType     string
	ReportClosed bool
	Blocklist    []string
	Verbosity    int
}

// BindFlags registers every spec §6 flag (plus --config) on cmd, with the
// same defaults spec.md names.
func BindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("file", "f", "", "file of target expressions, one per line")
	f.StringP("ports", "p", "1-65535", "ports: N, N-M, all, or comma-separated combinations")
	f.StringP("bandwidth", "b", "250000", "bits/sec cap; accepts k/m suffixes")
	f.StringP("packetrate", "P", "0", "packets/sec cap; 0 means unlimited")
	f.Float64P("rtt", "R", 0.5, "per-probe deadline in seconds")
	f.IntP("max-sockets", "m", 0, "override for the socket pool cap; 0 means auto")
	f.IntP("retries", "r", 2, "max retries per probe (timeouts only)")
	f.StringP("poll-type", "t", "auto", "readiness backend: poll, epoll, auto")
	f.BoolP("closed", "c", false, "emit closed verdicts (ignored where unsupported)")
	f.StringP("blocklist", "B", "", "comma-separated list of IPs to exclude")
	f.CountP("verbose", "d", "verbose diagnostic output; repeat to increase")
	f.String("config", "", "optional config file (YAML/TOML), merged under flags and TCPY_ env vars")
}

// Load reads bound flags (and, if --config or TCPY_CONFIG names a file, a
// viper-merged config file and TCPY_-prefixed environment overrides) into
// a validated Config. args are the positional target expressions.
func Load(cmd *cobra.Command, args []string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TCPY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, &engine.ConfigError{Message: "binding flags", Cause: err}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &engine.ConfigError{Message: fmt.Sprintf("reading config file %q", path), Cause: err}
		}
	}

	cfg := &Config{
		Targets:    args,
		TargetFile: v.GetString("file"),
		PortsExpr:  v.GetString("ports"),
		RTTSeconds: v.GetFloat64("rtt"),
		MaxSockets: v.GetInt("max-sockets"),
		Retries:    v.GetInt("retries"),
		PollType:   v.GetString("poll-type"),
		ReportClosed: v.GetBool("closed"),
		Verbosity:  v.GetInt("verbose"),
	}
	if bl := v.GetString("blocklist"); bl != "" {
		cfg.Blocklist = strings.Split(bl, ",")
	}

	bw, err := ParseRate(v.GetString("bandwidth"))
	if err != nil {
		return nil, &engine.ConfigError{Message: "parsing -b bandwidth", Cause: err}
	}
	cfg.BandwidthBps = bw

	pps, err := ParseRate(v.GetString("packetrate"))
	if err != nil {
		return nil, &engine.ConfigError{Message: "parsing -P packetrate", Cause: err}
	}
	cfg.PacketsPps = pps

	if len(cfg.Targets) == 0 && cfg.TargetFile == "" {
		return nil, &engine.ConfigError{Message: "no targets given (positional args or -f FILE)"}
	}
	switch cfg.PollType {
	case "auto", "poll", "epoll", "kqueue", "wsapoll":
	default:
		return nil, &engine.ConfigError{Message: fmt.Sprintf("unknown -t poll type %q", cfg.PollType)}
	}
	if cfg.Retries < 0 {
		return nil, &engine.ConfigError{Message: "-r retries must not be negative"}
	}
	if cfg.RTTSeconds <= 0 {
		return nil, &engine.ConfigError{Message: "-R rtt must be positive"}
	}

	return cfg, nil
}

// ParseRate parses a bits/sec or packets/sec cap with an optional
// case-insensitive k (x1000) or m (x1,000,000) suffix. An empty string or
// "0" means uncapped.
func ParseRate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	mult := int64(1)
	switch suffix := s[len(s)-1]; suffix {
	case 'k', 'K':
		mult = 1_000
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1_000_000
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("rate must not be negative: %q", s)
	}
	return n * mult, nil
}
