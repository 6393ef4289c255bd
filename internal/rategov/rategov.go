// Package rategov implements the deterministic two-cap admission pacer
// described in spec §4.B: a bandwidth cap and a packet-rate cap, checked
// independently, with the effective admission time being the max of the
// two. There is no burst credit and no smoothing window, so wall-clock
// scan time is predictable from probe count and rate alone.
//
// The API shape — AllowAt returning the next-allowed time, which is now
// itself when a probe may proceed immediately — is adapted from
// github.com/joeycumines/go-catrate's Limiter.Allow. Unlike catrate this
// governor tracks exactly one category (the whole scan), needs no
// sliding-window ring buffer, and runs no background cleanup goroutine:
// the engine that owns it is strictly single-threaded (spec §5), so there
// is nothing concurrent for a worker to protect against.
package rategov

import (
	"fmt"
	"time"
)

// Governor paces probe admission against independent bandwidth and
// packet-rate caps.
type Governor struct {
	bandwidthBps int64 // bits/sec; 0 means uncapped
	packetsPps   int64 // packets/sec; 0 means uncapped

	lastBandwidthAdmit time.Time
	lastPacketAdmit    time.Time

	packetBits int // cost of a single probe, for bandwidth accounting
}

// New constructs a Governor. bandwidthBps and packetsPps of 0 mean
// "uncapped" for that dimension (matching -P's "default unlimited").
// packetBits is the platform packet-size constant (spec §3).
func New(bandwidthBps, packetsPps int64, packetBits int) (*Governor, error) {
	if bandwidthBps < 0 || packetsPps < 0 {
		return nil, fmt.Errorf("rategov: caps must not be negative")
	}
	if packetBits <= 0 {
		return nil, fmt.Errorf("rategov: packetBits must be positive")
	}
	return &Governor{bandwidthBps: bandwidthBps, packetsPps: packetsPps, packetBits: packetBits}, nil
}

// AllowAt returns the earliest time, at or after now, that the next probe
// may be admitted under both caps. A return value <= now means the probe
// may be issued immediately.
func (g *Governor) AllowAt(now time.Time) time.Time {
	allowed := now
	if t := g.bandwidthAllowedAt(); t.After(allowed) {
		allowed = t
	}
	if t := g.packetAllowedAt(); t.After(allowed) {
		allowed = t
	}
	return allowed
}

func (g *Governor) bandwidthAllowedAt() time.Time {
	if g.bandwidthBps == 0 || g.lastBandwidthAdmit.IsZero() {
		return time.Time{}
	}
	interval := time.Duration(float64(g.packetBits) / float64(g.bandwidthBps) * float64(time.Second))
	return g.lastBandwidthAdmit.Add(interval)
}

func (g *Governor) packetAllowedAt() time.Time {
	if g.packetsPps == 0 || g.lastPacketAdmit.IsZero() {
		return time.Time{}
	}
	interval := time.Duration(float64(time.Second) / float64(g.packetsPps))
	return g.lastPacketAdmit.Add(interval)
}

// Record accounts for a probe admitted at `now`, advancing both pacing
// clocks. Per spec §9's resolved open question, this is called at
// admission time regardless of how the probe later resolves — even an
// immediate "open" consumed bandwidth on the wire.
func (g *Governor) Record(now time.Time) {
	if g.bandwidthBps != 0 {
		g.lastBandwidthAdmit = now
	}
	if g.packetsPps != 0 {
		g.lastPacketAdmit = now
	}
}
