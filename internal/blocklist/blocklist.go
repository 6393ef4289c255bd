// Package blocklist implements the engine's deny-set filter (spec §4.G):
// an explicit set of blocked IPs, not CIDRs, rejected in O(1) before any
// network activity occurs for that probe.
package blocklist

import "net/netip"

// Set is an explicit IPv4 deny set.
type Set struct {
	addrs map[[4]byte]struct{}
}

// New builds a Set from a list of IPv4 addresses.
func New(addrs []netip.Addr) *Set {
	s := &Set{addrs: make(map[[4]byte]struct{}, len(addrs))}
	for _, a := range addrs {
		if a.Is4() {
			s.addrs[a.As4()] = struct{}{}
		}
	}
	return s
}

// Blocked reports whether ip is in the deny set.
func (s *Set) Blocked(ip netip.Addr) bool {
	if s == nil || len(s.addrs) == 0 {
		return false
	}
	_, ok := s.addrs[ip.As4()]
	return ok
}
