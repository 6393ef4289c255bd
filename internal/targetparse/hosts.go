// Package targetparse parses the host and port expressions accepted on
// the CLI (spec §6) into the iterators component A (internal/target)
// consumes. Parsing itself is an external collaborator per spec §1, but a
// complete, runnable repository needs a concrete implementation of it.
package targetparse

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// HostIterator yields every IPv4 address named by a set of host
// expressions, in the order the expressions were given, and supports
// Reset so the engine can sweep all hosts once per port (port-major
// order, spec §3).
type HostIterator struct {
	ranges []hostRange
	// cursor state
	rangeIdx int
	offset   uint32
}

type hostRange struct {
	base netip.Addr
	// count is the number of consecutive addresses starting at base.
	count uint32
}

// ParseHosts parses a comma-separated list of host expressions: a single
// IPv4 address, a CIDR block ("10.0.0.0/24"), or a dashed range
// ("10.0.0.1-10.0.0.20").
func ParseHosts(expr string) (*HostIterator, error) {
	it := &HostIterator{}
	for _, field := range splitNonEmpty(expr, ',') {
		r, err := parseHostField(field)
		if err != nil {
			return nil, err
		}
		it.ranges = append(it.ranges, r)
	}
	if len(it.ranges) == 0 {
		return nil, fmt.Errorf("targetparse: empty host expression")
	}
	return it, nil
}

func parseHostField(field string) (hostRange, error) {
	field = strings.TrimSpace(field)
	switch {
	case strings.Contains(field, "/"):
		return parseCIDR(field)
	case strings.Contains(field, "-"):
		return parseRange(field)
	default:
		addr, err := netip.ParseAddr(field)
		if err != nil {
			return hostRange{}, fmt.Errorf("targetparse: invalid host %q: %w", field, err)
		}
		if !addr.Is4() {
			return hostRange{}, fmt.Errorf("targetparse: %q is not IPv4 (IPv6 unsupported)", field)
		}
		return hostRange{base: addr, count: 1}, nil
	}
}

func parseCIDR(field string) (hostRange, error) {
	prefix, err := netip.ParsePrefix(field)
	if err != nil {
		return hostRange{}, fmt.Errorf("targetparse: invalid CIDR %q: %w", field, err)
	}
	if !prefix.Addr().Is4() {
		return hostRange{}, fmt.Errorf("targetparse: %q is not IPv4 (IPv6 unsupported)", field)
	}
	masked := prefix.Masked()
	bits := masked.Bits()
	count := uint32(1) << uint(32-bits)
	return hostRange{base: masked.Addr(), count: count}, nil
}

func parseRange(field string) (hostRange, error) {
	parts := strings.SplitN(field, "-", 2)
	if len(parts) != 2 {
		return hostRange{}, fmt.Errorf("targetparse: invalid range %q", field)
	}
	start, err := netip.ParseAddr(strings.TrimSpace(parts[0]))
	if err != nil {
		return hostRange{}, fmt.Errorf("targetparse: invalid range start %q: %w", field, err)
	}
	end, err := netip.ParseAddr(strings.TrimSpace(parts[1]))
	if err != nil {
		return hostRange{}, fmt.Errorf("targetparse: invalid range end %q: %w", field, err)
	}
	if !start.Is4() || !end.Is4() {
		return hostRange{}, fmt.Errorf("targetparse: %q is not IPv4 (IPv6 unsupported)", field)
	}
	s, e := addrToUint32(start), addrToUint32(end)
	if e < s {
		return hostRange{}, fmt.Errorf("targetparse: range %q is backwards", field)
	}
	return hostRange{base: start, count: e - s + 1}, nil
}

// Len returns the total number of addresses this iterator will yield,
// computable up front for progress reporting without materialising the
// list (spec §4.A).
func (it *HostIterator) Len() int {
	var n int
	for _, r := range it.ranges {
		n += int(r.count)
	}
	return n
}

// Reset rewinds the iterator to its first address.
func (it *HostIterator) Reset() {
	it.rangeIdx = 0
	it.offset = 0
}

// Next returns the next address, or ok=false once exhausted.
func (it *HostIterator) Next() (netip.Addr, bool) {
	for it.rangeIdx < len(it.ranges) {
		r := it.ranges[it.rangeIdx]
		if it.offset >= r.count {
			it.rangeIdx++
			it.offset = 0
			continue
		}
		addr := addrFromUint32(addrToUint32(r.base) + it.offset)
		it.offset++
		return addr, true
	}
	return netip.Addr{}, false
}

func addrToUint32(a netip.Addr) uint32 {
	b := a.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func addrFromUint32(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	for _, f := range strings.Split(s, string(sep)) {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ParsePorts parses a port expression: "N", "N-M", "all", or a
// comma-separated combination of the above. "all" resolves to 1..=65535
// (spec §8 invariant 10).
func ParsePorts(expr string) ([]int, error) {
	if strings.TrimSpace(expr) == "all" {
		expr = "1-65535"
	}
	var ports []int
	for _, field := range splitNonEmpty(expr, ',') {
		if field == "all" {
			field = "1-65535"
		}
		if strings.Contains(field, "-") {
			parts := strings.SplitN(field, "-", 2)
			lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
			if err != nil {
				return nil, fmt.Errorf("targetparse: invalid port range %q: %w", field, err)
			}
			hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return nil, fmt.Errorf("targetparse: invalid port range %q: %w", field, err)
			}
			if lo < 1 || hi > 65535 || hi < lo {
				return nil, fmt.Errorf("targetparse: port range %q out of bounds", field)
			}
			for p := lo; p <= hi; p++ {
				ports = append(ports, p)
			}
			continue
		}
		p, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("targetparse: invalid port %q: %w", field, err)
		}
		if p < 1 || p > 65535 {
			return nil, fmt.Errorf("targetparse: port %d out of bounds", p)
		}
		ports = append(ports, p)
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("targetparse: empty port expression")
	}
	return ports, nil
}
