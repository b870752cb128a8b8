package firewall

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/firefly-engineering/mythic-ctl/internal/errors"
)

// Family is an address family with its own rule set.
type Family string

const (
	IPv4 Family = "ipv4"
	IPv6 Family = "ipv6"
)

// TrustedSource is the address or network allowed to reach the admin port.
type TrustedSource struct {
	prefix netip.Prefix
}

// ParseTrustedSource accepts an IP address or a CIDR block. A bare address
// becomes a single-host prefix; host bits of a CIDR are cleared.
func ParseTrustedSource(s string) (TrustedSource, error) {
	s = strings.TrimSpace(s)
	invalid := errors.InvalidArgument(fmt.Sprintf("invalid source %q: want an IP address or CIDR block such as 203.0.113.7 or 203.0.113.0/24", s))

	if s == "" {
		return TrustedSource{}, invalid
	}

	if strings.Contains(s, "/") {
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return TrustedSource{}, invalid
		}
		addr := prefix.Addr()
		if addr.Is4In6() {
			bits := prefix.Bits() - 96
			if bits < 0 {
				return TrustedSource{}, invalid
			}
			prefix = netip.PrefixFrom(addr.Unmap(), bits)
		}
		return TrustedSource{prefix: prefix.Masked()}, nil
	}

	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return TrustedSource{}, invalid
	}
	addr = addr.Unmap()
	return TrustedSource{prefix: netip.PrefixFrom(addr, addr.BitLen())}, nil
}

// MustParseTrustedSource is like ParseTrustedSource but panics on error.
func MustParseTrustedSource(s string) TrustedSource {
	src, err := ParseTrustedSource(s)
	if err != nil {
		panic(err)
	}
	return src
}

func (s TrustedSource) String() string {
	if !s.prefix.IsValid() {
		return ""
	}
	return s.prefix.String()
}

// IsZero reports whether s was never set.
func (s TrustedSource) IsZero() bool {
	return !s.prefix.IsValid()
}

// Family returns the address family rules for s belong to.
func (s TrustedSource) Family() Family {
	if s.prefix.Addr().Is6() {
		return IPv6
	}
	return IPv4
}
