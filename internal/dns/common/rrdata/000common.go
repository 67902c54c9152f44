package rrdata

import (
	"fmt"
	"net"
	"strings"

	"github.com/haukened/homedns/internal/dns/common/utils"
)

// EncodeDomainName encodes a domain name into wire format (length-prefixed labels ending in 0).
// Used by CNAME RDATA.
func EncodeDomainName(name string) ([]byte, error) {
	// name = foo.example.com.
	name = utils.CanonicalDNSName(name)
	var encoded []byte
	if name != "" {
		for _, label := range strings.Split(name, ".") {
			if len(label) == 0 {
				return nil, fmt.Errorf("empty label in %q", name)
			}
			if len(label) > 63 {
				return nil, fmt.Errorf("label too long: %s", label)
			}
			encoded = append(encoded, byte(len(label)))
			encoded = append(encoded, label...)
		}
	}
	encoded = append(encoded, 0) // null terminator
	if len(encoded) > 255 {
		return nil, fmt.Errorf("domain name too long: %d octets", len(encoded))
	}
	return encoded, nil
}

// isIPv4 checks whether the provided net.IP address is an IPv4 address.
func isIPv4(ip net.IP) bool {
	return ip != nil && ip.To4() != nil
}

// isIPv6 checks whether the provided net.IP is a valid IPv6 address
// and not an IPv4 address in disguise.
func isIPv6(ip net.IP) bool {
	return ip != nil && ip.To16() != nil && ip.To4() == nil
}
