package rrdata

import (
	"fmt"
	"net"
	"strings"
)

// EncodeAAAAData encodes an AAAA record string into its 16-octet binary representation.
func EncodeAAAAData(data string) ([]byte, error) {
	// data = "2001:db8::ff00:42:8329"
	ip := net.ParseIP(strings.TrimSpace(data))
	if ip == nil || !isIPv6(ip) {
		return nil, fmt.Errorf("invalid AAAA record IP: %s", data)
	}
	return ip.To16(), nil
}
