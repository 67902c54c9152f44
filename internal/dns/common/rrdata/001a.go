package rrdata

import (
	"fmt"
	"net"
	"strings"
)

// EncodeAData encodes an A record string into its 4-octet binary representation.
func EncodeAData(data string) ([]byte, error) {
	// data = "192.168.0.1"
	ip := net.ParseIP(strings.TrimSpace(data))
	if ip == nil || !isIPv4(ip) || strings.Contains(data, ":") {
		return nil, fmt.Errorf("invalid A record IP: %s", data)
	}
	return ip.To4(), nil
}
