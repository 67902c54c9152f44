package utils

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// CanonicalDNSName returns a DNS name in canonical form:
// - Lowercased
// - Trimmed of surrounding whitespace
// - No trailing dot
func CanonicalDNSName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	// remove all trailing dots
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// PresentationDNSName returns the canonical name as a fully qualified name
// with exactly one trailing dot. The root is ".".
func PresentationDNSName(name string) string {
	return CanonicalDNSName(name) + "."
}

// CanonicalHostname normalises a user supplied hostname for storage: canonical
// form, then converted to its IDNA ASCII (punycode) form so that the store and
// the wire agree on one spelling.
func CanonicalHostname(name string) (string, error) {
	name = CanonicalDNSName(name)
	if name == "" {
		return "", fmt.Errorf("empty hostname")
	}
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", err
	}
	return ascii, nil
}

// StripZone removes the longest matching zone suffix from name. Matching is
// case-insensitive and only happens on a label boundary. It returns the bare
// host part (empty for the zone apex), the zone that matched, and whether any
// zone matched at all.
func StripZone(name string, zones []string) (host, zone string, ok bool) {
	name = CanonicalDNSName(name)
	for _, z := range zones {
		z = CanonicalDNSName(z)
		if z == "" || len(z) <= len(zone) {
			continue
		}
		switch {
		case name == z:
			host, zone, ok = "", z, true
		case strings.HasSuffix(name, "."+z):
			host, zone, ok = strings.TrimSuffix(name, "."+z), z, true
		}
	}
	return host, zone, ok
}
