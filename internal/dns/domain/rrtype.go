package domain

import (
	"fmt"
	"strings"
)

// RRType represents a DNS resource record type (e.g. A, AAAA, CNAME).
// See IANA DNS Parameters for assigned codes.
type RRType uint16

// Types the responder knows by name. Any other value still decodes off the
// wire; it is simply never answered.
const (
	RRTypeA     RRType = 1   // A - IPv4 address
	RRTypeNS    RRType = 2   // NS - Name server
	RRTypeCNAME RRType = 5   // CNAME - Canonical name
	RRTypeSOA   RRType = 6   // SOA - Start of authority
	RRTypePTR   RRType = 12  // PTR - Pointer
	RRTypeMX    RRType = 15  // MX - Mail exchange
	RRTypeTXT   RRType = 16  // TXT - Text
	RRTypeAAAA  RRType = 28  // AAAA - IPv6 address
	RRTypeSRV   RRType = 33  // SRV - Service
	RRTypeOPT   RRType = 41  // OPT - EDNS pseudo record
	RRTypeANY   RRType = 255 // ANY - Any type (query only)
)

// IsStorable reports whether records of this type can live in the record store.
func (t RRType) IsStorable() bool {
	switch t {
	case RRTypeA, RRTypeAAAA, RRTypeCNAME:
		return true
	default:
		return false
	}
}

// String returns the textual representation of the RRType.
// For unknown types, it returns "UNKNOWN(<value>)".
func (t RRType) String() string {
	switch t {
	case RRTypeA:
		return "A"
	case RRTypeNS:
		return "NS"
	case RRTypeCNAME:
		return "CNAME"
	case RRTypeSOA:
		return "SOA"
	case RRTypePTR:
		return "PTR"
	case RRTypeMX:
		return "MX"
	case RRTypeTXT:
		return "TXT"
	case RRTypeAAAA:
		return "AAAA"
	case RRTypeSRV:
		return "SRV"
	case RRTypeOPT:
		return "OPT"
	case RRTypeANY:
		return "ANY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", t)
	}
}

// RRTypeFromString converts a record type string to its RRType value.
// Matching is case-insensitive; unknown names return 0.
func RRTypeFromString(s string) RRType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return RRTypeA
	case "NS":
		return RRTypeNS
	case "CNAME":
		return RRTypeCNAME
	case "SOA":
		return RRTypeSOA
	case "PTR":
		return RRTypePTR
	case "MX":
		return RRTypeMX
	case "TXT":
		return RRTypeTXT
	case "AAAA":
		return RRTypeAAAA
	case "SRV":
		return RRTypeSRV
	case "OPT":
		return RRTypeOPT
	case "ANY":
		return RRTypeANY
	default:
		return 0
	}
}
