package domain

import "fmt"

// RCode represents a DNS response code indicating the result of a query.
type RCode uint8

// Response codes used by the responder (RFC 1035 §4.1.1).
const (
	RCodeNoError  RCode = 0
	RCodeFormErr  RCode = 1
	RCodeServFail RCode = 2
	RCodeNXDomain RCode = 3
	RCodeNotImp   RCode = 4
	RCodeRefused  RCode = 5
)

// IsValid returns true if the RCode fits in the 4-bit header field.
func (r RCode) IsValid() bool {
	return r <= 15
}

// String returns the textual representation of the RCode.
func (r RCode) String() string {
	switch r {
	case RCodeNoError:
		return "NOERROR"
	case RCodeFormErr:
		return "FORMERR"
	case RCodeServFail:
		return "SERVFAIL"
	case RCodeNXDomain:
		return "NXDOMAIN"
	case RCodeNotImp:
		return "NOTIMP"
	case RCodeRefused:
		return "REFUSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", r)
	}
}
