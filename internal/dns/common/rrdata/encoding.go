// Package rrdata converts record values from their presentation form, as kept
// in the record store, to wire-format RDATA.
package rrdata

import (
	"fmt"

	"github.com/haukened/homedns/internal/dns/domain"
)

// Encode encodes a record value based on its type, to its binary representation.
// Only the types the record store can hold are supported.
func Encode(rrType domain.RRType, data string) ([]byte, error) {
	switch rrType {
	case domain.RRTypeA: // 1
		return EncodeAData(data)
	case domain.RRTypeCNAME: // 5
		return EncodeCNAMEData(data)
	case domain.RRTypeAAAA: // 28
		return EncodeAAAAData(data)
	default:
		return nil, fmt.Errorf("%s record encoding not supported", rrType)
	}
}
