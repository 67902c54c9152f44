package rrdata

import "fmt"

// EncodeCNAMEData encodes a CNAME record string into its binary representation.
func EncodeCNAMEData(data string) ([]byte, error) {
	// data = "cname.example.com"
	if data == "" {
		return nil, fmt.Errorf("CNAME target must not be empty")
	}
	return EncodeDomainName(data)
}
