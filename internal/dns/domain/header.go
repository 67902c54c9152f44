package domain

// HeaderSize is the fixed length of a DNS message header in octets.
const HeaderSize = 12

// Bit masks for the 16-bit flags word of the header.
const (
	FlagQR     uint16 = 0x8000 // response
	FlagOpcode uint16 = 0x7800
	FlagAA     uint16 = 0x0400 // authoritative answer
	FlagTC     uint16 = 0x0200 // truncated
	FlagRD     uint16 = 0x0100 // recursion desired
	FlagRA     uint16 = 0x0080 // recursion available
	FlagRCode  uint16 = 0x000F
)

// OpcodeQuery is the standard query opcode; the only one the responder serves.
const OpcodeQuery uint8 = 0

// Opcode extracts the 4-bit opcode from a flags word.
func Opcode(flags uint16) uint8 {
	//gosec:disable G115 -- masked and shifted to 4 bits.
	return uint8((flags & FlagOpcode) >> 11)
}
