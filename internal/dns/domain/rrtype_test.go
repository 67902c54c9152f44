package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRRType_String(t *testing.T) {
	assert.Equal(t, "A", RRTypeA.String())
	assert.Equal(t, "AAAA", RRTypeAAAA.String())
	assert.Equal(t, "CNAME", RRTypeCNAME.String())
	assert.Equal(t, "UNKNOWN(999)", RRType(999).String())
}

func TestRRTypeFromString(t *testing.T) {
	cases := map[string]RRType{
		"A":      RRTypeA,
		"a":      RRTypeA,
		" aaaa ": RRTypeAAAA,
		"CName":  RRTypeCNAME,
		"MX":     RRTypeMX,
		"ANY":    RRTypeANY,
		"BOGUS":  0,
		"":       0,
	}
	for in, want := range cases {
		assert.Equal(t, want, RRTypeFromString(in), "input %q", in)
	}
}

func TestRRType_IsStorable(t *testing.T) {
	for _, rt := range []RRType{RRTypeA, RRTypeAAAA, RRTypeCNAME} {
		assert.True(t, rt.IsStorable(), rt.String())
	}
	for _, rt := range []RRType{RRTypeMX, RRTypeTXT, RRTypeNS, RRTypeANY, 0} {
		assert.False(t, rt.IsStorable(), rt.String())
	}
}

func TestRRClass_String(t *testing.T) {
	assert.Equal(t, "IN", RRClassIN.String())
	assert.Equal(t, "CH", RRClassCH.String())
	assert.Equal(t, "ANY", RRClassANY.String())
	assert.Equal(t, "UNKNOWN(42)", RRClass(42).String())
}

func TestRCode(t *testing.T) {
	assert.True(t, RCodeNoError.IsValid())
	assert.True(t, RCode(15).IsValid())
	assert.False(t, RCode(16).IsValid())
	assert.Equal(t, "NXDOMAIN", RCodeNXDomain.String())
	assert.Equal(t, "REFUSED", RCodeRefused.String())
}

func TestServiceState_String(t *testing.T) {
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "unknown", ServiceState(9).String())
}

func TestOpcode(t *testing.T) {
	assert.Equal(t, uint8(0), Opcode(FlagQR|FlagRD))
	assert.Equal(t, uint8(2), Opcode(0x1000))
	assert.Equal(t, uint8(15), Opcode(FlagOpcode))
}
