package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/haukened/homedns/internal/dns/common/utils"
)

// Record is one entry of the record store. Hostname is zone-local: it never
// carries the zone suffix and is unique across the store.
type Record struct {
	ID       uint64 `json:"id"`
	Type     RRType `json:"type"`
	Hostname string `json:"hostname" validate:"required,max=253,hostname_rfc1123"`
	Value    string `json:"value" validate:"required"`
}

// valueTags maps each storable type to the validator tag its Value must satisfy.
var valueTags = map[RRType]string{
	RRTypeA:     "ipv4",
	RRTypeAAAA:  "ipv6",
	RRTypeCNAME: "hostname_rfc1123",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewRecord builds a Record with a canonical hostname and validates it.
// The ID is left zero; stores assign it on insert.
func NewRecord(rrtype RRType, hostname, value string) (Record, error) {
	name, err := utils.CanonicalHostname(hostname)
	if err != nil {
		return Record{}, fmt.Errorf("%w: hostname %q: %v", ErrInvalidRecord, hostname, err)
	}
	rec := Record{
		Type:     rrtype,
		Hostname: name,
		Value:    strings.TrimSpace(value),
	}
	if rrtype == RRTypeCNAME {
		rec.Value = utils.CanonicalDNSName(rec.Value)
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Validate checks the hostname and that Value is well formed for Type.
func (r Record) Validate() error {
	tag, ok := valueTags[r.Type]
	if !ok {
		return fmt.Errorf("%w: unsupported type %s", ErrInvalidRecord, r.Type)
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := validate.Var(r.Value, tag); err != nil {
		return fmt.Errorf("%w: %s value %q", ErrInvalidRecord, r.Type, r.Value)
	}
	return nil
}

// FQDN returns the record's fully qualified name within zone, with trailing dot.
func (r Record) FQDN(zone string) string {
	return utils.PresentationDNSName(r.Hostname + "." + zone)
}

func (r Record) String() string {
	return fmt.Sprintf("%d %s %s %s", r.ID, r.Type, r.Hostname, r.Value)
}
