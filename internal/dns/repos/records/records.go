// Package records holds what the record store backends share: input
// normalisation and validation ahead of a write.
package records

import (
	"fmt"

	"github.com/haukened/homedns/internal/dns/common/rrdata"
	"github.com/haukened/homedns/internal/dns/common/utils"
	"github.com/haukened/homedns/internal/dns/domain"
)

// Prepare normalises and validates a record about to be inserted. The value
// must encode to wire RDATA, so the resolver can always serve what a store holds.
func Prepare(rrtype domain.RRType, hostname, value string) (domain.Record, error) {
	rec, err := domain.NewRecord(rrtype, hostname, value)
	if err != nil {
		return domain.Record{}, err
	}
	if _, err := rrdata.Encode(rec.Type, rec.Value); err != nil {
		return domain.Record{}, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}
	return rec, nil
}

// LookupKey returns the key a zone-local hostname is stored under.
func LookupKey(hostname string) string {
	return utils.CanonicalDNSName(hostname)
}
