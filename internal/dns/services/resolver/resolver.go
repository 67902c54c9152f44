// Package resolver answers DNS queries from the local record store. It is
// authoritative for a fixed set of zones and never forwards or recurses.
package resolver

import (
	"context"
	"net"

	"github.com/haukened/homedns/internal/dns/common/log"
	"github.com/haukened/homedns/internal/dns/common/rrdata"
	"github.com/haukened/homedns/internal/dns/common/utils"
	"github.com/haukened/homedns/internal/dns/domain"
)

// DefaultTTL is the TTL put on answers when none is configured.
const DefaultTTL uint32 = 300

type Resolver struct {
	store    RecordLookup
	zones    []string
	ttl      uint32
	nxdomain bool
	logger   log.Logger
}

type ResolverOptions struct {
	// Store is queried once per question.
	Store RecordLookup
	// Zones are the suffixes stripped from query names; the longest match wins.
	Zones []string
	// TTL of every answer. Zero selects DefaultTTL.
	TTL uint32
	// NXDomain answers NXDOMAIN for unknown in-zone names and REFUSED for
	// out-of-zone names. When false both get an empty NOERROR response.
	NXDomain bool
	Logger   log.Logger
}

func NewResolver(opts ResolverOptions) *Resolver {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	zones := make([]string, 0, len(opts.Zones))
	for _, z := range opts.Zones {
		if z = utils.CanonicalDNSName(z); z != "" {
			zones = append(zones, z)
		}
	}
	return &Resolver{
		store:    opts.Store,
		zones:    zones,
		ttl:      ttl,
		nxdomain: opts.NXDomain,
		logger:   logger,
	}
}

// Resolve builds the response for query. It never fails: anything that keeps
// a record from being found results in a response without answers.
// Opcodes other than QUERY are answered NOTIMP.
func (r *Resolver) Resolve(ctx context.Context, query domain.Query) domain.Response {
	resp := domain.NewResponse(query)

	if query.Opcode() != domain.OpcodeQuery {
		resp.RCode = domain.RCodeNotImp
		return resp
	}

	q, ok := query.First()
	if !ok {
		resp.RCode = domain.RCodeFormErr
		return resp
	}

	host, zone, inZone := utils.StripZone(q.Name, r.zones)
	if !inZone {
		if r.nxdomain {
			resp.RCode = domain.RCodeRefused
		}
		return resp
	}
	if host == "" {
		// zone apex: exists, holds nothing we serve
		return resp
	}

	rec, found, err := r.store.Lookup(ctx, host)
	if err != nil {
		r.logger.Error(map[string]any{
			"name":  q.Name,
			"host":  host,
			"error": err,
		}, "record lookup failed")
		return resp
	}
	if !found {
		if r.nxdomain {
			resp.RCode = domain.RCodeNXDomain
		}
		return resp
	}

	if q.Class != domain.RRClassIN || q.Type != rec.Type {
		return resp
	}

	data, err := rrdata.Encode(rec.Type, rec.Value)
	if err != nil {
		r.logger.Warn(map[string]any{
			"record": rec.String(),
			"zone":   zone,
			"error":  err,
		}, "stored record value cannot be encoded")
		return resp
	}

	resp.Answers = []domain.Answer{{
		Name:  q.Name,
		Type:  rec.Type,
		Class: domain.RRClassIN,
		TTL:   r.ttl,
		Data:  data,
	}}
	return resp
}

// HandleQuery implements the transport's request handler contract.
func (r *Resolver) HandleQuery(ctx context.Context, query domain.Query, clientAddr net.Addr) domain.Response {
	resp := r.Resolve(ctx, query)

	fields := map[string]any{
		"id":       query.ID,
		"opcode":   query.Opcode(),
		"rd":       query.RecursionDesired(),
		"rcode":    resp.RCode.String(),
		"answered": resp.HasAnswers(),
	}
	if q, ok := query.First(); ok {
		fields["question"] = q.String()
	}
	if clientAddr != nil {
		fields["client"] = clientAddr.String()
	}
	r.logger.Debug(fields, "query handled")

	return resp
}
