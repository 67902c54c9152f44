package wire

import (
	"github.com/haukened/homedns/internal/dns/domain"
)

// DNSCodec converts between DNS wire format and domain messages.
type DNSCodec interface {
	// Server side: the listener decodes incoming queries and encodes replies.
	DecodeQuery(data []byte) (domain.Query, error)
	EncodeResponse(resp domain.Response) ([]byte, error)

	// Client side: used to build queries, e.g. for probing a running listener.
	EncodeQuery(query domain.Query) ([]byte, error)
}
