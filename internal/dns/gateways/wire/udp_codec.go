// Package wire provides encoding and decoding of DNS messages for UDP transport.
// It handles the DNS wire format as specified in RFC 1035.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/haukened/homedns/internal/dns/common/log"
	"github.com/haukened/homedns/internal/dns/domain"
)

// MaxUDPMessageSize is the classic DNS over UDP payload limit (RFC 1035 §2.3.4).
const MaxUDPMessageSize = 512

// udpCodec implements the DNSCodec interface for standard DNS over UDP messages.
type udpCodec struct {
	logger log.Logger
}

// NewUDPCodec creates and returns a new instance of udpCodec using the provided logger.
func NewUDPCodec(logger log.Logger) *udpCodec {
	return &udpCodec{
		logger: logger,
	}
}

// header is the fixed 12-byte preamble of every DNS message.
type header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

func parseHeader(data []byte) (header, error) {
	if len(data) < domain.HeaderSize {
		return header{}, fmt.Errorf("%w: message too short (%d bytes)", domain.ErrMalformedMessage, len(data))
	}
	return header{
		ID:      binary.BigEndian.Uint16(data[0:2]),
		Flags:   binary.BigEndian.Uint16(data[2:4]),
		QDCount: binary.BigEndian.Uint16(data[4:6]),
		ANCount: binary.BigEndian.Uint16(data[6:8]),
		NSCount: binary.BigEndian.Uint16(data[8:10]),
		ARCount: binary.BigEndian.Uint16(data[10:12]),
	}, nil
}

func writeHeader(buf *bytes.Buffer, h header) {
	_ = binary.Write(buf, binary.BigEndian, h)
}

// decodeQuestion reads one question entry at offset.
func decodeQuestion(data []byte, offset int) (domain.Question, int, error) {
	name, offset, err := decodeName(data, offset)
	if err != nil {
		return domain.Question{}, 0, err
	}
	if offset+4 > len(data) {
		return domain.Question{}, 0, fmt.Errorf("%w: truncated question type/class", domain.ErrMalformedMessage)
	}
	q := domain.Question{
		Name:  name,
		Type:  domain.RRType(binary.BigEndian.Uint16(data[offset : offset+2])),
		Class: domain.RRClass(binary.BigEndian.Uint16(data[offset+2 : offset+4])),
	}
	return q, offset + 4, nil
}

// minQuestionSize is a root name plus QTYPE and QCLASS.
const minQuestionSize = 5

// questionCapacity bounds the slice capacity by what the datagram can hold,
// not by the QDCOUNT the sender claims.
func questionCapacity(qdcount uint16, size int) int {
	return min(int(qdcount), max(size-domain.HeaderSize, 0)/minQuestionSize)
}

// DecodeQuery parses a DNS query message. Every question is decoded; the
// answer, authority and additional sections are ignored.
func (c *udpCodec) DecodeQuery(data []byte) (domain.Query, error) {
	h, err := parseHeader(data)
	if err != nil {
		return domain.Query{}, err
	}
	if h.Flags&domain.FlagQR != 0 {
		return domain.Query{}, fmt.Errorf("%w: message is a response", domain.ErrMalformedMessage)
	}
	if h.QDCount == 0 {
		return domain.Query{}, fmt.Errorf("%w: no questions", domain.ErrMalformedMessage)
	}

	offset := domain.HeaderSize
	questions := make([]domain.Question, 0, questionCapacity(h.QDCount, len(data)))
	for i := 0; i < int(h.QDCount); i++ {
		var q domain.Question
		q, offset, err = decodeQuestion(data, offset)
		if err != nil {
			return domain.Query{}, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, q)
	}

	return domain.Query{
		ID:        h.ID,
		Flags:     h.Flags,
		Questions: questions,
	}, nil
}

// EncodeQuery serializes a Query into a binary format suitable for sending via UDP.
func (c *udpCodec) EncodeQuery(query domain.Query) ([]byte, error) {
	if len(query.Questions) == 0 {
		return nil, fmt.Errorf("query has no questions")
	}
	if len(query.Questions) > 0xFFFF {
		return nil, fmt.Errorf("too many questions: %d", len(query.Questions))
	}

	var buf bytes.Buffer
	writeHeader(&buf, header{
		ID:      query.ID,
		Flags:   query.Flags &^ domain.FlagQR,
		QDCount: uint16(len(query.Questions)),
	})
	if err := writeQuestions(&buf, query.Questions); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeQuestions(buf *bytes.Buffer, questions []domain.Question) error {
	for _, q := range questions {
		qname, err := encodeDomainName(q.Name)
		if err != nil {
			return err
		}
		buf.Write(qname)
		_ = binary.Write(buf, binary.BigEndian, uint16(q.Type))
		_ = binary.Write(buf, binary.BigEndian, uint16(q.Class))
	}
	return nil
}

// EncodeResponse serializes a Response into a binary format suitable for sending via UDP.
// Names are written uncompressed. If the message would exceed MaxUDPMessageSize
// the answers are dropped and the TC bit is set.
func (c *udpCodec) EncodeResponse(resp domain.Response) ([]byte, error) {
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	if len(resp.Questions) > 0xFFFF {
		return nil, fmt.Errorf("too many questions: %d", len(resp.Questions))
	}
	if len(resp.Answers) > 0xFFFF {
		return nil, fmt.Errorf("too many answer records: %d (max 65535)", len(resp.Answers))
	}

	flags := (resp.Flags | domain.FlagQR) &^ domain.FlagRCode
	flags |= uint16(resp.RCode) & domain.FlagRCode

	var buf bytes.Buffer
	writeHeader(&buf, header{
		ID:      resp.ID,
		Flags:   flags,
		QDCount: uint16(len(resp.Questions)),
		ANCount: uint16(len(resp.Answers)),
	})
	if err := writeQuestions(&buf, resp.Questions); err != nil {
		return nil, err
	}
	questionEnd := buf.Len()

	for _, rr := range resp.Answers {
		name, err := encodeDomainName(rr.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		_ = binary.Write(&buf, binary.BigEndian, uint16(rr.Type))
		_ = binary.Write(&buf, binary.BigEndian, uint16(rr.Class))
		_ = binary.Write(&buf, binary.BigEndian, rr.TTL)
		_ = binary.Write(&buf, binary.BigEndian, uint16(len(rr.Data)))
		buf.Write(rr.Data)
	}

	out := buf.Bytes()
	if len(out) > MaxUDPMessageSize && len(resp.Answers) > 0 {
		c.logger.Debug(map[string]any{
			"id":   resp.ID,
			"size": len(out),
		}, "Response exceeds UDP limit, truncating")
		out = out[:questionEnd]
		binary.BigEndian.PutUint16(out[2:4], flags|domain.FlagTC)
		binary.BigEndian.PutUint16(out[6:8], 0)
	}

	c.logger.Debug(map[string]any{
		"id":      resp.ID,
		"rcode":   resp.RCode.String(),
		"qd":      len(resp.Questions),
		"an":      len(resp.Answers),
		"size":    len(out),
		"raw_hex": fmt.Sprintf("%x", out),
	}, "Encoded DNS response")

	return out, nil
}

var _ DNSCodec = &udpCodec{}
