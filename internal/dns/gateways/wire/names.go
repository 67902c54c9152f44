package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/haukened/homedns/internal/dns/domain"
)

const (
	maxLabelLength = 63
	maxNameLength  = 255 // octets on the wire, including length bytes and the root label
	maxPointerHops = 16

	pointerMask  = 0xC0
	offsetMask   = 0x3FFF
	labelTypeLen = 0x00
)

// decodeName reads a domain name starting at offset. It follows compression
// pointers (RFC 1035 §4.1.4) but never loops, and returns the name in
// presentation form with a trailing dot together with the offset just past
// the name in the original byte stream.
func decodeName(data []byte, offset int) (string, int, error) {
	var (
		sb      strings.Builder
		end     = -1 // offset after the name at the call site, set on first pointer
		hops    int
		wireLen int
	)

	for {
		if offset >= len(data) {
			return "", 0, fmt.Errorf("%w: name runs past end of message at offset %d", domain.ErrMalformedMessage, offset)
		}
		length := int(data[offset])

		switch length & pointerMask {
		case pointerMask:
			if offset+1 >= len(data) {
				return "", 0, fmt.Errorf("%w: truncated compression pointer at offset %d", domain.ErrMalformedMessage, offset)
			}
			ptr := int(binary.BigEndian.Uint16(data[offset:offset+2]) & offsetMask)
			if ptr >= len(data) {
				return "", 0, fmt.Errorf("%w: compression pointer %d out of range", domain.ErrMalformedMessage, ptr)
			}
			hops++
			if hops > maxPointerHops {
				return "", 0, fmt.Errorf("%w: too many compression pointers", domain.ErrMalformedMessage)
			}
			if end < 0 {
				end = offset + 2
			}
			offset = ptr
			continue
		case labelTypeLen:
		default:
			return "", 0, fmt.Errorf("%w: unsupported label type 0x%02x at offset %d", domain.ErrMalformedMessage, length&pointerMask, offset)
		}

		offset++
		wireLen += length + 1
		if wireLen > maxNameLength {
			return "", 0, fmt.Errorf("%w: name exceeds %d octets", domain.ErrMalformedMessage, maxNameLength)
		}
		if length == 0 {
			break
		}
		if offset+length > len(data) {
			return "", 0, fmt.Errorf("%w: label length %d exceeds remaining %d bytes", domain.ErrMalformedMessage, length, len(data)-offset)
		}
		writeEscapedLabel(&sb, data[offset:offset+length])
		sb.WriteByte('.')
		offset += length
	}

	if end < 0 {
		end = offset
	}
	if sb.Len() == 0 {
		return ".", end, nil
	}
	return sb.String(), end, nil
}

// writeEscapedLabel writes a raw label, escaping the dot and backslash so the
// presentation form splits back into the same labels.
func writeEscapedLabel(sb *strings.Builder, label []byte) {
	for _, b := range label {
		if b == '.' || b == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(b)
	}
}

// splitLabels splits a presentation-form name on unescaped dots and removes
// the escapes. The root name ("." or "") yields no labels.
func splitLabels(name string) ([][]byte, error) {
	if name == "" || name == "." {
		return nil, nil
	}
	var (
		labels  [][]byte
		current []byte
		escaped bool
	)
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case escaped:
			current = append(current, c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '.':
			if len(current) == 0 {
				return nil, fmt.Errorf("empty label in %q", name)
			}
			labels = append(labels, current)
			current = nil
		default:
			current = append(current, c)
		}
	}
	if escaped {
		return nil, fmt.Errorf("dangling escape in %q", name)
	}
	if len(current) > 0 {
		labels = append(labels, current)
	}
	return labels, nil
}

// encodeDomainName encodes a domain name into DNS wire format without compression.
// A missing trailing dot is tolerated; the root label is always written.
func encodeDomainName(name string) ([]byte, error) {
	labels, err := splitLabels(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, label := range labels {
		if len(label) > maxLabelLength {
			return nil, fmt.Errorf("label too long: %s", label)
		}
		buf.WriteByte(byte(len(label)))
		buf.Write(label)
	}
	buf.WriteByte(0)
	if buf.Len() > maxNameLength {
		return nil, fmt.Errorf("name too long: %d octets", buf.Len())
	}
	return buf.Bytes(), nil
}
