package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/homedns/internal/dns/domain"
)

func TestDecodeName(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		offset     int
		want       string
		wantOffset int
		wantErr    bool
	}{
		{
			name:       "simple name",
			data:       []byte{3, 'w', 'w', 'w', 7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0},
			want:       "www.example.com.",
			wantOffset: 17,
		},
		{
			name:       "root",
			data:       []byte{0},
			want:       ".",
			wantOffset: 1,
		},
		{
			name:       "pointer",
			data:       []byte{3, 'c', 'o', 'm', 0, 3, 'f', 'o', 'o', 0xC0, 0x00, 0xFF},
			offset:     5,
			want:       "foo.com.",
			wantOffset: 11,
		},
		{
			name:       "escaped dot in label",
			data:       []byte{3, 'a', '.', 'b', 0},
			want:       `a\.b.`,
			wantOffset: 5,
		},
		{name: "offset past end", data: []byte{0}, offset: 1, wantErr: true},
		{name: "label past end", data: []byte{5, 'a', 'b'}, wantErr: true},
		{name: "truncated pointer", data: []byte{0xC0}, wantErr: true},
		{name: "pointer out of range", data: []byte{0xC0, 0x10}, wantErr: true},
		{name: "self pointer", data: []byte{0xC0, 0x00}, wantErr: true},
		{name: "extended label type", data: []byte{0x41, 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, off, err := decodeName(tt.data, tt.offset)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrMalformedMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOffset, off)
		})
	}
}

func TestDecodeName_TooLong(t *testing.T) {
	var data []byte
	for i := 0; i < 5; i++ {
		data = append(data, 63)
		data = append(data, []byte(strings.Repeat("x", 63))...)
	}
	data = append(data, 0)

	_, _, err := decodeName(data, 0)
	assert.ErrorIs(t, err, domain.ErrMalformedMessage)
}

func TestEncodeDomainName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr string
	}{
		{name: "fqdn", in: "foo.com.", want: []byte{3, 'f', 'o', 'o', 3, 'c', 'o', 'm', 0}},
		{name: "no trailing dot", in: "foo.com", want: []byte{3, 'f', 'o', 'o', 3, 'c', 'o', 'm', 0}},
		{name: "root", in: ".", want: []byte{0}},
		{name: "empty", in: "", want: []byte{0}},
		{name: "escaped dot", in: `a\.b.`, want: []byte{3, 'a', '.', 'b', 0}},
		{name: "empty label", in: "foo..com.", wantErr: "empty label"},
		{name: "dangling escape", in: `foo\`, wantErr: "dangling escape"},
		{name: "label too long", in: strings.Repeat("a", 64) + ".com.", wantErr: "label too long"},
		{name: "name too long", in: strings.Repeat(strings.Repeat("a", 63)+".", 4) + "com.", wantErr: "name too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeDomainName(tt.in)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecodeName_RoundTrip(t *testing.T) {
	for _, name := range []string{"printer.home.ne.jp.", `we\.ird.home.ne.jp.`, `back\\slash.example.`} {
		enc, err := encodeDomainName(name)
		require.NoError(t, err)
		got, off, err := decodeName(enc, 0)
		require.NoError(t, err)
		assert.Equal(t, name, got)
		assert.Equal(t, len(enc), off)
	}
}
