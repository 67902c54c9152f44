package resolver

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/haukened/homedns/internal/dns/common/log"
	"github.com/haukened/homedns/internal/dns/domain"
)

type MockRecordLookup struct {
	mock.Mock
}

func (m *MockRecordLookup) Lookup(ctx context.Context, hostname string) (domain.Record, bool, error) {
	args := m.Called(ctx, hostname)
	return args.Get(0).(domain.Record), args.Bool(1), args.Error(2)
}

// recordingLogger remembers the messages it was asked to log.
type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Info(_ map[string]any, msg string)  { l.messages = append(l.messages, msg) }
func (l *recordingLogger) Error(_ map[string]any, msg string) { l.messages = append(l.messages, msg) }
func (l *recordingLogger) Debug(_ map[string]any, msg string) { l.messages = append(l.messages, msg) }
func (l *recordingLogger) Warn(_ map[string]any, msg string)  { l.messages = append(l.messages, msg) }
func (l *recordingLogger) Panic(_ map[string]any, msg string) { l.messages = append(l.messages, msg) }
func (l *recordingLogger) Fatal(_ map[string]any, msg string) { l.messages = append(l.messages, msg) }
func (l *recordingLogger) With(map[string]any) log.Logger    { return l }

func query(name string, rrtype domain.RRType) domain.Query {
	return domain.NewQuery(0x1234, domain.Question{Name: name, Type: rrtype, Class: domain.RRClassIN})
}

func newTestResolver(store RecordLookup, nxdomain bool) *Resolver {
	return NewResolver(ResolverOptions{
		Store:    store,
		Zones:    []string{"home.ne.jp"},
		NXDomain: nxdomain,
		Logger:   log.NewNoopLogger(),
	})
}

func TestResolver_Resolve_KnownHost(t *testing.T) {
	store := new(MockRecordLookup)
	store.On("Lookup", mock.Anything, "printer").
		Return(domain.Record{ID: 1, Type: domain.RRTypeA, Hostname: "printer", Value: "192.168.1.50"}, true, nil)

	r := newTestResolver(store, false)
	resp := r.Resolve(context.Background(), query("printer.home.ne.jp.", domain.RRTypeA))

	assert.Equal(t, uint16(0x1234), resp.ID)
	assert.NotZero(t, resp.Flags&domain.FlagQR)
	assert.Equal(t, domain.RCodeNoError, resp.RCode)
	require.Len(t, resp.Answers, 1)
	ans := resp.Answers[0]
	assert.Equal(t, "printer.home.ne.jp.", ans.Name)
	assert.Equal(t, domain.RRTypeA, ans.Type)
	assert.Equal(t, domain.RRClassIN, ans.Class)
	assert.Equal(t, uint32(300), ans.TTL)
	assert.Equal(t, []byte{192, 168, 1, 50}, ans.Data)
	store.AssertExpectations(t)
}

func TestResolver_Resolve_CaseInsensitiveZone(t *testing.T) {
	store := new(MockRecordLookup)
	store.On("Lookup", mock.Anything, "printer").
		Return(domain.Record{ID: 1, Type: domain.RRTypeA, Hostname: "printer", Value: "192.168.1.50"}, true, nil)

	resp := newTestResolver(store, false).Resolve(context.Background(), query("PRINTER.Home.NE.jp.", domain.RRTypeA))
	require.Len(t, resp.Answers, 1)
	assert.Equal(t, "PRINTER.Home.NE.jp.", resp.Answers[0].Name)
	assert.Equal(t, "PRINTER.Home.NE.jp.", resp.Questions[0].Name)
}

func TestResolver_Resolve_EmptyAnswers(t *testing.T) {
	aRecord := domain.Record{ID: 1, Type: domain.RRTypeA, Hostname: "printer", Value: "192.168.1.50"}

	tests := []struct {
		name      string
		query     domain.Query
		setup     func(*MockRecordLookup)
		nxdomain  bool
		wantRCode domain.RCode
	}{
		{
			name:  "unknown host",
			query: query("unknown.home.ne.jp.", domain.RRTypeA),
			setup: func(m *MockRecordLookup) {
				m.On("Lookup", mock.Anything, "unknown").Return(domain.Record{}, false, nil)
			},
			wantRCode: domain.RCodeNoError,
		},
		{
			name:  "unknown host with nxdomain policy",
			query: query("unknown.home.ne.jp.", domain.RRTypeA),
			setup: func(m *MockRecordLookup) {
				m.On("Lookup", mock.Anything, "unknown").Return(domain.Record{}, false, nil)
			},
			nxdomain:  true,
			wantRCode: domain.RCodeNXDomain,
		},
		{
			name:  "AAAA asked for A record",
			query: query("printer.home.ne.jp.", domain.RRTypeAAAA),
			setup: func(m *MockRecordLookup) {
				m.On("Lookup", mock.Anything, "printer").Return(aRecord, true, nil)
			},
			nxdomain:  true,
			wantRCode: domain.RCodeNoError,
		},
		{
			name:  "MX asked for A record",
			query: query("printer.home.ne.jp.", domain.RRTypeMX),
			setup: func(m *MockRecordLookup) {
				m.On("Lookup", mock.Anything, "printer").Return(aRecord, true, nil)
			},
			wantRCode: domain.RCodeNoError,
		},
		{
			name: "chaos class",
			query: domain.NewQuery(1, domain.Question{
				Name: "printer.home.ne.jp.", Type: domain.RRTypeA, Class: domain.RRClassCH,
			}),
			setup: func(m *MockRecordLookup) {
				m.On("Lookup", mock.Anything, "printer").Return(aRecord, true, nil)
			},
			wantRCode: domain.RCodeNoError,
		},
		{
			name:      "outside zone",
			query:     query("printer.example.com.", domain.RRTypeA),
			setup:     func(*MockRecordLookup) {},
			wantRCode: domain.RCodeNoError,
		},
		{
			name:      "outside zone with nxdomain policy",
			query:     query("printer.example.com.", domain.RRTypeA),
			setup:     func(*MockRecordLookup) {},
			nxdomain:  true,
			wantRCode: domain.RCodeRefused,
		},
		{
			name:      "suffix without label boundary",
			query:     query("printerhome.ne.jp.", domain.RRTypeA),
			setup:     func(*MockRecordLookup) {},
			wantRCode: domain.RCodeNoError,
		},
		{
			name:      "zone apex",
			query:     query("home.ne.jp.", domain.RRTypeA),
			setup:     func(*MockRecordLookup) {},
			nxdomain:  true,
			wantRCode: domain.RCodeNoError,
		},
		{
			name:  "store error",
			query: query("printer.home.ne.jp.", domain.RRTypeA),
			setup: func(m *MockRecordLookup) {
				m.On("Lookup", mock.Anything, "printer").Return(domain.Record{}, false, errors.New("disk on fire"))
			},
			nxdomain:  true,
			wantRCode: domain.RCodeNoError,
		},
		{
			name:  "stored value not encodable",
			query: query("printer.home.ne.jp.", domain.RRTypeA),
			setup: func(m *MockRecordLookup) {
				m.On("Lookup", mock.Anything, "printer").
					Return(domain.Record{ID: 1, Type: domain.RRTypeA, Hostname: "printer", Value: "not-an-ip"}, true, nil)
			},
			wantRCode: domain.RCodeNoError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockRecordLookup)
			tt.setup(store)

			resp := newTestResolver(store, tt.nxdomain).Resolve(context.Background(), tt.query)

			assert.Equal(t, tt.query.ID, resp.ID)
			assert.Equal(t, tt.wantRCode, resp.RCode)
			assert.Empty(t, resp.Answers)
			assert.Equal(t, tt.query.Questions, resp.Questions)
			store.AssertExpectations(t)
		})
	}
}

func TestResolver_Resolve_StoreErrorIsLogged(t *testing.T) {
	store := new(MockRecordLookup)
	store.On("Lookup", mock.Anything, "printer").Return(domain.Record{}, false, domain.ErrStore)
	logger := &recordingLogger{}

	r := NewResolver(ResolverOptions{Store: store, Zones: []string{"home.ne.jp"}, Logger: logger})
	resp := r.Resolve(context.Background(), query("printer.home.ne.jp.", domain.RRTypeA))

	assert.Empty(t, resp.Answers)
	assert.Contains(t, logger.messages, "record lookup failed")
}

func TestResolver_Resolve_AAAAAndCNAME(t *testing.T) {
	store := new(MockRecordLookup)
	store.On("Lookup", mock.Anything, "nas").
		Return(domain.Record{ID: 2, Type: domain.RRTypeAAAA, Hostname: "nas", Value: "fd00::10"}, true, nil)
	store.On("Lookup", mock.Anything, "www").
		Return(domain.Record{ID: 3, Type: domain.RRTypeCNAME, Hostname: "www", Value: "nas.home.ne.jp"}, true, nil)

	r := newTestResolver(store, false)

	resp := r.Resolve(context.Background(), query("nas.home.ne.jp.", domain.RRTypeAAAA))
	require.Len(t, resp.Answers, 1)
	assert.Equal(t, net.ParseIP("fd00::10").To16(), net.IP(resp.Answers[0].Data))

	resp = r.Resolve(context.Background(), query("www.home.ne.jp.", domain.RRTypeCNAME))
	require.Len(t, resp.Answers, 1)
	assert.Equal(t, domain.RRTypeCNAME, resp.Answers[0].Type)
	assert.Equal(t, []byte{3, 'n', 'a', 's', 4, 'h', 'o', 'm', 'e', 2, 'n', 'e', 2, 'j', 'p', 0}, resp.Answers[0].Data)
}

func TestResolver_Resolve_LongestZoneWins(t *testing.T) {
	store := new(MockRecordLookup)
	store.On("Lookup", mock.Anything, "printer").
		Return(domain.Record{ID: 1, Type: domain.RRTypeA, Hostname: "printer", Value: "10.0.0.9"}, true, nil)

	r := NewResolver(ResolverOptions{
		Store:  store,
		Zones:  []string{"ne.jp", "home.ne.jp."},
		TTL:    60,
		Logger: log.NewNoopLogger(),
	})
	resp := r.Resolve(context.Background(), query("printer.home.ne.jp.", domain.RRTypeA))
	require.Len(t, resp.Answers, 1)
	assert.Equal(t, uint32(60), resp.Answers[0].TTL)
	store.AssertExpectations(t)
}

func TestResolver_Resolve_NoQuestion(t *testing.T) {
	r := newTestResolver(new(MockRecordLookup), false)
	resp := r.Resolve(context.Background(), domain.Query{ID: 5})
	assert.Equal(t, domain.RCodeFormErr, resp.RCode)
	assert.Equal(t, uint16(5), resp.ID)
}

func TestResolver_Resolve_OnlyFirstQuestion(t *testing.T) {
	store := new(MockRecordLookup)
	store.On("Lookup", mock.Anything, "printer").
		Return(domain.Record{ID: 1, Type: domain.RRTypeA, Hostname: "printer", Value: "192.168.1.50"}, true, nil)

	q := domain.NewQuery(3,
		domain.Question{Name: "printer.home.ne.jp.", Type: domain.RRTypeA, Class: domain.RRClassIN},
		domain.Question{Name: "scanner.home.ne.jp.", Type: domain.RRTypeA, Class: domain.RRClassIN},
	)
	resp := newTestResolver(store, false).Resolve(context.Background(), q)
	assert.Len(t, resp.Questions, 2)
	assert.Len(t, resp.Answers, 1)
	store.AssertNumberOfCalls(t, "Lookup", 1)
}

func TestResolver_HandleQuery_LogsDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	store := new(MockRecordLookup)
	store.On("Lookup", mock.Anything, "unknown").Return(domain.Record{}, false, nil)

	r := NewResolver(ResolverOptions{Store: store, Zones: []string{"home.ne.jp"}, Logger: log.FromZap(zap.New(core))})
	client := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5353}
	resp := r.HandleQuery(context.Background(), query("unknown.home.ne.jp.", domain.RRTypeA), client)

	assert.Empty(t, resp.Answers)
	entries := logs.FilterMessage("query handled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "127.0.0.1:5353", entries[0].ContextMap()["client"])
	assert.Equal(t, "NOERROR", entries[0].ContextMap()["rcode"])
	assert.Equal(t, uint8(0), entries[0].ContextMap()["opcode"])
	assert.Equal(t, true, entries[0].ContextMap()["rd"])
	assert.Equal(t, false, entries[0].ContextMap()["answered"])
}

func TestResolver_Resolve_NonQueryOpcode(t *testing.T) {
	store := new(MockRecordLookup)
	r := newTestResolver(store, false)

	for _, opcode := range []uint16{1, 2, 4, 5} {
		q := query("printer.home.ne.jp.", domain.RRTypeA)
		q.Flags |= opcode << 11
		resp := r.Resolve(context.Background(), q)

		assert.Equal(t, domain.RCodeNotImp, resp.RCode, "opcode %d", opcode)
		assert.Empty(t, resp.Answers)
		assert.Equal(t, uint8(opcode), domain.Opcode(resp.Flags))
		assert.Equal(t, q.Questions, resp.Questions)
	}
	store.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestNewResolver_Defaults(t *testing.T) {
	r := NewResolver(ResolverOptions{Zones: []string{"Home.NE.jp.", ""}})
	assert.Equal(t, DefaultTTL, r.ttl)
	assert.Equal(t, []string{"home.ne.jp"}, r.zones)
	assert.NotNil(t, r.logger)
	assert.False(t, r.nxdomain)
}
