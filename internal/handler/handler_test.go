package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/pos-terminal/internal/domain/auth"
	"github.com/xenking/pos-terminal/internal/domain/checkout"
	"github.com/xenking/pos-terminal/internal/domain/loyalty"
	"github.com/xenking/pos-terminal/internal/domain/pricing"
)

// --- Mock implementations ---

type mockRuleRepo struct {
	rules []pricing.Rule
}

func (m *mockRuleRepo) List(_ context.Context) ([]pricing.Rule, error) {
	return m.rules, nil
}

func (m *mockRuleRepo) Upsert(_ context.Context, rules []pricing.Rule) error {
	m.rules = append(m.rules, rules...)
	return nil
}

type mockCardRepo struct {
	cards map[string]*loyalty.Card
}

func (m *mockCardRepo) Create(_ context.Context, c *loyalty.Card) error {
	m.cards[c.ID] = c
	return nil
}

func (m *mockCardRepo) Get(_ context.Context, id string) (*loyalty.Card, error) {
	c, ok := m.cards[id]
	if !ok {
		return nil, &loyalty.CardNotFoundError{ID: id}
	}
	cp := *c
	return &cp, nil
}

func (m *mockCardRepo) Accumulate(_ context.Context, id string, gross decimal.Decimal) (decimal.Decimal, error) {
	c, ok := m.cards[id]
	if !ok {
		return decimal.Decimal{}, &loyalty.CardNotFoundError{ID: id}
	}
	c.Accumulated = c.Accumulated.Add(gross)
	return c.Accumulated, nil
}

type mockAuthenticator struct{}

func (mockAuthenticator) Authenticate(_ context.Context, key string) (*auth.Register, error) {
	switch key {
	case "full":
		return &auth.Register{ID: "r1", Name: "front", Scopes: []string{auth.ScopeCheckout, auth.ScopeCards}}, nil
	case "till":
		return &auth.Register{ID: "r2", Name: "till", Scopes: []string{auth.ScopeCheckout}}, nil
	case "broken":
		return nil, errors.New("connection refused")
	default:
		return nil, auth.ErrUnauthorized
	}
}

// --- Helpers ---

const silverCard = "5b1f0a52-3c55-4a8e-9d0e-7e1f5b2c9a10"

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newServer(t *testing.T) (*httptest.Server, *mockCardRepo) {
	t.Helper()

	mux, cards := newMux(t)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, cards
}

func newMux(t *testing.T) (*http.ServeMux, *mockCardRepo) {
	t.Helper()

	a, err := pricing.NewRuleWithVolume("A", d("1.25"), pricing.VolumeRule{PackSize: 3, PackPrice: d("3.00")})
	require.NoError(t, err)
	b, err := pricing.NewRule("B", d("4.25"))
	require.NoError(t, err)
	c, err := pricing.NewRuleWithVolume("C", d("1.00"), pricing.VolumeRule{PackSize: 6, PackPrice: d("5.00")})
	require.NoError(t, err)
	dd, err := pricing.NewRule("D", d("0.75"))
	require.NoError(t, err)

	cards := &mockCardRepo{cards: map[string]*loyalty.Card{
		silverCard: {ID: silverCard, Accumulated: d("2150")},
	}}
	svc, err := checkout.NewService(&mockRuleRepo{rules: []pricing.Rule{a, b, c, dd}}, cards, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(svc, loyalty.NewCards(cards), mockAuthenticator{}).Register(mux)
	return mux, cards
}

func do(t *testing.T, srv *httptest.Server, method, path, key, body string) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf
}

// field extracts a top-level string field from a JSON object.
func field(t *testing.T, data []byte, name string) string {
	t.Helper()

	var out string
	err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != name {
			return d.Skip()
		}
		s, err := d.Str()
		out = s
		return err
	})
	require.NoError(t, err)
	return out
}

// --- Tests ---

func TestCatalog(t *testing.T) {
	srv, _ := newServer(t)

	status, body := do(t, srv, http.MethodGet, "/api/catalog", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"code":"A"`)
	assert.Contains(t, string(body), `"packSize":3`)
	assert.Contains(t, string(body), `"name":"platinum"`)
}

func TestCheckout(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		body   string
		status int
		total  string
	}{
		{name: "codes", key: "full", body: `{"codes":["A","B","C","D","A","B","A"]}`, status: http.StatusOK, total: "13.25"},
		{name: "scan string", key: "till", body: `{"scan":"CCCCCCC"}`, status: http.StatusOK, total: "6"},
		{name: "with card", key: "full", body: `{"scan":"AAAABCDAAA","cardId":"` + silverCard + `"}`, status: http.StatusOK, total: "13.0325"},
		{name: "null card", key: "full", body: `{"scan":"ABCD","cardId":null}`, status: http.StatusOK, total: "7.25"},
		{name: "no key", body: `{"scan":"A"}`, status: http.StatusUnauthorized},
		{name: "bad key", key: "nope", body: `{"scan":"A"}`, status: http.StatusUnauthorized},
		{name: "auth storage down", key: "broken", body: `{"scan":"A"}`, status: http.StatusInternalServerError},
		{name: "empty body", key: "full", status: http.StatusBadRequest},
		{name: "malformed", key: "full", body: `{"codes":`, status: http.StatusBadRequest},
		{name: "no codes", key: "full", body: `{}`, status: http.StatusBadRequest},
		{name: "blank code", key: "full", body: `{"codes":["A",""]}`, status: http.StatusBadRequest},
		{name: "card not uuid", key: "full", body: `{"scan":"A","cardId":"123"}`, status: http.StatusBadRequest},
		{name: "unknown card", key: "full", body: `{"scan":"A","cardId":"00000000-0000-4000-8000-000000000000"}`, status: http.StatusNotFound},
		{name: "unknown product", key: "full", body: `{"scan":"AZ"}`, status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t)

			status, body := do(t, srv, http.MethodPost, "/api/checkout", tt.key, tt.body)
			require.Equal(t, tt.status, status, string(body))
			if tt.total == "" {
				return
			}
			assert.True(t, d(tt.total).Equal(d(field(t, body, "total"))), string(body))
		})
	}
}

func TestCheckout_LogsRegister(t *testing.T) {
	mux, _ := newMux(t)
	core, logs := observer.New(zap.InfoLevel)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"scan":"ABCD"}`))
	req.Header.Set(APIKeyHeader, "till")
	req = req.WithContext(zctx.Base(req.Context(), zap.New(core)))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	entries := logs.FilterMessage("Checkout completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "r2", fields["register_id"])
	total, ok := fields["total"].(string)
	require.True(t, ok)
	assert.True(t, d("7.25").Equal(d(total)), total)
}

func TestCheckout_AccumulatesCard(t *testing.T) {
	srv, cards := newServer(t)

	status, body := do(t, srv, http.MethodPost, "/api/checkout", "full", `{"scan":"AAAABCDAAA","cardId":"`+silverCard+`"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"balance":"2164.75"`)
	assert.True(t, d("2164.75").Equal(cards.cards[silverCard].Accumulated))
}

func TestCards(t *testing.T) {
	srv, _ := newServer(t)

	t.Run("issue and get", func(t *testing.T) {
		status, body := do(t, srv, http.MethodPost, "/api/cards", "full", `{"initialBalance":"5000"}`)
		require.Equal(t, http.StatusCreated, status, string(body))
		id := field(t, body, "id")
		require.NotEmpty(t, id)
		assert.Equal(t, "gold", field(t, body, "tier"))

		status, body = do(t, srv, http.MethodGet, "/api/cards/"+id, "full", "")
		require.Equal(t, http.StatusOK, status, string(body))
		assert.Equal(t, "5000", field(t, body, "balance"))
	})

	t.Run("issue without body", func(t *testing.T) {
		status, body := do(t, srv, http.MethodPost, "/api/cards", "full", "")
		require.Equal(t, http.StatusCreated, status, string(body))
		assert.Equal(t, "none", field(t, body, "tier"))
	})

	t.Run("numeric balance", func(t *testing.T) {
		status, body := do(t, srv, http.MethodPost, "/api/cards", "full", `{"initialBalance":1000}`)
		require.Equal(t, http.StatusCreated, status, string(body))
		assert.Equal(t, "bronze", field(t, body, "tier"))
	})

	t.Run("negative balance", func(t *testing.T) {
		status, _ := do(t, srv, http.MethodPost, "/api/cards", "full", `{"initialBalance":"-1"}`)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("missing scope", func(t *testing.T) {
		status, _ := do(t, srv, http.MethodPost, "/api/cards", "till", "")
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("unknown card", func(t *testing.T) {
		status, _ := do(t, srv, http.MethodGet, "/api/cards/not-a-card", "full", "")
		assert.Equal(t, http.StatusNotFound, status)
	})
}
