package checkout

import (
	"context"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/pos-terminal/internal/domain/fault"
	"github.com/xenking/pos-terminal/internal/domain/loyalty"
	"github.com/xenking/pos-terminal/internal/domain/pricing"
)

// --- Mock implementations ---

type mockRuleRepo struct {
	rules   []pricing.Rule
	listErr error
}

func (m *mockRuleRepo) List(_ context.Context) ([]pricing.Rule, error) {
	return m.rules, m.listErr
}

func (m *mockRuleRepo) Upsert(_ context.Context, rules []pricing.Rule) error {
	m.rules = append(m.rules, rules...)
	return nil
}

type mockCardRepo struct {
	cards         map[string]*loyalty.Card
	accumulateErr error
	accumulated   []decimal.Decimal
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
	if m.accumulateErr != nil {
		return decimal.Decimal{}, m.accumulateErr
	}
	c, ok := m.cards[id]
	if !ok {
		return decimal.Decimal{}, &loyalty.CardNotFoundError{ID: id}
	}
	m.accumulated = append(m.accumulated, gross)
	c.Accumulated = c.Accumulated.Add(gross)
	return c.Accumulated, nil
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func referenceRules(t *testing.T) []pricing.Rule {
	t.Helper()

	a, err := pricing.NewRuleWithVolume("A", d("1.25"), pricing.VolumeRule{PackSize: 3, PackPrice: d("3.00")})
	require.NoError(t, err)
	b, err := pricing.NewRule("B", d("4.25"))
	require.NoError(t, err)
	c, err := pricing.NewRuleWithVolume("C", d("1.00"), pricing.VolumeRule{PackSize: 6, PackPrice: d("5.00")})
	require.NoError(t, err)
	dd, err := pricing.NewRule("D", d("0.75"))
	require.NoError(t, err)

	return []pricing.Rule{a, b, c, dd}
}

func newService(t *testing.T, rules *mockRuleRepo, cards *mockCardRepo) *Service {
	t.Helper()
	svc, err := NewService(rules, cards, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return svc
}

func codes(s string) []string {
	return strings.Split(s, "")
}

// --- Tests ---

func TestCheckout_NoCard(t *testing.T) {
	svc := newService(t, &mockRuleRepo{rules: referenceRules(t)}, &mockCardRepo{})

	r, err := svc.Checkout(context.Background(), Request{Codes: codes("AAAABCDAAA")})
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Nil(t, r.Card)
	assert.True(t, d("13.25").Equal(r.Subtotal))
	assert.True(t, d("13.25").Equal(r.Total))
	assert.True(t, decimal.Zero.Equal(r.Discount))
	assert.True(t, d("14.75").Equal(r.Gross))
	require.Len(t, r.Lines, 4)
	assert.Equal(t, "A", r.Lines[0].Code)
	assert.Equal(t, 7, r.Lines[0].Quantity)
}

func TestCheckout_WithCard(t *testing.T) {
	cards := &mockCardRepo{cards: map[string]*loyalty.Card{
		"card-1": {ID: "card-1", Accumulated: d("2150")},
	}}
	svc := newService(t, &mockRuleRepo{rules: referenceRules(t)}, cards)

	r, err := svc.Checkout(context.Background(), Request{Codes: codes("AAAABCDAAA"), CardID: "card-1"})
	require.NoError(t, err)

	assert.True(t, d("0.03").Equal(r.Rate))
	assert.True(t, d("7.25").Equal(r.CardEligible))
	assert.True(t, d("0.2175").Equal(r.Discount))
	assert.True(t, d("13.0325").Equal(r.Total))
	require.NotNil(t, r.Card)
	assert.True(t, d("2164.75").Equal(r.Card.Balance))
	assert.Equal(t, "silver", r.Card.Tier.Name)
	require.Len(t, cards.accumulated, 1)
	assert.True(t, d("14.75").Equal(cards.accumulated[0]))
}

func TestCheckout_FreshCard(t *testing.T) {
	cards := &mockCardRepo{cards: map[string]*loyalty.Card{
		"card-0": {ID: "card-0", Accumulated: decimal.Zero},
	}}
	svc := newService(t, &mockRuleRepo{rules: referenceRules(t)}, cards)

	r, err := svc.Checkout(context.Background(), Request{Codes: codes("ABCD"), CardID: "card-0"})
	require.NoError(t, err)
	assert.True(t, d("7.25").Equal(r.Total))
	assert.True(t, d("7.25").Equal(r.Card.Balance))
	assert.Equal(t, "none", r.Card.Tier.Name)
}

func TestCheckout_Errors(t *testing.T) {
	tests := []struct {
		name     string
		rules    *mockRuleRepo
		cards    *mockCardRepo
		req      Request
		wantKind error
		wantText string
	}{
		{
			name:     "empty scan",
			rules:    &mockRuleRepo{rules: referenceRules(t)},
			cards:    &mockCardRepo{},
			req:      Request{},
			wantKind: fault.ErrInvalidArgument,
		},
		{
			name:     "no catalog",
			rules:    &mockRuleRepo{},
			cards:    &mockCardRepo{},
			req:      Request{Codes: codes("A")},
			wantKind: fault.ErrInvalidState,
		},
		{
			name:     "unknown product",
			rules:    &mockRuleRepo{rules: referenceRules(t)},
			cards:    &mockCardRepo{},
			req:      Request{Codes: codes("AQ")},
			wantKind: fault.ErrNotFound,
		},
		{
			name:     "blank code",
			rules:    &mockRuleRepo{rules: referenceRules(t)},
			cards:    &mockCardRepo{},
			req:      Request{Codes: []string{"A", " "}},
			wantKind: fault.ErrInvalidArgument,
		},
		{
			name:     "unknown card",
			rules:    &mockRuleRepo{rules: referenceRules(t)},
			cards:    &mockCardRepo{cards: map[string]*loyalty.Card{}},
			req:      Request{Codes: codes("A"), CardID: "nope"},
			wantKind: fault.ErrNotFound,
		},
		{
			name:     "list failure",
			rules:    &mockRuleRepo{listErr: errors.New("db down")},
			cards:    &mockCardRepo{},
			req:      Request{Codes: codes("A")},
			wantText: "list price rules",
		},
		{
			name:  "accumulate failure",
			rules: &mockRuleRepo{rules: referenceRules(t)},
			cards: &mockCardRepo{
				cards:         map[string]*loyalty.Card{"c": {ID: "c", Accumulated: decimal.Zero}},
				accumulateErr: errors.New("db write failed"),
			},
			req:      Request{Codes: codes("A"), CardID: "c"},
			wantText: "accumulate card",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, tt.rules, tt.cards)

			_, err := svc.Checkout(context.Background(), tt.req)
			require.Error(t, err)
			if tt.wantKind != nil {
				assert.ErrorIs(t, err, tt.wantKind)
			}
			if tt.wantText != "" {
				assert.Contains(t, err.Error(), tt.wantText)
			}
		})
	}
}

func TestCheckout_UnknownProductDoesNotAccumulate(t *testing.T) {
	cards := &mockCardRepo{cards: map[string]*loyalty.Card{
		"c": {ID: "c", Accumulated: d("10")},
	}}
	svc := newService(t, &mockRuleRepo{rules: referenceRules(t)}, cards)

	_, err := svc.Checkout(context.Background(), Request{Codes: codes("ABZ"), CardID: "c"})
	require.ErrorIs(t, err, fault.ErrNotFound)
	assert.Empty(t, cards.accumulated)
	assert.True(t, d("10").Equal(cards.cards["c"].Accumulated))
}
