package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/example/worldpeas/pkg/localcache"
	"github.com/example/worldpeas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCart struct {
	lines []models.CartLine
}

func (c *fakeCart) Lines() []models.CartLine {
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *fakeCart) Count() int {
	var n int
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *fakeCart) Total() float64 {
	var t float64
	for _, l := range c.lines {
		t += l.PriceValue * float64(l.Quantity)
	}
	return t
}

func (c *fakeCart) Clear() { c.lines = nil }

type fakeSubmitter struct {
	fail     bool
	received []models.Order
}

func (s *fakeSubmitter) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if s.fail {
		return nil, errors.New("gateway unreachable")
	}
	created := *order
	created.ID = "order-1"
	created.Status = "pending"
	s.received = append(s.received, created)
	return &created, nil
}

func completeInfo() models.CustomerInfo {
	return models.CustomerInfo{
		FullName: "Ada Lovelace",
		Address:  "1 Analytical Way",
		City:     "London",
		State:    "LDN",
		ZipCode:  "E1 6AN",
		Country:  "UK",
	}
}

func newTestPipeline(t *testing.T, submitter OrderSubmitter) (*Pipeline, *fakeCart, *Journal) {
	t.Helper()
	cache, err := localcache.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	cart := &fakeCart{lines: []models.CartLine{
		{ProductID: "p1", Name: "Apple", PriceValue: 5, Quantity: 2},
	}}
	journal := NewJournal(cache, zap.NewNop())
	return NewPipeline(cart, submitter, journal, zap.NewNop()), cart, journal
}

func advanceToConfirmation(t *testing.T, p *Pipeline) {
	t.Helper()
	require.NoError(t, p.OpenCart())
	require.NoError(t, p.BeginCheckout())
	require.NoError(t, p.ProceedToPayment(completeInfo()))
	require.NoError(t, p.ProceedToConfirmation())
}

func TestForwardWalkThroughAllSteps(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeSubmitter{})

	assert.Equal(t, StepBrowsing, p.Step())
	require.NoError(t, p.ViewDetail())
	assert.Equal(t, StepDetail, p.Step())
	require.NoError(t, p.OpenCart())
	assert.Equal(t, StepCart, p.Step())
	require.NoError(t, p.BeginCheckout())
	assert.Equal(t, StepCheckout, p.Step())
	require.NoError(t, p.ProceedToPayment(completeInfo()))
	assert.Equal(t, StepPayment, p.Step())
	require.NoError(t, p.ProceedToConfirmation())
	assert.Equal(t, StepConfirmation, p.Step())

	_, err := p.CompletePurchase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepOrderSubmitted, p.Step())

	require.NoError(t, p.ContinueShopping())
	assert.Equal(t, StepBrowsing, p.Step())
}

func TestOutOfOrderTransitionsRejected(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeSubmitter{})

	assert.ErrorIs(t, p.BeginCheckout(), ErrInvalidTransition)
	assert.ErrorIs(t, p.ProceedToConfirmation(), ErrInvalidTransition)
	assert.ErrorIs(t, p.ContinueShopping(), ErrInvalidTransition)

	_, err := p.CompletePurchase(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StepBrowsing, p.Step())
}

func TestProceedToPaymentRequiresCompleteInfo(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeSubmitter{})
	require.NoError(t, p.OpenCart())
	require.NoError(t, p.BeginCheckout())

	info := completeInfo()
	info.ZipCode = ""
	assert.ErrorIs(t, p.ProceedToPayment(info), ErrIncompleteCustomerInfo)
	assert.Equal(t, StepCheckout, p.Step())
}

func TestBackwardTransitionsAreNonDestructive(t *testing.T) {
	p, cart, _ := newTestPipeline(t, &fakeSubmitter{})
	advanceToConfirmation(t, p)

	require.NoError(t, p.BackToPayment())
	require.NoError(t, p.BackToCheckout())
	require.NoError(t, p.BackToCart())

	// Cart and customer info survive the round trip.
	assert.Len(t, cart.Lines(), 1)
	assert.Equal(t, completeInfo(), p.CustomerInfo())

	require.NoError(t, p.BeginCheckout())
	require.NoError(t, p.ProceedToPayment(p.CustomerInfo()))
	assert.Equal(t, StepPayment, p.Step())
}

func TestCompletePurchaseSuccess(t *testing.T) {
	submitter := &fakeSubmitter{}
	p, cart, journal := newTestPipeline(t, submitter)
	advanceToConfirmation(t, p)

	order, err := p.CompletePurchase(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "order-1", order.ID)
	assert.InDelta(t, 10.0, order.Total, 1e-9)
	assert.Empty(t, cart.Lines())
	assert.Equal(t, 0, journal.Len())
	require.Len(t, submitter.received, 1)
	assert.Equal(t, completeInfo(), submitter.received[0].CustomerInfo)
}

func TestCompletePurchaseClearsCartEvenOnFailure(t *testing.T) {
	submitter := &fakeSubmitter{fail: true}
	p, cart, journal := newTestPipeline(t, submitter)
	advanceToConfirmation(t, p)

	order, err := p.CompletePurchase(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StepOrderSubmitted, p.Step())
	assert.Empty(t, cart.Lines())
	// The failed order stays journaled for a later flush.
	assert.Equal(t, 1, journal.Len())
	assert.InDelta(t, 10.0, order.Total, 1e-9)
}

func TestFlushPendingRetriesJournaledOrders(t *testing.T) {
	submitter := &fakeSubmitter{fail: true}
	p, _, journal := newTestPipeline(t, submitter)
	advanceToConfirmation(t, p)

	_, err := p.CompletePurchase(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, journal.Len())

	// Still failing: nothing drains.
	assert.Equal(t, 0, p.FlushPending(context.Background()))
	assert.Equal(t, 1, journal.Len())

	submitter.fail = false
	assert.Equal(t, 1, p.FlushPending(context.Background()))
	assert.Equal(t, 0, journal.Len())
	require.Len(t, submitter.received, 1)
	assert.InDelta(t, 10.0, submitter.received[0].Total, 1e-9)
}

func TestContinueShoppingResetsCustomerInfo(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeSubmitter{})
	advanceToConfirmation(t, p)

	_, err := p.CompletePurchase(context.Background())
	require.NoError(t, err)

	// Entering OrderSubmitted keeps the info for the confirmation view.
	assert.Equal(t, completeInfo(), p.CustomerInfo())

	require.NoError(t, p.ContinueShopping())
	assert.Equal(t, models.CustomerInfo{}, p.CustomerInfo())
}

func TestJournalSurvivesPipelineRestart(t *testing.T) {
	dir := t.TempDir()
	cache, err := localcache.Open(dir, zap.NewNop())
	require.NoError(t, err)

	failing := &fakeSubmitter{fail: true}
	cart := &fakeCart{lines: []models.CartLine{{ProductID: "p1", PriceValue: 3, Quantity: 1}}}
	p := NewPipeline(cart, failing, NewJournal(cache, zap.NewNop()), zap.NewNop())
	advanceToConfirmation(t, p)
	_, err = p.CompletePurchase(context.Background())
	require.NoError(t, err)

	// A fresh journal over the same cache directory sees the pending order.
	cache2, err := localcache.Open(dir, zap.NewNop())
	require.NoError(t, err)
	journal2 := NewJournal(cache2, zap.NewNop())
	assert.Equal(t, 1, journal2.Len())

	working := &fakeSubmitter{}
	assert.Equal(t, 1, journal2.Flush(context.Background(), working))
	assert.Equal(t, 0, journal2.Len())
}
