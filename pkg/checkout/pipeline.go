// Package checkout implements the linear checkout state machine, from
// browsing through detail, cart, customer info, payment and confirmation to
// order submitted. Steps change only through explicit forward and back
// transitions; back never mutates the cart or discards entered customer info.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/example/worldpeas/pkg/models"
	"go.uber.org/zap"
)

type Step string

const (
	StepBrowsing       Step = "browsing"
	StepDetail         Step = "detail"
	StepCart           Step = "cart"
	StepCheckout       Step = "checkout"
	StepPayment        Step = "payment"
	StepConfirmation   Step = "confirmation"
	StepOrderSubmitted Step = "orderSubmitted"
)

var (
	// ErrInvalidTransition rejects a step change the machine does not allow
	// from the current step.
	ErrInvalidTransition = errors.New("checkout: invalid transition")
	// ErrIncompleteCustomerInfo gates the move to payment.
	ErrIncompleteCustomerInfo = errors.New("checkout: customer info incomplete")
)

// Cart is the slice of the cart engine the pipeline reads and, at submission,
// clears. The pipeline does not own cart state.
type Cart interface {
	Lines() []models.CartLine
	Count() int
	Total() float64
	Clear()
}

// OrderSubmitter sends an assembled order to the gateway.
type OrderSubmitter interface {
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
}

type Pipeline struct {
	mu       sync.Mutex
	step     Step
	customer models.CustomerInfo

	cart      Cart
	submitter OrderSubmitter
	journal   *Journal
	logger    *zap.Logger
}

func NewPipeline(cart Cart, submitter OrderSubmitter, journal *Journal, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		step:      StepBrowsing,
		cart:      cart,
		submitter: submitter,
		journal:   journal,
		logger:    logger,
	}
}

// Step returns the current pipeline step.
func (p *Pipeline) Step() Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.step
}

// CartCount is the read-only badge projection every step reports.
func (p *Pipeline) CartCount() int {
	return p.cart.Count()
}

// CustomerInfo returns the info entered so far. Back navigation keeps it, so
// the forms can be re-rendered pre-filled.
func (p *Pipeline) CustomerInfo() models.CustomerInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.customer
}

func (p *Pipeline) transition(to Step, from ...Step) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range from {
		if p.step == f {
			p.step = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.step, to)
}

// ViewDetail opens a product detail from the list.
func (p *Pipeline) ViewDetail() error {
	return p.transition(StepDetail, StepBrowsing)
}

// BackToBrowsing leaves the detail or cart view.
func (p *Pipeline) BackToBrowsing() error {
	return p.transition(StepBrowsing, StepDetail, StepCart)
}

// OpenCart shows the cart from the list or detail view.
func (p *Pipeline) OpenCart() error {
	return p.transition(StepCart, StepBrowsing, StepDetail)
}

// BeginCheckout moves from the cart to customer info capture.
func (p *Pipeline) BeginCheckout() error {
	return p.transition(StepCheckout, StepCart)
}

// BackToCart returns from customer info capture without touching the cart.
func (p *Pipeline) BackToCart() error {
	return p.transition(StepCart, StepCheckout)
}

// ProceedToPayment stores the captured customer info and advances. All six
// fields must be filled; the gateway does not enforce this, the pipeline
// does.
func (p *Pipeline) ProceedToPayment(info models.CustomerInfo) error {
	if !info.Complete() {
		return ErrIncompleteCustomerInfo
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.step != StepCheckout {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.step, StepPayment)
	}
	p.customer = info
	p.step = StepPayment
	return nil
}

// BackToCheckout returns to customer info capture, keeping the entered data.
func (p *Pipeline) BackToCheckout() error {
	return p.transition(StepCheckout, StepPayment)
}

// ProceedToConfirmation advances from payment capture to the order review.
func (p *Pipeline) ProceedToConfirmation() error {
	return p.transition(StepConfirmation, StepPayment)
}

// BackToPayment returns from the review to payment capture.
func (p *Pipeline) BackToPayment() error {
	return p.transition(StepPayment, StepConfirmation)
}

// CompletePurchase is the terminal mutating transition. It assembles the
// order from the cart and customer info, journals it, submits it, then clears
// the cart and advances to OrderSubmitted whether or not submission
// succeeded, so the user is never trapped in checkout. A failed submission
// stays in the journal for a later flush.
func (p *Pipeline) CompletePurchase(ctx context.Context) (*models.Order, error) {
	p.mu.Lock()
	if p.step != StepConfirmation {
		step := p.step
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, step, StepOrderSubmitted)
	}
	customer := p.customer
	p.mu.Unlock()

	order := models.Order{
		CustomerInfo: customer,
		Items:        p.cart.Lines(),
		Total:        p.cart.Total(),
	}

	localID := p.journal.Add(order)
	if submitted, err := p.submitter.CreateOrder(ctx, &order); err != nil {
		p.logger.Error("Order submission failed, kept in journal",
			zap.String("local_id", localID),
			zap.Float64("total", order.Total),
			zap.Error(err))
	} else {
		p.journal.Remove(localID)
		order = *submitted
		p.logger.Info("Order submitted",
			zap.String("order_id", order.ID),
			zap.Float64("total", order.Total))
	}

	p.cart.Clear()
	p.mu.Lock()
	p.step = StepOrderSubmitted
	p.mu.Unlock()
	return &order, nil
}

// ContinueShopping leaves the post-order view and resets the customer info
// for the next order. The reset happens here, not on entering OrderSubmitted,
// so the confirmation view can still display the shipping details.
func (p *Pipeline) ContinueShopping() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.step != StepOrderSubmitted {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.step, StepBrowsing)
	}
	p.step = StepBrowsing
	p.customer = models.CustomerInfo{}
	return nil
}

// FlushPending retries journaled orders, typically on bootstrap.
func (p *Pipeline) FlushPending(ctx context.Context) int {
	return p.journal.Flush(ctx, p.submitter)
}
