// Package cart implements the cart engine: line items keyed by product id
// with quantity-merge semantics, aggregate count and total, and the transient
// "item added" notice shown after each add.
package cart

import (
	"errors"
	"sync"
	"time"

	"github.com/example/worldpeas/pkg/models"
	"go.uber.org/zap"
)

var (
	// ErrProductNotFound means the id is not in the loaded catalog (or, for
	// quantity updates, not in the cart).
	ErrProductNotFound = errors.New("cart: product not found")
	// ErrInvalidQuantity rejects negative quantities instead of guessing at
	// silent acceptance.
	ErrInvalidQuantity = errors.New("cart: invalid quantity")
)

const defaultNoticeTTL = time.Second

// ProductFinder resolves a product id against the loaded catalog.
type ProductFinder interface {
	Find(id string) (*models.Product, bool)
}

// Notice is the transient add-to-cart confirmation. It is a presentation side
// effect only and never blocks cart operations.
type Notice struct {
	ProductID string
	Name      string
	Image     string
	Quantity  int
}

type Engine struct {
	mu    sync.Mutex
	lines []models.CartLine

	noticeMu    sync.Mutex
	notice      *Notice
	noticeSeq   uint64
	noticeTimer *time.Timer
	noticeTTL   time.Duration

	finder ProductFinder
	logger *zap.Logger
}

type Option func(*Engine)

// WithNoticeTTL overrides how long the add-to-cart notice stays visible.
func WithNoticeTTL(d time.Duration) Option {
	return func(e *Engine) { e.noticeTTL = d }
}

func NewEngine(finder ProductFinder, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		finder:    finder,
		logger:    logger,
		noticeTTL: defaultNoticeTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddItem adds quantity units of the product. If a line for the id already
// exists its quantity is incremented; otherwise a new line is appended,
// preserving first-add order. The product must exist in the catalog.
func (e *Engine) AddItem(productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	product, ok := e.finder.Find(productID)
	if !ok {
		e.logger.Warn("Add to cart for unknown product", zap.String("product_id", productID))
		return ErrProductNotFound
	}

	e.mu.Lock()
	merged := false
	for i := range e.lines {
		if e.lines[i].ProductID == productID {
			e.lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		e.lines = append(e.lines, models.CartLine{
			ProductID:  product.ID,
			Name:       product.Name,
			Price:      product.Price,
			PriceValue: product.PriceValue,
			Image:      product.FirstImage(),
			Quantity:   quantity,
		})
	}
	e.mu.Unlock()

	e.showNotice(&Notice{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.FirstImage(),
		Quantity:  quantity,
	})
	return nil
}

// UpdateQuantity sets the line's quantity. Zero removes the line; negative
// quantities are rejected.
func (e *Engine) UpdateQuantity(productID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.lines {
		if e.lines[i].ProductID != productID {
			continue
		}
		if quantity == 0 {
			e.lines = append(e.lines[:i], e.lines[i+1:]...)
		} else {
			e.lines[i].Quantity = quantity
		}
		return nil
	}
	return ErrProductNotFound
}

// Lines returns a snapshot of the cart in first-add order.
func (e *Engine) Lines() []models.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.CartLine, len(e.lines))
	copy(out, e.lines)
	return out
}

// Count is the sum of all line quantities, shown on the cart badge.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	var count int
	for _, line := range e.lines {
		count += line.Quantity
	}
	return count
}

// Total is the sum of unit price times quantity across lines.
func (e *Engine) Total() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	var total float64
	for _, line := range e.lines {
		total += line.PriceValue * float64(line.Quantity)
	}
	return total
}

// Clear empties the cart. Called once, atomically, right after order
// submission.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.lines = nil
	e.mu.Unlock()
}

// Notice returns the currently visible add-to-cart notice, if any.
func (e *Engine) Notice() (*Notice, bool) {
	e.noticeMu.Lock()
	defer e.noticeMu.Unlock()
	if e.notice == nil {
		return nil, false
	}
	n := *e.notice
	return &n, true
}

// showNotice replaces the visible notice and arms its dismiss timer. The
// previous timer is stopped first, and the sequence check makes sure a timer
// that already fired cannot dismiss a newer notice.
func (e *Engine) showNotice(n *Notice) {
	e.noticeMu.Lock()
	defer e.noticeMu.Unlock()

	if e.noticeTimer != nil {
		e.noticeTimer.Stop()
	}
	e.noticeSeq++
	seq := e.noticeSeq
	e.notice = n
	e.noticeTimer = time.AfterFunc(e.noticeTTL, func() {
		e.noticeMu.Lock()
		defer e.noticeMu.Unlock()
		if e.noticeSeq == seq {
			e.notice = nil
		}
	})
}
