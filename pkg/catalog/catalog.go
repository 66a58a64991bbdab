// Package catalog holds the product and category lists together with the
// active search term, sort option and selected category, and derives the
// filtered, sorted view from them. Lists are replaced wholesale on load and
// never mutated in place; the derived view is recomputed on demand, which is
// fine at storefront catalog sizes.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/example/worldpeas/pkg/models"
	"go.uber.org/zap"
)

type SortOption string

const (
	// SortDefault preserves catalog arrival order.
	SortDefault SortOption = "default"
	// SortPrice orders ascending by numeric price, ties keep arrival order.
	SortPrice SortOption = "price"
)

// Loader is the slice of the remote gateway the catalog needs.
type Loader interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type State struct {
	mu               sync.RWMutex
	products         []models.Product
	categories       []models.Category
	searchTerm       string
	sortOption       SortOption
	selectedCategory string

	loader Loader
	logger *zap.Logger
}

func NewState(loader Loader, logger *zap.Logger) *State {
	return &State{
		sortOption: SortDefault,
		loader:     loader,
		logger:     logger,
	}
}

// LoadProducts replaces the product list from the gateway. On failure the
// previous list stays in place and the error is reported to the caller.
func (s *State) LoadProducts(ctx context.Context) error {
	products, err := s.loader.ListProducts(ctx)
	if err != nil {
		s.logger.Error("Failed to load products", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.products = products
	s.mu.Unlock()
	s.logger.Info("Products loaded", zap.Int("count", len(products)))
	return nil
}

// LoadCategories replaces the category list from the gateway, keeping the
// previous list on failure.
func (s *State) LoadCategories(ctx context.Context) error {
	categories, err := s.loader.ListCategories(ctx)
	if err != nil {
		s.logger.Error("Failed to load categories", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()
	return nil
}

func (s *State) SetSearchTerm(term string) {
	s.mu.Lock()
	s.searchTerm = term
	s.mu.Unlock()
}

func (s *State) SetSortOption(option SortOption) {
	s.mu.Lock()
	s.sortOption = option
	s.mu.Unlock()
}

// SetCategory selects the category facet. Empty string means all products.
func (s *State) SetCategory(category string) {
	s.mu.Lock()
	s.selectedCategory = category
	s.mu.Unlock()
}

func (s *State) SearchTerm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchTerm
}

func (s *State) SortOption() SortOption {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortOption
}

func (s *State) SelectedCategory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedCategory
}

// Products returns the full, unfiltered product list.
func (s *State) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Categories returns the loaded categories.
func (s *State) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// CategoryNames returns just the names, for the navigation facet.
func (s *State) CategoryNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.categories))
	for i, c := range s.categories {
		names[i] = c.Name
	}
	return names
}

// Find looks a product up by id in the loaded catalog.
func (s *State) Find(id string) (*models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.products {
		if s.products[i].ID == id {
			p := s.products[i]
			return &p, true
		}
	}
	return nil, false
}

// View derives the filtered, sorted product list from the current search
// term, selected category and sort option.
func (s *State) View() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term := strings.ToLower(s.searchTerm)
	filtered := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if s.selectedCategory != "" && p.Category != s.selectedCategory {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Category), term) {
			continue
		}
		filtered = append(filtered, p)
	}

	if s.sortOption == SortPrice {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].PriceValue < filtered[j].PriceValue
		})
	}
	return filtered
}
