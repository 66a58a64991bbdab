package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/example/worldpeas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLoader struct {
	products   []models.Product
	categories []models.Category
	err        error
}

func (l *stubLoader) ListProducts(ctx context.Context) ([]models.Product, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.products, nil
}

func (l *stubLoader) ListCategories(ctx context.Context) ([]models.Category, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.categories, nil
}

func names(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestFilterAndSortScenario(t *testing.T) {
	loader := &stubLoader{products: []models.Product{
		{ID: "1", Name: "Apple", PriceValue: 5, Category: "Fruit"},
		{ID: "2", Name: "Carrot", PriceValue: 3, Category: "Veg"},
	}}
	state := NewState(loader, zap.NewNop())
	require.NoError(t, state.LoadProducts(context.Background()))

	// Both names contain "a" case-insensitively.
	state.SetSearchTerm("a")
	state.SetCategory("")
	assert.Equal(t, []string{"Apple", "Carrot"}, names(state.View()))

	state.SetSortOption(SortPrice)
	assert.Equal(t, []string{"Carrot", "Apple"}, names(state.View()))
}

func TestSearchMatchesNameOrCategory(t *testing.T) {
	loader := &stubLoader{products: []models.Product{
		{ID: "1", Name: "Tomatoes", Category: "Vegetables"},
		{ID: "2", Name: "Milk", Category: "Dairy"},
		{ID: "3", Name: "Veggie Box", Category: "Bundles"},
	}}
	state := NewState(loader, zap.NewNop())
	require.NoError(t, state.LoadProducts(context.Background()))

	state.SetSearchTerm("veg")
	assert.Equal(t, []string{"Tomatoes", "Veggie Box"}, names(state.View()))
}

func TestCategoryFilterExactMatch(t *testing.T) {
	loader := &stubLoader{products: []models.Product{
		{ID: "1", Name: "Apple", Category: "Fruit"},
		{ID: "2", Name: "Carrot", Category: "Veg"},
		{ID: "3", Name: "Pear", Category: "Fruit"},
	}}
	state := NewState(loader, zap.NewNop())
	require.NoError(t, state.LoadProducts(context.Background()))

	state.SetCategory("Fruit")
	assert.Equal(t, []string{"Apple", "Pear"}, names(state.View()))
}

func TestClearingCategoryRestoresFullSortedList(t *testing.T) {
	loader := &stubLoader{products: []models.Product{
		{ID: "1", Name: "Apple", PriceValue: 5, Category: "Fruit"},
		{ID: "2", Name: "Carrot", PriceValue: 3, Category: "Veg"},
		{ID: "3", Name: "Pear", PriceValue: 4, Category: "Fruit"},
	}}
	state := NewState(loader, zap.NewNop())
	require.NoError(t, state.LoadProducts(context.Background()))

	state.SetSortOption(SortPrice)
	state.SetCategory("Fruit")
	assert.Equal(t, []string{"Pear", "Apple"}, names(state.View()))

	state.SetCategory("")
	assert.Equal(t, []string{"Carrot", "Pear", "Apple"}, names(state.View()))
}

func TestPriceSortIsStable(t *testing.T) {
	loader := &stubLoader{products: []models.Product{
		{ID: "1", Name: "First", PriceValue: 5},
		{ID: "2", Name: "Cheap", PriceValue: 1},
		{ID: "3", Name: "Second", PriceValue: 5},
	}}
	state := NewState(loader, zap.NewNop())
	require.NoError(t, state.LoadProducts(context.Background()))

	state.SetSortOption(SortPrice)
	// Equal prices keep their relative catalog order.
	assert.Equal(t, []string{"Cheap", "First", "Second"}, names(state.View()))
}

func TestDefaultSortPreservesArrivalOrder(t *testing.T) {
	loader := &stubLoader{products: []models.Product{
		{ID: "1", Name: "B", PriceValue: 9},
		{ID: "2", Name: "A", PriceValue: 1},
	}}
	state := NewState(loader, zap.NewNop())
	require.NoError(t, state.LoadProducts(context.Background()))

	assert.Equal(t, []string{"B", "A"}, names(state.View()))
}

func TestFailedLoadKeepsPreviousCatalog(t *testing.T) {
	loader := &stubLoader{products: []models.Product{
		{ID: "1", Name: "Apple"},
	}}
	state := NewState(loader, zap.NewNop())
	require.NoError(t, state.LoadProducts(context.Background()))

	loader.err = errors.New("gateway down")
	assert.Error(t, state.LoadProducts(context.Background()))
	assert.Equal(t, []string{"Apple"}, names(state.Products()))
}

func TestLoadReplacesWholesale(t *testing.T) {
	loader := &stubLoader{products: []models.Product{
		{ID: "1", Name: "Apple"},
		{ID: "2", Name: "Carrot"},
	}}
	state := NewState(loader, zap.NewNop())
	require.NoError(t, state.LoadProducts(context.Background()))

	loader.products = []models.Product{{ID: "3", Name: "Pear"}}
	require.NoError(t, state.LoadProducts(context.Background()))
	assert.Equal(t, []string{"Pear"}, names(state.Products()))
}

func TestFindAndCategoryNames(t *testing.T) {
	loader := &stubLoader{
		products:   []models.Product{{ID: "1", Name: "Apple"}},
		categories: []models.Category{{ID: "c1", Name: "Fruit"}, {ID: "c2", Name: "Veg"}},
	}
	state := NewState(loader, zap.NewNop())
	require.NoError(t, state.LoadProducts(context.Background()))
	require.NoError(t, state.LoadCategories(context.Background()))

	p, ok := state.Find("1")
	require.True(t, ok)
	assert.Equal(t, "Apple", p.Name)

	_, ok = state.Find("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{"Fruit", "Veg"}, state.CategoryNames())
}
