// Package shop is the explicit application-state container for the
// storefront. Views receive this container and go through its components'
// operations; nothing mutates shared state directly.
package shop

import (
	"context"
	"sync"

	"github.com/example/worldpeas/pkg/cart"
	"github.com/example/worldpeas/pkg/catalog"
	"github.com/example/worldpeas/pkg/checkout"
	"github.com/example/worldpeas/pkg/gateway"
	"github.com/example/worldpeas/pkg/localcache"
	"github.com/example/worldpeas/pkg/models"
	"github.com/example/worldpeas/pkg/session"
	"go.uber.org/zap"
)

type App struct {
	Session  *session.Store
	Catalog  *catalog.State
	Cart     *cart.Engine
	Checkout *checkout.Pipeline

	mu       sync.RWMutex
	settings models.SiteSettings
	pages    models.PagesContent

	gateway *gateway.Client
	cache   *localcache.Cache
	logger  *zap.Logger
}

// New wires the container. Settings and pages are hydrated synchronously from
// the on-device cache so the first paint never waits on the network; the
// authoritative refresh happens in Bootstrap.
func New(gw *gateway.Client, verifier session.TokenVerifier, cache *localcache.Cache, logger *zap.Logger) *App {
	a := &App{
		gateway:  gw,
		cache:    cache,
		logger:   logger,
		settings: models.DefaultSiteSettings(),
		pages:    models.DefaultPagesContent(),
	}

	cache.Get(localcache.KeySiteSettings, &a.settings)
	cache.Get(localcache.KeyPagesContent, &a.pages)

	a.Session = session.NewStore(cache, verifier, logger.Named("session"))
	a.Catalog = catalog.NewState(gw, logger.Named("catalog"))
	a.Cart = cart.NewEngine(a.Catalog, logger.Named("cart"))
	journal := checkout.NewJournal(cache, logger.Named("journal"))
	a.Checkout = checkout.NewPipeline(a.Cart, gw, journal, logger.Named("checkout"))
	return a
}

// Bootstrap issues the four initial loads concurrently; each writes a
// disjoint piece of state, so their completion order does not matter. It also
// restores the session and retries any journaled orders. Individual failures
// are logged by the components and leave previous state intact.
func (a *App) Bootstrap(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		_ = a.Catalog.LoadProducts(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = a.Catalog.LoadCategories(ctx)
	}()
	go func() {
		defer wg.Done()
		a.RefreshSettings(ctx)
	}()
	go func() {
		defer wg.Done()
		a.RefreshPages(ctx)
	}()
	wg.Wait()

	a.Session.Restore(ctx)
	a.Checkout.FlushPending(ctx)
}

// RefreshSettings fetches the authoritative settings and, only on success,
// replaces both state and the on-device cache atomically.
func (a *App) RefreshSettings(ctx context.Context) {
	settings, err := a.gateway.GetSettings(ctx)
	if err != nil {
		a.logger.Warn("Failed to refresh site settings, keeping cached copy", zap.Error(err))
		return
	}
	a.mu.Lock()
	a.settings = *settings
	a.mu.Unlock()
	if err := a.cache.Set(localcache.KeySiteSettings, settings); err != nil {
		a.logger.Warn("Failed to cache site settings", zap.Error(err))
	}
}

// RefreshPages fetches the authoritative page content, same policy as
// RefreshSettings.
func (a *App) RefreshPages(ctx context.Context) {
	pages, err := a.gateway.GetPages(ctx)
	if err != nil {
		a.logger.Warn("Failed to refresh pages content, keeping cached copy", zap.Error(err))
		return
	}
	a.mu.Lock()
	a.pages = *pages
	a.mu.Unlock()
	if err := a.cache.Set(localcache.KeyPagesContent, pages); err != nil {
		a.logger.Warn("Failed to cache pages content", zap.Error(err))
	}
}

// Settings returns the current site settings (cached or refreshed).
func (a *App) Settings() models.SiteSettings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Pages returns the current static page content.
func (a *App) Pages() models.PagesContent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pages
}
