// Package server is the thin HTTP routing layer in front of the key-value
// store: REST CRUD for products, categories, orders, site settings and page
// content, plus signup delegation to the identity provider. There is no
// business logic here beyond key naming and merge-on-update; the storefront
// client owns all interesting state.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/worldpeas/pkg/config"
	"github.com/example/worldpeas/pkg/kv"
	"github.com/example/worldpeas/pkg/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Key prefixes in the blob store.
const (
	keyProduct  = "product:"
	keyCategory = "category:"
	keyOrder    = "order:"
	keySettings = "site:settings"
	keyPages    = "site:pages"
)

// AccountCreator is the slice of the identity client the signup endpoint
// needs.
type AccountCreator interface {
	CreateUser(ctx context.Context, email, password, fullName string) (*models.Identity, error)
}

type Server struct {
	config   *config.Config
	store    kv.Store
	identity AccountCreator
	audit    *AuditLog
	orders   *OrderProcessor
	logger   *zap.Logger
	router   *gin.Engine
}

// NewServer wires the router. audit and orders may be nil; the corresponding
// side effects are then skipped.
func NewServer(cfg *config.Config, store kv.Store, creator AccountCreator, audit *AuditLog, orders *OrderProcessor, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Server{
		config:   cfg,
		store:    store,
		identity: creator,
		audit:    audit,
		orders:   orders,
		logger:   logger,
		router:   router,
	}
}

func (s *Server) SetupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := s.router.Group("/")
	authed.Use(bearerMiddleware())
	{
		products := authed.Group("/products")
		{
			products.GET("", s.listProducts)
			products.GET("/:id", s.getProduct)
			products.POST("", s.createProduct)
			products.PUT("/:id", s.updateProduct)
			products.DELETE("/:id", s.deleteProduct)
		}

		categories := authed.Group("/categories")
		{
			categories.GET("", s.listCategories)
			categories.POST("", s.createCategory)
			categories.PUT("/:id", s.updateCategory)
			categories.DELETE("/:id", s.deleteCategory)
		}

		orders := authed.Group("/orders")
		{
			orders.GET("", s.listOrders)
			orders.GET("/:id", s.getOrder)
			orders.POST("", s.createOrder)
			orders.PUT("/:id", s.updateOrder)
		}

		authed.GET("/settings", s.getSettings)
		authed.PUT("/settings", s.updateSettings)
		authed.GET("/pages", s.getPages)
		authed.PUT("/pages", s.updatePages)
		authed.POST("/signup", s.signup)
	}
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("Storefront API starting", zap.String("address", addr))
	return s.router.Run(addr)
}

// bearerMiddleware requires an opaque bearer credential on every request.
// Token validity is the identity provider's concern, not this layer's.
func bearerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}
		c.Next()
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
