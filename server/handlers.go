package server

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/example/worldpeas/pkg/identity"
	"github.com/example/worldpeas/pkg/kv"
	"github.com/example/worldpeas/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===== Products =====

func (s *Server) listProducts(c *gin.Context) {
	blobs, err := s.store.GetByPrefix(c.Request.Context(), keyProduct)
	if err != nil {
		s.logger.Error("Failed to fetch products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, kv.DecodeAll[models.Product](blobs))
}

func (s *Server) getProduct(c *gin.Context) {
	var product models.Product
	err := s.store.Get(c.Request.Context(), keyProduct+c.Param("id"), &product)
	if errors.Is(err, kv.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to fetch product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) createProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product.ID = uuid.NewString()
	product.CreatedAt = time.Now().UTC()

	if err := s.store.Set(c.Request.Context(), keyProduct+product.ID, &product); err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	s.recordAudit("create_product", product.ID, map[string]interface{}{"name": product.Name})
	c.JSON(http.StatusOK, product)
}

func (s *Server) updateProduct(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	// Merge the body over the stored document, the id always wins.
	var product models.Product
	err := s.store.Get(ctx, keyProduct+id, &product)
	if errors.Is(err, kv.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to fetch product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product.ID = id
	product.UpdatedAt = time.Now().UTC()

	if err := s.store.Set(ctx, keyProduct+id, &product); err != nil {
		s.logger.Error("Failed to update product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	s.recordAudit("update_product", id, map[string]interface{}{"name": product.Name})
	c.JSON(http.StatusOK, product)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.Del(c.Request.Context(), keyProduct+id); err != nil {
		s.logger.Error("Failed to delete product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	s.recordAudit("delete_product", id, nil)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ===== Categories =====

func (s *Server) listCategories(c *gin.Context) {
	blobs, err := s.store.GetByPrefix(c.Request.Context(), keyCategory)
	if err != nil {
		s.logger.Error("Failed to fetch categories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, kv.DecodeAll[models.Category](blobs))
}

func (s *Server) createCategory(c *gin.Context) {
	var category models.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category.ID = uuid.NewString()
	category.CreatedAt = time.Now().UTC()

	if err := s.store.Set(c.Request.Context(), keyCategory+category.ID, &category); err != nil {
		s.logger.Error("Failed to create category", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	s.recordAudit("create_category", category.ID, map[string]interface{}{"name": category.Name})
	c.JSON(http.StatusOK, category)
}

func (s *Server) updateCategory(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var category models.Category
	err := s.store.Get(ctx, keyCategory+id, &category)
	if errors.Is(err, kv.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to fetch category", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}
	if err := c.ShouldBindJSON(&category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category.ID = id
	category.UpdatedAt = time.Now().UTC()

	if err := s.store.Set(ctx, keyCategory+id, &category); err != nil {
		s.logger.Error("Failed to update category", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}
	s.recordAudit("update_category", id, map[string]interface{}{"name": category.Name})
	c.JSON(http.StatusOK, category)
}

func (s *Server) deleteCategory(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.Del(c.Request.Context(), keyCategory+id); err != nil {
		s.logger.Error("Failed to delete category", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}
	s.recordAudit("delete_category", id, nil)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ===== Orders =====

func (s *Server) listOrders(c *gin.Context) {
	blobs, err := s.store.GetByPrefix(c.Request.Context(), keyOrder)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	orders := kv.DecodeAll[models.Order](blobs)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	c.JSON(http.StatusOK, orders)
}

func (s *Server) getOrder(c *gin.Context) {
	var order models.Order
	err := s.store.Get(c.Request.Context(), keyOrder+c.Param("id"), &order)
	if errors.Is(err, kv.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to fetch order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) createOrder(c *gin.Context) {
	var order models.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order.ID = uuid.NewString()
	order.Status = "pending"
	order.CreatedAt = time.Now().UTC()

	if err := s.store.Set(c.Request.Context(), keyOrder+order.ID, &order); err != nil {
		s.logger.Error("Failed to create order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}
	s.recordAudit("create_order", order.ID, map[string]interface{}{"total": order.Total})
	if s.orders != nil {
		s.orders.OrderPlaced(&order)
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) updateOrder(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var order models.Order
	err := s.store.Get(ctx, keyOrder+id, &order)
	if errors.Is(err, kv.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to fetch order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order.ID = id
	order.UpdatedAt = time.Now().UTC()

	if err := s.store.Set(ctx, keyOrder+id, &order); err != nil {
		s.logger.Error("Failed to update order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}
	s.recordAudit("update_order", id, map[string]interface{}{"status": order.Status})
	c.JSON(http.StatusOK, order)
}

// ===== Site settings & pages =====

func (s *Server) getSettings(c *gin.Context) {
	var settings models.SiteSettings
	err := s.store.Get(c.Request.Context(), keySettings, &settings)
	if errors.Is(err, kv.ErrNotFound) {
		c.JSON(http.StatusOK, models.DefaultSiteSettings())
		return
	}
	if err != nil {
		s.logger.Error("Failed to fetch site settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch site settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) updateSettings(c *gin.Context) {
	var settings models.SiteSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settings.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := s.store.Set(c.Request.Context(), keySettings, &settings); err != nil {
		s.logger.Error("Failed to update site settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update site settings"})
		return
	}
	s.recordAudit("update_settings", keySettings, map[string]interface{}{"title": settings.Title})
	c.JSON(http.StatusOK, settings)
}

func (s *Server) getPages(c *gin.Context) {
	var pages models.PagesContent
	err := s.store.Get(c.Request.Context(), keyPages, &pages)
	if errors.Is(err, kv.ErrNotFound) {
		c.JSON(http.StatusOK, models.DefaultPagesContent())
		return
	}
	if err != nil {
		s.logger.Error("Failed to fetch pages content", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pages content"})
		return
	}
	c.JSON(http.StatusOK, pages)
}

func (s *Server) updatePages(c *gin.Context) {
	var pages models.PagesContent
	if err := c.ShouldBindJSON(&pages); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pages.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := s.store.Set(c.Request.Context(), keyPages, &pages); err != nil {
		s.logger.Error("Failed to update pages content", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update pages content"})
		return
	}
	s.recordAudit("update_pages", keyPages, nil)
	c.JSON(http.StatusOK, pages)
}

// ===== Signup =====

func (s *Server) signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" || req.FullName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少必填字段"})
		return
	}

	ident, err := s.identity.CreateUser(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "该邮箱已被注册"})
			return
		}
		s.logger.Error("Signup failed", zap.String("email", req.Email), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "注册失败，请稍后重试"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"email":    ident.Email,
			"fullName": ident.FullName,
		},
	})
}
