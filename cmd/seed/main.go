// Seeds a demo catalog into the kv store so a fresh deployment has something
// to browse.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/example/worldpeas/pkg/config"
	"github.com/example/worldpeas/pkg/kv"
	"github.com/example/worldpeas/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	var store kv.Store
	switch cfg.Server.Store {
	case "mysql":
		store, err = kv.NewMySQLStore(&cfg.MySQL)
		if err != nil {
			logger.Fatal("Failed to open kv store", zap.Error(err))
		}
	default:
		store = kv.NewRedisStore(&cfg.Redis)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	categories := []models.Category{
		{Name: "Fruit", Description: "时令水果"},
		{Name: "Vegetables", Description: "有机蔬菜"},
		{Name: "Dairy", Description: "牧场直供"},
	}
	for i := range categories {
		categories[i].ID = uuid.NewString()
		categories[i].CreatedAt = time.Now().UTC()
		if err := store.Set(ctx, "category:"+categories[i].ID, &categories[i]); err != nil {
			logger.Fatal("Failed to seed category", zap.String("name", categories[i].Name), zap.Error(err))
		}
	}

	products := []models.Product{
		{
			Name:        "Heirloom Tomatoes",
			Price:       "$5.99 / lb",
			PriceValue:  5.99,
			Description: "Grown on trellises, these tomatoes ripen on the vine.",
			Location:    "Sonoma, CA",
			Farm:        "Petaluma Family Farm",
			Category:    "Vegetables",
			Images:      []string{"https://images.example.com/tomatoes.jpg"},
			Dietary:     []string{"vegan", "gluten-free"},
		},
		{
			Name:        "Organic Ginger",
			Price:       "$12.99 / lb",
			PriceValue:  12.99,
			Description: "Knobby, aromatic and never irradiated.",
			Location:    "Huntington Beach, CA",
			Farm:        "Ho Farms",
			Category:    "Vegetables",
			Images:      []string{"https://images.example.com/ginger.jpg"},
			Dietary:     []string{"vegan"},
		},
		{
			Name:        "Sweet Onions",
			Price:       "$2.99 / lb",
			PriceValue:  2.99,
			Description: "Mild flavor, perfect raw or caramelized.",
			Location:    "Walla Walla, WA",
			Farm:        "River Bend Farm",
			Category:    "Vegetables",
			Images:      []string{"https://images.example.com/onions.jpg"},
			Dietary:     []string{"vegan", "gluten-free"},
		},
	}
	for i := range products {
		products[i].ID = uuid.NewString()
		products[i].CreatedAt = time.Now().UTC()
		if err := store.Set(ctx, "product:"+products[i].ID, &products[i]); err != nil {
			logger.Fatal("Failed to seed product", zap.String("name", products[i].Name), zap.Error(err))
		}
	}

	logger.Info("Seed complete",
		zap.Int("categories", len(categories)),
		zap.Int("products", len(products)))
}

func configPath() string {
	if path := os.Getenv("WORLDPEAS_CONFIG"); path != "" {
		return path
	}
	return "config/config.yaml"
}
