package models

import (
	"time"
)

// Product is the catalog document as the storefront API serves it. Price is
// the display string; PriceValue is the numeric amount used for sorting and
// cart arithmetic.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;size:64"`
	Name        string    `json:"name"`
	Price       string    `json:"price"`
	PriceValue  float64   `json:"priceValue"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Farm        string    `json:"farm,omitempty"`
	Category    string    `json:"category,omitempty"`
	Images      []string  `json:"images,omitempty" gorm:"serializer:json"`
	Dietary     []string  `json:"dietary,omitempty" gorm:"serializer:json"`
	IsFavorite  bool      `json:"isFavorite,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// FirstImage returns the lead image for list and cart rendering, or empty when
// the product has none.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Category is a back-office managed catalog grouping. Products reference it by
// name, not by id.
type Category struct {
	ID          string    `json:"id" gorm:"primaryKey;size:64"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}
