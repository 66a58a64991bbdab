package models

import (
	"time"
)

// CartLine is one cart entry: product id plus a snapshot of name, price and
// image taken at add time. Quantity is always >= 1; a line reduced to zero is
// removed, never stored.
type CartLine struct {
	ProductID  string  `json:"id"`
	Name       string  `json:"name"`
	Price      string  `json:"price"`
	PriceValue float64 `json:"priceValue"`
	Image      string  `json:"image"`
	Quantity   int     `json:"quantity"`
}

// CustomerInfo is captured once at checkout and carried through to order
// submission and the post-order confirmation view. All fields free text.
type CustomerInfo struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country"`
}

// Complete reports whether every field has been filled in. The gateway does
// not enforce this; the checkout pipeline gates on it before payment.
func (c CustomerInfo) Complete() bool {
	return c.FullName != "" && c.Address != "" && c.City != "" &&
		c.State != "" && c.ZipCode != "" && c.Country != ""
}

// Order is assembled from the cart and customer info at submission time. The
// server assigns ID, Status and CreatedAt.
type Order struct {
	ID           string       `json:"id,omitempty"`
	CustomerInfo CustomerInfo `json:"customerInfo"`
	Items        []CartLine   `json:"items"`
	Total        float64      `json:"total"`
	Status       string       `json:"status,omitempty"`
	CreatedAt    time.Time    `json:"createdAt,omitempty"`
	UpdatedAt    time.Time    `json:"updatedAt,omitempty"`
}
