// Package catalog exposes the product and category surface of the API.
package catalog

import "time"

// Category groups products.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductImage is one image attached to a product.
type ProductImage struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	ProductID int64  `json:"productId"`
}

// Product is a catalog entry. Cart lines embed a snapshot of it, so prices
// seen in the cart are the prices at add time.
type Product struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Stock       int            `json:"stock"`
	CategoryID  int64          `json:"categoryId"`
	Category    *Category      `json:"category,omitempty"`
	Images      []ProductImage `json:"images,omitempty"`
	Featured    bool           `json:"featured"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// InStock reports whether at least qty units are available.
func (p Product) InStock(qty int) bool {
	return p.Stock >= qty
}

// CreateProductRequest is the admin payload for creating a product.
type CreateProductRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Stock       int            `json:"stock"`
	CategoryID  int64          `json:"categoryId"`
	Featured    *bool          `json:"featured,omitempty"`
	Images      []ProductImage `json:"images,omitempty"`
}

// UpdateProductRequest is a partial update; nil fields are left unchanged.
type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	CategoryID  *int64   `json:"categoryId,omitempty"`
	Featured    *bool    `json:"featured,omitempty"`
}

// CreateCategoryRequest is the admin payload for creating a category.
type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateCategoryRequest is a partial category update.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}
