package repositories

import (
	"errors"

	"catalog/internal/models"
)

// ErrProductNotFound is returned when a product id has no matching record.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// List returns at most limit products for the given page, newest first.
	// A non-empty query filters to products whose title or description
	// contains it, case-insensitively.
	List(query string, page, limit int) ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	// Update overwrites exactly the columns named in fields and returns the
	// refreshed record.
	Update(id uint, fields map[string]interface{}) (*models.Product, error)
	Delete(id uint) error
}
