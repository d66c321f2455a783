package repositories

import (
	"sort"
	"strings"
	"sync"
	"time"

	"catalog/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[uint]models.Product
	nextID   uint
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[uint]models.Product),
		nextID:   1,
	}
}

// List mirrors the GORM repository: case-insensitive substring filter over
// title and description, descending id order, offset/limit pagination.
func (r *MockProductRepository) List(query string, page, limit int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.products))
	needle := strings.ToLower(query)
	for _, p := range r.products {
		if query != "" && !matchesProduct(&p, needle) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	offset := (page - 1) * limit
	if offset >= len(matched) {
		return []models.Product{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func matchesProduct(p *models.Product, needle string) bool {
	if strings.Contains(strings.ToLower(p.Title), needle) {
		return true
	}
	return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), needle)
}

// GetByID returns a product by its id.
func (r *MockProductRepository) GetByID(id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// Create adds a new product, assigning id and timestamps.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product.ID = r.nextID
	r.nextID++
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// Update applies the named fields to an existing product and refreshes
// updated_at.
func (r *MockProductRepository) Update(id uint, fields map[string]interface{}) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	if len(fields) > 0 {
		applyProductFields(&product, fields)
		product.UpdatedAt = time.Now()
		r.products[id] = product
	}
	return &product, nil
}

func applyProductFields(p *models.Product, fields map[string]interface{}) {
	for key, value := range fields {
		switch key {
		case "title":
			if s, ok := value.(string); ok {
				p.Title = s
			}
		case "description":
			p.Description = optionalStringField(value)
		case "image_url":
			p.ImageURL = optionalStringField(value)
		case "category":
			p.Category = optionalStringField(value)
		case "price":
			if f, ok := numericField(value); ok {
				p.Price = f
			}
		case "stock":
			if f, ok := numericField(value); ok {
				p.Stock = int(f)
			}
		}
	}
}

func optionalStringField(value interface{}) *string {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	return &s
}

func numericField(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Delete removes a product by its id.
func (r *MockProductRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}
