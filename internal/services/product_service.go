package services

import (
	"log"

	"catalog/internal/models"
	"catalog/internal/repositories"
)

// EventPublisher publishes catalog change events to a message broker.
type EventPublisher interface {
	PublishProductEvent(action string, product map[string]interface{}) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	events EventPublisher
}

// NewProductService creates a new ProductService. events may be nil, in
// which case no catalog events are published.
func NewProductService(repo repositories.ProductRepository, events EventPublisher) *ProductService {
	return &ProductService{
		repo:   repo,
		events: events,
	}
}

// ListProducts retrieves one page of products, optionally filtered.
func (s *ProductService) ListProducts(query string, page, limit int) ([]models.Product, error) {
	return s.repo.List(query, page, limit)
}

// GetProductByID retrieves a single product by its id.
func (s *ProductService) GetProductByID(id uint) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct inserts a new product and publishes a product.created event.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := s.repo.Create(product); err != nil {
		return err
	}
	s.publish("product.created", product)
	return nil
}

// UpdateProduct overwrites the named fields of an existing product and
// publishes a product.updated event.
func (s *ProductService) UpdateProduct(id uint, fields map[string]interface{}) (*models.Product, error) {
	product, err := s.repo.Update(id, fields)
	if err != nil {
		return nil, err
	}
	s.publish("product.updated", product)
	return product, nil
}

// DeleteProduct removes a product and publishes a product.deleted event.
func (s *ProductService) DeleteProduct(id uint) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	if s.events != nil {
		if err := s.events.PublishProductEvent("product.deleted", map[string]interface{}{"id": id}); err != nil {
			log.Printf("Failed to publish product.deleted event for product %d: %v", id, err)
		}
	}
	return nil
}

// publish sends a catalog event carrying the product's current state.
// Event delivery must never change the HTTP outcome, so failures are only
// logged.
func (s *ProductService) publish(action string, product *models.Product) {
	if s.events == nil {
		return
	}
	payload := map[string]interface{}{
		"id":    product.ID,
		"title": product.Title,
		"price": product.Price,
		"stock": product.Stock,
	}
	if err := s.events.PublishProductEvent(action, payload); err != nil {
		log.Printf("Failed to publish %s event for product %d: %v", action, product.ID, err)
	}
}
