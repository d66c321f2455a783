package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// editableFields are the product columns a PUT request may overwrite.
var editableFields = []string{"title", "description", "price", "image_url", "category", "stock"}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleListProducts retrieves one page of products. An empty result is not
// an error.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	query := c.Query("q")
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	products, err := h.service.ListProducts(query, page, limit)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}

	items := make([]models.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, models.NewProductResponse(&products[i]))
	}
	return c.JSON(fiber.Map{
		"items": items,
		"page":  page,
		"limit": limit,
	})
}

// HandleGetProduct retrieves a single product by its id.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return productNotFound(c)
	}

	product, err := h.service.GetProductByID(uint(id))
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return productNotFound(c)
		}
		log.Printf("Error getting product %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	return c.JSON(models.NewProductResponse(product))
}

// createProductRequest is the typed form of a create payload after explicit
// coercion of the raw body.
type createProductRequest struct {
	Title       string `validate:"required"`
	Description *string
	Price       float64
	ImageURL    *string
	Category    *string
	Stock       int
}

// HandleCreateProduct inserts a new product. Presence of the title and price
// keys is required; their truthiness is not checked, so price 0 is valid.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	payload := decodePayload(c)

	_, hasTitle := payload["title"]
	_, hasPrice := payload["price"]
	if !hasTitle || !hasPrice {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Missing title or price",
		})
	}

	req, err := buildCreateRequest(payload)
	if err == nil {
		err = h.validate.Struct(req)
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Failed to create product",
			"error":   err.Error(),
		})
	}

	product := &models.Product{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Stock:       req.Stock,
	}
	if err := h.service.CreateProduct(product); err != nil {
		log.Printf("Error creating product: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Failed to create product",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewProductResponse(product))
}

// HandleUpdateProduct overwrites exactly the editable fields present in the
// request body. Values pass through verbatim; the database enforces types.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return productNotFound(c)
	}

	payload := decodePayload(c)
	fields := make(map[string]interface{})
	for _, key := range editableFields {
		if value, ok := payload[key]; ok {
			fields[key] = value
		}
	}

	product, err := h.service.UpdateProduct(uint(id), fields)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return productNotFound(c)
		}
		log.Printf("Error updating product %d: %v", id, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Failed to update product",
			"error":   err.Error(),
		})
	}
	return c.JSON(models.NewProductResponse(product))
}

// HandleDeleteProduct removes a product by its id. Hard delete.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return productNotFound(c)
	}

	if err := h.service.DeleteProduct(uint(id)); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return productNotFound(c)
		}
		log.Printf("Error deleting product %d: %v", id, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Failed to delete product",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Deleted",
	})
}

func productNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": "Product not found",
	})
}

// decodePayload reads the request body as a JSON object. Malformed or
// non-JSON bodies degrade to an empty object so the key-presence checks in
// the handlers drive the response.
func decodePayload(c *fiber.Ctx) map[string]interface{} {
	payload := make(map[string]interface{})
	if err := json.Unmarshal(c.Body(), &payload); err != nil || payload == nil {
		return map[string]interface{}{}
	}
	return payload
}

// buildCreateRequest coerces the raw payload into typed fields. Unlike the
// update path, coercion failures here are reported as structured errors
// instead of leaking from the persistence layer.
func buildCreateRequest(payload map[string]interface{}) (*createProductRequest, error) {
	title, ok := payload["title"].(string)
	if !ok {
		return nil, fmt.Errorf("title must be a string")
	}

	price, ok := payload["price"].(float64)
	if !ok {
		return nil, fmt.Errorf("price must be a number")
	}

	stock := 0
	if value, ok := payload["stock"]; ok && value != nil {
		f, ok := value.(float64)
		if !ok {
			return nil, fmt.Errorf("stock must be an integer")
		}
		stock = int(f)
	}

	req := &createProductRequest{
		Title: strings.TrimSpace(title),
		Price: price,
		Stock: stock,
	}
	var err error
	if req.Description, err = optionalString(payload, "description"); err != nil {
		return nil, err
	}
	if req.ImageURL, err = optionalString(payload, "image_url"); err != nil {
		return nil, err
	}
	if req.Category, err = optionalString(payload, "category"); err != nil {
		return nil, err
	}
	return req, nil
}

func optionalString(payload map[string]interface{}, key string) (*string, error) {
	value, ok := payload[key]
	if !ok || value == nil {
		return nil, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%s must be a string", key)
	}
	return &s, nil
}
