package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"catalog/internal/handlers"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp builds a Fiber app over a fresh in-memory SQLite database. Each
// test gets its own named database so tests cannot see each other's rows.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	productRepo := repositories.NewGORMProductRepository(db)
	productService := services.NewProductService(productRepo, nil)
	productHandler := handlers.NewProductHandler(productService)

	app := fiber.New()
	api := app.Group("/api")
	productHandler.RegisterRoutes(api)
	return app
}

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	defer resp.Body.Close()
	var decoded map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

func createProduct(t *testing.T, app *fiber.App, payload map[string]interface{}) map[string]interface{} {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/products/", payload)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody(t, resp)
}

func TestCreateAndGetProductRoundTrip(t *testing.T) {
	app := setupApp(t)

	created := createProduct(t, app, map[string]interface{}{
		"title": "Widget",
		"price": 9.99,
	})
	assert.Equal(t, "Widget", created["title"])
	assert.Equal(t, 9.99, created["price"])
	assert.Equal(t, float64(0), created["stock"])
	assert.Nil(t, created["description"])
	assert.Nil(t, created["image_url"])
	assert.Nil(t, created["category"])
	assert.NotNil(t, created["id"])
	assert.NotNil(t, created["created_at"])
	assert.NotNil(t, created["updated_at"])

	id := created["id"].(float64)
	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/products/%d", int(id)), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeBody(t, resp)
	assert.Equal(t, created["title"], fetched["title"])
	assert.Equal(t, created["price"], fetched["price"])
}

func TestGetProductIsIdempotent(t *testing.T) {
	app := setupApp(t)

	created := createProduct(t, app, map[string]interface{}{
		"title": "Widget",
		"price": 9.99,
	})
	path := fmt.Sprintf("/api/products/%d", int(created["id"].(float64)))

	first := doJSON(t, app, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, first.StatusCode)
	firstBody, err := io.ReadAll(first.Body)
	assert.NoError(t, err)
	first.Body.Close()

	second := doJSON(t, app, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, second.StatusCode)
	secondBody, err := io.ReadAll(second.Body)
	assert.NoError(t, err)
	second.Body.Close()

	assert.Equal(t, firstBody, secondBody)
}

func TestGetProductNotFound(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/products/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", decodeBody(t, resp)["message"])
}

func TestCreateProductValidation(t *testing.T) {
	app := setupApp(t)

	// Empty body: both keys missing.
	resp := doJSON(t, app, http.MethodPost, "/api/products/", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing title or price", decodeBody(t, resp)["message"])

	// Malformed body degrades to an empty object.
	req := httptest.NewRequest(http.MethodPost, "/api/products/", bytes.NewReader([]byte("not-json")))
	req.Header.Set("Content-Type", "application/json")
	malformed, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, malformed.StatusCode)
	assert.Equal(t, "Missing title or price", decodeBody(t, malformed)["message"])

	// Price key absent.
	resp = doJSON(t, app, http.MethodPost, "/api/products/", map[string]interface{}{"title": "Widget"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing title or price", decodeBody(t, resp)["message"])

	// No record was created by any of the rejected requests.
	list := doJSON(t, app, http.MethodGet, "/api/products/", nil)
	assert.Equal(t, http.StatusOK, list.StatusCode)
	assert.Empty(t, decodeBody(t, list)["items"])

	// Presence, not truthiness: price 0 is valid.
	created := createProduct(t, app, map[string]interface{}{"title": "Freebie", "price": 0})
	assert.Equal(t, float64(0), created["price"])
}

func TestCreateProductCoercionErrors(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/products/", map[string]interface{}{
		"title": "Widget",
		"price": 9.99,
		"stock": "plenty",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Failed to create product", body["message"])
	assert.NotEmpty(t, body["error"])

	resp = doJSON(t, app, http.MethodPost, "/api/products/", map[string]interface{}{
		"title": "Widget",
		"price": "cheap",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Failed to create product", decodeBody(t, resp)["message"])

	// Title present but blank after trimming.
	resp = doJSON(t, app, http.MethodPost, "/api/products/", map[string]interface{}{
		"title": "   ",
		"price": 1.00,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Failed to create product", decodeBody(t, resp)["message"])
}

func TestCreateProductTrimsTitle(t *testing.T) {
	app := setupApp(t)

	created := createProduct(t, app, map[string]interface{}{
		"title":       "  Widget  ",
		"price":       1.50,
		"description": "pocket sized",
		"category":    "tools",
		"stock":       7,
	})
	assert.Equal(t, "Widget", created["title"])
	assert.Equal(t, "pocket sized", created["description"])
	assert.Equal(t, "tools", created["category"])
	assert.Equal(t, float64(7), created["stock"])
}

func TestUpdateProductPartialFields(t *testing.T) {
	app := setupApp(t)

	created := createProduct(t, app, map[string]interface{}{
		"title": "Widget",
		"price": 9.99,
		"stock": 3,
	})
	path := fmt.Sprintf("/api/products/%d", int(created["id"].(float64)))
	baseline := decodeBody(t, doJSON(t, app, http.MethodGet, path, nil))

	// RFC3339 timestamps have second precision, so make sure the refreshed
	// updated_at lands in a later second.
	time.Sleep(1100 * time.Millisecond)

	resp := doJSON(t, app, http.MethodPut, path, map[string]interface{}{"stock": 5})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody(t, resp)
	assert.Equal(t, float64(5), updated["stock"])
	assert.Equal(t, "Widget", updated["title"])
	assert.Equal(t, 9.99, updated["price"])
	assert.Equal(t, baseline["created_at"], updated["created_at"])
	assert.NotEqual(t, baseline["updated_at"], updated["updated_at"])

	fetched := decodeBody(t, doJSON(t, app, http.MethodGet, path, nil))
	assert.Equal(t, float64(5), fetched["stock"])
	assert.Equal(t, "Widget", fetched["title"])
}

func TestUpdateProductNotFound(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPut, "/api/products/999", map[string]interface{}{"stock": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", decodeBody(t, resp)["message"])
}

func TestDeleteProductThenGet(t *testing.T) {
	app := setupApp(t)

	created := createProduct(t, app, map[string]interface{}{
		"title": "Widget",
		"price": 9.99,
	})
	path := fmt.Sprintf("/api/products/%d", int(created["id"].(float64)))

	resp := doJSON(t, app, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Deleted", decodeBody(t, resp)["message"])

	resp = doJSON(t, app, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListProductsPagination(t *testing.T) {
	app := setupApp(t)

	for i := 1; i <= 25; i++ {
		createProduct(t, app, map[string]interface{}{
			"title": fmt.Sprintf("Product %d", i),
			"price": float64(i),
		})
	}

	resp := doJSON(t, app, http.MethodGet, "/api/products/?page=2&limit=20", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["page"])
	assert.Equal(t, float64(20), body["limit"])

	items := body["items"].([]interface{})
	assert.Len(t, items, 5)
	// 25 rows, newest first: the second page of 20 holds ids 5 down to 1.
	for i, item := range items {
		product := item.(map[string]interface{})
		assert.Equal(t, float64(5-i), product["id"])
	}
}

func TestListProductsSearch(t *testing.T) {
	app := setupApp(t)

	createProduct(t, app, map[string]interface{}{"title": "Widget Pro", "price": 1.0})
	createProduct(t, app, map[string]interface{}{"title": "Super WIDGET", "price": 2.0})
	createProduct(t, app, map[string]interface{}{
		"title":       "Gadget",
		"price":       3.0,
		"description": "ships with a widget case",
	})
	createProduct(t, app, map[string]interface{}{"title": "Unrelated", "price": 4.0})

	resp := doJSON(t, app, http.MethodGet, "/api/products/?q=widget", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	items := decodeBody(t, resp)["items"].([]interface{})
	assert.Len(t, items, 3)
	for _, item := range items {
		product := item.(map[string]interface{})
		assert.NotEqual(t, "Unrelated", product["title"])
	}

	// Same matches regardless of query casing.
	resp = doJSON(t, app, http.MethodGet, "/api/products/?q=WIDGET", nil)
	items = decodeBody(t, resp)["items"].([]interface{})
	assert.Len(t, items, 3)

	resp = doJSON(t, app, http.MethodGet, "/api/products/?q=nothing-matches", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody(t, resp)["items"])
}
