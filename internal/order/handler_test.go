package order

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/Arafat-alim/shoporbit-backend/internal/product"
)

// helper that injects a jwt.Token into locals from headers, so tests do
// not need the full JWT middleware.
func makeAppWithOrderHandler(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				role := c.Get("X-Role")
				if role == "" {
					role = "customer"
				}
				claims := jwt.MapClaims{"user_id": id, "role": role}
				c.Locals("user", &jwt.Token{Claims: claims})
			}
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func newOrderTestApp(products []product.Product) *fiber.App {
	productRepo := product.NewInMemoryRepository(products)
	repo := NewInMemoryRepository(productRepo)
	svc := NewService(repo, productRepo, nil, nil)
	return makeAppWithOrderHandler(NewHandler(svc))
}

func TestOrderRoutes_AuthRequired(t *testing.T) {
	app := newOrderTestApp(nil)

	req := httptest.NewRequest("GET", "/api/v1/orders", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthenticated list, got %d", res.StatusCode)
	}
}

func TestCreateOrder_EndToEnd(t *testing.T) {
	app := newOrderTestApp([]product.Product{
		{ID: 1, Name: "Desk", Price: 300.00, Stock: 4},
	})

	body := `{
		"items": [{"product": 1, "quantity": 2}],
		"shippingAddress": {"fullName": "Jane Roe", "line1": "1 Main St", "city": "Pune", "postalCode": "411001", "country": "IN"},
		"paymentMethod": "razorpay"
	}`
	req := httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "5")

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusCreated {
		b, _ := io.ReadAll(res.Body)
		t.Fatalf("expected 201, got %d: %s", res.StatusCode, b)
	}

	var envelope struct {
		Success bool  `json:"success"`
		Data    Order `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope")
	}
	if envelope.Data.TotalPrice != 758.00 {
		t.Fatalf("expected total 758.00 (600 items + 50 shipping + 108 tax), got %v", envelope.Data.TotalPrice)
	}
}

func TestCreateOrder_ValidationFailure(t *testing.T) {
	app := newOrderTestApp(nil)

	req := httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(`{"items": []}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "5")

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for empty items, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), `"success":false`) {
		t.Fatalf("expected failure envelope, got %s", b)
	}
}

func TestUpdateStatus_AdminOnly(t *testing.T) {
	app := newOrderTestApp([]product.Product{
		{ID: 1, Name: "Desk", Price: 300.00, Stock: 4},
	})

	// place an order as a customer first
	body := `{
		"items": [{"product": 1, "quantity": 1}],
		"shippingAddress": {"fullName": "Jane Roe", "line1": "1 Main St", "city": "Pune", "postalCode": "411001", "country": "IN"},
		"paymentMethod": "cod"
	}`
	req := httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "5")
	if res, _ := app.Test(req); res.StatusCode != fiber.StatusCreated {
		t.Fatalf("order seed failed with status %d", res.StatusCode)
	}

	statusBody := `{"status": "confirmed"}`

	req2 := httptest.NewRequest("PUT", "/api/v1/orders/1/status", strings.NewReader(statusBody))
	req2.Header.Set("Content-Type", "application/json")
	req2.Header.Set("X-User-ID", "5")
	res2, _ := app.Test(req2)
	if res2.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for customer status update, got %d", res2.StatusCode)
	}

	req3 := httptest.NewRequest("PUT", "/api/v1/orders/1/status", strings.NewReader(statusBody))
	req3.Header.Set("Content-Type", "application/json")
	req3.Header.Set("X-User-ID", "99")
	req3.Header.Set("X-Role", "admin")
	res3, _ := app.Test(req3)
	if res3.StatusCode != fiber.StatusOK {
		b, _ := io.ReadAll(res3.Body)
		t.Fatalf("expected 200 for admin status update, got %d: %s", res3.StatusCode, b)
	}
}
