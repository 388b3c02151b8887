package payment

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Arafat-alim/shoporbit-backend/internal/order"
	"github.com/Arafat-alim/shoporbit-backend/internal/product"
)

func newWebhookApp(t *testing.T) (*fiber.App, *order.InMemoryRepository, *Service) {
	t.Helper()
	productRepo := product.NewInMemoryRepository([]product.Product{
		{ID: 1, Name: "Desk", Price: 250.50, Stock: 10},
	})
	orders := order.NewInMemoryRepository(productRepo)
	svc := NewService(orders, &fakeGateway{}, testKeySecret, testWebhookSecret, nil, nil)

	app := fiber.New()
	NewHandler(svc).RegisterPublicRoutes(app)
	return app, orders, svc
}

func TestWebhookRoute_ValidDelivery(t *testing.T) {
	app, orders, svc := newWebhookApp(t)

	now := time.Now().UTC()
	ord := order.Order{
		UserID:        7,
		Items:         []order.Item{{ProductID: 1, Name: "Desk", Price: 250.50, Quantity: 1}},
		PaymentMethod: "razorpay",
		CreatedAt:     now,
	}
	ord.ComputePrices()
	ord.AppendStatus(order.StatusPending, "order placed", now)
	created, err := orders.Create(ord)
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	gw, err := svc.CreateGatewayOrder(7, created.ID)
	if err != nil {
		t.Fatalf("seed gateway order: %v", err)
	}

	body := fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_7","order_id":"%s"}}}}`, gw.ID)
	req := httptest.NewRequest("POST", "/api/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Razorpay-Signature", sign(body, testWebhookSecret))

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("webhook request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for valid delivery, got %d", res.StatusCode)
	}

	stored, _ := orders.GetByID(created.ID)
	if !stored.IsPaid {
		t.Fatalf("expected order marked paid by webhook")
	}
}

func TestWebhookRoute_BadSignature(t *testing.T) {
	app, _, _ := newWebhookApp(t)

	body := `{"event":"payment.captured"}`
	req := httptest.NewRequest("POST", "/api/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Razorpay-Signature", "forged")

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("webhook request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for forged signature, got %d", res.StatusCode)
	}
}

func TestWebhookRoute_MissingSignatureHeader(t *testing.T) {
	app, _, _ := newWebhookApp(t)

	req := httptest.NewRequest("POST", "/api/v1/payments/webhook", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("webhook request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without signature header, got %d", res.StatusCode)
	}
}
