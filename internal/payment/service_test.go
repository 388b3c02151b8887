package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Arafat-alim/shoporbit-backend/internal/order"
	"github.com/Arafat-alim/shoporbit-backend/internal/product"
)

const (
	testKeySecret     = "key-secret"
	testWebhookSecret = "webhook-secret"
)

// fakeGateway avoids network calls in tests.
type fakeGateway struct {
	orders  int
	refunds int
	fail    bool
}

func (g *fakeGateway) CreateOrder(amountMinor int64, currency, receipt string) (GatewayOrder, error) {
	if g.fail {
		return GatewayOrder{}, errors.New("gateway down")
	}
	g.orders++
	return GatewayOrder{ID: fmt.Sprintf("order_gw%d", g.orders), Amount: amountMinor, Currency: currency}, nil
}

func (g *fakeGateway) Refund(paymentID string, amountMinor int64) (string, error) {
	if g.fail {
		return "", errors.New("gateway down")
	}
	g.refunds++
	return fmt.Sprintf("rfnd_%d", g.refunds), nil
}

func sign(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestStack(t *testing.T) (*Service, *order.InMemoryRepository, *fakeGateway) {
	t.Helper()
	productRepo := product.NewInMemoryRepository([]product.Product{
		{ID: 1, Name: "Desk", Price: 250.50, Stock: 10},
	})
	orders := order.NewInMemoryRepository(productRepo)
	gw := &fakeGateway{}
	svc := NewService(orders, gw, testKeySecret, testWebhookSecret, nil, nil)
	return svc, orders, gw
}

func seedOrder(t *testing.T, orders *order.InMemoryRepository, userID int) order.Order {
	t.Helper()
	now := time.Now().UTC()
	ord := order.Order{
		UserID:        userID,
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
	return created
}

func TestAmountMinor_RoundsToPaise(t *testing.T) {
	ord := order.Order{TotalPrice: 250.50}
	if got := ord.AmountMinor(); got != 25050 {
		t.Fatalf("expected 25050 paise, got %d", got)
	}
}

func TestCreateGatewayOrder_StoresGatewayID(t *testing.T) {
	svc, orders, _ := newTestStack(t)
	ord := seedOrder(t, orders, 7)

	gw, err := svc.CreateGatewayOrder(7, ord.ID)
	if err != nil {
		t.Fatalf("expected gateway order, got %v", err)
	}
	if gw.ID == "" {
		t.Fatalf("expected a gateway order id")
	}
	if gw.Amount != ord.AmountMinor() {
		t.Fatalf("expected amount %d, got %d", ord.AmountMinor(), gw.Amount)
	}

	stored, _ := orders.GetByID(ord.ID)
	if stored.Payment.GatewayOrderID != gw.ID {
		t.Fatalf("expected gateway id stored on order, got %q", stored.Payment.GatewayOrderID)
	}
}

func TestCreateGatewayOrder_OwnershipEnforced(t *testing.T) {
	svc, orders, _ := newTestStack(t)
	ord := seedOrder(t, orders, 7)

	if _, err := svc.CreateGatewayOrder(8, ord.ID); err == nil {
		t.Fatalf("expected forbidden for another user")
	}
}

func TestVerifyPayment_ValidSignatureMarksPaid(t *testing.T) {
	svc, orders, _ := newTestStack(t)
	ord := seedOrder(t, orders, 7)
	gw, _ := svc.CreateGatewayOrder(7, ord.ID)

	sig := sign(gw.ID+"|pay_1", testKeySecret)
	paid, err := svc.VerifyPayment(7, ord.ID, gw.ID, "pay_1", sig)
	if err != nil {
		t.Fatalf("expected verification to succeed, got %v", err)
	}
	if !paid.IsPaid || paid.PaidAt == nil {
		t.Fatalf("expected order marked paid, got %+v", paid)
	}
	if paid.Status != order.StatusConfirmed {
		t.Fatalf("expected confirmed status, got %s", paid.Status)
	}
	if paid.Payment.PaymentID != "pay_1" {
		t.Fatalf("expected payment id recorded, got %q", paid.Payment.PaymentID)
	}
}

func TestVerifyPayment_BadSignatureLeavesOrderUnpaid(t *testing.T) {
	svc, orders, _ := newTestStack(t)
	ord := seedOrder(t, orders, 7)
	gw, _ := svc.CreateGatewayOrder(7, ord.ID)

	_, err := svc.VerifyPayment(7, ord.ID, gw.ID, "pay_1", "deadbeef")
	if err == nil {
		t.Fatalf("expected signature error")
	}

	stored, _ := orders.GetByID(ord.ID)
	if stored.IsPaid {
		t.Fatalf("expected order to stay unpaid after bad signature")
	}
	if stored.Status != order.StatusPending {
		t.Fatalf("expected order to stay pending, got %s", stored.Status)
	}
}

func TestWebhook_CapturedIsIdempotent(t *testing.T) {
	svc, orders, _ := newTestStack(t)
	ord := seedOrder(t, orders, 7)
	gw, _ := svc.CreateGatewayOrder(7, ord.ID)

	body := []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":"%s"}}}}`, gw.ID))
	sig := sign(string(body), testWebhookSecret)

	for i := 0; i < 3; i++ {
		if err := svc.HandleWebhook(body, sig); err != nil {
			t.Fatalf("delivery %d failed: %v", i, err)
		}
	}

	stored, _ := orders.GetByID(ord.ID)
	if !stored.IsPaid || stored.Payment.PaymentID != "pay_9" {
		t.Fatalf("expected paid order with payment id pay_9, got %+v", stored.Payment)
	}
	// one confirmed entry, no matter how many deliveries
	confirmed := 0
	for _, entry := range stored.History {
		if entry.Status == order.StatusConfirmed {
			confirmed++
		}
	}
	if confirmed != 1 {
		t.Fatalf("expected exactly one confirmed history entry, got %d", confirmed)
	}
}

func TestWebhook_BadSignatureRejected(t *testing.T) {
	svc, _, _ := newTestStack(t)

	body := []byte(`{"event":"payment.captured"}`)
	if err := svc.HandleWebhook(body, "bogus"); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestWebhook_FailedRecordsNote(t *testing.T) {
	svc, orders, _ := newTestStack(t)
	ord := seedOrder(t, orders, 7)
	gw, _ := svc.CreateGatewayOrder(7, ord.ID)

	body := []byte(fmt.Sprintf(
		`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2","order_id":"%s","error_description":"card declined"}}}}`, gw.ID))
	sig := sign(string(body), testWebhookSecret)

	if err := svc.HandleWebhook(body, sig); err != nil {
		t.Fatalf("expected failed event to be accepted, got %v", err)
	}

	stored, _ := orders.GetByID(ord.ID)
	if stored.IsPaid {
		t.Fatalf("expected unpaid order after failure")
	}
	if stored.Payment.Status != order.PaymentStatusFailed {
		t.Fatalf("expected failed payment status, got %s", stored.Payment.Status)
	}
	last := stored.History[len(stored.History)-1]
	if last.Status != order.StatusPending || last.Note != "payment failed: card declined" {
		t.Fatalf("expected pending entry with failure note, got %+v", last)
	}
}

func TestWebhook_UnknownEventIgnored(t *testing.T) {
	svc, _, _ := newTestStack(t)

	body := []byte(`{"event":"invoice.paid"}`)
	sig := sign(string(body), testWebhookSecret)
	if err := svc.HandleWebhook(body, sig); err != nil {
		t.Fatalf("expected unknown event to be swallowed, got %v", err)
	}
}

func TestRefund_FullAmount(t *testing.T) {
	svc, orders, gw := newTestStack(t)
	ord := seedOrder(t, orders, 7)
	created, _ := svc.CreateGatewayOrder(7, ord.ID)
	sig := sign(created.ID+"|pay_1", testKeySecret)
	if _, err := svc.VerifyPayment(7, ord.ID, created.ID, "pay_1", sig); err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	refunded, err := svc.Refund(ord.ID, 0, "customer request")
	if err != nil {
		t.Fatalf("expected refund to succeed, got %v", err)
	}
	if gw.refunds != 1 {
		t.Fatalf("expected one gateway refund call, got %d", gw.refunds)
	}
	if refunded.Payment.Status != order.PaymentStatusRefunded || refunded.Payment.RefundID == "" {
		t.Fatalf("expected refunded payment info, got %+v", refunded.Payment)
	}
	last := refunded.History[len(refunded.History)-1]
	if last.Status != order.StatusCancelled {
		t.Fatalf("expected cancelled history entry after refund, got %+v", last)
	}
}

func TestRefund_RequiresCapturedPayment(t *testing.T) {
	svc, orders, _ := newTestStack(t)
	ord := seedOrder(t, orders, 7)

	if _, err := svc.Refund(ord.ID, 0, ""); err == nil {
		t.Fatalf("expected conflict refunding an unpaid order")
	}
}
