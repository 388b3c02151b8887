package payment

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Arafat-alim/shoporbit-backend/internal/apperr"
	"github.com/Arafat-alim/shoporbit-backend/internal/order"
)

// OrderStore is the slice of the order repository the payment flow needs.
type OrderStore interface {
	GetByID(id int) (order.Order, error)
	GetByGatewayOrderID(gatewayOrderID string) (order.Order, error)
	Update(ord order.Order) (order.Order, error)
}

// Notifier receives a callback once an order is confirmed as paid.
type Notifier interface {
	PaymentCaptured(ord order.Order)
}

type nopNotifier struct{}

func (nopNotifier) PaymentCaptured(order.Order) {}

type Service struct {
	orders        OrderStore
	gateway       Gateway
	keySecret     string
	webhookSecret string
	notifier      Notifier
	logger        *zap.Logger
}

func NewService(orders OrderStore, gateway Gateway, keySecret, webhookSecret string, notifier Notifier, logger *zap.Logger) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:        orders,
		gateway:       gateway,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		notifier:      notifier,
		logger:        logger,
	}
}

// CreateGatewayOrder mints a gateway-side order for the given shop order
// and records its id on the order. The caller must own the order.
func (s *Service) CreateGatewayOrder(callerID, orderID int) (GatewayOrder, error) {
	ord, err := s.orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return GatewayOrder{}, apperr.NotFound("order not found")
		}
		return GatewayOrder{}, err
	}
	if ord.UserID != callerID {
		return GatewayOrder{}, apperr.Forbidden("order belongs to another user")
	}
	if ord.IsPaid {
		return GatewayOrder{}, apperr.Conflict("order is already paid")
	}

	gw, err := s.gateway.CreateOrder(ord.AmountMinor(), "INR", strconv.Itoa(ord.ID))
	if err != nil {
		s.logger.Error("gateway order create failed", zap.Int("orderId", ord.ID), zap.Error(err))
		return GatewayOrder{}, apperr.Internal("payment gateway unavailable")
	}

	ord.Payment.GatewayOrderID = gw.ID
	ord.Payment.Status = order.PaymentStatusCreated
	if _, err := s.orders.Update(ord); err != nil {
		return GatewayOrder{}, err
	}
	return gw, nil
}

// VerifyPayment handles the browser redirect after checkout. The signature
// covers "<gatewayOrderID>|<paymentID>"; a valid one marks the order paid.
func (s *Service) VerifyPayment(callerID, orderID int, gatewayOrderID, paymentID, signature string) (order.Order, error) {
	ord, err := s.orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return order.Order{}, apperr.NotFound("order not found")
		}
		return order.Order{}, err
	}
	if ord.UserID != callerID {
		return order.Order{}, apperr.Forbidden("order belongs to another user")
	}
	if ord.Payment.GatewayOrderID == "" || ord.Payment.GatewayOrderID != gatewayOrderID {
		return order.Order{}, apperr.BadRequest("unknown gateway order id")
	}
	if !VerifySignature(gatewayOrderID, paymentID, signature, s.keySecret) {
		s.logger.Warn("payment signature mismatch", zap.Int("orderId", ord.ID), zap.String("paymentId", paymentID))
		return order.Order{}, apperr.InvalidSignature("payment signature verification failed")
	}
	return s.markPaid(ord, paymentID, signature)
}

// webhookEvent is the subset of the gateway webhook envelope we read.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook processes a gateway webhook delivery. The only error it
// returns is a signature failure; unknown events and stale payloads are
// logged and swallowed so the gateway does not retry them forever.
func (s *Service) HandleWebhook(body []byte, signature string) error {
	if !VerifyWebhookSignature(body, signature, s.webhookSecret) {
		s.logger.Warn("webhook signature mismatch")
		return apperr.InvalidSignature("webhook signature verification failed")
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.logger.Warn("webhook body unreadable", zap.Error(err))
		return nil
	}

	entity := event.Payload.Payment.Entity
	switch event.Event {
	case "payment.captured":
		s.capturedWebhook(entity.OrderID, entity.ID)
	case "payment.failed":
		s.failedWebhook(entity.OrderID, entity.ID, entity.ErrorDescription)
	default:
		s.logger.Info("webhook event ignored", zap.String("event", event.Event))
	}
	return nil
}

func (s *Service) capturedWebhook(gatewayOrderID, paymentID string) {
	ord, err := s.orders.GetByGatewayOrderID(gatewayOrderID)
	if err != nil {
		s.logger.Warn("webhook for unknown gateway order", zap.String("gatewayOrderId", gatewayOrderID))
		return
	}
	if _, err := s.markPaid(ord, paymentID, ""); err != nil {
		s.logger.Error("webhook capture failed", zap.Int("orderId", ord.ID), zap.Error(err))
	}
}

func (s *Service) failedWebhook(gatewayOrderID, paymentID, description string) {
	ord, err := s.orders.GetByGatewayOrderID(gatewayOrderID)
	if err != nil {
		s.logger.Warn("webhook for unknown gateway order", zap.String("gatewayOrderId", gatewayOrderID))
		return
	}
	if ord.IsPaid {
		// A capture already won; a late failure for the same order is stale.
		return
	}

	note := "payment failed"
	if description != "" {
		note = "payment failed: " + description
	}
	ord.Payment.PaymentID = paymentID
	ord.Payment.Status = order.PaymentStatusFailed
	ord.AppendStatus(order.StatusPending, note, time.Now())
	if _, err := s.orders.Update(ord); err != nil {
		s.logger.Error("webhook failure update failed", zap.Int("orderId", ord.ID), zap.Error(err))
	}
}

// markPaid is the single transition to the paid state. It is idempotent
// per payment id: replaying a capture for an already-paid order is a no-op.
func (s *Service) markPaid(ord order.Order, paymentID, signature string) (order.Order, error) {
	if ord.IsPaid {
		if ord.Payment.PaymentID != paymentID {
			s.logger.Warn("capture for already-paid order with different payment id",
				zap.Int("orderId", ord.ID), zap.String("paymentId", paymentID))
		}
		return ord, nil
	}

	now := time.Now()
	ord.IsPaid = true
	ord.PaidAt = &now
	ord.Payment.PaymentID = paymentID
	if signature != "" {
		ord.Payment.Signature = signature
	}
	ord.Payment.Status = order.PaymentStatusCaptured
	if order.CanTransition(ord.Status, order.StatusConfirmed) {
		ord.AppendStatus(order.StatusConfirmed, "payment captured", now)
	}

	updated, err := s.orders.Update(ord)
	if err != nil {
		return order.Order{}, err
	}
	s.logger.Info("payment captured", zap.Int("orderId", updated.ID), zap.String("paymentId", paymentID))
	s.notifier.PaymentCaptured(updated)
	return updated, nil
}

// Refund refunds a paid order through the gateway. A zero amount refunds
// the full order total.
func (s *Service) Refund(orderID int, amount float64, reason string) (order.Order, error) {
	ord, err := s.orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return order.Order{}, apperr.NotFound("order not found")
		}
		return order.Order{}, err
	}
	if !ord.IsPaid || ord.Payment.PaymentID == "" {
		return order.Order{}, apperr.Conflict("order has no captured payment to refund")
	}
	if ord.Payment.Status == order.PaymentStatusRefunded {
		return order.Order{}, apperr.Conflict("order is already refunded")
	}

	amountMinor := ord.AmountMinor()
	if amount > 0 {
		amountMinor = int64(math.Round(amount * 100))
	}

	refundID, err := s.gateway.Refund(ord.Payment.PaymentID, amountMinor)
	if err != nil {
		s.logger.Error("gateway refund failed", zap.Int("orderId", ord.ID), zap.Error(err))
		return order.Order{}, apperr.Internal("payment gateway unavailable")
	}

	note := "refunded " + refundID
	if reason != "" {
		note += ": " + reason
	}
	ord.Payment.Status = order.PaymentStatusRefunded
	ord.Payment.RefundID = refundID
	// the cancelled entry is appended from any status, even shipped or
	// delivered: the transition table governs fulfilment, not money
	// already returned by the gateway
	ord.AppendStatus(order.StatusCancelled, note, time.Now())

	updated, err := s.orders.Update(ord)
	if err != nil {
		return order.Order{}, err
	}
	s.logger.Info("payment refunded", zap.Int("orderId", updated.ID), zap.String("refundId", refundID))
	return updated, nil
}
