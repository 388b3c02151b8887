package payment

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Arafat-alim/shoporbit-backend/internal/apperr"
	"github.com/Arafat-alim/shoporbit-backend/internal/response"
	"github.com/Arafat-alim/shoporbit-backend/internal/user"
	"github.com/Arafat-alim/shoporbit-backend/internal/validate"
)

const webhookSignatureHeader = "X-Razorpay-Signature"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the webhook endpoint. It must be reachable
// without a JWT since the gateway calls it server to server; the body
// signature is its authentication.
func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/payments/webhook", h.webhook)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/payments/create-razorpay-order", h.createGatewayOrder)
	app.Post("/api/v1/payments/verify-payment", h.verifyPayment)
	app.Post("/api/v1/payments/refund", user.RequireAdmin, h.refund)
}

type createGatewayOrderRequest struct {
	OrderID int `json:"orderId" validate:"required,gt=0"`
}

type verifyPaymentRequest struct {
	OrderID           int    `json:"orderId" validate:"required,gt=0"`
	RazorpayOrderID   string `json:"razorpayOrderId" validate:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	RazorpaySignature string `json:"razorpaySignature" validate:"required"`
}

type refundRequest struct {
	OrderID int     `json:"orderId" validate:"required,gt=0"`
	Amount  float64 `json:"amount" validate:"gte=0"`
	Reason  string  `json:"reason"`
}

func (h *Handler) createGatewayOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	payload := new(createGatewayOrderRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	gw, err := h.service.CreateGatewayOrder(userID, payload.OrderID)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, gw)
}

func (h *Handler) verifyPayment(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	payload := new(verifyPaymentRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	ord, err := h.service.VerifyPayment(userID, payload.OrderID,
		payload.RazorpayOrderID, payload.RazorpayPaymentID, payload.RazorpaySignature)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, ord)
}

func (h *Handler) webhook(c *fiber.Ctx) error {
	// Verify against the raw body bytes; re-serializing a parsed payload
	// would break the signature.
	body := c.Body()
	signature := c.Get(webhookSignatureHeader)

	if err := h.service.HandleWebhook(body, signature); err != nil {
		return response.Err(c, err)
	}
	return response.OKMessage(c, "webhook processed", nil)
}

func (h *Handler) refund(c *fiber.Ctx) error {
	payload := new(refundRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	ord, err := h.service.Refund(payload.OrderID, payload.Amount, payload.Reason)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, ord)
}
