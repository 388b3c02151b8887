package order

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Arafat-alim/shoporbit-backend/internal/apperr"
	"github.com/Arafat-alim/shoporbit-backend/internal/response"
	"github.com/Arafat-alim/shoporbit-backend/internal/user"
	"github.com/Arafat-alim/shoporbit-backend/internal/validate"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/orders", h.create)
	app.Get("/api/v1/orders", h.listMine)
	app.Get("/api/v1/orders/:id<[0-9]+>", h.get)
	app.Put("/api/v1/orders/:id<[0-9]+>/cancel", h.cancel)
	app.Put("/api/v1/orders/:id<[0-9]+>/status", user.RequireAdmin, h.updateStatus)
	app.Get("/api/v1/admin/orders", user.RequireAdmin, h.listAll)
}

type orderItemRequest struct {
	ProductID int `json:"product" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"required,gt=0"`
}

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress    `json:"shippingAddress" validate:"required"`
	PaymentMethod   string             `json:"paymentMethod" validate:"required,oneof=razorpay cod"`
	Notes           string             `json:"notes"`
}

type cancelOrderRequest struct {
	Note string `json:"note"`
}

type updateStatusRequest struct {
	Status         string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
	Note           string `json:"note"`
	TrackingNumber string `json:"trackingNumber"`
}

func (h *Handler) create(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	payload := new(createOrderRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	items := make([]ItemInput, 0, len(payload.Items))
	for _, it := range payload.Items {
		items = append(items, ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	created, err := h.service.Create(userID, CreateInput{
		Items:         items,
		Shipping:      payload.ShippingAddress,
		PaymentMethod: payload.PaymentMethod,
		Notes:         payload.Notes,
	})
	if err != nil {
		return response.Err(c, err)
	}
	return response.Created(c, created)
}

func (h *Handler) listMine(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	orders, err := h.service.ListMine(userID)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, orders)
}

func (h *Handler) listAll(c *fiber.Ctx) error {
	orders, err := h.service.ListAll()
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, orders)
}

func (h *Handler) get(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	orderID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Err(c, apperr.BadRequest("invalid order id"))
	}

	ord, err := h.service.Get(userID, isAdmin(c), orderID)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, ord)
}

func (h *Handler) cancel(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	orderID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Err(c, apperr.BadRequest("invalid order id"))
	}

	payload := new(cancelOrderRequest)
	c.BodyParser(payload) // body is optional

	cancelled, err := h.service.Cancel(userID, isAdmin(c), orderID, payload.Note)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, cancelled)
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	orderID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Err(c, apperr.BadRequest("invalid order id"))
	}

	payload := new(updateStatusRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	updated, err := h.service.UpdateStatus(orderID, Status(payload.Status), payload.Note, payload.TrackingNumber)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, updated)
}

func isAdmin(c *fiber.Ctx) bool {
	role, err := user.GetRoleFromCtx(c)
	return err == nil && role == user.RoleAdmin
}
