package cart

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
	app.Get("/api/v1/cart", h.get)
	app.Post("/api/v1/cart/items", h.add)
	app.Put("/api/v1/cart/items/:id<[0-9]+>", h.setQuantity)
	app.Delete("/api/v1/cart/items/:id<[0-9]+>", h.remove)
	app.Delete("/api/v1/cart", h.clear)
}

type addItemRequest struct {
	ProductID int `json:"productId" validate:"required,gt=0"`
	Quantity  int `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

func (h *Handler) get(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	crt, err := h.service.Get(userID)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, crt)
}

func (h *Handler) add(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	payload := &addItemRequest{Quantity: 1}
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	crt, err := h.service.Add(userID, payload.ProductID, payload.Quantity)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, crt)
}

func (h *Handler) setQuantity(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	productID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Err(c, apperr.BadRequest("invalid product id"))
	}

	payload := new(setQuantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	crt, err := h.service.SetQuantity(userID, productID, payload.Quantity)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, crt)
}

func (h *Handler) remove(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	productID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Err(c, apperr.BadRequest("invalid product id"))
	}

	crt, err := h.service.Remove(userID, productID)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, crt)
}

func (h *Handler) clear(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	if err := h.service.Clear(userID); err != nil {
		return response.Err(c, err)
	}
	return response.OKMessage(c, "cart cleared", nil)
}
