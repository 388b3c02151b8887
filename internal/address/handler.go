package address

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
	app.Get("/api/v1/addresses", h.list)
	app.Post("/api/v1/addresses", h.create)
	app.Put("/api/v1/addresses/:id<[0-9]+>", h.update)
	app.Delete("/api/v1/addresses/:id<[0-9]+>", h.delete)
}

type addressRequest struct {
	Label      string `json:"label"`
	FullName   string `json:"fullName" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"isDefault"`
}

func (r addressRequest) toAddress(userID int) Address {
	return Address{
		UserID:     userID,
		Label:      r.Label,
		FullName:   r.FullName,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Phone:      r.Phone,
		IsDefault:  r.IsDefault,
	}
}

func (h *Handler) list(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	addrs, err := h.service.List(userID)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, addrs)
}

func (h *Handler) create(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	payload := new(addressRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	created, err := h.service.Create(payload.toAddress(userID))
	if err != nil {
		return response.Err(c, err)
	}
	return response.Created(c, created)
}

func (h *Handler) update(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	addressID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Err(c, apperr.BadRequest("invalid address id"))
	}

	payload := new(addressRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	addr := payload.toAddress(userID)
	addr.ID = addressID
	updated, err := h.service.Update(addr)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, updated)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	addressID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Err(c, apperr.BadRequest("invalid address id"))
	}

	if err := h.service.Delete(userID, addressID); err != nil {
		return response.Err(c, err)
	}
	return response.OKMessage(c, "address deleted", nil)
}
