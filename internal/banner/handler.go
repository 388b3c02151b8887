package banner

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

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/banners", h.list)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/banners", user.RequireAdmin, h.create)
	app.Delete("/api/v1/banners/:id<[0-9]+>", user.RequireAdmin, h.delete)
}

type bannerRequest struct {
	Image    string `json:"image" validate:"required"`
	Link     string `json:"link"`
	Alt      string `json:"alt"`
	Position int    `json:"position"`
}

func (h *Handler) list(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	banners, err := h.service.List(limit)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, banners)
}

func (h *Handler) create(c *fiber.Ctx) error {
	payload := new(bannerRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	created, err := h.service.Create(Banner{
		Image:    payload.Image,
		Link:     payload.Link,
		Alt:      payload.Alt,
		Position: payload.Position,
	})
	if err != nil {
		return response.Err(c, err)
	}
	return response.Created(c, created)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Err(c, apperr.BadRequest("invalid banner id"))
	}

	if err := h.service.Delete(id); err != nil {
		return response.Err(c, err)
	}
	return response.OKMessage(c, "banner deleted", nil)
}
