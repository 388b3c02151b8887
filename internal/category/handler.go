package category

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Arafat-alim/shoporbit-backend/internal/response"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/categories", h.list)
}

func (h *Handler) list(c *fiber.Ctx) error {
	categories, err := h.repo.List()
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, categories)
}
