package product

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
	app.Get("/api/v1/products", h.list)
	app.Get("/api/v1/products/featured", h.listFeatured)
	app.Get("/api/v1/products/:id<[0-9]+>", h.get)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/products/:id<[0-9]+>/reviews", h.upsertReview)
	app.Post("/api/v1/products", user.RequireAdmin, h.create)
	app.Put("/api/v1/products/:id<[0-9]+>", user.RequireAdmin, h.update)
	app.Delete("/api/v1/products/:id<[0-9]+>", user.RequireAdmin, h.delete)
}

type productRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"gte=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Category    string   `json:"category" validate:"required"`
	Images      []string `json:"images"`
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
	Name    string `json:"name"`
}

func (h *Handler) list(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize", "20"))

	products, err := h.service.List(ListFilter{
		Category: c.Query("category"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, fiber.Map{"page": page, "pageSize": pageSize, "products": products})
}

func (h *Handler) listFeatured(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "8"))

	products, err := h.service.ListFeatured(limit)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, products)
}

func (h *Handler) get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Err(c, apperr.BadRequest("invalid product id"))
	}

	p, err := h.service.GetByID(id)
	if err != nil {
		if err == ErrNotFound {
			return response.Err(c, apperr.NotFound("product not found"))
		}
		return response.Err(c, err)
	}
	return response.OK(c, p)
}

func (h *Handler) create(c *fiber.Ctx) error {
	payload := new(productRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	created, err := h.service.Create(Product{
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Stock:       payload.Stock,
		Category:    payload.Category,
		Images:      payload.Images,
	})
	if err != nil {
		return response.Err(c, err)
	}
	return response.Created(c, created)
}

func (h *Handler) update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Err(c, apperr.BadRequest("invalid product id"))
	}

	payload := new(productRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	updated, err := h.service.Update(id, Product{
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Stock:       payload.Stock,
		Category:    payload.Category,
		Images:      payload.Images,
	})
	if err != nil {
		if err == ErrNotFound {
			return response.Err(c, apperr.NotFound("product not found"))
		}
		return response.Err(c, err)
	}
	return response.OK(c, updated)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Err(c, apperr.BadRequest("invalid product id"))
	}

	if err := h.service.Delete(id); err != nil {
		if err == ErrNotFound {
			return response.Err(c, apperr.NotFound("product not found"))
		}
		return response.Err(c, err)
	}
	return response.OKMessage(c, "product deleted", nil)
}

func (h *Handler) upsertReview(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.Err(c, apperr.BadRequest("invalid product id"))
	}

	payload := new(reviewRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	updated, err := h.service.UpsertReview(id, userID, payload.Name, payload.Rating, payload.Comment)
	if err != nil {
		if err == ErrNotFound {
			return response.Err(c, apperr.NotFound("product not found"))
		}
		return response.Err(c, err)
	}
	return response.OK(c, updated)
}
