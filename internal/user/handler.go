package user

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/Arafat-alim/shoporbit-backend/internal/apperr"
	"github.com/Arafat-alim/shoporbit-backend/internal/response"
	"github.com/Arafat-alim/shoporbit-backend/internal/validate"
)

type Handler struct {
	service *Service
	oauth   *GoogleOAuth
}

func NewHandler(service *Service, oauth *GoogleOAuth) *Handler {
	return &Handler{service: service, oauth: oauth}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/sign-up", h.register)
	app.Post("/api/v1/sign-in", h.login)
	app.Post("/api/v1/refresh-token", h.refresh)
	if h.oauth != nil {
		app.Get("/api/v1/auth/google", h.googleRedirect)
		app.Get("/api/v1/auth/google/callback", h.googleCallback)
	}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/profile", h.getProfile)
	app.Put("/api/v1/profile", h.updateProfile)
	app.Patch("/api/v1/profile", h.updateProfile)
	app.Post("/api/v1/logout", h.logout)
	app.Post("/api/v1/logout-all", h.logoutAll)
	app.Post("/api/v1/2fa/setup", h.setup2FA)
	app.Post("/api/v1/2fa/enable", h.enable2FA)
	app.Post("/api/v1/2fa/disable", h.disable2FA)
	app.Get("/api/v1/users", RequireAdmin, h.listUsers)
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	TOTPCode string `json:"totpCode"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type totpCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	created, err := h.service.Register(User{
		Email:    payload.Email,
		Password: payload.Password,
		Name:     payload.Name,
		Phone:    payload.Phone,
	})
	if err != nil {
		if err == ErrEmailExists {
			return response.Err(c, apperr.Conflict("email already exists"))
		}
		return response.Err(c, err)
	}

	return response.Created(c, created)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	u, pair, err := h.service.Login(payload.Email, payload.Password, payload.TOTPCode)
	if err != nil {
		switch err {
		case ErrLocked:
			return response.Err(c, apperr.Locked("account locked, try again later"))
		case ErrTOTPRequired:
			return response.Err(c, apperr.Unauthorized("totp code required"))
		case ErrInvalidTOTP:
			return response.Err(c, apperr.Unauthorized("invalid totp code"))
		default:
			return response.Err(c, apperr.Unauthorized("invalid email or password"))
		}
	}

	return response.OKMessage(c, "login successful", fiber.Map{"user": u, "tokens": pair})
}

func (h *Handler) refresh(c *fiber.Ctx) error {
	payload := new(refreshRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	pair, err := h.service.Refresh(payload.RefreshToken)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("invalid refresh token"))
	}
	return response.OK(c, pair)
}

func (h *Handler) logout(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	payload := new(logoutRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}

	if err := h.service.Logout(userID, payload.RefreshToken); err != nil {
		return response.Err(c, err)
	}
	return response.OKMessage(c, "logged out", nil)
}

func (h *Handler) logoutAll(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}
	if err := h.service.LogoutAll(userID); err != nil {
		return response.Err(c, err)
	}
	return response.OKMessage(c, "logged out everywhere", nil)
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	u, err := h.service.GetByID(userID)
	if err != nil {
		return response.Err(c, apperr.NotFound("user not found"))
	}
	return response.OK(c, u)
}

type profileUpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	existing, err := h.service.GetByID(userID)
	if err != nil {
		return response.Err(c, apperr.NotFound("user not found"))
	}

	payload := new(profileUpdateRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if payload.Name != nil {
		existing.Name = *payload.Name
	}
	if payload.Phone != nil {
		existing.Phone = *payload.Phone
	}

	updated, err := h.service.Update(userID, existing)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, updated)
}

func (h *Handler) setup2FA(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	setup, err := h.service.Setup2FA(userID)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OK(c, setup)
}

func (h *Handler) enable2FA(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	payload := new(totpCodeRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}
	if fields := validate.Struct(payload); fields != nil {
		return response.Err(c, apperr.Validation(fields))
	}

	codes, err := h.service.Enable2FA(userID, payload.Code)
	if err != nil {
		if err == ErrInvalidTOTP {
			return response.Err(c, apperr.BadRequest("invalid totp code"))
		}
		return response.Err(c, err)
	}
	return response.OK(c, fiber.Map{"backupCodes": codes})
}

func (h *Handler) disable2FA(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}

	payload := new(totpCodeRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Err(c, apperr.BadRequest(err.Error()))
	}

	if err := h.service.Disable2FA(userID, payload.Code); err != nil {
		if err == ErrInvalidTOTP {
			return response.Err(c, apperr.BadRequest("invalid totp code"))
		}
		return response.Err(c, err)
	}
	return response.OKMessage(c, "2fa disabled", nil)
}

func (h *Handler) listUsers(c *fiber.Ctx) error {
	return response.OK(c, h.service.List())
}

// GetUserIDFromCtx extracts the user_id claim from the JWT token stored in
// `c.Locals("user")` by the jwt middleware. Several packages need this, so
// it is exported here.
func GetUserIDFromCtx(c *fiber.Ctx) (int, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return 0, err
	}
	if raw, ok := claims["user_id"]; ok {
		switch v := raw.(type) {
		case float64:
			return int(v), nil
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case string:
			id, err := strconv.Atoi(v)
			if err != nil {
				return 0, fiber.ErrUnauthorized
			}
			return id, nil
		}
	}
	return 0, fiber.ErrUnauthorized
}

// GetRoleFromCtx extracts the role claim from the JWT token.
func GetRoleFromCtx(c *fiber.Ctx) (string, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return "", err
	}
	if role, ok := claims["role"].(string); ok {
		return role, nil
	}
	return "", fiber.ErrUnauthorized
}

// RequireAdmin guards privileged routes by checking the role claim.
func RequireAdmin(c *fiber.Ctx) error {
	role, err := GetRoleFromCtx(c)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("unauthorized"))
	}
	if role != RoleAdmin {
		return response.Err(c, apperr.Forbidden("admin access required"))
	}
	return c.Next()
}

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, error) {
	u := c.Locals("user")
	if u == nil {
		return nil, fiber.ErrUnauthorized
	}
	tok, ok := u.(*jwt.Token)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}
