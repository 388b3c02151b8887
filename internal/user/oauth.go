package user

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Arafat-alim/shoporbit-backend/internal/apperr"
	"github.com/Arafat-alim/shoporbit-backend/internal/response"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuth holds the oauth2 configuration for the Google sign-in flow.
// The handshake itself is delegated to the oauth2 package; this layer only
// upserts the user and issues the usual token pair.
type GoogleOAuth struct {
	config *oauth2.Config
}

func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *GoogleOAuth {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

type googleUserinfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) googleRedirect(c *fiber.Ctx) error {
	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
	})
	return c.Redirect(h.oauth.config.AuthCodeURL(state), fiber.StatusFound)
}

func (h *Handler) googleCallback(c *fiber.Ctx) error {
	if c.Query("state") == "" || c.Query("state") != c.Cookies("oauth_state") {
		return response.Err(c, apperr.BadRequest("invalid oauth state"))
	}
	code := c.Query("code")
	if code == "" {
		return response.Err(c, apperr.BadRequest("missing authorization code"))
	}

	ctx := c.Context()
	token, err := h.oauth.config.Exchange(ctx, code)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("oauth code exchange failed"))
	}

	info, err := fetchGoogleUserinfo(ctx, h.oauth.config, token)
	if err != nil {
		return response.Err(c, apperr.Unauthorized("could not fetch user info"))
	}
	if info.Email == "" {
		return response.Err(c, apperr.Unauthorized("oauth account has no email"))
	}

	u, err := h.service.LoginWithOAuth(info.Email, info.Name)
	if err != nil {
		return response.Err(c, err)
	}

	pair, err := h.service.issueAndStore(u)
	if err != nil {
		return response.Err(c, err)
	}
	return response.OKMessage(c, "login successful", fiber.Map{"user": u, "tokens": pair})
}

func fetchGoogleUserinfo(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (googleUserinfo, error) {
	client := cfg.Client(ctx, token)
	res, err := client.Get(googleUserinfoURL)
	if err != nil {
		return googleUserinfo{}, err
	}
	defer res.Body.Close()

	var info googleUserinfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return googleUserinfo{}, err
	}
	return info, nil
}
