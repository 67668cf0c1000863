package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Middleware returns the bearer-token middleware for this service's secret.
func (s *Service) Middleware() fiber.Handler {
	return JWTMiddleware(string(s.secret))
}

func RegisterRoutes(r fiber.Router, svc *Service, siteURL string) {
	site := strings.TrimRight(siteURL, "/")
	secure := strings.HasPrefix(site, "https://")
	authMiddleware := svc.Middleware()

	r.Post("/signup", func(c *fiber.Ctx) error {
		var req SignUpRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		resp, err := svc.SignUp(c.Context(), req)
		if errors.Is(err, ErrEmailTaken) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(resp)
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, ErrMissingFields.Error())
		}
		session, err := svc.Login(c.Context(), req)
		switch {
		case errors.Is(err, ErrEmailNotConfirmed):
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		case errors.Is(err, ErrInvalidCredentials):
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(session)
	})

	r.Post("/refresh", func(c *fiber.Ctx) error {
		var req RefreshRequest
		if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
			return fiber.NewError(fiber.StatusBadRequest, "refresh_token required")
		}
		session, err := svc.Refresh(c.Context(), req.RefreshToken)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return c.JSON(session)
	})

	r.Post("/logout", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.Logout(c.Context(), userID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		clearSessionCookies(c)
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/user", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		user, err := svc.GetUser(c.Context(), userID)
		if errors.Is(err, ErrUserNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(user)
	})

	r.Get("/confirm", func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			return redirectError(c, site, "Missing confirmation token")
		}
		session, err := svc.ConfirmEmail(c.Context(), token)
		if err != nil {
			svc.log.Warn("email confirmation failed", zap.Error(err))
			return redirectError(c, site, "Confirmation link is invalid or has expired")
		}
		SetSessionCookies(c, &session, secure)
		return c.Redirect(site+"/?auth=confirmed", fiber.StatusFound)
	})

	r.Get("/oauth/:provider", func(c *fiber.Ctx) error {
		url, err := svc.AuthorizeURL(c.Params("provider"), SafeNext(c.Query("next", "/")))
		if errors.Is(err, ErrUnsupportedProvider) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
			return c.JSON(fiber.Map{"url": url})
		}
		return c.Redirect(url, fiber.StatusFound)
	})

	r.Get("/callback", CallbackHandler(svc, site, svc.log))

	r.Get("/jwt/verify", func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		userID, err := svc.ValidateAccessToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return c.JSON(fiber.Map{"user_id": userID})
	})
}
