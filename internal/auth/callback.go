package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend-discoverudupi/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AccessCookie  = "udupi-access-token"
	RefreshCookie = "udupi-refresh-token"
	codeErrorPath = "/auth/auth-code-error"
)

var errExchangePanicked = errors.New("code exchange panicked")

// CodeExchanger is the part of Service the OAuth callback needs.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, provider, code string) (*Session, error)
	ParseState(state string) (provider, next string, err error)
}

// CallbackHandler finishes an OAuth sign-in. Every outcome is a redirect to
// siteURL: failures land on the home page with ?error=, panics on the
// generic error page, and success on next with auth=success appended.
func CallbackHandler(ex CodeExchanger, siteURL string, log *zap.Logger) fiber.Handler {
	site := strings.TrimRight(siteURL, "/")
	secure := strings.HasPrefix(site, "https://")

	return func(c *fiber.Ctx) error {
		if e := c.Query("error"); e != "" {
			msg := c.Query("error_description")
			if msg == "" {
				msg = e
			}
			log.Warn("oauth provider returned an error", zap.String("error", e), zap.String("description", msg))
			return redirectError(c, site, msg)
		}

		code := c.Query("code")
		if code == "" {
			return redirectError(c, site, "No authorization code provided")
		}

		provider := c.Query("provider", ProviderGoogle)
		next := c.Query("next")
		if state := c.Query("state"); state != "" {
			p, n, err := ex.ParseState(state)
			if err != nil {
				log.Warn("oauth state rejected", zap.Error(err))
				return redirectError(c, site, "Invalid OAuth state")
			}
			provider = p
			if n != "" {
				next = n
			}
		}

		session, err := exchangeRecovered(c.Context(), ex, provider, code, log)
		if errors.Is(err, errExchangePanicked) {
			return c.Redirect(site+codeErrorPath, fiber.StatusFound)
		}
		if err != nil {
			log.Error("auth callback error", zap.String("provider", provider), zap.Error(err))
			return redirectError(c, site, err.Error())
		}
		if session == nil {
			return redirectError(c, site, "No session returned")
		}

		SetSessionCookies(c, session, secure)
		return c.Redirect(site+successPath(next), fiber.StatusFound)
	}
}

func exchangeRecovered(ctx context.Context, ex CodeExchanger, provider, code string, log *zap.Logger) (session *Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("auth callback panic", zap.String("provider", provider), zap.Any("panic", r))
			session, err = nil, fmt.Errorf("%w: %v", errExchangePanicked, r)
		}
	}()
	return ex.ExchangeCode(ctx, provider, code)
}

func redirectError(c *fiber.Ctx, site, msg string) error {
	return c.Redirect(site+"/?error="+geo.EscapeComponent(msg), fiber.StatusFound)
}

// SafeNext keeps next only when it is a path on this site.
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func successPath(next string) string {
	return withQueryParam(SafeNext(next), "auth=success")
}

func withQueryParam(path, param string) string {
	fragment := ""
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path, fragment = path[:i], path[i:]
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + param + fragment
}

// SetSessionCookies stores the session's tokens as HTTP-only cookies.
func SetSessionCookies(c *fiber.Ctx, session *Session, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     AccessCookie,
		Value:    session.AccessToken,
		Path:     "/",
		Expires:  time.Unix(session.ExpiresAt, 0),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookie,
		Value:    session.RefreshToken,
		Path:     "/",
		Expires:  time.Now().Add(refreshTokenTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearSessionCookies(c *fiber.Ctx) {
	c.ClearCookie(AccessCookie, RefreshCookie)
}
