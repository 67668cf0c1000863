package offline

import (
	"errors"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".ico": true, ".avif": true,
}

// Handler serves GET requests through p. Other methods fall through.
func Handler(p *Proxy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}
		e, err := p.Serve(c.Context(), c.Path(), RequestMode(c))
		if errors.Is(err, ErrUnavailable) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		if err != nil {
			return err
		}
		if e.ContentType != "" {
			c.Set(fiber.HeaderContentType, e.ContentType)
		}
		return c.Status(e.Status).Send(e.Body)
	}
}

// RequestMode classifies a request the way browsers label fetches.
func RequestMode(c *fiber.Ctx) Mode {
	if c.Get("Sec-Fetch-Mode") == "navigate" {
		return ModeNavigate
	}
	if c.Get("Sec-Fetch-Dest") == "image" || imageExts[strings.ToLower(path.Ext(c.Path()))] {
		return ModeImage
	}
	if strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML) {
		return ModeNavigate
	}
	return ModeOther
}
