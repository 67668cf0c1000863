package storage

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts POST /upload: a multipart form with a "file" part
// and an optional "kind" (review_image by default).
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/upload", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, ErrNotSignedIn.Error())
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, ErrMissingFile.Error())
		}
		if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
			return fiber.NewError(fiber.StatusUnsupportedMediaType, ErrNotAnImage.Error())
		}
		if fh.Size > MaxUploadBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, ErrTooLarge.Error())
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer f.Close()

		obj, err := svc.Upload(c.Context(), userID, c.FormValue("kind", KindReviewImage), f)
		if errors.Is(err, ErrUnknownKind) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if errors.Is(err, ErrUploadFailed) {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(obj)
	})
}
