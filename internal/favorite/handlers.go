package favorite

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Get("/", func(c *fiber.Ctx) error {
		userID, err := currentUser(c)
		if err != nil {
			return err
		}
		favs, err := svc.List(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(favs)
	})

	r.Post("/:locationID", func(c *fiber.Ctx) error {
		userID, locationID, err := params(c)
		if err != nil {
			return err
		}
		err = svc.Add(c.Context(), userID, locationID)
		if errors.Is(err, ErrUnknownLocation) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"location_id": locationID, "favorite": true})
	})

	r.Delete("/:locationID", func(c *fiber.Ctx) error {
		userID, locationID, err := params(c)
		if err != nil {
			return err
		}
		if err := svc.Remove(c.Context(), userID, locationID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func currentUser(c *fiber.Ctx) (string, error) {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, ErrNotAuthenticated.Error())
	}
	return userID, nil
}

func params(c *fiber.Ctx) (string, int, error) {
	userID, err := currentUser(c)
	if err != nil {
		return "", 0, err
	}
	locationID, err := strconv.Atoi(c.Params("locationID"))
	if err != nil || locationID <= 0 {
		return "", 0, fiber.NewError(fiber.StatusBadRequest, "invalid location id")
	}
	return userID, locationID, nil
}
