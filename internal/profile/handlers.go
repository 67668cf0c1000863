package profile

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/me", authMiddleware, func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), userID(c))
		return respond(c, fiber.StatusOK, p, err)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var in NewProfile
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		p, err := svc.Create(c.Context(), userID(c), in)
		return respond(c, fiber.StatusCreated, p, err)
	})

	r.Patch("/me", authMiddleware, func(c *fiber.Ctx) error {
		var u Update
		if err := c.BodyParser(&u); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		p, err := svc.Update(c.Context(), userID(c), u)
		return respond(c, fiber.StatusOK, p, err)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), c.Params("id"))
		return respond(c, fiber.StatusOK, p, err)
	})
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func respond(c *fiber.Ctx, status int, p Profile, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyExists):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case err != nil:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(status).JSON(p)
}
