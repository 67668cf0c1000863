package review

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the review endpoints under a /locations router.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/:id/reviews", func(c *fiber.Ctx) error {
		locationID, err := locationParam(c)
		if err != nil {
			return err
		}
		order, err := ParseSortOrder(c.Query("sort"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		rating := c.QueryInt("rating", 0)
		if rating < 0 || rating > 5 {
			return fiber.NewError(fiber.StatusBadRequest, ErrInvalidRatingFilter.Error())
		}
		reviews, err := svc.List(c.Context(), locationID, ListOptions{
			Sort:   order,
			Rating: rating,
			Limit:  c.QueryInt("limit", DefaultLimit),
			Offset: c.QueryInt("offset", 0),
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(reviews)
	})

	r.Get("/:id/reviews/stats", func(c *fiber.Ctx) error {
		locationID, err := locationParam(c)
		if err != nil {
			return err
		}
		stats, err := svc.Stats(c.Context(), locationID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(stats)
	})

	r.Post("/:id/reviews", authMiddleware, func(c *fiber.Ctx) error {
		locationID, err := locationParam(c)
		if err != nil {
			return err
		}
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, ErrNotAuthenticated.Error())
		}
		var sub Submission
		if err := c.BodyParser(&sub); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		sub.LocationID = locationID
		rev, err := svc.Create(c.Context(), userID, sub)
		if IsValidation(err) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if errors.Is(err, ErrUnknownLocation) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(rev)
	})
}

func locationParam(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid location id")
	}
	return id, nil
}
