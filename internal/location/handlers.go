package location

import (
	"errors"
	"strconv"

	"backend-discoverudupi/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

const defaultRadiusKm = 10

func RegisterRoutes(r fiber.Router, src Source, siteURL string) {
	r.Get("/", func(c *fiber.Ctx) error {
		locs, err := src.All(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(Filter(locs, c.Query("category"), c.Query("q")))
	})

	r.Get("/categories", func(c *fiber.Ctx) error {
		locs, err := src.All(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(Categories(locs))
	})

	r.Get("/nearby", func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		radius := c.QueryFloat("radius_km", defaultRadiusKm)
		if radius <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "radius_km must be positive")
		}
		out, err := src.Nearby(c.Context(), lat, lng, radius, c.Query("category"))
		if geo.IsCoordinateError(err) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if out == nil {
			out = []Nearby{}
		}
		return c.JSON(out)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		loc, err := lookup(c, src)
		if err != nil {
			return err
		}
		return c.JSON(loc)
	})

	r.Get("/:id/directions", func(c *fiber.Ctx) error {
		loc, err := lookup(c, src)
		if err != nil {
			return err
		}
		platform := geo.PlatformFromUserAgent(c.Get(fiber.HeaderUserAgent))
		if p := c.Query("platform"); p != "" {
			platform = geo.ParsePlatform(p)
		}
		url, err := geo.DirectionsURL(geo.Destination{Lat: loc.Lat, Lng: loc.Lng, Name: loc.Name}, platform)
		if err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return c.JSON(fiber.Map{"platform": platform, "url": url})
	})

	r.Get("/:id/share", func(c *fiber.Ctx) error {
		loc, err := lookup(c, src)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"title": loc.Name,
			"text":  loc.Description,
			"url":   geo.ShareURL(siteURL, loc.ID),
		})
	})
}

func lookup(c *fiber.Ctx, src Source) (Location, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Location{}, fiber.NewError(fiber.StatusBadRequest, "invalid location id")
	}
	loc, err := src.Get(c.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return Location{}, fiber.NewError(fiber.StatusNotFound, "location not found")
	}
	if err != nil {
		return Location{}, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return loc, nil
}
