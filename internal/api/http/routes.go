package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/windlab/windharvest/internal/store"
	"github.com/windlab/windharvest/internal/wind"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. Artifacts are
// served as opaque JSON blobs; the slot key travels in the X-Slot-Key header.
func RegisterRoutes(app *fiber.App, service *wind.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/wind/latest", func(c *fiber.Ctx) error {
		key, data, err := service.GetLatest(time.Now().UTC())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no wind data available")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read wind data")
		}
		return sendArtifact(c, key, data)
	})

	v1.Get("/wind/nearest", func(c *fiber.Ctx) error {
		var req nearestQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		key, data, err := service.GetNearest(req.At, req.SearchLimit)
		if err != nil {
			if errors.Is(err, wind.ErrSearchLimitExceeded) || errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no wind data within search limit")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read wind data")
		}
		return sendArtifact(c, key, data)
	})
}

func sendArtifact(c *fiber.Ctx, key string, data []byte) error {
	c.Set("X-Slot-Key", key)
	c.Type("json")
	return c.Send(data)
}

// nearestQuery holds query parameters for the nearest endpoint.
type nearestQuery struct {
	At          time.Time `validate:"required"`
	SearchLimit int       `validate:"gte=0"`
}

func (q *nearestQuery) bind(c *fiber.Ctx) error {
	atStr := c.Query("at")
	if atStr == "" {
		return errors.New("at query parameter is required")
	}

	at, err := parseTime(atStr)
	if err != nil {
		return err
	}
	q.At = at

	if limitStr := c.Query("searchLimit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return errors.New("searchLimit must be a non-negative integer")
		}
		q.SearchLimit = limit
	}
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
