package handler // HTTP handlers for the admin API

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Adam-Grimes/CINEMA/internal/repository"
	"github.com/Adam-Grimes/CINEMA/internal/service"
)

// Health is a liveness probe.  It returns plain text "ok" with 200 as long
// as the process is serving requests.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready reports whether the document store answers.  It reads the counters
// collection, which every deployment has, with a short timeout.
func Ready(store repository.DocumentRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if _, err := store.List(ctx, service.CountersCollection); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable: " + err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	}
}
