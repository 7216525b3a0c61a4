package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Adam-Grimes/CINEMA/internal/service"
)

// respondError maps a service error to its status code and writes
// {"error": message}.  Unclassified errors are logged and returned as 500
// with the underlying message attached.
func respondError(c echo.Context, action string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("%s: %v", action, err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Error " + action + ": " + err.Error()})
}
