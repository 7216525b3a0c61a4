package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Adam-Grimes/CINEMA/internal/service"
)

// FilmHandler serves the film-specific routes that sit next to the
// generic collection CRUD.
type FilmHandler struct {
	Catalog *service.Catalog
}

// ListScreenings handles GET /api/Film/film/:filmId.  The id may be given
// as "Film1" or "Film/Film1".  Unknown films are 404; a film with no
// screenings yields [].
func (h *FilmHandler) ListScreenings(c echo.Context) error {
	docs, err := h.Catalog.ScreeningsForFilm(c.Request().Context(), c.Param("filmId"))
	if err != nil {
		return respondError(c, "fetching screenings for film", err)
	}
	return c.JSON(http.StatusOK, docs)
}
