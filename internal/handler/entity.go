package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Adam-Grimes/CINEMA/internal/service"
)

// EntityHandler exposes one collection over REST.  The same handler type
// serves every collection; the wrapped service carries the schema.
type EntityHandler struct {
	Service *service.EntityService
}

func NewEntityHandler(svc *service.EntityService) *EntityHandler {
	return &EntityHandler{Service: svc}
}

func (h *EntityHandler) collection() string { return h.Service.Schema().Collection }

// noun is the lower-case collection name used in error messages,
// e.g. "ticket type".
func (h *EntityHandler) noun() string {
	var b strings.Builder
	for i, r := range h.collection() {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// bindBody decodes the JSON request body into a map.  Path parameters are
// deliberately not merged in, so ":id" never leaks into the document.
func bindBody(c echo.Context) (map[string]any, error) {
	body := map[string]any{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// Create handles POST /api/<Collection>.  The response names the stored
// identifier and adds "generatedId" when it was minted by the server.
func (h *EntityHandler) Create(c echo.Context) error {
	body, err := bindBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Service.Create(c.Request().Context(), body)
	if err != nil {
		return respondError(c, "creating "+h.noun(), err)
	}
	out := echo.Map{
		"message":                   h.collection() + " created successfully",
		h.Service.Schema().IDField: res.ID,
	}
	if res.Generated {
		out["generatedId"] = res.ID
	}
	return c.JSON(http.StatusOK, out)
}

// List handles GET /api/<Collection>.
func (h *EntityHandler) List(c echo.Context) error {
	docs, err := h.Service.List(c.Request().Context())
	if err != nil {
		return respondError(c, "fetching "+h.noun()+"s", err)
	}
	return c.JSON(http.StatusOK, docs)
}

// Get handles GET /api/<Collection>/:id.
func (h *EntityHandler) Get(c echo.Context) error {
	doc, err := h.Service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, "fetching "+h.noun(), err)
	}
	return c.JSON(http.StatusOK, doc)
}

// Update handles PUT and PATCH /api/<Collection>/:id.  Both are partial:
// attributes missing from the body keep their stored values.
func (h *EntityHandler) Update(c echo.Context) error {
	body, err := bindBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Service.Update(c.Request().Context(), c.Param("id"), body); err != nil {
		return respondError(c, "updating "+h.noun(), err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": h.collection() + " updated successfully"})
}

// Delete handles DELETE /api/<Collection>/:id.
func (h *EntityHandler) Delete(c echo.Context) error {
	if err := h.Service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, "deleting "+h.noun(), err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": h.collection() + " deleted successfully"})
}
