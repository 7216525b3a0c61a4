package router // package router defines how HTTP routes are registered for the API

import (
	"io/fs"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/Adam-Grimes/CINEMA/internal/handler"
	"github.com/Adam-Grimes/CINEMA/internal/repository"
	"github.com/Adam-Grimes/CINEMA/internal/service"
)

// RegisterRoutes registers the probes: /healthz answers while the process
// is up, /readyz only when the document store responds.
func RegisterRoutes(e *echo.Echo, store repository.DocumentRepo) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(store))
}

// RegisterAPI mounts CRUD routes for every collection under /api/<Collection>
// plus the film screenings lookup.  mw is applied to the whole /api group
// (rate limiting and the response cache).
func RegisterAPI(e *echo.Echo, catalog *service.Catalog, mw ...echo.MiddlewareFunc) {
	api := e.Group("/api", mw...)

	for _, svc := range catalog.All() {
		h := handler.NewEntityHandler(svc)
		g := api.Group("/" + svc.Schema().Collection)
		g.POST("", h.Create)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		// PATCH is an alias: both verbs merge partially.
		g.PATCH("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}

	films := &handler.FilmHandler{Catalog: catalog}
	api.GET("/Film/film/:filmId", films.ListScreenings)
}

// RegisterAdmin serves the admin panel from the embedded filesystem at /.
func RegisterAdmin(e *echo.Echo, assets fs.FS) {
	e.StaticFS("/", assets)
}
