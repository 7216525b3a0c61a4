package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adam-Grimes/CINEMA/internal/repository"
	"github.com/Adam-Grimes/CINEMA/internal/service"
)

// newTestServer mounts the same routes the router does, against a fresh
// in-memory store.
func newTestServer(t *testing.T) (*echo.Echo, *repository.MemoryDocs) {
	t.Helper()
	store := repository.NewMemoryDocs()
	catalog := service.NewCatalog(store, nil)

	e := echo.New()
	e.GET("/healthz", Health)
	e.GET("/readyz", Ready(store))
	for _, svc := range catalog.All() {
		h := NewEntityHandler(svc)
		base := "/api/" + svc.Schema().Collection
		e.POST(base, h.Create)
		e.GET(base, h.List)
		e.GET(base+"/:id", h.Get)
		e.PUT(base+"/:id", h.Update)
		e.PATCH(base+"/:id", h.Update)
		e.DELETE(base+"/:id", h.Delete)
	}
	films := &FilmHandler{Catalog: catalog}
	e.GET("/api/Film/film/:filmId", films.ListScreenings)
	return e, store
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func seed(t *testing.T, e *echo.Echo) {
	t.Helper()
	rec, _ := do(t, e, http.MethodPost, "/api/Film", `{"FilmID":"Film1","Name":"X","Category":"A","Genre":"Drama","Duration":120}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec, _ = do(t, e, http.MethodPost, "/api/Theatre", `{"TheatreID":"Theatre1","Capacity":100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

const screeningJSON = `{"FilmID":"Film1","TheatreID":"Theatre1","Date":"2025-01-01","StartTime":"18:00","SeatsRemaining":100}`

func TestCreateScreening_ReturnsGeneratedID(t *testing.T) {
	e, _ := newTestServer(t)
	seed(t, e)

	rec, body := do(t, e, http.MethodPost, "/api/Screening", screeningJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Screening created successfully", body["message"])
	assert.Equal(t, "Screening1", body["generatedId"])
	assert.Equal(t, "Screening1", body["ScreeningID"])

	rec, body = do(t, e, http.MethodGet, "/api/Screening/Screening1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Film1", body["FilmID"])
	assert.Equal(t, "Theatre1", body["TheatreID"])
	assert.Equal(t, float64(100), body["SeatsRemaining"])
}

func TestCreate_CallerSuppliedIDHasNoGeneratedID(t *testing.T) {
	e, _ := newTestServer(t)

	rec, body := do(t, e, http.MethodPost, "/api/TicketType", `{"TicketTypeID":"adult","Cost":9.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "adult", body["TicketTypeID"])
	_, ok := body["generatedId"]
	assert.False(t, ok)
}

func TestCreate_StatusCodes(t *testing.T) {
	e, _ := newTestServer(t)
	seed(t, e)

	rec, body := do(t, e, http.MethodPost, "/api/Screening", `{"FilmID":"Film9","TheatreID":"Theatre1","Date":"2025-01-01","StartTime":"18:00","SeatsRemaining":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Film Film9 not found", body["error"])

	rec, body = do(t, e, http.MethodPost, "/api/Film", `{"FilmID":"Film2","Name":"Y"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "Missing required field")

	rec, _ = do(t, e, http.MethodPost, "/api/Film", `{"FilmID":"Film1","Name":"Y","Category":"A","Genre":"G","Duration":9}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = do(t, e, http.MethodPost, "/api/Film", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestList_InjectsIdentity(t *testing.T) {
	e, _ := newTestServer(t)
	seed(t, e)

	req := httptest.NewRequest(http.MethodGet, "/api/Film", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var films []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &films))
	require.Len(t, films, 1)
	assert.Equal(t, "Film1", films[0]["FilmID"])
	assert.Equal(t, "X", films[0]["Name"])
}

func TestUpdate_PutAndPatch(t *testing.T) {
	e, store := newTestServer(t)
	seed(t, e)

	rec, body := do(t, e, http.MethodPut, "/api/Theatre/Theatre1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No valid fields provided for update", body["error"])

	rec, _ = do(t, e, http.MethodPatch, "/api/Theatre/Theatre1", `{"Rows":10,"TheatreID":"ignored"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := store.Get(t.Context(), "Theatre", "Theatre1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), doc["Rows"])
	assert.Equal(t, int64(100), doc["Capacity"])
	_, ok := doc["TheatreID"]
	assert.False(t, ok)

	rec, _ = do(t, e, http.MethodPut, "/api/Theatre/Theatre9", `{"Rows":10}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete(t *testing.T) {
	e, _ := newTestServer(t)
	seed(t, e)

	rec, body := do(t, e, http.MethodDelete, "/api/Film/Film1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Film deleted successfully", body["message"])

	rec, _ = do(t, e, http.MethodDelete, "/api/Film/Film1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListScreeningsForFilm(t *testing.T) {
	e, _ := newTestServer(t)
	seed(t, e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/Film/film/Film1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for i := 0; i < 2; i++ {
		r, _ := do(t, e, http.MethodPost, "/api/Screening", screeningJSON)
		require.Equal(t, http.StatusOK, r.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/Film/film/Film1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)

	r, _ := do(t, e, http.MethodGet, "/api/Film/film/Film404", "")
	assert.Equal(t, http.StatusNotFound, r.Code)
}

func TestHealthEndpoints(t *testing.T) {
	e, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())

	r, body := do(t, e, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "ready", body["status"])
}
