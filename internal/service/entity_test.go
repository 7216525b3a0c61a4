package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adam-Grimes/CINEMA/internal/model"
	"github.com/Adam-Grimes/CINEMA/internal/queue"
	"github.com/Adam-Grimes/CINEMA/internal/repository"
)

func newTestCatalog(t *testing.T) (*Catalog, *repository.MemoryDocs, *recordingPublisher) {
	t.Helper()
	store := repository.NewMemoryDocs()
	pub := &recordingPublisher{}
	return NewCatalog(store, pub), store, pub
}

func seedFilmAndTheatre(t *testing.T, c *Catalog) {
	t.Helper()
	ctx := context.Background()
	_, err := c.Service("Film").Create(ctx, map[string]any{
		"FilmID": "Film1", "Name": "X", "Category": "A", "Genre": "Drama", "Duration": float64(120),
	})
	require.NoError(t, err)
	_, err = c.Service("Theatre").Create(ctx, map[string]any{"TheatreID": "Theatre1", "Capacity": float64(100)})
	require.NoError(t, err)
}

func screeningBody(film, theatre string) map[string]any {
	return map[string]any{
		"FilmID":         film,
		"TheatreID":      theatre,
		"Date":           "2025-01-01",
		"StartTime":      "18:00",
		"SeatsRemaining": float64(100),
	}
}

func TestCreateScreening_GeneratesIDAndRoundTrips(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	ctx := context.Background()
	seedFilmAndTheatre(t, c)

	res, err := c.Service("Screening").Create(ctx, screeningBody("Film1", "Theatre1"))
	require.NoError(t, err)
	assert.Equal(t, CreateResult{ID: "Screening1", Generated: true}, res)

	got, err := c.Service("Screening").Get(ctx, "Screening1")
	require.NoError(t, err)
	assert.Equal(t, repository.Document{
		"ScreeningID":    "Screening1",
		"FilmID":         "Film1",
		"TheatreID":      "Theatre1",
		"Date":           "2025-01-01",
		"StartTime":      "18:00",
		"SeatsRemaining": int64(100),
	}, got)
}

func TestCreateScreening_IgnoresSuppliedID(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	seedFilmAndTheatre(t, c)

	body := screeningBody("Film1", "Theatre1")
	body["ScreeningID"] = "Mine"
	res, err := c.Service("Screening").Create(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, "Screening1", res.ID)
}

func TestCreateScreening_MissingReferenceKeepsCounter(t *testing.T) {
	cases := map[string]map[string]any{
		"film":    screeningBody("Film9", "Theatre1"),
		"theatre": screeningBody("Film1", "Theatre9"),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, store, pub := newTestCatalog(t)
			ctx := context.Background()
			seedFilmAndTheatre(t, c)
			pub.events = nil

			_, err := c.Service("Screening").Create(ctx, body)
			assert.ErrorIs(t, err, ErrNotFound)

			n, err := c.Counter.Current(ctx, "Screening")
			require.NoError(t, err)
			assert.Zero(t, n)

			docs, err := store.List(ctx, "Screening")
			require.NoError(t, err)
			assert.Empty(t, docs)
			assert.Empty(t, pub.events)
		})
	}
}

func TestCreateScreening_CounterFailureWritesNothing(t *testing.T) {
	mem := repository.NewMemoryDocs()
	store := brokenCounterStore{mem}
	c := NewCatalog(store, nil)
	seedFilmAndTheatre(t, c)

	_, err := c.Service("Screening").Create(context.Background(), screeningBody("Film1", "Theatre1"))
	assert.ErrorIs(t, err, errStoreDown)
	assert.False(t, errors.Is(err, ErrValidation))

	docs, err := mem.List(context.Background(), "Screening")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCreate_Validation(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	ctx := context.Background()
	seedFilmAndTheatre(t, c)

	cases := []struct {
		name       string
		collection string
		body       map[string]any
		msg        string
	}{
		{"missing field", "Film", map[string]any{"FilmID": "Film2", "Name": "Y", "Category": "A", "Genre": "G"}, "Missing required field: Duration"},
		{"missing id", "Film", map[string]any{"Name": "Y", "Category": "A", "Genre": "G", "Duration": float64(90)}, "Missing required field: FilmID"},
		{"wrong type", "Film", map[string]any{"FilmID": "Film2", "Name": "Y", "Category": "A", "Genre": "G", "Duration": "90"}, "Film.Duration must be of type number"},
		{"non integer", "Theatre", map[string]any{"Capacity": 10.5}, "Theatre.Capacity must be of type integer"},
		{"integer overflow", "Theatre", map[string]any{"Capacity": 1e19}, "Theatre.Capacity must be of type integer"},
		{"integer at 2^63", "Theatre", map[string]any{"Capacity": float64(1 << 63)}, "Theatre.Capacity must be of type integer"},
		{"integer underflow", "Booking", map[string]any{"ScreeningID": "Screening1", "NoOfSeats": -1e19, "Cost": 9.5, "EmailAddress": "a@b.com"}, "Booking.NoOfSeats must be of type integer"},
		{"bad date", "Screening", map[string]any{"FilmID": "Film1", "TheatreID": "Theatre1", "Date": "01/01/2025", "StartTime": "18:00", "SeatsRemaining": float64(1)}, ""},
		{"bad time", "Screening", map[string]any{"FilmID": "Film1", "TheatreID": "Theatre1", "Date": "2025-01-01", "StartTime": "25:00", "SeatsRemaining": float64(1)}, ""},
		{"negative seats", "Screening", map[string]any{"FilmID": "Film1", "TheatreID": "Theatre1", "Date": "2025-01-01", "StartTime": "18:00", "SeatsRemaining": float64(-1)}, ""},
		{"bad email", "Booking", map[string]any{"ScreeningID": "Screening1", "NoOfSeats": float64(1), "Cost": 9.5, "EmailAddress": "nobody"}, ""},
		{"empty string", "TicketType", map[string]any{"TicketTypeID": "", "Cost": float64(5)}, "TicketTypeID must not be empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Service(tc.collection).Create(ctx, tc.body)
			require.ErrorIs(t, err, ErrValidation)
			if tc.msg != "" {
				assert.EqualError(t, err, tc.msg)
			}
		})
	}
}

func TestCreate_CallerSuppliedConflict(t *testing.T) {
	c, store, _ := newTestCatalog(t)
	ctx := context.Background()
	seedFilmAndTheatre(t, c)

	_, err := c.Service("Film").Create(ctx, map[string]any{
		"FilmID": "Film1", "Name": "Other", "Category": "B", "Genre": "Comedy", "Duration": float64(80),
	})
	assert.ErrorIs(t, err, ErrConflict)

	doc, err := store.Get(ctx, "Film", "Film1")
	require.NoError(t, err)
	assert.Equal(t, "X", doc["Name"])
}

func TestCreate_OptionalFieldsStoredAsNull(t *testing.T) {
	c, store, _ := newTestCatalog(t)
	ctx := context.Background()
	seedFilmAndTheatre(t, c)

	doc, err := store.Get(ctx, "Film", "Film1")
	require.NoError(t, err)
	v, ok := doc["Poster"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestCreate_OptionalGeneratedIdentity(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	ctx := context.Background()
	svc := c.Service("Theatre")

	res, err := svc.Create(ctx, map[string]any{"Capacity": float64(50)})
	require.NoError(t, err)
	assert.Equal(t, CreateResult{ID: "Theatre1", Generated: true}, res)

	res, err = svc.Create(ctx, map[string]any{"TheatreID": "Imax", "Capacity": float64(300)})
	require.NoError(t, err)
	assert.Equal(t, CreateResult{ID: "Imax"}, res)

	n, err := c.Counter.Current(ctx, "Theatre")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreate_MintSkipsCallerSuppliedID(t *testing.T) {
	c, store, _ := newTestCatalog(t)
	ctx := context.Background()
	svc := c.Service("Theatre")

	_, err := svc.Create(ctx, map[string]any{"TheatreID": "Theatre1", "Capacity": float64(100)})
	require.NoError(t, err)

	res, err := svc.Create(ctx, map[string]any{"Capacity": float64(50)})
	require.NoError(t, err)
	assert.Equal(t, CreateResult{ID: "Theatre2", Generated: true}, res)

	n, err := c.Counter.Current(ctx, "Theatre")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	doc, err := store.Get(ctx, "Theatre", "Theatre1")
	require.NoError(t, err)
	assert.EqualValues(t, 100, doc["Capacity"], "caller document untouched")
}

func TestCreate_MintGivesUpAfterBoundedAttempts(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	ctx := context.Background()
	svc := c.Service("Theatre")

	for i := 1; i <= maxMintAttempts; i++ {
		_, err := svc.Create(ctx, map[string]any{"TheatreID": FormatID("Theatre", int64(i)), "Capacity": float64(1)})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, map[string]any{"Capacity": float64(1)})
	assert.ErrorIs(t, err, ErrConflict)

	res, err := svc.Create(ctx, map[string]any{"Capacity": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, FormatID("Theatre", maxMintAttempts+1), res.ID)
}

func TestCreateTicket_ChecksEveryReference(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	ctx := context.Background()
	seedFilmAndTheatre(t, c)
	_, err := c.Service("Screening").Create(ctx, screeningBody("Film1", "Theatre1"))
	require.NoError(t, err)
	_, err = c.Service("Booking").Create(ctx, map[string]any{
		"BookingID": "B1", "ScreeningID": "Screening1", "NoOfSeats": float64(2), "Cost": 19.5, "EmailAddress": "a@b.com",
	})
	require.NoError(t, err)

	body := map[string]any{"BookingID": "B1", "ScreeningID": "Screening1", "TicketType": "adult"}
	_, err = c.Service("Ticket").Create(ctx, body)
	assert.EqualError(t, err, "TicketType adult not found")

	_, err = c.Service("TicketType").Create(ctx, map[string]any{"TicketTypeID": "adult", "Cost": 9.75})
	require.NoError(t, err)
	res, err := c.Service("Ticket").Create(ctx, body)
	require.NoError(t, err)
	assert.Equal(t, "Ticket1", res.ID)
}

func TestUpdate_EmptyBodyLeavesDocument(t *testing.T) {
	c, store, _ := newTestCatalog(t)
	ctx := context.Background()
	seedFilmAndTheatre(t, c)
	_, err := c.Service("Screening").Create(ctx, screeningBody("Film1", "Theatre1"))
	require.NoError(t, err)
	before, err := store.Get(ctx, "Screening", "Screening1")
	require.NoError(t, err)

	for _, body := range []map[string]any{{}, {"Unknown": 1}, {"ScreeningID": "x"}, {"Date": nil}} {
		err := c.Service("Screening").Update(ctx, "Screening1", body)
		assert.ErrorIs(t, err, ErrValidation)
	}

	after, err := store.Get(ctx, "Screening", "Screening1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdate_MergesAndRevalidatesReferences(t *testing.T) {
	c, _, pub := newTestCatalog(t)
	ctx := context.Background()
	seedFilmAndTheatre(t, c)
	svc := c.Service("Screening")
	_, err := svc.Create(ctx, screeningBody("Film1", "Theatre1"))
	require.NoError(t, err)

	err = svc.Update(ctx, "Screening1", map[string]any{"FilmID": "Film404"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Update(ctx, "Screening1", map[string]any{"SeatsRemaining": float64(90), "FilmID": "Film1"}))
	got, err := svc.Get(ctx, "Screening1")
	require.NoError(t, err)
	assert.Equal(t, int64(90), got["SeatsRemaining"])
	assert.Equal(t, "Film1", got["FilmID"])
	assert.Equal(t, "18:00", got["StartTime"])

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, queue.ActionUpdated, last.Action)
	assert.Equal(t, []string{"FilmID", "SeatsRemaining"}, last.Fields)
}

func TestUpdate_MissingEntity(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	err := c.Service("Film").Update(context.Background(), "Film9", map[string]any{"Name": "Y"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Film not found")
}

func TestDelete_MissingEntityForEveryCollection(t *testing.T) {
	c, store, _ := newTestCatalog(t)
	ctx := context.Background()
	seedFilmAndTheatre(t, c)

	for _, svc := range c.All() {
		err := svc.Delete(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound, svc.Schema().Collection)
	}

	films, err := store.List(ctx, "Film")
	require.NoError(t, err)
	assert.Len(t, films, 1)
}

func TestDelete_DoesNotCascade(t *testing.T) {
	c, _, pub := newTestCatalog(t)
	ctx := context.Background()
	seedFilmAndTheatre(t, c)
	_, err := c.Service("Screening").Create(ctx, screeningBody("Film1", "Theatre1"))
	require.NoError(t, err)

	require.NoError(t, c.Service("Film").Delete(ctx, "Film1"))

	_, err = c.Service("Film").Get(ctx, "Film1")
	assert.ErrorIs(t, err, ErrNotFound)
	s, err := c.Service("Screening").Get(ctx, "Screening1")
	require.NoError(t, err)
	assert.Equal(t, "Film1", s["FilmID"])
	assert.Equal(t, queue.ActionDeleted, pub.events[len(pub.events)-1].Action)
}

func TestScreeningsForFilm(t *testing.T) {
	c, store, _ := newTestCatalog(t)
	ctx := context.Background()
	seedFilmAndTheatre(t, c)
	_, err := c.Service("Film").Create(ctx, map[string]any{
		"FilmID": "Film2", "Name": "Z", "Category": "A", "Genre": "Horror", "Duration": float64(95),
	})
	require.NoError(t, err)

	got, err := c.ScreeningsForFilm(ctx, "Film1")
	require.NoError(t, err)
	assert.Empty(t, got)

	base := repository.Document{"TheatreID": "Theatre1", "Date": "2025-01-01", "StartTime": "18:00", "SeatsRemaining": float64(10)}
	put := func(id string, film any) {
		doc := base.Clone()
		doc["FilmID"] = film
		require.NoError(t, store.Set(ctx, "Screening", id, doc))
	}
	put("Screening3", "Film1")
	put("Screening9", map[string]any{"collection": "Film", "id": "Film1"})
	put("Screening4", "Film2")

	got, err = c.ScreeningsForFilm(ctx, "/Film/Film1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	var ids []any
	for _, s := range got {
		ids = append(ids, s["ScreeningID"])
		assert.Equal(t, "Film1", s["FilmID"])
	}
	assert.ElementsMatch(t, []any{"Screening3", "Screening9"}, ids)

	_, err = c.ScreeningsForFilm(ctx, "Film404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_PublishFailureDoesNotFailWrite(t *testing.T) {
	store := repository.NewMemoryDocs()
	pub := &recordingPublisher{err: errors.New("broker down")}
	c := NewCatalog(store, pub)

	_, err := c.Service("TicketType").Create(context.Background(), map[string]any{"TicketTypeID": "child", "Cost": float64(5)})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "TicketType", pub.events[0].Collection)
	assert.Equal(t, queue.ActionCreated, pub.events[0].Action)
}

func TestSchemaIsExposed(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	assert.Equal(t, model.Booking, c.Service("Booking").Schema())
	assert.Nil(t, c.Service("Cinema"))
}
