package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-run-board/internal/adapters/backend"
	"pet-run-board/internal/adapters/storage/memory"
	"pet-run-board/internal/domain/assignments"
	"pet-run-board/internal/domain/roster"
	"pet-run-board/internal/domain/runboard"
	"pet-run-board/internal/middleware"
)

const day = "2026-10-14"

type backendFixture struct {
	client *backend.Client
	runs   *assignments.Service
	yard   assignments.Run
}

func newBackend(t *testing.T) backendFixture {
	t.Helper()

	runs := assignments.NewService(memory.NewAssignmentsRepo())
	stays := roster.NewService(memory.NewRosterRepo(), time.UTC)

	hour := 60
	yard, err := runs.CreateRun(context.Background(), assignments.RunInput{Name: "Yard", MaxCapacity: 2, TimePeriodMinutes: &hour})
	require.NoError(t, err)

	checkIn := time.Date(2026, 10, 14, 8, 30, 0, 0, time.UTC)
	_, err = stays.CheckIn(context.Background(), day, roster.CheckInInput{
		PetID: "p1", PetName: "Rex", Species: "dog",
		BehaviorFlags: []string{roster.FlagReactive},
		MedicalNotes:  "insulin",
		CheckIn:       &checkIn,
		CheckOut:      checkIn.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.AuthContext(nil))
	assignments.RegisterRoutes(r, runs)
	roster.RegisterRoutes(r, stays)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := backend.NewClient(backend.Config{BaseURL: srv.URL, OperatorID: "op-1"})
	require.NoError(t, err)
	return backendFixture{client: c, runs: runs, yard: yard}
}

func TestClient_RoundTripAgainstBackendHandlers(t *testing.T) {
	f := newBackend(t)
	ctx := context.Background()

	board, err := f.client.FetchForDate(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, day, board.Date)
	require.Len(t, board.Runs, 1)
	assert.Equal(t, "Yard", board.Runs[0].Name)
	require.NotNil(t, board.Runs[0].TimePeriodMinutes)
	assert.Equal(t, 60, *board.Runs[0].TimePeriodMinutes)
	assert.Empty(t, board.Assignments)

	saved, err := f.client.SaveAll(ctx, day, []runboard.Assignment{
		{RunID: f.yard.ID, PetID: "p1", StartTime: "09:00", EndTime: "10:00", Notes: "slow walker"},
	})
	require.NoError(t, err)
	require.Len(t, saved.Assignments, 1)
	assert.NotEmpty(t, saved.Assignments[0].ID)
	assert.Equal(t, "slow walker", saved.Assignments[0].Notes)
	assert.Greater(t, saved.Epoch, board.Epoch)

	slots, err := f.client.AvailableSlots(ctx, f.yard.ID, day)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.Equal(t, "07:00", slots[0].StartTime)

	pets, err := f.client.CheckedIn(ctx, day)
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, "Rex", pets[0].Name)
	assert.True(t, pets[0].HasMedicalNotes)
	require.NotNil(t, pets[0].Booking)
	assert.Equal(t, 8, pets[0].Booking.CheckIn.Hour())

	created, err := f.client.CreateAssignment(ctx, day, runboard.Assignment{
		RunID: f.yard.ID, PetID: "p2", StartTime: "11:00", EndTime: "12:00",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	require.NoError(t, f.client.DeleteAssignment(ctx, day, f.yard.ID, "p2"))

	after, err := f.client.FetchForDate(ctx, day)
	require.NoError(t, err)
	require.Len(t, after.Assignments, 1)
	assert.Equal(t, "p1", after.Assignments[0].PetID)
}

func TestClient_BackendRejectionSurfacesHTTPError(t *testing.T) {
	f := newBackend(t)

	_, err := f.client.SaveAll(context.Background(), day, []runboard.Assignment{
		{RunID: f.yard.ID, PetID: "p1", StartTime: "10:00", EndTime: "09:00"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
}

func TestClient_RejectsSchemaMismatch(t *testing.T) {
	cases := map[string]string{
		"unknown field":      `{"date":"2026-10-14","epoch":1,"runs":[],"assignments":[],"extra":true}`,
		"missing runs":       `{"date":"2026-10-14","epoch":1,"assignments":[]}`,
		"run without id":     `{"date":"2026-10-14","epoch":1,"runs":[{"name":"Yard"}],"assignments":[]}`,
		"assignment no time": `{"date":"2026-10-14","epoch":1,"runs":[],"assignments":[{"id":"a","run_id":"r","pet_id":"p","end_time":"10:00"}]}`,
		"trailing garbage":   `{"date":"2026-10-14","epoch":1,"runs":[],"assignments":[]} x`,
		"another date":       `{"date":"2026-10-15","epoch":1,"runs":[],"assignments":[]}`,
		"start not HH:MM":    `{"date":"2026-10-14","epoch":1,"runs":[],"assignments":[{"id":"a","run_id":"r","pet_id":"p","start_time":"9:00","end_time":"10:00"}]}`,
		"end with spaces":    `{"date":"2026-10-14","epoch":1,"runs":[],"assignments":[{"id":"a","run_id":"r","pet_id":"p","start_time":"09:00","end_time":" 10:00"}]}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			c, err := backend.NewClient(backend.Config{BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = c.FetchForDate(context.Background(), day)
			assert.ErrorIs(t, err, backend.ErrSchema)
		})
	}
}

func TestClient_RejectsMalformedSlots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"slots":[{"start_time":"09:00","end_time":"10:00","available":true},{"start_time":"7:00","end_time":"08:00","available":true}]}`))
	}))
	defer srv.Close()

	c, err := backend.NewClient(backend.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.AvailableSlots(context.Background(), "r1", day)
	require.ErrorIs(t, err, backend.ErrSchema)
	assert.Contains(t, err.Error(), "slots[1]")
}

func TestClient_DefaultsOptionalRunFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"date":"2026-10-14","runs":[{"id":"r1","name":"Den","time_period_minutes":null}],"assignments":[]}`))
	}))
	defer srv.Close()

	c, err := backend.NewClient(backend.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	board, err := c.FetchForDate(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, board.Runs, 1)
	assert.Nil(t, board.Runs[0].TimePeriodMinutes)
	assert.Equal(t, runboard.DefaultMaxCapacity, board.Runs[0].Capacity())
	assert.Zero(t, board.Epoch)
}

func TestClient_SendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-Debug-User-ID"))
		_, _ = w.Write([]byte(`{"slots":[{"start_time":"07:00","end_time":"07:30","available":false}]}`))
	}))
	defer srv.Close()

	c, err := backend.NewClient(backend.Config{BaseURL: srv.URL, APIKey: "secret", Token: "tok", OperatorID: "ignored"})
	require.NoError(t, err)

	slots, err := c.AvailableSlots(context.Background(), "r1", day)
	require.NoError(t, err)
	assert.Equal(t, []runboard.Window{{StartTime: "07:00", EndTime: "07:30", Available: false}}, slots)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := backend.NewClient(backend.Config{})
	assert.ErrorIs(t, err, backend.ErrNotConfigured)
}
