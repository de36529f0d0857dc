package appointments

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"barbershop-backend/internal/validation"
)

func newHandlerTestRouter(repo *fakeRepo, now time.Time) http.Handler {
	handler := NewHandler(newTestService(repo, now), validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Get("/api/appointments/{id}", handler.Get)
	r.Put("/api/appointments/{id}/reschedule", handler.Reschedule)
	return r
}

func TestRescheduleEndpoint(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	seedAppointment(repo, "appt_1", StatusConfirmed, now.Add(48*time.Hour))
	router := newHandlerTestRouter(repo, now)

	body := `{"new_time":"2025-06-18T12:00:00Z","reason":"client asked"}`
	req := httptest.NewRequest(http.MethodPut, "/api/appointments/appt_1/reschedule", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var appointment Appointment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&appointment))
	require.Equal(t, StatusScheduled, appointment.Status)
	require.Equal(t, time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC), appointment.ScheduledTime.UTC())
	require.False(t, appointment.Reminder24hSent)
	require.False(t, appointment.Reminder2hSent)
	require.False(t, appointment.ReminderSent)
	require.Contains(t, appointment.Notes, "[Reprogramada]")
}

func TestRescheduleEndpointClosedAppointment(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	seedAppointment(repo, "appt_1", StatusCompleted, now.Add(-time.Hour))
	router := newHandlerTestRouter(repo, now)

	body := `{"new_time":"2025-06-18T12:00:00Z"}`
	req := httptest.NewRequest(http.MethodPut, "/api/appointments/appt_1/reschedule", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRescheduleEndpointBadTimestamp(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	seedAppointment(repo, "appt_1", StatusScheduled, now.Add(48*time.Hour))
	router := newHandlerTestRouter(repo, now)

	body := `{"new_time":"next tuesday"}`
	req := httptest.NewRequest(http.MethodPut, "/api/appointments/appt_1/reschedule", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEndpointNotFound(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	router := newHandlerTestRouter(newFakeRepo(), now)

	req := httptest.NewRequest(http.MethodGet, "/api/appointments/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
