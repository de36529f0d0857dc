package appointments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeRepo struct {
	items map[string]Appointment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[string]Appointment)}
}

func (f *fakeRepo) Create(ctx context.Context, appointment Appointment) error {
	f.items[appointment.ID] = appointment
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (Appointment, error) {
	appointment, ok := f.items[id]
	if !ok {
		return Appointment{}, mongo.ErrNoDocuments
	}
	return appointment, nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter, limit int64) ([]Appointment, error) {
	items := make([]Appointment, 0)
	for _, a := range f.items {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		items = append(items, a)
	}
	return items, nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, set bson.M, now time.Time) (Appointment, error) {
	appointment, ok := f.items[id]
	if !ok {
		return Appointment{}, mongo.ErrNoDocuments
	}
	if status, ok := set["status"].(string); ok {
		appointment.Status = status
	}
	if notes, ok := set["notes"].(string); ok {
		appointment.Notes = notes
	}
	appointment.UpdatedAt = now
	f.items[id] = appointment
	return appointment, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) Reschedule(ctx context.Context, id string, newTime time.Time, notes string, now time.Time) (Appointment, error) {
	appointment, ok := f.items[id]
	if !ok {
		return Appointment{}, mongo.ErrNoDocuments
	}
	appointment.ScheduledTime = newTime
	appointment.Status = StatusScheduled
	appointment.ReminderSent = false
	appointment.Reminder24hSent = false
	appointment.Reminder2hSent = false
	appointment.Notes = notes
	appointment.UpdatedAt = now
	f.items[id] = appointment
	return appointment, nil
}

func (f *fakeRepo) ListUpcoming(ctx context.Context, now time.Time, horizon time.Duration, limit int64) ([]Appointment, error) {
	return nil, nil
}

func (f *fakeRepo) MarkWindowSent(ctx context.Context, id string, set bson.M, now time.Time) error {
	return nil
}

func (f *fakeRepo) SetDepositFields(ctx context.Context, id, depositStatus, depositID string, amount float64, now time.Time) error {
	return nil
}

func newTestService(repo *fakeRepo, now time.Time) *Service {
	s := NewService(repo)
	s.now = func() time.Time { return now }
	return s
}

func seedAppointment(repo *fakeRepo, id, status string, scheduled time.Time) {
	repo.items[id] = Appointment{
		ID:              id,
		ShopID:          "shop_1",
		BarberID:        "barber_1",
		ClientUserID:    "user_1",
		ServiceID:       "service_1",
		ScheduledTime:   scheduled,
		Status:          status,
		ReminderSent:    true,
		Reminder24hSent: true,
		Reminder2hSent:  true,
	}
}

func TestCreateNormalizesToUTC(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	created, err := svc.Create(context.Background(), CreateRequest{
		ShopID:        "shop_1",
		BarberID:      "barber_1",
		ClientUserID:  "user_1",
		ServiceID:     "service_1",
		ScheduledTime: "2026-03-12T16:00:00+02:00",
	})
	require.NoError(t, err)
	require.Equal(t, StatusScheduled, created.Status)
	require.Equal(t, DepositNotRequired, created.DepositStatus)
	require.True(t, created.ScheduledTime.Equal(time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)))
	require.True(t, strings.HasPrefix(created.ID, "appt_"))
}

func TestCreateWithDepositRequired(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	created, err := svc.Create(context.Background(), CreateRequest{
		ShopID:          "shop_1",
		BarberID:        "barber_1",
		ClientUserID:    "user_1",
		ServiceID:       "service_1",
		ScheduledTime:   "2026-03-12T16:00:00",
		DepositRequired: true,
		DepositAmount:   15,
	})
	require.NoError(t, err)
	require.Equal(t, DepositPending, created.DepositStatus)
	require.Equal(t, 15.0, created.DepositAmount)
}

func TestRescheduleHappyPath(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	seedAppointment(repo, "appt_1", StatusConfirmed, now.Add(5*time.Hour))

	updated, err := svc.Reschedule(context.Background(), "appt_1", RescheduleRequest{
		NewTime: "2026-03-12T10:00:00",
		Reason:  "cliente pidio otro dia",
	})
	require.NoError(t, err)
	require.Equal(t, StatusScheduled, updated.Status)
	require.False(t, updated.ReminderSent)
	require.False(t, updated.Reminder24hSent)
	require.False(t, updated.Reminder2hSent)
	require.Contains(t, updated.Notes, RescheduleMarker+" cliente pidio otro dia")
	require.True(t, updated.ScheduledTime.Equal(time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)))
}

func TestRescheduleClosedAppointment(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	for _, status := range []string{StatusCompleted, StatusCancelled} {
		seedAppointment(repo, "appt_1", status, now.Add(5*time.Hour))
		_, err := svc.Reschedule(context.Background(), "appt_1", RescheduleRequest{NewTime: "2026-03-12T10:00:00"})
		require.ErrorIs(t, err, ErrClosed)
	}
}

func TestRescheduleLeadTimeBoundary(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	// 1h59m away: refused.
	seedAppointment(repo, "appt_near", StatusScheduled, now.Add(time.Hour+59*time.Minute))
	_, err := svc.Reschedule(context.Background(), "appt_near", RescheduleRequest{NewTime: "2026-03-12T10:00:00"})
	require.ErrorIs(t, err, ErrTooCloseToSlot)

	// 2h01m away: allowed.
	seedAppointment(repo, "appt_far", StatusScheduled, now.Add(2*time.Hour+time.Minute))
	_, err = svc.Reschedule(context.Background(), "appt_far", RescheduleRequest{NewTime: "2026-03-12T10:00:00"})
	require.NoError(t, err)
}

func TestRescheduleNewTimeMustBeFuture(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	seedAppointment(repo, "appt_1", StatusScheduled, now.Add(5*time.Hour))

	_, err := svc.Reschedule(context.Background(), "appt_1", RescheduleRequest{NewTime: "2026-03-10T12:00:00"})
	require.ErrorIs(t, err, ErrNotFuture)

	_, err = svc.Reschedule(context.Background(), "appt_1", RescheduleRequest{NewTime: "2026-03-09T10:00:00"})
	require.ErrorIs(t, err, ErrNotFuture)
}

func TestRescheduleNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	_, err := svc.Reschedule(context.Background(), "appt_missing", RescheduleRequest{NewTime: "2026-03-12T10:00:00"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.List(context.Background(), ListFilter{Status: "closed"}, 100)
	require.ErrorIs(t, err, ErrInvalidStatus)
}
