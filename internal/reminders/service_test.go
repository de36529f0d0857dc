package reminders

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"barbershop-backend/internal/appointments"
	"barbershop-backend/internal/models"
	"barbershop-backend/internal/schedule"
)

type fakeLister struct {
	items map[string]*appointments.Appointment
}

func (f *fakeLister) ListUpcoming(_ context.Context, now time.Time, horizon time.Duration, _ int64) ([]appointments.Appointment, error) {
	var out []appointments.Appointment
	for _, a := range f.items {
		if a.Status != appointments.StatusScheduled && a.Status != appointments.StatusConfirmed {
			continue
		}
		if a.ScheduledTime.Before(now) || a.ScheduledTime.After(now.Add(horizon)) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeLister) MarkWindowSent(_ context.Context, id string, set bson.M, _ time.Time) error {
	a, ok := f.items[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if v, ok := set["reminder_24h_sent"].(bool); ok {
		a.Reminder24hSent = v
	}
	if v, ok := set["reminder_2h_sent"].(bool); ok {
		a.Reminder2hSent = v
	}
	if v, ok := set["reminder_sent"].(bool); ok {
		a.ReminderSent = v
	}
	return nil
}

type fakeUserSource struct {
	users map[string]models.User
}

func (f *fakeUserSource) GetUser(_ context.Context, id string) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

type sentPush struct {
	UserID string
	Title  string
}

type pushRecorder struct {
	sent []sentPush
}

func (p *pushRecorder) Send(_ context.Context, userID, title, _ string) {
	p.sent = append(p.sent, sentPush{UserID: userID, Title: title})
}

type smsRecorder struct {
	phones []string
}

func (s *smsRecorder) Send(_ context.Context, phone, _ string) {
	s.phones = append(s.phones, phone)
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(lister *fakeLister, push *pushRecorder, sms *smsRecorder, users *fakeUserSource) *Service {
	if users == nil {
		users = &fakeUserSource{users: map[string]models.User{}}
	}
	svc := NewService(lister, users, push, sms, slog.New(slog.NewTextHandler(io.Discard, nil)), 500)
	svc.now = func() time.Time { return testNow }
	return svc
}

func scheduledAt(id string, in time.Duration) *appointments.Appointment {
	return &appointments.Appointment{
		ID:            id,
		ClientUserID:  "user_1",
		Status:        appointments.StatusScheduled,
		ScheduledTime: testNow.Add(in),
	}
}

func TestRunFires24hWindow(t *testing.T) {
	lister := &fakeLister{items: map[string]*appointments.Appointment{
		"appt_1": scheduledAt("appt_1", 24*time.Hour),
	}}
	push := &pushRecorder{}
	svc := newTestService(lister, push, &smsRecorder{}, nil)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Firing{{AppointmentID: "appt_1", Window: "24h"}}, result.Fired)
	require.True(t, lister.items["appt_1"].Reminder24hSent)
	require.True(t, lister.items["appt_1"].ReminderSent)
	require.False(t, lister.items["appt_1"].Reminder2hSent)
	require.Len(t, push.sent, 1)
}

func TestRunFires2hWindow(t *testing.T) {
	lister := &fakeLister{items: map[string]*appointments.Appointment{
		"appt_1": scheduledAt("appt_1", 2*time.Hour),
	}}
	push := &pushRecorder{}
	svc := newTestService(lister, push, &smsRecorder{}, nil)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Firing{{AppointmentID: "appt_1", Window: "2h"}}, result.Fired)
	require.True(t, lister.items["appt_1"].Reminder2hSent)
	require.False(t, lister.items["appt_1"].Reminder24hSent)
}

func TestRunSecondPassIsNoOp(t *testing.T) {
	lister := &fakeLister{items: map[string]*appointments.Appointment{
		"appt_1": scheduledAt("appt_1", 24*time.Hour),
	}}
	push := &pushRecorder{}
	svc := newTestService(lister, push, &smsRecorder{}, nil)

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Fired, 1)

	second, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, second.Fired)
	require.Len(t, push.sent, 1)
}

func TestRunWindowBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		in    time.Duration
		fires bool
	}{
		{"just outside 24h upper", 24*time.Hour + 31*time.Minute, false},
		{"at 24h upper bound", 24*time.Hour + 30*time.Minute, true},
		{"at 24h lower bound", 23*time.Hour + 30*time.Minute, true},
		{"just inside gap", 23*time.Hour + 29*time.Minute, false},
		{"at 2h upper bound", 150 * time.Minute, true},
		{"at 2h lower bound", 90 * time.Minute, true},
		{"too close", 89 * time.Minute, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lister := &fakeLister{items: map[string]*appointments.Appointment{
				"appt_1": scheduledAt("appt_1", tc.in),
			}}
			svc := newTestService(lister, &pushRecorder{}, &smsRecorder{}, nil)

			result, err := svc.Run(context.Background())
			require.NoError(t, err)
			require.Equal(t, tc.fires, len(result.Fired) == 1)
		})
	}
}

func TestRunWindowsAreIndependent(t *testing.T) {
	// 24h already sent must not block the 2h reminder.
	a := scheduledAt("appt_1", 2*time.Hour)
	a.Reminder24hSent = true
	a.ReminderSent = true
	lister := &fakeLister{items: map[string]*appointments.Appointment{"appt_1": a}}
	svc := newTestService(lister, &pushRecorder{}, &smsRecorder{}, nil)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Firing{{AppointmentID: "appt_1", Window: "2h"}}, result.Fired)
}

func TestRunSkipsClosedAppointments(t *testing.T) {
	a := scheduledAt("appt_1", 2*time.Hour)
	a.Status = appointments.StatusCancelled
	lister := &fakeLister{items: map[string]*appointments.Appointment{"appt_1": a}}
	svc := newTestService(lister, &pushRecorder{}, &smsRecorder{}, nil)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Fired)
}

func TestRunSendsSMSWhenPhoneKnown(t *testing.T) {
	lister := &fakeLister{items: map[string]*appointments.Appointment{
		"appt_1": scheduledAt("appt_1", 2*time.Hour),
	}}
	sms := &smsRecorder{}
	users := &fakeUserSource{users: map[string]models.User{
		"user_1": {ID: "user_1", Phone: "+34600111222"},
	}}
	svc := newTestService(lister, &pushRecorder{}, sms, users)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"+34600111222"}, sms.phones)
}

func TestRescheduleMakesAppointmentEligibleAgain(t *testing.T) {
	// Flags cleared by a reschedule mean the scheduler fires again for the
	// new slot.
	a := scheduledAt("appt_1", 24*time.Hour)
	a.Reminder24hSent = false
	a.Reminder2hSent = false
	a.ReminderSent = false
	lister := &fakeLister{items: map[string]*appointments.Appointment{"appt_1": a}}
	svc := newTestService(lister, &pushRecorder{}, &smsRecorder{}, nil)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Fired, 1)
	require.Equal(t, schedule.Window24h.Name, result.Fired[0].Window)
}
