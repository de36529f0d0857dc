package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"barbershop-backend/internal/appointments"
	"barbershop-backend/internal/metrics"
	"barbershop-backend/internal/models"
	"barbershop-backend/internal/schedule"
)

// AppointmentLister is the slice of the appointments repository the
// scheduler needs: upcoming open appointments plus flag updates.
type AppointmentLister interface {
	ListUpcoming(ctx context.Context, now time.Time, horizon time.Duration, limit int64) ([]appointments.Appointment, error)
	MarkWindowSent(ctx context.Context, id string, set bson.M, now time.Time) error
}

// UserSource resolves the client of an appointment for phone delivery.
type UserSource interface {
	GetUser(ctx context.Context, id string) (models.User, error)
}

type Notifier interface {
	Send(ctx context.Context, userID, title, body string)
}

// SMS delivers a text to a phone number, best effort.
type SMS interface {
	Send(ctx context.Context, phone, message string)
}

// Firing records one reminder dispatched during a run.
type Firing struct {
	AppointmentID string `json:"appointment_id"`
	Window        string `json:"window"`
}

type RunResult struct {
	Checked int      `json:"checked"`
	Fired   []Firing `json:"fired"`
}

type Service struct {
	appts     AppointmentLister
	users     UserSource
	notifier  Notifier
	sms       SMS
	log       *slog.Logger
	batchSize int64
	now       func() time.Time
}

func NewService(appts AppointmentLister, users UserSource, notifier Notifier, sms SMS, log *slog.Logger, batchSize int64) *Service {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Service{
		appts:     appts,
		users:     users,
		notifier:  notifier,
		sms:       sms,
		log:       log,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run evaluates every open appointment inside the lookahead horizon against
// both reminder windows and dispatches whatever is due. The sent flags make
// a rerun inside the same window a no-op, so the trigger cadence only
// affects latency, never duplicate delivery.
func (s *Service) Run(ctx context.Context) (RunResult, error) {
	now := schedule.NormalizeUTC(s.now())

	items, err := s.appts.ListUpcoming(ctx, now, schedule.ReminderLookahead, s.batchSize)
	if err != nil {
		return RunResult{}, fmt.Errorf("list upcoming appointments: %w", err)
	}

	result := RunResult{Checked: len(items), Fired: []Firing{}}
	for _, appointment := range items {
		target := schedule.NormalizeUTC(appointment.ScheduledTime)

		if !appointment.Reminder24hSent && schedule.Window24h.Contains(now, target) {
			if err := s.fire(ctx, appointment, schedule.Window24h, now); err != nil {
				s.log.Error("reminders: 24h dispatch failed",
					slog.String("appointment_id", appointment.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			result.Fired = append(result.Fired, Firing{AppointmentID: appointment.ID, Window: schedule.Window24h.Name})
		}

		if !appointment.Reminder2hSent && schedule.Window2h.Contains(now, target) {
			if err := s.fire(ctx, appointment, schedule.Window2h, now); err != nil {
				s.log.Error("reminders: 2h dispatch failed",
					slog.String("appointment_id", appointment.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			result.Fired = append(result.Fired, Firing{AppointmentID: appointment.ID, Window: schedule.Window2h.Name})
		}
	}

	if len(result.Fired) > 0 {
		s.log.Info("reminders: run complete",
			slog.Int("checked", result.Checked),
			slog.Int("fired", len(result.Fired)),
		)
	}
	return result, nil
}

// fire marks the window as sent before delivering. Delivery is best effort,
// so a lost notification is preferable to a duplicate one.
func (s *Service) fire(ctx context.Context, appointment appointments.Appointment, window schedule.Window, now time.Time) error {
	set := bson.M{}
	switch window.Name {
	case schedule.Window24h.Name:
		set["reminder_24h_sent"] = true
		set["reminder_sent"] = true
	case schedule.Window2h.Name:
		set["reminder_2h_sent"] = true
	}
	if err := s.appts.MarkWindowSent(ctx, appointment.ID, set, now); err != nil {
		return fmt.Errorf("mark window sent: %w", err)
	}

	title, body := s.message(appointment, window)
	s.notifier.Send(ctx, appointment.ClientUserID, title, body)

	if s.users != nil && s.sms != nil {
		if user, err := s.users.GetUser(ctx, appointment.ClientUserID); err == nil && user.Phone != "" {
			s.sms.Send(ctx, user.Phone, body)
		}
	}

	metrics.RemindersFired.WithLabelValues(window.Name).Inc()
	return nil
}

func (s *Service) message(appointment appointments.Appointment, window schedule.Window) (string, string) {
	at := appointment.ScheduledTime.UTC().Format("02/01 15:04")
	if window.Name == schedule.Window2h.Name {
		return "Tu cita es pronto", fmt.Sprintf("Tu cita es a las %s. Te esperamos.", at)
	}
	return "Recordatorio de cita", fmt.Sprintf("Tienes una cita manana, %s.", at)
}
