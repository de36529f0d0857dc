package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"barbershop-backend/internal/models"
	"barbershop-backend/internal/schedule"
)

var (
	ErrNotFound       = errors.New("appointment not found")
	ErrInvalidStatus  = errors.New("invalid appointment status")
	ErrInvalidTime    = errors.New("invalid scheduled time")
	ErrClosed         = errors.New("cannot reschedule a closed appointment")
	ErrNotFuture      = errors.New("new time must be in the future")
	ErrTooCloseToSlot = errors.New("too close to current appointment to reschedule")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Appointment, error) {
	scheduledTime, err := schedule.ParseTimestamp(req.ScheduledTime)
	if err != nil {
		return Appointment{}, ErrInvalidTime
	}

	now := schedule.NormalizeUTC(s.now())
	appointment := Appointment{
		ID:              models.NewID("appt"),
		ShopID:          strings.TrimSpace(req.ShopID),
		BarberID:        strings.TrimSpace(req.BarberID),
		ClientUserID:    strings.TrimSpace(req.ClientUserID),
		ServiceID:       strings.TrimSpace(req.ServiceID),
		ScheduledTime:   schedule.NormalizeUTC(scheduledTime),
		Status:          StatusScheduled,
		Notes:           strings.TrimSpace(req.Notes),
		DepositRequired: req.DepositRequired,
		DepositStatus:   DepositNotRequired,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.DepositRequired {
		appointment.DepositStatus = DepositPending
		appointment.DepositAmount = req.DepositAmount
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		return Appointment{}, err
	}
	return appointment, nil
}

func (s *Service) Get(ctx context.Context, id string) (Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, err
	}
	return appointment, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit int64) ([]Appointment, error) {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	if filter.Status != "" && !IsValidStatus(filter.Status) {
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, filter, limit)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Appointment, error) {
	set := bson.M{}
	if req.Status != "" {
		set["status"] = req.Status
	}
	if req.Notes != "" {
		set["notes"] = strings.TrimSpace(req.Notes)
	}
	if len(set) == 0 {
		return s.Get(ctx, id)
	}

	updated, err := s.repo.Update(ctx, strings.TrimSpace(id), set, schedule.NormalizeUTC(s.now()))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Reschedule applies the lead-time policy: closed appointments stay put, the
// new time must be in the future, and the current slot must still be at
// least the minimum lead away.
func (s *Service) Reschedule(ctx context.Context, id string, req RescheduleRequest) (Appointment, error) {
	appointment, err := s.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}

	if IsClosed(appointment.Status) {
		return Appointment{}, ErrClosed
	}

	newTime, err := schedule.ParseTimestamp(req.NewTime)
	if err != nil {
		return Appointment{}, ErrInvalidTime
	}
	newTime = schedule.NormalizeUTC(newTime)

	now := schedule.NormalizeUTC(s.now())
	if !schedule.IsFuture(newTime, now) {
		return Appointment{}, ErrNotFuture
	}
	if schedule.TooCloseToReschedule(schedule.NormalizeUTC(appointment.ScheduledTime), now) {
		return Appointment{}, ErrTooCloseToSlot
	}

	notes := appointment.Notes
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		marked := RescheduleMarker + " " + reason
		if notes == "" {
			notes = marked
		} else {
			notes = notes + "\n" + marked
		}
	}

	updated, err := s.repo.Reschedule(ctx, appointment.ID, newTime, notes, now)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, err
	}
	return updated, nil
}
