package deposits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"barbershop-backend/internal/appointments"
	"barbershop-backend/internal/models"
	"barbershop-backend/internal/schedule"
)

var (
	ErrNotFound            = errors.New("deposit not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAlreadyPaid         = errors.New("appointment deposit already paid")
	ErrInvalidStatus       = errors.New("invalid deposit status")
	ErrInvalidTransition   = errors.New("invalid deposit status transition")
)

const paymentURLBase = "https://payments.example.com/checkout/"

// AppointmentLedger is the slice of the appointments repository the deposit
// ledger needs: read the bound appointment and mirror deposit fields onto it.
type AppointmentLedger interface {
	GetByID(ctx context.Context, id string) (appointments.Appointment, error)
	SetDepositFields(ctx context.Context, id, depositStatus, depositID string, amount float64, now time.Time) error
}

type Service struct {
	repo  Repository
	appts AppointmentLedger
	now   func() time.Time
}

func NewService(repo Repository, appts AppointmentLedger) *Service {
	return &Service{
		repo:  repo,
		appts: appts,
		now:   time.Now,
	}
}

// Create opens a pending hold. The payment URL is an opaque placeholder for
// an external payment provider, not a real integration.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Deposit, error) {
	appointmentID := strings.TrimSpace(req.AppointmentID)
	if appointmentID != "" {
		appointment, err := s.appts.GetByID(ctx, appointmentID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return Deposit{}, ErrAppointmentNotFound
			}
			return Deposit{}, err
		}
		if appointment.DepositStatus == appointments.DepositPaid {
			return Deposit{}, ErrAlreadyPaid
		}
	}

	now := schedule.NormalizeUTC(s.now())
	deposit := Deposit{
		ID:            models.NewID("dep"),
		AppointmentID: appointmentID,
		ClientUserID:  strings.TrimSpace(req.ClientUserID),
		Amount:        req.Amount,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
		Status:        StatusPending,
		Provider:      strings.TrimSpace(req.Provider),
		Metadata:      req.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	deposit.PaymentURL = paymentURLBase + deposit.ID

	if err := s.repo.Create(ctx, deposit); err != nil {
		return Deposit{}, err
	}

	if appointmentID != "" {
		if err := s.appts.SetDepositFields(ctx, appointmentID, appointments.DepositPending, deposit.ID, deposit.Amount, now); err != nil {
			return Deposit{}, fmt.Errorf("mirror deposit onto appointment: %w", err)
		}
	}

	return deposit, nil
}

func (s *Service) Get(ctx context.Context, id string) (Deposit, error) {
	deposit, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Deposit{}, ErrNotFound
		}
		return Deposit{}, err
	}
	return deposit, nil
}

// Confirm settles the hold. Transitions outside the status machine are
// refused; a confirmed status is mirrored onto the bound appointment.
func (s *Service) Confirm(ctx context.Context, id string, req ConfirmRequest) (Deposit, error) {
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !IsConfirmableStatus(status) {
		return Deposit{}, ErrInvalidStatus
	}

	deposit, err := s.Get(ctx, id)
	if err != nil {
		return Deposit{}, err
	}

	if !CanTransition(deposit.Status, status) {
		return Deposit{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, deposit.Status, status)
	}

	now := schedule.NormalizeUTC(s.now())
	updated, err := s.repo.UpdateStatus(ctx, deposit.ID, status, strings.TrimSpace(req.PaymentURL), now)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Deposit{}, ErrNotFound
		}
		return Deposit{}, err
	}

	if updated.AppointmentID != "" {
		if err := s.appts.SetDepositFields(ctx, updated.AppointmentID, status, updated.ID, updated.Amount, now); err != nil {
			return Deposit{}, fmt.Errorf("mirror deposit onto appointment: %w", err)
		}
	}

	return updated, nil
}
