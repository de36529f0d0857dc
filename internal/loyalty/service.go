package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"barbershop-backend/internal/appointments"
	"barbershop-backend/internal/metrics"
	"barbershop-backend/internal/models"
	"barbershop-backend/internal/schedule"
)

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrReferralCodeNotFound = errors.New("referral code not found")
	ErrNotCompleted         = errors.New("cannot earn points for a non-completed appointment")
	ErrNoClient             = errors.New("appointment has no client")
)

// AppointmentSource is the read-only slice of the appointments repository
// the ledger consults before crediting.
type AppointmentSource interface {
	GetByID(ctx context.Context, id string) (appointments.Appointment, error)
}

// Notifier delivers best-effort notifications; implementations never return
// an error to the ledger.
type Notifier interface {
	Send(ctx context.Context, userID, title, body string)
}

type Service struct {
	repo     Repository
	appts    AppointmentSource
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, appts AppointmentSource, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		appts:    appts,
		notifier: notifier,
		now:      time.Now,
	}
}

// EarnFromAppointment credits the client of a completed appointment exactly
// once per appointment. Rules are passed in by the caller so a concurrent
// rules update never changes the amounts mid-operation.
func (s *Service) EarnFromAppointment(ctx context.Context, rules Rules, appointmentID string) (WalletView, error) {
	appointment, err := s.appts.GetByID(ctx, strings.TrimSpace(appointmentID))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return WalletView{}, ErrAppointmentNotFound
		}
		return WalletView{}, err
	}
	if appointment.Status != appointments.StatusCompleted {
		return WalletView{}, ErrNotCompleted
	}
	if appointment.ClientUserID == "" {
		return WalletView{}, ErrNoClient
	}

	clientID := appointment.ClientUserID
	now := schedule.NormalizeUTC(s.now())

	entry := Entry{
		ID:        models.NewID("lent"),
		UserID:    clientID,
		Type:      EntryTypeAppointment,
		Points:    rules.PointsPerCompletedAppointment,
		SourceID:  appointment.ID,
		CreatedAt: now,
	}
	switch err := s.repo.InsertEntry(ctx, entry); {
	case errors.Is(err, ErrDuplicateEntry):
		// Already credited for this appointment: return the wallet unchanged.
		return s.walletView(ctx, clientID)
	case err != nil:
		return WalletView{}, err
	}

	wallet, err := s.repo.AddPoints(ctx, clientID, entry.Points, now)
	if err != nil {
		// Roll the entry back so a retry credits instead of reading as
		// already credited.
		_ = s.repo.DeleteEntry(ctx, entry.ID)
		return WalletView{}, err
	}
	metrics.PointsAccrued.WithLabelValues(EntryTypeAppointment).Add(float64(entry.Points))

	s.grantReferralBonus(ctx, rules, clientID, now)

	if wallet.Points >= rules.RewardThreshold {
		// Fires on every accrual above threshold, not only on crossing.
		s.notifier.Send(ctx, clientID, "Recompensa disponible",
			fmt.Sprintf("Ya tienes %d puntos. %s", wallet.Points, rules.RewardDescription))
	}

	return s.walletView(ctx, clientID)
}

// grantReferralBonus credits the client's referrer at most once per referred
// client, no matter how many appointments that client completes. Failures
// here never abort the primary accrual.
func (s *Service) grantReferralBonus(ctx context.Context, rules Rules, clientID string, now time.Time) {
	user, err := s.repo.GetUser(ctx, clientID)
	if err != nil || user.ReferredBy == "" {
		return
	}

	entry := Entry{
		ID:        models.NewID("lent"),
		UserID:    user.ReferredBy,
		Type:      EntryTypeReferralBonus,
		Points:    rules.ReferralBonus,
		SourceID:  clientID,
		CreatedAt: now,
	}
	if err := s.repo.InsertEntry(ctx, entry); err != nil {
		return
	}

	if _, err := s.repo.AddPoints(ctx, user.ReferredBy, entry.Points, now); err != nil {
		_ = s.repo.DeleteEntry(ctx, entry.ID)
		return
	}
	metrics.PointsAccrued.WithLabelValues(EntryTypeReferralBonus).Add(float64(entry.Points))

	s.notifier.Send(ctx, user.ReferredBy, "Bonus de referido",
		fmt.Sprintf("Ganaste %d puntos porque tu referido completo su primera cita.", entry.Points))
}

// RegisterReferral binds a user to a referrer exactly once. A user already
// bound is a success no-op.
func (s *Service) RegisterReferral(ctx context.Context, req RegisterReferralRequest) (string, error) {
	user, err := s.repo.GetUser(ctx, strings.TrimSpace(req.UserID))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	code := strings.ToUpper(strings.TrimSpace(req.ReferralCode))
	referrer, err := s.repo.FindUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrReferralCodeNotFound
		}
		return "", err
	}

	if user.ReferredBy != "" {
		return "referral already registered", nil
	}

	now := schedule.NormalizeUTC(s.now())
	if err := s.repo.SetUserReferredBy(ctx, user.ID, referrer.ID); err != nil {
		return "", err
	}
	if err := s.repo.SetWalletReferrer(ctx, user.ID, referrer.ID, now); err != nil {
		return "", err
	}

	return "referral registered", nil
}

// GetWallet returns the wallet with its history. A user who never earned
// points gets an empty wallet, not an error.
func (s *Service) GetWallet(ctx context.Context, userID string) (WalletView, error) {
	return s.walletView(ctx, strings.TrimSpace(userID))
}

// ReferralCode returns the user's code, generating and persisting it on
// first use. Collisions on the unique index are retried with a fresh suffix.
func (s *Service) ReferralCode(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if user.ReferralCode != "" {
		return user.ReferralCode, nil
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		code := GenerateReferralCode(user.Email)
		lastErr = s.repo.SetUserReferralCode(ctx, user.ID, code)
		if lastErr == nil {
			return code, nil
		}
		if !errors.Is(lastErr, ErrCodeTaken) {
			return "", lastErr
		}
	}
	return "", lastErr
}

func (s *Service) GetRules(ctx context.Context) (Rules, error) {
	return s.repo.GetRules(ctx)
}

func (s *Service) UpdateRules(ctx context.Context, req UpdateRulesRequest) (Rules, error) {
	rules := Rules{
		ID:                            RulesDocID,
		PointsPerCompletedAppointment: req.PointsPerCompletedAppointment,
		ReferralBonus:                 req.ReferralBonus,
		RewardThreshold:               req.RewardThreshold,
		RewardDescription:             strings.TrimSpace(req.RewardDescription),
		UpdatedAt:                     schedule.NormalizeUTC(s.now()),
	}
	if err := s.repo.UpdateRules(ctx, rules); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (s *Service) walletView(ctx context.Context, userID string) (WalletView, error) {
	view := WalletView{UserID: userID, History: []Entry{}}

	wallet, err := s.repo.GetWallet(ctx, userID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return WalletView{}, err
	}
	if err == nil {
		view.Points = wallet.Points
		view.ReferredBy = wallet.ReferredBy
	}

	history, err := s.repo.ListEntries(ctx, userID)
	if err != nil {
		return WalletView{}, err
	}
	view.History = history
	return view, nil
}
