package loyalty

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"barbershop-backend/internal/appointments"
	"barbershop-backend/internal/models"
)

type fakeLoyaltyRepo struct {
	entries map[string]Entry
	wallets map[string]Wallet
	rules   *Rules
	users   map[string]models.User

	insertErr    error
	addPointsErr error
}

func newFakeLoyaltyRepo() *fakeLoyaltyRepo {
	return &fakeLoyaltyRepo{
		entries: map[string]Entry{},
		wallets: map[string]Wallet{},
		users:   map[string]models.User{},
	}
}

func entryKey(e Entry) string {
	return e.UserID + "|" + e.Type + "|" + e.SourceID
}

func (f *fakeLoyaltyRepo) InsertEntry(_ context.Context, entry Entry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	key := entryKey(entry)
	if _, ok := f.entries[key]; ok {
		return ErrDuplicateEntry
	}
	f.entries[key] = entry
	return nil
}

func (f *fakeLoyaltyRepo) DeleteEntry(_ context.Context, id string) error {
	for key, e := range f.entries {
		if e.ID == id {
			delete(f.entries, key)
			return nil
		}
	}
	return nil
}

func (f *fakeLoyaltyRepo) ListEntries(_ context.Context, userID string) ([]Entry, error) {
	out := make([]Entry, 0)
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLoyaltyRepo) AddPoints(_ context.Context, userID string, points int, now time.Time) (Wallet, error) {
	if f.addPointsErr != nil {
		err := f.addPointsErr
		f.addPointsErr = nil
		return Wallet{}, err
	}
	w := f.wallets[userID]
	w.UserID = userID
	w.Points += points
	w.UpdatedAt = now
	f.wallets[userID] = w
	return w, nil
}

func (f *fakeLoyaltyRepo) GetWallet(_ context.Context, userID string) (Wallet, error) {
	w, ok := f.wallets[userID]
	if !ok {
		return Wallet{}, mongo.ErrNoDocuments
	}
	return w, nil
}

func (f *fakeLoyaltyRepo) SetWalletReferrer(_ context.Context, userID, referrerID string, now time.Time) error {
	w := f.wallets[userID]
	w.UserID = userID
	w.ReferredBy = referrerID
	w.UpdatedAt = now
	f.wallets[userID] = w
	return nil
}

func (f *fakeLoyaltyRepo) GetRules(_ context.Context) (Rules, error) {
	if f.rules == nil {
		return DefaultRules(), nil
	}
	return *f.rules, nil
}

func (f *fakeLoyaltyRepo) UpdateRules(_ context.Context, rules Rules) error {
	f.rules = &rules
	return nil
}

func (f *fakeLoyaltyRepo) GetUser(_ context.Context, id string) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

func (f *fakeLoyaltyRepo) FindUserByReferralCode(_ context.Context, code string) (models.User, error) {
	for _, u := range f.users {
		if u.ReferralCode == code {
			return u, nil
		}
	}
	return models.User{}, mongo.ErrNoDocuments
}

func (f *fakeLoyaltyRepo) SetUserReferredBy(_ context.Context, userID, referrerID string) error {
	u := f.users[userID]
	u.ReferredBy = referrerID
	f.users[userID] = u
	return nil
}

func (f *fakeLoyaltyRepo) SetUserReferralCode(_ context.Context, userID, code string) error {
	for id, u := range f.users {
		if id != userID && u.ReferralCode == code {
			return ErrCodeTaken
		}
	}
	u := f.users[userID]
	u.ReferralCode = code
	f.users[userID] = u
	return nil
}

type fakeAppointmentSource struct {
	items map[string]appointments.Appointment
}

func (f *fakeAppointmentSource) GetByID(_ context.Context, id string) (appointments.Appointment, error) {
	a, ok := f.items[id]
	if !ok {
		return appointments.Appointment{}, mongo.ErrNoDocuments
	}
	return a, nil
}

type recordedNotification struct {
	UserID string
	Title  string
}

type fakeNotifier struct {
	sent []recordedNotification
}

func (f *fakeNotifier) Send(_ context.Context, userID, title, _ string) {
	f.sent = append(f.sent, recordedNotification{UserID: userID, Title: title})
}

func newLoyaltyTestService(repo *fakeLoyaltyRepo, appts *fakeAppointmentSource, notifier *fakeNotifier) *Service {
	s := NewService(repo, appts, notifier)
	s.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func completedAppointment(id, clientID string) appointments.Appointment {
	return appointments.Appointment{
		ID:           id,
		ClientUserID: clientID,
		Status:       appointments.StatusCompleted,
	}
}

func TestEarnFromAppointmentIsIdempotent(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	repo.users["user_1"] = models.User{ID: "user_1"}
	appts := &fakeAppointmentSource{items: map[string]appointments.Appointment{
		"appt_1": completedAppointment("appt_1", "user_1"),
	}}
	notifier := &fakeNotifier{}
	svc := newLoyaltyTestService(repo, appts, notifier)

	first, err := svc.EarnFromAppointment(context.Background(), DefaultRules(), "appt_1")
	require.NoError(t, err)
	require.Equal(t, 10, first.Points)

	second, err := svc.EarnFromAppointment(context.Background(), DefaultRules(), "appt_1")
	require.NoError(t, err)
	require.Equal(t, 10, second.Points)
	require.Len(t, second.History, 1)
}

func TestEarnFromAppointmentRetriesAfterWalletWriteFailure(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	repo.users["user_1"] = models.User{ID: "user_1"}
	appts := &fakeAppointmentSource{items: map[string]appointments.Appointment{
		"appt_1": completedAppointment("appt_1", "user_1"),
	}}
	svc := newLoyaltyTestService(repo, appts, &fakeNotifier{})

	repo.addPointsErr = errors.New("wallet write failed")
	_, err := svc.EarnFromAppointment(context.Background(), DefaultRules(), "appt_1")
	require.Error(t, err)
	require.Empty(t, repo.entries, "entry must be rolled back when the wallet write fails")

	wallet, err := svc.EarnFromAppointment(context.Background(), DefaultRules(), "appt_1")
	require.NoError(t, err)
	require.Equal(t, 10, wallet.Points)
	require.Len(t, wallet.History, 1)
}

func TestEarnFromAppointmentReferralBonusOnce(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	repo.users["referrer"] = models.User{ID: "referrer", ReferralCode: "ANNA1A2B"}
	repo.users["client"] = models.User{ID: "client", ReferredBy: "referrer"}
	appts := &fakeAppointmentSource{items: map[string]appointments.Appointment{
		"appt_1": completedAppointment("appt_1", "client"),
		"appt_2": completedAppointment("appt_2", "client"),
	}}
	notifier := &fakeNotifier{}
	svc := newLoyaltyTestService(repo, appts, notifier)

	_, err := svc.EarnFromAppointment(context.Background(), DefaultRules(), "appt_1")
	require.NoError(t, err)
	_, err = svc.EarnFromAppointment(context.Background(), DefaultRules(), "appt_2")
	require.NoError(t, err)

	referrerWallet, err := svc.GetWallet(context.Background(), "referrer")
	require.NoError(t, err)
	require.Equal(t, 50, referrerWallet.Points, "bonus must be granted only for the first completed appointment")
	require.Len(t, referrerWallet.History, 1)

	var bonusNotifications int
	for _, n := range notifier.sent {
		if n.UserID == "referrer" {
			bonusNotifications++
		}
	}
	require.Equal(t, 1, bonusNotifications)
}

func TestEarnFromAppointmentThresholdNotification(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	repo.users["user_1"] = models.User{ID: "user_1"}
	repo.wallets["user_1"] = Wallet{UserID: "user_1", Points: 195}
	appts := &fakeAppointmentSource{items: map[string]appointments.Appointment{
		"appt_1": completedAppointment("appt_1", "user_1"),
	}}
	notifier := &fakeNotifier{}
	svc := newLoyaltyTestService(repo, appts, notifier)

	wallet, err := svc.EarnFromAppointment(context.Background(), DefaultRules(), "appt_1")
	require.NoError(t, err)
	require.Equal(t, 205, wallet.Points)
	require.Len(t, notifier.sent, 1)
	require.Equal(t, "user_1", notifier.sent[0].UserID)
}

func TestEarnFromAppointmentRejectsNonCompleted(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	appts := &fakeAppointmentSource{items: map[string]appointments.Appointment{
		"appt_1": {ID: "appt_1", ClientUserID: "user_1", Status: appointments.StatusScheduled},
	}}
	svc := newLoyaltyTestService(repo, appts, &fakeNotifier{})

	_, err := svc.EarnFromAppointment(context.Background(), DefaultRules(), "appt_1")
	require.ErrorIs(t, err, ErrNotCompleted)
}

func TestEarnFromAppointmentRejectsMissingClient(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	appts := &fakeAppointmentSource{items: map[string]appointments.Appointment{
		"appt_1": {ID: "appt_1", Status: appointments.StatusCompleted},
	}}
	svc := newLoyaltyTestService(repo, appts, &fakeNotifier{})

	_, err := svc.EarnFromAppointment(context.Background(), DefaultRules(), "appt_1")
	require.ErrorIs(t, err, ErrNoClient)
}

func TestEarnFromAppointmentNotFound(t *testing.T) {
	svc := newLoyaltyTestService(newFakeLoyaltyRepo(), &fakeAppointmentSource{items: map[string]appointments.Appointment{}}, &fakeNotifier{})

	_, err := svc.EarnFromAppointment(context.Background(), DefaultRules(), "missing")
	require.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestRegisterReferral(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	repo.users["referrer"] = models.User{ID: "referrer", ReferralCode: "ANNA1A2B"}
	repo.users["client"] = models.User{ID: "client"}
	svc := newLoyaltyTestService(repo, &fakeAppointmentSource{}, &fakeNotifier{})

	msg, err := svc.RegisterReferral(context.Background(), RegisterReferralRequest{UserID: "client", ReferralCode: "anna1a2b"})
	require.NoError(t, err)
	require.Equal(t, "referral registered", msg)
	require.Equal(t, "referrer", repo.users["client"].ReferredBy)
	require.Equal(t, "referrer", repo.wallets["client"].ReferredBy)
}

func TestRegisterReferralAlreadyBoundIsNoOp(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	repo.users["referrer"] = models.User{ID: "referrer", ReferralCode: "ANNA1A2B"}
	repo.users["other"] = models.User{ID: "other", ReferralCode: "MARK9C0D"}
	repo.users["client"] = models.User{ID: "client", ReferredBy: "referrer"}
	svc := newLoyaltyTestService(repo, &fakeAppointmentSource{}, &fakeNotifier{})

	msg, err := svc.RegisterReferral(context.Background(), RegisterReferralRequest{UserID: "client", ReferralCode: "MARK9C0D"})
	require.NoError(t, err)
	require.Equal(t, "referral already registered", msg)
	require.Equal(t, "referrer", repo.users["client"].ReferredBy)
}

func TestRegisterReferralNotFound(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	repo.users["client"] = models.User{ID: "client"}
	svc := newLoyaltyTestService(repo, &fakeAppointmentSource{}, &fakeNotifier{})

	_, err := svc.RegisterReferral(context.Background(), RegisterReferralRequest{UserID: "missing", ReferralCode: "ANNA1A2B"})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.RegisterReferral(context.Background(), RegisterReferralRequest{UserID: "client", ReferralCode: "NOPE0000"})
	require.ErrorIs(t, err, ErrReferralCodeNotFound)
}

func TestGetWalletEmptyForUnknownUser(t *testing.T) {
	svc := newLoyaltyTestService(newFakeLoyaltyRepo(), &fakeAppointmentSource{}, &fakeNotifier{})

	wallet, err := svc.GetWallet(context.Background(), "ghost")
	require.NoError(t, err)
	require.Equal(t, 0, wallet.Points)
	require.Empty(t, wallet.History)
}

func TestReferralCodeGeneratedOnFirstUse(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	repo.users["user_1"] = models.User{ID: "user_1", Email: "john@example.com"}
	svc := newLoyaltyTestService(repo, &fakeAppointmentSource{}, &fakeNotifier{})

	code, err := svc.ReferralCode(context.Background(), "user_1")
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^[A-Z]{4}[0-9A-F]{4}$`), code)
	require.True(t, strings.HasPrefix(code, "JOHN"), "code %q should start with the email prefix", code)

	again, err := svc.ReferralCode(context.Background(), "user_1")
	require.NoError(t, err)
	require.Equal(t, code, again)
}

func TestGenerateReferralCodePadsShortNames(t *testing.T) {
	for i := 0; i < 20; i++ {
		code := GenerateReferralCode(fmt.Sprintf("jo+%d@example.com", i))
		require.Regexp(t, regexp.MustCompile(`^[A-Z]{2}XX[0-9A-F]{4}$`), code)
	}
}
