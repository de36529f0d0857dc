package deposits

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"barbershop-backend/internal/appointments"
)

type fakeDepositRepo struct {
	items map[string]Deposit
}

func newFakeDepositRepo() *fakeDepositRepo {
	return &fakeDepositRepo{items: make(map[string]Deposit)}
}

func (f *fakeDepositRepo) Create(ctx context.Context, deposit Deposit) error {
	f.items[deposit.ID] = deposit
	return nil
}

func (f *fakeDepositRepo) GetByID(ctx context.Context, id string) (Deposit, error) {
	deposit, ok := f.items[id]
	if !ok {
		return Deposit{}, mongo.ErrNoDocuments
	}
	return deposit, nil
}

func (f *fakeDepositRepo) UpdateStatus(ctx context.Context, id, status, paymentURL string, now time.Time) (Deposit, error) {
	deposit, ok := f.items[id]
	if !ok {
		return Deposit{}, mongo.ErrNoDocuments
	}
	deposit.Status = status
	if paymentURL != "" {
		deposit.PaymentURL = paymentURL
	}
	deposit.UpdatedAt = now
	f.items[id] = deposit
	return deposit, nil
}

type fakeAppointmentLedger struct {
	items    map[string]appointments.Appointment
	mirrored []string
}

func newFakeAppointmentLedger() *fakeAppointmentLedger {
	return &fakeAppointmentLedger{items: make(map[string]appointments.Appointment)}
}

func (f *fakeAppointmentLedger) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	appointment, ok := f.items[id]
	if !ok {
		return appointments.Appointment{}, mongo.ErrNoDocuments
	}
	return appointment, nil
}

func (f *fakeAppointmentLedger) SetDepositFields(ctx context.Context, id, depositStatus, depositID string, amount float64, now time.Time) error {
	appointment := f.items[id]
	appointment.DepositStatus = depositStatus
	appointment.DepositID = depositID
	appointment.DepositAmount = amount
	f.items[id] = appointment
	f.mirrored = append(f.mirrored, depositStatus)
	return nil
}

func newTestService(repo *fakeDepositRepo, appts *fakeAppointmentLedger) *Service {
	s := NewService(repo, appts)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestCreateUnboundDeposit(t *testing.T) {
	svc := newTestService(newFakeDepositRepo(), newFakeAppointmentLedger())

	deposit, err := svc.Create(context.Background(), CreateRequest{
		ClientUserID: "user_1",
		Amount:       20,
		Currency:     "eur",
		Provider:     "stripe",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, deposit.Status)
	require.Equal(t, "EUR", deposit.Currency)
	require.True(t, strings.HasPrefix(deposit.ID, "dep_"))
	require.Equal(t, paymentURLBase+deposit.ID, deposit.PaymentURL)
}

func TestCreateBoundDepositMirrorsPending(t *testing.T) {
	appts := newFakeAppointmentLedger()
	appts.items["appt_1"] = appointments.Appointment{ID: "appt_1", DepositStatus: appointments.DepositNotRequired}
	svc := newTestService(newFakeDepositRepo(), appts)

	deposit, err := svc.Create(context.Background(), CreateRequest{
		AppointmentID: "appt_1",
		Amount:        15,
		Currency:      "EUR",
	})
	require.NoError(t, err)
	require.Equal(t, appointments.DepositPending, appts.items["appt_1"].DepositStatus)
	require.Equal(t, deposit.ID, appts.items["appt_1"].DepositID)
}

func TestCreateBoundDepositMissingAppointment(t *testing.T) {
	svc := newTestService(newFakeDepositRepo(), newFakeAppointmentLedger())

	_, err := svc.Create(context.Background(), CreateRequest{
		AppointmentID: "appt_missing",
		Amount:        15,
		Currency:      "EUR",
	})
	require.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCreateRefusedWhenAlreadyPaid(t *testing.T) {
	appts := newFakeAppointmentLedger()
	appts.items["appt_1"] = appointments.Appointment{ID: "appt_1", DepositStatus: appointments.DepositPaid}
	svc := newTestService(newFakeDepositRepo(), appts)

	_, err := svc.Create(context.Background(), CreateRequest{
		AppointmentID: "appt_1",
		Amount:        15,
		Currency:      "EUR",
	})
	require.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestConfirmTransitions(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusRefunded, false},
		{StatusPaid, StatusRefunded, true},
		{StatusPaid, StatusPaid, false},
		{StatusRefunded, StatusPending, false},
		{StatusFailed, StatusPaid, false},
	}

	for _, tc := range cases {
		repo := newFakeDepositRepo()
		repo.items["dep_1"] = Deposit{ID: "dep_1", Status: tc.from, Amount: 10}
		svc := newTestService(repo, newFakeAppointmentLedger())

		_, err := svc.Confirm(context.Background(), "dep_1", ConfirmRequest{Status: tc.to})
		if tc.allowed {
			require.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			require.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestConfirmRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(newFakeDepositRepo(), newFakeAppointmentLedger())

	_, err := svc.Confirm(context.Background(), "dep_1", ConfirmRequest{Status: "settled"})
	require.ErrorIs(t, err, ErrInvalidStatus)

	// pending is a creation state, not a confirmation target.
	_, err = svc.Confirm(context.Background(), "dep_1", ConfirmRequest{Status: StatusPending})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestConfirmMirrorsStatusOntoAppointment(t *testing.T) {
	repo := newFakeDepositRepo()
	repo.items["dep_1"] = Deposit{ID: "dep_1", AppointmentID: "appt_1", Status: StatusPending, Amount: 10}
	appts := newFakeAppointmentLedger()
	appts.items["appt_1"] = appointments.Appointment{ID: "appt_1", DepositStatus: appointments.DepositPending}
	svc := newTestService(repo, appts)

	updated, err := svc.Confirm(context.Background(), "dep_1", ConfirmRequest{Status: StatusPaid, PaymentURL: "https://pay.example.com/x"})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, updated.Status)
	require.Equal(t, "https://pay.example.com/x", updated.PaymentURL)
	require.Equal(t, appointments.DepositPaid, appts.items["appt_1"].DepositStatus)
}

func TestConfirmNotFound(t *testing.T) {
	svc := newTestService(newFakeDepositRepo(), newFakeAppointmentLedger())

	_, err := svc.Confirm(context.Background(), "dep_missing", ConfirmRequest{Status: StatusPaid})
	require.ErrorIs(t, err, ErrNotFound)
}
