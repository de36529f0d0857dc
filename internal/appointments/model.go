package appointments

import "time"

const (
	StatusScheduled  = "scheduled"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"

	DepositNotRequired = "not_required"
	DepositPending     = "pending"
	DepositPaid        = "paid"
	DepositFailed      = "failed"
	DepositRefunded    = "refunded"

	// RescheduleMarker prefixes the reason appended to notes on reschedule.
	RescheduleMarker = "[Reprogramada]"
)

var validStatuses = map[string]struct{}{
	StatusScheduled:  {},
	StatusConfirmed:  {},
	StatusInProgress: {},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func IsValidStatus(value string) bool {
	_, ok := validStatuses[value]
	return ok
}

// IsClosed reports whether the status admits no further scheduling changes.
func IsClosed(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

type Appointment struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	ShopID        string    `bson:"shop_id" json:"shop_id"`
	BarberID      string    `bson:"barber_id" json:"barber_id"`
	ClientUserID  string    `bson:"client_user_id" json:"client_user_id"`
	ServiceID     string    `bson:"service_id" json:"service_id"`
	ScheduledTime time.Time `bson:"scheduled_time" json:"scheduled_time"`
	Status        string    `bson:"status" json:"status"`
	Notes         string    `bson:"notes,omitempty" json:"notes,omitempty"`

	ReminderSent    bool `bson:"reminder_sent" json:"reminder_sent"`
	Reminder24hSent bool `bson:"reminder_24h_sent" json:"reminder_24h_sent"`
	Reminder2hSent  bool `bson:"reminder_2h_sent" json:"reminder_2h_sent"`

	DepositRequired bool    `bson:"deposit_required" json:"deposit_required"`
	DepositAmount   float64 `bson:"deposit_amount,omitempty" json:"deposit_amount,omitempty"`
	DepositStatus   string  `bson:"deposit_status" json:"deposit_status"`
	DepositID       string  `bson:"deposit_id,omitempty" json:"deposit_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type CreateRequest struct {
	ShopID          string  `json:"shop_id" validate:"required"`
	BarberID        string  `json:"barber_id" validate:"required"`
	ClientUserID    string  `json:"client_user_id" validate:"required"`
	ServiceID       string  `json:"service_id" validate:"required"`
	ScheduledTime   string  `json:"scheduled_time" validate:"required,timestamp"`
	Notes           string  `json:"notes"`
	DepositRequired bool    `json:"deposit_required"`
	DepositAmount   float64 `json:"deposit_amount" validate:"gte=0"`
}

// UpdateRequest is the constrained update set: only status and notes may be
// patched directly. Time changes go through Reschedule, deposit fields
// through the deposit ledger.
type UpdateRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=scheduled confirmed in_progress completed cancelled"`
	Notes  string `json:"notes"`
}

type RescheduleRequest struct {
	NewTime string `json:"new_time" validate:"required,timestamp"`
	Reason  string `json:"reason"`
}

type ListFilter struct {
	ClientUserID string
	BarberID     string
	ShopID       string
	Status       string
}
