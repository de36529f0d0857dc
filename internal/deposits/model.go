package deposits

import "time"

const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

var confirmableStatuses = map[string]struct{}{
	StatusPaid:      {},
	StatusFailed:    {},
	StatusCancelled: {},
	StatusRefunded:  {},
}

func IsConfirmableStatus(value string) bool {
	_, ok := confirmableStatuses[value]
	return ok
}

// allowedTransitions is the enforced status machine: a pending hold settles
// exactly once, and only a settled payment can be refunded.
var allowedTransitions = map[string]map[string]struct{}{
	StatusPending: {
		StatusPaid:      {},
		StatusFailed:    {},
		StatusCancelled: {},
	},
	StatusPaid: {
		StatusRefunded: {},
	},
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

type Deposit struct {
	ID            string            `bson:"_id,omitempty" json:"id"`
	AppointmentID string            `bson:"appointment_id,omitempty" json:"appointment_id,omitempty"`
	ClientUserID  string            `bson:"client_user_id,omitempty" json:"client_user_id,omitempty"`
	Amount        float64           `bson:"amount" json:"amount"`
	Currency      string            `bson:"currency" json:"currency"`
	Status        string            `bson:"status" json:"status"`
	Provider      string            `bson:"provider,omitempty" json:"provider,omitempty"`
	PaymentURL    string            `bson:"payment_url,omitempty" json:"payment_url,omitempty"`
	Metadata      map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt     time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at" json:"updated_at"`
}

type CreateRequest struct {
	AppointmentID string            `json:"appointment_id"`
	ClientUserID  string            `json:"client_user_id"`
	Amount        float64           `json:"amount" validate:"required,gt=0"`
	Currency      string            `json:"currency" validate:"required,currency"`
	Provider      string            `json:"provider"`
	Metadata      map[string]string `json:"metadata"`
}

type ConfirmRequest struct {
	Status     string `json:"status" validate:"required"`
	PaymentURL string `json:"payment_url"`
}
