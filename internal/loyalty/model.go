package loyalty

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

const (
	EntryTypeAppointment   = "appointment"
	EntryTypeReferralBonus = "referral_bonus"

	// RulesDocID keys the singleton configuration document.
	RulesDocID = "loyalty_rules"
)

// Entry is one append-only history record. The unique (user_id, type,
// source_id) index on its collection is what makes accrual idempotent.
type Entry struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Type      string    `bson:"type" json:"type"`
	Points    int       `bson:"points" json:"points"`
	SourceID  string    `bson:"source_id" json:"source_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type Wallet struct {
	UserID     string    `bson:"_id" json:"user_id"`
	Points     int       `bson:"points" json:"points"`
	ReferredBy string    `bson:"referred_by,omitempty" json:"referred_by,omitempty"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// WalletView is a wallet together with its full history, the shape returned
// to clients.
type WalletView struct {
	UserID     string  `json:"user_id"`
	Points     int     `json:"points"`
	ReferredBy string  `json:"referred_by,omitempty"`
	History    []Entry `json:"history"`
}

type Rules struct {
	ID                            string    `bson:"_id" json:"-"`
	PointsPerCompletedAppointment int       `bson:"points_per_completed_appointment" json:"points_per_completed_appointment"`
	ReferralBonus                 int       `bson:"referral_bonus" json:"referral_bonus"`
	RewardThreshold               int       `bson:"reward_threshold" json:"reward_threshold"`
	RewardDescription             string    `bson:"reward_description" json:"reward_description"`
	UpdatedAt                     time.Time `bson:"updated_at" json:"updated_at"`
}

func DefaultRules() Rules {
	return Rules{
		ID:                            RulesDocID,
		PointsPerCompletedAppointment: 10,
		ReferralBonus:                 50,
		RewardThreshold:               200,
		RewardDescription:             "Corte gratis",
	}
}

type UpdateRulesRequest struct {
	PointsPerCompletedAppointment int    `json:"points_per_completed_appointment" validate:"gte=0"`
	ReferralBonus                 int    `json:"referral_bonus" validate:"gte=0"`
	RewardThreshold               int    `json:"reward_threshold" validate:"gte=0"`
	RewardDescription             string `json:"reward_description"`
}

type RegisterReferralRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	ReferralCode string `json:"referral_code" validate:"required"`
}

type EarnRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required"`
}

// GenerateReferralCode builds an 8-character code: a 4-letter prefix derived
// from the email's local part, then 4 random hex characters, all uppercased.
func GenerateReferralCode(email string) string {
	local := email
	if idx := strings.Index(email, "@"); idx >= 0 {
		local = email[:idx]
	}

	prefix := make([]byte, 0, 4)
	for _, r := range strings.ToUpper(local) {
		if r >= 'A' && r <= 'Z' {
			prefix = append(prefix, byte(r))
		}
		if len(prefix) == 4 {
			break
		}
	}
	for len(prefix) < 4 {
		prefix = append(prefix, 'X')
	}

	buf := make([]byte, 2)
	_, _ = rand.Read(buf)
	return string(prefix) + strings.ToUpper(hex.EncodeToString(buf))
}
