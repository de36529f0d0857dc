package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	UserRoleClient = "client"
	UserRoleBarber = "barber"
	UserRoleAdmin  = "admin"

	BarberStatusAvailable   = "available"
	BarberStatusBusy        = "busy"
	BarberStatusUnavailable = "unavailable"

	PushPlatformIOS     = "ios"
	PushPlatformAndroid = "android"
	PushPlatformWeb     = "web"
)

// NewID returns a prefixed identifier such as "appt_3f2a9c1d04be".
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	Picture      string    `bson:"picture,omitempty" json:"picture,omitempty"`
	Role         string    `bson:"role" json:"role"`
	Phone        string    `bson:"phone,omitempty" json:"phone,omitempty"`
	BarbershopID string    `bson:"barbershop_id,omitempty" json:"barbershop_id,omitempty"`
	ReferralCode string    `bson:"referral_code,omitempty" json:"referral_code,omitempty"`
	ReferredBy   string    `bson:"referred_by,omitempty" json:"referred_by,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

type Barbershop struct {
	ID           string              `bson:"_id,omitempty" json:"id"`
	OwnerUserID  string              `bson:"owner_user_id" json:"owner_user_id"`
	Name         string              `bson:"name" json:"name"`
	Address      string              `bson:"address" json:"address"`
	Phone        string              `bson:"phone" json:"phone"`
	Description  string              `bson:"description,omitempty" json:"description,omitempty"`
	Photos       []string            `bson:"photos" json:"photos"`
	WorkingHours map[string]DayHours `bson:"working_hours" json:"working_hours"`
	Location     *GeoPoint           `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
}

type DayHours struct {
	Open  string `bson:"open" json:"open"`
	Close string `bson:"close" json:"close"`
}

type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

type Barber struct {
	ID           string              `bson:"_id,omitempty" json:"id"`
	ShopID       string              `bson:"shop_id" json:"shop_id"`
	UserID       string              `bson:"user_id" json:"user_id"`
	Bio          string              `bson:"bio,omitempty" json:"bio,omitempty"`
	Specialties  []string            `bson:"specialties" json:"specialties"`
	Portfolio    []string            `bson:"portfolio" json:"portfolio"`
	Availability map[string][]string `bson:"availability" json:"availability"`
	Status       string              `bson:"status" json:"status"`
	Rating       float64             `bson:"rating" json:"rating"`
	TotalReviews int                 `bson:"total_reviews" json:"total_reviews"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
}

type Service struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	ShopID      string    `bson:"shop_id" json:"shop_id"`
	Name        string    `bson:"name" json:"name"`
	Slug        string    `bson:"slug" json:"slug"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64   `bson:"price" json:"price"`
	Duration    int       `bson:"duration" json:"duration"`
	Image       string    `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

type ClientHistory struct {
	ID            string            `bson:"_id,omitempty" json:"id"`
	ClientUserID  string            `bson:"client_user_id" json:"client_user_id"`
	BarberID      string            `bson:"barber_id" json:"barber_id"`
	AppointmentID string            `bson:"appointment_id" json:"appointment_id"`
	Photos        []string          `bson:"photos" json:"photos"`
	Preferences   map[string]string `bson:"preferences" json:"preferences"`
	Notes         string            `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time         `bson:"created_at" json:"created_at"`
}

type PushToken struct {
	ID         string            `bson:"_id,omitempty" json:"id"`
	UserID     string            `bson:"user_id" json:"user_id"`
	Token      string            `bson:"token" json:"token"`
	Platform   string            `bson:"platform" json:"platform"`
	DeviceInfo map[string]string `bson:"device_info,omitempty" json:"device_info,omitempty"`
	CreatedAt  time.Time         `bson:"created_at" json:"created_at"`
}

type AIScan struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	UserID           string    `bson:"user_id" json:"user_id"`
	FaceShape        string    `bson:"face_shape,omitempty" json:"face_shape,omitempty"`
	Recommendations  []string  `bson:"recommendations" json:"recommendations"`
	DetailedAnalysis string    `bson:"detailed_analysis,omitempty" json:"detailed_analysis,omitempty"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}
