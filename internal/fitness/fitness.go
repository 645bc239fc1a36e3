package fitness

import (
	"time"

	"github.com/google/uuid"
)

type TrackerType string

const (
	TrackerGarmin      TrackerType = "garmin"
	TrackerStrava      TrackerType = "strava"
	TrackerAppleHealth TrackerType = "apple_health"
)

// Valid reports whether t is one of the supported tracker kinds.
func (t TrackerType) Valid() bool {
	switch t {
	case TrackerGarmin, TrackerStrava, TrackerAppleHealth:
		return true
	}
	return false
}

type TrackerAuth struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	UserID         uuid.UUID   `json:"user_id" db:"user_id"`
	TrackerType    TrackerType `json:"tracker_type" db:"tracker_type"`
	AccessToken    string      `json:"-" db:"access_token"`
	RefreshToken   *string     `json:"-" db:"refresh_token"`
	TokenExpiresAt *time.Time  `json:"token_expires_at" db:"token_expires_at"`
	Connected      bool        `json:"connected" db:"connected"`
	LastSync       *time.Time  `json:"last_sync" db:"last_sync"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

type SyncLog struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	UserID           uuid.UUID   `json:"user_id" db:"user_id"`
	TrackerType      TrackerType `json:"tracker_type" db:"tracker_type"`
	ActivitiesSynced int         `json:"activities_synced" db:"activities_synced"`
	Success          bool        `json:"success" db:"success"`
	ErrorMessage     *string     `json:"error_message" db:"error_message"`
	SyncDate         time.Time   `json:"sync_date" db:"sync_date"`
}

type GarminAuth struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	AccessToken    string     `json:"-" db:"access_token"`
	RefreshToken   *string    `json:"-" db:"refresh_token"`
	TokenExpiresAt *time.Time `json:"token_expires_at" db:"token_expires_at"`
	GarminUserID   *string    `json:"garmin_user_id" db:"garmin_user_id"`
	Connected      bool       `json:"connected" db:"connected"`
	LastSync       *time.Time `json:"last_sync" db:"last_sync"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// SyncResult is the response payload of a manual tracker sync.
type SyncResult struct {
	Status           string      `json:"status"`
	TrackerType      TrackerType `json:"tracker_type"`
	LastSync         *time.Time  `json:"last_sync"`
	ActivitiesSynced int         `json:"activities_synced"`
}

type ConnectTrackerRequest struct {
	AccessToken  string  `json:"access_token" validate:"required"`
	RefreshToken *string `json:"refresh_token"`
	ExpiresIn    *int    `json:"expires_in"`
}

type GarminTokenRequest struct {
	AuthCode string `json:"auth_code" validate:"required"`
}

type GarminImportRequest struct {
	Limit int `json:"limit"`
}
