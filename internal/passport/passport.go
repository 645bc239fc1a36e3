package passport

import (
	"time"

	"github.com/google/uuid"
)

// Stats are the derived passport counters. They are always recomputed from
// the full activity history, never patched incrementally.
type Stats struct {
	TotalParksVisited int     `json:"total_parks_visited" db:"total_parks_visited"`
	TotalStates       int     `json:"total_states" db:"total_states"`
	TotalMilesHiked   float64 `json:"total_miles_hiked" db:"total_miles_hiked"`
	TotalNightsCamped int     `json:"total_nights_camped" db:"total_nights_camped"`
}

type ParkPassport struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"user_id" db:"user_id"`
	Stats
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
