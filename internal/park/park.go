package park

import (
	"time"

	"github.com/google/uuid"
)

type Park struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	State       string    `json:"state" db:"state"`
	Region      string    `json:"region" db:"region"`
	Established string    `json:"established" db:"established"`
	AreaSqMiles float64   `json:"area_sq_miles" db:"area_sq_miles"`
	Description string    `json:"description" db:"description"`
	Latitude    float64   `json:"latitude" db:"latitude"`
	Longitude   float64   `json:"longitude" db:"longitude"`
	Website     *string   `json:"website" db:"website"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Trail struct {
	ID              uuid.UUID `json:"id" db:"id"`
	ParkID          uuid.UUID `json:"park_id" db:"park_id"`
	Name            string    `json:"name" db:"name"`
	Difficulty      string    `json:"difficulty" db:"difficulty"`
	DistanceMiles   float64   `json:"distance_miles" db:"distance_miles"`
	ElevationGainFt int       `json:"elevation_gain_ft" db:"elevation_gain_ft"`
	Description     string    `json:"description" db:"description"`
	BestSeason      string    `json:"best_season" db:"best_season"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type Campsite struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ParkID       uuid.UUID  `json:"park_id" db:"park_id"`
	Name         string     `json:"name" db:"name"`
	Elevation    int        `json:"elevation" db:"elevation"`
	HasWater     bool       `json:"has_water" db:"has_water"`
	HasToilets   bool       `json:"has_toilets" db:"has_toilets"`
	MaxOccupancy int        `json:"max_occupancy" db:"max_occupancy"`
	Description  string     `json:"description" db:"description"`
	BookingOpens *time.Time `json:"booking_opens" db:"booking_opens"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

type CreateParkRequest struct {
	Name        string  `json:"name" validate:"required"`
	State       string  `json:"state" validate:"required"`
	Region      string  `json:"region"`
	Established string  `json:"established"`
	AreaSqMiles float64 `json:"area_sq_miles"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Website     *string `json:"website"`
}

type CreateTrailRequest struct {
	Name            string  `json:"name" validate:"required"`
	Difficulty      string  `json:"difficulty"`
	DistanceMiles   float64 `json:"distance_miles"`
	ElevationGainFt int     `json:"elevation_gain_ft"`
	Description     string  `json:"description"`
	BestSeason      string  `json:"best_season"`
}

type CreateCampsiteRequest struct {
	Name         string     `json:"name" validate:"required"`
	Elevation    int        `json:"elevation"`
	HasWater     bool       `json:"has_water"`
	HasToilets   bool       `json:"has_toilets"`
	MaxOccupancy int        `json:"max_occupancy"`
	Description  string     `json:"description"`
	BookingOpens *time.Time `json:"booking_opens"`
}
