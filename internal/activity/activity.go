// Package activity holds the raw activity records the passport and
// gamification logic aggregate over: park visits, trail hikes, camping
// trips, and wildlife sightings.
package activity

import (
	"time"

	"github.com/google/uuid"
)

type Visit struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	ParkID       uuid.UUID `json:"park_id" db:"park_id"`
	VisitDate    time.Time `json:"visit_date" db:"visit_date"`
	DurationDays *int      `json:"duration_days" db:"duration_days"`
	Rating       *int      `json:"rating" db:"rating"`
	Highlights   *string   `json:"highlights" db:"highlights"`
	Notes        *string   `json:"notes" db:"notes"`
	PhotosCount  int       `json:"photos_count" db:"photos_count"`
	Visited      bool      `json:"visited" db:"visited"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type TrailHike struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	UserID                uuid.UUID  `json:"user_id" db:"user_id"`
	TrailID               *uuid.UUID `json:"trail_id" db:"trail_id"`
	HikeDate              time.Time  `json:"hike_date" db:"hike_date"`
	DurationMinutes       int        `json:"duration_minutes" db:"duration_minutes"`
	DistanceMiles         *float64   `json:"distance_miles" db:"distance_miles"`
	ElevationGain         *int       `json:"elevation_gain" db:"elevation_gain"`
	Calories              *int       `json:"calories" db:"calories"`
	AvgPace               *string    `json:"avg_pace" db:"avg_pace"`
	Notes                 *string    `json:"notes" db:"notes"`
	DifficultyExperienced string     `json:"difficulty_experienced" db:"difficulty_experienced"`
	FitnessTrackerSource  *string    `json:"fitness_tracker_source" db:"fitness_tracker_source"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
}

type CampingTrip struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	CampsiteID     uuid.UUID `json:"campsite_id" db:"campsite_id"`
	VisitDate      time.Time `json:"visit_date" db:"visit_date"`
	DurationNights *int      `json:"duration_nights" db:"duration_nights"`
	GroupSize      int       `json:"group_size" db:"group_size"`
	Weather        string    `json:"weather" db:"weather"`
	Rating         *int      `json:"rating" db:"rating"`
	Notes          *string   `json:"notes" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type Sighting struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	ParkID       uuid.UUID `json:"park_id" db:"park_id"`
	Wildlife     string    `json:"wildlife" db:"wildlife"`
	SightingDate time.Time `json:"sighting_date" db:"sighting_date"`
	Location     string    `json:"location" db:"location"`
	Notes        *string   `json:"notes" db:"notes"`
	PhotoURL     *string   `json:"photo_url" db:"photo_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type WishlistItem struct {
	ID                    uuid.UUID `json:"id" db:"id"`
	UserID                uuid.UUID `json:"user_id" db:"user_id"`
	CampsiteID            uuid.UUID `json:"campsite_id" db:"campsite_id"`
	NotificationHoursBefore int     `json:"notification_hours_before" db:"notification_hours_before"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
}

// History is a user's complete activity log, fetched in one shot so the
// gamification engine can derive everything from it without further reads.
type History struct {
	Visits       []Visit       `json:"visits"`
	Hikes        []TrailHike   `json:"hikes"`
	CampingTrips []CampingTrip `json:"camping_trips"`
	Sightings    []Sighting    `json:"sightings"`
}

type CreateVisitRequest struct {
	ParkID       uuid.UUID `json:"park_id" validate:"required"`
	VisitDate    time.Time `json:"visit_date" validate:"required"`
	DurationDays *int      `json:"duration_days"`
	Rating       *int      `json:"rating" validate:"omitempty,min=1,max=5"`
	Highlights   *string   `json:"highlights"`
	Notes        *string   `json:"notes"`
	PhotosCount  int       `json:"photos_count"`
	Visited      *bool     `json:"visited"`
}

type CreateHikeRequest struct {
	TrailID               *uuid.UUID `json:"trail_id"`
	HikeDate              time.Time  `json:"hike_date" validate:"required"`
	DurationMinutes       int        `json:"duration_minutes"`
	DistanceMiles         *float64   `json:"distance_miles"`
	ElevationGain         *int       `json:"elevation_gain"`
	Calories              *int       `json:"calories"`
	AvgPace               *string    `json:"avg_pace"`
	Notes                 *string    `json:"notes"`
	DifficultyExperienced string     `json:"difficulty_experienced"`
	FitnessTrackerSource  *string    `json:"fitness_tracker_source"`
}

type CreateCampingTripRequest struct {
	CampsiteID     uuid.UUID `json:"campsite_id" validate:"required"`
	VisitDate      time.Time `json:"visit_date" validate:"required"`
	DurationNights *int      `json:"duration_nights"`
	GroupSize      int       `json:"group_size"`
	Weather        string    `json:"weather"`
	Rating         *int      `json:"rating" validate:"omitempty,min=1,max=5"`
	Notes          *string   `json:"notes"`
}

type CreateSightingRequest struct {
	ParkID       uuid.UUID `json:"park_id" validate:"required"`
	Wildlife     string    `json:"wildlife" validate:"required"`
	SightingDate time.Time `json:"sighting_date" validate:"required"`
	Location     string    `json:"location"`
	Notes        *string   `json:"notes"`
	PhotoURL     *string   `json:"photo_url"`
}

type CreateWishlistRequest struct {
	CampsiteID              uuid.UUID `json:"campsite_id" validate:"required"`
	NotificationHoursBefore *int      `json:"notification_hours_before"`
}
