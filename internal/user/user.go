package user

import (
	"time"

	"github.com/google/uuid"

	"parktrackerapi/internal/gamification"
)

type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	Bio           *string   `json:"bio" db:"bio"`
	ProfilePicURL *string   `json:"profile_pic_url" db:"profile_pic_url"`
	IsPublic      bool      `json:"is_public" db:"is_public"`
	TotalPoints   int       `json:"total_points" db:"total_points"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// PublicProfile is the shareable view of a public user: identity plus
// headline aggregates and earned badges.
type PublicProfile struct {
	ID              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	Bio             *string              `json:"bio"`
	ProfilePicURL   *string              `json:"profile_pic_url"`
	TotalPoints     int                  `json:"total_points"`
	VisitedParks    int                  `json:"visited_parks"`
	TotalMilesHiked float64              `json:"total_miles_hiked"`
	Badges          []gamification.Badge `json:"badges"`
}

type CreateUserRequest struct {
	Name          string  `json:"name" validate:"required"`
	Email         string  `json:"email" validate:"required,email"`
	Bio           *string `json:"bio"`
	ProfilePicURL *string `json:"profile_pic_url"`
	IsPublic      *bool   `json:"is_public"`
}

type UpdateProfileRequest struct {
	Name          *string `json:"name"`
	Bio           *string `json:"bio"`
	ProfilePicURL *string `json:"profile_pic_url"`
	IsPublic      *bool   `json:"is_public"`
}
