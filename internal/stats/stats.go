// Package stats defines the composite dashboard payload for a user:
// profile, passport, park lists, and recent activity.
package stats

import (
	"parktrackerapi/internal/activity"
	"parktrackerapi/internal/park"
	"parktrackerapi/internal/passport"
	"parktrackerapi/internal/user"
)

type UserStats struct {
	User            *user.User             `json:"user"`
	Passport        *passport.ParkPassport `json:"passport"`
	VisitedParks    []park.Park            `json:"visited_parks"`
	WishlistParks   []park.Park            `json:"wishlist_parks"`
	RecentVisits    []activity.Visit       `json:"recent_visits"`
	RecentHikes     []activity.TrailHike   `json:"recent_hikes"`
	RecentSightings []activity.Sighting    `json:"recent_sightings"`
}
