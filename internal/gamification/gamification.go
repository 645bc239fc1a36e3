// Package gamification turns raw activity logs into badges, challenge
// progress, streak state, and leaderboard rankings. The engine owns no
// state: everything is derived from records read through the Store and
// written back through it.
package gamification

import (
	"time"

	"github.com/google/uuid"
)

type CriteriaType string

const (
	CriteriaVisit5Parks      CriteriaType = "visit_5_parks"
	CriteriaVisit10States    CriteriaType = "visit_10_states"
	CriteriaHike100Miles     CriteriaType = "hike_100_miles"
	CriteriaHike50kElevation CriteriaType = "hike_50k_elevation"
	CriteriaCamp10Nights     CriteriaType = "camp_10_nights"
	CriteriaSight20Animals   CriteriaType = "sight_20_animals"

	// Present in reference data but with no evaluation rule yet, so they
	// are never awarded.
	CriteriaShare10Times   CriteriaType = "share_10_times"
	CriteriaUpload50Photos CriteriaType = "upload_50_photos"
)

type Badge struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Description string       `json:"description" db:"description"`
	IconURL     string       `json:"icon_url" db:"icon_url"`
	Criteria    CriteriaType `json:"criteria" db:"criteria"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

type UserAchievement struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	BadgeID    uuid.UUID `json:"badge_id" db:"badge_id"`
	EarnedDate time.Time `json:"earned_date" db:"earned_date"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type ChallengeType string

const (
	ChallengeVisitParks ChallengeType = "visit_parks"
	ChallengeHikeMiles  ChallengeType = "hike_miles"
	ChallengeElevation  ChallengeType = "elevation"
)

type Challenge struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	Title         string        `json:"title" db:"title"`
	Description   string        `json:"description" db:"description"`
	ChallengeType ChallengeType `json:"challenge_type" db:"challenge_type"`
	TargetValue   int           `json:"target_value" db:"target_value"`
	StartDate     time.Time     `json:"start_date" db:"start_date"`
	EndDate       time.Time     `json:"end_date" db:"end_date"`
	RewardPoints  int           `json:"reward_points" db:"reward_points"`
	IconURL       *string       `json:"icon_url" db:"icon_url"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

type UserChallenge struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	ChallengeID   uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	Progress      int        `json:"progress" db:"progress"`
	Completed     bool       `json:"completed" db:"completed"`
	CompletedDate *time.Time `json:"completed_date" db:"completed_date"`
	PointsEarned  int        `json:"points_earned" db:"points_earned"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

type StreakType string

const (
	StreakHikingDays StreakType = "hiking_days"
	StreakParkVisits StreakType = "park_visits"
)

type Streak struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	StreakType       StreakType `json:"streak_type" db:"streak_type"`
	CurrentCount     int        `json:"current_count" db:"current_count"`
	BestCount        int        `json:"best_count" db:"best_count"`
	LastActivityDate time.Time  `json:"last_activity_date" db:"last_activity_date"`
	StartDate        time.Time  `json:"start_date" db:"start_date"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

type SortKey string

const (
	SortByPoints SortKey = "points"
	SortByParks  SortKey = "parks"
	SortByMiles  SortKey = "miles"
)

// LeaderboardRow is one public user's aggregates, as read from storage.
type LeaderboardRow struct {
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	UserName      string    `json:"user_name" db:"user_name"`
	ProfilePicURL *string   `json:"profile_pic_url" db:"profile_pic_url"`
	TotalPoints   int       `json:"total_points" db:"total_points"`
	ParksVisited  int       `json:"parks_visited" db:"parks_visited"`
	MilesHiked    float64   `json:"miles_hiked" db:"miles_hiked"`
}

// LeaderboardEntry is a row with its rank in the truncated result.
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	LeaderboardRow
}

// AchievementSummary is the payload behind GET /users/{id}/achievements.
type AchievementSummary struct {
	TotalPoints int      `json:"total_points"`
	BadgeCount  int      `json:"badge_count"`
	Badges      []Badge  `json:"badges"`
	Streaks     []Streak `json:"streaks"`
}

type TrackStreakRequest struct {
	StreakType StreakType `json:"streak_type" validate:"required"`
}
