package gamification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"parktrackerapi/internal/activity"
	"parktrackerapi/internal/passport"
)

// BadgeBonusPoints is granted on top of every badge award.
const BadgeBonusPoints = 250

// ErrNotFound marks a missing user, streak, or user-challenge row. The
// engine treats a missing user as a no-op and returns empty results so
// re-evaluation stays robust against partially seeded data.
var ErrNotFound = errors.New("gamification: not found")

// Store is the narrow persistence surface the engine runs against. The
// production implementation lives in services; tests use an in-memory fake.
type Store interface {
	ActivityHistory(ctx context.Context, userID uuid.UUID) (*activity.History, error)
	ParkStates(ctx context.Context, parkIDs []uuid.UUID) (map[uuid.UUID]string, error)

	Badges(ctx context.Context) ([]Badge, error)
	EarnedBadgeIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error)
	AwardBadge(ctx context.Context, userID, badgeID uuid.UUID, earnedAt time.Time) error

	ActiveChallenges(ctx context.Context, now time.Time) ([]Challenge, error)
	UserChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*UserChallenge, error)
	CreateUserChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*UserChallenge, error)
	UpdateUserChallenge(ctx context.Context, uc *UserChallenge) error

	SavePassport(ctx context.Context, userID uuid.UUID, stats passport.Stats) error
	AddPoints(ctx context.Context, userID uuid.UUID, delta int) error

	StreakFor(ctx context.Context, userID uuid.UUID, streakType StreakType) (*Streak, error)
	SaveStreak(ctx context.Context, s *Streak) error

	PublicUserAggregates(ctx context.Context, sortBy SortKey, limit int) ([]LeaderboardRow, error)
}

type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// WithClock overrides the engine clock. Used by tests and nothing else.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ActivitySummary holds the lifetime aggregates badge criteria and the
// passport are checked against.
type ActivitySummary struct {
	DistinctVisitedParks int
	DistinctStates       int
	TotalMilesHiked      float64
	TotalElevationGain   int
	TotalNightsCamped    int
	SightingCount        int
}

// criteriaRules maps a badge criteria tag to its threshold check. Adding a
// badge kind is one entry here; criteria without an entry are skipped by
// the evaluator.
var criteriaRules = map[CriteriaType]func(ActivitySummary) bool{
	CriteriaVisit5Parks:      func(s ActivitySummary) bool { return s.DistinctVisitedParks >= 5 },
	CriteriaVisit10States:    func(s ActivitySummary) bool { return s.DistinctStates >= 10 },
	CriteriaHike100Miles:     func(s ActivitySummary) bool { return s.TotalMilesHiked >= 100 },
	CriteriaHike50kElevation: func(s ActivitySummary) bool { return s.TotalElevationGain >= 50000 },
	CriteriaCamp10Nights:     func(s ActivitySummary) bool { return s.TotalNightsCamped >= 10 },
	CriteriaSight20Animals:   func(s ActivitySummary) bool { return s.SightingCount >= 20 },
}

// RecomputePassport rebuilds the passport counters from the full activity
// history and overwrites the stored row. Distinct states intentionally
// count every visit, wishlist entries included.
func (e *Engine) RecomputePassport(ctx context.Context, userID uuid.UUID) (*passport.Stats, error) {
	history, err := e.store.ActivityHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	summary, err := e.summarize(ctx, history)
	if err != nil {
		return nil, err
	}

	stats := passport.Stats{
		TotalParksVisited: summary.DistinctVisitedParks,
		TotalStates:       summary.DistinctStates,
		TotalMilesHiked:   summary.TotalMilesHiked,
		TotalNightsCamped: summary.TotalNightsCamped,
	}

	if err := e.store.SavePassport(ctx, userID, stats); err != nil {
		return nil, fmt.Errorf("failed to save passport: %w", err)
	}

	return &stats, nil
}

// EvaluateBadges checks every unearned badge against the user's aggregates
// and awards the ones whose threshold is met. Already-earned badges are
// skipped via the earned set, which makes the operation idempotent per
// badge. Returns the names of newly awarded badges.
func (e *Engine) EvaluateBadges(ctx context.Context, userID uuid.UUID) ([]string, error) {
	history, err := e.store.ActivityHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	badges, err := e.store.Badges(ctx)
	if err != nil {
		return nil, err
	}

	earned, err := e.store.EarnedBadgeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary, err := e.summarize(ctx, history)
	if err != nil {
		return nil, err
	}

	var awarded []string
	for _, badge := range badges {
		if earned[badge.ID] {
			continue
		}
		rule, ok := criteriaRules[badge.Criteria]
		if !ok || !rule(summary) {
			continue
		}
		if err := e.store.AwardBadge(ctx, userID, badge.ID, e.now()); err != nil {
			return awarded, fmt.Errorf("failed to award badge %q: %w", badge.Name, err)
		}
		if err := e.store.AddPoints(ctx, userID, BadgeBonusPoints); err != nil {
			return awarded, fmt.Errorf("failed to grant badge points: %w", err)
		}
		awarded = append(awarded, badge.Name)
	}

	return awarded, nil
}

// TrackStreak advances the per-user, per-type consecutive-day streak using
// the engine clock's date as the activity day.
func (e *Engine) TrackStreak(ctx context.Context, userID uuid.UUID, streakType StreakType) (*Streak, error) {
	today := dateOnly(e.now())

	streak, err := e.store.StreakFor(ctx, userID, streakType)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		streak = &Streak{
			UserID:           userID,
			StreakType:       streakType,
			CurrentCount:     1,
			BestCount:        1,
			LastActivityDate: today,
			StartDate:        today,
		}
		if err := e.store.SaveStreak(ctx, streak); err != nil {
			return nil, fmt.Errorf("failed to save streak: %w", err)
		}
		return streak, nil
	}

	last := dateOnly(streak.LastActivityDate)
	switch daysBetween(last, today) {
	case 0:
		// Already logged today.
		return streak, nil
	case 1:
		streak.CurrentCount++
		if streak.CurrentCount > streak.BestCount {
			streak.BestCount = streak.CurrentCount
		}
	default:
		// Streak broken. BestCount stays as the historical high-water mark.
		streak.CurrentCount = 1
		streak.StartDate = today
	}
	streak.LastActivityDate = today

	if err := e.store.SaveStreak(ctx, streak); err != nil {
		return nil, fmt.Errorf("failed to save streak: %w", err)
	}
	return streak, nil
}

// SyncChallenges recomputes progress on every active challenge and applies
// the one-way completion transition. Returns the titles of challenges
// completed by this call.
func (e *Engine) SyncChallenges(ctx context.Context, userID uuid.UUID) ([]string, error) {
	now := e.now()

	challenges, err := e.store.ActiveChallenges(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(challenges) == 0 {
		return nil, nil
	}

	history, err := e.store.ActivityHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var completed []string
	for _, challenge := range challenges {
		uc, err := e.store.UserChallenge(ctx, userID, challenge.ID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				return completed, err
			}
			uc, err = e.store.CreateUserChallenge(ctx, userID, challenge.ID)
			if err != nil {
				return completed, fmt.Errorf("failed to create user challenge: %w", err)
			}
		}

		uc.Progress = challengeProgress(challenge, history)

		// One-way transition: once completed, neither the flag nor the
		// frozen points are ever touched again.
		if uc.Progress >= challenge.TargetValue && !uc.Completed {
			completedAt := now
			uc.Completed = true
			uc.CompletedDate = &completedAt
			uc.PointsEarned = challenge.RewardPoints
			if err := e.store.AddPoints(ctx, userID, challenge.RewardPoints); err != nil {
				return completed, fmt.Errorf("failed to grant challenge points: %w", err)
			}
			completed = append(completed, challenge.Title)
		}

		if err := e.store.UpdateUserChallenge(ctx, uc); err != nil {
			return completed, fmt.Errorf("failed to update user challenge: %w", err)
		}
	}

	return completed, nil
}

// Leaderboard returns the ranked public users for the given sort key.
// Ranks are positions within the truncated result, not the full population.
func (e *Engine) Leaderboard(ctx context.Context, sortBy SortKey, limit int) ([]LeaderboardEntry, error) {
	switch sortBy {
	case SortByParks, SortByMiles:
	default:
		sortBy = SortByPoints
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := e.store.PublicUserAggregates(ctx, sortBy, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LeaderboardEntry{Rank: i + 1, LeaderboardRow: row})
	}
	return entries, nil
}

func (e *Engine) summarize(ctx context.Context, history *activity.History) (ActivitySummary, error) {
	var summary ActivitySummary

	visitedParks := make(map[uuid.UUID]bool)
	allParks := make(map[uuid.UUID]bool)
	for _, v := range history.Visits {
		allParks[v.ParkID] = true
		if v.Visited {
			visitedParks[v.ParkID] = true
		}
	}
	summary.DistinctVisitedParks = len(visitedParks)

	if len(allParks) > 0 {
		parkIDs := make([]uuid.UUID, 0, len(allParks))
		for id := range allParks {
			parkIDs = append(parkIDs, id)
		}
		states, err := e.store.ParkStates(ctx, parkIDs)
		if err != nil {
			return summary, fmt.Errorf("failed to resolve park states: %w", err)
		}
		distinct := make(map[string]bool)
		for _, state := range states {
			if state != "" {
				distinct[state] = true
			}
		}
		summary.DistinctStates = len(distinct)
	}

	for _, h := range history.Hikes {
		if h.DistanceMiles != nil {
			summary.TotalMilesHiked += *h.DistanceMiles
		}
		if h.ElevationGain != nil {
			summary.TotalElevationGain += *h.ElevationGain
		}
	}

	for _, trip := range history.CampingTrips {
		if trip.DurationNights != nil {
			summary.TotalNightsCamped += *trip.DurationNights
		}
	}

	summary.SightingCount = len(history.Sightings)
	return summary, nil
}

// challengeProgress computes progress within the challenge window. Sums are
// truncated to whole units; unknown challenge types report zero.
func challengeProgress(challenge Challenge, history *activity.History) int {
	switch challenge.ChallengeType {
	case ChallengeVisitParks:
		parks := make(map[uuid.UUID]bool)
		for _, v := range history.Visits {
			if v.Visited && !v.VisitDate.Before(challenge.StartDate) {
				parks[v.ParkID] = true
			}
		}
		return len(parks)
	case ChallengeHikeMiles:
		var miles float64
		for _, h := range history.Hikes {
			if h.DistanceMiles != nil && !h.HikeDate.Before(challenge.StartDate) {
				miles += *h.DistanceMiles
			}
		}
		return int(miles)
	case ChallengeElevation:
		var gain int
		for _, h := range history.Hikes {
			if h.ElevationGain != nil && !h.HikeDate.Before(challenge.StartDate) {
				gain += *h.ElevationGain
			}
		}
		return gain
	default:
		return 0
	}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
