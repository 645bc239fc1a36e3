package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parktrackerapi/internal/activity"
	"parktrackerapi/internal/gamification"
	"parktrackerapi/internal/passport"
)

// GamificationService is the pgx-backed gamification.Store plus the read
// queries the achievement endpoints need directly.
type GamificationService struct {
	db *pgxpool.Pool
}

func NewGamificationService(db *pgxpool.Pool) *GamificationService {
	return &GamificationService{db: db}
}

var _ gamification.Store = (*GamificationService)(nil)

// ActivityHistory loads a user's complete activity log in one shot.
// Returns gamification.ErrNotFound for unknown users so the engine can
// treat them as a no-op.
func (s *GamificationService) ActivityHistory(ctx context.Context, userID uuid.UUID) (*activity.History, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, gamification.ErrNotFound
	}

	history := &activity.History{}

	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, park_id, visit_date, duration_days, rating, highlights, notes, photos_count, visited, created_at
	FROM visits WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load visits: %w", err)
	}
	for rows.Next() {
		var v activity.Visit
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.ParkID, &v.VisitDate, &v.DurationDays, &v.Rating,
			&v.Highlights, &v.Notes, &v.PhotosCount, &v.Visited, &v.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		history.Visits = append(history.Visits, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `
	SELECT id, user_id, trail_id, hike_date, duration_minutes, distance_miles, elevation_gain, calories, avg_pace, notes, difficulty_experienced, fitness_tracker_source, created_at
	FROM trail_hikes WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hikes: %w", err)
	}
	for rows.Next() {
		var h activity.TrailHike
		if err := rows.Scan(
			&h.ID, &h.UserID, &h.TrailID, &h.HikeDate, &h.DurationMinutes, &h.DistanceMiles,
			&h.ElevationGain, &h.Calories, &h.AvgPace, &h.Notes, &h.DifficultyExperienced,
			&h.FitnessTrackerSource, &h.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan hike: %w", err)
		}
		history.Hikes = append(history.Hikes, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `
	SELECT id, user_id, campsite_id, visit_date, duration_nights, group_size, weather, rating, notes, created_at
	FROM camping_trips WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load camping trips: %w", err)
	}
	for rows.Next() {
		var c activity.CampingTrip
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.CampsiteID, &c.VisitDate, &c.DurationNights,
			&c.GroupSize, &c.Weather, &c.Rating, &c.Notes, &c.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan camping trip: %w", err)
		}
		history.CampingTrips = append(history.CampingTrips, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `
	SELECT id, user_id, park_id, wildlife, sighting_date, location, notes, photo_url, created_at
	FROM sightings WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sightings: %w", err)
	}
	for rows.Next() {
		var sg activity.Sighting
		if err := rows.Scan(
			&sg.ID, &sg.UserID, &sg.ParkID, &sg.Wildlife, &sg.SightingDate,
			&sg.Location, &sg.Notes, &sg.PhotoURL, &sg.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan sighting: %w", err)
		}
		history.Sightings = append(history.Sightings, sg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return history, nil
}

func (s *GamificationService) ParkStates(ctx context.Context, parkIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	states := make(map[uuid.UUID]string, len(parkIDs))
	if len(parkIDs) == 0 {
		return states, nil
	}

	rows, err := s.db.Query(ctx, `SELECT id, state FROM parks WHERE id = ANY($1)`, parkIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load park states: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var state string
		if err := rows.Scan(&id, &state); err != nil {
			return nil, fmt.Errorf("failed to scan park state: %w", err)
		}
		states[id] = state
	}
	return states, rows.Err()
}

func (s *GamificationService) Badges(ctx context.Context) ([]gamification.Badge, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, name, description, icon_url, criteria, created_at
	FROM badges
	ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	badges := []gamification.Badge{}
	for rows.Next() {
		var b gamification.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.IconURL, &b.Criteria, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

func (s *GamificationService) EarnedBadgeIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := s.db.Query(ctx, `SELECT badge_id FROM user_achievements WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load earned badges: %w", err)
	}
	defer rows.Close()

	earned := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan earned badge: %w", err)
		}
		earned[id] = true
	}
	return earned, rows.Err()
}

func (s *GamificationService) AwardBadge(ctx context.Context, userID, badgeID uuid.UUID, earnedAt time.Time) error {
	// ON CONFLICT keeps concurrent evaluations from double-awarding.
	_, err := s.db.Exec(ctx, `
	INSERT INTO user_achievements (id, user_id, badge_id, earned_date, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, badge_id) DO NOTHING`,
		uuid.New(), userID, badgeID, earnedAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to award badge: %w", err)
	}
	return nil
}

func (s *GamificationService) ActiveChallenges(ctx context.Context, now time.Time) ([]gamification.Challenge, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, title, description, challenge_type, target_value, start_date, end_date, reward_points, icon_url, created_at
	FROM challenges
	WHERE start_date <= $1 AND end_date >= $1
	ORDER BY end_date`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active challenges: %w", err)
	}
	defer rows.Close()

	challenges := []gamification.Challenge{}
	for rows.Next() {
		var c gamification.Challenge
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Description, &c.ChallengeType, &c.TargetValue,
			&c.StartDate, &c.EndDate, &c.RewardPoints, &c.IconURL, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func (s *GamificationService) UserChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*gamification.UserChallenge, error) {
	uc := &gamification.UserChallenge{}
	err := s.db.QueryRow(ctx, `
	SELECT id, user_id, challenge_id, progress, completed, completed_date, points_earned, created_at
	FROM user_challenges
	WHERE user_id = $1 AND challenge_id = $2`, userID, challengeID).Scan(
		&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.Progress, &uc.Completed,
		&uc.CompletedDate, &uc.PointsEarned, &uc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gamification.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user challenge: %w", err)
	}
	return uc, nil
}

func (s *GamificationService) CreateUserChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*gamification.UserChallenge, error) {
	uc := &gamification.UserChallenge{
		ID:          uuid.New(),
		UserID:      userID,
		ChallengeID: challengeID,
		CreatedAt:   time.Now(),
	}
	_, err := s.db.Exec(ctx, `
	INSERT INTO user_challenges (id, user_id, challenge_id, created_at)
	VALUES ($1, $2, $3, $4)`,
		uc.ID, uc.UserID, uc.ChallengeID, uc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user challenge: %w", err)
	}
	return uc, nil
}

func (s *GamificationService) UpdateUserChallenge(ctx context.Context, uc *gamification.UserChallenge) error {
	_, err := s.db.Exec(ctx, `
	UPDATE user_challenges
	SET progress = $2, completed = $3, completed_date = $4, points_earned = $5
	WHERE id = $1`,
		uc.ID, uc.Progress, uc.Completed, uc.CompletedDate, uc.PointsEarned)
	if err != nil {
		return fmt.Errorf("failed to update user challenge: %w", err)
	}
	return nil
}

func (s *GamificationService) SavePassport(ctx context.Context, userID uuid.UUID, stats passport.Stats) error {
	_, err := s.db.Exec(ctx, `
	INSERT INTO park_passports (id, user_id, total_parks_visited, total_states, total_miles_hiked, total_nights_camped, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id) DO UPDATE SET
		total_parks_visited = EXCLUDED.total_parks_visited,
		total_states = EXCLUDED.total_states,
		total_miles_hiked = EXCLUDED.total_miles_hiked,
		total_nights_camped = EXCLUDED.total_nights_camped,
		updated_at = EXCLUDED.updated_at`,
		uuid.New(), userID, stats.TotalParksVisited, stats.TotalStates,
		stats.TotalMilesHiked, stats.TotalNightsCamped, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save passport: %w", err)
	}
	return nil
}

func (s *GamificationService) AddPoints(ctx context.Context, userID uuid.UUID, delta int) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET total_points = total_points + $2 WHERE id = $1`, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to add points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return gamification.ErrNotFound
	}
	return nil
}

func (s *GamificationService) StreakFor(ctx context.Context, userID uuid.UUID, streakType gamification.StreakType) (*gamification.Streak, error) {
	st := &gamification.Streak{}
	err := s.db.QueryRow(ctx, `
	SELECT id, user_id, streak_type, current_count, best_count, last_activity_date, start_date, created_at
	FROM streaks
	WHERE user_id = $1 AND streak_type = $2`, userID, streakType).Scan(
		&st.ID, &st.UserID, &st.StreakType, &st.CurrentCount, &st.BestCount,
		&st.LastActivityDate, &st.StartDate, &st.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gamification.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return st, nil
}

func (s *GamificationService) SaveStreak(ctx context.Context, st *gamification.Streak) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
	INSERT INTO streaks (id, user_id, streak_type, current_count, best_count, last_activity_date, start_date, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (user_id, streak_type) DO UPDATE SET
		current_count = EXCLUDED.current_count,
		best_count = EXCLUDED.best_count,
		last_activity_date = EXCLUDED.last_activity_date,
		start_date = EXCLUDED.start_date`,
		st.ID, st.UserID, st.StreakType, st.CurrentCount, st.BestCount,
		st.LastActivityDate, st.StartDate, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}
	return nil
}

// PublicUserAggregates pushes the leaderboard sort and truncation into SQL.
// Per-table subqueries keep the aggregates from fanning out across joins.
func (s *GamificationService) PublicUserAggregates(ctx context.Context, sortBy gamification.SortKey, limit int) ([]gamification.LeaderboardRow, error) {
	var orderBy string
	switch sortBy {
	case gamification.SortByParks:
		orderBy = "parks_visited DESC"
	case gamification.SortByMiles:
		orderBy = "miles_hiked DESC"
	default:
		orderBy = "total_points DESC"
	}

	query := fmt.Sprintf(`
	SELECT u.id, u.name, u.profile_pic_url, u.total_points,
	       COALESCE(v.parks_visited, 0) AS parks_visited,
	       COALESCE(h.miles_hiked, 0) AS miles_hiked
	FROM users u
	LEFT JOIN (
		SELECT user_id, COUNT(DISTINCT park_id) AS parks_visited
		FROM visits WHERE visited GROUP BY user_id
	) v ON v.user_id = u.id
	LEFT JOIN (
		SELECT user_id, COALESCE(SUM(distance_miles), 0) AS miles_hiked
		FROM trail_hikes GROUP BY user_id
	) h ON h.user_id = u.id
	WHERE u.is_public
	ORDER BY %s, u.id
	LIMIT $1`, orderBy)

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	out := []gamification.LeaderboardRow{}
	for rows.Next() {
		var r gamification.LeaderboardRow
		if err := rows.Scan(&r.UserID, &r.UserName, &r.ProfilePicURL, &r.TotalPoints, &r.ParksVisited, &r.MilesHiked); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EarnedBadges returns the user's badges with their earn dates, newest
// first. Read path for the achievements endpoint.
func (s *GamificationService) EarnedBadges(ctx context.Context, userID uuid.UUID) ([]gamification.Badge, error) {
	rows, err := s.db.Query(ctx, `
	SELECT b.id, b.name, b.description, b.icon_url, b.criteria, b.created_at
	FROM user_achievements ua
	JOIN badges b ON b.id = ua.badge_id
	WHERE ua.user_id = $1
	ORDER BY ua.earned_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earned badges: %w", err)
	}
	defer rows.Close()

	badges := []gamification.Badge{}
	for rows.Next() {
		var b gamification.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.IconURL, &b.Criteria, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

func (s *GamificationService) Streaks(ctx context.Context, userID uuid.UUID) ([]gamification.Streak, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, streak_type, current_count, best_count, last_activity_date, start_date, created_at
	FROM streaks
	WHERE user_id = $1
	ORDER BY streak_type`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list streaks: %w", err)
	}
	defer rows.Close()

	streaks := []gamification.Streak{}
	for rows.Next() {
		var st gamification.Streak
		if err := rows.Scan(
			&st.ID, &st.UserID, &st.StreakType, &st.CurrentCount, &st.BestCount,
			&st.LastActivityDate, &st.StartDate, &st.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan streak: %w", err)
		}
		streaks = append(streaks, st)
	}
	return streaks, rows.Err()
}

// GetAchievements assembles the summary payload: lifetime points, earned
// badges, and current streaks.
func (s *GamificationService) GetAchievements(ctx context.Context, userID uuid.UUID) (*gamification.AchievementSummary, error) {
	var totalPoints int
	err := s.db.QueryRow(ctx, `SELECT total_points FROM users WHERE id = $1`, userID).Scan(&totalPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user points: %w", err)
	}

	badges, err := s.EarnedBadges(ctx, userID)
	if err != nil {
		return nil, err
	}

	streaks, err := s.Streaks(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &gamification.AchievementSummary{
		TotalPoints: totalPoints,
		BadgeCount:  len(badges),
		Badges:      badges,
		Streaks:     streaks,
	}, nil
}

// ListUserChallenges returns every challenge the user has progress rows
// for, joined with the challenge definition.
func (s *GamificationService) ListUserChallenges(ctx context.Context, userID uuid.UUID) ([]gamification.UserChallenge, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, challenge_id, progress, completed, completed_date, points_earned, created_at
	FROM user_challenges
	WHERE user_id = $1
	ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user challenges: %w", err)
	}
	defer rows.Close()

	out := []gamification.UserChallenge{}
	for rows.Next() {
		var uc gamification.UserChallenge
		if err := rows.Scan(
			&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.Progress, &uc.Completed,
			&uc.CompletedDate, &uc.PointsEarned, &uc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user challenge: %w", err)
		}
		out = append(out, uc)
	}
	return out, rows.Err()
}

var seedBadges = []gamification.Badge{
	{Name: "Park Explorer", Description: "Visit 5 different national parks", IconURL: "🏞️", Criteria: gamification.CriteriaVisit5Parks},
	{Name: "State Master", Description: "Visit 10+ parks across different states", IconURL: "🗺️", Criteria: gamification.CriteriaVisit10States},
	{Name: "Elevation Conqueror", Description: "Hike 50,000+ feet of elevation gain", IconURL: "⛰️", Criteria: gamification.CriteriaHike50kElevation},
	{Name: "Marathon Hiker", Description: "Complete 100+ miles of hiking", IconURL: "🥾", Criteria: gamification.CriteriaHike100Miles},
	{Name: "Social Butterfly", Description: "Share your adventures 10+ times", IconURL: "🦋", Criteria: gamification.CriteriaShare10Times},
	{Name: "Photographer", Description: "Add 50+ photos to your visits", IconURL: "📸", Criteria: gamification.CriteriaUpload50Photos},
	{Name: "Camper's Spirit", Description: "Camp 10+ nights in national parks", IconURL: "⛺", Criteria: gamification.CriteriaCamp10Nights},
	{Name: "Wildlife Watcher", Description: "Log 20+ wildlife sightings", IconURL: "🦌", Criteria: gamification.CriteriaSight20Animals},
}

// SeedBadges inserts the reference badge set on first boot. No-op once the
// badges table has rows.
func (s *GamificationService) SeedBadges(ctx context.Context) error {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM badges`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count badges: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, b := range seedBadges {
		_, err := s.db.Exec(ctx, `
		INSERT INTO badges (id, name, description, icon_url, criteria, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), b.Name, b.Description, b.IconURL, b.Criteria, time.Now())
		if err != nil {
			return fmt.Errorf("failed to seed badge %q: %w", b.Name, err)
		}
	}

	log.Printf("Seeded %d badges", len(seedBadges))
	return nil
}
