package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parktrackerapi/internal/activity"
	"parktrackerapi/internal/park"
	"parktrackerapi/internal/passport"
	"parktrackerapi/internal/stats"
	"parktrackerapi/internal/user"
)

type ActivityService struct {
	db *pgxpool.Pool
}

func NewActivityService(db *pgxpool.Pool) *ActivityService {
	return &ActivityService{db: db}
}

func (s *ActivityService) CreateVisit(ctx context.Context, userID uuid.UUID, req *activity.CreateVisitRequest) (*activity.Visit, error) {
	v := &activity.Visit{
		ID:           uuid.New(),
		UserID:       userID,
		ParkID:       req.ParkID,
		VisitDate:    req.VisitDate,
		DurationDays: req.DurationDays,
		Rating:       req.Rating,
		Highlights:   req.Highlights,
		Notes:        req.Notes,
		PhotosCount:  req.PhotosCount,
		Visited:      true,
		CreatedAt:    time.Now(),
	}
	if req.Visited != nil {
		v.Visited = *req.Visited
	}

	query := `
	INSERT INTO visits (id, user_id, park_id, visit_date, duration_days, rating, highlights, notes, photos_count, visited, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.Exec(ctx, query,
		v.ID, v.UserID, v.ParkID, v.VisitDate, v.DurationDays, v.Rating,
		v.Highlights, v.Notes, v.PhotosCount, v.Visited, v.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create visit: %w", err)
	}

	return v, nil
}

// ListVisits returns the user's visit log newest first. visitedOnly nil
// returns everything; true returns visits, false returns wishlist entries.
func (s *ActivityService) ListVisits(ctx context.Context, userID uuid.UUID, visitedOnly *bool) ([]activity.Visit, error) {
	query := `
	SELECT id, user_id, park_id, visit_date, duration_days, rating, highlights, notes, photos_count, visited, created_at
	FROM visits
	WHERE user_id = $1
	  AND ($2::boolean IS NULL OR visited = $2)
	ORDER BY visit_date DESC
	`

	rows, err := s.db.Query(ctx, query, userID, visitedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	visits := []activity.Visit{}
	for rows.Next() {
		var v activity.Visit
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.ParkID, &v.VisitDate, &v.DurationDays, &v.Rating,
			&v.Highlights, &v.Notes, &v.PhotosCount, &v.Visited, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func (s *ActivityService) DeleteVisit(ctx context.Context, userID, visitID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM visits WHERE id = $1 AND user_id = $2`, visitID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("visit not found")
	}
	return nil
}

func (s *ActivityService) CreateHike(ctx context.Context, userID uuid.UUID, req *activity.CreateHikeRequest) (*activity.TrailHike, error) {
	h := &activity.TrailHike{
		ID:                    uuid.New(),
		UserID:                userID,
		TrailID:               req.TrailID,
		HikeDate:              req.HikeDate,
		DurationMinutes:       req.DurationMinutes,
		DistanceMiles:         req.DistanceMiles,
		ElevationGain:         req.ElevationGain,
		Calories:              req.Calories,
		AvgPace:               req.AvgPace,
		Notes:                 req.Notes,
		DifficultyExperienced: req.DifficultyExperienced,
		FitnessTrackerSource:  req.FitnessTrackerSource,
		CreatedAt:             time.Now(),
	}

	query := `
	INSERT INTO trail_hikes (id, user_id, trail_id, hike_date, duration_minutes, distance_miles, elevation_gain, calories, avg_pace, notes, difficulty_experienced, fitness_tracker_source, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.db.Exec(ctx, query,
		h.ID, h.UserID, h.TrailID, h.HikeDate, h.DurationMinutes, h.DistanceMiles,
		h.ElevationGain, h.Calories, h.AvgPace, h.Notes, h.DifficultyExperienced,
		h.FitnessTrackerSource, h.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hike: %w", err)
	}

	return h, nil
}

// ListHikes returns hikes from the last days days, newest first. days <= 0
// means no cutoff.
func (s *ActivityService) ListHikes(ctx context.Context, userID uuid.UUID, days int) ([]activity.TrailHike, error) {
	var cutoff *time.Time
	if days > 0 {
		t := time.Now().AddDate(0, 0, -days)
		cutoff = &t
	}

	query := `
	SELECT id, user_id, trail_id, hike_date, duration_minutes, distance_miles, elevation_gain, calories, avg_pace, notes, difficulty_experienced, fitness_tracker_source, created_at
	FROM trail_hikes
	WHERE user_id = $1
	  AND ($2::timestamptz IS NULL OR hike_date >= $2)
	ORDER BY hike_date DESC
	`

	rows, err := s.db.Query(ctx, query, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list hikes: %w", err)
	}
	defer rows.Close()

	hikes := []activity.TrailHike{}
	for rows.Next() {
		var h activity.TrailHike
		if err := rows.Scan(
			&h.ID, &h.UserID, &h.TrailID, &h.HikeDate, &h.DurationMinutes, &h.DistanceMiles,
			&h.ElevationGain, &h.Calories, &h.AvgPace, &h.Notes, &h.DifficultyExperienced,
			&h.FitnessTrackerSource, &h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan hike: %w", err)
		}
		hikes = append(hikes, h)
	}
	return hikes, rows.Err()
}

func (s *ActivityService) CreateCampingTrip(ctx context.Context, userID uuid.UUID, req *activity.CreateCampingTripRequest) (*activity.CampingTrip, error) {
	c := &activity.CampingTrip{
		ID:             uuid.New(),
		UserID:         userID,
		CampsiteID:     req.CampsiteID,
		VisitDate:      req.VisitDate,
		DurationNights: req.DurationNights,
		GroupSize:      req.GroupSize,
		Weather:        req.Weather,
		Rating:         req.Rating,
		Notes:          req.Notes,
		CreatedAt:      time.Now(),
	}

	query := `
	INSERT INTO camping_trips (id, user_id, campsite_id, visit_date, duration_nights, group_size, weather, rating, notes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.Exec(ctx, query,
		c.ID, c.UserID, c.CampsiteID, c.VisitDate, c.DurationNights,
		c.GroupSize, c.Weather, c.Rating, c.Notes, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create camping trip: %w", err)
	}

	return c, nil
}

func (s *ActivityService) ListCampingTrips(ctx context.Context, userID uuid.UUID) ([]activity.CampingTrip, error) {
	query := `
	SELECT id, user_id, campsite_id, visit_date, duration_nights, group_size, weather, rating, notes, created_at
	FROM camping_trips
	WHERE user_id = $1
	ORDER BY visit_date DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list camping trips: %w", err)
	}
	defer rows.Close()

	trips := []activity.CampingTrip{}
	for rows.Next() {
		var c activity.CampingTrip
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.CampsiteID, &c.VisitDate, &c.DurationNights,
			&c.GroupSize, &c.Weather, &c.Rating, &c.Notes, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan camping trip: %w", err)
		}
		trips = append(trips, c)
	}
	return trips, rows.Err()
}

func (s *ActivityService) CreateSighting(ctx context.Context, userID uuid.UUID, req *activity.CreateSightingRequest) (*activity.Sighting, error) {
	sg := &activity.Sighting{
		ID:           uuid.New(),
		UserID:       userID,
		ParkID:       req.ParkID,
		Wildlife:     req.Wildlife,
		SightingDate: req.SightingDate,
		Location:     req.Location,
		Notes:        req.Notes,
		PhotoURL:     req.PhotoURL,
		CreatedAt:    time.Now(),
	}

	query := `
	INSERT INTO sightings (id, user_id, park_id, wildlife, sighting_date, location, notes, photo_url, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		sg.ID, sg.UserID, sg.ParkID, sg.Wildlife, sg.SightingDate,
		sg.Location, sg.Notes, sg.PhotoURL, sg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sighting: %w", err)
	}

	return sg, nil
}

func (s *ActivityService) ListSightings(ctx context.Context, userID uuid.UUID) ([]activity.Sighting, error) {
	query := `
	SELECT id, user_id, park_id, wildlife, sighting_date, location, notes, photo_url, created_at
	FROM sightings
	WHERE user_id = $1
	ORDER BY sighting_date DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sightings: %w", err)
	}
	defer rows.Close()

	sightings := []activity.Sighting{}
	for rows.Next() {
		var sg activity.Sighting
		if err := rows.Scan(
			&sg.ID, &sg.UserID, &sg.ParkID, &sg.Wildlife, &sg.SightingDate,
			&sg.Location, &sg.Notes, &sg.PhotoURL, &sg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sighting: %w", err)
		}
		sightings = append(sightings, sg)
	}
	return sightings, rows.Err()
}

func (s *ActivityService) AddToWishlist(ctx context.Context, userID uuid.UUID, req *activity.CreateWishlistRequest) (*activity.WishlistItem, error) {
	item := &activity.WishlistItem{
		ID:                      uuid.New(),
		UserID:                  userID,
		CampsiteID:              req.CampsiteID,
		NotificationHoursBefore: 1,
		CreatedAt:               time.Now(),
	}
	if req.NotificationHoursBefore != nil {
		item.NotificationHoursBefore = *req.NotificationHoursBefore
	}

	query := `
	INSERT INTO wishlist (id, user_id, campsite_id, notification_hours_before, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, campsite_id) DO UPDATE SET notification_hours_before = EXCLUDED.notification_hours_before
	RETURNING id, notification_hours_before, created_at
	`

	err := s.db.QueryRow(ctx, query,
		item.ID, item.UserID, item.CampsiteID, item.NotificationHoursBefore, item.CreatedAt,
	).Scan(&item.ID, &item.NotificationHoursBefore, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add to wishlist: %w", err)
	}

	return item, nil
}

func (s *ActivityService) ListWishlist(ctx context.Context, userID uuid.UUID) ([]activity.WishlistItem, error) {
	query := `
	SELECT id, user_id, campsite_id, notification_hours_before, created_at
	FROM wishlist
	WHERE user_id = $1
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer rows.Close()

	items := []activity.WishlistItem{}
	for rows.Next() {
		var item activity.WishlistItem
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.CampsiteID, &item.NotificationHoursBefore, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateWishlistNotification changes the booking-alert lead time on an
// existing wishlist entry, addressed by campsite.
func (s *ActivityService) UpdateWishlistNotification(ctx context.Context, userID, campsiteID uuid.UUID, hours int) (*activity.WishlistItem, error) {
	query := `
	UPDATE wishlist
	SET notification_hours_before = $3
	WHERE user_id = $1 AND campsite_id = $2
	RETURNING id, user_id, campsite_id, notification_hours_before, created_at
	`

	item := &activity.WishlistItem{}
	err := s.db.QueryRow(ctx, query, userID, campsiteID, hours).Scan(
		&item.ID, &item.UserID, &item.CampsiteID, &item.NotificationHoursBefore, &item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("wishlist item not found")
		}
		return nil, fmt.Errorf("failed to update wishlist item: %w", err)
	}
	return item, nil
}

func (s *ActivityService) RemoveFromWishlist(ctx context.Context, userID, campsiteID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM wishlist WHERE user_id = $1 AND campsite_id = $2`, userID, campsiteID)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wishlist item not found")
	}
	return nil
}

// GetPassport returns the user's passport, creating an empty one on first
// read so new users always have a passport row.
func (s *ActivityService) GetPassport(ctx context.Context, userID uuid.UUID) (*passport.ParkPassport, error) {
	query := `
	SELECT id, user_id, total_parks_visited, total_states, total_miles_hiked, total_nights_camped, updated_at
	FROM park_passports
	WHERE user_id = $1
	`

	p := &passport.ParkPassport{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.TotalParksVisited, &p.TotalStates,
		&p.TotalMilesHiked, &p.TotalNightsCamped, &p.UpdatedAt,
	)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get passport: %w", err)
	}

	insert := `
	INSERT INTO park_passports (id, user_id, updated_at)
	VALUES ($1, $2, $3)
	RETURNING id, user_id, total_parks_visited, total_states, total_miles_hiked, total_nights_camped, updated_at
	`
	err = s.db.QueryRow(ctx, insert, uuid.New(), userID, time.Now()).Scan(
		&p.ID, &p.UserID, &p.TotalParksVisited, &p.TotalStates,
		&p.TotalMilesHiked, &p.TotalNightsCamped, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create passport: %w", err)
	}
	return p, nil
}

func (s *ActivityService) parksForVisits(ctx context.Context, userID uuid.UUID, visited bool) ([]park.Park, error) {
	query := `
	SELECT DISTINCT p.id, p.name, p.state, p.region, p.established, p.area_sq_miles, p.description, p.latitude, p.longitude, p.website, p.created_at
	FROM parks p
	JOIN visits v ON v.park_id = p.id
	WHERE v.user_id = $1 AND v.visited = $2
	ORDER BY p.name
	`

	rows, err := s.db.Query(ctx, query, userID, visited)
	if err != nil {
		return nil, fmt.Errorf("failed to load visit parks: %w", err)
	}
	defer rows.Close()

	parks := []park.Park{}
	for rows.Next() {
		var p park.Park
		if err := rows.Scan(
			&p.ID, &p.Name, &p.State, &p.Region, &p.Established, &p.AreaSqMiles,
			&p.Description, &p.Latitude, &p.Longitude, &p.Website, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan park: %w", err)
		}
		parks = append(parks, p)
	}
	return parks, rows.Err()
}

// GetUserStats assembles the dashboard payload: profile, passport, the
// visited and wishlisted park lists, and the five most recent entries of
// each activity feed.
func (s *ActivityService) GetUserStats(ctx context.Context, userID uuid.UUID) (*stats.UserStats, error) {
	u := &user.User{}
	err := s.db.QueryRow(ctx, `
	SELECT id, name, email, bio, profile_pic_url, is_public, total_points, created_at
	FROM users WHERE id = $1`, userID).Scan(
		&u.ID, &u.Name, &u.Email, &u.Bio, &u.ProfilePicURL, &u.IsPublic, &u.TotalPoints, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	pp, err := s.GetPassport(ctx, userID)
	if err != nil {
		return nil, err
	}

	visitedParks, err := s.parksForVisits(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	wishlistParks, err := s.parksForVisits(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	visits, err := s.ListVisits(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	hikes, err := s.ListHikes(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	sightings, err := s.ListSightings(ctx, userID)
	if err != nil {
		return nil, err
	}

	const recent = 5
	if len(visits) > recent {
		visits = visits[:recent]
	}
	if len(hikes) > recent {
		hikes = hikes[:recent]
	}
	if len(sightings) > recent {
		sightings = sightings[:recent]
	}

	return &stats.UserStats{
		User:            u,
		Passport:        pp,
		VisitedParks:    visitedParks,
		WishlistParks:   wishlistParks,
		RecentVisits:    visits,
		RecentHikes:     hikes,
		RecentSightings: sightings,
	}, nil
}
