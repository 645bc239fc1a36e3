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
	"golang.org/x/oauth2"

	"parktrackerapi/internal/fitness"
)

// FitnessService persists fitness tracker connections and drives Garmin
// activity imports.
type FitnessService struct {
	db     *pgxpool.Pool
	garmin *GarminService
}

func NewFitnessService(db *pgxpool.Pool, garmin *GarminService) *FitnessService {
	return &FitnessService{db: db, garmin: garmin}
}

// ImportResult reports the outcome of a Garmin import run.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Hikes    []string `json:"hikes"`
}

func (s *FitnessService) ConnectTracker(ctx context.Context, userID uuid.UUID, trackerType fitness.TrackerType, req *fitness.ConnectTrackerRequest) (*fitness.TrackerAuth, error) {
	auth := &fitness.TrackerAuth{
		ID:           uuid.New(),
		UserID:       userID,
		TrackerType:  trackerType,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		Connected:    true,
		CreatedAt:    time.Now(),
	}
	if req.ExpiresIn != nil {
		expires := time.Now().Add(time.Duration(*req.ExpiresIn) * time.Second)
		auth.TokenExpiresAt = &expires
	}

	query := `
	INSERT INTO fitness_tracker_auth (id, user_id, tracker_type, access_token, refresh_token, token_expires_at, connected, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (user_id, tracker_type) DO UPDATE SET
		access_token = EXCLUDED.access_token,
		refresh_token = EXCLUDED.refresh_token,
		token_expires_at = EXCLUDED.token_expires_at,
		connected = TRUE
	RETURNING id, created_at
	`

	err := s.db.QueryRow(ctx, query,
		auth.ID, auth.UserID, auth.TrackerType, auth.AccessToken,
		auth.RefreshToken, auth.TokenExpiresAt, auth.Connected, auth.CreatedAt,
	).Scan(&auth.ID, &auth.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to connect tracker: %w", err)
	}

	return auth, nil
}

func (s *FitnessService) TrackerStatus(ctx context.Context, userID uuid.UUID, trackerType fitness.TrackerType) (*fitness.TrackerAuth, error) {
	query := `
	SELECT id, user_id, tracker_type, access_token, refresh_token, token_expires_at, connected, last_sync, created_at
	FROM fitness_tracker_auth
	WHERE user_id = $1 AND tracker_type = $2
	`

	auth := &fitness.TrackerAuth{}
	err := s.db.QueryRow(ctx, query, userID, trackerType).Scan(
		&auth.ID, &auth.UserID, &auth.TrackerType, &auth.AccessToken,
		&auth.RefreshToken, &auth.TokenExpiresAt, &auth.Connected,
		&auth.LastSync, &auth.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("tracker not connected")
		}
		return nil, fmt.Errorf("failed to get tracker status: %w", err)
	}

	return auth, nil
}

func (s *FitnessService) ListConnectedTrackers(ctx context.Context, userID uuid.UUID) ([]fitness.TrackerAuth, error) {
	query := `
	SELECT id, user_id, tracker_type, access_token, refresh_token, token_expires_at, connected, last_sync, created_at
	FROM fitness_tracker_auth
	WHERE user_id = $1 AND connected
	ORDER BY tracker_type
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trackers: %w", err)
	}
	defer rows.Close()

	trackers := []fitness.TrackerAuth{}
	for rows.Next() {
		var auth fitness.TrackerAuth
		if err := rows.Scan(
			&auth.ID, &auth.UserID, &auth.TrackerType, &auth.AccessToken,
			&auth.RefreshToken, &auth.TokenExpiresAt, &auth.Connected,
			&auth.LastSync, &auth.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tracker: %w", err)
		}
		trackers = append(trackers, auth)
	}
	return trackers, rows.Err()
}

func (s *FitnessService) DisconnectTracker(ctx context.Context, userID uuid.UUID, trackerType fitness.TrackerType) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE fitness_tracker_auth SET connected = FALSE WHERE user_id = $1 AND tracker_type = $2`,
		userID, trackerType)
	if err != nil {
		return fmt.Errorf("failed to disconnect tracker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tracker not connected")
	}
	return nil
}

// SyncTracker manually re-syncs a connected tracker. garmin goes through
// the activity import; the other tracker types only stamp last_sync and
// log a zero-activity run until their APIs are wired up.
func (s *FitnessService) SyncTracker(ctx context.Context, userID uuid.UUID, trackerType fitness.TrackerType, activities *ActivityService) (*fitness.SyncResult, error) {
	if trackerType == fitness.TrackerGarmin {
		imported, err := s.ImportGarminHikes(ctx, userID, activities, 0)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		return &fitness.SyncResult{
			Status:           "synced",
			TrackerType:      trackerType,
			LastSync:         &now,
			ActivitiesSynced: imported.Imported,
		}, nil
	}

	auth, err := s.TrackerStatus(ctx, userID, trackerType)
	if err != nil {
		return nil, err
	}
	if !auth.Connected {
		return nil, fmt.Errorf("tracker not connected")
	}

	now := time.Now()
	_, err = s.db.Exec(ctx,
		`UPDATE fitness_tracker_auth SET last_sync = $3 WHERE user_id = $1 AND tracker_type = $2`,
		userID, trackerType, now)
	if err != nil {
		return nil, fmt.Errorf("failed to stamp last sync: %w", err)
	}

	s.recordSync(ctx, userID, trackerType, 0, nil)

	return &fitness.SyncResult{
		Status:           "synced",
		TrackerType:      trackerType,
		LastSync:         &now,
		ActivitiesSynced: 0,
	}, nil
}

func (s *FitnessService) ListSyncLogs(ctx context.Context, userID uuid.UUID) ([]fitness.SyncLog, error) {
	query := `
	SELECT id, user_id, tracker_type, activities_synced, success, error_message, sync_date
	FROM sync_logs
	WHERE user_id = $1
	ORDER BY sync_date DESC
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync logs: %w", err)
	}
	defer rows.Close()

	logs := []fitness.SyncLog{}
	for rows.Next() {
		var sl fitness.SyncLog
		if err := rows.Scan(
			&sl.ID, &sl.UserID, &sl.TrackerType, &sl.ActivitiesSynced,
			&sl.Success, &sl.ErrorMessage, &sl.SyncDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}
		logs = append(logs, sl)
	}
	return logs, rows.Err()
}

func (s *FitnessService) recordSync(ctx context.Context, userID uuid.UUID, trackerType fitness.TrackerType, synced int, syncErr error) {
	var message *string
	success := syncErr == nil
	if syncErr != nil {
		text := syncErr.Error()
		message = &text
	}

	_, err := s.db.Exec(ctx, `
	INSERT INTO sync_logs (id, user_id, tracker_type, activities_synced, success, error_message, sync_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), userID, trackerType, synced, success, message, time.Now())
	if err != nil {
		log.Printf("failed to record sync log for user %s: %v", userID, err)
	}
}

// SaveGarminAuth upserts the user's Garmin OAuth tokens.
func (s *FitnessService) SaveGarminAuth(ctx context.Context, userID uuid.UUID, token *oauth2.Token) (*fitness.GarminAuth, error) {
	auth := &fitness.GarminAuth{
		ID:          uuid.New(),
		UserID:      userID,
		AccessToken: token.AccessToken,
		Connected:   true,
	}
	if token.RefreshToken != "" {
		refresh := token.RefreshToken
		auth.RefreshToken = &refresh
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		auth.TokenExpiresAt = &expiry
	}

	query := `
	INSERT INTO garmin_auth (id, user_id, access_token, refresh_token, token_expires_at, connected, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
	ON CONFLICT (user_id) DO UPDATE SET
		access_token = EXCLUDED.access_token,
		refresh_token = EXCLUDED.refresh_token,
		token_expires_at = EXCLUDED.token_expires_at,
		connected = TRUE,
		updated_at = NOW()
	RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRow(ctx, query,
		auth.ID, auth.UserID, auth.AccessToken, auth.RefreshToken, auth.TokenExpiresAt,
	).Scan(&auth.ID, &auth.CreatedAt, &auth.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save garmin auth: %w", err)
	}

	return auth, nil
}

func (s *FitnessService) GarminStatus(ctx context.Context, userID uuid.UUID) (*fitness.GarminAuth, error) {
	query := `
	SELECT id, user_id, access_token, refresh_token, token_expires_at, garmin_user_id, connected, last_sync, created_at, updated_at
	FROM garmin_auth
	WHERE user_id = $1
	`

	auth := &fitness.GarminAuth{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&auth.ID, &auth.UserID, &auth.AccessToken, &auth.RefreshToken,
		&auth.TokenExpiresAt, &auth.GarminUserID, &auth.Connected,
		&auth.LastSync, &auth.CreatedAt, &auth.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("garmin not connected")
		}
		return nil, fmt.Errorf("failed to get garmin status: %w", err)
	}

	return auth, nil
}

func (s *FitnessService) DisconnectGarmin(ctx context.Context, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE garmin_auth SET connected = FALSE, updated_at = NOW() WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to disconnect garmin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("garmin not connected")
	}
	return nil
}

// ImportGarminHikes pulls recent Garmin activities, converts the hiking
// ones into hike rows, and records a sync log either way.
func (s *FitnessService) ImportGarminHikes(ctx context.Context, userID uuid.UUID, activities *ActivityService, limit int) (*ImportResult, error) {
	if limit <= 0 {
		limit = 50
	}

	auth, err := s.GarminStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.Connected {
		return nil, fmt.Errorf("garmin not connected")
	}

	fetched, err := s.garmin.Activities(ctx, auth.AccessToken, limit, 0)
	if err != nil {
		s.recordSync(ctx, userID, fitness.TrackerGarmin, 0, err)
		return nil, err
	}

	result := &ImportResult{Hikes: []string{}}
	for _, act := range fetched {
		req := ParseActivityToHike(act)
		if req == nil {
			result.Skipped++
			continue
		}
		hike, err := activities.CreateHike(ctx, userID, req)
		if err != nil {
			s.recordSync(ctx, userID, fitness.TrackerGarmin, result.Imported, err)
			return nil, fmt.Errorf("failed to import activity %d: %w", act.ActivityID, err)
		}
		result.Imported++
		result.Hikes = append(result.Hikes, hike.ID.String())
	}

	s.recordSync(ctx, userID, fitness.TrackerGarmin, result.Imported, nil)

	_, err = s.db.Exec(ctx,
		`UPDATE garmin_auth SET last_sync = NOW(), updated_at = NOW() WHERE user_id = $1`, userID)
	if err != nil {
		log.Printf("failed to stamp garmin last_sync for user %s: %v", userID, err)
	}

	return result, nil
}
