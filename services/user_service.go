package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parktrackerapi/internal/gamification"
	"parktrackerapi/internal/user"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:            uuid.New(),
		Name:          req.Name,
		Email:         req.Email,
		Bio:           req.Bio,
		ProfilePicURL: req.ProfilePicURL,
		IsPublic:      true,
		CreatedAt:     time.Now(),
	}
	if req.IsPublic != nil {
		u.IsPublic = *req.IsPublic
	}

	query := `
	INSERT INTO users (id, name, email, bio, profile_pic_url, is_public, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, name, email, bio, profile_pic_url, is_public, total_points, created_at
	`

	err := s.db.QueryRow(ctx, query, u.ID, u.Name, u.Email, u.Bio, u.ProfilePicURL, u.IsPublic, u.CreatedAt).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Bio,
		&u.ProfilePicURL,
		&u.IsPublic,
		&u.TotalPoints,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	query := `
	SELECT id, name, email, bio, profile_pic_url, is_public, total_points, created_at
	FROM users
	WHERE id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Bio,
		&u.ProfilePicURL,
		&u.IsPublic,
		&u.TotalPoints,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
	SELECT id, name, email, bio, profile_pic_url, is_public, total_points, created_at
	FROM users
	WHERE email = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Bio,
		&u.ProfilePicURL,
		&u.IsPublic,
		&u.TotalPoints,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return u, nil
}

// GetPublicProfile builds the shareable profile for a public user. Private
// users and unknown ids both report not found, so the endpoint never leaks
// whether a private account exists.
func (s *UserService) GetPublicProfile(ctx context.Context, userID uuid.UUID) (*user.PublicProfile, error) {
	query := `
	SELECT u.id, u.name, u.bio, u.profile_pic_url, u.total_points,
	       COALESCE(v.parks_visited, 0),
	       COALESCE(h.miles_hiked, 0)
	FROM users u
	LEFT JOIN (
		SELECT user_id, COUNT(DISTINCT park_id) AS parks_visited
		FROM visits WHERE visited GROUP BY user_id
	) v ON v.user_id = u.id
	LEFT JOIN (
		SELECT user_id, SUM(distance_miles) AS miles_hiked
		FROM trail_hikes GROUP BY user_id
	) h ON h.user_id = u.id
	WHERE u.id = $1 AND u.is_public
	`

	p := &user.PublicProfile{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&p.ID,
		&p.Name,
		&p.Bio,
		&p.ProfilePicURL,
		&p.TotalPoints,
		&p.VisitedParks,
		&p.TotalMilesHiked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile not found")
		}
		return nil, fmt.Errorf("failed to get public profile: %w", err)
	}

	badgeQuery := `
	SELECT b.id, b.name, b.description, b.icon_url, b.criteria, b.created_at
	FROM badges b
	JOIN user_achievements ua ON ua.badge_id = b.id
	WHERE ua.user_id = $1
	ORDER BY ua.earned_date
	`

	rows, err := s.db.Query(ctx, badgeQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile badges: %w", err)
	}
	defer rows.Close()

	p.Badges = []gamification.Badge{}
	for rows.Next() {
		var b gamification.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.IconURL, &b.Criteria, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile badge: %w", err)
		}
		p.Badges = append(p.Badges, b)
	}
	return p, rows.Err()
}

func (s *UserService) ListUsers(ctx context.Context) ([]user.User, error) {
	query := `
	SELECT id, name, email, bio, profile_pic_url, is_public, total_points, created_at
	FROM users
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []user.User{}
	for rows.Next() {
		var u user.User
		if err := rows.Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.Bio,
			&u.ProfilePicURL,
			&u.IsPublic,
			&u.TotalPoints,
			&u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users
	SET name = COALESCE($2, name),
	    bio = COALESCE($3, bio),
	    profile_pic_url = COALESCE($4, profile_pic_url),
	    is_public = COALESCE($5, is_public)
	WHERE id = $1
	RETURNING id, name, email, bio, profile_pic_url, is_public, total_points, created_at
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, userID, req.Name, req.Bio, req.ProfilePicURL, req.IsPublic).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Bio,
		&u.ProfilePicURL,
		&u.IsPublic,
		&u.TotalPoints,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}
