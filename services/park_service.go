package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parktrackerapi/internal/park"
)

type ParkService struct {
	db *pgxpool.Pool
}

func NewParkService(db *pgxpool.Pool) *ParkService {
	return &ParkService{db: db}
}

func (s *ParkService) CreatePark(ctx context.Context, req *park.CreateParkRequest) (*park.Park, error) {
	p := &park.Park{
		ID:          uuid.New(),
		Name:        req.Name,
		State:       req.State,
		Region:      req.Region,
		Established: req.Established,
		AreaSqMiles: req.AreaSqMiles,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Website:     req.Website,
		CreatedAt:   time.Now(),
	}

	query := `
	INSERT INTO parks (id, name, state, region, established, area_sq_miles, description, latitude, longitude, website, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.Exec(ctx, query,
		p.ID, p.Name, p.State, p.Region, p.Established, p.AreaSqMiles,
		p.Description, p.Latitude, p.Longitude, p.Website, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create park: %w", err)
	}

	return p, nil
}

func (s *ParkService) GetPark(ctx context.Context, parkID uuid.UUID) (*park.Park, error) {
	query := `
	SELECT id, name, state, region, established, area_sq_miles, description, latitude, longitude, website, created_at
	FROM parks
	WHERE id = $1
	`

	p := &park.Park{}
	err := s.db.QueryRow(ctx, query, parkID).Scan(
		&p.ID, &p.Name, &p.State, &p.Region, &p.Established, &p.AreaSqMiles,
		&p.Description, &p.Latitude, &p.Longitude, &p.Website, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("park not found")
		}
		return nil, fmt.Errorf("failed to get park: %w", err)
	}

	return p, nil
}

// ListParks returns the park directory, optionally filtered by state or
// region. Empty filters match everything.
func (s *ParkService) ListParks(ctx context.Context, state, region string) ([]park.Park, error) {
	query := `
	SELECT id, name, state, region, established, area_sq_miles, description, latitude, longitude, website, created_at
	FROM parks
	WHERE ($1 = '' OR state = $1)
	  AND ($2 = '' OR region = $2)
	ORDER BY name
	`

	rows, err := s.db.Query(ctx, query, state, region)
	if err != nil {
		return nil, fmt.Errorf("failed to list parks: %w", err)
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

func (s *ParkService) CreateTrail(ctx context.Context, parkID uuid.UUID, req *park.CreateTrailRequest) (*park.Trail, error) {
	t := &park.Trail{
		ID:              uuid.New(),
		ParkID:          parkID,
		Name:            req.Name,
		Difficulty:      req.Difficulty,
		DistanceMiles:   req.DistanceMiles,
		ElevationGainFt: req.ElevationGainFt,
		Description:     req.Description,
		BestSeason:      req.BestSeason,
		CreatedAt:       time.Now(),
	}

	query := `
	INSERT INTO trails (id, park_id, name, difficulty, distance_miles, elevation_gain_ft, description, best_season, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		t.ID, t.ParkID, t.Name, t.Difficulty, t.DistanceMiles,
		t.ElevationGainFt, t.Description, t.BestSeason, t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trail: %w", err)
	}

	return t, nil
}

func (s *ParkService) ListTrails(ctx context.Context, parkID uuid.UUID) ([]park.Trail, error) {
	query := `
	SELECT id, park_id, name, difficulty, distance_miles, elevation_gain_ft, description, best_season, created_at
	FROM trails
	WHERE park_id = $1
	ORDER BY name
	`

	rows, err := s.db.Query(ctx, query, parkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trails: %w", err)
	}
	defer rows.Close()

	trails := []park.Trail{}
	for rows.Next() {
		var t park.Trail
		if err := rows.Scan(
			&t.ID, &t.ParkID, &t.Name, &t.Difficulty, &t.DistanceMiles,
			&t.ElevationGainFt, &t.Description, &t.BestSeason, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trail: %w", err)
		}
		trails = append(trails, t)
	}
	return trails, rows.Err()
}

func (s *ParkService) CreateCampsite(ctx context.Context, parkID uuid.UUID, req *park.CreateCampsiteRequest) (*park.Campsite, error) {
	c := &park.Campsite{
		ID:           uuid.New(),
		ParkID:       parkID,
		Name:         req.Name,
		Elevation:    req.Elevation,
		HasWater:     req.HasWater,
		HasToilets:   req.HasToilets,
		MaxOccupancy: req.MaxOccupancy,
		Description:  req.Description,
		BookingOpens: req.BookingOpens,
		CreatedAt:    time.Now(),
	}

	query := `
	INSERT INTO campsites (id, park_id, name, elevation, has_water, has_toilets, max_occupancy, description, booking_opens, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.Exec(ctx, query,
		c.ID, c.ParkID, c.Name, c.Elevation, c.HasWater, c.HasToilets,
		c.MaxOccupancy, c.Description, c.BookingOpens, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create campsite: %w", err)
	}

	return c, nil
}

func (s *ParkService) ListCampsites(ctx context.Context, parkID uuid.UUID) ([]park.Campsite, error) {
	query := `
	SELECT id, park_id, name, elevation, has_water, has_toilets, max_occupancy, description, booking_opens, created_at
	FROM campsites
	WHERE park_id = $1
	ORDER BY name
	`

	rows, err := s.db.Query(ctx, query, parkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campsites: %w", err)
	}
	defer rows.Close()

	campsites := []park.Campsite{}
	for rows.Next() {
		var c park.Campsite
		if err := rows.Scan(
			&c.ID, &c.ParkID, &c.Name, &c.Elevation, &c.HasWater, &c.HasToilets,
			&c.MaxOccupancy, &c.Description, &c.BookingOpens, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan campsite: %w", err)
		}
		campsites = append(campsites, c)
	}
	return campsites, rows.Err()
}

// SeedParksFromFile loads the bundled park directory on first boot. It is
// a no-op once the parks table has rows.
func (s *ParkService) SeedParksFromFile(ctx context.Context, path string) error {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM parks`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count parks: %w", err)
	}
	if count > 0 {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read parks file: %w", err)
	}

	var seeds []park.CreateParkRequest
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return fmt.Errorf("failed to parse parks file: %w", err)
	}

	for i := range seeds {
		if _, err := s.CreatePark(ctx, &seeds[i]); err != nil {
			return fmt.Errorf("failed to seed park %q: %w", seeds[i].Name, err)
		}
	}

	log.Printf("Seeded %d parks from %s", len(seeds), path)
	return nil
}
