package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RecreationService wraps the Recreation.gov campground search and
// availability APIs.
type RecreationService struct {
	BaseURL string
	client  *http.Client
	now     func() time.Time
}

func NewRecreationService() *RecreationService {
	return &RecreationService{
		BaseURL: "https://www.recreation.gov/api",
		client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}
}

// Campground is a Recreation.gov search result.
type Campground struct {
	FacilityID   json.Number `json:"facility_id"`
	FacilityName string      `json:"name"`
	ParentName   string      `json:"parent_name"`
	City         string      `json:"city"`
	StateCode    string      `json:"state_code"`
}

// CampsiteAvailability is one site's parsed availability calendar. Status
// values are available, reserved, walkup, or unavailable.
type CampsiteAvailability struct {
	SiteID       string            `json:"site_id"`
	CampgroundID string            `json:"campground_id"`
	Name         string            `json:"name"`
	Loop         string            `json:"loop"`
	Type         string            `json:"type"`
	Availability map[string]string `json:"availability"`
}

type availabilityResponse struct {
	Campsites map[string]struct {
		SiteName       string            `json:"site_name"`
		Loop           string            `json:"loop"`
		SiteType       string            `json:"site_type"`
		Availabilities map[string]string `json:"availabilities"`
	} `json:"campsites"`
}

func (s *RecreationService) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	// Recreation.gov throttles aggressively; retry transient failures with
	// exponential backoff.
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("recreation.gov returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("recreation.gov returned %d", resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(operation, policy)
}

// SearchCampground looks up a campground by name and returns the best match.
func (s *RecreationService) SearchCampground(ctx context.Context, name string) (*Campground, error) {
	endpoint := fmt.Sprintf("%s/camps/search?query=%s", s.BaseURL, url.QueryEscape(name))

	var payload struct {
		Data []Campground `json:"data"`
	}
	if err := s.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("failed to search campgrounds: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("campground not found")
	}
	return &payload.Data[0], nil
}

// Availability fetches one month of availability for a campground. Month
// format is YYYY-MM-01; empty means the current month.
func (s *RecreationService) Availability(ctx context.Context, campgroundID, month string) ([]CampsiteAvailability, error) {
	if month == "" {
		month = s.now().Format("2006-01") + "-01"
	}

	endpoint := fmt.Sprintf("%s/camps/availability/campgrounds/%s/month/%s", s.BaseURL, campgroundID, month)

	var payload availabilityResponse
	if err := s.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch availability: %w", err)
	}

	return parseAvailability(&payload, campgroundID), nil
}

// parseAvailability normalizes Recreation.gov status strings to the short
// forms the frontend filters on.
func parseAvailability(payload *availabilityResponse, campgroundID string) []CampsiteAvailability {
	sites := []CampsiteAvailability{}
	for siteID, site := range payload.Campsites {
		info := CampsiteAvailability{
			SiteID:       siteID,
			CampgroundID: campgroundID,
			Name:         site.SiteName,
			Loop:         site.Loop,
			Type:         site.SiteType,
			Availability: make(map[string]string, len(site.Availabilities)),
		}
		if info.Name == "" {
			info.Name = fmt.Sprintf("Site %s", siteID)
		}
		if info.Loop == "" {
			info.Loop = "Unknown"
		}
		if info.Type == "" {
			info.Type = "Unknown"
		}

		for date, status := range site.Availabilities {
			switch status {
			case "Available":
				info.Availability[date] = "available"
			case "Reserved":
				info.Availability[date] = "reserved"
			case "Walk-up Available":
				info.Availability[date] = "walkup"
			default:
				info.Availability[date] = "unavailable"
			}
		}

		sites = append(sites, info)
	}
	return sites
}

// AvailableDates collects the open dates per site name across the next
// numMonths months.
func (s *RecreationService) AvailableDates(ctx context.Context, campgroundID string, numMonths int) (map[string][]string, error) {
	if numMonths <= 0 {
		numMonths = 3
	}

	dates := make(map[string][]string)
	today := s.now()

	for i := 0; i < numMonths; i++ {
		month := today.AddDate(0, 0, 30*i).Format("2006-01") + "-01"
		sites, err := s.Availability(ctx, campgroundID, month)
		if err != nil {
			return nil, err
		}

		for _, site := range sites {
			for date, status := range site.Availability {
				if status != "available" {
					continue
				}
				if !containsString(dates[site.Name], date) {
					dates[site.Name] = append(dates[site.Name], date)
				}
			}
		}
	}

	return dates, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
