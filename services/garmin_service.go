package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"parktrackerapi/internal/activity"
)

const (
	garminAuthURL  = "https://connect.garmin.com/oauthserver/oauth/authorize"
	garminTokenURL = "https://connect.garmin.com/oauthserver/oauth/token"
	garminAPIBase  = "https://connect.garmin.com/api/v1"
)

// hikingActivityTypes are the Garmin activity type keys imported as hikes.
var hikingActivityTypes = map[string]bool{
	"running":         true,
	"hiking":          true,
	"trail_running":   true,
	"outdoor_running": true,
}

// GarminActivity is the subset of a Garmin Connect activity payload the
// importer cares about.
type GarminActivity struct {
	ActivityID   int64   `json:"activityId"`
	ActivityName string  `json:"activityName"`
	ActivityType struct {
		TypeKey string `json:"typeKey"`
	} `json:"activityType"`
	StartTimeInSeconds int64    `json:"startTimeInSeconds"`
	Duration           float64  `json:"duration"`
	Distance           float64  `json:"distance"`
	ElevationGain      float64  `json:"elevationGain"`
	Calories           float64  `json:"calories"`
	AvgPace            *string  `json:"avgPace"`
}

// GarminService talks to the Garmin Connect OAuth and activity APIs.
type GarminService struct {
	oauth   *oauth2.Config
	client  *http.Client
	apiBase string
}

func NewGarminService() *GarminService {
	redirectURI := os.Getenv("GARMIN_REDIRECT_URI")
	if redirectURI == "" {
		redirectURI = "http://localhost:3001/fitness"
	}

	return &GarminService{
		oauth: &oauth2.Config{
			ClientID:     os.Getenv("GARMIN_CLIENT_ID"),
			ClientSecret: os.Getenv("GARMIN_CLIENT_SECRET"),
			RedirectURL:  redirectURI,
			Scopes:       []string{"activities:read"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  garminAuthURL,
				TokenURL: garminTokenURL,
			},
		},
		client:  &http.Client{Timeout: 15 * time.Second},
		apiBase: garminAPIBase,
	}
}

// AuthorizeURL builds the OAuth consent URL the frontend redirects to.
func (s *GarminService) AuthorizeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for tokens.
func (s *GarminService) ExchangeCode(ctx context.Context, authCode string) (*oauth2.Token, error) {
	token, err := s.oauth.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange garmin auth code: %w", err)
	}
	return token, nil
}

// Activities fetches a page of the user's Garmin activities.
func (s *GarminService) Activities(ctx context.Context, accessToken string, limit, start int) ([]GarminActivity, error) {
	endpoint := fmt.Sprintf("%s/userprofile-service/userprofile/dist/activities", s.apiBase)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build garmin request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("start", strconv.Itoa(start))
	req.URL.RawQuery = q.Encode()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch garmin activities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("garmin activities request returned %d", resp.StatusCode)
	}

	var payload struct {
		Activities []GarminActivity `json:"activities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode garmin activities: %w", err)
	}
	return payload.Activities, nil
}

// FilterHikingActivities keeps only the activity types importable as hikes.
func FilterHikingActivities(activities []GarminActivity) []GarminActivity {
	out := make([]GarminActivity, 0, len(activities))
	for _, a := range activities {
		if hikingActivityTypes[a.ActivityType.TypeKey] {
			out = append(out, a)
		}
	}
	return out
}

// ParseActivityToHike converts a Garmin activity into a hike create
// request. Returns nil for activity types that are not hikes.
func ParseActivityToHike(a GarminActivity) *activity.CreateHikeRequest {
	if !hikingActivityTypes[a.ActivityType.TypeKey] {
		return nil
	}

	source := "garmin"
	notes := fmt.Sprintf("Imported from Garmin: %s", a.ActivityName)
	if a.ActivityName == "" {
		notes = "Imported from Garmin: Activity"
	}

	req := &activity.CreateHikeRequest{
		// Garmin timestamps are epoch milliseconds.
		HikeDate:              time.Unix(a.StartTimeInSeconds/1000, 0).UTC(),
		DurationMinutes:       int(a.Duration / 60),
		AvgPace:               a.AvgPace,
		Notes:                 &notes,
		DifficultyExperienced: "moderate",
		FitnessTrackerSource:  &source,
	}

	if a.Distance > 0 {
		miles := a.Distance / 1609.34
		req.DistanceMiles = &miles
	}
	if a.ElevationGain > 0 {
		gain := int(a.ElevationGain)
		req.ElevationGain = &gain
	}
	if a.Calories > 0 {
		calories := int(a.Calories)
		req.Calories = &calories
	}

	return req
}
