package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parktrackerapi/internal/activity"
	"parktrackerapi/internal/gamification"
	"parktrackerapi/internal/passport"
)

// stubStore satisfies gamification.Store with overridable hooks for the
// methods a handler path actually touches.
type stubStore struct {
	streakFor  func(userID uuid.UUID, streakType gamification.StreakType) (*gamification.Streak, error)
	saveStreak func(s *gamification.Streak) error
	aggregates func(sortBy gamification.SortKey, limit int) ([]gamification.LeaderboardRow, error)
}

func (s *stubStore) ActivityHistory(ctx context.Context, userID uuid.UUID) (*activity.History, error) {
	return &activity.History{}, nil
}

func (s *stubStore) ParkStates(ctx context.Context, parkIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	return map[uuid.UUID]string{}, nil
}

func (s *stubStore) Badges(ctx context.Context) ([]gamification.Badge, error) {
	return nil, nil
}

func (s *stubStore) EarnedBadgeIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	return map[uuid.UUID]bool{}, nil
}

func (s *stubStore) AwardBadge(ctx context.Context, userID, badgeID uuid.UUID, earnedAt time.Time) error {
	return nil
}

func (s *stubStore) ActiveChallenges(ctx context.Context, now time.Time) ([]gamification.Challenge, error) {
	return nil, nil
}

func (s *stubStore) UserChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*gamification.UserChallenge, error) {
	return nil, gamification.ErrNotFound
}

func (s *stubStore) CreateUserChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*gamification.UserChallenge, error) {
	return &gamification.UserChallenge{UserID: userID, ChallengeID: challengeID}, nil
}

func (s *stubStore) UpdateUserChallenge(ctx context.Context, uc *gamification.UserChallenge) error {
	return nil
}

func (s *stubStore) SavePassport(ctx context.Context, userID uuid.UUID, stats passport.Stats) error {
	return nil
}

func (s *stubStore) AddPoints(ctx context.Context, userID uuid.UUID, delta int) error {
	return nil
}

func (s *stubStore) StreakFor(ctx context.Context, userID uuid.UUID, streakType gamification.StreakType) (*gamification.Streak, error) {
	if s.streakFor != nil {
		return s.streakFor(userID, streakType)
	}
	return nil, gamification.ErrNotFound
}

func (s *stubStore) SaveStreak(ctx context.Context, st *gamification.Streak) error {
	if s.saveStreak != nil {
		return s.saveStreak(st)
	}
	return nil
}

func (s *stubStore) PublicUserAggregates(ctx context.Context, sortBy gamification.SortKey, limit int) ([]gamification.LeaderboardRow, error) {
	if s.aggregates != nil {
		return s.aggregates(sortBy, limit)
	}
	return nil, nil
}

func newTestGamificationHandler(store gamification.Store) *GamificationHandler {
	return NewGamificationHandler(gamification.NewEngine(store), nil, nil)
}

func TestTrackStreakCreatesNewStreak(t *testing.T) {
	var saved *gamification.Streak
	store := &stubStore{
		saveStreak: func(s *gamification.Streak) error {
			saved = s
			return nil
		},
	}
	handler := newTestGamificationHandler(store)

	userID := uuid.New()
	body := strings.NewReader(`{"streak_type": "hiking_days"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/"+userID.String()+"/streaks", body)
	req = mux.SetURLVars(req, map[string]string{"userID": userID.String()})
	rr := httptest.NewRecorder()

	handler.TrackStreak(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, saved)
	assert.Equal(t, userID, saved.UserID)
	assert.Equal(t, gamification.StreakHikingDays, saved.StreakType)
	assert.Equal(t, 1, saved.CurrentCount)
	assert.Equal(t, 1, saved.BestCount)

	var response gamification.Streak
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, 1, response.CurrentCount)
}

func TestTrackStreakRejectsUnknownType(t *testing.T) {
	handler := newTestGamificationHandler(&stubStore{})

	userID := uuid.New()
	body := strings.NewReader(`{"streak_type": "cartwheels"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/"+userID.String()+"/streaks", body)
	req = mux.SetURLVars(req, map[string]string{"userID": userID.String()})
	rr := httptest.NewRecorder()

	handler.TrackStreak(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTrackStreakRejectsMissingType(t *testing.T) {
	handler := newTestGamificationHandler(&stubStore{})

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/"+userID.String()+"/streaks", strings.NewReader(`{}`))
	req = mux.SetURLVars(req, map[string]string{"userID": userID.String()})
	rr := httptest.NewRecorder()

	handler.TrackStreak(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTrackStreakRejectsBadUserID(t *testing.T) {
	handler := newTestGamificationHandler(&stubStore{})

	body := strings.NewReader(`{"streak_type": "park_visits"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/not-a-uuid/streaks", body)
	req = mux.SetURLVars(req, map[string]string{"userID": "not-a-uuid"})
	rr := httptest.NewRecorder()

	handler.TrackStreak(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetLeaderboardRanksEntries(t *testing.T) {
	var gotSort gamification.SortKey
	var gotLimit int
	store := &stubStore{
		aggregates: func(sortBy gamification.SortKey, limit int) ([]gamification.LeaderboardRow, error) {
			gotSort = sortBy
			gotLimit = limit
			return []gamification.LeaderboardRow{
				{UserID: uuid.New(), UserName: "hightops", TotalPoints: 900},
				{UserID: uuid.New(), UserName: "trailmix", TotalPoints: 650},
			}, nil
		},
	}
	handler := newTestGamificationHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?sort_by=points&limit=10", nil)
	rr := httptest.NewRecorder()

	handler.GetLeaderboard(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, gamification.SortByPoints, gotSort)
	assert.Equal(t, 10, gotLimit)

	var entries []gamification.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "hightops", entries[0].UserName)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "trailmix", entries[1].UserName)
}

func TestGetLeaderboardDefaultsToPoints(t *testing.T) {
	var gotSort gamification.SortKey
	var gotLimit int
	store := &stubStore{
		aggregates: func(sortBy gamification.SortKey, limit int) ([]gamification.LeaderboardRow, error) {
			gotSort = sortBy
			gotLimit = limit
			return nil, nil
		},
	}
	handler := newTestGamificationHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?sort_by=charisma", nil)
	rr := httptest.NewRecorder()

	handler.GetLeaderboard(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, gamification.SortByPoints, gotSort)
	assert.Equal(t, 100, gotLimit)
}

func TestGetLeaderboardRejectsInvalidLimit(t *testing.T) {
	handler := newTestGamificationHandler(&stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit=zero", nil)
	rr := httptest.NewRecorder()

	handler.GetLeaderboard(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
