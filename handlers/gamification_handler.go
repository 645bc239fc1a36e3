package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"parktrackerapi/internal/cache"
	"parktrackerapi/internal/gamification"
	"parktrackerapi/middleware"
	"parktrackerapi/services"
	"parktrackerapi/utils"
)

const leaderboardCacheTTL = 30 * time.Second

// GamificationHandler serves badges, challenges, streaks, and the
// leaderboard.
type GamificationHandler struct {
	engine  *gamification.Engine
	service *services.GamificationService
	cache   *cache.Cache
}

func NewGamificationHandler(engine *gamification.Engine, service *services.GamificationService, c *cache.Cache) *GamificationHandler {
	return &GamificationHandler{
		engine:  engine,
		service: service,
		cache:   c,
	}
}

func (h *GamificationHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	summary, err := h.service.GetAchievements(ctx, userID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get achievements")
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

func (h *GamificationHandler) ListActiveChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	challenges, err := h.service.ActiveChallenges(ctx, time.Now())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list challenges")
		return
	}

	respondWithJSON(w, http.StatusOK, challenges)
}

// GetUserChallenges refreshes challenge progress and badge awards before
// returning the user's challenge rows, so reading progress is what keeps
// it current.
func (h *GamificationHandler) GetUserChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	completed, err := h.engine.SyncChallenges(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to sync challenges")
		return
	}
	middleware.ChallengeCompletions.Add(float64(len(completed)))

	awarded, err := h.engine.EvaluateBadges(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to evaluate badges")
		return
	}
	middleware.BadgeAwards.Add(float64(len(awarded)))

	challenges, err := h.service.ListUserChallenges(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list user challenges")
		return
	}

	respondWithJSON(w, http.StatusOK, challenges)
}

func (h *GamificationHandler) TrackStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var req gamification.TrackStreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch req.StreakType {
	case gamification.StreakHikingDays, gamification.StreakParkVisits:
	default:
		respondWithError(w, http.StatusBadRequest, "Invalid streak_type")
		return
	}

	streak, err := h.engine.TrackStreak(ctx, userID, req.StreakType)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to track streak")
		return
	}

	respondWithJSON(w, http.StatusOK, streak)
}

func (h *GamificationHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sortBy := gamification.SortKey(r.URL.Query().Get("sort_by"))
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	cacheKey := fmt.Sprintf("leaderboard:%s:%d", sortBy, limit)
	var cached []gamification.LeaderboardEntry
	if h.cache.GetJSON(ctx, cacheKey, &cached) {
		respondWithJSON(w, http.StatusOK, cached)
		return
	}

	entries, err := h.engine.Leaderboard(ctx, sortBy, limit)
	if err != nil {
		log.Printf("failed to build leaderboard: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get leaderboard")
		return
	}

	h.cache.SetJSON(ctx, cacheKey, entries, leaderboardCacheTTL)
	respondWithJSON(w, http.StatusOK, entries)
}
