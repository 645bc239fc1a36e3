package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"parktrackerapi/internal/activity"
	"parktrackerapi/internal/gamification"
	"parktrackerapi/middleware"
	"parktrackerapi/services"
	"parktrackerapi/utils"
)

// ActivityHandler serves the activity log endpoints. Creating a visit,
// hike, or camping trip also recomputes the passport; sightings do not
// touch it.
type ActivityHandler struct {
	activityService *services.ActivityService
	engine          *gamification.Engine
}

func NewActivityHandler(activityService *services.ActivityService, engine *gamification.Engine) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		engine:          engine,
	}
}

func (h *ActivityHandler) recomputePassport(ctx context.Context, userID uuid.UUID) {
	if _, err := h.engine.RecomputePassport(ctx, userID); err != nil {
		log.Printf("failed to recompute passport for user %s: %v", userID, err)
		return
	}
	middleware.PassportRecomputes.Inc()
}

func (h *ActivityHandler) LogVisit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var req activity.CreateVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	visit, err := h.activityService.CreateVisit(ctx, userID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to log visit")
		return
	}

	h.recomputePassport(ctx, userID)
	respondWithJSON(w, http.StatusCreated, visit)
}

func (h *ActivityHandler) GetVisits(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	// visited_only defaults to true; false returns the wishlist side of
	// the visit log.
	visitedOnly := true
	if raw := r.URL.Query().Get("visited_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid visited_only")
			return
		}
		visitedOnly = parsed
	}

	visits, err := h.activityService.ListVisits(ctx, userID, &visitedOnly)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list visits")
		return
	}

	respondWithJSON(w, http.StatusOK, visits)
}

func (h *ActivityHandler) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	visitID, ok := pathUUID(w, r, "visitID")
	if !ok {
		return
	}

	if err := h.activityService.DeleteVisit(ctx, userID, visitID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondWithError(w, http.StatusNotFound, "Visit not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to delete visit")
		return
	}

	h.recomputePassport(ctx, userID)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ActivityHandler) LogHike(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var req activity.CreateHikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	hike, err := h.activityService.CreateHike(ctx, userID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to log hike")
		return
	}

	h.recomputePassport(ctx, userID)
	respondWithJSON(w, http.StatusCreated, hike)
}

func (h *ActivityHandler) GetHikes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	days := 90
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid days")
			return
		}
		days = parsed
	}

	hikes, err := h.activityService.ListHikes(ctx, userID, days)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list hikes")
		return
	}

	respondWithJSON(w, http.StatusOK, hikes)
}

func (h *ActivityHandler) LogCampingTrip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var req activity.CreateCampingTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	trip, err := h.activityService.CreateCampingTrip(ctx, userID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to log camping trip")
		return
	}

	h.recomputePassport(ctx, userID)
	respondWithJSON(w, http.StatusCreated, trip)
}

func (h *ActivityHandler) GetCampingTrips(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	trips, err := h.activityService.ListCampingTrips(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list camping trips")
		return
	}

	respondWithJSON(w, http.StatusOK, trips)
}

func (h *ActivityHandler) LogSighting(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var req activity.CreateSightingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	sighting, err := h.activityService.CreateSighting(ctx, userID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to log sighting")
		return
	}

	respondWithJSON(w, http.StatusCreated, sighting)
}

func (h *ActivityHandler) GetSightings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	sightings, err := h.activityService.ListSightings(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list sightings")
		return
	}

	respondWithJSON(w, http.StatusOK, sightings)
}

func (h *ActivityHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var req activity.CreateWishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.activityService.AddToWishlist(ctx, userID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to add to wishlist")
		return
	}

	respondWithJSON(w, http.StatusCreated, item)
}

func (h *ActivityHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	items, err := h.activityService.ListWishlist(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list wishlist")
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

func (h *ActivityHandler) UpdateWishlistItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	campsiteID, ok := pathUUID(w, r, "campsiteID")
	if !ok {
		return
	}

	hours := 1
	if raw := r.URL.Query().Get("notification_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid notification_hours")
			return
		}
		hours = parsed
	}

	item, err := h.activityService.UpdateWishlistNotification(ctx, userID, campsiteID, hours)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondWithError(w, http.StatusNotFound, "Wishlist item not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to update wishlist item")
		return
	}

	respondWithJSON(w, http.StatusOK, item)
}

func (h *ActivityHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	campsiteID, ok := pathUUID(w, r, "campsiteID")
	if !ok {
		return
	}

	if err := h.activityService.RemoveFromWishlist(ctx, userID, campsiteID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondWithError(w, http.StatusNotFound, "Wishlist item not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to remove wishlist item")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ActivityHandler) GetPassport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	pp, err := h.activityService.GetPassport(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get passport")
		return
	}

	respondWithJSON(w, http.StatusOK, pp)
}

func (h *ActivityHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	userStats, err := h.activityService.GetUserStats(ctx, userID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get user stats")
		return
	}

	respondWithJSON(w, http.StatusOK, userStats)
}
