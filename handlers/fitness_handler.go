package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"parktrackerapi/internal/fitness"
	"parktrackerapi/internal/gamification"
	"parktrackerapi/middleware"
	"parktrackerapi/services"
	"parktrackerapi/utils"
)

// FitnessHandler serves fitness tracker connections and the Garmin OAuth
// and import flow.
type FitnessHandler struct {
	fitnessService  *services.FitnessService
	activityService *services.ActivityService
	garminService   *services.GarminService
	engine          *gamification.Engine
}

func NewFitnessHandler(fitnessService *services.FitnessService, activityService *services.ActivityService, garminService *services.GarminService, engine *gamification.Engine) *FitnessHandler {
	return &FitnessHandler{
		fitnessService:  fitnessService,
		activityService: activityService,
		garminService:   garminService,
		engine:          engine,
	}
}

// importedHikesFollowup recomputes the passport after a sync that created
// hike rows.
func (h *FitnessHandler) importedHikesFollowup(ctx context.Context, userID uuid.UUID, imported int) {
	if imported == 0 {
		return
	}
	if _, err := h.engine.RecomputePassport(ctx, userID); err != nil {
		log.Printf("failed to recompute passport after import for user %s: %v", userID, err)
		return
	}
	middleware.PassportRecomputes.Inc()
}

func trackerTypeFromPath(w http.ResponseWriter, r *http.Request) (fitness.TrackerType, bool) {
	trackerType := fitness.TrackerType(mux.Vars(r)["trackerType"])
	if !trackerType.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid tracker type")
		return "", false
	}
	return trackerType, true
}

func (h *FitnessHandler) ConnectTracker(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	trackerType, ok := trackerTypeFromPath(w, r)
	if !ok {
		return
	}

	var req fitness.ConnectTrackerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	auth, err := h.fitnessService.ConnectTracker(ctx, userID, trackerType, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to connect tracker")
		return
	}

	respondWithJSON(w, http.StatusCreated, auth)
}

func (h *FitnessHandler) ListConnectedTrackers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	trackers, err := h.fitnessService.ListConnectedTrackers(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list trackers")
		return
	}

	respondWithJSON(w, http.StatusOK, trackers)
}

func (h *FitnessHandler) DisconnectTracker(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	trackerType, ok := trackerTypeFromPath(w, r)
	if !ok {
		return
	}

	if err := h.fitnessService.DisconnectTracker(ctx, userID, trackerType); err != nil {
		if strings.Contains(err.Error(), "not connected") {
			respondWithError(w, http.StatusNotFound, "Tracker not connected")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to disconnect tracker")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (h *FitnessHandler) SyncTracker(w http.ResponseWriter, r *http.Request) {
	// garmin syncs go through the activity import, so this shares the
	// import deadline.
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	trackerType, ok := trackerTypeFromPath(w, r)
	if !ok {
		return
	}

	result, err := h.fitnessService.SyncTracker(ctx, userID, trackerType, h.activityService)
	if err != nil {
		if strings.Contains(err.Error(), "not connected") {
			respondWithError(w, http.StatusBadRequest, "Tracker not connected")
			return
		}
		respondWithError(w, http.StatusBadGateway, "Failed to sync tracker")
		return
	}

	h.importedHikesFollowup(ctx, userID, result.ActivitiesSynced)
	respondWithJSON(w, http.StatusOK, result)
}

func (h *FitnessHandler) GetSyncLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	logs, err := h.fitnessService.ListSyncLogs(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list sync logs")
		return
	}

	respondWithJSON(w, http.StatusOK, logs)
}

func (h *FitnessHandler) GarminAuthURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	// The user id doubles as the OAuth state so the callback can attribute
	// the tokens.
	url := h.garminService.AuthorizeURL(userID.String())
	respondWithJSON(w, http.StatusOK, map[string]string{"auth_url": url})
}

func (h *FitnessHandler) GarminExchangeToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var req fitness.GarminTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.garminService.ExchangeCode(ctx, req.AuthCode)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to exchange authorization code")
		return
	}

	auth, err := h.fitnessService.SaveGarminAuth(ctx, userID, token)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save Garmin connection")
		return
	}

	respondWithJSON(w, http.StatusOK, auth)
}

func (h *FitnessHandler) GarminStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	auth, err := h.fitnessService.GarminStatus(ctx, userID)
	if err != nil {
		if strings.Contains(err.Error(), "not connected") {
			respondWithJSON(w, http.StatusOK, map[string]bool{"connected": false})
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get Garmin status")
		return
	}

	respondWithJSON(w, http.StatusOK, auth)
}

func (h *FitnessHandler) GarminImport(w http.ResponseWriter, r *http.Request) {
	// Import hits the Garmin API and writes per activity, so it gets a
	// longer deadline than the CRUD handlers.
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var req fitness.GarminImportRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	result, err := h.fitnessService.ImportGarminHikes(ctx, userID, h.activityService, req.Limit)
	if err != nil {
		if strings.Contains(err.Error(), "not connected") {
			respondWithError(w, http.StatusBadRequest, "Garmin not connected")
			return
		}
		respondWithError(w, http.StatusBadGateway, "Failed to import Garmin activities")
		return
	}

	h.importedHikesFollowup(ctx, userID, result.Imported)
	respondWithJSON(w, http.StatusOK, result)
}

func (h *FitnessHandler) GarminDisconnect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.fitnessService.DisconnectGarmin(ctx, userID); err != nil {
		if strings.Contains(err.Error(), "not connected") {
			respondWithError(w, http.StatusNotFound, "Garmin not connected")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to disconnect Garmin")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}
