package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"parktrackerapi/internal/park"
	"parktrackerapi/services"
	"parktrackerapi/utils"
)

type ParkHandler struct {
	parkService *services.ParkService
}

func NewParkHandler(parkService *services.ParkService) *ParkHandler {
	return &ParkHandler{
		parkService: parkService,
	}
}

func (h *ParkHandler) CreatePark(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req park.CreateParkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.parkService.CreatePark(ctx, &req)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			respondWithError(w, http.StatusConflict, "Park already exists")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to create park")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ParkHandler) ListParks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	state := r.URL.Query().Get("state")
	region := r.URL.Query().Get("region")

	parks, err := h.parkService.ListParks(ctx, state, region)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list parks")
		return
	}

	respondWithJSON(w, http.StatusOK, parks)
}

func (h *ParkHandler) GetPark(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	parkID, ok := pathUUID(w, r, "parkID")
	if !ok {
		return
	}

	p, err := h.parkService.GetPark(ctx, parkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Park not found")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ParkHandler) CreateTrail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	parkID, ok := pathUUID(w, r, "parkID")
	if !ok {
		return
	}

	var req park.CreateTrailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.parkService.CreateTrail(ctx, parkID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create trail")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ParkHandler) ListTrails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	parkID, ok := pathUUID(w, r, "parkID")
	if !ok {
		return
	}

	trails, err := h.parkService.ListTrails(ctx, parkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list trails")
		return
	}

	respondWithJSON(w, http.StatusOK, trails)
}

func (h *ParkHandler) CreateCampsite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	parkID, ok := pathUUID(w, r, "parkID")
	if !ok {
		return
	}

	var req park.CreateCampsiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.parkService.CreateCampsite(ctx, parkID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create campsite")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ParkHandler) ListCampsites(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	parkID, ok := pathUUID(w, r, "parkID")
	if !ok {
		return
	}

	campsites, err := h.parkService.ListCampsites(ctx, parkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list campsites")
		return
	}

	respondWithJSON(w, http.StatusOK, campsites)
}
