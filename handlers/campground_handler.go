package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"parktrackerapi/services"
)

// CampgroundHandler proxies Recreation.gov campground search and
// availability lookups.
type CampgroundHandler struct {
	recreationService *services.RecreationService
}

func NewCampgroundHandler(recreationService *services.RecreationService) *CampgroundHandler {
	return &CampgroundHandler{
		recreationService: recreationService,
	}
}

func (h *CampgroundHandler) SearchCampgrounds(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	query := r.URL.Query().Get("query")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Search query parameter 'query' is required")
		return
	}

	campground, err := h.recreationService.SearchCampground(ctx, query)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondWithError(w, http.StatusNotFound, "Campground not found")
			return
		}
		respondWithError(w, http.StatusBadGateway, "Failed to search campgrounds")
		return
	}

	respondWithJSON(w, http.StatusOK, campground)
}

func (h *CampgroundHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	campgroundID := mux.Vars(r)["campgroundID"]
	month := r.URL.Query().Get("month")

	sites, err := h.recreationService.Availability(ctx, campgroundID, month)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to fetch availability")
		return
	}

	respondWithJSON(w, http.StatusOK, sites)
}

func (h *CampgroundHandler) GetAvailableDates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 45*time.Second)
	defer cancel()

	campgroundID := mux.Vars(r)["campgroundID"]

	months := 3
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 12 {
			respondWithError(w, http.StatusBadRequest, "Invalid months")
			return
		}
		months = parsed
	}

	dates, err := h.recreationService.AvailableDates(ctx, campgroundID, months)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to fetch available dates")
		return
	}

	respondWithJSON(w, http.StatusOK, dates)
}
