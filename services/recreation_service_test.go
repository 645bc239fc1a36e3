package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecreationService(baseURL string) *RecreationService {
	s := NewRecreationService()
	s.BaseURL = baseURL
	s.now = func() time.Time { return time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestSearchCampground(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/camps/search", r.URL.Path)
		assert.Equal(t, "Upper Pines", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"facility_id":"232447","name":"Upper Pines","state_code":"CA"}]}`))
	}))
	defer server.Close()

	cg, err := testRecreationService(server.URL).SearchCampground(context.Background(), "Upper Pines")
	require.NoError(t, err)
	assert.Equal(t, "232447", cg.FacilityID.String())
	assert.Equal(t, "Upper Pines", cg.FacilityName)
}

func TestSearchCampgroundNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	_, err := testRecreationService(server.URL).SearchCampground(context.Background(), "Nowhere")
	assert.ErrorContains(t, err, "campground not found")
}

func TestAvailabilityNormalizesStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/camps/availability/campgrounds/232447/month/2024-07-01", r.URL.Path)
		w.Write([]byte(`{"campsites":{
			"101":{"site_name":"A1","loop":"Loop A","site_type":"TENT","availabilities":{
				"2024-07-01T00:00:00Z":"Available",
				"2024-07-02T00:00:00Z":"Reserved",
				"2024-07-03T00:00:00Z":"Walk-up Available",
				"2024-07-04T00:00:00Z":"Closed"
			}}
		}}`))
	}))
	defer server.Close()

	sites, err := testRecreationService(server.URL).Availability(context.Background(), "232447", "")
	require.NoError(t, err)
	require.Len(t, sites, 1)

	site := sites[0]
	assert.Equal(t, "A1", site.Name)
	assert.Equal(t, "Loop A", site.Loop)
	assert.Equal(t, "available", site.Availability["2024-07-01T00:00:00Z"])
	assert.Equal(t, "reserved", site.Availability["2024-07-02T00:00:00Z"])
	assert.Equal(t, "walkup", site.Availability["2024-07-03T00:00:00Z"])
	assert.Equal(t, "unavailable", site.Availability["2024-07-04T00:00:00Z"])
}

func TestAvailabilityFillsMissingSiteFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"campsites":{"77":{"availabilities":{}}}}`))
	}))
	defer server.Close()

	sites, err := testRecreationService(server.URL).Availability(context.Background(), "9", "2024-07-01")
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "Site 77", sites[0].Name)
	assert.Equal(t, "Unknown", sites[0].Loop)
	assert.Equal(t, "Unknown", sites[0].Type)
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"campsites":{}}`))
	}))
	defer server.Close()

	sites, err := testRecreationService(server.URL).Availability(context.Background(), "1", "2024-07-01")
	require.NoError(t, err)
	assert.Empty(t, sites)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testRecreationService(server.URL).Availability(context.Background(), "1", "2024-07-01")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAvailableDatesAggregatesAcrossMonths(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"campsites":{
			"101":{"site_name":"A1","availabilities":{
				"2024-07-01T00:00:00Z":"Available",
				"2024-07-02T00:00:00Z":"Reserved"
			}}
		}}`))
	}))
	defer server.Close()

	dates, err := testRecreationService(server.URL).AvailableDates(context.Background(), "232447", 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	// The same date appearing in both months is listed once.
	assert.Equal(t, []string{"2024-07-01T00:00:00Z"}, dates["A1"])
}
