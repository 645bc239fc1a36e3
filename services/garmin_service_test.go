package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func garminActivity(typeKey string) GarminActivity {
	a := GarminActivity{
		ActivityID:         123,
		ActivityName:       "Morning Trail Run",
		StartTimeInSeconds: 1717243200000, // 2024-06-01T12:00:00Z in epoch ms
		Duration:           5400,
		Distance:           8046.7, // meters
		ElevationGain:      320.5,
		Calories:           612.2,
	}
	a.ActivityType.TypeKey = typeKey
	return a
}

func TestParseActivityToHike(t *testing.T) {
	hike := ParseActivityToHike(garminActivity("trail_running"))
	require.NotNil(t, hike)

	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), hike.HikeDate)
	assert.Equal(t, 90, hike.DurationMinutes)
	require.NotNil(t, hike.DistanceMiles)
	assert.InDelta(t, 5.0, *hike.DistanceMiles, 0.01)
	require.NotNil(t, hike.ElevationGain)
	assert.Equal(t, 320, *hike.ElevationGain)
	require.NotNil(t, hike.Calories)
	assert.Equal(t, 612, *hike.Calories)
	assert.Equal(t, "moderate", hike.DifficultyExperienced)
	require.NotNil(t, hike.Notes)
	assert.Equal(t, "Imported from Garmin: Morning Trail Run", *hike.Notes)
	require.NotNil(t, hike.FitnessTrackerSource)
	assert.Equal(t, "garmin", *hike.FitnessTrackerSource)
}

func TestParseActivityToHikeSkipsNonHiking(t *testing.T) {
	assert.Nil(t, ParseActivityToHike(garminActivity("cycling")))
	assert.Nil(t, ParseActivityToHike(garminActivity("swimming")))
}

func TestParseActivityToHikeOmitsZeroMetrics(t *testing.T) {
	a := garminActivity("hiking")
	a.Distance = 0
	a.ElevationGain = 0
	a.Calories = 0

	hike := ParseActivityToHike(a)
	require.NotNil(t, hike)
	assert.Nil(t, hike.DistanceMiles)
	assert.Nil(t, hike.ElevationGain)
	assert.Nil(t, hike.Calories)
}

func TestFilterHikingActivities(t *testing.T) {
	activities := []GarminActivity{
		garminActivity("running"),
		garminActivity("cycling"),
		garminActivity("hiking"),
		garminActivity("outdoor_running"),
		garminActivity("yoga"),
	}

	filtered := FilterHikingActivities(activities)
	require.Len(t, filtered, 3)
	for _, a := range filtered {
		assert.Contains(t, []string{"running", "hiking", "outdoor_running"}, a.ActivityType.TypeKey)
	}
}
