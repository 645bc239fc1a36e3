package gamification

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parktrackerapi/internal/activity"
	"parktrackerapi/internal/passport"
)

type fakeUser struct {
	name     string
	isPublic bool
	points   int
}

// memStore is an in-memory Store used to exercise the engine without a
// database.
type memStore struct {
	users      map[uuid.UUID]*fakeUser
	histories  map[uuid.UUID]*activity.History
	parkStates map[uuid.UUID]string

	badges map[uuid.UUID]Badge
	earned map[uuid.UUID]map[uuid.UUID]time.Time

	challenges     []Challenge
	userChallenges map[uuid.UUID]map[uuid.UUID]*UserChallenge

	passports map[uuid.UUID]passport.Stats
	streaks   map[uuid.UUID]map[StreakType]*Streak
}

func newMemStore() *memStore {
	return &memStore{
		users:          make(map[uuid.UUID]*fakeUser),
		histories:      make(map[uuid.UUID]*activity.History),
		parkStates:     make(map[uuid.UUID]string),
		badges:         make(map[uuid.UUID]Badge),
		earned:         make(map[uuid.UUID]map[uuid.UUID]time.Time),
		userChallenges: make(map[uuid.UUID]map[uuid.UUID]*UserChallenge),
		passports:      make(map[uuid.UUID]passport.Stats),
		streaks:        make(map[uuid.UUID]map[StreakType]*Streak),
	}
}

func (m *memStore) addUser(name string, isPublic bool) uuid.UUID {
	id := uuid.New()
	m.users[id] = &fakeUser{name: name, isPublic: isPublic}
	m.histories[id] = &activity.History{}
	return id
}

func (m *memStore) addBadge(name string, criteria CriteriaType) uuid.UUID {
	id := uuid.New()
	m.badges[id] = Badge{ID: id, Name: name, Criteria: criteria}
	return id
}

func (m *memStore) ActivityHistory(_ context.Context, userID uuid.UUID) (*activity.History, error) {
	h, ok := m.histories[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return h, nil
}

func (m *memStore) ParkStates(_ context.Context, parkIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string)
	for _, id := range parkIDs {
		if state, ok := m.parkStates[id]; ok {
			out[id] = state
		}
	}
	return out, nil
}

func (m *memStore) Badges(_ context.Context) ([]Badge, error) {
	out := make([]Badge, 0, len(m.badges))
	for _, b := range m.badges {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) EarnedBadgeIDs(_ context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool)
	for id := range m.earned[userID] {
		out[id] = true
	}
	return out, nil
}

func (m *memStore) AwardBadge(_ context.Context, userID, badgeID uuid.UUID, earnedAt time.Time) error {
	if m.earned[userID] == nil {
		m.earned[userID] = make(map[uuid.UUID]time.Time)
	}
	m.earned[userID][badgeID] = earnedAt
	return nil
}

func (m *memStore) ActiveChallenges(_ context.Context, now time.Time) ([]Challenge, error) {
	var out []Challenge
	for _, c := range m.challenges {
		if !c.StartDate.After(now) && !c.EndDate.Before(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) UserChallenge(_ context.Context, userID, challengeID uuid.UUID) (*UserChallenge, error) {
	uc, ok := m.userChallenges[userID][challengeID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *uc
	return &cp, nil
}

func (m *memStore) CreateUserChallenge(_ context.Context, userID, challengeID uuid.UUID) (*UserChallenge, error) {
	uc := &UserChallenge{ID: uuid.New(), UserID: userID, ChallengeID: challengeID}
	if m.userChallenges[userID] == nil {
		m.userChallenges[userID] = make(map[uuid.UUID]*UserChallenge)
	}
	m.userChallenges[userID][challengeID] = uc
	cp := *uc
	return &cp, nil
}

func (m *memStore) UpdateUserChallenge(_ context.Context, uc *UserChallenge) error {
	cp := *uc
	m.userChallenges[uc.UserID][uc.ChallengeID] = &cp
	return nil
}

func (m *memStore) SavePassport(_ context.Context, userID uuid.UUID, stats passport.Stats) error {
	m.passports[userID] = stats
	return nil
}

func (m *memStore) AddPoints(_ context.Context, userID uuid.UUID, delta int) error {
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.points += delta
	return nil
}

func (m *memStore) StreakFor(_ context.Context, userID uuid.UUID, streakType StreakType) (*Streak, error) {
	s, ok := m.streaks[userID][streakType]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) SaveStreak(_ context.Context, s *Streak) error {
	if m.streaks[s.UserID] == nil {
		m.streaks[s.UserID] = make(map[StreakType]*Streak)
	}
	cp := *s
	m.streaks[s.UserID][s.StreakType] = &cp
	return nil
}

func (m *memStore) PublicUserAggregates(_ context.Context, sortBy SortKey, limit int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	for id, u := range m.users {
		if !u.isPublic {
			continue
		}
		row := LeaderboardRow{UserID: id, UserName: u.name, TotalPoints: u.points}
		if h, ok := m.histories[id]; ok {
			parks := make(map[uuid.UUID]bool)
			for _, v := range h.Visits {
				if v.Visited {
					parks[v.ParkID] = true
				}
			}
			row.ParksVisited = len(parks)
			for _, hk := range h.Hikes {
				if hk.DistanceMiles != nil {
					row.MilesHiked += *hk.DistanceMiles
				}
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		var less bool
		var eq bool
		switch sortBy {
		case SortByParks:
			less, eq = rows[i].ParksVisited > rows[j].ParksVisited, rows[i].ParksVisited == rows[j].ParksVisited
		case SortByMiles:
			less, eq = rows[i].MilesHiked > rows[j].MilesHiked, rows[i].MilesHiked == rows[j].MilesHiked
		default:
			less, eq = rows[i].TotalPoints > rows[j].TotalPoints, rows[i].TotalPoints == rows[j].TotalPoints
		}
		if eq {
			return rows[i].UserID.String() < rows[j].UserID.String()
		}
		return less
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func fixedClock(dateStr string) func() time.Time {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func visitedPark(store *memStore, userID uuid.UUID, state string, date time.Time) uuid.UUID {
	parkID := uuid.New()
	store.parkStates[parkID] = state
	h := store.histories[userID]
	h.Visits = append(h.Visits, activity.Visit{
		ID: uuid.New(), UserID: userID, ParkID: parkID, VisitDate: date, Visited: true,
	})
	return parkID
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestRecomputePassportSumsAndNulls(t *testing.T) {
	store := newMemStore()
	userID := store.addUser("alice", true)
	h := store.histories[userID]

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	h.Hikes = []activity.TrailHike{
		{ID: uuid.New(), UserID: userID, HikeDate: day, DistanceMiles: floatPtr(3.1)},
		{ID: uuid.New(), UserID: userID, HikeDate: day, DistanceMiles: floatPtr(5.0)},
		{ID: uuid.New(), UserID: userID, HikeDate: day, DistanceMiles: nil},
	}
	h.CampingTrips = []activity.CampingTrip{
		{ID: uuid.New(), UserID: userID, VisitDate: day, DurationNights: intPtr(2)},
		{ID: uuid.New(), UserID: userID, VisitDate: day, DurationNights: intPtr(3)},
	}

	stats, err := NewEngine(store).RecomputePassport(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.InDelta(t, 8.1, stats.TotalMilesHiked, 1e-9)
	assert.Equal(t, 5, stats.TotalNightsCamped)
	assert.Equal(t, stats, func() *passport.Stats { s := store.passports[userID]; return &s }())
}

func TestRecomputePassportCountsWishlistStates(t *testing.T) {
	store := newMemStore()
	userID := store.addUser("alice", true)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	visitedPark(store, userID, "CA", day)

	// Wishlist-only visit: not counted as a visited park, but its state
	// still counts toward total_states.
	wishParkID := uuid.New()
	store.parkStates[wishParkID] = "UT"
	h := store.histories[userID]
	h.Visits = append(h.Visits, activity.Visit{
		ID: uuid.New(), UserID: userID, ParkID: wishParkID, VisitDate: day, Visited: false,
	})

	stats, err := NewEngine(store).RecomputePassport(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalParksVisited)
	assert.Equal(t, 2, stats.TotalStates)
}

func TestRecomputePassportMissingUserIsNoop(t *testing.T) {
	store := newMemStore()
	stats, err := NewEngine(store).RecomputePassport(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestEvaluateBadgesThresholdBoundary(t *testing.T) {
	store := newMemStore()
	store.addBadge("Park Explorer", CriteriaVisit5Parks)
	userID := store.addUser("alice", true)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		visitedPark(store, userID, "CA", day)
	}

	engine := NewEngine(store)
	awarded, err := engine.EvaluateBadges(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, awarded, "4 parks must not earn visit_5_parks")

	visitedPark(store, userID, "CA", day)
	awarded, err = engine.EvaluateBadges(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Park Explorer"}, awarded)
	assert.Equal(t, BadgeBonusPoints, store.users[userID].points)
}

func TestEvaluateBadgesIsIdempotent(t *testing.T) {
	store := newMemStore()
	badgeID := store.addBadge("Park Explorer", CriteriaVisit5Parks)
	userID := store.addUser("alice", true)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		visitedPark(store, userID, "CA", day)
	}

	engine := NewEngine(store)
	first, err := engine.EvaluateBadges(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := engine.EvaluateBadges(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, second, "re-evaluation must not re-award")

	assert.Len(t, store.earned[userID], 1)
	assert.Contains(t, store.earned[userID], badgeID)
	assert.Equal(t, BadgeBonusPoints, store.users[userID].points, "bonus granted exactly once")
}

func TestEvaluateBadgesUnimplementedCriteriaNeverFire(t *testing.T) {
	store := newMemStore()
	store.addBadge("Social Butterfly", CriteriaShare10Times)
	store.addBadge("Photographer", CriteriaUpload50Photos)
	userID := store.addUser("alice", true)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		visitedPark(store, userID, "CA", day)
	}

	awarded, err := NewEngine(store).EvaluateBadges(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, awarded)
}

func TestEvaluateBadgesStatesAcrossAllVisits(t *testing.T) {
	store := newMemStore()
	store.addBadge("State Master", CriteriaVisit10States)
	userID := store.addUser("alice", true)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	states := []string{"CA", "UT", "AZ", "CO", "WY", "MT", "WA", "OR", "NV", "NM"}
	h := store.histories[userID]
	for i, state := range states {
		parkID := uuid.New()
		store.parkStates[parkID] = state
		// Half of them wishlist-only; spec counts them regardless.
		h.Visits = append(h.Visits, activity.Visit{
			ID: uuid.New(), UserID: userID, ParkID: parkID, VisitDate: day, Visited: i%2 == 0,
		})
	}

	awarded, err := NewEngine(store).EvaluateBadges(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"State Master"}, awarded)
}

func TestTrackStreakTransitions(t *testing.T) {
	store := newMemStore()
	userID := store.addUser("alice", true)
	ctx := context.Background()

	engine := NewEngine(store).WithClock(fixedClock("2024-01-01"))
	s, err := engine.TrackStreak(ctx, userID, StreakHikingDays)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentCount)
	assert.Equal(t, 1, s.BestCount)

	// Next calendar day extends the streak.
	engine.WithClock(fixedClock("2024-01-02"))
	s, err = engine.TrackStreak(ctx, userID, StreakHikingDays)
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentCount)
	assert.Equal(t, 2, s.BestCount)

	// Second activity the same day is a no-op.
	s, err = engine.TrackStreak(ctx, userID, StreakHikingDays)
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentCount)

	// A gap of more than one day resets the current count but keeps the
	// best count.
	engine.WithClock(fixedClock("2024-01-04"))
	s, err = engine.TrackStreak(ctx, userID, StreakHikingDays)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentCount)
	assert.Equal(t, 2, s.BestCount)
	assert.Equal(t, "2024-01-04", s.StartDate.Format("2006-01-02"))
	assert.True(t, s.CurrentCount <= s.BestCount)
}

func TestTrackStreaksAreIndependentPerType(t *testing.T) {
	store := newMemStore()
	userID := store.addUser("alice", true)
	ctx := context.Background()

	engine := NewEngine(store).WithClock(fixedClock("2024-01-01"))
	_, err := engine.TrackStreak(ctx, userID, StreakHikingDays)
	require.NoError(t, err)

	s, err := engine.TrackStreak(ctx, userID, StreakParkVisits)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentCount)
	assert.Len(t, store.streaks[userID], 2)
}

func TestSyncChallengesCompletesAndFreezesPoints(t *testing.T) {
	store := newMemStore()
	userID := store.addUser("alice", true)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	challengeID := uuid.New()
	store.challenges = append(store.challenges, Challenge{
		ID: challengeID, Title: "June Miles", ChallengeType: ChallengeHikeMiles,
		TargetValue: 10, StartDate: start, EndDate: end, RewardPoints: 500,
	})

	h := store.histories[userID]
	h.Hikes = []activity.TrailHike{
		{ID: uuid.New(), UserID: userID, HikeDate: start.AddDate(0, 0, 3), DistanceMiles: floatPtr(11.7)},
	}

	engine := NewEngine(store).WithClock(fixedClock("2024-06-10"))
	completed, err := engine.SyncChallenges(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"June Miles"}, completed)

	uc := store.userChallenges[userID][challengeID]
	assert.Equal(t, 11, uc.Progress, "miles truncate to whole units")
	assert.True(t, uc.Completed)
	assert.Equal(t, 500, uc.PointsEarned)
	assert.Equal(t, 500, store.users[userID].points)

	// A corrected activity log lowers progress below target; completion
	// and frozen points must survive.
	h.Hikes = h.Hikes[:0]
	completed, err = engine.SyncChallenges(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, completed)

	uc = store.userChallenges[userID][challengeID]
	assert.Equal(t, 0, uc.Progress)
	assert.True(t, uc.Completed, "completion never reverts")
	assert.Equal(t, 500, uc.PointsEarned, "points frozen at completion value")
	assert.Equal(t, 500, store.users[userID].points, "reward granted exactly once")
}

func TestSyncChallengesVisitParksCountsVisitedOnlyInWindow(t *testing.T) {
	store := newMemStore()
	userID := store.addUser("alice", true)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	challengeID := uuid.New()
	store.challenges = append(store.challenges, Challenge{
		ID: challengeID, Title: "Summer Parks", ChallengeType: ChallengeVisitParks,
		TargetValue: 3, StartDate: start, EndDate: end, RewardPoints: 100,
	})

	h := store.histories[userID]
	inWindow := start.AddDate(0, 0, 2)
	// Counts: visited, inside window.
	visitedPark(store, userID, "CA", inWindow)
	// Does not count: wishlist entry inside the window.
	wishID := uuid.New()
	store.parkStates[wishID] = "UT"
	h.Visits = append(h.Visits, activity.Visit{ID: uuid.New(), UserID: userID, ParkID: wishID, VisitDate: inWindow, Visited: false})
	// Does not count: visited before the window opened.
	visitedPark(store, userID, "AZ", start.AddDate(0, -1, 0))

	engine := NewEngine(store).WithClock(fixedClock("2024-06-10"))
	_, err := engine.SyncChallenges(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 1, store.userChallenges[userID][challengeID].Progress)
}

func TestSyncChallengesUnknownTypeHasZeroProgress(t *testing.T) {
	store := newMemStore()
	userID := store.addUser("alice", true)
	visitedPark(store, userID, "CA", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))

	challengeID := uuid.New()
	store.challenges = append(store.challenges, Challenge{
		ID: challengeID, Title: "Mystery", ChallengeType: ChallengeType("seasonal"),
		TargetValue: 1, StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), RewardPoints: 50,
	})

	engine := NewEngine(store).WithClock(fixedClock("2024-06-10"))
	completed, err := engine.SyncChallenges(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, completed)
	assert.Equal(t, 0, store.userChallenges[userID][challengeID].Progress)
	assert.False(t, store.userChallenges[userID][challengeID].Completed)
}

func TestSyncChallengesIgnoresInactiveWindows(t *testing.T) {
	store := newMemStore()
	userID := store.addUser("alice", true)
	store.challenges = append(store.challenges, Challenge{
		ID: uuid.New(), Title: "Past", ChallengeType: ChallengeHikeMiles, TargetValue: 1,
		StartDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
	})

	engine := NewEngine(store).WithClock(fixedClock("2024-06-10"))
	completed, err := engine.SyncChallenges(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, completed)
	assert.Empty(t, store.userChallenges[userID])
}

func TestLeaderboardOrderingVisibilityAndRanks(t *testing.T) {
	store := newMemStore()
	a := store.addUser("A", true)
	b := store.addUser("B", true)
	c := store.addUser("C", false)
	store.users[a].points = 500
	store.users[b].points = 800
	store.users[c].points = 500

	entries, err := NewEngine(store).Leaderboard(context.Background(), SortByPoints, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[0].UserName)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "A", entries[1].UserName)
	assert.Equal(t, 2, entries[1].Rank)
	for _, e := range entries {
		assert.NotEqual(t, c, e.UserID, "private users never appear")
	}
}

func TestLeaderboardDefaultsSortKeyAndLimit(t *testing.T) {
	store := newMemStore()
	a := store.addUser("A", true)
	store.users[a].points = 10

	entries, err := NewEngine(store).Leaderboard(context.Background(), SortKey("bogus"), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Rank)
}

func TestLeaderboardSortsByMiles(t *testing.T) {
	store := newMemStore()
	a := store.addUser("A", true)
	b := store.addUser("B", true)
	store.histories[a].Hikes = []activity.TrailHike{
		{ID: uuid.New(), UserID: a, HikeDate: time.Now(), DistanceMiles: floatPtr(12)},
	}
	store.histories[b].Hikes = []activity.TrailHike{
		{ID: uuid.New(), UserID: b, HikeDate: time.Now(), DistanceMiles: floatPtr(40)},
	}

	entries, err := NewEngine(store).Leaderboard(context.Background(), SortByMiles, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[0].UserName)
	assert.InDelta(t, 40, entries[0].MilesHiked, 1e-9)
}
