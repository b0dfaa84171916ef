package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/routinez-api/internal/models"
)

func poolsOf(t *testing.T, snap *models.Snapshot, courses ...string) []Pool {
	t.Helper()
	requests := make([]CourseRequest, len(courses))
	for i, c := range courses {
		requests[i] = CourseRequest{Course: c}
	}
	pools, err := BuildPools(snap, requests)
	require.NoError(t, err)
	return pools
}

func TestSearchAcceptsCleanCombination(t *testing.T) {
	cse := newSection("CSE220", "01", "ABC", []models.Slot{slotAt("SUNDAY", "9:30 AM", "10:50 AM")},
		withMid("2026-03-10", "9:00 AM", "11:00 AM"))
	mat := newSection("MAT216", "02", "DEF", []models.Slot{slotAt("SUNDAY", "11:00 AM", "12:20 PM")},
		withMid("2026-03-11", "9:00 AM", "11:00 AM"))

	result := Search(context.Background(), poolsOf(t, snapshotOf(cse, mat), "CSE220", "MAT216"), Preferences{}, DefaultBounds())
	require.Len(t, result.Routines, 1)
	assert.Equal(t, 1, result.Stats.Accepted)
	assert.Equal(t, 1, result.Stats.Examined)
	assert.False(t, result.Stats.Bounded)

	routine := result.Routines[0]
	assert.Equal(t, 1, routine.CampusDays)
	assert.Equal(t, []string{"SUNDAY"}, routine.DaysList)
	require.Len(t, routine.Sections, 2)
	assert.Equal(t, "CSE220", routine.Sections[0].CourseCode)
}

func TestSearchStagesExamBeforeSlots(t *testing.T) {
	// The pair clashes on both exam date and weekly slot; only the exam
	// counter may move because the slot stage never runs for it.
	cse := newSection("CSE220", "01", "ABC", []models.Slot{slotAt("SUNDAY", "9:30 AM", "10:50 AM")},
		withMid("2026-03-10", "9:00 AM", "11:00 AM"))
	mat := newSection("MAT216", "02", "DEF", []models.Slot{slotAt("SUNDAY", "10:00 AM", "11:20 AM")},
		withMid("2026-03-10", "10:00 AM", "12:00 PM"))

	result := Search(context.Background(), poolsOf(t, snapshotOf(cse, mat), "CSE220", "MAT216"), Preferences{}, DefaultBounds())
	assert.Empty(t, result.Routines)
	assert.Equal(t, 1, result.Stats.ExamRejected)
	assert.Equal(t, 0, result.Stats.TimeRejected)
	require.NotEmpty(t, result.ExampleExamConflicts)
	assert.Equal(t, "Mid", result.ExampleExamConflicts[0].Kind)
}

func TestSearchRejectsSlotOverlap(t *testing.T) {
	cse := newSection("CSE220", "01", "ABC", []models.Slot{slotAt("SUNDAY", "9:30 AM", "10:50 AM")})
	mat := newSection("MAT216", "02", "DEF", []models.Slot{slotAt("SUNDAY", "10:00 AM", "11:20 AM")})

	result := Search(context.Background(), poolsOf(t, snapshotOf(cse, mat), "CSE220", "MAT216"), Preferences{}, DefaultBounds())
	assert.Empty(t, result.Routines)
	assert.Equal(t, 1, result.Stats.TimeRejected)
}

func TestSearchDayPreference(t *testing.T) {
	sun := newSection("CSE220", "01", "ABC", []models.Slot{slotAt("SUNDAY", "9:30 AM", "10:50 AM")})
	wed := newSection("CSE220", "02", "DEF", []models.Slot{slotAt("WEDNESDAY", "9:30 AM", "10:50 AM")})

	result := Search(context.Background(), poolsOf(t, snapshotOf(sun, wed), "CSE220"),
		Preferences{Days: []string{"Sunday", "Monday"}}, DefaultBounds())
	require.Len(t, result.Routines, 1)
	assert.Equal(t, []string{"SUNDAY"}, result.Routines[0].DaysList)
	assert.Equal(t, 1, result.Stats.PrefRejected)
}

func TestSearchTimePreferenceClassContainment(t *testing.T) {
	morning := newSection("CSE220", "01", "ABC", []models.Slot{slotAt("SUNDAY", "8:00 AM", "9:20 AM")})
	noon := newSection("CSE220", "02", "DEF", []models.Slot{slotAt("SUNDAY", "12:30 PM", "1:50 PM")})

	prefs := Preferences{Times: []models.TimeWindow{{Label: "8:00 AM-9:20 AM"}}}
	result := Search(context.Background(), poolsOf(t, snapshotOf(morning, noon), "CSE220"), prefs, DefaultBounds())
	require.Len(t, result.Routines, 1)
	assert.Equal(t, "01", result.Routines[0].Sections[0].SectionName)
}

func TestSearchLabNeedsEverySpannedWindow(t *testing.T) {
	// The lab runs 8:00-10:50, spanning the first two grid rows.
	section := newSection("CSE220", "01", "ABC",
		[]models.Slot{slotAt("SUNDAY", "11:00 AM", "12:20 PM")},
		withLab(slotAt("TUESDAY", "8:00 AM", "10:50 AM")))
	snap := snapshotOf(section)

	partial := Preferences{Times: []models.TimeWindow{
		{Label: "8:00 AM-9:20 AM"},
		{Label: "11:00 AM-12:20 PM"},
	}}
	result := Search(context.Background(), poolsOf(t, snap, "CSE220"), partial, DefaultBounds())
	assert.Empty(t, result.Routines)
	assert.Equal(t, 1, result.Stats.PrefRejected)

	complete := Preferences{Times: []models.TimeWindow{
		{Label: "8:00 AM-9:20 AM"},
		{Label: "9:30 AM-10:50 AM"},
		{Label: "11:00 AM-12:20 PM"},
	}}
	result = Search(context.Background(), poolsOf(t, snap, "CSE220"), complete, DefaultBounds())
	assert.Len(t, result.Routines, 1)
}

func TestSearchUnparsableSlotsPassPreferences(t *testing.T) {
	section := newSection("CSE220", "01", "ABC", []models.Slot{
		{Day: "SUNDAY", StartTime: "TBA", EndTime: "TBA"},
	})
	prefs := Preferences{Times: []models.TimeWindow{{Label: "8:00 AM-9:20 AM"}}}

	result := Search(context.Background(), poolsOf(t, snapshotOf(section), "CSE220"), prefs, DefaultBounds())
	assert.Len(t, result.Routines, 1)
}

func TestSearchHonoursAcceptanceCap(t *testing.T) {
	sections := make([]*models.Section, 0, 10)
	for i := 0; i < 10; i++ {
		sections = append(sections, newSection("CSE220", "S", "F",
			[]models.Slot{slotAt("SUNDAY", "8:00 AM", "9:20 AM")}))
	}

	bounds := DefaultBounds()
	bounds.MaxAccepted = 3
	result := Search(context.Background(), poolsOf(t, snapshotOf(sections...), "CSE220"), Preferences{}, bounds)
	assert.Len(t, result.Routines, 3)
	assert.True(t, result.Stats.Bounded)
}

func TestSearchCircuitBreaker(t *testing.T) {
	// Every combination clashes, so nothing is ever accepted and the
	// unproductive streak breaker fires.
	cses := make([]*models.Section, 0, 6)
	mats := make([]*models.Section, 0, 6)
	for i := 0; i < 6; i++ {
		cses = append(cses, newSection("CSE220", "S", "F", []models.Slot{slotAt("SUNDAY", "9:30 AM", "10:50 AM")}))
		mats = append(mats, newSection("MAT216", "S", "F", []models.Slot{slotAt("SUNDAY", "10:00 AM", "11:20 AM")}))
	}
	all := append(append([]*models.Section{}, cses...), mats...)

	bounds := DefaultBounds()
	bounds.MaxUnproductive = 10
	result := Search(context.Background(), poolsOf(t, snapshotOf(all...), "CSE220", "MAT216"), Preferences{}, bounds)
	assert.Empty(t, result.Routines)
	assert.True(t, result.Stats.Bounded)
	assert.Equal(t, 10, result.Stats.Examined)
}

func TestSearchBreakerOnlyBeforeFirstAccept(t *testing.T) {
	// One early accept, then a reject streak longer than the breaker
	// limit, then a final clean combination. The breaker must not fire
	// once something has been accepted.
	cse := newSection("CSE220", "01", "ABC", []models.Slot{slotAt("SUNDAY", "8:00 AM", "9:20 AM")})
	mats := []*models.Section{
		newSection("MAT216", "01", "DEF", []models.Slot{slotAt("MONDAY", "8:00 AM", "9:20 AM")}),
	}
	for i := 0; i < 12; i++ {
		mats = append(mats, newSection("MAT216", "S", "F", []models.Slot{slotAt("SUNDAY", "8:00 AM", "9:20 AM")}))
	}
	mats = append(mats, newSection("MAT216", "99", "GHI", []models.Slot{slotAt("TUESDAY", "8:00 AM", "9:20 AM")}))
	all := append([]*models.Section{cse}, mats...)

	bounds := DefaultBounds()
	bounds.MaxUnproductive = 10
	result := Search(context.Background(), poolsOf(t, snapshotOf(all...), "CSE220", "MAT216"), Preferences{}, bounds)
	assert.Len(t, result.Routines, 2)
	assert.Equal(t, 14, result.Stats.Examined)
	assert.False(t, result.Stats.Bounded)
}

func TestSearchConcurrentRequestsShareNothing(t *testing.T) {
	// Lab slots plus a full time-window grid walk the hottest shared
	// path; parallel searches must agree without coordinating.
	section := newSection("CSE220", "01", "ABC",
		[]models.Slot{slotAt("SUNDAY", "11:00 AM", "12:20 PM")},
		withLab(slotAt("TUESDAY", "8:00 AM", "10:50 AM")))
	pools := poolsOf(t, snapshotOf(section), "CSE220")
	prefs := Preferences{Times: DefaultGrid()}

	results := make([]SearchResult, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Search(context.Background(), pools, prefs, DefaultBounds())
		}(i)
	}
	wg.Wait()

	for _, result := range results {
		assert.Len(t, result.Routines, 1)
		assert.Equal(t, 1, result.Stats.Accepted)
	}
}

func TestSearchRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cse := newSection("CSE220", "01", "ABC", []models.Slot{slotAt("SUNDAY", "9:30 AM", "10:50 AM")})
	result := Search(ctx, poolsOf(t, snapshotOf(cse), "CSE220"), Preferences{}, DefaultBounds())
	assert.Empty(t, result.Routines)
	assert.True(t, result.Stats.Bounded)
}

func TestSearchDeterministicOrder(t *testing.T) {
	a1 := newSection("CSE220", "01", "ABC", []models.Slot{slotAt("SUNDAY", "8:00 AM", "9:20 AM")})
	a2 := newSection("CSE220", "02", "DEF", []models.Slot{slotAt("MONDAY", "8:00 AM", "9:20 AM")})
	b1 := newSection("MAT216", "01", "ABC", []models.Slot{slotAt("SUNDAY", "9:30 AM", "10:50 AM")})
	b2 := newSection("MAT216", "02", "DEF", []models.Slot{slotAt("MONDAY", "9:30 AM", "10:50 AM")})
	snap := snapshotOf(a1, a2, b1, b2)

	first := Search(context.Background(), poolsOf(t, snap, "CSE220", "MAT216"), Preferences{}, DefaultBounds())
	second := Search(context.Background(), poolsOf(t, snap, "CSE220", "MAT216"), Preferences{}, DefaultBounds())
	require.Equal(t, len(first.Routines), len(second.Routines))
	for i := range first.Routines {
		assert.Equal(t, first.Routines[i].Sections[0].SectionID, second.Routines[i].Sections[0].SectionID)
		assert.Equal(t, first.Routines[i].Sections[1].SectionID, second.Routines[i].Sections[1].SectionID)
	}

	elapsed := time.Duration(0)
	assert.GreaterOrEqual(t, first.Stats.Elapsed, elapsed)
}
