package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/routinez-api/internal/models"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
)

func TestBuildPoolsFiltersFullSections(t *testing.T) {
	open := newSection("CSE220", "01", "ABC", []models.Slot{slotAt("SUNDAY", "9:30 AM", "10:50 AM")})
	full := newSection("CSE220", "02", "DEF",
		[]models.Slot{slotAt("MONDAY", "9:30 AM", "10:50 AM")}, withSeats(35, 35))
	oversold := newSection("CSE220", "03", "GHI",
		[]models.Slot{slotAt("TUESDAY", "9:30 AM", "10:50 AM")}, withSeats(35, 40))

	pools, err := BuildPools(snapshotOf(open, full, oversold), []CourseRequest{{Course: "CSE220"}})
	require.NoError(t, err)
	require.Len(t, pools, 1)
	require.Len(t, pools[0].Sections, 1)
	assert.Equal(t, "01", pools[0].Sections[0].SectionName)
}

func TestBuildPoolsLockAdmitsFullSections(t *testing.T) {
	full := newSection("CSE220", "02", "DEF",
		[]models.Slot{slotAt("MONDAY", "9:30 AM", "10:50 AM")}, withSeats(35, 35))

	pools, err := BuildPools(snapshotOf(full), []CourseRequest{{Course: "CSE220", Locked: true}})
	require.NoError(t, err)
	assert.Len(t, pools[0].Sections, 1)

	pools, err = BuildPools(snapshotOf(full), []CourseRequest{{Course: "CSE220", Section: "02"}})
	require.NoError(t, err)
	assert.Len(t, pools[0].Sections, 1)
}

func TestBuildPoolsFacultyFilter(t *testing.T) {
	abc := newSection("CSE220", "01", "ABC", []models.Slot{slotAt("SUNDAY", "9:30 AM", "10:50 AM")})
	def := newSection("CSE220", "02", "DEF", []models.Slot{slotAt("MONDAY", "9:30 AM", "10:50 AM")})
	tba := newSection("CSE220", "03", "", []models.Slot{slotAt("TUESDAY", "9:30 AM", "10:50 AM")})
	snap := snapshotOf(abc, def, tba)

	pools, err := BuildPools(snap, []CourseRequest{{Course: "CSE220", Faculty: "ABC"}})
	require.NoError(t, err)
	require.Len(t, pools[0].Sections, 1)
	assert.Equal(t, "ABC", pools[0].Sections[0].Faculty)

	// Asking for TBA matches unassigned sections.
	pools, err = BuildPools(snap, []CourseRequest{{Course: "CSE220", Faculty: "TBA"}})
	require.NoError(t, err)
	require.Len(t, pools[0].Sections, 1)
	assert.Equal(t, "03", pools[0].Sections[0].SectionName)
}

func TestBuildPoolsExcludesInternallyConflicted(t *testing.T) {
	broken := newSection("CSE220", "01", "ABC",
		[]models.Slot{slotAt("MONDAY", "9:00 AM", "10:20 AM")},
		withLab(slotAt("MONDAY", "10:00 AM", "11:00 AM")))
	clean := newSection("CSE220", "02", "DEF", []models.Slot{slotAt("TUESDAY", "9:00 AM", "10:20 AM")})

	pools, err := BuildPools(snapshotOf(broken, clean), []CourseRequest{{Course: "CSE220"}})
	require.NoError(t, err)
	require.Len(t, pools[0].Sections, 1)
	assert.Equal(t, "02", pools[0].Sections[0].SectionName)

	// A lock does not override the internal conflict exclusion.
	_, err = BuildPools(snapshotOf(broken), []CourseRequest{{Course: "CSE220", Locked: true}})
	require.Error(t, err)
}

func TestBuildPoolsEmptyPoolNamesTheCourse(t *testing.T) {
	full := newSection("CSE220", "01", "ABC",
		[]models.Slot{slotAt("SUNDAY", "9:30 AM", "10:50 AM")}, withSeats(35, 35))

	_, err := BuildPools(snapshotOf(full), []CourseRequest{{Course: "CSE220"}})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrEmptyCandidatePool.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "CSE220")
	assert.NotEmpty(t, appErr.Suggestion)
}

func TestBuildPoolsUnknownCourse(t *testing.T) {
	known := newSection("CSE220", "01", "ABC", []models.Slot{slotAt("SUNDAY", "9:30 AM", "10:50 AM")})

	_, err := BuildPools(snapshotOf(known), []CourseRequest{{Course: "CSE999"}})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "CSE999")
}

func TestOptimizeFacultyPoolsPicksSmallestFootprint(t *testing.T) {
	// Faculty ABC teaches both courses on SUNDAY+TUESDAY; DEF scatters
	// them over three days.
	cseABC := newSection("CSE220", "01", "ABC", []models.Slot{slotAt("SUNDAY", "8:00 AM", "9:20 AM")})
	cseDEF := newSection("CSE220", "02", "DEF", []models.Slot{slotAt("WEDNESDAY", "8:00 AM", "9:20 AM")})
	matABC := newSection("MAT216", "01", "ABC", []models.Slot{slotAt("TUESDAY", "8:00 AM", "9:20 AM")})
	matDEF := newSection("MAT216", "02", "DEF", []models.Slot{slotAt("THURSDAY", "8:00 AM", "9:20 AM")})

	pools := []Pool{
		{Course: "CSE220", Sections: []*models.Section{cseABC, cseDEF}},
		{Course: "MAT216", Sections: []*models.Section{matABC, matDEF}},
	}
	optimized := OptimizeFacultyPools(pools)
	require.Len(t, optimized, 2)

	// SUNDAY+WEDNESDAY / SUNDAY+TUESDAY etc. all have two days, but the
	// mixed picks span two days as well; the chosen grouping must not
	// exceed the best achievable footprint of two days.
	days := make(map[string]struct{})
	for _, pool := range optimized {
		require.Len(t, pool.Sections, 1)
		for day := range pool.Sections[0].Days() {
			days[day] = struct{}{}
		}
	}
	assert.LessOrEqual(t, len(days), 2)
}

func TestOptimizeFacultyPoolsKeepsLargeSpacesIntact(t *testing.T) {
	sections := make([]*models.Section, 0, 80)
	for i := 0; i < 80; i++ {
		sections = append(sections, newSection("CSE220", "S", "F", []models.Slot{slotAt("SUNDAY", "8:00 AM", "9:20 AM")}))
	}
	// 80 distinct faculties per pool would explode the pre-pass budget.
	for i, s := range sections {
		s.Faculty = s.Faculty + string(rune('A'+i%26)) + string(rune('A'+i/26))
	}
	pools := []Pool{
		{Course: "CSE220", Sections: sections},
		{Course: "MAT216", Sections: sections},
	}
	optimized := OptimizeFacultyPools(pools)
	assert.Equal(t, len(pools[0].Sections), len(optimized[0].Sections))
}
