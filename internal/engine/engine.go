// Package engine synthesizes weekly class routines from an immutable
// catalog snapshot: candidate pools per course, a staged bounded search
// over the combination space, and preference scoring of the survivors.
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/noah-isme/routinez-api/internal/models"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
)

// Request is one synthesis job: the courses to place plus the
// preference axes that filter and rank the results.
type Request struct {
	Courses           []CourseRequest
	Days              []string
	Times             []models.TimeWindow
	CommutePreference string
	TimingPreference  string
	// OptimizeFaculty lets the engine regroup unpinned courses under
	// the faculty combination with the smallest day footprint. Only
	// honoured for minimize-days requests.
	OptimizeFaculty bool
}

// Result carries the ranked survivors of one synthesis run. Best points
// into Routines; Routines is sorted by score, ties in discovery order.
type Result struct {
	Best     *models.Routine
	Routines []models.Routine
	Stats    models.SearchStats
}

type Engine struct {
	bounds Bounds
}

func New(bounds Bounds) *Engine {
	return &Engine{bounds: bounds}
}

// Synthesize runs the full pipeline against one snapshot. The snapshot
// is never mutated; a catalog refresh mid-request cannot change the
// data this call iterates over.
func (e *Engine) Synthesize(ctx context.Context, snapshot *models.Snapshot, req Request) (*Result, error) {
	if snapshot == nil || len(snapshot.Sections) == 0 {
		return nil, appErrors.Clone(appErrors.ErrCatalogUnavailable, "no catalog snapshot is loaded yet")
	}
	if len(req.Courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one course is required")
	}

	pools, err := BuildPools(snapshot, req.Courses)
	if err != nil {
		return nil, err
	}
	if req.OptimizeFaculty && req.CommutePreference == models.CommuteMinimizeDays && !anyPinned(req.Courses) {
		pools = OptimizeFacultyPools(pools)
	}

	search := Search(ctx, pools, Preferences{Days: req.Days, Times: req.Times}, e.bounds)
	if len(search.Routines) == 0 {
		return nil, exhaustionError(search)
	}

	sc := NewScoreContext(search.Routines, req.CommutePreference, req.TimingPreference, len(req.Days))
	SelectBest(search.Routines, sc)
	// The sort is stable on equal scores, so the first-discovered
	// top scorer ends up at the front and the pick stays deterministic.
	sortByScore(search.Routines)

	result := &Result{
		Routines: search.Routines,
		Stats:    search.Stats,
	}
	result.Best = &result.Routines[0]
	return result, nil
}

func anyPinned(courses []CourseRequest) bool {
	for _, c := range courses {
		if c.Faculty != "" || c.Section != "" || c.Locked {
			return true
		}
	}
	return false
}

func sortByScore(routines []models.Routine) {
	sort.SliceStable(routines, func(i, j int) bool {
		return routines[i].Score > routines[j].Score
	})
}

// exhaustionError translates an empty search into the most specific
// failure category the rejection counters support.
func exhaustionError(search SearchResult) error {
	stats := search.Stats
	note := ""
	if stats.Bounded {
		note = " before the search budget ran out"
	}

	switch {
	case stats.PrefRejected > 0:
		return appErrors.WithSuggestion(appErrors.ErrPreferenceMismatch,
			fmt.Sprintf("no conflict-free routine fits your day and time selections (checked %d combinations%s)", stats.Examined, note),
			"Widen the selected days or time windows and try again.")
	case stats.TimeRejected > 0:
		return appErrors.WithSuggestion(appErrors.ErrTimeConflicts,
			fmt.Sprintf("every combination has overlapping class times (checked %d combinations%s)", stats.Examined, note),
			"Pick different sections or drop one of the clashing courses.")
	case stats.ExamRejected > 0:
		msg := "every combination has exam conflicts"
		if detail := FormatExamConflicts(search.ExampleExamConflicts); detail != "" {
			msg = detail
		}
		return appErrors.WithSuggestion(appErrors.ErrExamConflicts, msg,
			"These courses share exam dates; swap one of them for another offering.")
	default:
		return appErrors.WithSuggestion(appErrors.ErrBudgetExhausted,
			fmt.Sprintf("the search stopped%s without finding a valid routine", note),
			"Reduce the number of courses or loosen the filters.")
	}
}
