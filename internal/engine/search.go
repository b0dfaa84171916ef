package engine

import (
	"context"
	"strings"
	"time"

	"github.com/noah-isme/routinez-api/internal/models"
)

// Search bounds. The time budget is the hard wall; the acceptance cap
// keeps result sets scorable, and the unproductive streak breaker stops
// runs that keep examining combinations while nothing has been accepted
// yet. Once a first routine is accepted the breaker no longer applies.
type Bounds struct {
	TimeBudget      time.Duration
	MaxAccepted     int
	MaxUnproductive int
}

// DefaultBounds mirrors the engine's production configuration.
func DefaultBounds() Bounds {
	return Bounds{
		TimeBudget:      30 * time.Second,
		MaxAccepted:     1000,
		MaxUnproductive: 10000,
	}
}

// Preferences narrows acceptable routines beyond hard conflicts.
// Empty Days or Times means "no restriction" for that axis.
type Preferences struct {
	Days  []string
	Times []models.TimeWindow
}

// SearchResult is the outcome of one bounded enumeration.
type SearchResult struct {
	Routines []models.Routine
	Stats    models.SearchStats
	// ExampleExamConflicts holds the conflicts of one rejected
	// combination, captured so an empty result can explain itself.
	ExampleExamConflicts []models.ExamConflict
}

// Search enumerates section combinations lazily, one odometer step at a
// time, and filters each in stages: exam conflicts first, then weekly
// slot conflicts, then preference fit. Cheap, highly-selective checks
// run before expensive permissive ones, and every pairwise verdict is
// memoized for the life of the call.
func Search(ctx context.Context, pools []Pool, prefs Preferences, bounds Bounds) SearchResult {
	result := SearchResult{}
	if len(pools) == 0 {
		return result
	}
	for _, pool := range pools {
		if len(pool.Sections) == 0 {
			return result
		}
	}

	if bounds.TimeBudget <= 0 {
		bounds.TimeBudget = DefaultBounds().TimeBudget
	}
	if bounds.MaxAccepted <= 0 {
		bounds.MaxAccepted = DefaultBounds().MaxAccepted
	}
	if bounds.MaxUnproductive <= 0 {
		bounds.MaxUnproductive = DefaultBounds().MaxUnproductive
	}

	memo := newPairMemo()
	prefMemo := make(map[string]bool)
	allowedDays := normalizeDays(prefs.Days)
	windows := parseWindows(prefs.Times)

	started := time.Now()
	deadline := started.Add(bounds.TimeBudget)
	indices := make([]int, len(pools))
	combo := make([]*models.Section, len(pools))
	unproductive := 0

	for {
		if result.Stats.Examined%64 == 0 {
			if time.Now().After(deadline) || ctx.Err() != nil {
				result.Stats.Bounded = true
				break
			}
		}

		for i, idx := range indices {
			combo[i] = pools[i].Sections[idx]
		}
		result.Stats.Examined++
		accepted := false

		switch {
		case !examStage(combo, memo, &result):
			result.Stats.ExamRejected++
		case !slotStage(combo, memo):
			result.Stats.TimeRejected++
		case !prefStage(combo, allowedDays, windows, prefMemo):
			result.Stats.PrefRejected++
		default:
			result.Routines = append(result.Routines, buildRoutine(combo))
			result.Stats.Accepted++
			accepted = true
		}

		if accepted {
			if result.Stats.Accepted >= bounds.MaxAccepted {
				result.Stats.Bounded = true
				break
			}
		} else if result.Stats.Accepted == 0 {
			unproductive++
			if unproductive >= bounds.MaxUnproductive {
				result.Stats.Bounded = true
				break
			}
		}

		if !advance(indices, pools) {
			break
		}
	}

	result.Stats.Elapsed = time.Since(started)
	return result
}

// advance steps the odometer; false means the space is exhausted.
func advance(indices []int, pools []Pool) bool {
	for pos := len(indices) - 1; pos >= 0; pos-- {
		indices[pos]++
		if indices[pos] < len(pools[pos].Sections) {
			return true
		}
		indices[pos] = 0
	}
	return false
}

func examStage(combo []*models.Section, memo *pairMemo, result *SearchResult) bool {
	for i := range combo {
		for j := i + 1; j < len(combo); j++ {
			if len(memo.examConflicts(combo[i], combo[j])) == 0 {
				continue
			}
			if len(result.ExampleExamConflicts) == 0 {
				// Keep the full picture of one failing combination so
				// callers can report something concrete.
				result.ExampleExamConflicts = CollectExamConflicts(combo)
			}
			return false
		}
	}
	return true
}

func slotStage(combo []*models.Section, memo *pairMemo) bool {
	for i := range combo {
		for j := i + 1; j < len(combo); j++ {
			if memo.slotsConflict(combo[i], combo[j]) {
				return false
			}
		}
	}
	return true
}

func prefStage(combo []*models.Section, allowedDays map[string]struct{}, windows []window, memo map[string]bool) bool {
	for _, section := range combo {
		fit, ok := memo[section.SectionID]
		if !ok {
			fit = sectionFitsPreferences(section, allowedDays, windows)
			memo[section.SectionID] = fit
		}
		if !fit {
			return false
		}
	}
	return true
}

type window struct {
	start, end int
}

func parseWindows(times []models.TimeWindow) []window {
	windows := make([]window, 0, len(times))
	for _, t := range times {
		if start, end, ok := ParseWindow(t); ok {
			windows = append(windows, window{start, end})
		}
	}
	return windows
}

func normalizeDays(days []string) map[string]struct{} {
	if len(days) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(days))
	for _, day := range days {
		day = strings.ToUpper(strings.TrimSpace(day))
		if day != "" {
			allowed[day] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	return allowed
}

// sectionFitsPreferences applies the day filter to every slot and the
// time filter with two containment rules: a class slot fits when at
// least one selected window fully contains it, while a lab slot (often
// spanning two grid rows) fits only when every window it touches is
// selected, so a partly covered lab is rejected. Unparsable slots pass
// (fail-open).
func sectionFitsPreferences(section *models.Section, allowedDays map[string]struct{}, windows []window) bool {
	if allowedDays != nil {
		for day := range section.Days() {
			if _, ok := allowedDays[day]; !ok {
				return false
			}
		}
	}
	if len(windows) == 0 {
		return true
	}

	for _, slot := range section.ClassSlots {
		if !slot.Parsed() {
			continue
		}
		if !containedByAny(slot, windows) {
			return false
		}
	}
	for _, slot := range section.LabSlots {
		if !slot.Parsed() {
			continue
		}
		if !coveredBySelection(slot, windows) {
			return false
		}
	}
	return true
}

func containedByAny(slot models.Slot, windows []window) bool {
	for _, w := range windows {
		if slot.StartMinute >= w.start && slot.EndMinute <= w.end {
			return true
		}
	}
	return false
}

// coveredBySelection checks a long slot against the fixed grid: every
// grid row the slot overlaps must appear among the selected windows.
func coveredBySelection(slot models.Slot, selected []window) bool {
	touched := false
	for _, row := range gridRows {
		if !Overlap(slot.StartMinute, slot.EndMinute, row.start, row.end) {
			continue
		}
		touched = true
		if !windowSelected(row, selected) {
			return false
		}
	}
	if !touched {
		// Off-grid lab times fall back to the class containment rule.
		return containedByAny(slot, selected)
	}
	return true
}

func windowSelected(row window, selected []window) bool {
	for _, w := range selected {
		if w.start == row.start && w.end == row.end {
			return true
		}
		// A selected window swallowing the whole row also counts.
		if w.start <= row.start && w.end >= row.end {
			return true
		}
	}
	return false
}

// gridRows is parsed once at package init; concurrent searches read it
// without coordination.
var gridRows = parseWindows(DefaultGrid())

func buildRoutine(combo []*models.Section) models.Routine {
	sections := make([]models.Section, len(combo))
	for i, section := range combo {
		sections[i] = *section
	}
	days := CampusDays(combo)
	return models.Routine{
		Sections:   sections,
		CampusDays: len(days),
		DaysList:   days,
	}
}

// pairMemo caches pairwise verdicts keyed by section-ID pair. One memo
// lives per Search call, so stale seat or schedule data can never leak
// across snapshots.
type pairMemo struct {
	exams map[[2]string][]models.ExamConflict
	slots map[[2]string]bool
}

func newPairMemo() *pairMemo {
	return &pairMemo{
		exams: make(map[[2]string][]models.ExamConflict),
		slots: make(map[[2]string]bool),
	}
}

func pairKeyOf(a, b *models.Section) [2]string {
	if a.SectionID <= b.SectionID {
		return [2]string{a.SectionID, b.SectionID}
	}
	return [2]string{b.SectionID, a.SectionID}
}

func (m *pairMemo) examConflicts(a, b *models.Section) []models.ExamConflict {
	key := pairKeyOf(a, b)
	if cached, ok := m.exams[key]; ok {
		return cached
	}
	conflicts := ExamConflicts(a, b)
	m.exams[key] = conflicts
	return conflicts
}

func (m *pairMemo) slotsConflict(a, b *models.Section) bool {
	key := pairKeyOf(a, b)
	if cached, ok := m.slots[key]; ok {
		return cached
	}
	verdict := SlotsConflict(a, b)
	m.slots[key] = verdict
	return verdict
}
