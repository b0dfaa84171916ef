package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/routinez-api/internal/models"
)

// examFallbackMinutes is assumed when an exam window has no end time.
const examFallbackMinutes = 120

// HasInternalConflict reports whether a section's own class and lab
// slots collide with each other. Slots with unparsable times are left
// out of the check (fail-open).
func HasInternalConflict(section *models.Section) bool {
	byDay := make(map[string][]models.Slot)
	for _, slot := range section.AllSlots() {
		if slot.Day == "" || !slot.Parsed() {
			continue
		}
		day := strings.ToUpper(slot.Day)
		byDay[day] = append(byDay[day], slot)
	}

	for _, slots := range byDay {
		if len(slots) < 2 {
			continue
		}
		sort.Slice(slots, func(i, j int) bool { return slots[i].StartMinute < slots[j].StartMinute })
		runningEnd := slots[0].EndMinute
		for _, slot := range slots[1:] {
			if slot.StartMinute < runningEnd {
				return true
			}
			runningEnd = max(runningEnd, slot.EndMinute)
		}
	}
	return false
}

// SlotsConflict reports whether two sections' weekly slots overlap on a
// common day. Sections of the same course are alternatives for one
// request slot, never simultaneous commitments, so the comparison is
// skipped outright.
func SlotsConflict(a, b *models.Section) bool {
	if a.CourseCode == b.CourseCode {
		return false
	}

	daysA := groupSlotsByDay(a)
	daysB := groupSlotsByDay(b)
	for day, slotsA := range daysA {
		slotsB, ok := daysB[day]
		if !ok {
			continue
		}
		for _, sa := range slotsA {
			for _, sb := range slotsB {
				if Overlap(sa.StartMinute, sa.EndMinute, sb.StartMinute, sb.EndMinute) {
					return true
				}
			}
		}
	}
	return false
}

func groupSlotsByDay(section *models.Section) map[string][]models.Slot {
	byDay := make(map[string][]models.Slot)
	for _, slot := range section.AllSlots() {
		if slot.Day == "" || !slot.Parsed() {
			continue
		}
		day := strings.ToUpper(slot.Day)
		byDay[day] = append(byDay[day], slot)
	}
	return byDay
}

// ExamConflicts compares midterm-vs-midterm and final-vs-final windows
// of two sections. Mid-vs-final is never compared, and same-course
// pairs are exempt. Malformed dates or times degrade to "no conflict".
func ExamConflicts(a, b *models.Section) []models.ExamConflict {
	if a.SectionID != "" && a.SectionID == b.SectionID {
		return nil
	}
	if a.CourseCode == b.CourseCode {
		return nil
	}

	var conflicts []models.ExamConflict
	if windowsOverlap(a.Exams.Mid, b.Exams.Mid) {
		conflicts = append(conflicts, newExamConflict(a, b, "Mid", a.Exams.Mid, b.Exams.Mid))
	}
	if windowsOverlap(a.Exams.Final, b.Exams.Final) {
		conflicts = append(conflicts, newExamConflict(a, b, "Final", a.Exams.Final, b.Exams.Final))
	}
	return conflicts
}

func newExamConflict(a, b *models.Section, kind string, wa, wb *models.ExamWindow) models.ExamConflict {
	date, _ := NormalizeDate(wa.Date)
	return models.ExamConflict{
		Course1: a.CourseCode,
		Course2: b.CourseCode,
		Kind:    kind,
		Date:    date,
		Time1:   windowText(wa),
		Time2:   windowText(wb),
	}
}

func windowText(w *models.ExamWindow) string {
	if w.EndTime == "" {
		return w.StartTime
	}
	return fmt.Sprintf("%s - %s", w.StartTime, w.EndTime)
}

func windowsOverlap(a, b *models.ExamWindow) bool {
	if a == nil || b == nil {
		return false
	}
	dateA, okA := NormalizeDate(a.Date)
	dateB, okB := NormalizeDate(b.Date)
	if !okA || !okB || dateA != dateB {
		return false
	}

	startA, okA := ParseClock(a.StartTime)
	startB, okB := ParseClock(b.StartTime)
	if !okA || !okB {
		return false
	}

	endA := windowEnd(a, startA)
	endB := windowEnd(b, startB)
	return Overlap(startA, endA, startB, endB)
}

func windowEnd(w *models.ExamWindow, start int) int {
	if end, ok := ParseClock(w.EndTime); ok && end > start {
		return end
	}
	return start + examFallbackMinutes
}

// CollectExamConflicts runs the pairwise exam check over a set of
// sections, honouring the same-course exemption.
func CollectExamConflicts(sections []*models.Section) []models.ExamConflict {
	var conflicts []models.ExamConflict
	for i := range sections {
		for j := i + 1; j < len(sections); j++ {
			conflicts = append(conflicts, ExamConflicts(sections[i], sections[j])...)
		}
	}
	return conflicts
}

// FormatExamConflicts builds the user-facing exam conflict summary:
// affected courses, then one line per conflicting pair and exam kind.
func FormatExamConflicts(conflicts []models.ExamConflict) string {
	if len(conflicts) == 0 {
		return ""
	}

	type pairKey struct {
		course1, course2, kind string
	}
	courses := make(map[string]struct{})
	seen := make(map[pairKey]models.ExamConflict)
	var order []pairKey

	for _, c := range conflicts {
		if c.Course1 == c.Course2 {
			continue
		}
		first, second := c.Course1, c.Course2
		if second < first {
			first, second = second, first
		}
		courses[first] = struct{}{}
		courses[second] = struct{}{}
		key := pairKey{first, second, c.Kind}
		if _, ok := seen[key]; !ok {
			seen[key] = c
			order = append(order, key)
		}
	}
	if len(order) == 0 {
		return ""
	}

	names := make([]string, 0, len(courses))
	for name := range courses {
		names = append(names, name)
	}
	sort.Strings(names)
	sort.Slice(order, func(i, j int) bool {
		if order[i].course1 != order[j].course1 {
			return order[i].course1 < order[j].course1
		}
		if order[i].course2 != order[j].course2 {
			return order[i].course2 < order[j].course2
		}
		return order[i].kind < order[j].kind
	})

	var sb strings.Builder
	sb.WriteString("Exam Conflicts\n\n")
	sb.WriteString("Affected Courses: ")
	sb.WriteString(strings.Join(names, ", "))
	sb.WriteString("\n")
	for _, key := range order {
		c := seen[key]
		fmt.Fprintf(&sb, "%s <-> %s (%s): %s, %s\n", key.course1, key.course2, key.kind, c.Date, c.Time1)
	}
	return strings.TrimSpace(sb.String())
}
