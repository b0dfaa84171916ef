package models

import "time"

// Commute preferences ranking surviving routines by campus presence.
const (
	CommuteMinimizeDays = "minimize-days"
	CommuteMaximizeDays = "maximize-days"
	CommuteBalanced     = "balanced"
)

// Timing preferences for the secondary early/late scoring term.
const (
	TimingEarly    = "early"
	TimingLate     = "late"
	TimingBalanced = "balanced"
)

// TimeWindow is one named entry of the selection grid, e.g.
// {"8:00 AM-9:20 AM", "8:00 AM", "9:20 AM"}.
type TimeWindow struct {
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Routine is one section chosen per requested course, in request course
// order. Any routine the engine returns is free of exam conflicts,
// internal slot conflicts and cross-section slot conflicts.
type Routine struct {
	Sections   []Section `json:"sections"`
	CampusDays int       `json:"campusDays"`
	DaysList   []string  `json:"daysList"`
	Score      float64   `json:"score"`
}

// ExamConflict is one detected exam collision between two courses.
type ExamConflict struct {
	Course1 string `json:"course1"`
	Course2 string `json:"course2"`
	// Kind is "Mid" or "Final"; mid-vs-final is never compared.
	Kind  string `json:"kind"`
	Date  string `json:"date"`
	Time1 string `json:"time1"`
	Time2 string `json:"time2"`
}

// SearchStats summarises how far the bounded combination search got.
type SearchStats struct {
	Examined     int           `json:"examined"`
	Accepted     int           `json:"accepted"`
	ExamRejected int           `json:"examRejected"`
	TimeRejected int           `json:"timeRejected"`
	PrefRejected int           `json:"prefRejected"`
	Elapsed      time.Duration `json:"elapsed"`
	// Bounded is true when a budget stopped the search before the
	// combination space was exhausted.
	Bounded bool `json:"bounded"`
}

// Snapshot is an immutable view of the catalog taken at request start.
// A concurrent refresh swaps the store's pointer; it never mutates a
// snapshot a request is iterating over.
type Snapshot struct {
	FetchedAt time.Time
	Sections  []Section

	byCourse map[string][]*Section
}

// NewSnapshot builds a snapshot with its per-course index.
func NewSnapshot(fetchedAt time.Time, sections []Section) *Snapshot {
	snap := &Snapshot{
		FetchedAt: fetchedAt,
		Sections:  sections,
		byCourse:  make(map[string][]*Section),
	}
	for i := range snap.Sections {
		sec := &snap.Sections[i]
		snap.byCourse[sec.CourseCode] = append(snap.byCourse[sec.CourseCode], sec)
	}
	return snap
}

// SectionsByCourse returns all sections offering the given course code.
func (s *Snapshot) SectionsByCourse(courseCode string) []*Section {
	if s == nil {
		return nil
	}
	return s.byCourse[courseCode]
}

// CourseCodes lists the distinct course codes in the snapshot.
func (s *Snapshot) CourseCodes() []string {
	codes := make([]string, 0, len(s.byCourse))
	for code := range s.byCourse {
		codes = append(codes, code)
	}
	return codes
}

// FindSection locates a section by its ID or name, in that order.
func (s *Snapshot) FindSection(idOrName string) *Section {
	if s == nil || idOrName == "" {
		return nil
	}
	for i := range s.Sections {
		if s.Sections[i].SectionID == idOrName {
			return &s.Sections[i]
		}
	}
	for i := range s.Sections {
		if s.Sections[i].SectionName == idOrName {
			return &s.Sections[i]
		}
	}
	return nil
}
