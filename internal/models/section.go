package models

import "strings"

// Weekday names as they appear in the catalog feed, upper-cased at
// ingestion. The feed runs Saturday through Thursday with Friday off,
// but the engine only relies on day identity, not order.
const (
	DaySunday    = "SUNDAY"
	DayMonday    = "MONDAY"
	DayTuesday   = "TUESDAY"
	DayWednesday = "WEDNESDAY"
	DayThursday  = "THURSDAY"
	DayFriday    = "FRIDAY"
	DaySaturday  = "SATURDAY"
)

// FacultyTBA is the bucket for sections without an assigned instructor.
const FacultyTBA = "TBA"

// Slot is a single weekly class or lab occurrence in canonical form.
// StartMinute/EndMinute are minutes since midnight; zero values mean the
// source text was unparsable and the slot must not be trusted for
// conflict decisions.
type Slot struct {
	Day         string `json:"day"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	StartMinute int    `json:"startMinute"`
	EndMinute   int    `json:"endMinute"`
	Room        string `json:"room,omitempty"`
	// Faculty overrides the section instructor for lab slots taught by
	// a different person.
	Faculty string `json:"faculty,omitempty"`
}

// Parsed reports whether both endpoints of the slot were parsable.
func (s Slot) Parsed() bool {
	return s.EndMinute > s.StartMinute
}

// ExamWindow is a dated exam sitting. EndTime may be empty in raw data;
// conflict checks then assume a fixed fallback duration.
type ExamWindow struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime,omitempty"`
}

// ExamSchedule carries the midterm and final windows of a section.
// Either pointer may be nil when the catalog has not published the date.
type ExamSchedule struct {
	Mid   *ExamWindow `json:"mid,omitempty"`
	Final *ExamWindow `json:"final,omitempty"`
}

// Section is one offering of a course. Sections are immutable inputs to
// the engine: they are read and copied into routines, never mutated.
type Section struct {
	SectionID    string       `json:"sectionId"`
	CourseCode   string       `json:"courseCode"`
	SectionName  string       `json:"sectionName"`
	Faculty      string       `json:"faculty"`
	Capacity     int          `json:"capacity"`
	ConsumedSeat int          `json:"consumedSeat"`
	ClassSlots   []Slot       `json:"classSlots"`
	LabSlots     []Slot       `json:"labSlots,omitempty"`
	Exams        ExamSchedule `json:"exams"`
}

// AvailableSeats never reports negative availability even when the raw
// feed oversells a section.
func (s *Section) AvailableSeats() int {
	seats := s.Capacity - s.ConsumedSeat
	if seats < 0 {
		return 0
	}
	return seats
}

// FacultyOrTBA collapses blank and "TBA" instructors into one bucket.
func (s *Section) FacultyOrTBA() string {
	faculty := strings.TrimSpace(s.Faculty)
	if faculty == "" || strings.EqualFold(faculty, FacultyTBA) {
		return FacultyTBA
	}
	return faculty
}

// AllSlots returns class slots followed by lab slots.
func (s *Section) AllSlots() []Slot {
	slots := make([]Slot, 0, len(s.ClassSlots)+len(s.LabSlots))
	slots = append(slots, s.ClassSlots...)
	slots = append(slots, s.LabSlots...)
	return slots
}

// Days returns the distinct upper-cased days the section occupies.
func (s *Section) Days() map[string]struct{} {
	days := make(map[string]struct{})
	for _, slot := range s.AllSlots() {
		if slot.Day != "" {
			days[strings.ToUpper(slot.Day)] = struct{}{}
		}
	}
	return days
}
