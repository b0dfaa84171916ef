package dto

import "github.com/noah-isme/routinez-api/internal/models"

// CourseSelection pins one requested course, optionally to a faculty or
// an exact section.
type CourseSelection struct {
	Course  string `json:"course" validate:"required"`
	Faculty string `json:"faculty"`
	Section string `json:"section"`
	Locked  bool   `json:"locked"`
}

// GenerateRoutineRequest captures POST /routine payload.
type GenerateRoutineRequest struct {
	Courses           []CourseSelection   `json:"courses" validate:"required,min=1,max=10,dive"`
	Days              []string            `json:"days" validate:"max=7"`
	Times             []models.TimeWindow `json:"times" validate:"max=7"`
	CommutePreference string              `json:"commutePreference" validate:"omitempty,oneof=minimize-days maximize-days balanced"`
	TimingPreference  string              `json:"timingPreference" validate:"omitempty,oneof=early late balanced"`
	OptimizeFaculty   bool                `json:"optimizeFaculty"`
	UseAI             bool                `json:"useAi"`
}

// GenerateRoutineResponse is the synthesized routine plus search
// diagnostics and the optional AI commentary.
type GenerateRoutineResponse struct {
	Routine      *models.Routine    `json:"routine"`
	Alternatives []models.Routine   `json:"alternatives,omitempty"`
	Stats        models.SearchStats `json:"stats"`
	Feedback     string             `json:"feedback,omitempty"`
}

// CheckConflictsRequest captures POST /check-conflicts payload: exact
// sections, by ID or by course/section name pair.
type CheckConflictsRequest struct {
	SectionIDs []string          `json:"sectionIds"`
	Sections   []CourseSelection `json:"sections" validate:"dive"`
}

// CheckConflictsResponse lists every detected collision for the given
// section set.
type CheckConflictsResponse struct {
	HasConflicts  bool                  `json:"hasConflicts"`
	ExamConflicts []models.ExamConflict `json:"examConflicts,omitempty"`
	TimeConflicts []TimeConflict        `json:"timeConflicts,omitempty"`
	Summary       string                `json:"summary,omitempty"`
}

// TimeConflict is one weekly slot collision between two sections.
type TimeConflict struct {
	Course1 string `json:"course1"`
	Course2 string `json:"course2"`
	Day     string `json:"day"`
	Time1   string `json:"time1"`
	Time2   string `json:"time2"`
}

// CourseSummary is one course of the catalog listing.
type CourseSummary struct {
	CourseCode     string `json:"courseCode"`
	SectionCount   int    `json:"sectionCount"`
	AvailableSeats int    `json:"availableSeats"`
}

// CourseDetail expands one course into its sections.
type CourseDetail struct {
	CourseCode string           `json:"courseCode"`
	Sections   []models.Section `json:"sections"`
}

// FacultyEntry is one instructor and the courses they teach.
type FacultyEntry struct {
	Faculty string   `json:"faculty"`
	Courses []string `json:"courses"`
}

// ExamScheduleEntry is one course's published exam windows.
type ExamScheduleEntry struct {
	CourseCode  string             `json:"courseCode"`
	SectionName string             `json:"sectionName"`
	Mid         *models.ExamWindow `json:"mid,omitempty"`
	Final       *models.ExamWindow `json:"final,omitempty"`
}

// RoutineFeedbackRequest captures POST /routine/feedback payload.
type RoutineFeedbackRequest struct {
	Routine models.Routine `json:"routine" validate:"required"`
}

// RoutineFeedbackResponse carries the AI commentary for a routine.
type RoutineFeedbackResponse struct {
	Feedback string `json:"feedback"`
	Model    string `json:"model,omitempty"`
}

// ExportRoutineRequest captures POST /routine/export payload.
type ExportRoutineRequest struct {
	Routine models.Routine `json:"routine" validate:"required"`
	Format  string         `json:"format" validate:"omitempty,oneof=pdf csv"`
}

// StatusResponse summarises service health for GET /status.
type StatusResponse struct {
	Status          string `json:"status"`
	SnapshotLoaded  bool   `json:"snapshotLoaded"`
	SnapshotAgeSecs int64  `json:"snapshotAgeSeconds"`
	SectionCount    int    `json:"sectionCount"`
	CourseCount     int    `json:"courseCount"`
	AIEnabled       bool   `json:"aiEnabled"`
}
