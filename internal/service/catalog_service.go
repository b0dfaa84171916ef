package service

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/routinez-api/internal/dto"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
)

// CatalogService answers read-only questions about the live snapshot:
// course listings, faculty, exam schedules and service status.
type CatalogService struct {
	snapshots snapshotProvider
	aiEnabled bool
	logger    *zap.Logger
}

func NewCatalogService(snapshots snapshotProvider, aiEnabled bool, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{snapshots: snapshots, aiEnabled: aiEnabled, logger: logger}
}

// ListCourses returns every offered course with aggregate seat counts.
func (s *CatalogService) ListCourses() ([]dto.CourseSummary, error) {
	snapshot := s.snapshots.Current()
	if snapshot == nil {
		return nil, appErrors.Clone(appErrors.ErrCatalogUnavailable, "no catalog snapshot is loaded yet")
	}

	codes := snapshot.CourseCodes()
	sort.Strings(codes)
	summaries := make([]dto.CourseSummary, 0, len(codes))
	for _, code := range codes {
		sections := snapshot.SectionsByCourse(code)
		seats := 0
		for _, section := range sections {
			seats += section.AvailableSeats()
		}
		summaries = append(summaries, dto.CourseSummary{
			CourseCode:     code,
			SectionCount:   len(sections),
			AvailableSeats: seats,
		})
	}
	return summaries, nil
}

// GetCourse returns the sections of one course. By default only
// sections with open seats are listed; showAll includes full ones.
func (s *CatalogService) GetCourse(code string, showAll bool) (*dto.CourseDetail, error) {
	snapshot := s.snapshots.Current()
	if snapshot == nil {
		return nil, appErrors.Clone(appErrors.ErrCatalogUnavailable, "no catalog snapshot is loaded yet")
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	sections := snapshot.SectionsByCourse(code)
	if len(sections) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s was not found", code))
	}

	detail := &dto.CourseDetail{CourseCode: code}
	for _, section := range sections {
		if !showAll && section.AvailableSeats() == 0 {
			continue
		}
		detail.Sections = append(detail.Sections, *section)
	}
	sort.Slice(detail.Sections, func(i, j int) bool {
		return detail.Sections[i].SectionName < detail.Sections[j].SectionName
	})
	return detail, nil
}

// ListFaculty maps every instructor to the courses they teach,
// optionally limited to a set of course codes.
func (s *CatalogService) ListFaculty(courses []string) ([]dto.FacultyEntry, error) {
	snapshot := s.snapshots.Current()
	if snapshot == nil {
		return nil, appErrors.Clone(appErrors.ErrCatalogUnavailable, "no catalog snapshot is loaded yet")
	}

	filter := courseFilter(courses)
	byFaculty := make(map[string]map[string]struct{})
	for i := range snapshot.Sections {
		section := &snapshot.Sections[i]
		if filter != nil {
			if _, ok := filter[section.CourseCode]; !ok {
				continue
			}
		}
		faculty := section.FacultyOrTBA()
		if byFaculty[faculty] == nil {
			byFaculty[faculty] = make(map[string]struct{})
		}
		byFaculty[faculty][section.CourseCode] = struct{}{}
	}

	entries := make([]dto.FacultyEntry, 0, len(byFaculty))
	for faculty, courseSet := range byFaculty {
		courses := make([]string, 0, len(courseSet))
		for course := range courseSet {
			courses = append(courses, course)
		}
		sort.Strings(courses)
		entries = append(entries, dto.FacultyEntry{Faculty: faculty, Courses: courses})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Faculty < entries[j].Faculty })
	return entries, nil
}

// ExamSchedule lists the published exam windows, optionally filtered to
// a set of course codes.
func (s *CatalogService) ExamSchedule(courses []string) ([]dto.ExamScheduleEntry, error) {
	snapshot := s.snapshots.Current()
	if snapshot == nil {
		return nil, appErrors.Clone(appErrors.ErrCatalogUnavailable, "no catalog snapshot is loaded yet")
	}

	filter := courseFilter(courses)
	entries := make([]dto.ExamScheduleEntry, 0)
	for i := range snapshot.Sections {
		section := &snapshot.Sections[i]
		if filter != nil {
			if _, ok := filter[section.CourseCode]; !ok {
				continue
			}
		}
		if section.Exams.Mid == nil && section.Exams.Final == nil {
			continue
		}
		entries = append(entries, dto.ExamScheduleEntry{
			CourseCode:  section.CourseCode,
			SectionName: section.SectionName,
			Mid:         section.Exams.Mid,
			Final:       section.Exams.Final,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CourseCode != entries[j].CourseCode {
			return entries[i].CourseCode < entries[j].CourseCode
		}
		return entries[i].SectionName < entries[j].SectionName
	})
	return entries, nil
}

func courseFilter(courses []string) map[string]struct{} {
	if len(courses) == 0 {
		return nil
	}
	filter := make(map[string]struct{}, len(courses))
	for _, course := range courses {
		if trimmed := strings.ToUpper(strings.TrimSpace(course)); trimmed != "" {
			filter[trimmed] = struct{}{}
		}
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}

// Status summarises snapshot freshness for the status endpoint.
func (s *CatalogService) Status() dto.StatusResponse {
	snapshot := s.snapshots.Current()
	status := dto.StatusResponse{
		Status:    "degraded",
		AIEnabled: s.aiEnabled,
	}
	if snapshot != nil {
		status.Status = "ok"
		status.SnapshotLoaded = true
		status.SnapshotAgeSecs = int64(s.snapshots.Age().Seconds())
		status.SectionCount = len(snapshot.Sections)
		status.CourseCount = len(snapshot.CourseCodes())
	}
	return status
}
