package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/routinez-api/internal/dto"
	"github.com/noah-isme/routinez-api/internal/engine"
	"github.com/noah-isme/routinez-api/internal/models"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
)

// maxAlternatives bounds how many runner-up routines a response carries.
const maxAlternatives = 10

type snapshotProvider interface {
	Current() *models.Snapshot
	Age() time.Duration
}

type feedbackProvider interface {
	RoutineFeedback(ctx context.Context, routine *models.Routine) (string, string, error)
}

// RoutineService drives routine synthesis against the live catalog
// snapshot.
type RoutineService struct {
	snapshots snapshotProvider
	engine    *engine.Engine
	feedback  feedbackProvider
	metrics   *MetricsService
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewRoutineService(snapshots snapshotProvider, eng *engine.Engine, feedback feedbackProvider, metrics *MetricsService, logger *zap.Logger) *RoutineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoutineService{
		snapshots: snapshots,
		engine:    eng,
		feedback:  feedback,
		metrics:   metrics,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Generate synthesizes the best routine for the requested courses and
// preferences.
func (s *RoutineService) Generate(ctx context.Context, req dto.GenerateRoutineRequest) (*dto.GenerateRoutineResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid routine request")
	}

	snapshot := s.snapshots.Current()
	started := time.Now()
	result, err := s.engine.Synthesize(ctx, snapshot, engine.Request{
		Courses:           toCourseRequests(req.Courses),
		Days:              req.Days,
		Times:             req.Times,
		CommutePreference: defaultCommute(req.CommutePreference),
		TimingPreference:  req.TimingPreference,
		OptimizeFaculty:   req.OptimizeFaculty,
	})
	if err != nil {
		s.metrics.ObserveSynthesis(appErrors.FromError(err).Code, 0, 0, false, time.Since(started))
		return nil, err
	}
	s.metrics.ObserveSynthesis("success", result.Stats.Examined, result.Stats.Accepted,
		result.Stats.Bounded, time.Since(started))

	s.logger.Info("routine synthesized",
		zap.Int("courses", len(req.Courses)),
		zap.Int("examined", result.Stats.Examined),
		zap.Int("accepted", result.Stats.Accepted),
		zap.Int("campus_days", result.Best.CampusDays),
		zap.Bool("bounded", result.Stats.Bounded),
		zap.Duration("elapsed", result.Stats.Elapsed))

	resp := &dto.GenerateRoutineResponse{
		Routine:      result.Best,
		Alternatives: alternativesOf(result),
		Stats:        result.Stats,
	}
	if req.UseAI && s.feedback != nil {
		feedback, _, err := s.feedback.RoutineFeedback(ctx, result.Best)
		if err != nil {
			// Feedback is decoration; the routine still ships.
			s.logger.Warn("routine feedback unavailable", zap.Error(err))
		} else {
			resp.Feedback = feedback
		}
	}
	return resp, nil
}

func toCourseRequests(selections []dto.CourseSelection) []engine.CourseRequest {
	requests := make([]engine.CourseRequest, len(selections))
	for i, sel := range selections {
		requests[i] = engine.CourseRequest{
			Course:  strings.ToUpper(strings.TrimSpace(sel.Course)),
			Faculty: strings.TrimSpace(sel.Faculty),
			Section: strings.TrimSpace(sel.Section),
			Locked:  sel.Locked,
		}
	}
	return requests
}

func defaultCommute(pref string) string {
	if pref == "" {
		return models.CommuteMinimizeDays
	}
	return pref
}

func alternativesOf(result *engine.Result) []models.Routine {
	if len(result.Routines) <= 1 {
		return nil
	}
	rest := result.Routines[1:]
	if len(rest) > maxAlternatives {
		rest = rest[:maxAlternatives]
	}
	return rest
}

// CheckConflicts reports every exam and weekly slot collision within an
// explicit section set, without running the search.
func (s *RoutineService) CheckConflicts(ctx context.Context, req dto.CheckConflictsRequest) (*dto.CheckConflictsResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check request")
	}

	snapshot := s.snapshots.Current()
	if snapshot == nil {
		return nil, appErrors.Clone(appErrors.ErrCatalogUnavailable, "no catalog snapshot is loaded yet")
	}

	sections, err := s.resolveSections(snapshot, req)
	if err != nil {
		return nil, err
	}
	if len(sections) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least two sections are required for a conflict check")
	}

	examConflicts := engine.CollectExamConflicts(sections)
	timeConflicts := collectTimeConflicts(sections)

	resp := &dto.CheckConflictsResponse{
		HasConflicts:  len(examConflicts) > 0 || len(timeConflicts) > 0,
		ExamConflicts: examConflicts,
		TimeConflicts: timeConflicts,
	}
	if len(examConflicts) > 0 {
		resp.Summary = engine.FormatExamConflicts(examConflicts)
	}
	return resp, nil
}

func (s *RoutineService) resolveSections(snapshot *models.Snapshot, req dto.CheckConflictsRequest) ([]*models.Section, error) {
	sections := make([]*models.Section, 0, len(req.SectionIDs)+len(req.Sections))
	for _, id := range req.SectionIDs {
		section := snapshot.FindSection(strings.TrimSpace(id))
		if section == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s was not found", id))
		}
		sections = append(sections, section)
	}
	for _, sel := range req.Sections {
		section := findByCourseAndName(snapshot, sel.Course, sel.Section)
		if section == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound,
				fmt.Sprintf("section %s of %s was not found", sel.Section, sel.Course))
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func findByCourseAndName(snapshot *models.Snapshot, course, name string) *models.Section {
	course = strings.ToUpper(strings.TrimSpace(course))
	name = strings.TrimSpace(name)
	for _, section := range snapshot.SectionsByCourse(course) {
		if section.SectionName == name || section.SectionID == name {
			return section
		}
	}
	return nil
}

func collectTimeConflicts(sections []*models.Section) []dto.TimeConflict {
	var conflicts []dto.TimeConflict
	for i := range sections {
		for j := i + 1; j < len(sections); j++ {
			a, b := sections[i], sections[j]
			if a.CourseCode == b.CourseCode {
				continue
			}
			for _, sa := range a.AllSlots() {
				if !sa.Parsed() {
					continue
				}
				for _, sb := range b.AllSlots() {
					if !sb.Parsed() || !strings.EqualFold(sa.Day, sb.Day) {
						continue
					}
					if engine.Overlap(sa.StartMinute, sa.EndMinute, sb.StartMinute, sb.EndMinute) {
						conflicts = append(conflicts, dto.TimeConflict{
							Course1: a.CourseCode,
							Course2: b.CourseCode,
							Day:     strings.ToUpper(sa.Day),
							Time1:   fmt.Sprintf("%s - %s", sa.StartTime, sa.EndTime),
							Time2:   fmt.Sprintf("%s - %s", sb.StartTime, sb.EndTime),
						})
					}
				}
			}
		}
	}
	return conflicts
}
