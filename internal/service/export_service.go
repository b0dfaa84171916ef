package service

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/routinez-api/internal/models"
	"github.com/noah-isme/routinez-api/pkg/export"
	"github.com/noah-isme/routinez-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, subtitles ...string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       string
	ExpiresAt    time.Time
}

// ExportService renders routines as downloadable PDF or CSV files with
// signed, expiring download links.
type ExportService struct {
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

func NewExportService(files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		storage: files,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate renders the routine in the requested format and stores it.
func (s *ExportService) Generate(routine *models.Routine, format string) (*ExportResult, error) {
	if routine == nil || len(routine.Sections) == 0 {
		return nil, fmt.Errorf("routine with at least one section is required")
	}
	if format == "" {
		format = "pdf"
	}

	dataset := routineDataset(routine)
	var payload []byte
	var err error
	switch format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(dataset, "Class Routine",
			fmt.Sprintf("Campus days: %d (%s)", routine.CampusDays, strings.Join(routine.DaysList, ", ")))
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	filename := fmt.Sprintf("routine_%s_%s.%s", time.Now().UTC().Format("20060102_150405"), jobID[:8], format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}

	s.logger.Info("routine export generated",
		zap.String("format", format),
		zap.String("file", relPath),
		zap.Time("expires_at", expiresAt))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/routine/export/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to the configured
// result TTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// routineDataset flattens a routine into one row per weekly occurrence,
// ordered by day then start time.
func routineDataset(routine *models.Routine) export.Dataset {
	type entry struct {
		dayRank int
		start   int
		row     map[string]string
	}

	dayRank := map[string]int{
		models.DaySaturday: 0, models.DaySunday: 1, models.DayMonday: 2,
		models.DayTuesday: 3, models.DayWednesday: 4, models.DayThursday: 5, models.DayFriday: 6,
	}

	entries := make([]entry, 0)
	for i := range routine.Sections {
		section := &routine.Sections[i]
		appendSlot := func(slot models.Slot, kind string) {
			faculty := slot.Faculty
			if faculty == "" {
				faculty = section.FacultyOrTBA()
			}
			rank, ok := dayRank[strings.ToUpper(slot.Day)]
			if !ok {
				rank = len(dayRank)
			}
			entries = append(entries, entry{
				dayRank: rank,
				start:   slot.StartMinute,
				row: map[string]string{
					"Day":     strings.ToUpper(slot.Day),
					"Time":    fmt.Sprintf("%s - %s", slot.StartTime, slot.EndTime),
					"Course":  section.CourseCode,
					"Section": section.SectionName,
					"Type":    kind,
					"Room":    slot.Room,
					"Faculty": faculty,
				},
			})
		}
		for _, slot := range section.ClassSlots {
			appendSlot(slot, "Class")
		}
		for _, slot := range section.LabSlots {
			appendSlot(slot, "Lab")
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].dayRank != entries[j].dayRank {
			return entries[i].dayRank < entries[j].dayRank
		}
		return entries[i].start < entries[j].start
	})

	rows := make([]map[string]string, len(entries))
	for i, e := range entries {
		rows[i] = e.row
	}
	return export.Dataset{
		Headers: []string{"Day", "Time", "Course", "Section", "Type", "Room", "Faculty"},
		Rows:    rows,
	}
}
