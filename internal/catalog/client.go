// Package catalog ingests the university's published course feed and
// turns it into immutable snapshots the synthesis engine can iterate.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/routinez-api/internal/engine"
	"github.com/noah-isme/routinez-api/internal/models"
	"github.com/noah-isme/routinez-api/pkg/config"
)

// Client fetches and normalizes the upstream catalog feed.
type Client struct {
	url        string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.CatalogConfig, logger *zap.Logger) *Client {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		maxRetries: retries,
		retryDelay: delay,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch downloads the feed and returns a normalized snapshot. Transient
// upstream failures are retried with a fixed delay.
func (c *Client) Fetch(ctx context.Context) (*models.Snapshot, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		raw, err := c.download(ctx)
		if err != nil {
			lastErr = err
			c.logger.Warn("catalog fetch attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.maxRetries),
				zap.Error(err))
			continue
		}

		sections := normalizeFeed(raw, c.logger)
		c.logger.Info("catalog fetched",
			zap.Int("raw_entries", len(raw)),
			zap.Int("sections", len(sections)))
		return models.NewSnapshot(time.Now().UTC(), sections), nil
	}
	return nil, fmt.Errorf("catalog fetch failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) download(ctx context.Context) ([]rawSection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request catalog feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("catalog feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog feed: %w", err)
	}
	return decodeFeed(body)
}

// decodeFeed accepts both published shapes: a bare JSON array and a
// {"data": [...]} wrapper.
func decodeFeed(body []byte) ([]rawSection, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var sections []rawSection
		if err := json.Unmarshal(body, &sections); err != nil {
			return nil, fmt.Errorf("decode catalog list: %w", err)
		}
		return sections, nil
	}

	var wrapper struct {
		Data []rawSection `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("decode catalog wrapper: %w", err)
	}
	return wrapper.Data, nil
}

// flexID tolerates upstream flip-flopping between numeric and string
// section identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type rawSlot struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Room      string `json:"room"`
	Faculty   string `json:"faculty"`
}

type rawSchedule struct {
	ClassSchedules     []rawSlot `json:"classSchedules"`
	MidExamDate        string    `json:"midExamDate"`
	MidExamStartTime   string    `json:"midExamStartTime"`
	MidExamEndTime     string    `json:"midExamEndTime"`
	FinalExamDate      string    `json:"finalExamDate"`
	FinalExamStartTime string    `json:"finalExamStartTime"`
	FinalExamEndTime   string    `json:"finalExamEndTime"`
}

type rawSection struct {
	SectionID    flexID       `json:"sectionId"`
	CourseCode   string       `json:"courseCode"`
	SectionName  string       `json:"sectionName"`
	Faculties    string       `json:"faculties"`
	Capacity     int          `json:"capacity"`
	ConsumedSeat int          `json:"consumedSeat"`
	RoomName     string       `json:"roomName"`
	LabRoomName  string       `json:"labRoomName"`
	LabFaculties string       `json:"labFaculties"`
	Schedule     *rawSchedule `json:"sectionSchedule"`
	// LabSchedules arrives either as a slot list or as a nested
	// {classSchedules: [...], room} object depending on feed version.
	LabSchedules json.RawMessage `json:"labSchedules"`

	// Older feed versions carried exam fields at the top level.
	MidExamDate        string `json:"midExamDate"`
	MidExamStartTime   string `json:"midExamStartTime"`
	MidExamEndTime     string `json:"midExamEndTime"`
	FinalExamDate      string `json:"finalExamDate"`
	FinalExamStartTime string `json:"finalExamStartTime"`
	FinalExamEndTime   string `json:"finalExamEndTime"`
}

func normalizeFeed(raw []rawSection, logger *zap.Logger) []models.Section {
	sections := make([]models.Section, 0, len(raw))
	skipped := 0
	for i := range raw {
		section, ok := normalizeSection(&raw[i])
		if !ok {
			skipped++
			continue
		}
		sections = append(sections, section)
	}
	if skipped > 0 {
		logger.Warn("catalog entries skipped during normalization", zap.Int("skipped", skipped))
	}
	return sections
}

func normalizeSection(raw *rawSection) (models.Section, bool) {
	course := strings.TrimSpace(raw.CourseCode)
	if course == "" {
		return models.Section{}, false
	}

	section := models.Section{
		SectionID:    string(raw.SectionID),
		CourseCode:   course,
		SectionName:  strings.TrimSpace(raw.SectionName),
		Faculty:      strings.TrimSpace(raw.Faculties),
		Capacity:     raw.Capacity,
		ConsumedSeat: raw.ConsumedSeat,
	}
	if section.SectionID == "" {
		section.SectionID = course + "/" + section.SectionName
	}

	if raw.Schedule != nil {
		for _, slot := range raw.Schedule.ClassSchedules {
			normalized, ok := normalizeSlot(slot, raw.RoomName, "")
			if ok {
				section.ClassSlots = append(section.ClassSlots, normalized)
			}
		}
	}
	section.LabSlots = normalizeLabSchedules(raw)
	section.Exams = normalizeExams(raw)
	return section, true
}

// normalizeSlot canonicalizes one weekly occurrence. Slots whose times
// do not parse are kept with zero minutes so downstream checks can stay
// fail-open instead of silently dropping the meeting.
func normalizeSlot(slot rawSlot, fallbackRoom, fallbackFaculty string) (models.Slot, bool) {
	day := strings.ToUpper(strings.TrimSpace(slot.Day))
	if day == "" {
		return models.Slot{}, false
	}

	normalized := models.Slot{
		Day:       day,
		StartTime: strings.TrimSpace(slot.StartTime),
		EndTime:   strings.TrimSpace(slot.EndTime),
		Room:      firstNonEmpty(slot.Room, fallbackRoom),
		Faculty:   firstNonEmpty(slot.Faculty, fallbackFaculty),
	}
	start, okStart := engine.ParseClock(normalized.StartTime)
	end, okEnd := engine.ParseClock(normalized.EndTime)
	if okStart && okEnd && end > start {
		normalized.StartMinute = start
		normalized.EndMinute = end
	}
	return normalized, true
}

func normalizeLabSchedules(raw *rawSection) []models.Slot {
	if len(raw.LabSchedules) == 0 {
		return nil
	}
	trimmed := strings.TrimSpace(string(raw.LabSchedules))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	var slots []rawSlot
	var room string
	switch {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(raw.LabSchedules, &slots); err != nil {
			return nil
		}
	case strings.HasPrefix(trimmed, "{"):
		var nested struct {
			ClassSchedules []rawSlot `json:"classSchedules"`
			Room           string    `json:"room"`
		}
		if err := json.Unmarshal(raw.LabSchedules, &nested); err != nil {
			return nil
		}
		slots = nested.ClassSchedules
		room = nested.Room
	default:
		return nil
	}

	labRoom := firstNonEmpty(raw.LabRoomName, room)
	labFaculty := strings.TrimSpace(raw.LabFaculties)
	normalized := make([]models.Slot, 0, len(slots))
	for _, slot := range slots {
		if lab, ok := normalizeSlot(slot, labRoom, labFaculty); ok {
			normalized = append(normalized, lab)
		}
	}
	return normalized
}

// normalizeExams prefers sectionSchedule exam fields over the legacy
// top-level ones.
func normalizeExams(raw *rawSection) models.ExamSchedule {
	var exams models.ExamSchedule
	var sched rawSchedule
	if raw.Schedule != nil {
		sched = *raw.Schedule
	}

	midDate := firstNonEmpty(sched.MidExamDate, raw.MidExamDate)
	if midDate != "" {
		exams.Mid = &models.ExamWindow{
			Date:      midDate,
			StartTime: firstNonEmpty(sched.MidExamStartTime, raw.MidExamStartTime),
			EndTime:   firstNonEmpty(sched.MidExamEndTime, raw.MidExamEndTime),
		}
	}
	finalDate := firstNonEmpty(sched.FinalExamDate, raw.FinalExamDate)
	if finalDate != "" {
		exams.Final = &models.ExamWindow{
			Date:      finalDate,
			StartTime: firstNonEmpty(sched.FinalExamStartTime, raw.FinalExamStartTime),
			EndTime:   firstNonEmpty(sched.FinalExamEndTime, raw.FinalExamEndTime),
		}
	}
	return exams
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
