package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/routinez-api/internal/models"
	"github.com/noah-isme/routinez-api/pkg/config"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
)

// FeedbackService asks a Gemini model to comment on a synthesized
// routine. The commentary is optional decoration: every error here maps
// to ErrAIUnavailable and callers degrade gracefully.
type FeedbackService struct {
	cfg    config.AIConfig
	client *http.Client
	logger *zap.Logger
}

func NewFeedbackService(cfg config.AIConfig, logger *zap.Logger) *FeedbackService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Enabled reports whether the service is configured to call out.
func (s *FeedbackService) Enabled() bool {
	return s != nil && s.cfg.Enabled && s.cfg.APIKey != ""
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// RoutineFeedback returns the model's short verdict on the routine and
// the model name used.
func (s *FeedbackService) RoutineFeedback(ctx context.Context, routine *models.Routine) (string, string, error) {
	if !s.Enabled() {
		return "", "", appErrors.ErrAIUnavailable
	}
	if routine == nil {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "routine is required")
	}

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: buildPrompt(routine)}}}},
	})
	if err != nil {
		return "", "", fmt.Errorf("marshal feedback request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimSuffix(s.cfg.BaseURL, "/"), s.cfg.Model, s.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("build feedback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrAIUnavailable.Code,
			appErrors.ErrAIUnavailable.Status, "feedback request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", "", appErrors.Clone(appErrors.ErrAIUnavailable,
			fmt.Sprintf("feedback model returned status %d", resp.StatusCode))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", "", fmt.Errorf("decode feedback response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", "", appErrors.Clone(appErrors.ErrAIUnavailable, "feedback model returned no content")
	}
	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), s.cfg.Model, nil
}

// buildPrompt condenses the routine into a compact textual summary and
// asks for a short, fixed-format verdict.
func buildPrompt(routine *models.Routine) string {
	var sb strings.Builder
	sb.WriteString("Look at this class routine:\n")
	for i := range routine.Sections {
		section := &routine.Sections[i]
		fmt.Fprintf(&sb, "- %s [%s] with %s:", section.CourseCode, section.SectionName, section.FacultyOrTBA())
		for _, slot := range section.AllSlots() {
			fmt.Fprintf(&sb, " %s %s-%s", slot.Day, slot.StartTime, slot.EndTime)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nThis routine requires being on campus for %d day(s): %s.\n\n",
		routine.CampusDays, strings.Join(routine.DaysList, ", "))
	sb.WriteString(
		"First, rate this routine out of 10.\n" +
			"Then give me 2-3 quick points about:\n" +
			"- Schedule overview\n" +
			"- What works well\n" +
			"- Areas for improvement\n" +
			"Keep it casual and under 10 words per point.\n" +
			"Format your response exactly like this:\n" +
			"Score: X/10\n" +
			"Schedule: [brief overview]\n" +
			"Good: [what works well]\n" +
			"Needs Work: [areas to improve]")
	return sb.String()
}
