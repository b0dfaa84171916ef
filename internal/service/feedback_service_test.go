package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/routinez-api/internal/models"
	"github.com/noah-isme/routinez-api/pkg/config"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
)

func feedbackRoutine() *models.Routine {
	return &models.Routine{
		Sections: []models.Section{{
			SectionID: "1", CourseCode: "CSE220", SectionName: "01", Faculty: "ABC",
			ClassSlots: []models.Slot{parsedSlot("SUNDAY", "9:30 AM", "10:50 AM")},
		}},
		CampusDays: 1,
		DaysList:   []string{"SUNDAY"},
	}
}

func feedbackConfig(baseURL string) config.AIConfig {
	return config.AIConfig{
		Enabled: true,
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}
}

func TestFeedbackServiceRoutineFeedback(t *testing.T) {
	var gotPath string
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Contents[0].Parts[0].Text

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]string{{"text": "Score: 8/10\nSchedule: compact single day"}},
				},
			}},
		})
	}))
	defer server.Close()

	service := NewFeedbackService(feedbackConfig(server.URL), zap.NewNop())
	text, model, err := service.RoutineFeedback(context.Background(), feedbackRoutine())
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", model)
	assert.Contains(t, text, "Score: 8/10")
	assert.Contains(t, gotPath, "gemini-2.0-flash:generateContent")
	assert.Contains(t, gotPrompt, "CSE220")
	assert.Contains(t, gotPrompt, "1 day(s)")
	assert.Contains(t, gotPrompt, "Score: X/10")
}

func TestFeedbackServiceDisabled(t *testing.T) {
	service := NewFeedbackService(config.AIConfig{}, zap.NewNop())
	assert.False(t, service.Enabled())

	_, _, err := service.RoutineFeedback(context.Background(), feedbackRoutine())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAIUnavailable.Code, appErrors.FromError(err).Code)
}

func TestFeedbackServiceUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	service := NewFeedbackService(feedbackConfig(server.URL), zap.NewNop())
	_, _, err := service.RoutineFeedback(context.Background(), feedbackRoutine())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAIUnavailable.Code, appErrors.FromError(err).Code)
}

func TestFeedbackServiceEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	service := NewFeedbackService(feedbackConfig(server.URL), zap.NewNop())
	_, _, err := service.RoutineFeedback(context.Background(), feedbackRoutine())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAIUnavailable.Code, appErrors.FromError(err).Code)
}
