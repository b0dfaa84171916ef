package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/routinez-api/internal/dto"
	"github.com/noah-isme/routinez-api/internal/models"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
)

type fakeRoutineSrv struct {
	generateResp  *dto.GenerateRoutineResponse
	generateErr   error
	lastGenerate  dto.GenerateRoutineRequest
	conflictsResp *dto.CheckConflictsResponse
	conflictsErr  error
}

func (f *fakeRoutineSrv) Generate(_ context.Context, req dto.GenerateRoutineRequest) (*dto.GenerateRoutineResponse, error) {
	f.lastGenerate = req
	return f.generateResp, f.generateErr
}

func (f *fakeRoutineSrv) CheckConflicts(context.Context, dto.CheckConflictsRequest) (*dto.CheckConflictsResponse, error) {
	return f.conflictsResp, f.conflictsErr
}

type fakeFeedbackSrv struct {
	text  string
	model string
	err   error
}

func (f *fakeFeedbackSrv) RoutineFeedback(context.Context, *models.Routine) (string, string, error) {
	return f.text, f.model, f.err
}

func postJSON(target string, payload interface{}) (*httptest.ResponseRecorder, *gin.Context) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body, _ := json.Marshal(payload)
	c.Request = httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return rec, c
}

func TestRoutineHandlerGenerateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeRoutineSrv{
		generateResp: &dto.GenerateRoutineResponse{
			Routine: &models.Routine{CampusDays: 2, DaysList: []string{"SUNDAY", "TUESDAY"}},
		},
	}
	handler := NewRoutineHandler(service, nil)

	rec, c := postJSON("/routine", dto.GenerateRoutineRequest{
		Courses: []dto.CourseSelection{{Course: "CSE220"}},
	})

	handler.Generate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CSE220", service.lastGenerate.Courses[0].Course)
	var envelope testEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	routine, _ := envelope.Data["routine"].(map[string]interface{})
	assert.Equal(t, float64(2), routine["campusDays"])
}

func TestRoutineHandlerGenerateRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRoutineHandler(&fakeRoutineSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/routine", bytes.NewReader([]byte("{not json")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutineHandlerGeneratePropagatesServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRoutineHandler(&fakeRoutineSrv{
		generateErr: appErrors.Clone(appErrors.ErrExamConflicts, "CSE220 clashes with MAT216"),
	}, nil)

	rec, c := postJSON("/routine", dto.GenerateRoutineRequest{
		Courses: []dto.CourseSelection{{Course: "CSE220"}, {Course: "MAT216"}},
	})

	handler.Generate(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "EXAM_CONFLICTS")
}

func TestRoutineHandlerCheckConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRoutineHandler(&fakeRoutineSrv{
		conflictsResp: &dto.CheckConflictsResponse{HasConflicts: false, Summary: "No conflicts detected"},
	}, nil)

	rec, c := postJSON("/check-conflicts", dto.CheckConflictsRequest{SectionIDs: []string{"1", "2"}})

	handler.CheckConflicts(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No conflicts detected")
}

func TestRoutineHandlerFeedbackWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRoutineHandler(&fakeRoutineSrv{}, nil)

	rec, c := postJSON("/routine/feedback", dto.RoutineFeedbackRequest{
		Routine: models.Routine{Sections: []models.Section{{CourseCode: "CSE220"}}},
	})

	handler.Feedback(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRoutineHandlerFeedbackSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRoutineHandler(&fakeRoutineSrv{}, &fakeFeedbackSrv{text: "Score: 8/10", model: "gemini-2.0-flash"})

	rec, c := postJSON("/routine/feedback", dto.RoutineFeedbackRequest{
		Routine: models.Routine{Sections: []models.Section{{CourseCode: "CSE220"}}},
	})

	handler.Feedback(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope testEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "Score: 8/10", envelope.Data["feedback"])
	assert.Equal(t, "gemini-2.0-flash", envelope.Data["model"])
}

type testEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
