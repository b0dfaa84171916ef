package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/routinez-api/internal/dto"
	"github.com/noah-isme/routinez-api/internal/models"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
	"github.com/noah-isme/routinez-api/pkg/response"
)

type routineService interface {
	Generate(ctx context.Context, req dto.GenerateRoutineRequest) (*dto.GenerateRoutineResponse, error)
	CheckConflicts(ctx context.Context, req dto.CheckConflictsRequest) (*dto.CheckConflictsResponse, error)
}

type routineFeedbackService interface {
	RoutineFeedback(ctx context.Context, routine *models.Routine) (string, string, error)
}

// RoutineHandler exposes routine synthesis endpoints.
type RoutineHandler struct {
	routines routineService
	feedback routineFeedbackService
}

// NewRoutineHandler builds a new handler.
func NewRoutineHandler(routines routineService, feedback routineFeedbackService) *RoutineHandler {
	return &RoutineHandler{routines: routines, feedback: feedback}
}

// Generate godoc
// @Summary Synthesize a class routine
// @Tags Routine
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRoutineRequest true "Routine request"
// @Success 200 {object} response.Envelope
// @Router /routine [post]
func (h *RoutineHandler) Generate(c *gin.Context) {
	var req dto.GenerateRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid routine payload"))
		return
	}
	resp, err := h.routines.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// CheckConflicts godoc
// @Summary Check an explicit section set for conflicts
// @Tags Routine
// @Accept json
// @Produce json
// @Param payload body dto.CheckConflictsRequest true "Sections to check"
// @Success 200 {object} response.Envelope
// @Router /check-conflicts [post]
func (h *RoutineHandler) CheckConflicts(c *gin.Context) {
	var req dto.CheckConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict check payload"))
		return
	}
	resp, err := h.routines.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Feedback godoc
// @Summary AI commentary on a routine
// @Tags Routine
// @Accept json
// @Produce json
// @Param payload body dto.RoutineFeedbackRequest true "Routine to review"
// @Success 200 {object} response.Envelope
// @Router /routine/feedback [post]
func (h *RoutineHandler) Feedback(c *gin.Context) {
	var req dto.RoutineFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	if h.feedback == nil {
		response.Error(c, appErrors.ErrAIUnavailable)
		return
	}
	text, model, err := h.feedback.RoutineFeedback(c.Request.Context(), &req.Routine)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.RoutineFeedbackResponse{Feedback: text, Model: model}, nil)
}
