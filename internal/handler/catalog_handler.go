package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/routinez-api/internal/dto"
	"github.com/noah-isme/routinez-api/pkg/response"
)

type catalogService interface {
	ListCourses() ([]dto.CourseSummary, error)
	GetCourse(code string, showAll bool) (*dto.CourseDetail, error)
	ListFaculty(courses []string) ([]dto.FacultyEntry, error)
	ExamSchedule(courses []string) ([]dto.ExamScheduleEntry, error)
	Status() dto.StatusResponse
}

// CatalogHandler exposes read-only catalog endpoints.
type CatalogHandler struct {
	catalog catalogService
}

// NewCatalogHandler builds a new handler.
func NewCatalogHandler(catalog catalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCourses godoc
// @Summary List offered courses
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalog.ListCourses()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, map[string]interface{}{"count": len(courses)})
}

// GetCourse godoc
// @Summary Get one course with its sections
// @Tags Catalog
// @Produce json
// @Param code path string true "Course code"
// @Param showAll query bool false "Include sections without open seats"
// @Success 200 {object} response.Envelope
// @Router /courses/{code} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	showAll := c.Query("showAll") == "true" || c.Query("showAll") == "1"
	detail, err := h.catalog.GetCourse(c.Param("code"), showAll)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ListFaculty godoc
// @Summary List instructors and their courses
// @Tags Catalog
// @Produce json
// @Param courses query string false "Comma separated course codes"
// @Success 200 {object} response.Envelope
// @Router /faculty [get]
func (h *CatalogHandler) ListFaculty(c *gin.Context) {
	entries, err := h.catalog.ListFaculty(splitCourses(c.Query("courses")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"count": len(entries)})
}

// ExamSchedule godoc
// @Summary List published exam windows
// @Tags Catalog
// @Produce json
// @Param courses query string false "Comma separated course codes"
// @Success 200 {object} response.Envelope
// @Router /exam-schedule [get]
func (h *CatalogHandler) ExamSchedule(c *gin.Context) {
	entries, err := h.catalog.ExamSchedule(splitCourses(c.Query("courses")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

func splitCourses(raw string) []string {
	if raw == "" {
		return nil
	}
	var courses []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			courses = append(courses, trimmed)
		}
	}
	return courses
}

// Status godoc
// @Summary Service and snapshot status
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status [get]
func (h *CatalogHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.Status(), nil)
}
