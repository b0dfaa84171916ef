package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/routinez-api/internal/dto"
	"github.com/noah-isme/routinez-api/internal/service"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
	"github.com/noah-isme/routinez-api/pkg/response"
)

// ExportHandler exposes routine export generation and signed downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler builds a new handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Generate godoc
// @Summary Export a routine as PDF or CSV
// @Tags Export
// @Accept json
// @Produce json
// @Param payload body dto.ExportRoutineRequest true "Routine and format"
// @Success 201 {object} response.Envelope
// @Router /routine/export [post]
func (h *ExportHandler) Generate(c *gin.Context) {
	var req dto.ExportRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	if len(req.Routine.Sections) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "routine with at least one section is required"))
		return
	}

	result, err := h.exports.Generate(&req.Routine, req.Format)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "export failed"))
		return
	}
	response.Created(c, gin.H{
		"url":       result.URL,
		"format":    result.Format,
		"expiresAt": result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Download godoc
// @Summary Download a previously exported routine
// @Tags Export
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /routine/export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Param("token")
	_, relPath, _, err := h.exports.ParseToken(token, false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusForbidden, "invalid or expired download link"))
		return
	}

	file, err := h.exports.Open(relPath)
	if err != nil {
		if os.IsNotExist(err) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file no longer exists"))
			return
		}
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(relPath)))
	c.Header("Content-Type", contentTypeFor(relPath))
	http.ServeContent(c.Writer, c.Request, filepath.Base(relPath), time.Time{}, file)
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
