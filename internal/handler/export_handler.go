package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vkataja/quest-board-api/internal/models"
	"github.com/vkataja/quest-board-api/internal/service"
	"github.com/vkataja/quest-board-api/pkg/response"
)

var exportMimeTypes = map[string]string{
	"csv": "text/csv",
	"pdf": "application/pdf",
}

// ExportHandler streams board exports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export the quest board
// @Tags Export
// @Produce octet-stream
// @Param format query string false "csv or pdf (default csv)"
// @Param subject query string false "Filter by subject"
// @Param completed query bool false "Filter by completion"
// @Success 200 {file} file
// @Router /export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	var filter models.QuestFilter
	filter.Subject = c.Query("subject")
	if raw := c.Query("completed"); raw != "" {
		if completed, err := strconv.ParseBool(raw); err == nil {
			filter.Completed = &completed
		}
	}

	data, filename, err := h.service.ExportBoard(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, exportMimeTypes[format], data)
}
