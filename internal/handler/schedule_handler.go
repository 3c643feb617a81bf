package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vkataja/quest-board-api/internal/service"
	"github.com/vkataja/quest-board-api/pkg/duedate"
	appErrors "github.com/vkataja/quest-board-api/pkg/errors"
	"github.com/vkataja/quest-board-api/pkg/response"
)

// ScheduleHandler handles subject schedule endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// ResolveRequest asks for a due date. CreationDate accepts ISO (2024-06-03)
// or legacy dotted (3.6.2024) form; anything unparseable resolves from today.
type ResolveRequest struct {
	Subject      string `json:"subject" binding:"required"`
	CreationDate string `json:"creation_date"`
}

// ResolveResponse is the resolution outcome.
type ResolveResponse struct {
	Subject       string `json:"subject"`
	DueDate       string `json:"due_date"`
	Method        string `json:"method"`
	NextClassInfo string `json:"next_class_info"`
}

// List godoc
// @Summary List subject schedules
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	schedules, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Get godoc
// @Summary Get schedule by subject
// @Tags Schedules
// @Produce json
// @Param subject path string true "Subject name or alias"
// @Success 200 {object} response.Envelope
// @Router /schedules/{subject} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.service.Get(c.Request.Context(), c.Param("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Upsert godoc
// @Summary Create or replace a subject schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.UpsertScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules [put]
func (h *ScheduleHandler) Upsert(c *gin.Context) {
	var req service.UpsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete a subject schedule
// @Tags Schedules
// @Produce json
// @Param subject path string true "Subject name or alias"
// @Success 204
// @Router /schedules/{subject} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("subject")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Resolve godoc
// @Summary Resolve a due date for a subject and creation date
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body ResolveRequest true "Resolution request"
// @Success 200 {object} response.Envelope
// @Router /schedules/resolve [post]
func (h *ScheduleHandler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	created := parseAnyDate(req.CreationDate)
	res := h.service.ResolveDueDate(c.Request.Context(), req.Subject, created)

	response.JSON(c, http.StatusOK, ResolveResponse{
		Subject:       duedate.NormalizeSubject(req.Subject),
		DueDate:       res.DueDate.FormatISO(),
		Method:        string(res.Method),
		NextClassInfo: res.NextClassInfo,
	}, nil)
}

// parseAnyDate tries ISO then the legacy dotted form. A zero date is returned
// for anything else so resolution can fall back to today.
func parseAnyDate(raw string) duedate.Date {
	if raw == "" {
		return duedate.Date{}
	}
	if d, err := duedate.ParseISO(raw); err == nil {
		return d
	}
	if d, err := duedate.ParseLegacy(raw); err == nil {
		return d
	}
	return duedate.Date{}
}
