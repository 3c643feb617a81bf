package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vkataja/quest-board-api/internal/models"
	"github.com/vkataja/quest-board-api/internal/service"
	"github.com/vkataja/quest-board-api/pkg/duedate"
	appErrors "github.com/vkataja/quest-board-api/pkg/errors"
	"github.com/vkataja/quest-board-api/pkg/response"
)

// QuestHandler handles quest endpoints.
type QuestHandler struct {
	service *service.QuestService
}

// NewQuestHandler constructs a quest handler.
func NewQuestHandler(svc *service.QuestService) *QuestHandler {
	return &QuestHandler{service: svc}
}

// List godoc
// @Summary List quests
// @Tags Quests
// @Produce json
// @Param subject query string false "Filter by subject"
// @Param type query string false "Filter by type (homework, exam, chore)"
// @Param source query string false "Filter by source (portal, manual)"
// @Param completed query bool false "Filter by completion"
// @Param search query string false "Search keyword"
// @Param due_after query string false "Due on or after (YYYY-MM-DD)"
// @Param due_before query string false "Due on or before (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /quests [get]
func (h *QuestHandler) List(c *gin.Context) {
	var filter models.QuestFilter
	filter.Subject = c.Query("subject")
	filter.Type = models.QuestType(c.Query("type"))
	filter.Source = models.QuestSource(c.Query("source"))
	filter.Search = strings.TrimSpace(c.Query("search"))
	if raw := c.Query("completed"); raw != "" {
		if completed, err := strconv.ParseBool(raw); err == nil {
			filter.Completed = &completed
		}
	}
	if raw := c.Query("due_after"); raw != "" {
		if d, err := duedate.ParseISO(raw); err == nil {
			filter.DueAfter = d
		}
	}
	if raw := c.Query("due_before"); raw != "" {
		if d, err := duedate.ParseISO(raw); err == nil {
			filter.DueBefore = d
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	quests, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quests, pagination)
}

// Get godoc
// @Summary Get quest by id
// @Tags Quests
// @Produce json
// @Param id path string true "Quest ID"
// @Success 200 {object} response.Envelope
// @Router /quests/{id} [get]
func (h *QuestHandler) Get(c *gin.Context) {
	quest, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quest, nil)
}

// Create godoc
// @Summary Create quest
// @Tags Quests
// @Accept json
// @Produce json
// @Param payload body service.CreateQuestRequest true "Quest payload"
// @Success 201 {object} response.Envelope
// @Router /quests [post]
func (h *QuestHandler) Create(c *gin.Context) {
	var req service.CreateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	quest, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quest)
}

// Update godoc
// @Summary Update quest
// @Tags Quests
// @Accept json
// @Produce json
// @Param id path string true "Quest ID"
// @Param payload body service.UpdateQuestRequest true "Quest payload"
// @Success 200 {object} response.Envelope
// @Router /quests/{id} [put]
func (h *QuestHandler) Update(c *gin.Context) {
	var req service.UpdateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	quest, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quest, nil)
}

// Complete godoc
// @Summary Mark quest completed
// @Tags Quests
// @Produce json
// @Param id path string true "Quest ID"
// @Success 200 {object} response.Envelope
// @Router /quests/{id}/complete [post]
func (h *QuestHandler) Complete(c *gin.Context) {
	quest, err := h.service.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quest, nil)
}

// Reopen godoc
// @Summary Reopen a completed quest
// @Tags Quests
// @Produce json
// @Param id path string true "Quest ID"
// @Success 200 {object} response.Envelope
// @Router /quests/{id}/reopen [post]
func (h *QuestHandler) Reopen(c *gin.Context) {
	quest, err := h.service.Reopen(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quest, nil)
}

// Delete godoc
// @Summary Delete quest
// @Tags Quests
// @Produce json
// @Param id path string true "Quest ID"
// @Success 204
// @Router /quests/{id} [delete]
func (h *QuestHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
