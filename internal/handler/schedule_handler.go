package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "cogscheduler/backend/internal/errors"
	"cogscheduler/backend/internal/middleware"
	"cogscheduler/backend/internal/model"
	"cogscheduler/backend/internal/service"
)

type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// Schedule runs the engine on pre-parsed tasks.
func (h *ScheduleHandler) Schedule(c *gin.Context) {
	var req service.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	result, apiErr := h.scheduleService.BuildSchedule(c.Request.Context(), middleware.UserID(c), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

type converseRequest struct {
	Message string `json:"message"`
	service.ScheduleRequest
}

// Converse parses a free-text message into tasks before scheduling.
// Mounted on both /chat and /converse.
func (h *ScheduleHandler) Converse(c *gin.Context) {
	var req converseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	result, apiErr := h.scheduleService.Converse(c.Request.Context(), middleware.UserID(c), req.Message, req.ScheduleRequest)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

type feedbackRequest struct {
	BlockIndex   int `json:"block_index"`
	MentalDemand int `json:"mental_demand"`
	Effort       int `json:"effort"`
}

func (h *ScheduleHandler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	result, apiErr := h.scheduleService.SubmitFeedback(
		c.Request.Context(), middleware.UserID(c),
		req.BlockIndex, req.MentalDemand, req.Effort,
	)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ScheduleHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduleService.ConfigSnapshot())
}

func (h *ScheduleHandler) PutConfig(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		writeInvalidJSON(c)
		return
	}

	snapshot, apiErr := h.scheduleService.UpdateConfig(updates)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *ScheduleHandler) GetProfile(c *gin.Context) {
	profile, apiErr := h.scheduleService.GetProfile(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ScheduleHandler) PutProfile(c *gin.Context) {
	var profile model.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		writeInvalidJSON(c)
		return
	}

	saved, apiErr := h.scheduleService.UpdateProfile(c.Request.Context(), middleware.UserID(c), profile)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(c, apperrors.BadRequest("invalid_limit", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	summaries, apiErr := h.scheduleService.ListSchedules(c.Request.Context(), middleware.UserID(c), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": summaries})
}

func (h *ScheduleHandler) ExportCalendar(c *gin.Context) {
	doc, apiErr := h.scheduleService.ExportCalendar(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="cogscheduler.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(doc))
}
