package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/service"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/response"
)

// ScheduleHandler 周排班模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// SetWeeklySchedule 覆盖医生整周排班
// POST /api/v1/schedules/doctor/:doctor_id
func (h *ScheduleHandler) SetWeeklySchedule(c *gin.Context) {
	doctorID := c.Param("doctor_id")
	if !mustManageDoctor(c, doctorID) {
		return
	}

	var req dto.SetWeeklyScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 13001, "参数校验失败", err.Error())
		return
	}

	list, err := h.scheduleSvc.SetWeeklySchedule(c.Request.Context(), doctorID, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetSchedule 医生的有效周排班
// GET /api/v1/schedules/doctor/:doctor_id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	list, err := h.scheduleSvc.GetSchedule(c.Request.Context(), c.Param("doctor_id"))
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UpdateEntry 修改单条排班
// PUT /api/v1/schedules/schedule/:id
func (h *ScheduleHandler) UpdateEntry(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 13001, "参数校验失败", err.Error())
		return
	}

	entry, err := h.scheduleSvc.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	if !mustManageDoctor(c, entry.DoctorID) {
		return
	}

	updated, err := h.scheduleSvc.UpdateEntry(c.Request.Context(), id, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, updated)
}

// DeleteEntry 删除单条排班
// DELETE /api/v1/schedules/schedule/:id
func (h *ScheduleHandler) DeleteEntry(c *gin.Context) {
	id := c.Param("id")

	entry, err := h.scheduleSvc.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	if !mustManageDoctor(c, entry.DoctorID) {
		return
	}

	deleted, err := h.scheduleSvc.DeleteEntry(c.Request.Context(), id)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	if !deleted {
		response.NotFound(c, 13002, "排班不存在")
		return
	}

	response.OK(c, nil)
}

func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 13002, "排班不存在")
	case errors.Is(err, service.ErrInvalidRange):
		response.BadRequest(c, 13003, "开始时间必须早于结束时间")
	case errors.Is(err, service.ErrDuplicateDay):
		response.Conflict(c, 13004, "同一天只能有一条有效排班")
	case errors.Is(err, service.ErrInvalidDayOfWeek):
		response.BadRequest(c, 13005, "day_of_week 必须在 0-6 之间")
	default:
		handleCommonError(c, err)
	}
}
