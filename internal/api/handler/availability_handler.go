package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/service"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/response"
)

// AvailabilityHandler 可预约时段 HTTP 处理器
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// GetAvailability 查询可预约时段
// GET /api/v1/schedules/doctor/:doctor_id/availability?date=2024-01-15
// GET /api/v1/schedules/doctor/:doctor_id/availability?start_date=...&end_date=...
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	doctorID := c.Param("doctor_id")

	var q dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 16001, "参数校验失败")
		return
	}

	switch {
	case q.Date != "":
		date, err := service.ParseDate(q.Date)
		if err != nil {
			h.handleAvailabilityError(c, err)
			return
		}
		slots, err := h.availabilitySvc.GetAvailableSlots(c.Request.Context(), doctorID, date)
		if err != nil {
			h.handleAvailabilityError(c, err)
			return
		}
		response.OK(c, dto.AvailableSlotsResponse{DoctorID: doctorID, Date: q.Date, Slots: slots})

	case q.StartDate != "" && q.EndDate != "":
		start, err := service.ParseDate(q.StartDate)
		if err != nil {
			h.handleAvailabilityError(c, err)
			return
		}
		end, err := service.ParseDate(q.EndDate)
		if err != nil {
			h.handleAvailabilityError(c, err)
			return
		}
		days, err := h.availabilitySvc.GetAvailabilityRange(c.Request.Context(), doctorID, start, end)
		if err != nil {
			h.handleAvailabilityError(c, err)
			return
		}
		response.OK(c, gin.H{"doctor_id": doctorID, "list": days})

	default:
		response.BadRequest(c, 16001, "需要 date 或 start_date 与 end_date")
	}
}

// CheckSlot 校验某时刻是否可预约
// GET /api/v1/schedules/doctor/:doctor_id/availability/check?datetime=2024-01-15T09:35:00
func (h *AvailabilityHandler) CheckSlot(c *gin.Context) {
	doctorID := c.Param("doctor_id")

	var q dto.CheckSlotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 16001, "参数校验失败")
		return
	}
	at, err := service.ParseDateTime(q.DateTime)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	available, err := h.availabilitySvc.IsSlotAvailable(c.Request.Context(), doctorID, at, q.DurationMinutes)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, dto.CheckSlotResponse{
		DoctorID:  doctorID,
		DateTime:  at.Format("2006-01-02T15:04:05"),
		Available: available,
	})
}

func (h *AvailabilityHandler) handleAvailabilityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAvailabilityRangeTooLarge):
		response.BadRequest(c, 16002, "查询区间过大")
	case errors.Is(err, service.ErrInvalidDuration):
		response.BadRequest(c, 16003, "预约时长必须大于 0")
	default:
		handleCommonError(c, err)
	}
}
