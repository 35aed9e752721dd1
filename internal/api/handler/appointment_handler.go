package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/service"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/response"
)

// AppointmentHandler 预约模块 HTTP 处理器
type AppointmentHandler struct {
	appointmentSvc service.AppointmentService
}

// NewAppointmentHandler 创建 AppointmentHandler
func NewAppointmentHandler(appointmentSvc service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointmentSvc: appointmentSvc}
}

// Create 预约
// POST /api/v1/appointments
func (h *AppointmentHandler) Create(c *gin.Context) {
	userID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 17001, "参数校验失败", err.Error())
		return
	}
	// 医生只能为自己的门诊代约
	if role == model.RoleDoctor && req.DoctorID != userID {
		response.Forbidden(c, 10003, "无权为其他医生创建预约")
		return
	}

	appt, err := h.appointmentSvc.Create(c.Request.Context(), &req, userID, role)
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}

	response.Created(c, appt)
}

// GetByID 预约详情（本人、所属医生或管理员）
// GET /api/v1/appointments/:id
func (h *AppointmentHandler) GetByID(c *gin.Context) {
	appt, ok := h.loadVisible(c)
	if !ok {
		return
	}
	response.OK(c, appt)
}

// ListMine 我的预约：患者按患者查询，医生按医生查询
// GET /api/v1/appointments/me
func (h *AppointmentHandler) ListMine(c *gin.Context) {
	userID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var (
		list []dto.AppointmentResponse
		err  error
	)
	if role == model.RoleDoctor {
		list, err = h.appointmentSvc.ListByDoctor(c.Request.Context(), userID, nil, nil)
	} else {
		list, err = h.appointmentSvc.ListByPatient(c.Request.Context(), userID)
	}
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListByDoctor 医生的预约，可按 [start_date, end_date] 过滤
// GET /api/v1/appointments/doctor/:doctor_id
func (h *AppointmentHandler) ListByDoctor(c *gin.Context) {
	doctorID := c.Param("doctor_id")
	if !mustManageDoctor(c, doctorID) {
		return
	}

	var q dto.AppointmentListRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}
	start, err := parseOptionalDate(q.StartDate)
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}
	end, err := parseOptionalDate(q.EndDate)
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}
	if end != nil {
		// end_date 当天包含在内
		next := end.AddDate(0, 0, 1)
		end = &next
	}

	list, err := h.appointmentSvc.ListByDoctor(c.Request.Context(), doctorID, start, end)
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UpdateStatus 变更预约状态（所属医生或管理员）
// PUT /api/v1/appointments/:id/status
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 17001, "参数校验失败", err.Error())
		return
	}

	appt, ok := h.loadVisible(c)
	if !ok {
		return
	}
	if !mustManageDoctor(c, appt.DoctorID) {
		return
	}

	updated, err := h.appointmentSvc.UpdateStatus(c.Request.Context(), appt.ID, req.Status)
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}

	response.OK(c, updated)
}

// Cancel 取消预约（本人、所属医生或管理员）
// PUT /api/v1/appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	appt, ok := h.loadVisible(c)
	if !ok {
		return
	}

	cancelled, err := h.appointmentSvc.Cancel(c.Request.Context(), appt.ID)
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}

	response.OK(c, cancelled)
}

// Delete 软删除预约（管理员）
// DELETE /api/v1/appointments/:id
func (h *AppointmentHandler) Delete(c *gin.Context) {
	deleted, err := h.appointmentSvc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}
	if !deleted {
		response.NotFound(c, 17002, "预约不存在")
		return
	}

	response.OK(c, nil)
}

// loadVisible 读取预约并校验当前用户可见
func (h *AppointmentHandler) loadVisible(c *gin.Context) (*dto.AppointmentResponse, bool) {
	userID, role, ok := mustGetCaller(c)
	if !ok {
		return nil, false
	}

	appt, err := h.appointmentSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleAppointmentError(c, err)
		return nil, false
	}

	switch {
	case role == model.RoleAdmin,
		role == model.RoleDoctor && appt.DoctorID == userID,
		role == model.RolePatient && appt.PatientID == userID:
		return appt, true
	}
	// 不暴露他人预约是否存在
	response.NotFound(c, 17002, "预约不存在")
	return nil, false
}

func (h *AppointmentHandler) handleAppointmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAppointmentNotFound):
		response.NotFound(c, 17002, "预约不存在")
	case errors.Is(err, service.ErrAppointmentConflict):
		response.Conflict(c, 17003, "该时间已被预约")
	case errors.Is(err, service.ErrSlotUnavailable):
		response.Conflict(c, 17004, "所选时间不在可预约时段内")
	case errors.Is(err, service.ErrBookingInPast):
		response.BadRequest(c, 17005, "不能预约过去的时间")
	case errors.Is(err, service.ErrBeyondAdvanceWindow):
		response.BadRequest(c, 17006, "超出可提前预约的天数")
	case errors.Is(err, service.ErrWeekendNotAllowed):
		response.BadRequest(c, 17007, "该医生不接受周末预约")
	case errors.Is(err, service.ErrPatientRequired):
		response.BadRequest(c, 17008, "代约时必须指定患者")
	case errors.Is(err, service.ErrCannotBookForOthers):
		response.Forbidden(c, 17009, "患者只能为本人预约")
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, 17010, "无效的预约状态")
	case errors.Is(err, service.ErrInvalidStatusTransition):
		response.Conflict(c, 17011, "当前状态不允许变更为目标状态")
	default:
		handleCommonError(c, err)
	}
}
