package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/service"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/response"
)

// ExceptionHandler 日期例外模块 HTTP 处理器
type ExceptionHandler struct {
	exceptionSvc service.ExceptionService
}

// NewExceptionHandler 创建 ExceptionHandler
func NewExceptionHandler(exceptionSvc service.ExceptionService) *ExceptionHandler {
	return &ExceptionHandler{exceptionSvc: exceptionSvc}
}

// CreateException 新增日期例外
// POST /api/v1/schedules/doctor/:doctor_id/exceptions
func (h *ExceptionHandler) CreateException(c *gin.Context) {
	doctorID := c.Param("doctor_id")
	if !mustManageDoctor(c, doctorID) {
		return
	}

	var req dto.CreateExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 14001, "参数校验失败", err.Error())
		return
	}

	exc, err := h.exceptionSvc.CreateException(c.Request.Context(), doctorID, &req)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}

	response.Created(c, exc)
}

// ListExceptions 例外列表，可按 [start_date, end_date] 过滤
// GET /api/v1/schedules/doctor/:doctor_id/exceptions
func (h *ExceptionHandler) ListExceptions(c *gin.Context) {
	var q dto.ExceptionListRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}
	start, err := parseOptionalDate(q.StartDate)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}
	end, err := parseOptionalDate(q.EndDate)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}

	list, err := h.exceptionSvc.ListExceptions(c.Request.Context(), c.Param("doctor_id"), start, end)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// DeleteException 删除日期例外
// DELETE /api/v1/schedules/exceptions/:id
func (h *ExceptionHandler) DeleteException(c *gin.Context) {
	id := c.Param("id")

	exc, err := h.exceptionSvc.GetException(c.Request.Context(), id)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}
	if !mustManageDoctor(c, exc.DoctorID) {
		return
	}

	deleted, err := h.exceptionSvc.DeleteException(c.Request.Context(), id)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}
	if !deleted {
		response.NotFound(c, 14002, "例外不存在")
		return
	}

	response.OK(c, nil)
}

func (h *ExceptionHandler) handleExceptionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExceptionNotFound):
		response.NotFound(c, 14002, "例外不存在")
	case errors.Is(err, service.ErrExceptionConflict):
		response.Conflict(c, 14003, "该日期已存在例外")
	case errors.Is(err, service.ErrInvalidRange):
		response.BadRequest(c, 14004, "开始时间必须早于结束时间")
	case errors.Is(err, service.ErrInvalidExceptionType):
		response.BadRequest(c, 14005, "例外类型必须为 blocked 或 custom_hours")
	default:
		handleCommonError(c, err)
	}
}
