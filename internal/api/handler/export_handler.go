package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/service"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAppointments 导出医生预约明细
// GET /api/v1/export/doctor/:doctor_id/appointments.xlsx?start_date=...&end_date=...
func (h *ExportHandler) ExportAppointments(c *gin.Context) {
	doctorID := c.Param("doctor_id")
	if !mustManageDoctor(c, doctorID) {
		return
	}

	start, end, ok := h.bindRange(c)
	if !ok {
		return
	}
	buf, filename, err := h.exportSvc.ExportAppointments(c.Request.Context(), doctorID, start, end)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeAttachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportAvailability 导出可预约时段日历
// GET /api/v1/export/doctor/:doctor_id/availability.ics?start_date=...&end_date=...
func (h *ExportHandler) ExportAvailability(c *gin.Context) {
	start, end, ok := h.bindRange(c)
	if !ok {
		return
	}
	buf, filename, err := h.exportSvc.ExportAvailability(c.Request.Context(), c.Param("doctor_id"), start, end)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeAttachment(c, filename, contentTypeICS, buf.Bytes())
}

func (h *ExportHandler) bindRange(c *gin.Context) (start, end time.Time, ok bool) {
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 18001, "start_date 与 end_date 不能为空")
		return start, end, false
	}
	var err error
	if start, err = service.ParseDate(q.StartDate); err != nil {
		h.handleExportError(c, err)
		return start, end, false
	}
	if end, err = service.ParseDate(q.EndDate); err != nil {
		h.handleExportError(c, err)
		return start, end, false
	}
	return start, end, true
}

// writeAttachment 设置下载响应头并写入文件内容
func writeAttachment(c *gin.Context, filename, contentType string, data []byte) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportRangeTooLarge):
		response.BadRequest(c, 18002, "导出区间超过允许的最大天数")
	case errors.Is(err, service.ErrAvailabilityRangeTooLarge):
		response.BadRequest(c, 18002, "导出区间超过允许的最大天数")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleCommonError(c, err)
	}
}
