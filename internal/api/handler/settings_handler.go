package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/service"
	pkgerrors "github.com/JabridDave10/distributed-systems-project-backend/pkg/errors"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/response"
)

// SettingsHandler 医生预约配置 HTTP 处理器
type SettingsHandler struct {
	settingsSvc service.SettingsService
}

// NewSettingsHandler 创建 SettingsHandler
func NewSettingsHandler(settingsSvc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsSvc: settingsSvc}
}

// GetSettings 读取配置，不存在时按默认值创建
// GET /api/v1/schedules/doctor/:doctor_id/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsSvc.GetOrCreate(c.Request.Context(), c.Param("doctor_id"))
	if err != nil {
		h.handleSettingsError(c, err)
		return
	}

	response.OK(c, settings)
}

// UpdateSettings 部分更新配置
// PUT /api/v1/schedules/doctor/:doctor_id/settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	doctorID := c.Param("doctor_id")
	if !mustManageDoctor(c, doctorID) {
		return
	}

	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 15001, "参数校验失败", err.Error())
		return
	}

	settings, err := h.settingsSvc.Update(c.Request.Context(), doctorID, &req)
	if err != nil {
		h.handleSettingsError(c, err)
		return
	}

	response.OK(c, settings)
}

func (h *SettingsHandler) handleSettingsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrInvalidBreak),
		errors.Is(err, service.ErrInvalidAdvanceDays):
		response.BadRequest(c, 15002, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 15003, "配置已被其他请求修改，请重试")
	default:
		handleCommonError(c, err)
	}
}
