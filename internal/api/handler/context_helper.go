package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/service"
	pkgerrors "github.com/JabridDave10/distributed-systems-project-backend/pkg/errors"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// mustGetCaller 同时提取 user_id 与 role
func mustGetCaller(c *gin.Context) (string, string, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return "", "", false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return "", "", false
	}
	return userID, role, true
}

// mustManageDoctor 仅管理员或医生本人可修改该医生的排班数据，否则写入 403
func mustManageDoctor(c *gin.Context, doctorID string) bool {
	userID, role, ok := mustGetCaller(c)
	if !ok {
		return false
	}
	if role == model.RoleAdmin || (role == model.RoleDoctor && userID == doctorID) {
		return true
	}
	response.Forbidden(c, 10003, "无权操作该医生的数据")
	return false
}

// parseOptionalDate 解析可选的日期查询参数，空串返回 nil
func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := service.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// handleCommonError 各模块共享的错误映射，未知错误返回 500
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDoctorNotFound):
		response.NotFound(c, 12001, "医生不存在")
	case errors.Is(err, service.ErrPatientNotFound):
		response.NotFound(c, 12002, "患者不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12003, "用户不存在")
	case errors.Is(err, pkgerrors.ErrInvalidTimeFormat):
		response.ErrorWithDetails(c, http.StatusBadRequest, 10006, "日期或时间格式无效", err.Error())
	case errors.Is(err, service.ErrInvalidDateRangeQuery):
		response.BadRequest(c, 10007, "开始日期不能晚于结束日期")
	default:
		response.InternalError(c)
	}
}
