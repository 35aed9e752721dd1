package dto

// ── 排班例外模块 DTO ──

// CreateExceptionRequest 创建日期例外请求
type CreateExceptionRequest struct {
	ExceptionDate string  `json:"exception_date" binding:"required"` // "2024-01-15"
	ExceptionType string  `json:"exception_type" binding:"required,oneof=blocked custom_hours"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	Reason        *string `json:"reason"         binding:"omitempty,max=500"`
}

// ExceptionListRequest 例外列表查询参数（闭区间）
type ExceptionListRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// ExceptionResponse 例外信息响应
type ExceptionResponse struct {
	ID            string  `json:"id"`
	DoctorID      string  `json:"doctor_id"`
	ExceptionDate string  `json:"exception_date"`
	ExceptionType string  `json:"exception_type"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	Reason        *string `json:"reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
}
