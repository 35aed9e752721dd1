package dto

// ── 医生排班模块 DTO ──

// ScheduleEntryRequest 单日排班（day_of_week: 0=周日 … 6=周六）
type ScheduleEntryRequest struct {
	DayOfWeek *int   `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime string `json:"start_time"  binding:"required"` // "09:00"
	EndTime   string `json:"end_time"    binding:"required"` // "12:00"
	IsActive  *bool  `json:"is_active"`                      // 缺省为 true
}

// SetWeeklyScheduleRequest 整周排班提交（覆盖该医生全部排班）
type SetWeeklyScheduleRequest struct {
	Schedules []ScheduleEntryRequest `json:"schedules" binding:"dive"`
}

// UpdateScheduleRequest 单条排班部分更新
type UpdateScheduleRequest struct {
	DayOfWeek *int    `json:"day_of_week" binding:"omitempty,min=0,max=6"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	IsActive  *bool   `json:"is_active"`
}

// ScheduleResponse 排班信息响应
type ScheduleResponse struct {
	ID        string `json:"id"`
	DoctorID  string `json:"doctor_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
