package dto

// ── 医生配置模块 DTO ──

// UpdateSettingsRequest 部分更新医生配置（仅修改提供的字段）
type UpdateSettingsRequest struct {
	AppointmentDuration      *int  `json:"appointment_duration"       binding:"omitempty,min=1,max=480"`
	BreakBetweenAppointments *int  `json:"break_between_appointments" binding:"omitempty,min=0,max=240"`
	AdvanceBookingDays       *int  `json:"advance_booking_days"       binding:"omitempty,min=1,max=365"`
	AllowWeekendAppointments *bool `json:"allow_weekend_appointments"`
}

// SettingsResponse 医生配置响应
type SettingsResponse struct {
	DoctorID                 string `json:"doctor_id"`
	AppointmentDuration      int    `json:"appointment_duration"`
	BreakBetweenAppointments int    `json:"break_between_appointments"`
	AdvanceBookingDays       int    `json:"advance_booking_days"`
	AllowWeekendAppointments bool   `json:"allow_weekend_appointments"`
	Version                  int    `json:"version"`
	UpdatedAt                string `json:"updated_at"`
}
