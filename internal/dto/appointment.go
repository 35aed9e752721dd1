package dto

// ── 预约模块 DTO ──

// CreateAppointmentRequest 创建预约请求
// patient_id 仅管理员代约时填写，患者本人预约时取当前登录用户
type CreateAppointmentRequest struct {
	DoctorID        string  `json:"doctor_id"        binding:"required,uuid"`
	PatientID       *string `json:"patient_id"       binding:"omitempty,uuid"`
	AppointmentDate string  `json:"appointment_date" binding:"required"` // "2024-01-15T09:35:00"
	Reason          *string `json:"reason"           binding:"omitempty,max=500"`
}

// UpdateAppointmentStatusRequest 更新预约状态请求
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=scheduled confirmed completed cancelled"`
}

// AppointmentListRequest 医生预约列表查询参数
type AppointmentListRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// AppointmentResponse 预约信息响应
type AppointmentResponse struct {
	ID              string     `json:"id"`
	DoctorID        string     `json:"doctor_id"`
	PatientID       string     `json:"patient_id"`
	Doctor          *UserBrief `json:"doctor,omitempty"`
	Patient         *UserBrief `json:"patient,omitempty"`
	AppointmentDate string     `json:"appointment_date"`
	Reason          *string    `json:"reason,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       string     `json:"created_at"`
}

// ExportQuery 导出查询参数
type ExportQuery struct {
	StartDate string `form:"start_date" binding:"required"`
	EndDate   string `form:"end_date"   binding:"required"`
}
