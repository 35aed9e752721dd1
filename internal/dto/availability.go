package dto

// ── 可预约时段 DTO ──

// TimeSlot 生成的可预约时段（不落库）
type TimeSlot struct {
	StartTime   string `json:"start_time"` // "09:00"
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

// AvailableSlotsResponse 单日可预约时段
type AvailableSlotsResponse struct {
	DoctorID string     `json:"doctor_id"`
	Date     string     `json:"date"`
	Slots    []TimeSlot `json:"slots"`
}

// DayAvailability 多日查询中的单日结果
type DayAvailability struct {
	Date         string     `json:"date"`
	DayOfWeek    int        `json:"day_of_week"`
	IsWorkingDay bool       `json:"is_working_day"`
	Slots        []TimeSlot `json:"slots"`
}

// AvailabilityQuery 可预约时段查询参数
// 提供 date 查单日；提供 start_date + end_date 查区间
type AvailabilityQuery struct {
	Date      string `form:"date"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// CheckSlotQuery 时段校验查询参数
type CheckSlotQuery struct {
	DateTime        string `form:"datetime"         binding:"required"` // "2024-01-15T09:35:00"
	DurationMinutes *int   `form:"duration_minutes" binding:"omitempty,min=1,max=480"`
}

// CheckSlotResponse 时段校验结果
type CheckSlotResponse struct {
	DoctorID  string `json:"doctor_id"`
	DateTime  string `json:"datetime"`
	Available bool   `json:"available"`
}
