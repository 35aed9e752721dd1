package model

// DoctorSchedule 医生周排班表 对应 doctor_schedules
// DayOfWeek 取值 0-6，0 表示周日；只做硬删除
type DoctorSchedule struct {
	ScheduleID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	DoctorID   string `gorm:"type:uuid;not null;index"                       json:"doctor_id"`
	DayOfWeek  int    `gorm:"type:smallint;not null"                         json:"day_of_week"`
	StartTime  string `gorm:"type:time;not null"                             json:"start_time"`
	EndTime    string `gorm:"type:time;not null"                             json:"end_time"`
	IsActive   bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (DoctorSchedule) TableName() string { return "doctor_schedules" }
