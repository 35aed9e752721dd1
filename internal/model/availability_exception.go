package model

import "gorm.io/datatypes"

// 例外类型
const (
	ExceptionBlocked     = "blocked"      // 全天不可预约
	ExceptionCustomHours = "custom_hours" // 当天使用自定义工作时间
)

// AvailabilityException 医生日期例外表 对应 doctor_availability_exceptions
// blocked 时忽略起止时间；custom_hours 缺失的字段回退到周排班
type AvailabilityException struct {
	ExceptionID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"exception_id"`
	DoctorID      string         `gorm:"type:uuid;not null;index"                       json:"doctor_id"`
	ExceptionDate datatypes.Date `gorm:"not null"                                       json:"exception_date"`
	StartTime     *string        `gorm:"type:time"                                      json:"start_time,omitempty"`
	EndTime       *string        `gorm:"type:time"                                      json:"end_time,omitempty"`
	ExceptionType string         `gorm:"type:varchar(20);not null"                      json:"exception_type"`
	Reason        *string        `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	BaseModel
}

// TableName 指定表名
func (AvailabilityException) TableName() string { return "doctor_availability_exceptions" }
