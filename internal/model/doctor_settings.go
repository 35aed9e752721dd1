package model

// 医生配置默认值
const (
	DefaultAppointmentDuration      = 30
	DefaultBreakBetweenAppointments = 5
	DefaultAdvanceBookingDays       = 30
	DefaultAllowWeekend             = false
)

// DoctorSettings 医生预约配置表 对应 doctor_settings（每位医生一行）
// 时长单位均为分钟
type DoctorSettings struct {
	SettingsID               string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"settings_id"`
	DoctorID                 string `gorm:"type:uuid;not null;uniqueIndex"                 json:"doctor_id"`
	AppointmentDuration      int    `gorm:"not null;default:30"                            json:"appointment_duration"`
	BreakBetweenAppointments int    `gorm:"not null;default:5"                             json:"break_between_appointments"`
	AdvanceBookingDays       int    `gorm:"not null;default:30"                            json:"advance_booking_days"`
	AllowWeekendAppointments bool   `gorm:"not null;default:false"                         json:"allow_weekend_appointments"`
	VersionedModel
}

// TableName 指定表名
func (DoctorSettings) TableName() string { return "doctor_settings" }

// NewDefaultSettings 构造带默认值的医生配置
func NewDefaultSettings(doctorID string) *DoctorSettings {
	return &DoctorSettings{
		DoctorID:                 doctorID,
		AppointmentDuration:      DefaultAppointmentDuration,
		BreakBetweenAppointments: DefaultBreakBetweenAppointments,
		AdvanceBookingDays:       DefaultAdvanceBookingDays,
		AllowWeekendAppointments: DefaultAllowWeekend,
	}
}
