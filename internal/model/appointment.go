package model

import "time"

// 预约状态
const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// ConflictStatuses 会与新预约产生冲突的状态
var ConflictStatuses = []string{AppointmentScheduled, AppointmentConfirmed}

// Appointment 预约表 对应 appointments
// AppointmentDate 为系统时区下的墙上时间（Location 统一为 UTC，不表示真实 UTC 时刻）
type Appointment struct {
	AppointmentID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"appointment_id"`
	DoctorID        string    `gorm:"type:uuid;not null"                             json:"doctor_id"`
	PatientID       string    `gorm:"type:uuid;not null;index"                       json:"patient_id"`
	AppointmentDate time.Time `gorm:"type:timestamp;not null"                        json:"appointment_date"`
	Reason          *string   `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	Status          string    `gorm:"type:varchar(20);not null;default:'scheduled'"  json:"status"`
	SoftDeleteModel

	// 关联
	Doctor  *User `gorm:"foreignKey:DoctorID;references:UserID"  json:"doctor,omitempty"`
	Patient *User `gorm:"foreignKey:PatientID;references:UserID" json:"patient,omitempty"`
}

// TableName 指定表名
func (Appointment) TableName() string { return "appointments" }

// IsValidAppointmentStatus 校验状态取值
func IsValidAppointmentStatus(status string) bool {
	switch status {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}
