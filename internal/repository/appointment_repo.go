package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
)

// AppointmentRepository 预约数据访问接口
// 所有时间参数均为墙上时间（见 model.Appointment）
type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	Update(ctx context.Context, appt *model.Appointment) error
	SoftDelete(ctx context.Context, id string) (bool, error)

	// FindActiveByDoctorAndDateRange 返回 [start, end) 内未删除且未取消的预约，按时间升序
	FindActiveByDoctorAndDateRange(ctx context.Context, doctorID string, start, end time.Time) ([]model.Appointment, error)
	// ExistsConflict 是否存在指定状态、同一时刻的预约
	ExistsConflict(ctx context.Context, doctorID string, at time.Time, statuses []string) (bool, error)
	// LockDoctorDay 获取 (doctor_id, date) 事务级 advisory lock，须在事务连接上调用
	LockDoctorDay(ctx context.Context, doctorID string, date time.Time) error

	ListByDoctor(ctx context.Context, doctorID string, start, end *time.Time) ([]model.Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]model.Appointment, error)
}

type appointmentRepo struct {
	db *gorm.DB
}

// NewAppointmentRepo 创建 AppointmentRepository 实例
func NewAppointmentRepo(db *gorm.DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) Create(ctx context.Context, appt *model.Appointment) error {
	return r.db.WithContext(ctx).Create(appt).Error
}

func (r *appointmentRepo) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	if !isUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var appt model.Appointment
	err := r.db.WithContext(ctx).
		Preload("Doctor").
		Preload("Patient").
		Where("appointment_id = ?", id).
		First(&appt).Error
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepo) Update(ctx context.Context, appt *model.Appointment) error {
	return r.db.WithContext(ctx).
		Omit("Doctor", "Patient").
		Save(appt).Error
}

func (r *appointmentRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	result := r.db.WithContext(ctx).
		Where("appointment_id = ?", id).
		Delete(&model.Appointment{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *appointmentRepo) FindActiveByDoctorAndDateRange(ctx context.Context, doctorID string, start, end time.Time) ([]model.Appointment, error) {
	if !isUUID(doctorID) {
		return []model.Appointment{}, nil
	}
	var list []model.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND appointment_date >= ? AND appointment_date < ?", doctorID, start, end).
		Where("status <> ?", model.AppointmentCancelled).
		Order("appointment_date ASC").
		Find(&list).Error
	return list, err
}

func (r *appointmentRepo) ExistsConflict(ctx context.Context, doctorID string, at time.Time, statuses []string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND status IN ?", doctorID, at, statuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *appointmentRepo) LockDoctorDay(ctx context.Context, doctorID string, date time.Time) error {
	key := doctorID + ":" + date.Format(time.DateOnly)
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

func (r *appointmentRepo) ListByDoctor(ctx context.Context, doctorID string, start, end *time.Time) ([]model.Appointment, error) {
	if !isUUID(doctorID) {
		return []model.Appointment{}, nil
	}
	var list []model.Appointment
	db := r.db.WithContext(ctx).
		Preload("Patient").
		Where("doctor_id = ?", doctorID)

	if start != nil {
		db = db.Where("appointment_date >= ?", *start)
	}
	if end != nil {
		db = db.Where("appointment_date < ?", *end)
	}

	err := db.Order("appointment_date ASC").Find(&list).Error
	return list, err
}

func (r *appointmentRepo) ListByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	if !isUUID(patientID) {
		return []model.Appointment{}, nil
	}
	var list []model.Appointment
	err := r.db.WithContext(ctx).
		Preload("Doctor").
		Where("patient_id = ?", patientID).
		Order("appointment_date DESC").
		Find(&list).Error
	return list, err
}
