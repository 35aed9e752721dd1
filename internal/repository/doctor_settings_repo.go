package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	pkgerrors "github.com/JabridDave10/distributed-systems-project-backend/pkg/errors"
)

// DoctorSettingsRepository 医生预约配置数据访问接口
type DoctorSettingsRepository interface {
	GetByDoctorID(ctx context.Context, doctorID string) (*model.DoctorSettings, error)
	Create(ctx context.Context, settings *model.DoctorSettings) error
	// Update 按 version 乐观锁更新，冲突时返回 pkgerrors.ErrOptimisticLock
	// 成功后回写 Version 与 UpdatedAt
	Update(ctx context.Context, settings *model.DoctorSettings) error
}

type doctorSettingsRepo struct {
	db *gorm.DB
}

// NewDoctorSettingsRepo 创建 DoctorSettingsRepository 实例
func NewDoctorSettingsRepo(db *gorm.DB) DoctorSettingsRepository {
	return &doctorSettingsRepo{db: db}
}

func (r *doctorSettingsRepo) GetByDoctorID(ctx context.Context, doctorID string) (*model.DoctorSettings, error) {
	if !isUUID(doctorID) {
		return nil, gorm.ErrRecordNotFound
	}
	var settings model.DoctorSettings
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *doctorSettingsRepo) Create(ctx context.Context, settings *model.DoctorSettings) error {
	return r.db.WithContext(ctx).Create(settings).Error
}

func (r *doctorSettingsRepo) Update(ctx context.Context, settings *model.DoctorSettings) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.DoctorSettings{}).
		Where("settings_id = ? AND version = ?", settings.SettingsID, settings.Version).
		Updates(map[string]interface{}{
			"appointment_duration":       settings.AppointmentDuration,
			"break_between_appointments": settings.BreakBetweenAppointments,
			"advance_booking_days":       settings.AdvanceBookingDays,
			"allow_weekend_appointments": settings.AllowWeekendAppointments,
			"version":                    gorm.Expr("version + 1"),
			"updated_at":                 now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	settings.Version++
	settings.UpdatedAt = now
	return nil
}
