package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
)

// DoctorScheduleRepository 医生周排班数据访问接口
type DoctorScheduleRepository interface {
	ReplaceByDoctor(ctx context.Context, doctorID string, entries []model.DoctorSchedule) error
	ListActiveByDoctor(ctx context.Context, doctorID string) ([]model.DoctorSchedule, error)
	GetActiveByDoctorAndDay(ctx context.Context, doctorID string, dayOfWeek int) (*model.DoctorSchedule, error)
	GetByID(ctx context.Context, id string) (*model.DoctorSchedule, error)
	Update(ctx context.Context, entry *model.DoctorSchedule) error
	Delete(ctx context.Context, id string) (bool, error)
}

type doctorScheduleRepo struct {
	db *gorm.DB
}

// NewDoctorScheduleRepo 创建 DoctorScheduleRepository 实例
func NewDoctorScheduleRepo(db *gorm.DB) DoctorScheduleRepository {
	return &doctorScheduleRepo{db: db}
}

func (r *doctorScheduleRepo) ReplaceByDoctor(ctx context.Context, doctorID string, entries []model.DoctorSchedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 整周替换：先硬删除该医生全部排班
		if err := tx.Where("doctor_id = ?", doctorID).
			Delete(&model.DoctorSchedule{}).Error; err != nil {
			return err
		}
		if len(entries) > 0 {
			if err := tx.Create(&entries).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *doctorScheduleRepo) ListActiveByDoctor(ctx context.Context, doctorID string) ([]model.DoctorSchedule, error) {
	if !isUUID(doctorID) {
		return []model.DoctorSchedule{}, nil
	}
	var entries []model.DoctorSchedule
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND is_active = ?", doctorID, true).
		Order("day_of_week ASC").
		Find(&entries).Error
	return entries, err
}

func (r *doctorScheduleRepo) GetActiveByDoctorAndDay(ctx context.Context, doctorID string, dayOfWeek int) (*model.DoctorSchedule, error) {
	if !isUUID(doctorID) {
		return nil, gorm.ErrRecordNotFound
	}
	var entry model.DoctorSchedule
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND day_of_week = ? AND is_active = ?", doctorID, dayOfWeek, true).
		Order("created_at ASC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *doctorScheduleRepo) GetByID(ctx context.Context, id string) (*model.DoctorSchedule, error) {
	if !isUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var entry model.DoctorSchedule
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *doctorScheduleRepo) Update(ctx context.Context, entry *model.DoctorSchedule) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *doctorScheduleRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	result := r.db.WithContext(ctx).
		Where("schedule_id = ?", id).
		Delete(&model.DoctorSchedule{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
