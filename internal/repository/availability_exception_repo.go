package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
)

// AvailabilityExceptionRepository 医生日期例外数据访问接口
type AvailabilityExceptionRepository interface {
	Create(ctx context.Context, exc *model.AvailabilityException) error
	GetByID(ctx context.Context, id string) (*model.AvailabilityException, error)
	// List 按日期升序返回，start/end 为 nil 时不限制（闭区间）
	List(ctx context.Context, doctorID string, start, end *time.Time) ([]model.AvailabilityException, error)
	ListByDate(ctx context.Context, doctorID string, date time.Time) ([]model.AvailabilityException, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type availabilityExceptionRepo struct {
	db *gorm.DB
}

// NewAvailabilityExceptionRepo 创建 AvailabilityExceptionRepository 实例
func NewAvailabilityExceptionRepo(db *gorm.DB) AvailabilityExceptionRepository {
	return &availabilityExceptionRepo{db: db}
}

func (r *availabilityExceptionRepo) Create(ctx context.Context, exc *model.AvailabilityException) error {
	return r.db.WithContext(ctx).Create(exc).Error
}

func (r *availabilityExceptionRepo) GetByID(ctx context.Context, id string) (*model.AvailabilityException, error) {
	if !isUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var exc model.AvailabilityException
	err := r.db.WithContext(ctx).
		Where("exception_id = ?", id).
		First(&exc).Error
	if err != nil {
		return nil, err
	}
	return &exc, nil
}

func (r *availabilityExceptionRepo) List(ctx context.Context, doctorID string, start, end *time.Time) ([]model.AvailabilityException, error) {
	if !isUUID(doctorID) {
		return []model.AvailabilityException{}, nil
	}
	var list []model.AvailabilityException
	db := r.db.WithContext(ctx).Where("doctor_id = ?", doctorID)

	if start != nil {
		db = db.Where("exception_date >= ?", start.Format(time.DateOnly))
	}
	if end != nil {
		db = db.Where("exception_date <= ?", end.Format(time.DateOnly))
	}

	err := db.Order("exception_date ASC, created_at ASC").Find(&list).Error
	return list, err
}

func (r *availabilityExceptionRepo) ListByDate(ctx context.Context, doctorID string, date time.Time) ([]model.AvailabilityException, error) {
	if !isUUID(doctorID) {
		return []model.AvailabilityException{}, nil
	}
	var list []model.AvailabilityException
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND exception_date = ?", doctorID, date.Format(time.DateOnly)).
		Order("created_at ASC, exception_id ASC").
		Find(&list).Error
	return list, err
}

func (r *availabilityExceptionRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	result := r.db.WithContext(ctx).
		Where("exception_id = ?", id).
		Delete(&model.AvailabilityException{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
