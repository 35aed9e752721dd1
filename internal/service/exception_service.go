package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/repository"
)

// ── 例外模块业务错误 ──

var (
	ErrExceptionNotFound     = errors.New("例外不存在")
	ErrExceptionConflict     = errors.New("该日期已存在例外")
	ErrInvalidExceptionType  = errors.New("例外类型必须为 blocked 或 custom_hours")
	ErrInvalidDateRangeQuery = errors.New("开始日期不能晚于结束日期")
)

// ExceptionService 医生日期例外业务接口
type ExceptionService interface {
	CreateException(ctx context.Context, doctorID string, req *dto.CreateExceptionRequest) (*dto.ExceptionResponse, error)
	// ListExceptions start/end 为 nil 时不限制（闭区间）
	ListExceptions(ctx context.Context, doctorID string, start, end *time.Time) ([]dto.ExceptionResponse, error)
	GetException(ctx context.Context, id string) (*dto.ExceptionResponse, error)
	// DeleteException 不存在时返回 false
	DeleteException(ctx context.Context, id string) (bool, error)
}

type exceptionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExceptionService 创建 ExceptionService 实例
func NewExceptionService(repo *repository.Repository, logger *zap.Logger) ExceptionService {
	return &exceptionService{repo: repo, logger: logger}
}

// ────── Create ──────

func (s *exceptionService) CreateException(ctx context.Context, doctorID string, req *dto.CreateExceptionRequest) (*dto.ExceptionResponse, error) {
	if _, err := lookupDoctor(ctx, s.repo, doctorID); err != nil {
		return nil, err
	}

	date, err := ParseDate(req.ExceptionDate)
	if err != nil {
		return nil, err
	}

	exc := &model.AvailabilityException{
		DoctorID:      doctorID,
		ExceptionDate: datatypes.Date(date),
		ExceptionType: req.ExceptionType,
		Reason:        req.Reason,
	}

	switch req.ExceptionType {
	case model.ExceptionBlocked:
		// 全天停诊，起止时间不保存
	case model.ExceptionCustomHours:
		if exc.StartTime, err = normalizeOptionalClock(req.StartTime); err != nil {
			return nil, err
		}
		if exc.EndTime, err = normalizeOptionalClock(req.EndTime); err != nil {
			return nil, err
		}
		if exc.StartTime != nil && exc.EndTime != nil && *exc.StartTime >= *exc.EndTime {
			return nil, ErrInvalidRange
		}
		if (exc.StartTime == nil) != (exc.EndTime == nil) {
			if err := s.checkPartialWindow(ctx, exc, date); err != nil {
				return nil, err
			}
		}
	default:
		return nil, ErrInvalidExceptionType
	}

	existing, err := s.repo.Exception.ListByDate(ctx, doctorID, date)
	if err != nil {
		s.logger.Error("查询当日例外失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrExceptionConflict
	}

	if err := s.repo.Exception.Create(ctx, exc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrExceptionConflict
		}
		s.logger.Error("创建例外失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("创建排班例外",
		zap.String("doctor_id", doctorID),
		zap.String("date", formatDate(date)),
		zap.String("type", exc.ExceptionType),
	)

	resp := toExceptionResponse(exc)
	return &resp, nil
}

// checkPartialWindow 只给出一端时间时，与当天周排班补全后的窗口必须非空
// 当天没有有效排班时不出诊，无需校验
func (s *exceptionService) checkPartialWindow(ctx context.Context, exc *model.AvailabilityException, date time.Time) error {
	base, err := s.repo.Schedule.GetActiveByDoctorAndDay(ctx, exc.DoctorID, DayOfWeek(date))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询周排班失败", zap.String("doctor_id", exc.DoctorID), zap.Error(err))
		return err
	}

	_, _, ok, err := effectiveWindow(SlotInput{Base: base, Exceptions: []model.AvailabilityException{*exc}})
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidRange
	}
	return nil
}

// ────── Read ──────

func (s *exceptionService) ListExceptions(ctx context.Context, doctorID string, start, end *time.Time) ([]dto.ExceptionResponse, error) {
	if start != nil && end != nil && start.After(*end) {
		return nil, ErrInvalidDateRangeQuery
	}

	list, err := s.repo.Exception.List(ctx, doctorID, start, end)
	if err != nil {
		s.logger.Error("查询例外列表失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ExceptionResponse, 0, len(list))
	for i := range list {
		result = append(result, toExceptionResponse(&list[i]))
	}
	return result, nil
}

func (s *exceptionService) GetException(ctx context.Context, id string) (*dto.ExceptionResponse, error) {
	exc, err := s.repo.Exception.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExceptionNotFound
		}
		s.logger.Error("查询例外失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toExceptionResponse(exc)
	return &resp, nil
}

// ────── Delete ──────

func (s *exceptionService) DeleteException(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Exception.Delete(ctx, id)
	if err != nil {
		s.logger.Error("删除例外失败", zap.String("id", id), zap.Error(err))
		return false, err
	}
	return deleted, nil
}

// ────── 内部方法 ──────

func normalizeOptionalClock(s *string) (*string, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	v, err := normalizeClock(*s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func toExceptionResponse(e *model.AvailabilityException) dto.ExceptionResponse {
	resp := dto.ExceptionResponse{
		ID:            e.ExceptionID,
		DoctorID:      e.DoctorID,
		ExceptionDate: formatDate(time.Time(e.ExceptionDate)),
		ExceptionType: e.ExceptionType,
		Reason:        e.Reason,
		CreatedAt:     formatTimestamp(e.CreatedAt),
	}
	if e.StartTime != nil {
		v := displayClock(*e.StartTime)
		resp.StartTime = &v
	}
	if e.EndTime != nil {
		v := displayClock(*e.EndTime)
		resp.EndTime = &v
	}
	return resp
}
