package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/repository"
)

// ── 排班模块业务错误 ──

var (
	ErrScheduleNotFound = errors.New("排班不存在")
	ErrInvalidRange     = errors.New("开始时间必须早于结束时间")
	ErrDuplicateDay     = errors.New("同一天只能有一条有效排班")
	ErrInvalidDayOfWeek = errors.New("day_of_week 必须在 0-6 之间")
)

// ScheduleService 医生周排班业务接口
type ScheduleService interface {
	// SetWeeklySchedule 覆盖医生的全部周排班
	SetWeeklySchedule(ctx context.Context, doctorID string, req *dto.SetWeeklyScheduleRequest) ([]dto.ScheduleResponse, error)
	// GetSchedule 有效排班，按星期升序
	GetSchedule(ctx context.Context, doctorID string) ([]dto.ScheduleResponse, error)
	GetEntry(ctx context.Context, id string) (*dto.ScheduleResponse, error)
	UpdateEntry(ctx context.Context, id string, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error)
	// DeleteEntry 不存在时返回 false
	DeleteEntry(ctx context.Context, id string) (bool, error)
}

type scheduleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, logger: logger}
}

// ────── SetWeeklySchedule ──────

func (s *scheduleService) SetWeeklySchedule(ctx context.Context, doctorID string, req *dto.SetWeeklyScheduleRequest) ([]dto.ScheduleResponse, error) {
	if _, err := lookupDoctor(ctx, s.repo, doctorID); err != nil {
		return nil, err
	}

	entries := make([]model.DoctorSchedule, 0, len(req.Schedules))
	activeDays := make(map[int]bool, len(req.Schedules))

	for _, item := range req.Schedules {
		if item.DayOfWeek == nil || *item.DayOfWeek < 0 || *item.DayOfWeek > 6 {
			return nil, ErrInvalidDayOfWeek
		}
		start, end, err := normalizeRange(item.StartTime, item.EndTime)
		if err != nil {
			return nil, err
		}

		active := true
		if item.IsActive != nil {
			active = *item.IsActive
		}
		if active {
			if activeDays[*item.DayOfWeek] {
				return nil, ErrDuplicateDay
			}
			activeDays[*item.DayOfWeek] = true
		}

		entries = append(entries, model.DoctorSchedule{
			DoctorID:  doctorID,
			DayOfWeek: *item.DayOfWeek,
			StartTime: start,
			EndTime:   end,
			IsActive:  active,
		})
	}

	if err := s.repo.Schedule.ReplaceByDoctor(ctx, doctorID, entries); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateDay
		}
		s.logger.Error("替换周排班失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("周排班已更新",
		zap.String("doctor_id", doctorID),
		zap.Int("entries", len(entries)),
	)

	list := make([]dto.ScheduleResponse, 0, len(entries))
	for i := range entries {
		list = append(list, toScheduleResponse(&entries[i]))
	}
	return list, nil
}

// ────── Read ──────

func (s *scheduleService) GetSchedule(ctx context.Context, doctorID string) ([]dto.ScheduleResponse, error) {
	entries, err := s.repo.Schedule.ListActiveByDoctor(ctx, doctorID)
	if err != nil {
		s.logger.Error("查询周排班失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.ScheduleResponse, 0, len(entries))
	for i := range entries {
		list = append(list, toScheduleResponse(&entries[i]))
	}
	return list, nil
}

func (s *scheduleService) GetEntry(ctx context.Context, id string) (*dto.ScheduleResponse, error) {
	entry, err := s.getEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toScheduleResponse(entry)
	return &resp, nil
}

// ────── Update ──────

func (s *scheduleService) UpdateEntry(ctx context.Context, id string, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error) {
	entry, err := s.getEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DayOfWeek != nil {
		if *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
			return nil, ErrInvalidDayOfWeek
		}
		entry.DayOfWeek = *req.DayOfWeek
	}
	startStr, endStr := entry.StartTime, entry.EndTime
	if req.StartTime != nil {
		startStr = *req.StartTime
	}
	if req.EndTime != nil {
		endStr = *req.EndTime
	}
	if entry.StartTime, entry.EndTime, err = normalizeRange(startStr, endStr); err != nil {
		return nil, err
	}
	if req.IsActive != nil {
		entry.IsActive = *req.IsActive
	}

	if err := s.repo.Schedule.Update(ctx, entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateDay
		}
		s.logger.Error("更新排班失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toScheduleResponse(entry)
	return &resp, nil
}

// ────── Delete ──────

func (s *scheduleService) DeleteEntry(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Schedule.Delete(ctx, id)
	if err != nil {
		s.logger.Error("删除排班失败", zap.String("id", id), zap.Error(err))
		return false, err
	}
	return deleted, nil
}

// ────── 内部方法 ──────

func (s *scheduleService) getEntry(ctx context.Context, id string) (*model.DoctorSchedule, error) {
	entry, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排班失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return entry, nil
}

// normalizeRange 校验格式与 start < end，返回规范化的 "HH:MM"
func normalizeRange(startStr, endStr string) (string, string, error) {
	start, err := parseClock(startStr)
	if err != nil {
		return "", "", err
	}
	end, err := parseClock(endStr)
	if err != nil {
		return "", "", err
	}
	if start >= end {
		return "", "", ErrInvalidRange
	}
	return formatClock(start), formatClock(end), nil
}

func toScheduleResponse(e *model.DoctorSchedule) dto.ScheduleResponse {
	return dto.ScheduleResponse{
		ID:        e.ScheduleID,
		DoctorID:  e.DoctorID,
		DayOfWeek: e.DayOfWeek,
		StartTime: displayClock(e.StartTime),
		EndTime:   displayClock(e.EndTime),
		IsActive:  e.IsActive,
		CreatedAt: formatTimestamp(e.CreatedAt),
		UpdatedAt: formatTimestamp(e.UpdatedAt),
	}
}
