package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JabridDave10/distributed-systems-project-backend/config"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/repository"
)

// defaultMaxRangeDays 未配置 booking.max_export_days 时区间查询的默认天数上限
const defaultMaxRangeDays = 31

var ErrAvailabilityRangeTooLarge = errors.New("查询区间过大")

// AvailabilityService 可预约时段业务接口
type AvailabilityService interface {
	// GetAvailableSlots 某天的可预约时段，不出诊时返回空列表
	GetAvailableSlots(ctx context.Context, doctorID string, date time.Time) ([]dto.TimeSlot, error)
	// GetAvailabilityRange [start, end] 每天的可预约时段
	GetAvailabilityRange(ctx context.Context, doctorID string, start, end time.Time) ([]dto.DayAvailability, error)
	// IsSlotAvailable at 必须与某个时段起点完全一致，且 at+时长 不超过该时段终点
	IsSlotAvailable(ctx context.Context, doctorID string, at time.Time, durationMinutes *int) (bool, error)
}

type availabilityService struct {
	repo         *repository.Repository
	settings     SettingsService
	maxRangeDays int
	logger       *zap.Logger
}

// NewAvailabilityService 创建 AvailabilityService 实例
// 区间查询上限取 cfg.MaxExportDays，cfg 为 nil 或未配置时使用默认值
func NewAvailabilityService(repo *repository.Repository, settings SettingsService, cfg *config.BookingConfig, logger *zap.Logger) AvailabilityService {
	return newAvailabilityService(repo, settings, cfg, logger)
}

func newAvailabilityService(repo *repository.Repository, settings SettingsService, cfg *config.BookingConfig, logger *zap.Logger) *availabilityService {
	s := &availabilityService{repo: repo, settings: settings, maxRangeDays: defaultMaxRangeDays, logger: logger}
	if cfg != nil && cfg.MaxExportDays > 0 {
		s.maxRangeDays = cfg.MaxExportDays
	}
	return s
}

// ────── Slots ──────

func (s *availabilityService) GetAvailableSlots(ctx context.Context, doctorID string, date time.Time) ([]dto.TimeSlot, error) {
	if _, err := lookupDoctor(ctx, s.repo, doctorID); err != nil {
		return nil, err
	}
	settings, err := s.settings.Load(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	slots, _, err := s.slotsForDate(ctx, s.repo, doctorID, date, settings)
	if err != nil {
		return nil, err
	}
	return toTimeSlots(slots), nil
}

func (s *availabilityService) GetAvailabilityRange(ctx context.Context, doctorID string, start, end time.Time) ([]dto.DayAvailability, error) {
	start, end = startOfDay(start), startOfDay(end)
	if start.After(end) {
		return nil, ErrInvalidDateRangeQuery
	}
	if int(end.Sub(start).Hours()/24)+1 > s.maxRangeDays {
		return nil, ErrAvailabilityRangeTooLarge
	}

	if _, err := lookupDoctor(ctx, s.repo, doctorID); err != nil {
		return nil, err
	}
	settings, err := s.settings.Load(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	days := make([]dto.DayAvailability, 0)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		slots, working, err := s.slotsForDate(ctx, s.repo, doctorID, day, settings)
		if err != nil {
			return nil, err
		}
		days = append(days, dto.DayAvailability{
			Date:         formatDate(day),
			DayOfWeek:    DayOfWeek(day),
			IsWorkingDay: working,
			Slots:        toTimeSlots(slots),
		})
	}
	return days, nil
}

// ────── Validate ──────

func (s *availabilityService) IsSlotAvailable(ctx context.Context, doctorID string, at time.Time, durationMinutes *int) (bool, error) {
	if _, err := lookupDoctor(ctx, s.repo, doctorID); err != nil {
		return false, err
	}
	settings, err := s.settings.Load(ctx, doctorID)
	if err != nil {
		return false, err
	}
	return s.checkSlot(ctx, s.repo, doctorID, at, durationMinutes, settings)
}

// checkSlot 校验 at 是否为可预约时段起点；repo 可为事务连接
func (s *availabilityService) checkSlot(ctx context.Context, repo *repository.Repository, doctorID string, at time.Time, durationMinutes *int, settings *model.DoctorSettings) (bool, error) {
	target := naive(at)

	duration := settings.AppointmentDuration
	if durationMinutes != nil {
		duration = *durationMinutes
	}
	if duration <= 0 {
		return false, ErrInvalidDuration
	}

	slots, _, err := s.slotsForDate(ctx, repo, doctorID, target, settings)
	if err != nil {
		return false, err
	}

	for _, slot := range slots {
		if !slot.Start.Equal(target) {
			continue
		}
		return !target.Add(time.Duration(duration) * time.Minute).After(slot.End), nil
	}
	return false, nil
}

// slotsForDate 读取当天排班、例外、预约后生成时段
// working 表示当天是否出诊（有有效排班且未被 blocked）
func (s *availabilityService) slotsForDate(ctx context.Context, repo *repository.Repository, doctorID string, date time.Time, settings *model.DoctorSettings) (slots []Slot, working bool, err error) {
	day := startOfDay(date)

	base, err := repo.Schedule.GetActiveByDoctorAndDay(ctx, doctorID, DayOfWeek(day))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []Slot{}, false, nil
		}
		s.logger.Error("查询周排班失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, false, err
	}

	exceptions, err := repo.Exception.ListByDate(ctx, doctorID, day)
	if err != nil {
		s.logger.Error("查询当日例外失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, false, err
	}

	in := SlotInput{Base: base, Exceptions: exceptions, Settings: settings}
	_, _, working, err = effectiveWindow(in)
	if err != nil {
		s.logger.Error("解析工作时间失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, false, err
	}
	if !working {
		return []Slot{}, false, nil
	}

	in.Appointments, err = repo.Appointment.FindActiveByDoctorAndDateRange(ctx, doctorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Error("查询当日预约失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, false, err
	}

	slots, err = GenerateSlots(day, in)
	if err != nil {
		s.logger.Error("生成可预约时段失败",
			zap.String("doctor_id", doctorID),
			zap.String("date", formatDate(day)),
			zap.Error(err),
		)
		return nil, false, err
	}
	return slots, true, nil
}

func toTimeSlots(slots []Slot) []dto.TimeSlot {
	list := make([]dto.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		list = append(list, dto.TimeSlot{
			StartTime:   slot.Start.Format(clockLayout),
			EndTime:     slot.End.Format(clockLayout),
			IsAvailable: true,
		})
	}
	return list
}
