package service

import (
	"context"
	"errors"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JabridDave10/distributed-systems-project-backend/config"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/repository"
)

// ── 医生配置模块业务错误 ──

var (
	ErrInvalidDuration    = errors.New("预约时长必须大于 0")
	ErrInvalidBreak       = errors.New("预约间隔不能为负数")
	ErrInvalidAdvanceDays = errors.New("可提前预约天数必须大于 0")
)

// SettingsService 医生预约配置业务接口
type SettingsService interface {
	// GetOrCreate 不存在时按默认值创建
	GetOrCreate(ctx context.Context, doctorID string) (*dto.SettingsResponse, error)
	// Update 仅修改请求中提供的字段；配置不存在时先创建再修改
	Update(ctx context.Context, doctorID string, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
	// Load 供时段生成与预约使用，优先命中进程内缓存
	Load(ctx context.Context, doctorID string) (*model.DoctorSettings, error)
}

type settingsService struct {
	repo   *repository.Repository
	cache  *expirable.LRU[string, model.DoctorSettings]
	logger *zap.Logger
}

// NewSettingsService 创建 SettingsService 实例
func NewSettingsService(repo *repository.Repository, cfg *config.CacheConfig, logger *zap.Logger) SettingsService {
	s := &settingsService{repo: repo, logger: logger}
	if cfg != nil && cfg.SettingsSize > 0 {
		s.cache = expirable.NewLRU[string, model.DoctorSettings](cfg.SettingsSize, nil, cfg.SettingsTTL)
	}
	return s
}

// ────── Read ──────

func (s *settingsService) GetOrCreate(ctx context.Context, doctorID string) (*dto.SettingsResponse, error) {
	if _, err := lookupDoctor(ctx, s.repo, doctorID); err != nil {
		return nil, err
	}
	settings, err := s.Load(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	resp := toSettingsResponse(settings)
	return &resp, nil
}

// Load 读取配置（优先命中缓存），不存在时创建默认配置
// 返回值为副本，调用方修改不影响缓存
func (s *settingsService) Load(ctx context.Context, doctorID string) (*model.DoctorSettings, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(doctorID); ok {
			return &v, nil
		}
	}

	settings, err := s.getOrCreate(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add(doctorID, *settings)
	}
	return settings, nil
}

func (s *settingsService) getOrCreate(ctx context.Context, doctorID string) (*model.DoctorSettings, error) {
	settings, err := s.repo.Settings.GetByDoctorID(ctx, doctorID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询医生配置失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	}

	settings = model.NewDefaultSettings(doctorID)
	if err := s.repo.Settings.Create(ctx, settings); err != nil {
		// 并发首次读取：另一个请求已创建
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.repo.Settings.GetByDoctorID(ctx, doctorID)
		}
		s.logger.Error("创建默认医生配置失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("已创建默认医生配置", zap.String("doctor_id", doctorID))
	return settings, nil
}

// ────── Update ──────

func (s *settingsService) Update(ctx context.Context, doctorID string, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	if _, err := lookupDoctor(ctx, s.repo, doctorID); err != nil {
		return nil, err
	}

	settings, err := s.getOrCreate(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if req.AppointmentDuration != nil {
		if *req.AppointmentDuration <= 0 {
			return nil, ErrInvalidDuration
		}
		settings.AppointmentDuration = *req.AppointmentDuration
	}
	if req.BreakBetweenAppointments != nil {
		if *req.BreakBetweenAppointments < 0 {
			return nil, ErrInvalidBreak
		}
		settings.BreakBetweenAppointments = *req.BreakBetweenAppointments
	}
	if req.AdvanceBookingDays != nil {
		if *req.AdvanceBookingDays <= 0 {
			return nil, ErrInvalidAdvanceDays
		}
		settings.AdvanceBookingDays = *req.AdvanceBookingDays
	}
	if req.AllowWeekendAppointments != nil {
		settings.AllowWeekendAppointments = *req.AllowWeekendAppointments
	}

	if err := s.repo.Settings.Update(ctx, settings); err != nil {
		s.logger.Error("更新医生配置失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	}
	if s.cache != nil {
		s.cache.Remove(doctorID)
	}

	s.logger.Info("医生配置已更新",
		zap.String("doctor_id", doctorID),
		zap.Int("duration", settings.AppointmentDuration),
		zap.Int("break", settings.BreakBetweenAppointments),
	)

	resp := toSettingsResponse(settings)
	return &resp, nil
}

func toSettingsResponse(m *model.DoctorSettings) dto.SettingsResponse {
	return dto.SettingsResponse{
		DoctorID:                 m.DoctorID,
		AppointmentDuration:      m.AppointmentDuration,
		BreakBetweenAppointments: m.BreakBetweenAppointments,
		AdvanceBookingDays:       m.AdvanceBookingDays,
		AllowWeekendAppointments: m.AllowWeekendAppointments,
		Version:                  m.Version,
		UpdatedAt:                formatTimestamp(m.UpdatedAt),
	}
}
