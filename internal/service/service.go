package service

import (
	"go.uber.org/zap"

	"github.com/JabridDave10/distributed-systems-project-backend/config"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/repository"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Schedule     ScheduleService
	Exception    ExceptionService
	Settings     SettingsService
	Availability AvailabilityService
	Appointment  AppointmentService
	Export       ExportService
}

// NewService 创建 Service 聚合
// blacklist 可为 nil（未连接 Redis）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	settings := NewSettingsService(repo, &cfg.Cache, logger)
	availability := NewAvailabilityService(repo, settings, &cfg.Booking, logger)

	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, blacklist, logger),
		User:         NewUserService(repo, logger),
		Schedule:     NewScheduleService(repo, logger),
		Exception:    NewExceptionService(repo, logger),
		Settings:     settings,
		Availability: availability,
		Appointment:  NewAppointmentService(repo, settings, &cfg.App, logger),
		Export:       NewExportService(repo, availability, cfg, logger),
	}
}
