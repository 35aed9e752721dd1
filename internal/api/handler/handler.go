package handler

import "github.com/JabridDave10/distributed-systems-project-backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Schedule     *ScheduleHandler
	Exception    *ExceptionHandler
	Settings     *SettingsHandler
	Availability *AvailabilityHandler
	Appointment  *AppointmentHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Schedule:     NewScheduleHandler(svc.Schedule),
		Exception:    NewExceptionHandler(svc.Exception),
		Settings:     NewSettingsHandler(svc.Settings),
		Availability: NewAvailabilityHandler(svc.Availability),
		Appointment:  NewAppointmentHandler(svc.Appointment),
		Export:       NewExportHandler(svc.Export),
	}
}
