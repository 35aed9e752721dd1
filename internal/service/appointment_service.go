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

// ── 预约模块业务错误 ──

var (
	ErrAppointmentNotFound     = errors.New("预约不存在")
	ErrAppointmentConflict     = errors.New("该时间已被预约")
	ErrSlotUnavailable         = errors.New("所选时间不在可预约时段内")
	ErrBookingInPast           = errors.New("不能预约过去的时间")
	ErrBeyondAdvanceWindow     = errors.New("超出可提前预约的天数")
	ErrWeekendNotAllowed       = errors.New("该医生不接受周末预约")
	ErrPatientRequired         = errors.New("代约时必须指定患者")
	ErrCannotBookForOthers     = errors.New("患者只能为本人预约")
	ErrInvalidStatus           = errors.New("无效的预约状态")
	ErrInvalidStatusTransition = errors.New("当前状态不允许变更为目标状态")
)

// AppointmentService 预约业务接口
type AppointmentService interface {
	// Create 在事务内加锁后校验时段并写入
	Create(ctx context.Context, req *dto.CreateAppointmentRequest, callerID, callerRole string) (*dto.AppointmentResponse, error)
	GetByID(ctx context.Context, id string) (*dto.AppointmentResponse, error)
	ListByPatient(ctx context.Context, patientID string) ([]dto.AppointmentResponse, error)
	// ListByDoctor start/end 为 nil 时不限制，区间为 [start, end)
	ListByDoctor(ctx context.Context, doctorID string, start, end *time.Time) ([]dto.AppointmentResponse, error)
	UpdateStatus(ctx context.Context, id, status string) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, id string) (*dto.AppointmentResponse, error)
	// Delete 软删除，不存在时返回 false
	Delete(ctx context.Context, id string) (bool, error)
}

type appointmentService struct {
	repo         *repository.Repository
	availability *availabilityService
	settings     SettingsService
	loc          *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

// NewAppointmentService 创建 AppointmentService 实例
func NewAppointmentService(
	repo *repository.Repository,
	settings SettingsService,
	appCfg *config.AppConfig,
	logger *zap.Logger,
) AppointmentService {
	return newAppointmentService(repo, settings, appCfg, logger)
}

func newAppointmentService(repo *repository.Repository, settings SettingsService, appCfg *config.AppConfig, logger *zap.Logger) *appointmentService {
	loc := time.UTC
	if appCfg != nil {
		loc = appCfg.Location()
	}
	return &appointmentService{
		repo:         repo,
		availability: newAvailabilityService(repo, settings, nil, logger),
		settings:     settings,
		loc:          loc,
		now:          time.Now,
		logger:       logger,
	}
}

// ────── Create ──────

func (s *appointmentService) Create(ctx context.Context, req *dto.CreateAppointmentRequest, callerID, callerRole string) (*dto.AppointmentResponse, error) {
	// 1. 确定患者
	patientID, err := resolvePatient(req.PatientID, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	at, err := ParseDateTime(req.AppointmentDate)
	if err != nil {
		return nil, err
	}

	// 2. 校验医生、患者
	if _, err := lookupDoctor(ctx, s.repo, req.DoctorID); err != nil {
		return nil, err
	}
	if _, err := lookupUserWithRole(ctx, s.repo, patientID, model.RolePatient, ErrPatientNotFound); err != nil {
		return nil, err
	}

	// 3. 预约策略（缓存预检，事务内以数据库为准复核）
	settings, err := s.settings.Load(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	now := naive(s.now().In(s.loc))
	if err := checkBookingPolicy(settings, at, now); err != nil {
		return nil, err
	}

	// 4. 事务内加锁 → 校验时段 → 冲突检查 → 写入
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()
	rollback := func() {
		if tx != nil {
			tx.Rollback()
		}
	}

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Appointment.LockDoctorDay(ctx, req.DoctorID, at); err != nil {
		rollback()
		s.logger.Error("获取预约锁失败", zap.String("doctor_id", req.DoctorID), zap.Error(err))
		return nil, err
	}

	// 进程内缓存可能落后于其他实例的修改，加锁后重新读取配置
	fresh, err := txRepo.Settings.GetByDoctorID(ctx, req.DoctorID)
	switch {
	case err == nil:
		settings = fresh
		if err := checkBookingPolicy(settings, at, now); err != nil {
			rollback()
			return nil, err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		rollback()
		s.logger.Error("查询医生配置失败", zap.String("doctor_id", req.DoctorID), zap.Error(err))
		return nil, err
	}

	available, err := s.availability.checkSlot(ctx, txRepo, req.DoctorID, at, nil, settings)
	if err != nil {
		rollback()
		return nil, err
	}
	if !available {
		rollback()
		return nil, ErrSlotUnavailable
	}

	conflict, err := txRepo.Appointment.ExistsConflict(ctx, req.DoctorID, at, model.ConflictStatuses)
	if err != nil {
		rollback()
		s.logger.Error("检查预约冲突失败", zap.Error(err))
		return nil, err
	}
	if conflict {
		rollback()
		return nil, ErrAppointmentConflict
	}

	appt := &model.Appointment{
		DoctorID:        req.DoctorID,
		PatientID:       patientID,
		AppointmentDate: at,
		Reason:          req.Reason,
		Status:          model.AppointmentScheduled,
	}
	if err := txRepo.Appointment.Create(ctx, appt); err != nil {
		rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAppointmentConflict
		}
		s.logger.Error("创建预约失败", zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrAppointmentConflict
			}
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("预约创建成功",
		zap.String("appointment_id", appt.AppointmentID),
		zap.String("doctor_id", appt.DoctorID),
		zap.String("patient_id", appt.PatientID),
		zap.String("at", formatDateTime(at)),
	)

	resp := toAppointmentResponse(appt)
	return &resp, nil
}

// ────── Read ──────

func (s *appointmentService) GetByID(ctx context.Context, id string) (*dto.AppointmentResponse, error) {
	appt, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toAppointmentResponse(appt)
	return &resp, nil
}

func (s *appointmentService) ListByPatient(ctx context.Context, patientID string) ([]dto.AppointmentResponse, error) {
	list, err := s.repo.Appointment.ListByPatient(ctx, patientID)
	if err != nil {
		s.logger.Error("查询患者预约失败", zap.String("patient_id", patientID), zap.Error(err))
		return nil, err
	}
	return toAppointmentResponses(list), nil
}

func (s *appointmentService) ListByDoctor(ctx context.Context, doctorID string, start, end *time.Time) ([]dto.AppointmentResponse, error) {
	if start != nil && end != nil && !start.Before(*end) {
		return nil, ErrInvalidDateRangeQuery
	}
	list, err := s.repo.Appointment.ListByDoctor(ctx, doctorID, start, end)
	if err != nil {
		s.logger.Error("查询医生预约失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, err
	}
	return toAppointmentResponses(list), nil
}

// ────── Update ──────

func (s *appointmentService) UpdateStatus(ctx context.Context, id, status string) (*dto.AppointmentResponse, error) {
	if !model.IsValidAppointmentStatus(status) {
		return nil, ErrInvalidStatus
	}

	appt, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == status {
		resp := toAppointmentResponse(appt)
		return &resp, nil
	}
	if !canTransition(appt.Status, status) {
		return nil, ErrInvalidStatusTransition
	}

	appt.Status = status
	if err := s.repo.Appointment.Update(ctx, appt); err != nil {
		s.logger.Error("更新预约状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("预约状态已更新", zap.String("id", id), zap.String("status", status))
	resp := toAppointmentResponse(appt)
	return &resp, nil
}

func (s *appointmentService) Cancel(ctx context.Context, id string) (*dto.AppointmentResponse, error) {
	return s.UpdateStatus(ctx, id, model.AppointmentCancelled)
}

// ────── Delete ──────

func (s *appointmentService) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Appointment.SoftDelete(ctx, id)
	if err != nil {
		s.logger.Error("删除预约失败", zap.String("id", id), zap.Error(err))
		return false, err
	}
	return deleted, nil
}

// ────── 内部方法 ──────

func (s *appointmentService) get(ctx context.Context, id string) (*model.Appointment, error) {
	appt, err := s.repo.Appointment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return appt, nil
}

// resolvePatient 患者只能为本人预约；医生与管理员代约时必须指定患者
func resolvePatient(requested *string, callerID, callerRole string) (string, error) {
	if callerRole == model.RolePatient {
		if requested != nil && *requested != "" && *requested != callerID {
			return "", ErrCannotBookForOthers
		}
		return callerID, nil
	}
	if requested == nil || *requested == "" {
		return "", ErrPatientRequired
	}
	return *requested, nil
}

// checkBookingPolicy 预约策略：不早于当前时间、不超过可提前天数、周末需医生允许
// at 与 now 均为墙上时间
func checkBookingPolicy(settings *model.DoctorSettings, at, now time.Time) error {
	if !at.After(now) {
		return ErrBookingInPast
	}
	lastDay := startOfDay(now).AddDate(0, 0, settings.AdvanceBookingDays)
	if startOfDay(at).After(lastDay) {
		return ErrBeyondAdvanceWindow
	}
	if isWeekend(at) && !settings.AllowWeekendAppointments {
		return ErrWeekendNotAllowed
	}
	return nil
}

var statusTransitions = map[string][]string{
	model.AppointmentScheduled: {model.AppointmentConfirmed, model.AppointmentCompleted, model.AppointmentCancelled},
	model.AppointmentConfirmed: {model.AppointmentCompleted, model.AppointmentCancelled},
}

func canTransition(from, to string) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func toAppointmentResponse(a *model.Appointment) dto.AppointmentResponse {
	return dto.AppointmentResponse{
		ID:              a.AppointmentID,
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		Doctor:          toUserBrief(a.Doctor),
		Patient:         toUserBrief(a.Patient),
		AppointmentDate: formatDateTime(naive(a.AppointmentDate)),
		Reason:          a.Reason,
		Status:          a.Status,
		CreatedAt:       formatTimestamp(a.CreatedAt),
	}
}

func toAppointmentResponses(list []model.Appointment) []dto.AppointmentResponse {
	result := make([]dto.AppointmentResponse, 0, len(list))
	for i := range list {
		result = append(result, toAppointmentResponse(&list[i]))
	}
	return result
}
