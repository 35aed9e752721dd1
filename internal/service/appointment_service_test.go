package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JabridDave10/distributed-systems-project-backend/config"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	pkgerrors "github.com/JabridDave10/distributed-systems-project-backend/pkg/errors"
)

// setupAppointments 周一 09:00-12:00 出诊，当前时间固定为 2024-01-10 08:00
func setupAppointments() (*appointmentService, SettingsService, *testRepos) {
	repos := newTestRepos()
	repos.addUser("doc-1", model.RoleDoctor)
	repos.addUser("pat-1", model.RolePatient)
	repos.addUser("pat-2", model.RolePatient)
	repos.addUser("admin-1", model.RoleAdmin)
	repos.addWeekday("doc-1", 1, "09:00", "12:00")

	settings := NewSettingsService(repos.repo, nil, nopLogger)
	svc := newAppointmentService(repos.repo, settings, &config.AppConfig{Timezone: "UTC"}, nopLogger)
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC) }
	return svc, settings, repos
}

func bookingReq(date string) *dto.CreateAppointmentRequest {
	return &dto.CreateAppointmentRequest{DoctorID: "doc-1", AppointmentDate: date, Reason: strPtr("Control")}
}

// ── 创建预约 ──

func TestCreateAppointment_Success(t *testing.T) {
	svc, _, repos := setupAppointments()

	resp, err := svc.Create(context.Background(), bookingReq("2024-01-15T09:35:00"), "pat-1", model.RolePatient)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Status != model.AppointmentScheduled {
		t.Errorf("期望状态 scheduled，实际 %s", resp.Status)
	}
	if resp.PatientID != "pat-1" || resp.DoctorID != "doc-1" {
		t.Errorf("预约双方不正确: %+v", resp)
	}
	if resp.AppointmentDate != "2024-01-15T09:35:00" {
		t.Errorf("期望墙上时间 2024-01-15T09:35:00，实际 %s", resp.AppointmentDate)
	}
	if repos.appointments.locks != 1 {
		t.Errorf("创建前应获取一次医生当日锁，实际 %d", repos.appointments.locks)
	}
}

func TestCreateAppointment_RereadsSettingsInsideTx(t *testing.T) {
	repos := newTestRepos()
	repos.addUser("doc-1", model.RoleDoctor)
	repos.addUser("pat-1", model.RolePatient)
	repos.addWeekday("doc-1", 1, "09:00", "12:00")

	settings := NewSettingsService(repos.repo, &config.CacheConfig{SettingsSize: 16, SettingsTTL: time.Hour}, nopLogger)
	svc := newAppointmentService(repos.repo, settings, &config.AppConfig{Timezone: "UTC"}, nopLogger)
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	// 本实例缓存 30/5 配置
	if _, err := settings.Load(ctx, "doc-1"); err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	// 其他实例把时长改为 60，本实例缓存未失效
	repos.settings.settings["doc-1"].AppointmentDuration = 60

	// 30/5 网格上的 09:35 在 60/5 网格上不是时段起点
	if _, err := svc.Create(ctx, bookingReq("2024-01-15T09:35:00"), "pat-1", model.RolePatient); !errors.Is(err, ErrSlotUnavailable) {
		t.Errorf("应按数据库中的最新配置校验，期望 ErrSlotUnavailable，实际 %v", err)
	}
	if _, err := svc.Create(ctx, bookingReq("2024-01-15T10:05:00"), "pat-1", model.RolePatient); err != nil {
		t.Errorf("60/5 网格上的 10:05 应可预约: %v", err)
	}
}

func TestCreateAppointment_DoubleBooking(t *testing.T) {
	svc, _, repos := setupAppointments()
	ctx := context.Background()

	if _, err := svc.Create(ctx, bookingReq("2024-01-15T09:35:00"), "pat-1", model.RolePatient); err != nil {
		t.Fatalf("首次预约失败: %v", err)
	}
	_, err := svc.Create(ctx, bookingReq("2024-01-15T09:35:00"), "pat-2", model.RolePatient)
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Errorf("期望 ErrSlotUnavailable，实际 %v", err)
	}
	if repos.appointments.created != 1 {
		t.Errorf("只应写入一条预约，实际 %d", repos.appointments.created)
	}
}

func TestCreateAppointment_CancelFreesSlot(t *testing.T) {
	svc, _, _ := setupAppointments()
	ctx := context.Background()

	first, err := svc.Create(ctx, bookingReq("2024-01-15T09:35:00"), "pat-1", model.RolePatient)
	if err != nil {
		t.Fatalf("首次预约失败: %v", err)
	}
	if _, err := svc.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("Cancel 失败: %v", err)
	}
	if _, err := svc.Create(ctx, bookingReq("2024-01-15T09:35:00"), "pat-2", model.RolePatient); err != nil {
		t.Errorf("取消后该时段应可再次预约: %v", err)
	}
}

func TestCreateAppointment_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		date       string
		callerID   string
		callerRole string
		patientID  *string
		wantErr    error
	}{
		{"不在时段起点", "2024-01-15T09:40:00", "pat-1", model.RolePatient, nil, ErrSlotUnavailable},
		{"非出诊日", "2024-01-16T09:00:00", "pat-1", model.RolePatient, nil, ErrSlotUnavailable},
		{"时间格式错误", "15/01/2024", "pat-1", model.RolePatient, nil, pkgerrors.ErrInvalidTimeFormat},
		{"过去的时间", "2024-01-08T09:00:00", "pat-1", model.RolePatient, nil, ErrBookingInPast},
		{"患者为他人预约", "2024-01-15T09:00:00", "pat-1", model.RolePatient, strPtr("pat-2"), ErrCannotBookForOthers},
		{"代约未指定患者", "2024-01-15T09:00:00", "admin-1", model.RoleAdmin, nil, ErrPatientRequired},
		{"代约患者不存在", "2024-01-15T09:00:00", "admin-1", model.RoleAdmin, strPtr("doc-1"), ErrPatientNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := setupAppointments()
			req := bookingReq(tt.date)
			req.PatientID = tt.patientID
			_, err := svc.Create(context.Background(), req, tt.callerID, tt.callerRole)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际 %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateAppointment_UnknownDoctor(t *testing.T) {
	svc, _, _ := setupAppointments()
	req := bookingReq("2024-01-15T09:00:00")
	req.DoctorID = "missing"
	if _, err := svc.Create(context.Background(), req, "pat-1", model.RolePatient); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("期望 ErrDoctorNotFound，实际 %v", err)
	}
}

func TestCreateAppointment_AdminBooksForPatient(t *testing.T) {
	svc, _, _ := setupAppointments()
	req := bookingReq("2024-01-15T10:10:00")
	req.PatientID = strPtr("pat-2")

	resp, err := svc.Create(context.Background(), req, "admin-1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("管理员代约应成功: %v", err)
	}
	if resp.PatientID != "pat-2" {
		t.Errorf("期望患者 pat-2，实际 %s", resp.PatientID)
	}
}

func TestCreateAppointment_AdvanceWindow(t *testing.T) {
	svc, settings, _ := setupAppointments()
	ctx := context.Background()
	settings.Update(ctx, "doc-1", &dto.UpdateSettingsRequest{AdvanceBookingDays: intPtr(3)})

	_, err := svc.Create(ctx, bookingReq("2024-01-15T09:00:00"), "pat-1", model.RolePatient)
	if !errors.Is(err, ErrBeyondAdvanceWindow) {
		t.Errorf("期望 ErrBeyondAdvanceWindow，实际 %v", err)
	}

	settings.Update(ctx, "doc-1", &dto.UpdateSettingsRequest{AdvanceBookingDays: intPtr(5)})
	if _, err := svc.Create(ctx, bookingReq("2024-01-15T09:00:00"), "pat-1", model.RolePatient); err != nil {
		t.Errorf("窗口最后一天应允许预约: %v", err)
	}
}

func TestCreateAppointment_Weekend(t *testing.T) {
	svc, settings, repos := setupAppointments()
	ctx := context.Background()
	repos.addWeekday("doc-1", 6, "09:00", "12:00")

	_, err := svc.Create(ctx, bookingReq("2024-01-20T09:00:00"), "pat-1", model.RolePatient)
	if !errors.Is(err, ErrWeekendNotAllowed) {
		t.Errorf("期望 ErrWeekendNotAllowed，实际 %v", err)
	}

	settings.Update(ctx, "doc-1", &dto.UpdateSettingsRequest{AllowWeekendAppointments: boolPtr(true)})
	if _, err := svc.Create(ctx, bookingReq("2024-01-20T09:00:00"), "pat-1", model.RolePatient); err != nil {
		t.Errorf("允许周末后应可预约: %v", err)
	}
}

func TestCreateAppointment_NowUsesSystemTimezone(t *testing.T) {
	svc, _, _ := setupAppointments()
	svc.loc = time.FixedZone("COT", -5*3600)
	// 14:00Z 即本地 09:00
	svc.now = func() time.Time { return time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	if _, err := svc.Create(ctx, bookingReq("2024-01-15T09:00:00"), "pat-1", model.RolePatient); !errors.Is(err, ErrBookingInPast) {
		t.Errorf("本地 09:00 不能预约 09:00，实际 %v", err)
	}
	if _, err := svc.Create(ctx, bookingReq("2024-01-15T09:35:00"), "pat-1", model.RolePatient); err != nil {
		t.Errorf("本地 09:35 应可预约: %v", err)
	}
}

func TestCheckBookingPolicy(t *testing.T) {
	settings := model.NewDefaultSettings("doc-1")
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	if err := checkBookingPolicy(settings, now, now); !errors.Is(err, ErrBookingInPast) {
		t.Errorf("等于当前时间应视为过去，实际 %v", err)
	}
	if err := checkBookingPolicy(settings, now.AddDate(0, 0, 30).Add(2*time.Hour), now); err != nil {
		t.Errorf("第 30 天应允许，实际 %v", err)
	}
	if err := checkBookingPolicy(settings, now.AddDate(0, 0, 31), now); !errors.Is(err, ErrBeyondAdvanceWindow) {
		t.Errorf("第 31 天应拒绝，实际 %v", err)
	}
}

// ── 状态变更 ──

func TestUpdateStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		wantErr error
	}{
		{model.AppointmentScheduled, model.AppointmentConfirmed, nil},
		{model.AppointmentScheduled, model.AppointmentCompleted, nil},
		{model.AppointmentConfirmed, model.AppointmentCancelled, nil},
		{model.AppointmentConfirmed, model.AppointmentConfirmed, nil},
		{model.AppointmentConfirmed, model.AppointmentScheduled, ErrInvalidStatusTransition},
		{model.AppointmentCompleted, model.AppointmentCancelled, ErrInvalidStatusTransition},
		{model.AppointmentCancelled, model.AppointmentConfirmed, ErrInvalidStatusTransition},
		{model.AppointmentScheduled, "no_show", ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.from+"→"+tt.to, func(t *testing.T) {
			svc, _, repos := setupAppointments()
			repos.appointments.Create(context.Background(), &model.Appointment{
				AppointmentID:   "appt-x",
				DoctorID:        "doc-1",
				PatientID:       "pat-1",
				AppointmentDate: at(9, 0),
				Status:          tt.from,
			})

			resp, err := svc.UpdateStatus(context.Background(), "appt-x", tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("期望 %v，实际 %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && resp.Status != tt.to {
				t.Errorf("期望状态 %s，实际 %s", tt.to, resp.Status)
			}
		})
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc, _, _ := setupAppointments()
	if _, err := svc.UpdateStatus(context.Background(), "missing", model.AppointmentConfirmed); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("期望 ErrAppointmentNotFound，实际 %v", err)
	}
}

// ── 查询与删除 ──

func TestListAndDelete(t *testing.T) {
	svc, _, _ := setupAppointments()
	ctx := context.Background()

	a, _ := svc.Create(ctx, bookingReq("2024-01-15T10:10:00"), "pat-1", model.RolePatient)
	b, _ := svc.Create(ctx, bookingReq("2024-01-15T09:00:00"), "pat-1", model.RolePatient)
	if a == nil || b == nil {
		t.Fatal("预约创建失败")
	}

	mine, err := svc.ListByPatient(ctx, "pat-1")
	if err != nil || len(mine) != 2 {
		t.Fatalf("期望 2 条患者预约，实际 %d err=%v", len(mine), err)
	}
	if mine[0].Doctor == nil || mine[0].Doctor.ID != "doc-1" {
		t.Errorf("患者预约应包含医生信息: %+v", mine[0])
	}

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	list, _ := svc.ListByDoctor(ctx, "doc-1", &start, &end)
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("[start, end) 区间应只返回 09:00 的预约，实际 %+v", list)
	}
	if _, err := svc.ListByDoctor(ctx, "doc-1", &end, &start); !errors.Is(err, ErrInvalidDateRangeQuery) {
		t.Errorf("期望 ErrInvalidDateRangeQuery，实际 %v", err)
	}

	if ok, _ := svc.Delete(ctx, a.ID); !ok {
		t.Error("删除已存在的预约应返回 true")
	}
	if ok, _ := svc.Delete(ctx, a.ID); ok {
		t.Error("重复删除应返回 false")
	}
	if _, err := svc.GetByID(ctx, a.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("软删除后应查不到，实际 %v", err)
	}
}
