package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/JabridDave10/distributed-systems-project-backend/config"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportRangeTooLarge = errors.New("导出区间超过允许的最大天数")
	ErrExportGenerateFail  = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportAppointments 导出 [start, end] 内医生的预约为 Excel
	ExportAppointments(ctx context.Context, doctorID string, start, end time.Time) (*bytes.Buffer, string, error)
	// ExportAvailability 导出 [start, end] 内的可预约时段为 iCalendar
	ExportAvailability(ctx context.Context, doctorID string, start, end time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo          *repository.Repository
	availability  AvailabilityService
	maxExportDays int
	loc           *time.Location
	logger        *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(
	repo *repository.Repository,
	availability AvailabilityService,
	cfg *config.Config,
	logger *zap.Logger,
) ExportService {
	s := &exportService{
		repo:          repo,
		availability:  availability,
		maxExportDays: 31,
		loc:           time.UTC,
		logger:        logger,
	}
	if cfg != nil {
		if cfg.Booking.MaxExportDays > 0 {
			s.maxExportDays = cfg.Booking.MaxExportDays
		}
		s.loc = cfg.App.Location()
	}
	return s
}

func (s *exportService) checkRange(start, end time.Time) (time.Time, time.Time, error) {
	start, end = startOfDay(start), startOfDay(end)
	if start.After(end) {
		return start, end, ErrInvalidDateRangeQuery
	}
	if int(end.Sub(start).Hours()/24)+1 > s.maxExportDays {
		return start, end, ErrExportRangeTooLarge
	}
	return start, end, nil
}

// ═══════════════════════════════════════════════════════════
// ExportAppointments 预约明细 Excel
// ═══════════════════════════════════════════════════════════
//
// 表头: | 日期 | 时间 | 患者 | 状态 | 原因 |

var appointmentStatusNames = map[string]string{
	model.AppointmentScheduled: "已预约",
	model.AppointmentConfirmed: "已确认",
	model.AppointmentCompleted: "已完成",
	model.AppointmentCancelled: "已取消",
}

func (s *exportService) ExportAppointments(ctx context.Context, doctorID string, start, end time.Time) (*bytes.Buffer, string, error) {
	start, end, err := s.checkRange(start, end)
	if err != nil {
		return nil, "", err
	}

	doctor, err := lookupDoctor(ctx, s.repo, doctorID)
	if err != nil {
		return nil, "", err
	}

	until := end.AddDate(0, 0, 1)
	list, err := s.repo.Appointment.ListByDoctor(ctx, doctorID, &start, &until)
	if err != nil {
		s.logger.Error("查询导出预约失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "预约"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 8)
	f.SetColWidth(sheetName, "C", "C", 24)
	f.SetColWidth(sheetName, "D", "D", 10)
	f.SetColWidth(sheetName, "E", "E", 40)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s %s ~ %s 预约", doctor.FullName(), formatDate(start), formatDate(end)))
	f.MergeCell(sheetName, "A1", "E1")
	f.SetCellStyle(sheetName, "A1", "E1", headerStyle)

	// 表头
	row := 2
	for i, title := range []string{"日期", "时间", "患者", "状态", "原因"} {
		f.SetCellValue(sheetName, cell(colName(i), row), title)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell("E", row), headerStyle)

	// 数据行
	row = 3
	for _, a := range list {
		at := naive(a.AppointmentDate)
		patient := a.PatientID
		if a.Patient != nil {
			patient = a.Patient.FullName()
		}
		reason := ""
		if a.Reason != nil {
			reason = *a.Reason
		}
		status, ok := appointmentStatusNames[a.Status]
		if !ok {
			status = a.Status
		}

		f.SetCellValue(sheetName, cell("A", row), formatDate(at))
		f.SetCellValue(sheetName, cell("B", row), at.Format(clockLayout))
		f.SetCellValue(sheetName, cell("C", row), patient)
		f.SetCellValue(sheetName, cell("D", row), status)
		f.SetCellValue(sheetName, cell("E", row), reason)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("appointments_%s_%s.xlsx", formatDate(start), formatDate(end))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportAvailability 可预约时段 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每个可预约时段输出一个 VEVENT；墙上时间按系统时区还原为真实时刻

func (s *exportService) ExportAvailability(ctx context.Context, doctorID string, start, end time.Time) (*bytes.Buffer, string, error) {
	start, end, err := s.checkRange(start, end)
	if err != nil {
		return nil, "", err
	}

	days, err := s.availability.GetAvailabilityRange(ctx, doctorID, start, end)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//medcita//availability//ES")
	cal.SetXWRCalName("Disponibilidad " + doctorID)

	stamp := time.Now().UTC()
	for _, day := range days {
		date, err := ParseDate(day.Date)
		if err != nil {
			return nil, "", err
		}
		for _, slot := range day.Slots {
			startOffset, err := parseClock(slot.StartTime)
			if err != nil {
				return nil, "", err
			}
			endOffset, err := parseClock(slot.EndTime)
			if err != nil {
				return nil, "", err
			}

			from := s.localInstant(date.Add(startOffset))
			to := s.localInstant(date.Add(endOffset))

			event := cal.AddEvent(fmt.Sprintf("%s-%s@medcita", doctorID, date.Add(startOffset).Format("20060102T1504")))
			event.SetDtStampTime(stamp)
			event.SetStartAt(from)
			event.SetEndAt(to)
			event.SetSummary("Disponible")
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("availability_%s_%s.ics", formatDate(start), formatDate(end))
	return buf, filename, nil
}

// localInstant 将墙上时间解释为系统时区下的真实时刻
func (s *exportService) localInstant(wall time.Time) time.Time {
	return time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), 0, s.loc)
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
