package service

import (
	"time"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
)

// Slot 生成的可预约时段（墙上时间）
type Slot struct {
	Start time.Time
	End   time.Time
}

// SlotInput 生成某一天时段所需的全部持久化状态
type SlotInput struct {
	Base         *model.DoctorSchedule        // 当天星期对应的周排班，可为 nil
	Exceptions   []model.AvailabilityException // 当天的例外
	Settings     *model.DoctorSettings
	Appointments []model.Appointment // 当天占用时段的预约
}

type interval struct {
	start time.Time
	end   time.Time
}

// selectException blocked 优先，否则取第一条
func selectException(list []model.AvailabilityException) *model.AvailabilityException {
	for i := range list {
		if list[i].ExceptionType == model.ExceptionBlocked {
			return &list[i]
		}
	}
	if len(list) > 0 {
		return &list[0]
	}
	return nil
}

// effectiveWindow 计算当天实际工作窗口；ok=false 表示当天不出诊
func effectiveWindow(in SlotInput) (start, end time.Duration, ok bool, err error) {
	if in.Base == nil || !in.Base.IsActive {
		return 0, 0, false, nil
	}

	exc := selectException(in.Exceptions)
	if exc != nil && exc.ExceptionType == model.ExceptionBlocked {
		return 0, 0, false, nil
	}

	startStr, endStr := in.Base.StartTime, in.Base.EndTime
	if exc != nil && exc.ExceptionType == model.ExceptionCustomHours {
		if exc.StartTime != nil {
			startStr = *exc.StartTime
		}
		if exc.EndTime != nil {
			endStr = *exc.EndTime
		}
	}

	if start, err = parseClock(startStr); err != nil {
		return 0, 0, false, err
	}
	if end, err = parseClock(endStr); err != nil {
		return 0, 0, false, err
	}
	return start, end, start < end, nil
}

// GenerateSlots 按步长 (时长 + 间隔) 从窗口起点遍历，输出不与已有预约重叠的时段。
// 只依赖入参，相同输入总是得到相同结果。
func GenerateSlots(date time.Time, in SlotInput) ([]Slot, error) {
	slots := []Slot{}

	start, end, ok, err := effectiveWindow(in)
	if err != nil || !ok {
		return slots, err
	}

	settings := in.Settings
	if settings == nil {
		settings = model.NewDefaultSettings("")
	}
	duration := time.Duration(settings.AppointmentDuration) * time.Minute
	step := duration + time.Duration(settings.BreakBetweenAppointments)*time.Minute
	if duration <= 0 {
		return slots, nil
	}

	day := startOfDay(date)
	windowEnd := day.Add(end)

	occupied := make([]interval, 0, len(in.Appointments))
	for _, a := range in.Appointments {
		s := naive(a.AppointmentDate)
		occupied = append(occupied, interval{start: s, end: s.Add(duration)})
	}

	for t := day.Add(start); !t.Add(duration).After(windowEnd); t = t.Add(step) {
		candidate := interval{start: t, end: t.Add(duration)}
		if overlapsAny(candidate, occupied) {
			continue
		}
		slots = append(slots, Slot{Start: candidate.start, End: candidate.end})
	}
	return slots, nil
}

func overlapsAny(c interval, occupied []interval) bool {
	for _, o := range occupied {
		// 不重叠 ⇔ c.end <= o.start 或 c.start >= o.end
		if c.end.After(o.start) && c.start.Before(o.end) {
			return true
		}
	}
	return false
}
