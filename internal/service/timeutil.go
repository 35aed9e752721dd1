package service

import (
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/JabridDave10/distributed-systems-project-backend/pkg/errors"
)

// 系统中所有日期时间都是同一本地时区下的墙上时间。
// 内部统一用 Location=UTC 的 time.Time 承载，只比较年月日时分秒，不做时区换算。

const clockLayout = "15:04"

// naive 丢弃时区，保留墙上时间
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// startOfDay 当天 00:00（墙上时间）
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayOfWeek 返回 0=周日 … 6=周六
func DayOfWeek(date time.Time) int {
	return int(date.Weekday())
}

func isWeekend(date time.Time) bool {
	d := DayOfWeek(date)
	return d == 0 || d == 6
}

// parseClock 解析一天中的时刻，返回距 00:00 的偏移
// 接受 "09:00" 以及数据库 TIME 列返回的 "09:00:00"
func parseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	layout := clockLayout
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", pkgerrors.ErrInvalidTimeFormat, s)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// formatClock 偏移 → "HH:MM"
func formatClock(d time.Duration) string {
	return time.Time{}.Add(d).Format(clockLayout)
}

// normalizeClock 校验并规范化为 "HH:MM"
func normalizeClock(s string) (string, error) {
	d, err := parseClock(s)
	if err != nil {
		return "", err
	}
	return formatClock(d), nil
}

// displayClock 将存储值规范化展示，解析失败时原样返回
func displayClock(s string) string {
	if v, err := normalizeClock(s); err == nil {
		return v
	}
	return s
}

// ParseDate 解析 "2006-01-02"
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", pkgerrors.ErrInvalidTimeFormat, s)
	}
	return t, nil
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateTime,
	"2006-01-02 15:04",
}

// ParseDateTime 解析预约时间并去掉时区偏移（保留墙上时间）
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return naive(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", pkgerrors.ErrInvalidTimeFormat, s)
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func formatDateTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
