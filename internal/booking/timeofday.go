// Package booking 预订引擎的纯逻辑部分：策略校验、班次解析、闭店判断、
// 时段生成、选桌与状态机。本包不做任何 I/O，所有输入均为配置快照。
package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// MinutesPerDay 一天的分钟数
const MinutesPerDay = 24 * 60

// DateLayout 预订日期格式
const DateLayout = "2006-01-02"

// 输入校验原因码
const (
	CodeInvalidDate      = "invalid_date"
	CodeInvalidTime      = "invalid_time"
	CodeInvalidPartySize = "invalid_party_size"
)

// ParseClock 解析 "HH:MM" 或 "HH:MM:SS"，返回当日零点起的分钟数
// 数据库 TIME 列读出为 "HH:MM:SS"，秒位被忽略
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, invalidTime(s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 || len(parts[0]) > 2 {
		return 0, invalidTime(s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, invalidTime(s)
	}
	if len(parts) == 3 {
		// 驱动可能带出微秒部分，如 "18:00:00.000000"
		secPart, _, _ := strings.Cut(parts[2], ".")
		sec, err := strconv.Atoi(secPart)
		if err != nil || sec < 0 || sec > 59 {
			return 0, invalidTime(s)
		}
	}
	return h*60 + m, nil
}

func invalidTime(s string) error {
	return pkgerrors.New(pkgerrors.KindInvalidInput, CodeInvalidTime,
		fmt.Sprintf("invalid time %q, expected HH:MM", s))
}

// FormatClock 分钟数转 "HH:MM"，超过 24 小时的服务日分钟回绕
func FormatClock(minute int) string {
	m := ((minute % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseDate 解析 "YYYY-MM-DD"，结果为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.KindInvalidInput, CodeInvalidDate,
			fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return d, nil
}

// ValidatePartySize 人数至少为 1
func ValidatePartySize(n int) error {
	if n < 1 {
		return pkgerrors.New(pkgerrors.KindInvalidInput, CodeInvalidPartySize,
			"party size must be at least 1")
	}
	return nil
}

// TargetInstant 服务日 + 服务日分钟 + 餐厅时区 → 绝对时刻
// 跨午夜的分钟（≥1440）自然落到次日
func TargetInstant(serviceDate time.Time, serviceMinute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(serviceDate.Year(), serviceDate.Month(), serviceDate.Day(),
		0, serviceMinute, 0, 0, loc)
}

// Interval 服务日轴上的半开区间 [Start, End)
type Interval struct {
	Start int
	End   int
}

// Overlaps 区间相交
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Contains 分钟是否落在区间内
func (iv Interval) Contains(minute int) bool {
	return iv.Start <= minute && minute < iv.End
}

// ReservationInterval 以开始分钟和固定时长构造预订占用区间
func ReservationInterval(start, durationMinutes int) Interval {
	return Interval{Start: start, End: start + durationMinutes}
}

// wrapWindow 解析 [start, end) 时段，end 不大于 start 视为跨午夜
func wrapWindow(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	if e <= s {
		e += MinutesPerDay
	}
	return Interval{Start: s, End: e}, nil
}

// placeInWindow 把当日时刻放到窗口所在的轴上：跨午夜窗口中早于开始的时刻 +24h
func placeInWindow(w Interval, clock int) int {
	if w.End > MinutesPerDay && clock < w.Start {
		return clock + MinutesPerDay
	}
	return clock
}
