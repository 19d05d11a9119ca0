package booking

import (
	"time"

	"github.com/niasikh/2fork-knife-backend/internal/model"
)

// ShiftMatch 班次解析结果
type ShiftMatch struct {
	Shift *model.Shift
	// Window 班次在服务日轴上的区间，跨午夜班次 End > 1440
	Window Interval
	// Minute 预订时刻在服务日轴上的位置
	Minute int
}

// ShiftWindow 班次的服务日区间
func ShiftWindow(s *model.Shift) (Interval, error) {
	return wrapWindow(s.StartTime, s.EndTime)
}

// ResolveShift 找出覆盖 (date, clock) 的唯一活跃班次
// 班次按开始当天的星期归属，跨午夜部分仍属于 date
// 无匹配返回 ErrNoService，多个匹配返回 ErrAmbiguousShift
func ResolveShift(shifts []model.Shift, date time.Time, clock int) (*ShiftMatch, error) {
	weekday := int(date.Weekday())
	var found *ShiftMatch
	for i := range shifts {
		s := &shifts[i]
		if !s.IsActive || s.DayOfWeek != weekday {
			continue
		}
		w, err := ShiftWindow(s)
		if err != nil {
			// 配置无法解析的班次不参与匹配
			continue
		}
		minute := placeInWindow(w, clock)
		if !w.Contains(minute) {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguousShift
		}
		found = &ShiftMatch{Shift: s, Window: w, Minute: minute}
	}
	if found == nil {
		return nil, ErrNoService
	}
	return found, nil
}

// ServiceMinute 不做校验地把当日时刻映射到服务日轴
// 用于在班次解析前计算策略校验所需的目标时刻；无覆盖班次时原样返回
func ServiceMinute(shifts []model.Shift, date time.Time, clock int) int {
	if m, err := ResolveShift(shifts, date, clock); err == nil {
		return m.Minute
	}
	return clock
}

// ShiftsForDay 某日所有活跃班次，保持配置顺序
func ShiftsForDay(shifts []model.Shift, date time.Time) []*model.Shift {
	weekday := int(date.Weekday())
	out := make([]*model.Shift, 0, len(shifts))
	for i := range shifts {
		if shifts[i].IsActive && shifts[i].DayOfWeek == weekday {
			out = append(out, &shifts[i])
		}
	}
	return out
}
