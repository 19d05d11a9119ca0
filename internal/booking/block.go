package booking

import (
	"time"

	"github.com/niasikh/2fork-knife-backend/internal/model"
)

// IsBlocked 日期与当日时刻是否落在任一闭店窗口内
// 无时间子窗口的闭店覆盖整天；子窗口按 [start, end) 判断，跨午夜规则同班次
func IsBlocked(blocks []model.Block, date time.Time, clock int) bool {
	day := dateOnly(date)
	for i := range blocks {
		b := &blocks[i]
		if day.Before(dateOnly(b.StartDate)) || day.After(dateOnly(b.EndDate)) {
			continue
		}
		if b.StartTime == nil || b.EndTime == nil {
			return true
		}
		w, err := wrapWindow(*b.StartTime, *b.EndTime)
		if err != nil {
			// 子窗口无法解析时按整天闭店处理
			return true
		}
		if w.Contains(placeInWindow(w, clock)) {
			return true
		}
	}
	return false
}

// CheckBlocks 闭店时返回 ErrClosed
func CheckBlocks(blocks []model.Block, date time.Time, clock int) error {
	if IsBlocked(blocks, date, clock) {
		return ErrClosed
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
