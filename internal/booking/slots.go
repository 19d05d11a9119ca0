package booking

import (
	"iter"

	"github.com/niasikh/2fork-knife-backend/internal/model"
)

// Slot 可供选择的时段
type Slot struct {
	Time   string // "HH:MM"，跨午夜部分回绕显示
	Minute int    // 服务日轴分钟
}

// Slots 班次内的时段序列：从开始（含）到结束（不含），步长为 slotDurationMinutes
// 序列可重复遍历，每次遍历重新生成；不判断可用性
func Slots(s *model.Shift) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		if s.SlotDurationMinutes <= 0 {
			return
		}
		w, err := ShiftWindow(s)
		if err != nil {
			return
		}
		for m := w.Start; m < w.End; m += s.SlotDurationMinutes {
			if !yield(Slot{Time: FormatClock(m), Minute: m}) {
				return
			}
		}
	}
}
