package booking

import (
	"crypto/rand"
	"fmt"
	"sort"

	"github.com/niasikh/2fork-knife-backend/internal/model"
)

// CheckCapacity 班次设置了 maxCovers 时，已占用人数 + 本次人数不得超限
func CheckCapacity(s *model.Shift, committedCovers, partySize int) error {
	if s.MaxCovers == nil {
		return nil
	}
	if committedCovers+partySize > *s.MaxCovers {
		return ErrShiftFull
	}
	return nil
}

// CandidateTables 可容纳该人数的活跃餐桌
func CandidateTables(tables []model.Table, partySize int) []*model.Table {
	out := make([]*model.Table, 0, len(tables))
	for i := range tables {
		t := &tables[i]
		if t.IsActive && t.Fits(partySize) {
			out = append(out, t)
		}
	}
	return out
}

// SelectTable 选桌：排除与候选区间重叠的餐桌后，取 maxSeats 最小者，再按桌号字典序
// booked 为同一服务日的活跃预订
func SelectTable(tables []model.Table, partySize int, booked []model.Reservation, iv Interval) (*model.Table, error) {
	busy := make(map[string]bool)
	for i := range booked {
		r := &booked[i]
		if !model.IsActiveStatus(r.Status) {
			continue
		}
		if iv.Overlaps(Interval{Start: r.StartMinute, End: r.EndMinute}) {
			busy[r.TableID] = true
		}
	}

	free := make([]*model.Table, 0)
	for _, t := range CandidateTables(tables, partySize) {
		if !busy[t.TableID] {
			free = append(free, t)
		}
	}
	if len(free) == 0 {
		return nil, ErrNoTables
	}

	sort.SliceStable(free, func(i, j int) bool {
		if free[i].MaxSeats != free[j].MaxSeats {
			return free[i].MaxSeats < free[j].MaxSeats
		}
		return free[i].Number < free[j].Number
	})
	return free[0], nil
}

// TableIsFree 指定餐桌在区间内是否空闲，excludeID 为正在调整的预订自身
func TableIsFree(tableID string, booked []model.Reservation, iv Interval, excludeID string) bool {
	for i := range booked {
		r := &booked[i]
		if r.TableID != tableID || r.ReservationID == excludeID || !model.IsActiveStatus(r.Status) {
			continue
		}
		if iv.Overlaps(Interval{Start: r.StartMinute, End: r.EndMinute}) {
			return false
		}
	}
	return true
}

// 确认码字符集：去掉 0/O、1/I/L 等易混字符
const confirmationAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// ConfirmationCodeLength 确认码长度
const ConfirmationCodeLength = 8

// NewConfirmationCode 生成随机确认码，唯一性由数据库唯一索引保证
func NewConfirmationCode() (string, error) {
	buf := make([]byte, ConfirmationCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("生成确认码失败: %w", err)
	}
	for i, b := range buf {
		buf[i] = confirmationAlphabet[int(b)%len(confirmationAlphabet)]
	}
	return string(buf), nil
}
