package booking

import (
	"time"

	"github.com/niasikh/2fork-knife-backend/internal/model"
)

// EvaluatePolicy 校验新预订的时间窗口
//  1. target ≥ now + minAdvanceMinutes
//  2. target ≤ now + maxAdvanceDays
//
// 未配置策略时视为无限制
func EvaluatePolicy(target, now time.Time, p *model.Policy) error {
	if p == nil {
		return nil
	}
	if target.Before(now.Add(time.Duration(p.MinAdvanceMinutes) * time.Minute)) {
		return rejectf(ReasonTooSoon,
			"bookings must be made at least %d minutes in advance", p.MinAdvanceMinutes)
	}
	if target.After(now.AddDate(0, 0, p.MaxAdvanceDays)) {
		return rejectf(ReasonTooFar,
			"bookings can only be made up to %d days in advance", p.MaxAdvanceDays)
	}
	return nil
}

// EvaluateModification 校验改约：先看原预订是否仍允许修改，再按新时间走常规校验
func EvaluateModification(original, target, now time.Time, p *model.Policy) error {
	if p == nil {
		return nil
	}
	if !p.AllowModifications {
		return reject(ReasonModificationsDisabled,
			"modifications are not allowed for this restaurant")
	}
	if original.Before(now.Add(time.Duration(p.ModificationCutoffMinutes) * time.Minute)) {
		return rejectf(ReasonModificationCutoff,
			"reservations can only be modified up to %d minutes before the booking time",
			p.ModificationCutoffMinutes)
	}
	return EvaluatePolicy(target, now, p)
}
