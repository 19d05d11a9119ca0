package booking

import (
	"fmt"

	"github.com/niasikh/2fork-knife-backend/internal/model"
	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// Action 状态机动作
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionSeat     Action = "seat"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionNoShow   Action = "no_show"
)

// 状态流转原因码
const (
	CodeNotInExpectedState = "not_in_expected_state"
	CodeAlreadyCancelled   = "already_cancelled"
)

type transition struct {
	from []string
	to   string
}

// transitions 合法流转表
var transitions = map[Action]transition{
	ActionConfirm:  {from: []string{model.StatusPending}, to: model.StatusConfirmed},
	ActionSeat:     {from: []string{model.StatusConfirmed}, to: model.StatusSeated},
	ActionComplete: {from: []string{model.StatusSeated}, to: model.StatusCompleted},
	ActionCancel:   {from: []string{model.StatusPending, model.StatusConfirmed, model.StatusSeated}, to: model.StatusCancelled},
	ActionNoShow:   {from: []string{model.StatusConfirmed, model.StatusSeated}, to: model.StatusNoShow},
}

// IsTerminal 终态不再流转
func IsTerminal(status string) bool {
	return status == model.StatusCompleted || status == model.StatusCancelled || status == model.StatusNoShow
}

// Next 校验动作并返回目标状态
func Next(from string, action Action) (string, error) {
	tr, ok := transitions[action]
	if !ok {
		return "", pkgerrors.New(pkgerrors.KindInvalidInput, "unknown_action",
			fmt.Sprintf("unknown action %q", action))
	}
	for _, s := range tr.from {
		if s == from {
			return tr.to, nil
		}
	}
	return "", transitionError(from, action)
}

// AuditAction 动作对应的审计动作名
func AuditAction(action Action) string {
	switch action {
	case ActionConfirm:
		return model.AuditActionConfirmed
	case ActionSeat:
		return model.AuditActionSeated
	case ActionComplete:
		return model.AuditActionCompleted
	case ActionCancel:
		return model.AuditActionCancelled
	case ActionNoShow:
		return model.AuditActionNoShow
	}
	return string(action)
}

func transitionError(from string, action Action) error {
	var msg string
	switch {
	case action == ActionSeat:
		msg = "only confirmed reservations can be seated"
	case action == ActionCancel && from == model.StatusCancelled:
		return pkgerrors.New(pkgerrors.KindInvalidTransition, CodeAlreadyCancelled,
			"reservation is already cancelled")
	case action == ActionCancel && from == model.StatusCompleted:
		msg = "cannot cancel a completed reservation"
	case action == ActionConfirm:
		msg = "only pending reservations can be confirmed"
	case action == ActionComplete:
		msg = "only seated reservations can be completed"
	case action == ActionNoShow:
		msg = "only confirmed or seated reservations can be marked as no-show"
	default:
		msg = fmt.Sprintf("cannot %s a reservation in status %s", action, from)
	}
	return pkgerrors.New(pkgerrors.KindInvalidTransition, CodeNotInExpectedState, msg)
}

// ErrStaleStatus 乐观前置条件失败：行状态已被并发修改
var ErrStaleStatus = pkgerrors.New(pkgerrors.KindInvalidTransition, CodeNotInExpectedState,
	"reservation is not in expected state")
