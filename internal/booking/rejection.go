package booking

import (
	"errors"
	"fmt"

	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// 不可预订原因码
const (
	ReasonTooSoon               = "too_soon"
	ReasonTooFar                = "too_far"
	ReasonModificationsDisabled = "modifications_disabled"
	ReasonModificationCutoff    = "modification_cutoff"
	ReasonClosed                = "closed"
	ReasonNoService             = "no_service"
	ReasonShiftFull             = "shift_full"
	ReasonNoTables              = "no_tables"
)

// CodeAmbiguousShift 同一时刻被多个班次覆盖，属于配置错误
const CodeAmbiguousShift = "ambiguous_shift"

var (
	ErrClosed    = reject(ReasonClosed, "closed")
	ErrNoService = reject(ReasonNoService, "no service at this time")
	ErrShiftFull = reject(ReasonShiftFull, "shift fully booked")
	ErrNoTables  = reject(ReasonNoTables, "no tables available for this party size")

	ErrAmbiguousShift = pkgerrors.New(pkgerrors.KindInvalidInput, CodeAmbiguousShift,
		"more than one shift covers this time, shift configuration must be fixed")
)

func reject(code, message string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.KindNotAvailable, code, message)
}

func rejectf(code, format string, args ...any) *pkgerrors.Error {
	return reject(code, fmt.Sprintf(format, args...))
}

// Rejection 拒绝原因（机器码 + 描述）
type Rejection struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// AsRejection 从 NotAvailable 错误中提取拒绝原因，其他错误返回 nil
func AsRejection(err error) *Rejection {
	var e *pkgerrors.Error
	if !errors.As(err, &e) || e.Kind != pkgerrors.KindNotAvailable {
		return nil
	}
	return &Rejection{Reason: e.Code, Message: e.Message}
}
