package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("record was modified by another operation, please reload and retry")

// Kind 错误类别，决定是否重试以及 HTTP 映射
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotAvailable      Kind = "not_available"
	KindConflict          Kind = "conflict"
	KindBusy              Kind = "busy"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindForbidden         Kind = "forbidden"
)

// 类别哨兵，配合 errors.Is 使用
var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrNotAvailable      = &Error{Kind: KindNotAvailable}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrBusy              = &Error{Kind: KindBusy}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrForbidden         = &Error{Kind: KindForbidden}
)

// Error 业务错误：类别 + 机器可读原因码 + 人类可读描述
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 同类别即视为匹配，哨兵无 Code 时不比较 Code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// New 构造业务错误
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap 以指定类别包装底层错误
func Wrap(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: string(kind), Err: err}
}

// KindOf 提取错误类别，非业务错误返回空串
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable Conflict 与 Busy 允许重试
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == KindConflict || k == KindBusy
}
