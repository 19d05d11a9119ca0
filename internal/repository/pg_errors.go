package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// PostgreSQL SQLSTATE
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateExclusionViolation   = "23P01"
	sqlStateUniqueViolation      = "23505"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateQueryCanceled        = "57014"
)

// 存储层冲突原因码
const (
	CodeSerialization  = "serialization_failure"
	CodeTableOverlap   = "table_overlap"
	CodeDuplicateKey   = "duplicate_key"
	CodeLockTimeout    = "lock_timeout"
	CodeContextTimeout = "timeout"
)

// ClassifyError 把数据库错误归类为可重试的 Conflict / Busy，其余原样返回
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.KindBusy, CodeContextTimeout, err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return pkgerrors.Wrap(pkgerrors.KindConflict, CodeSerialization, err)
	case sqlStateExclusionViolation:
		return pkgerrors.Wrap(pkgerrors.KindConflict, CodeTableOverlap, err)
	case sqlStateUniqueViolation:
		return pkgerrors.Wrap(pkgerrors.KindConflict, CodeDuplicateKey, err)
	case sqlStateLockNotAvailable, sqlStateQueryCanceled:
		return pkgerrors.Wrap(pkgerrors.KindBusy, CodeLockTimeout, err)
	}
	return err
}
