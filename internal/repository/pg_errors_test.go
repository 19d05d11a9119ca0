package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind pkgerrors.Kind
	}{
		{"serialization", &pgconn.PgError{Code: "40001"}, pkgerrors.KindConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, pkgerrors.KindConflict},
		{"exclusion", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01"}), pkgerrors.KindConflict},
		{"unique", &pgconn.PgError{Code: "23505"}, pkgerrors.KindConflict},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, pkgerrors.KindBusy},
		{"deadline", context.DeadlineExceeded, pkgerrors.KindBusy},
		{"other pg", &pgconn.PgError{Code: "23503"}, ""},
		{"plain", errors.New("boom"), ""},
	}
	for _, c := range cases {
		got := ClassifyError(c.err)
		if k := pkgerrors.KindOf(got); k != c.kind {
			t.Errorf("%s: 期望类别 %q，实际 %q", c.name, c.kind, k)
		}
		if c.kind == "" && got != c.err {
			t.Errorf("%s: 未归类错误应原样返回", c.name)
		}
	}
	if ClassifyError(nil) != nil {
		t.Error("nil 应返回 nil")
	}
}

func TestClassifyError_Retryable(t *testing.T) {
	if !pkgerrors.IsRetryable(ClassifyError(&pgconn.PgError{Code: "23P01"})) {
		t.Error("排他约束冲突应可重试")
	}
	if pkgerrors.IsRetryable(ClassifyError(errors.New("x"))) {
		t.Error("普通错误不应重试")
	}
}

func TestAllocationLockKey(t *testing.T) {
	d := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	if got := AllocationLockKey("r1", d, "s1"); got != "r1|2026-10-19|s1" {
		t.Errorf("锁键不符: %s", got)
	}
}
