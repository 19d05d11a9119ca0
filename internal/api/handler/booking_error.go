package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
	"github.com/niasikh/2fork-knife-backend/pkg/response"
)

// 预订业务错误码（按错误类别）
const (
	codeInvalidInput      = 20001
	codeNotAvailable      = 20002
	codeConflict          = 20003
	codeBusy              = 20004
	codeNotFound          = 20005
	codeInvalidTransition = 20006
	codeForbidden         = 20007
)

// handleBookingError 按错误类别统一映射 HTTP 状态
// details 字段携带机器可读原因码（如 no_tables、shift_full）
func handleBookingError(c *gin.Context, err error) {
	var be *pkgerrors.Error
	if !errors.As(err, &be) {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	msg := be.Message
	if msg == "" {
		msg = string(be.Kind)
	}

	switch be.Kind {
	case pkgerrors.KindInvalidInput:
		response.ErrorWithDetails(c, http.StatusBadRequest, codeInvalidInput, msg, be.Code)
	case pkgerrors.KindNotAvailable:
		response.ErrorWithDetails(c, http.StatusConflict, codeNotAvailable, msg, be.Code)
	case pkgerrors.KindConflict:
		response.ErrorWithDetails(c, http.StatusConflict, codeConflict, msg, be.Code)
	case pkgerrors.KindBusy:
		c.Header("Retry-After", "1")
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, codeBusy, msg, be.Code)
	case pkgerrors.KindNotFound:
		response.ErrorWithDetails(c, http.StatusNotFound, codeNotFound, msg, be.Code)
	case pkgerrors.KindInvalidTransition:
		response.ErrorWithDetails(c, http.StatusConflict, codeInvalidTransition, msg, be.Code)
	case pkgerrors.KindForbidden:
		response.ErrorWithDetails(c, http.StatusForbidden, codeForbidden, msg, be.Code)
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
