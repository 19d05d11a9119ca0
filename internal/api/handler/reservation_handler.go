package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/niasikh/2fork-knife-backend/internal/dto"
	"github.com/niasikh/2fork-knife-backend/internal/service"
	"github.com/niasikh/2fork-knife-backend/pkg/response"
)

// ReservationHandler 预订模块 HTTP 处理器
type ReservationHandler struct {
	reservationSvc service.ReservationService
	lifecycleSvc   service.LifecycleService
}

// NewReservationHandler 创建 ReservationHandler
func NewReservationHandler(reservationSvc service.ReservationService, lifecycleSvc service.LifecycleService) *ReservationHandler {
	return &ReservationHandler{reservationSvc: reservationSvc, lifecycleSvc: lifecycleSvc}
}

// ────────────────────── 公开接口 ──────────────────────

// CreateReservation 创建预订
// POST /api/v1/reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reservationSvc.Create(c.Request.Context(), &req, ActorID(c))
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.Created(c, result)
}

// GetByConfirmationCode 按确认码查询
// GET /api/v1/reservations/confirmation/:code
func (h *ReservationHandler) GetByConfirmationCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 10001, "确认码不能为空")
		return
	}

	result, err := h.reservationSvc.GetByConfirmationCode(c.Request.Context(), code)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OK(c, result)
}

// CancelByConfirmationCode 顾客凭确认码取消
// POST /api/v1/reservations/confirmation/:code/cancel
func (h *ReservationHandler) CancelByConfirmationCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 10001, "确认码不能为空")
		return
	}

	var req dto.CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	found, err := h.reservationSvc.GetByConfirmationCode(c.Request.Context(), code)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	result, err := h.lifecycleSvc.Cancel(c.Request.Context(), found.ID, ActorID(c), req.Reason)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OK(c, result)
}

// ────────────────────── 员工接口 ──────────────────────

// GetReservation 获取预订详情
// GET /api/v1/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预订ID不能为空")
		return
	}

	result, err := h.reservationSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleBookingError(c, err)
		return
	}
	if !CheckRestaurantScope(c, result.RestaurantID) {
		return
	}

	response.OK(c, result)
}

// ListReservations 预订列表
// GET /api/v1/reservations
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	var req dto.ReservationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if scope := scopedRestaurantID(c); scope != "" {
		if req.RestaurantID == "" {
			req.RestaurantID = scope
		}
		if !CheckRestaurantScope(c, req.RestaurantID) {
			return
		}
	}

	list, total, err := h.reservationSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListDue 供未到店检查任务拉取已过开始时间仍未入座的预订
// GET /api/v1/reservations/due?restaurant_id=&date=&before=
func (h *ReservationHandler) ListDue(c *gin.Context) {
	var req dto.DueReservationsQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if !CheckRestaurantScope(c, req.RestaurantID) {
		return
	}

	list, err := h.reservationSvc.ListDueForNoShowCheck(c.Request.Context(), &req)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ModifyReservation 修改日期 / 时间 / 人数
// PUT /api/v1/reservations/:id
func (h *ReservationHandler) ModifyReservation(c *gin.Context) {
	id, ok := h.authorizeReservation(c)
	if !ok {
		return
	}

	var req dto.ModifyReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reservationSvc.Modify(c.Request.Context(), id, &req, ActorID(c))
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OK(c, result)
}

// ReassignTable 调整餐桌
// PUT /api/v1/reservations/:id/table
func (h *ReservationHandler) ReassignTable(c *gin.Context) {
	id, ok := h.authorizeReservation(c)
	if !ok {
		return
	}

	var req dto.ReassignTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reservationSvc.ReassignTable(c.Request.Context(), id, &req, ActorID(c))
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OK(c, result)
}

// ListAuditLogs 预订审计记录
// GET /api/v1/reservations/:id/audit-logs
func (h *ReservationHandler) ListAuditLogs(c *gin.Context) {
	id, ok := h.authorizeReservation(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	logs, total, err := h.reservationSvc.ListAuditLogs(c.Request.Context(), id, &page)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OKPage(c, logs, total, page.GetPage(), page.GetPageSize())
}

// ────────────────────── 状态流转 ──────────────────────

// ConfirmReservation POST /api/v1/reservations/:id/confirm
func (h *ReservationHandler) ConfirmReservation(c *gin.Context) {
	h.transition(c, h.lifecycleSvc.Confirm)
}

// SeatReservation POST /api/v1/reservations/:id/seat
func (h *ReservationHandler) SeatReservation(c *gin.Context) {
	h.transition(c, h.lifecycleSvc.Seat)
}

// CompleteReservation POST /api/v1/reservations/:id/complete
func (h *ReservationHandler) CompleteReservation(c *gin.Context) {
	h.transition(c, h.lifecycleSvc.Complete)
}

// MarkNoShow POST /api/v1/reservations/:id/no-show
func (h *ReservationHandler) MarkNoShow(c *gin.Context) {
	h.transition(c, h.lifecycleSvc.MarkNoShow)
}

// CancelReservation 取消预订（重复取消返回成功）
// POST /api/v1/reservations/:id/cancel
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	id, ok := h.authorizeReservation(c)
	if !ok {
		return
	}

	var req dto.CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.lifecycleSvc.Cancel(c.Request.Context(), id, ActorID(c), req.Reason)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OK(c, result)
}

type transitionFunc func(ctx context.Context, id, actorID string) (*dto.ReservationResponse, error)

func (h *ReservationHandler) transition(c *gin.Context, fn transitionFunc) {
	id, ok := h.authorizeReservation(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), id, ActorID(c))
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OK(c, result)
}

// authorizeReservation 校验路径参数，并确认员工有权操作该预订所属餐厅
func (h *ReservationHandler) authorizeReservation(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预订ID不能为空")
		return "", false
	}
	if scopedRestaurantID(c) == "" {
		return id, true
	}

	current, err := h.reservationSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleBookingError(c, err)
		return "", false
	}
	if !CheckRestaurantScope(c, current.RestaurantID) {
		return "", false
	}
	return id, true
}
