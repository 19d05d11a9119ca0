package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/niasikh/2fork-knife-backend/internal/service"
	"github.com/niasikh/2fork-knife-backend/pkg/response"
)

// GuestHandler 顾客档案 HTTP 处理器
type GuestHandler struct {
	guestSvc service.GuestService
}

// NewGuestHandler 创建 GuestHandler
func NewGuestHandler(guestSvc service.GuestService) *GuestHandler {
	return &GuestHandler{guestSvc: guestSvc}
}

// GetGuest 获取顾客档案
// GET /api/v1/guests/:id
func (h *GuestHandler) GetGuest(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "顾客ID不能为空")
		return
	}

	guest, err := h.guestSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OK(c, guest)
}

// RecomputeStats 手工更正后重算统计
// POST /api/v1/guests/:id/recompute-stats
func (h *GuestHandler) RecomputeStats(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "顾客ID不能为空")
		return
	}

	guest, err := h.guestSvc.RecomputeStats(c.Request.Context(), id)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OK(c, guest)
}
