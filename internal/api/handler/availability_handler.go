package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/niasikh/2fork-knife-backend/internal/dto"
	"github.com/niasikh/2fork-knife-backend/internal/service"
	"github.com/niasikh/2fork-knife-backend/pkg/response"
)

// AvailabilityHandler 可用性查询 HTTP 处理器（公开接口）
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// CheckAvailability 查询单个时刻能否预订
// GET /api/v1/restaurants/:id/availability?date=&time=&party_size=
func (h *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	restaurantID := c.Param("id")
	if restaurantID == "" {
		response.BadRequest(c, 10001, "餐厅ID不能为空")
		return
	}

	var req dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.availabilitySvc.Check(c.Request.Context(), restaurantID, &req)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OK(c, result)
}

// ListSlots 列出当日全部时段
// GET /api/v1/restaurants/:id/slots?date=&party_size=
func (h *AvailabilityHandler) ListSlots(c *gin.Context) {
	restaurantID := c.Param("id")
	if restaurantID == "" {
		response.BadRequest(c, 10001, "餐厅ID不能为空")
		return
	}

	var req dto.SlotsQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	slots, err := h.availabilitySvc.ListSlots(c.Request.Context(), restaurantID, &req)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": slots})
}
