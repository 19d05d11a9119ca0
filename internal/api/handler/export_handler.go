package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/niasikh/2fork-knife-backend/internal/service"
	"github.com/niasikh/2fork-knife-backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportDaySheet 导出当日预订日程表
// GET /api/v1/restaurants/:id/export/day-sheet?date=2026-10-19
func (h *ExportHandler) ExportDaySheet(c *gin.Context) {
	restaurantID := c.Param("id")
	date := c.Query("date")
	if restaurantID == "" || date == "" {
		response.BadRequest(c, 10001, "餐厅ID与 date 不能为空")
		return
	}
	if !CheckRestaurantScope(c, restaurantID) {
		return
	}

	buf, filename, err := h.exportSvc.ExportDaySheet(c.Request.Context(), restaurantID, date)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setAttachment(c, filename)
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// ExportCalendar 下载预订日历文件
// GET /api/v1/reservations/confirmation/:code/calendar.ics
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 10001, "确认码不能为空")
		return
	}

	data, filename, err := h.exportSvc.ExportReservationICS(c.Request.Context(), code)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setAttachment(c, filename)
	c.Data(http.StatusOK, contentTypeICS, data)
}

func setAttachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrExportGenerateFail) {
		response.InternalError(c)
		return
	}
	handleBookingError(c, err)
}
