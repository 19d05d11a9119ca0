package handler

import "github.com/niasikh/2fork-knife-backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Availability *AvailabilityHandler
	Reservation  *ReservationHandler
	Guest        *GuestHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Availability: NewAvailabilityHandler(svc.Availability),
		Reservation:  NewReservationHandler(svc.Reservation, svc.Lifecycle),
		Guest:        NewGuestHandler(svc.Guest),
		Export:       NewExportHandler(svc.Export),
	}
}
