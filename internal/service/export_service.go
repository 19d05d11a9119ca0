package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/niasikh/2fork-knife-backend/internal/booking"
	"github.com/niasikh/2fork-knife-backend/internal/model"
	"github.com/niasikh/2fork-knife-backend/internal/repository"
	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("failed to generate export file")
	ErrExportNotActive    = pkgerrors.New(pkgerrors.KindInvalidTransition, "reservation_inactive",
		"calendar files are only available for active reservations")
)

// daySheetLimit 单日导出上限
const daySheetLimit = 2000

// ExportService 导出业务接口
//
// 设计说明：
//   - 日程表导出为 Excel (.xlsx)，按开始时间排序，不含已取消预订
//   - 日历文件为单个 VEVENT 的 .ics，时间按餐厅时区换算
//   - 导出内容以字节返回，由 Handler 层设置响应头后写入
type ExportService interface {
	// ExportDaySheet 导出某服务日的预订日程表
	ExportDaySheet(ctx context.Context, restaurantID, date string) (*bytes.Buffer, string, error)
	// ExportReservationICS 按确认码生成日历文件
	ExportReservationICS(ctx context.Context, code string) ([]byte, string, error)
}

type exportService struct {
	*engine
}

// newExportService 创建 ExportService 实例
func newExportService(e *engine) ExportService {
	return &exportService{engine: e}
}

// ═══════════════════════════════════════════════════════════
// ExportDaySheet — 当日预订日程表
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：餐厅名 + 日期
//   - 表头：Time | End | Table | Party | Guest | Phone | Status | Code | Requests
//   - 末行：当日人数合计

func (s *exportService) ExportDaySheet(ctx context.Context, restaurantID, date string) (*bytes.Buffer, string, error) {
	day, err := booking.ParseDate(date)
	if err != nil {
		return nil, "", err
	}
	venue, err := s.snapshots.Load(ctx, restaurantID)
	if err != nil {
		return nil, "", err
	}

	list, _, err := s.repo.Reservation.List(ctx, repository.ReservationFilter{
		RestaurantID: restaurantID,
		StartDate:    &day,
		EndDate:      &day,
	}, 0, daySheetLimit)
	if err != nil {
		s.logger.Error("查询当日预订失败", zap.String("restaurant_id", restaurantID), zap.Error(err))
		return nil, "", err
	}

	tableNumbers := make(map[string]string, len(venue.Tables))
	for _, t := range venue.Tables {
		tableNumbers[t.TableID] = t.Number
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Day Sheet"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headers := []string{"Time", "End", "Table", "Party", "Guest", "Phone", "Status", "Code", "Requests"}
	widths := []float64{8, 8, 8, 7, 24, 16, 12, 12, 40}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s - %s", venue.Name, day.Format(model.DateLayout)))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(headers)-1), 2), headerStyle)

	// 数据行
	row := 3
	covers := 0
	for i := range list {
		r := &list[i]
		if r.Status == model.StatusCancelled {
			continue
		}
		values := []interface{}{
			r.StartTime, r.EndTime, tableNumbers[r.TableID], r.PartySize,
			r.GuestName, r.GuestPhone, r.Status, r.ConfirmationCode, r.SpecialRequests,
		}
		for c, v := range values {
			f.SetCellValue(sheetName, cell(colName(c), row), v)
		}
		if model.IsActiveStatus(r.Status) || r.Status == model.StatusCompleted {
			covers += r.PartySize
		}
		row++
	}

	f.SetCellValue(sheetName, cell("C", row+1), "Covers")
	f.SetCellValue(sheetName, cell("D", row+1), covers)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("day-sheet_%s.xlsx", day.Format(model.DateLayout))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportReservationICS — 预订日历文件
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportReservationICS(ctx context.Context, code string) ([]byte, string, error) {
	r, err := s.repo.Reservation.GetByConfirmationCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, "", s.mapNotFound(err, code)
	}
	if !model.IsActiveStatus(r.Status) {
		return nil, "", ErrExportNotActive
	}
	venue, err := s.snapshots.Load(ctx, r.RestaurantID)
	if err != nil {
		return nil, "", err
	}

	loc := venue.Location()
	start := booking.TargetInstant(r.ReservationDate, r.StartMinute, loc)
	end := booking.TargetInstant(r.ReservationDate, r.EndMinute, loc)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//2fork-knife//reservation-engine//EN")

	event := cal.AddEvent(r.ConfirmationCode + "@2fork-knife")
	event.SetDtStampTime(s.now().UTC())
	event.SetStartAt(start.UTC())
	event.SetEndAt(end.UTC())
	event.SetSummary(fmt.Sprintf("Reservation at %s (party of %d)", venue.Name, r.PartySize))
	event.SetLocation(venue.Name)
	event.SetDescription(fmt.Sprintf("Confirmation code: %s\nStatus: %s", r.ConfirmationCode, r.Status))
	if r.Status == model.StatusPending {
		event.SetStatus(ics.ObjectStatusTentative)
	} else {
		event.SetStatus(ics.ObjectStatusConfirmed)
	}

	filename := fmt.Sprintf("reservation_%s.ics", r.ConfirmationCode)
	return []byte(cal.Serialize()), filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
