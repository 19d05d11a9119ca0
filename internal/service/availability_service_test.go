package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/niasikh/2fork-knife-backend/internal/booking"
	"github.com/niasikh/2fork-knife-backend/internal/dto"
	"github.com/niasikh/2fork-knife-backend/internal/model"
	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// ── 测试辅助 ──

func setupTestAvailabilityService(r *model.Restaurant) (AvailabilityService, ReservationService, *mockStore) {
	e, store, _ := setupTestEngine(r)
	return newAvailabilityService(e), newReservationService(e), store
}

// ── Check 测试 ──

func TestAvailabilityService_Check_Available(t *testing.T) {
	svc, _, store := setupTestAvailabilityService(testRestaurant(testTable("t1", "1", 2, 4)))

	result, err := svc.Check(context.Background(), testRestaurantID, &dto.AvailabilityQuery{
		Date: testMonday, Time: "19:00", PartySize: 2,
	})
	if err != nil {
		t.Fatalf("Check 应成功: %v", err)
	}
	if !result.Available {
		t.Fatalf("期望可订，实际原因=%s", result.Reason)
	}
	if result.Table == nil || result.Table.ID != "t1" {
		t.Errorf("期望候选餐桌 t1，实际=%+v", result.Table)
	}
	if result.Shift == nil || result.Shift.Name != "Dinner" || result.Shift.StartTime != "18:00" {
		t.Errorf("班次信息错误: %+v", result.Shift)
	}
	if len(store.reservations) != 0 {
		t.Error("可用性查询不应写入预订")
	}
}

func TestAvailabilityService_Check_Reasons(t *testing.T) {
	r := testRestaurant(testTable("t1", "1", 2, 4))
	r.Blocks = []model.Block{{
		BlockID:   "b1",
		StartDate: time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC),
		StartTime: strPtr("18:00:00"),
		EndTime:   strPtr("20:00:00"),
	}}
	svc, resv, _ := setupTestAvailabilityService(r)
	mustCreate(resv, "19:00", 2)

	tests := []struct {
		name   string
		date   string
		clock  string
		party  int
		reason string
	}{
		{"餐桌已占", testMonday, "20:00", 2, booking.ReasonNoTables},
		{"班次外", testMonday, "10:00", 2, booking.ReasonNoService},
		{"时段闭店", "2026-10-26", "19:00", 2, booking.ReasonClosed},
		{"超出预订窗口", "2027-01-04", "19:00", 2, booking.ReasonTooFar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Check(context.Background(), testRestaurantID, &dto.AvailabilityQuery{
				Date: tt.date, Time: tt.clock, PartySize: tt.party,
			})
			if err != nil {
				t.Fatalf("不可订应返回原因而非错误: %v", err)
			}
			if result.Available || result.Reason != tt.reason {
				t.Errorf("期望原因=%s，实际 available=%v reason=%s", tt.reason, result.Available, result.Reason)
			}
			if result.Message == "" {
				t.Error("不可订时应带描述")
			}
		})
	}

	// 闭店子窗口之外仍可订
	result, err := svc.Check(context.Background(), testRestaurantID, &dto.AvailabilityQuery{
		Date: "2026-10-26", Time: "20:00", PartySize: 2,
	})
	if err != nil || !result.Available {
		t.Errorf("闭店窗口外应可订: %+v, %v", result, err)
	}
}

func TestAvailabilityService_Check_InvalidInput(t *testing.T) {
	svc, _, _ := setupTestAvailabilityService(testRestaurant(testTable("t1", "1", 2, 4)))

	_, err := svc.Check(context.Background(), testRestaurantID, &dto.AvailabilityQuery{Date: "2026-13-01", Time: "19:00", PartySize: 2})
	if !errors.Is(err, pkgerrors.ErrInvalidInput) {
		t.Errorf("非法日期应返回 InvalidInput，实际: %v", err)
	}

	_, err = svc.Check(context.Background(), "rest-missing", &dto.AvailabilityQuery{Date: testMonday, Time: "19:00", PartySize: 2})
	if !errors.Is(err, ErrRestaurantNotFound) {
		t.Errorf("期望 ErrRestaurantNotFound，实际: %v", err)
	}
}

func TestAvailabilityService_Check_AmbiguousShift(t *testing.T) {
	r := testRestaurant(testTable("t1", "1", 2, 4))
	r.Shifts = append(r.Shifts, model.Shift{
		ShiftID: "shift-overlap", RestaurantID: testRestaurantID, Name: "Overlap", DayOfWeek: 1,
		StartTime: "21:00:00", EndTime: "23:00:00", SlotDurationMinutes: 30, IsActive: true,
	})
	svc, _, _ := setupTestAvailabilityService(r)

	_, err := svc.Check(context.Background(), testRestaurantID, &dto.AvailabilityQuery{Date: testMonday, Time: "21:30", PartySize: 2})
	if !errors.Is(err, booking.ErrAmbiguousShift) {
		t.Errorf("重叠班次应报配置错误，实际: %v", err)
	}
}

// ── ListSlots 测试 ──

func TestAvailabilityService_ListSlots(t *testing.T) {
	svc, resv, _ := setupTestAvailabilityService(testRestaurant(testTable("t1", "1", 2, 4)))
	mustCreate(resv, "19:00", 2)

	slots, err := svc.ListSlots(context.Background(), testRestaurantID, &dto.SlotsQuery{Date: testMonday, PartySize: 2})
	if err != nil {
		t.Fatalf("ListSlots 应成功: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("18:00-22:00 每 30 分钟一档，期望 8 个，实际=%d", len(slots))
	}

	available := map[string]bool{}
	for _, s := range slots {
		available[s.Time] = s.Available
		if !s.Available && s.Reason != booking.ReasonNoTables {
			t.Errorf("%s 期望原因 no_tables，实际=%s", s.Time, s.Reason)
		}
		if s.ShiftName != "Dinner" {
			t.Errorf("%s 班次名错误: %s", s.Time, s.ShiftName)
		}
	}
	for _, clock := range []string{"18:00", "18:30", "19:00", "19:30", "20:00", "20:30"} {
		if available[clock] {
			t.Errorf("%s 与 19:00 的预订重叠，应不可订", clock)
		}
	}
	for _, clock := range []string{"21:00", "21:30"} {
		if !available[clock] {
			t.Errorf("%s 应可订", clock)
		}
	}
}

func TestAvailabilityService_ListSlots_OvernightLabels(t *testing.T) {
	svc, _, _ := setupTestAvailabilityService(lateNightRestaurant())

	slots, err := svc.ListSlots(context.Background(), testRestaurantID, &dto.SlotsQuery{Date: testMonday, PartySize: 2})
	if err != nil {
		t.Fatalf("ListSlots 应成功: %v", err)
	}
	want := []string{"22:00", "22:30", "23:00", "23:30", "00:00", "00:30", "01:00", "01:30"}
	if len(slots) != len(want) {
		t.Fatalf("期望 %d 个时段，实际=%d", len(want), len(slots))
	}
	for i, s := range slots {
		if s.Time != want[i] {
			t.Errorf("第 %d 个时段期望 %s，实际=%s", i, want[i], s.Time)
		}
		if !s.Available {
			t.Errorf("%s 应可订，实际原因=%s", s.Time, s.Reason)
		}
	}
}

func TestAvailabilityService_ListSlots_ShiftFull(t *testing.T) {
	r := testRestaurant(testTable("t1", "1", 2, 4), testTable("t2", "2", 2, 4))
	r.Shifts[0].MaxCovers = intPtr(4)
	svc, resv, _ := setupTestAvailabilityService(r)
	mustCreate(resv, "18:00", 4)

	slots, err := svc.ListSlots(context.Background(), testRestaurantID, &dto.SlotsQuery{Date: testMonday, PartySize: 2})
	if err != nil {
		t.Fatalf("ListSlots 应成功: %v", err)
	}
	for _, s := range slots {
		if s.Available || s.Reason != booking.ReasonShiftFull {
			t.Errorf("%s 期望 shift_full，实际 available=%v reason=%s", s.Time, s.Available, s.Reason)
		}
	}
}

func TestAvailabilityService_ListSlots_ClosedDay(t *testing.T) {
	r := testRestaurant(testTable("t1", "1", 2, 4))
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	r.Blocks = []model.Block{{BlockID: "b1", StartDate: day, EndDate: day}}
	svc, _, _ := setupTestAvailabilityService(r)

	slots, err := svc.ListSlots(context.Background(), testRestaurantID, &dto.SlotsQuery{Date: testMonday, PartySize: 2})
	if err != nil {
		t.Fatalf("ListSlots 应成功: %v", err)
	}
	for _, s := range slots {
		if s.Reason != booking.ReasonClosed {
			t.Errorf("%s 期望 closed，实际=%s", s.Time, s.Reason)
		}
	}
}

// ── 配置缓存 ──

func TestAvailabilityService_SnapshotCache(t *testing.T) {
	store := newMockStore()
	store.restaurants[testRestaurantID] = testRestaurant(testTable("t1", "1", 2, 4))
	repo := store.repository()
	cache := newMockCache()

	cfg := testBookingConfig()
	cfg.ConfigCacheTTL = time.Minute
	e := newEngine(cfg, repo, cache, zap.NewNop())
	e.now = func() time.Time { return testNow }
	svc := newAvailabilityService(e)

	for i := 0; i < 3; i++ {
		result, err := svc.Check(context.Background(), testRestaurantID, &dto.AvailabilityQuery{
			Date: testMonday, Time: "19:00", PartySize: 2,
		})
		if err != nil || !result.Available {
			t.Fatalf("第 %d 次查询应可订: %+v, %v", i+1, result, err)
		}
	}

	if loads := repo.Restaurant.(*mockRestaurantRepo).loads; loads != 1 {
		t.Errorf("缓存命中后不应再读库，实际读库 %d 次", loads)
	}
	if cache.sets != 1 {
		t.Errorf("期望写缓存 1 次，实际=%d", cache.sets)
	}
}
