package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/niasikh/2fork-knife-backend/config"
	"github.com/niasikh/2fork-knife-backend/internal/dto"
	"github.com/niasikh/2fork-knife-backend/internal/model"
)

// ── 测试辅助 ──

// testNow 2026-10-18 为周日
var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

const (
	testRestaurantID = "rest-1"
	testMonday       = "2026-10-19"
	testActor        = "3f0c6a8e-8c1f-4f7e-9d55-0b4b3c1a2d10"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func testTable(id, number string, minSeats, maxSeats int) model.Table {
	return model.Table{
		TableID:      id,
		RestaurantID: testRestaurantID,
		AreaID:       "area-main",
		Number:       number,
		MinSeats:     minSeats,
		MaxSeats:     maxSeats,
		IsActive:     true,
	}
}

// testRestaurant 周一晚市 18:00-22:00，30 分钟一档，上限 20 人
func testRestaurant(tables ...model.Table) *model.Restaurant {
	return &model.Restaurant{
		RestaurantID: testRestaurantID,
		Name:         "Knife & Fork",
		Timezone:     "UTC",
		IsActive:     true,
		Policy: &model.Policy{
			RestaurantID:              testRestaurantID,
			MinAdvanceMinutes:         60,
			MaxAdvanceDays:            30,
			AllowModifications:        true,
			ModificationCutoffMinutes: 120,
			AutoConfirm:               true,
		},
		Shifts: []model.Shift{
			{
				ShiftID:             "shift-dinner",
				RestaurantID:        testRestaurantID,
				Name:                "Dinner",
				DayOfWeek:           1,
				StartTime:           "18:00:00",
				EndTime:             "22:00:00",
				SlotDurationMinutes: 30,
				MaxCovers:           intPtr(20),
				IsActive:            true,
			},
		},
		Tables: tables,
	}
}

// lateNightRestaurant 周一夜场 22:00-02:00，跨午夜
func lateNightRestaurant() *model.Restaurant {
	r := testRestaurant(testTable("t1", "1", 2, 4), testTable("t2", "2", 2, 4))
	r.Shifts = []model.Shift{
		{
			ShiftID:             "shift-late",
			RestaurantID:        testRestaurantID,
			Name:                "Late",
			DayOfWeek:           1,
			StartTime:           "22:00:00",
			EndTime:             "02:00:00",
			SlotDurationMinutes: 30,
			IsActive:            true,
		},
	}
	return r
}

func testBookingConfig() *config.BookingConfig {
	return &config.BookingConfig{
		ReservationDurationMinutes: 120,
		MaxAttempts:                3,
		RetryBaseDelay:             10 * time.Millisecond,
		LockTimeout:                500 * time.Millisecond,
	}
}

// sleepRecorder 记录退避时长，不真正等待
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func setupTestEngine(restaurants ...*model.Restaurant) (*engine, *mockStore, *sleepRecorder) {
	store := newMockStore()
	for _, r := range restaurants {
		store.restaurants[r.RestaurantID] = r
	}
	e := newEngine(testBookingConfig(), store.repository(), nil, zap.NewNop())
	e.now = func() time.Time { return testNow }
	rec := &sleepRecorder{}
	e.sleep = rec.sleep
	return e, store, rec
}

func setupTestReservationService(restaurants ...*model.Restaurant) (ReservationService, *engine, *mockStore) {
	e, store, _ := setupTestEngine(restaurants...)
	return newReservationService(e), e, store
}

func newCreateRequest(clock string, partySize int) *dto.CreateReservationRequest {
	return &dto.CreateReservationRequest{
		RestaurantID: testRestaurantID,
		Date:         testMonday,
		Time:         clock,
		PartySize:    partySize,
		Guest: dto.GuestInfo{
			Name:  "Ada Lovelace",
			Email: "ada@example.com",
			Phone: "+15550100",
		},
	}
}

// mustCreate 创建预订，失败时 panic（仅用于准备数据）
func mustCreate(svc ReservationService, clock string, partySize int) *dto.ReservationResponse {
	resp, err := svc.Create(context.Background(), newCreateRequest(clock, partySize), testActor)
	if err != nil {
		panic("准备预订失败: " + err.Error())
	}
	return resp
}
