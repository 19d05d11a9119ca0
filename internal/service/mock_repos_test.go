package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/niasikh/2fork-knife-backend/internal/model"
	"github.com/niasikh/2fork-knife-backend/internal/repository"
	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// ── 共享内存存储 ──
// 所有 mock repo 共用一把锁，保证并发测试下的数据一致

type mockStore struct {
	mu           sync.Mutex
	restaurants  map[string]*model.Restaurant
	reservations map[string]*model.Reservation
	guests       map[string]*model.GuestProfile
	audits       []model.ReservationAuditLog
	seq          int

	// createErrs 依次注入到 Reservation.Create 的错误（模拟提交时冲突）
	createErrs []error
	// createCalls Reservation.Create 调用次数
	createCalls int

	locks *mockLockTable
}

func newMockStore() *mockStore {
	return &mockStore{
		restaurants:  make(map[string]*model.Restaurant),
		reservations: make(map[string]*model.Reservation),
		guests:       make(map[string]*model.GuestProfile),
		locks:        newMockLockTable(),
	}
}

func (s *mockStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// repository 组装指向本存储的 Repository 聚合
func (s *mockStore) repository() *repository.Repository {
	repo := &repository.Repository{
		Restaurant:  &mockRestaurantRepo{store: s},
		Reservation: &mockReservationRepo{store: s},
		Guest:       &mockGuestRepo{store: s},
		AuditLog:    &mockAuditLogRepo{store: s},
		Lock:        &mockTxLocker{table: s.locks},
	}
	repo.Tx = &mockTransactor{base: repo, locks: s.locks}
	return repo
}

func (s *mockStore) tableByID(restaurantID, tableID string) *model.Table {
	r, ok := s.restaurants[restaurantID]
	if !ok {
		return nil
	}
	for i := range r.Tables {
		if r.Tables[i].TableID == tableID {
			t := r.Tables[i]
			return &t
		}
	}
	return nil
}

// activeReservations 快照当前活跃预订（测试断言用）
func (s *mockStore) activeReservations() []model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if model.IsActiveStatus(r.Status) {
			out = append(out, *r)
		}
	}
	return out
}

func (s *mockStore) auditActions(reservationID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, a := range s.audits {
		if a.ReservationID == reservationID {
			out = append(out, a.Action)
		}
	}
	return out
}

// ── Mock Transactor / Locker ──

type mockTransactor struct {
	base  *repository.Repository
	locks *mockLockTable
}

// InTx 事务内的锁在 fn 返回后统一释放，对应 pg_advisory_xact_lock 语义
func (t *mockTransactor) InTx(_ context.Context, fn func(txRepo *repository.Repository) error) error {
	locker := &mockTxLocker{table: t.locks}
	txRepo := *t.base
	txRepo.Lock = locker
	defer locker.releaseAll()
	return fn(&txRepo)
}

type mockLockTable struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newMockLockTable() *mockLockTable {
	return &mockLockTable{slots: make(map[string]chan struct{})}
}

func (t *mockLockTable) slot(key string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		t.slots[key] = ch
	}
	return ch
}

type mockTxLocker struct {
	table *mockLockTable
	held  []string
}

func (l *mockTxLocker) Acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := l.table.slot(key)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		l.held = append(l.held, key)
		return nil
	case <-timer.C:
		return &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *mockTxLocker) releaseAll() {
	for _, key := range l.held {
		<-l.table.slot(key)
	}
	l.held = nil
}

// ── Mock RestaurantRepository ──

type mockRestaurantRepo struct {
	store *mockStore
	loads int
}

func (m *mockRestaurantRepo) GetSnapshot(_ context.Context, id string) (*model.Restaurant, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.loads++
	if r, ok := m.store.restaurants[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRestaurantRepo) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	return m.GetSnapshot(ctx, id)
}

// ── Mock ReservationRepository ──

type mockReservationRepo struct {
	store *mockStore
}

func sameDay(a, b time.Time) bool {
	return a.Format(model.DateLayout) == b.Format(model.DateLayout)
}

func (m *mockReservationRepo) Create(_ context.Context, r *model.Reservation) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++

	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return err
		}
	}

	for _, other := range s.reservations {
		if other.ConfirmationCode == r.ConfirmationCode {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_reservations_confirmation_code"}
		}
		// 对应 ex_reservations_table_overlap 排他约束
		if other.TableID == r.TableID && sameDay(other.ReservationDate, r.ReservationDate) &&
			model.IsActiveStatus(other.Status) && model.IsActiveStatus(r.Status) &&
			other.Overlaps(r.StartMinute, r.EndMinute) {
			return &pgconn.PgError{Code: "23P01", ConstraintName: "ex_reservations_table_overlap"}
		}
	}

	if r.ReservationID == "" {
		r.ReservationID = s.nextID("resv")
	}
	if r.Version == 0 {
		r.Version = 1
	}
	stored := *r
	stored.Table = nil
	s.reservations[r.ReservationID] = &stored
	return nil
}

func (m *mockReservationRepo) load(r *model.Reservation) *model.Reservation {
	out := *r
	out.Table = m.store.tableByID(r.RestaurantID, r.TableID)
	return &out
}

func (m *mockReservationRepo) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if r, ok := m.store.reservations[id]; ok {
		return m.load(r), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) GetByConfirmationCode(_ context.Context, code string) (*model.Reservation, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, r := range m.store.reservations {
		if r.ConfirmationCode == code {
			return m.load(r), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) List(_ context.Context, f repository.ReservationFilter, offset, limit int) ([]model.Reservation, int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var all []model.Reservation
	for _, r := range m.store.reservations {
		if f.RestaurantID != "" && r.RestaurantID != f.RestaurantID {
			continue
		}
		if f.GuestProfileID != "" && (r.GuestProfileID == nil || *r.GuestProfileID != f.GuestProfileID) {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		day := r.ReservationDate.Format(model.DateLayout)
		if f.StartDate != nil && day < f.StartDate.Format(model.DateLayout) {
			continue
		}
		if f.EndDate != nil && day > f.EndDate.Format(model.DateLayout) {
			continue
		}
		all = append(all, *m.load(r))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].ReservationDate.Equal(all[j].ReservationDate) {
			return all[i].ReservationDate.Before(all[j].ReservationDate)
		}
		return all[i].StartMinute < all[j].StartMinute
	})
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Reservation{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockReservationRepo) ListActiveByDate(_ context.Context, restaurantID string, date time.Time) ([]model.Reservation, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.store.reservations {
		if r.RestaurantID == restaurantID && sameDay(r.ReservationDate, date) && model.IsActiveStatus(r.Status) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReservationRepo) SumCovers(_ context.Context, restaurantID string, date time.Time, startMinute, endMinute int, excludeID string) (int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	total := 0
	for _, r := range m.store.reservations {
		if r.RestaurantID != restaurantID || !sameDay(r.ReservationDate, date) || !model.IsActiveStatus(r.Status) {
			continue
		}
		if r.ReservationID == excludeID {
			continue
		}
		if r.StartMinute >= startMinute && r.StartMinute < endMinute {
			total += r.PartySize
		}
	}
	return total, nil
}

func (m *mockReservationRepo) TransitionStatus(_ context.Context, id, from, to string, fields map[string]interface{}) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	r, ok := m.store.reservations[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.Version++
	for k, v := range fields {
		switch k {
		case "confirmed_at":
			t := v.(time.Time)
			r.ConfirmedAt = &t
		case "seated_at":
			t := v.(time.Time)
			r.SeatedAt = &t
		case "completed_at":
			t := v.(time.Time)
			r.CompletedAt = &t
		case "cancelled_at":
			t := v.(time.Time)
			r.CancelledAt = &t
		case "cancellation_reason":
			r.CancellationReason = v.(string)
		}
	}
	return true, nil
}

func (m *mockReservationRepo) UpdateSlot(_ context.Context, r *model.Reservation) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	stored, ok := m.store.reservations[r.ReservationID]
	if !ok || stored.Version != r.Version || !model.IsActiveStatus(stored.Status) {
		return pkgerrors.ErrOptimisticLock
	}
	for _, other := range m.store.reservations {
		if other.ReservationID != r.ReservationID && other.TableID == r.TableID &&
			sameDay(other.ReservationDate, r.ReservationDate) && model.IsActiveStatus(other.Status) &&
			other.Overlaps(r.StartMinute, r.EndMinute) {
			return &pgconn.PgError{Code: "23P01", ConstraintName: "ex_reservations_table_overlap"}
		}
	}
	r.Version++
	updated := *r
	updated.Table = nil
	m.store.reservations[r.ReservationID] = &updated
	return nil
}

func (m *mockReservationRepo) ListCompletedByGuest(_ context.Context, guestID string) ([]model.Reservation, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.store.reservations {
		if r.GuestProfileID != nil && *r.GuestProfileID == guestID && r.Status == model.StatusCompleted {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReservationRepo) ListDue(_ context.Context, restaurantID string, date time.Time, beforeMinute int) ([]model.Reservation, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.store.reservations {
		if r.RestaurantID == restaurantID && sameDay(r.ReservationDate, date) &&
			r.Status == model.StatusConfirmed && r.StartMinute < beforeMinute {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMinute < out[j].StartMinute })
	return out, nil
}

// ── Mock GuestRepository ──

type mockGuestRepo struct {
	store *mockStore
}

func (m *mockGuestRepo) Create(_ context.Context, g *model.GuestProfile) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if g.GuestProfileID == "" {
		g.GuestProfileID = m.store.nextID("guest")
	}
	stored := *g
	m.store.guests[g.GuestProfileID] = &stored
	return nil
}

func (m *mockGuestRepo) GetByID(_ context.Context, id string) (*model.GuestProfile, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if g, ok := m.store.guests[id]; ok {
		out := *g
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGuestRepo) FindByContact(_ context.Context, email, phone string) (*model.GuestProfile, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, g := range m.store.guests {
		if (email != "" && strings.EqualFold(g.Email, email)) || (phone != "" && g.Phone == phone) {
			out := *g
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGuestRepo) UpdateStats(_ context.Context, id string, stats model.GuestStats) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	g, ok := m.store.guests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	g.TotalVisits = stats.TotalVisits
	g.AvgPartySize = stats.AvgPartySize
	g.LastVisitDate = stats.LastVisitDate
	return nil
}

func (m *mockGuestRepo) IncrementNoShow(_ context.Context, id string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if g, ok := m.store.guests[id]; ok {
		g.NoShowCount++
	}
	return nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	store *mockStore
}

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.ReservationAuditLog) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if log.AuditLogID == "" {
		log.AuditLogID = m.store.nextID("audit")
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	m.store.audits = append(m.store.audits, *log)
	return nil
}

func (m *mockAuditLogRepo) ListByReservation(_ context.Context, reservationID string, offset, limit int) ([]model.ReservationAuditLog, int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var all []model.ReservationAuditLog
	for _, a := range m.store.audits {
		if a.ReservationID == reservationID {
			all = append(all, a)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return []model.ReservationAuditLog{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock SnapshotCache ──

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *mockCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}
