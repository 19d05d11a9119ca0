package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/niasikh/2fork-knife-backend/config"
	"github.com/niasikh/2fork-knife-backend/internal/api/handler"
	"github.com/niasikh/2fork-knife-backend/internal/dto"
	"github.com/niasikh/2fork-knife-backend/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-testing-2026"

type stubAvailability struct{}

func (stubAvailability) Check(_ context.Context, _ string, _ *dto.AvailabilityQuery) (*dto.AvailabilityResponse, error) {
	return &dto.AvailabilityResponse{Available: true}, nil
}
func (stubAvailability) ListSlots(_ context.Context, _ string, _ *dto.SlotsQuery) ([]dto.SlotResponse, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, MaxBodyBytes: 1 << 20},
		Auth:   config.AuthConfig{JWTSecret: testSecret, Issuer: "test-identity"},
	}
}

func setupRouter(ready ReadinessFunc) *gin.Engine {
	cfg := testConfig()
	h := &handler.Handler{
		Availability: handler.NewAvailabilityHandler(stubAvailability{}),
		Reservation:  handler.NewReservationHandler(nil, nil),
		Guest:        handler.NewGuestHandler(nil),
		Export:       handler.NewExportHandler(nil),
	}
	return Setup(cfg, h, jwt.NewManager(&cfg.Auth), nil, ready, zap.NewNop())
}

func guestToken(t *testing.T) string {
	t.Helper()
	now := time.Now()
	s, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwt.Claims{
		UserID:    "guest-1",
		Role:      jwt.RoleGuest,
		TokenType: "access",
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    "test-identity",
			ExpiresAt: jwtv5.NewNumericDate(now.Add(time.Minute)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("签名失败: %v", err)
	}
	return s
}

func TestRouter_Health(t *testing.T) {
	r := setupRouter(func(context.Context) error { return errors.New("db down") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when db is down, got %d", w.Code)
	}
}

func TestRouter_PublicAvailability(t *testing.T) {
	r := setupRouter(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/restaurants/rest-1/availability?date=2026-10-19&time=19:00&party_size=2", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRouter_StaffRoutesRequireRole(t *testing.T) {
	r := setupRouter(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/reservations", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/reservations/resv-1/seat", nil)
	req.Header.Set("Authorization", "Bearer "+guestToken(t))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for guest role, got %d", w.Code)
	}
}
