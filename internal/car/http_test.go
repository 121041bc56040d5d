package car

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RevoGrid/RevoGrid/internal/common/auth"
	"github.com/RevoGrid/RevoGrid/internal/common/config"
	"github.com/RevoGrid/RevoGrid/internal/common/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// fakeGuard 模拟租约侧：哪些车被占用、哪些车不能删。
type fakeGuard struct {
	busy map[string]bool
}

func (g *fakeGuard) HasActiveOrUpcoming(_ context.Context, carID string) (bool, error) {
	return g.busy[carID], nil
}

func (g *fakeGuard) ActiveCarIDs(_ context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for id, b := range g.busy {
		if b {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func newTestHandler(t *testing.T, guard RentalGuard) (*gin.Engine, *Handler, config.AuthConfig) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Car{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	authCfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "revogrid",
		Audience:  "revogrid",
	}
	h := NewHandler(db, guard, nil)
	r := gin.New()
	h.RegisterRoutes(r, middleware.JWTAuth(authCfg, nil))
	return r, h, authCfg
}

func agencyBearer(t *testing.T, cfg config.AuthConfig, agencyID string) string {
	t.Helper()
	token, _, err := auth.GenerateAccessToken(cfg, agencyID, "agence", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func seedCarRow(t *testing.T, h *Handler, agencyID string) *Car {
	t.Helper()
	c := &Car{
		ID:           uuid.NewString(),
		Model:        "208",
		PricePerDay:  55,
		LicensePlate: uuid.NewString()[:12],
		Transmission: "automatic",
		AgencyID:     agencyID,
		Availability: true,
	}
	if err := h.Repo().Create(context.Background(), c); err != nil {
		t.Fatalf("seed car: %v", err)
	}
	return c
}

func TestDeleteCarRefusedWhileRented(t *testing.T) {
	guard := &fakeGuard{busy: map[string]bool{}}
	r, h, authCfg := newTestHandler(t, guard)

	agencyID := uuid.NewString()
	c := seedCarRow(t, h, agencyID)
	bearer := agencyBearer(t, authCfg, agencyID)

	// 有未结束租约：删除被拒绝
	guard.busy[c.ID] = true
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/cars/"+c.ID, nil)
	req.Header.Set("Authorization", bearer)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 while rented, got %d body=%s", w.Code, w.Body.String())
	}

	// 不是车主：403
	otherBearer := agencyBearer(t, authCfg, uuid.NewString())
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/cars/"+c.ID, nil)
	req.Header.Set("Authorization", otherBearer)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", w.Code)
	}

	// 租约结束后可以删
	guard.busy[c.ID] = false
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/cars/"+c.ID, nil)
	req.Header.Set("Authorization", bearer)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after rental ended, got %d body=%s", w.Code, w.Body.String())
	}

	if _, err := h.Repo().FindByID(context.Background(), c.ID); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected car gone, got %v", err)
	}
}

func TestEffectiveAvailabilityComesFromRentals(t *testing.T) {
	guard := &fakeGuard{busy: map[string]bool{}}
	r, h, _ := newTestHandler(t, guard)

	agencyID := uuid.NewString()
	c := seedCarRow(t, h, agencyID)

	// 缓存标记是 false（比如进程重启前留下的），但当前没有进行中的租约：
	// 对外可用性按租约现算，应该是 true。
	if err := h.Repo().SetAvailability(context.Background(), c.ID, false); err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cars/"+c.ID, nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var view struct {
		Availability bool `json:"availability"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !view.Availability {
		t.Fatalf("expected availability true when no rental is active")
	}

	// 有进行中的租约：不可用
	guard.busy[c.ID] = true
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/cars/"+c.ID, nil)
	r.ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Availability {
		t.Fatalf("expected availability false while rented")
	}
}
