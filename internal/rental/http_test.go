package rental

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RevoGrid/RevoGrid/internal/common/auth"
	"github.com/RevoGrid/RevoGrid/internal/common/config"
	"github.com/RevoGrid/RevoGrid/internal/common/middleware"
	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service, config.AuthConfig) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := newTestService(t)
	authCfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "revogrid",
		Audience:  "revogrid",
	}

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r, middleware.JWTAuth(authCfg, nil))
	return r, svc, authCfg
}

func bearerFor(t *testing.T, cfg config.AuthConfig, userID, role string) string {
	t.Helper()
	token, _, err := auth.GenerateAccessToken(cfg, userID, role, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func TestCreateRentalRoute(t *testing.T) {
	r, svc, authCfg := newTestRouter(t)

	c := seedCar(t, svc, 50)
	client := seedClient(t, svc)
	bearer := bearerFor(t, authCfg, client.ID, "client")

	start := time.Now().Add(24 * time.Hour).UTC()
	body, _ := json.Marshal(map[string]interface{}{
		"carId":     c.ID,
		"startDate": start.Format(time.RFC3339),
		"endDate":   start.Add(48 * time.Hour).Format(time.RFC3339),
	})

	// 没带 token：401
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rentals", bytes.NewReader(body))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	// 正常预订：201，价格 = 2 天 * 50
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/rentals", bytes.NewReader(body))
	req.Header.Set("Authorization", bearer)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		Rental struct {
			TotalPrice float64 `json:"totalPrice"`
		} `json:"rental"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Rental.TotalPrice != 100 {
		t.Fatalf("expected total price 100, got %v", created.Rental.TotalPrice)
	}

	// 同区间再订：400
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/rentals", bytes.NewReader(body))
	req.Header.Set("Authorization", bearer)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for overlapping booking, got %d body=%s", w.Code, w.Body.String())
	}

	// agence 角色：403
	agencyBearer := bearerFor(t, authCfg, "u-agency", "agence")
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/rentals", bytes.NewReader(body))
	req.Header.Set("Authorization", agencyBearer)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for agency role, got %d", w.Code)
	}

	// 不存在的车：404
	missing, _ := json.Marshal(map[string]interface{}{
		"carId":     "no-such-car",
		"startDate": start.Format(time.RFC3339),
		"endDate":   start.Add(24 * time.Hour).Format(time.RFC3339),
	})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/rentals", bytes.NewReader(missing))
	req.Header.Set("Authorization", bearer)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown car, got %d", w.Code)
	}
}

func TestListAndInfoRoutes(t *testing.T) {
	r, svc, authCfg := newTestRouter(t)

	c := seedCar(t, svc, 60)
	client := seedClient(t, svc)
	bearer := bearerFor(t, authCfg, client.ID, "client")

	start := time.Now().Add(24 * time.Hour)
	if _, err := svc.CreateRental(
		context.Background(),
		client.ID, "client",
		CreateRentalInput{CarID: c.ID, StartDate: start, EndDate: start.Add(24 * time.Hour)},
	); err != nil {
		t.Fatalf("seed rental: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rentals/user", nil)
	req.Header.Set("Authorization", bearer)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var listResp struct {
		Rentals []ClientRentalView `json:"rentals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.Rentals) != 1 || listResp.Rentals[0].CarModel != "Clio 4" {
		t.Fatalf("unexpected rentals payload: %+v", listResp.Rentals)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/rentals/car/%s", c.ID), nil)
	req.Header.Set("Authorization", bearer)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	// 没人租过的车：404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/rentals/car/no-such-car", nil)
	req.Header.Set("Authorization", bearer)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for car without rentals, got %d", w.Code)
	}
}
