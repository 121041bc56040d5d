package cart

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/RevoGrid/RevoGrid/internal/car"
	"github.com/google/uuid"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) (*Repo, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&car.Car{}, &Item{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepo(db), db
}

func TestAddAndListByUser(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	c := &car.Car{
		ID:           uuid.NewString(),
		Model:        "Symbol",
		PricePerDay:  45,
		LicensePlate: "200TN4521",
		Transmission: "manual",
		AgencyID:     uuid.NewString(),
		Availability: true,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed car: %v", err)
	}

	userID := uuid.NewString()
	item := &Item{ID: uuid.NewString(), UserID: userID, CarID: c.ID}
	if err := repo.Add(ctx, item); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// 重复加入被拒绝：冲突来自唯一索引，而不是先查后插
	dup := &Item{ID: uuid.NewString(), UserID: userID, CarID: c.ID}
	if err := repo.Add(ctx, dup); err != ErrAlreadyInCart {
		t.Fatalf("expected ErrAlreadyInCart, got %v", err)
	}

	views, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 cart item, got %d", len(views))
	}
	if views[0].Model != "Symbol" || views[0].PricePerDay != 45 {
		t.Fatalf("expected joined car fields, got %+v", views[0])
	}

	// 别人的购物车是空的
	other, err := repo.ListByUser(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("ListByUser(other): %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty cart for other user, got %d", len(other))
	}
}

func TestRemove(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	userID := uuid.NewString()
	carID := uuid.NewString()
	if err := repo.Add(ctx, &Item{ID: uuid.NewString(), UserID: userID, CarID: carID}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Remove(ctx, userID, carID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := repo.Remove(ctx, userID, carID); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound on second remove, got %v", err)
	}
}
