package v2g

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Transaction{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepo(db)
}

func TestRound3(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.23456, 1.235},
		{1.2344, 1.234},
		{12.5 * 0.35, 4.375},
		{0, 0},
	}
	for _, tc := range cases {
		if got := Round3(tc.in); got != tc.want {
			t.Fatalf("Round3(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestStatsByUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.NewString()

	sales := []struct {
		kwh, price float64
	}{
		{10, 0.4},
		{25.5, 0.35},
		{5, 0.5},
	}
	var wantGain, wantEnergy float64
	for _, s := range sales {
		gain := Round3(s.kwh * s.price)
		wantGain += gain
		wantEnergy += s.kwh
		err := repo.Create(ctx, &Transaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			QuantityKwh: s.kwh,
			PricePerKwh: s.price,
			TotalGain:   gain,
			Status:      "completed",
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	// 别人的记录不计入
	err := repo.Create(ctx, &Transaction{
		ID: uuid.NewString(), UserID: uuid.NewString(),
		QuantityKwh: 100, PricePerKwh: 1, TotalGain: 100, Status: "completed",
	})
	if err != nil {
		t.Fatalf("Create(other): %v", err)
	}

	stats, err := repo.StatsByUser(ctx, userID)
	if err != nil {
		t.Fatalf("StatsByUser: %v", err)
	}
	if stats.TransactionCount != 3 {
		t.Fatalf("expected 3 transactions, got %d", stats.TransactionCount)
	}
	if stats.TotalGain != Round3(wantGain) {
		t.Fatalf("expected total gain %v, got %v", Round3(wantGain), stats.TotalGain)
	}
	if stats.TotalEnergy != Round3(wantEnergy) {
		t.Fatalf("expected total energy %v, got %v", Round3(wantEnergy), stats.TotalEnergy)
	}

	txs, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(txs))
	}
}

func TestStatsByUserEmpty(t *testing.T) {
	repo := newTestRepo(t)

	stats, err := repo.StatsByUser(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("StatsByUser: %v", err)
	}
	if stats.TransactionCount != 0 || stats.TotalGain != 0 || stats.TotalEnergy != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}
