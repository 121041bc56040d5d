package rental

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func at(h int) time.Time {
	return base.Add(time.Duration(h) * time.Hour)
}

func TestOverlaps(t *testing.T) {
	testCases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd int
		want                       bool
	}{
		{"disjoint before", 0, 24, 48, 72, false},
		{"disjoint after", 48, 72, 0, 24, false},
		{"back to back", 0, 24, 24, 48, false},
		{"back to back reversed", 24, 48, 0, 24, false},
		{"partial overlap", 0, 24, 12, 36, true},
		{"contained", 0, 48, 12, 24, true},
		{"containing", 12, 24, 0, 48, true},
		{"identical", 0, 24, 0, 24, true},
		{"one instant shared", 0, 24, 23, 25, true},
	}
	for _, tt := range testCases {
		got := Overlaps(at(tt.aStart), at(tt.aEnd), at(tt.bStart), at(tt.bEnd))
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestIsBookable(t *testing.T) {
	existing := []Rental{
		{CarID: "c-1", StartDate: at(0), EndDate: at(48)},
		{CarID: "c-1", StartDate: at(96), EndDate: at(120)},
	}

	// 与已有租约不相交（含背靠背）可订
	assert.True(t, IsBookable(at(48), at(96), existing))
	assert.True(t, IsBookable(at(120), at(144), existing))

	// 任意重叠不可订
	assert.False(t, IsBookable(at(24), at(36), existing))
	assert.False(t, IsBookable(at(40), at(100), existing))

	// 没有任何租约时可订
	assert.True(t, IsBookable(at(0), at(24), nil))
}

func TestRentalDays(t *testing.T) {
	testCases := []struct {
		hours        int
		expectedDays int
	}{
		{1, 1},
		{24, 1},
		{25, 2},
		{26, 2},
		{48, 2},
		{49, 3},
		{176, 8},
		{0, 0},
	}
	for _, tt := range testCases {
		assert.Equal(t, tt.expectedDays, RentalDays(at(0), at(tt.hours)))
	}
}

func TestComputePrice(t *testing.T) {
	rate := 50.0

	price, err := ComputePrice(at(0), at(24), rate)
	assert.NoError(t, err)
	assert.Equal(t, rate, price)

	price, err = ComputePrice(at(0), at(25), rate)
	assert.NoError(t, err)
	assert.Equal(t, 2*rate, price)

	// 时长越长价格单调不减
	prev := 0.0
	for h := 1; h <= 240; h += 7 {
		p, err := ComputePrice(at(0), at(h), rate)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, p, prev)
		prev = p
	}

	// end <= start 一律失败
	_, err = ComputePrice(at(24), at(24), rate)
	assert.ErrorIs(t, err, ErrInvalidDuration)
	_, err = ComputePrice(at(24), at(0), rate)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}
