package rental

import (
	"math"
	"time"
)

// 可用性判断是纯函数：不读写存储，只看传入的区间。

// Overlaps 判断两个半开区间 [aStart, aEnd) 与 [bStart, bEnd) 是否重叠。
// 一条租约在另一条开始的瞬间结束不算重叠，背靠背预订是允许的。
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// IsBookable 请求区间与该车已有租约都不重叠时可订。
// 前置条件：end > start（由调用方先用 ComputePrice 校验时长）。
func IsBookable(start, end time.Time, existing []Rental) bool {
	for i := range existing {
		if Overlaps(existing[i].StartDate, existing[i].EndDate, start, end) {
			return false
		}
	}
	return true
}

// RentalDays 计费天数：时长向上取整到整天（26 小时按 2 天计）。
func RentalDays(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

// ComputePrice 按天数 * 日租金计价；天数 <= 0 返回 ErrInvalidDuration。
func ComputePrice(start, end time.Time, pricePerDay float64) (float64, error) {
	days := RentalDays(start, end)
	if days <= 0 {
		return 0, ErrInvalidDuration
	}
	return float64(days) * pricePerDay, nil
}
