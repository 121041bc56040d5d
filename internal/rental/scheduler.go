package rental

import (
	"context"
	"sync"
	"time"

	"github.com/RevoGrid/RevoGrid/internal/common/logger"
	"github.com/RevoGrid/RevoGrid/internal/common/middleware"
	"gorm.io/gorm"
)

// carFlagStore / rentalReader 把调度器对存储的依赖缩到最小，方便测试替身。
type carFlagStore interface {
	SetAvailability(ctx context.Context, id string, available bool) error
}

type rentalReader interface {
	LatestForCar(ctx context.Context, carID string) (*Rental, error)
	ActiveNow(ctx context.Context, carID string) (bool, error)
}

// Scheduler 延迟恢复调度器：每个成功的预订挂一个一次性定时器，
// 到租约结束时间把车辆可用标记改回 true。
//
// 定时器只活在进程内，不落盘。进程重启丢定时器时，读取侧会按
// “当前无进行中租约”现算可用性兜底（见 car 包的视图逻辑）。
// 没有取消路径：租约不可变，定时器也就不需要撤销。
type Scheduler struct {
	cars    carFlagStore
	rentals rentalReader
	locks   *carLocks // 与 Service 共享的车锁表
	breaker *middleware.CircuitBreaker
	log     logger.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer // key: rentalID
}

func NewScheduler(cars carFlagStore, rentals rentalReader, locks *carLocks, log logger.Logger) *Scheduler {
	return &Scheduler{
		cars:    cars,
		rentals: rentals,
		locks:   locks,
		breaker: middleware.NewCircuitBreaker("availability-revert", 5, 30*time.Second),
		log:     log,
		timers:  make(map[string]*time.Timer),
	}
}

// Arm 给 (carID, rentalID) 挂一次性定时器。endAt 已过期时不挂（数据异常，只告警）。
func (s *Scheduler) Arm(carID, rentalID string, endAt time.Time) {
	delay := time.Until(endAt)
	if delay <= 0 {
		if s.log != nil {
			s.log.Warnf("refusing to arm reversion in the past: car=%s rental=%s end=%s", carID, rentalID, endAt)
		}
		return
	}

	s.mu.Lock()
	s.timers[rentalID] = time.AfterFunc(delay, func() {
		s.fire(carID, rentalID)
	})
	s.mu.Unlock()
}

// Pending 当前挂着的定时器数。
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop 停掉所有定时器（进程退出用）。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) fire(carID, rentalID string) {
	s.mu.Lock()
	delete(s.timers, rentalID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 存储层连续失败时熔断，避免反复打一个挂掉的库。
	// 失败只记日志不重试：此时已无请求方可接收错误。
	err := s.breaker.Call(ctx, func() error {
		return s.revert(ctx, carID, rentalID)
	})
	if err != nil {
		if s.log != nil {
			s.log.Errorf("availability reversion failed: car=%s rental=%s err=%v", carID, rentalID, err)
		}
		return
	}
	if s.log != nil {
		s.log.Infof("car %s is now available again", carID)
	}
}

// revert 条件恢复：只有当触发的租约仍是该车最新一条、且此刻没有别的租约
// 占用时才把标记改回 true，防止过期定时器覆盖后来预订写下的 false。
//
// 整个读-判断-写持有该车的锁。预订走同一把锁，新预订不可能在这里的
// 读和写之间提交，写 true 不会盖掉并发预订刚写下的 false。
func (s *Scheduler) revert(ctx context.Context, carID, rentalID string) error {
	if s.locks != nil {
		lock := s.locks.lockFor(carID)
		lock.Lock()
		defer lock.Unlock()
	}

	latest, err := s.rentals.LatestForCar(ctx, carID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if latest != nil && latest.ID != rentalID {
		// 已有更新的预订，这个定时器过期了，什么都不做
		return nil
	}

	active, err := s.rentals.ActiveNow(ctx, carID)
	if err != nil {
		return err
	}
	if active {
		return nil
	}

	return s.cars.SetAvailability(ctx, carID, true)
}
