package rental

import (
	"context"
	"sync"
	"testing"
	"time"
)

type stubFlagStore struct {
	mu    sync.Mutex
	value bool
}

func (s *stubFlagStore) SetAvailability(_ context.Context, _ string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = available
	return nil
}

func (s *stubFlagStore) get() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

type stubReader struct {
	mu     sync.Mutex
	latest *Rental
	active bool

	// afterActiveNow 在 ActiveNow 返回前调用，用来在恢复的读和写之间
	// 制造一个并发预订的窗口。
	afterActiveNow func()
}

func (r *stubReader) LatestForCar(_ context.Context, _ string) (*Rental, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest, nil
}

func (r *stubReader) ActiveNow(_ context.Context, _ string) (bool, error) {
	r.mu.Lock()
	active := r.active
	hook := r.afterActiveNow
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return active, nil
}

func (r *stubReader) set(latest *Rental, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = latest
	r.active = active
}

// 恢复写和并发预订必须走同一把车锁：预订不可能在恢复的读和写之间提交，
// 所以一个过期定时器永远盖不掉新预订刚写下的 false。
func TestRevertSerializedWithConcurrentBooking(t *testing.T) {
	const carID = "car-1"

	flags := &stubFlagStore{value: false}
	reader := &stubReader{latest: &Rental{ID: "r1", CarID: carID}}
	locks := newCarLocks()
	sched := NewScheduler(flags, reader, locks, nil)

	var once sync.Once
	bookingMayStart := make(chan struct{})
	bookingDone := make(chan struct{})

	// 恢复流程读完之后先别写，给预订一个抢进来的机会
	reader.afterActiveNow = func() {
		once.Do(func() { close(bookingMayStart) })
		time.Sleep(100 * time.Millisecond)
	}

	go func() {
		defer close(bookingDone)
		<-bookingMayStart
		// 预订路径的关键动作：车锁内提交新租约并把标记翻成 false
		lock := locks.lockFor(carID)
		lock.Lock()
		reader.set(&Rental{ID: "r2", CarID: carID}, true)
		_ = flags.SetAvailability(context.Background(), carID, false)
		lock.Unlock()
	}()

	if err := sched.revert(context.Background(), carID, "r1"); err != nil {
		t.Fatalf("revert: %v", err)
	}
	<-bookingDone

	if flags.get() {
		t.Fatalf("reversion overwrote a booking committed during it: availability must stay false")
	}
}
