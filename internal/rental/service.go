package rental

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/RevoGrid/RevoGrid/internal/car"
	"github.com/RevoGrid/RevoGrid/internal/common/logger"
	"github.com/RevoGrid/RevoGrid/internal/user"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Service 封装预订领域的核心用例（不依赖 HTTP），便于复用和测试。
type Service struct {
	db      *gorm.DB
	cars    *car.Repo
	rentals *Repo
	users   *user.Repo
	sched   *Scheduler
	log     logger.Logger

	// now 可注入，测试用
	now func() time.Time

	// 每辆车一把锁：重叠检查 + 落库在锁内完成，关掉 check-then-act 竞态。
	// 锁表与调度器共享，延迟恢复的条件写也在同一把锁内。
	locks *carLocks
}

func NewService(db *gorm.DB, log logger.Logger) *Service {
	cars := car.NewRepo(db)
	rentals := NewRepo(db)
	locks := newCarLocks()
	return &Service{
		db:      db,
		cars:    cars,
		rentals: rentals,
		users:   user.NewRepo(db),
		sched:   NewScheduler(cars, rentals, locks, log),
		log:     log,
		now:     time.Now,
		locks:   locks,
	}
}

func (s *Service) Repo() *Repo {
	return s.rentals
}

func (s *Service) Scheduler() *Scheduler {
	return s.sched
}

// CreateRentalInput 创建租约的入参。
type CreateRentalInput struct {
	CarID       string
	StartDate   time.Time
	EndDate     time.Time
	WithDriver  bool
	Destination string
}

// CreateRental 一次预订：鉴权 -> 校验 -> 查车 -> 重叠检查 -> 计价 ->
// 落库（租约 + 车辆标记一个事务）-> 挂延迟恢复。
func (s *Service) CreateRental(ctx context.Context, requestorID, requestorRole string, in CreateRentalInput) (*Rental, error) {
	if s == nil || s.db == nil {
		return nil, WrapStorage("service not initialized", nil)
	}

	if !strings.EqualFold(strings.TrimSpace(requestorRole), user.RoleClient) {
		return nil, E(KindForbidden, "Access denied. Only clients can create rentals.")
	}

	carID := strings.TrimSpace(in.CarID)
	if carID == "" || in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, E(KindInvalidInput, "Car ID, startDate, and endDate are required.")
	}

	// 整段 check-then-act 串行化（按车）
	lock := s.lockFor(carID)
	lock.Lock()
	defer lock.Unlock()

	rentedCar, err := s.cars.FindByID(ctx, carID)
	if err == gorm.ErrRecordNotFound {
		return nil, E(KindNotFound, "Car not found.")
	}
	if err != nil {
		return nil, WrapStorage("failed to load car", err)
	}

	overlapping, err := s.rentals.ListOverlapping(ctx, carID, in.StartDate, in.EndDate)
	if err != nil {
		return nil, WrapStorage("failed to check availability", err)
	}
	if len(overlapping) > 0 {
		return nil, E(KindConflict, "Car is already rented for the selected dates.")
	}

	price, err := ComputePrice(in.StartDate, in.EndDate, rentedCar.PricePerDay)
	if err != nil {
		return nil, err
	}

	// 结束时间已在过去：拒绝。放过去会造成永远无人恢复的 stuck 状态。
	if !in.EndDate.After(s.now()) {
		return nil, E(KindInvalidInput, "endDate is already in the past.")
	}

	rt := &Rental{
		ID:         uuid.NewString(),
		CarID:      carID,
		ClientID:   strings.TrimSpace(requestorID),
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		TotalPrice: price,
		WithDriver: in.WithDriver,
	}
	if in.WithDriver && strings.TrimSpace(in.Destination) != "" {
		rt.Destination = strings.TrimSpace(in.Destination)
	}

	// 租约落库和车辆标记翻转是一个单元：任一失败整体回滚，不留半截状态。
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := NewRepo(tx).Create(ctx, rt); err != nil {
			return errors.Wrap(err, "create rental")
		}
		if err := car.NewRepo(tx).SetAvailability(ctx, carID, false); err != nil {
			return errors.Wrap(err, "mark car unavailable")
		}
		return nil
	})
	if err != nil {
		return nil, WrapStorage("An error occurred while creating the rental.", err)
	}

	s.sched.Arm(carID, rt.ID, in.EndDate)

	return rt, nil
}

// ListUserRentals 客户自己的租约，最新的在前。
func (s *Service) ListUserRentals(ctx context.Context, clientID string) ([]ClientRentalView, error) {
	views, err := s.rentals.ListByClient(ctx, clientID)
	if err != nil {
		return nil, WrapStorage("An error occurred while fetching rentals.", err)
	}
	return views, nil
}

// CarRentalInfo 某辆车最近一条租约的可读摘要。
func (s *Service) CarRentalInfo(ctx context.Context, carID string) (*Info, error) {
	rt, err := s.rentals.LatestForCar(ctx, carID)
	if err == gorm.ErrRecordNotFound {
		return nil, E(KindNotFound, "No rental found for this car.")
	}
	if err != nil {
		return nil, WrapStorage("failed to load rental", err)
	}

	clientName := rt.ClientID
	if u, err := s.users.FindByID(ctx, rt.ClientID); err == nil {
		clientName = u.DisplayName()
	}
	carModel := rt.CarID
	if c, err := s.cars.FindByID(ctx, rt.CarID); err == nil {
		carModel = c.Model
	}

	const dateLayout = "02/01/2006"
	start := rt.StartDate.Format(dateLayout)
	end := rt.EndDate.Format(dateLayout)

	return &Info{
		Message:    clientName + " rented the car " + carModel + " from " + start + " to " + end,
		ClientName: clientName,
		CarModel:   carModel,
		StartDate:  start,
		EndDate:    end,
	}, nil
}

func (s *Service) lockFor(carID string) *sync.Mutex {
	return s.locks.lockFor(carID)
}
