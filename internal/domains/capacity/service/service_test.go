package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tripcore/config"
	"tripcore/infras/otel/mocks"
	"tripcore/internal/domains/capacity/holds"
	holdsMocks "tripcore/internal/domains/capacity/holds/mocks"
	capacityMocks "tripcore/internal/domains/capacity/mocks"
	"tripcore/internal/domains/capacity/model"
	"tripcore/internal/domains/capacity/model/dto"
	"tripcore/internal/domains/capacity/repository"
	"tripcore/internal/domains/capacity/service"
	"tripcore/shared/cache"
	cacheMocks "tripcore/shared/cache/mocks"
	"tripcore/shared/failure"
	gModel "tripcore/shared/model"
	"tripcore/shared/timezone"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	cfg.Booking.HoldTTLSeconds = 900
	cfg.Booking.Currency = "EUR"

	return cfg
}

func openRecord(total, booked, reserved int) model.Record {
	return model.Record{
		ID:               "cap-id-1",
		ResourceID:       "tour-alhambra",
		Date:             timezone.Now().AddDate(0, 1, 0),
		TotalCapacity:    total,
		BookedCapacity:   booked,
		ReservedCapacity: reserved,
		BasePrice:        25.00,
		PriceMultiplier:  1.0,
		MinBooking:       1,
		MaxBooking:       10,
		CutoffHours:      24,
		IsActive:         true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  "system",
			ModifiedBy: "system",
		},
	}
}

func TestAvailabilityService_Check(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := capacityMocks.NewMockCapacity(ctrl)
	mockHolds := holdsMocks.NewMockStore(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil).AnyTimes()
	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(mockRepo, mockHolds, testConfig(), mockCache, mockOtel)

	futureDate := timezone.Now().AddDate(0, 1, 0).Format("2006-01-02")

	tests := []struct {
		name          string
		req           dto.CheckAvailabilityRequest
		setupMock     func()
		wantErr       bool
		wantAvailable bool
		wantReason    string
	}{
		{
			name: "available with enough capacity",
			req: dto.CheckAvailabilityRequest{
				ResourceID: "tour-alhambra",
				Date:       futureDate,
				Quantity:   4,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(openRecord(10, 3, 2), nil)
			},
			wantAvailable: true,
		},
		{
			name: "quantity exceeds remaining capacity",
			req: dto.CheckAvailabilityRequest{
				ResourceID: "tour-alhambra",
				Date:       futureDate,
				Quantity:   6,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(openRecord(10, 3, 2), nil)
			},
			wantAvailable: false,
			wantReason:    dto.ReasonNotEnough,
		},
		{
			name: "no record published for the date",
			req: dto.CheckAvailabilityRequest{
				ResourceID: "tour-alhambra",
				Date:       futureDate,
				Quantity:   1,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Record{}, failure.NotFound("capacity record"))
			},
			wantAvailable: false,
			wantReason:    dto.ReasonNoRecord,
		},
		{
			name: "inactive record",
			req: dto.CheckAvailabilityRequest{
				ResourceID: "tour-alhambra",
				Date:       futureDate,
				Quantity:   1,
			},
			setupMock: func() {
				record := openRecord(10, 0, 0)
				record.IsActive = false

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(record, nil)
			},
			wantAvailable: false,
			wantReason:    dto.ReasonInactiveSlot,
		},
		{
			name: "sold out",
			req: dto.CheckAvailabilityRequest{
				ResourceID: "tour-alhambra",
				Date:       futureDate,
				Quantity:   1,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(openRecord(10, 8, 2), nil)
			},
			wantAvailable: false,
			wantReason:    dto.ReasonNotBookable,
		},
		{
			name: "validation failure on missing resource",
			req: dto.CheckAvailabilityRequest{
				Date:     futureDate,
				Quantity: 1,
			},
			setupMock: func() {},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := svc.Check(context.Background(), tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantAvailable, res.Available)
			assert.Equal(t, tt.wantReason, res.Reason)
		})
	}
}

func TestAvailabilityService_Check_DerivedCapacity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := capacityMocks.NewMockCapacity(ctrl)
	mockHolds := holdsMocks.NewMockStore(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil).AnyTimes()
	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	mockRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(openRecord(10, 3, 2), nil)

	svc := service.New(mockRepo, mockHolds, testConfig(), mockCache, mockOtel)

	res, err := svc.Check(context.Background(), dto.CheckAvailabilityRequest{
		ResourceID: "tour-alhambra",
		Date:       timezone.Now().AddDate(0, 1, 0).Format("2006-01-02"),
		Quantity:   1,
	})

	assert.NoError(t, err)
	assert.NotNil(t, res.Capacity)
	assert.Equal(t, 5, res.Capacity.Available)
	assert.NotNil(t, res.Pricing)
	assert.Equal(t, 25.00, res.Pricing.FinalPrice)
}

func TestAvailabilityService_Reserve(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := capacityMocks.NewMockCapacity(ctrl)
	mockHolds := holdsMocks.NewMockStore(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(mockRepo, mockHolds, testConfig(), mockCache, mockOtel)

	futureDate := timezone.Now().AddDate(0, 1, 0).Format("2006-01-02")

	tests := []struct {
		name      string
		req       dto.ReserveSlotRequest
		setupMock func()
		wantErr   bool
		checkErr  func(t *testing.T, err error)
	}{
		{
			name: "successful reservation",
			req: dto.ReserveSlotRequest{
				BookingID:  "booking-1",
				ResourceID: "tour-alhambra",
				Date:       futureDate,
				Quantity:   2,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(openRecord(10, 3, 2), nil)

				mockRepo.EXPECT().
					Adjust(gomock.Any(), gomock.Any(), model.AdjustDelta{Reserved: 2}).
					Return(openRecord(10, 3, 4), nil)

				mockHolds.EXPECT().
					Put(gomock.Any(), gomock.Any(), 900).
					Return(nil)
			},
		},
		{
			name: "insufficient capacity",
			req: dto.ReserveSlotRequest{
				BookingID:  "booking-2",
				ResourceID: "tour-alhambra",
				Date:       futureDate,
				Quantity:   8,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(openRecord(10, 3, 2), nil)
			},
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				assert.True(t, failure.IsInsufficientCapacity(err))
			},
		},
		{
			name: "concurrent adjustment loses the race",
			req: dto.ReserveSlotRequest{
				BookingID:  "booking-3",
				ResourceID: "tour-alhambra",
				Date:       futureDate,
				Quantity:   4,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(openRecord(10, 3, 2), nil)

				mockRepo.EXPECT().
					Adjust(gomock.Any(), gomock.Any(), model.AdjustDelta{Reserved: 4}).
					Return(model.Record{}, failure.InsufficientCapacity("capacity adjustment rejected: insufficient remaining capacity"))
			},
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				assert.True(t, failure.IsInsufficientCapacity(err))
			},
		},
		{
			name: "quantity above maximum per booking",
			req: dto.ReserveSlotRequest{
				BookingID:  "booking-4",
				ResourceID: "tour-alhambra",
				Date:       futureDate,
				Quantity:   11,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(openRecord(100, 0, 0), nil)
			},
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				assert.True(t, failure.IsValidation(err))
			},
		},
		{
			name: "hold write failure does not fail the reservation",
			req: dto.ReserveSlotRequest{
				BookingID:  "booking-5",
				ResourceID: "tour-alhambra",
				Date:       futureDate,
				Quantity:   1,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(openRecord(10, 3, 2), nil)

				mockRepo.EXPECT().
					Adjust(gomock.Any(), gomock.Any(), model.AdjustDelta{Reserved: 1}).
					Return(openRecord(10, 3, 3), nil)

				mockHolds.EXPECT().
					Put(gomock.Any(), gomock.Any(), 900).
					Return(errors.New("redis unavailable"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := svc.Reserve(context.Background(), tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				if tt.checkErr != nil {
					tt.checkErr(t, err)
				}

				return
			}

			assert.NoError(t, err)
			assert.False(t, res.ExpiresAt.IsZero())
		})
	}

	// let the async cache invalidations drain before the controller finishes
	time.Sleep(50 * time.Millisecond)
}

func TestAvailabilityService_Confirm(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := capacityMocks.NewMockCapacity(ctrl)
	mockHolds := holdsMocks.NewMockStore(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(mockRepo, mockHolds, testConfig(), mockCache, mockOtel)

	hold := model.Hold{
		BookingID:  "booking-1",
		ResourceID: "tour-alhambra",
		Date:       timezone.Now().AddDate(0, 1, 0),
		Quantity:   2,
		ExpiresAt:  timezone.Now().Add(15 * time.Minute),
	}

	tests := []struct {
		name      string
		setupMock func()
		wantErr   bool
		checkErr  func(t *testing.T, err error)
	}{
		{
			name: "live hold converts reserved into booked",
			setupMock: func() {
				mockHolds.EXPECT().
					Get(gomock.Any(), "booking-1").
					Return(hold, nil)

				mockRepo.EXPECT().
					Adjust(gomock.Any(), hold.Key(), model.AdjustDelta{Booked: 2, Reserved: -2}).
					Return(openRecord(10, 5, 0), nil)

				mockHolds.EXPECT().
					Delete(gomock.Any(), "booking-1").
					Return(nil)
			},
		},
		{
			name: "expired hold",
			setupMock: func() {
				mockHolds.EXPECT().
					Get(gomock.Any(), "booking-1").
					Return(model.Hold{}, cache.Nil)
			},
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				assert.True(t, failure.IsReservationExpired(err))
			},
		},
		{
			name: "unreachable hold store is not treated as expiry",
			setupMock: func() {
				mockHolds.EXPECT().
					Get(gomock.Any(), "booking-1").
					Return(model.Hold{}, errors.New("connection refused"))
			},
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				assert.False(t, failure.IsReservationExpired(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := svc.Confirm(context.Background(), "booking-1")
			if tt.wantErr {
				assert.Error(t, err)
				if tt.checkErr != nil {
					tt.checkErr(t, err)
				}

				return
			}

			assert.NoError(t, err)
		})
	}

	time.Sleep(50 * time.Millisecond)
}

func TestAvailabilityService_Release(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := capacityMocks.NewMockCapacity(ctrl)
	mockHolds := holdsMocks.NewMockStore(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(mockRepo, mockHolds, testConfig(), mockCache, mockOtel)

	hold := model.Hold{
		BookingID:  "booking-1",
		ResourceID: "tour-alhambra",
		Date:       timezone.Now().AddDate(0, 1, 0),
		Quantity:   3,
	}

	t.Run("release returns reserved capacity", func(t *testing.T) {
		mockHolds.EXPECT().
			Get(gomock.Any(), "booking-1").
			Return(hold, nil)

		mockRepo.EXPECT().
			ReleaseReserved(gomock.Any(), hold.Key(), 3).
			Return(nil)

		mockHolds.EXPECT().
			Delete(gomock.Any(), "booking-1").
			Return(nil)

		assert.NoError(t, svc.Release(context.Background(), "booking-1", hold.Key(), 3))
	})

	t.Run("hold already gone falls back to the booking key", func(t *testing.T) {
		mockHolds.EXPECT().
			Get(gomock.Any(), "booking-1").
			Return(model.Hold{}, cache.Nil)

		mockRepo.EXPECT().
			ReleaseReserved(gomock.Any(), hold.Key(), 3).
			Return(nil)

		assert.NoError(t, svc.Release(context.Background(), "booking-1", hold.Key(), 3))
	})

	t.Run("unreachable hold store falls back to the booking key", func(t *testing.T) {
		mockHolds.EXPECT().
			Get(gomock.Any(), "booking-1").
			Return(model.Hold{}, errors.New("connection refused"))

		mockRepo.EXPECT().
			ReleaseReserved(gomock.Any(), hold.Key(), 3).
			Return(nil)

		assert.NoError(t, svc.Release(context.Background(), "booking-1", hold.Key(), 3))
	})

	time.Sleep(50 * time.Millisecond)
}

// fakeCapacityRepo applies the same guards the SQL adjustment uses, behind a
// mutex, so concurrent reservations can be exercised in-process.
type fakeCapacityRepo struct {
	mu     sync.Mutex
	record model.Record
}

var _ repository.Capacity = (*fakeCapacityRepo)(nil)

func (f *fakeCapacityRepo) Get(_ context.Context, _ model.Key) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.record, nil
}

func (f *fakeCapacityRepo) Adjust(_ context.Context, _ model.Key, delta model.AdjustDelta) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	booked := f.record.BookedCapacity + delta.Booked
	reserved := f.record.ReservedCapacity + delta.Reserved
	if booked < 0 || reserved < 0 || f.record.TotalCapacity-booked-reserved < 0 {
		return model.Record{}, failure.InsufficientCapacity("capacity adjustment rejected: insufficient remaining capacity")
	}

	f.record.BookedCapacity = booked
	f.record.ReservedCapacity = reserved

	return f.record, nil
}

func (f *fakeCapacityRepo) ReleaseReserved(_ context.Context, _ model.Key, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record.ReservedCapacity -= quantity
	if f.record.ReservedCapacity < 0 {
		f.record.ReservedCapacity = 0
	}

	return nil
}

func (f *fakeCapacityRepo) Unbook(_ context.Context, _ model.Key, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record.BookedCapacity -= quantity
	if f.record.BookedCapacity < 0 {
		f.record.BookedCapacity = 0
	}

	return nil
}

func (f *fakeCapacityRepo) FindRange(_ context.Context, _ string, _, _ time.Time) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return []model.Record{f.record}, nil
}

func TestAvailabilityService_ConcurrentReservations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil).AnyTimes()
	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	repo := &fakeCapacityRepo{record: openRecord(10, 0, 0)}
	store := holds.New(mockCache, mockOtel)
	svc := service.New(repo, store, testConfig(), mockCache, mockOtel)

	futureDate := timezone.Now().AddDate(0, 1, 0).Format("2006-01-02")

	const attempts = 50

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			_, err := svc.Reserve(context.Background(), dto.ReserveSlotRequest{
				BookingID:  uuidLike(n),
				ResourceID: "tour-alhambra",
				Date:       futureDate,
				Quantity:   1,
			})
			results <- err
		}(i)
	}

	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, failure.IsInsufficientCapacity(err))
		}
	}

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 10, repo.record.ReservedCapacity)
	assert.Equal(t, 0, repo.record.BookedCapacity)

	time.Sleep(50 * time.Millisecond)
}

func uuidLike(n int) string {
	return "booking-" + string(rune('a'+n%26)) + "-concurrent"
}

func TestAvailabilityService_CountersFloorAtZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	repo := &fakeCapacityRepo{record: openRecord(10, 3, 3)}
	store := holds.New(mockCache, mockOtel)
	svc := service.New(repo, store, testConfig(), mockCache, mockOtel)

	key := model.Key{ResourceID: "tour-alhambra", Date: timezone.Now().AddDate(0, 1, 0)}

	t.Run("repeated unbook never drives booked below zero", func(t *testing.T) {
		assert.NoError(t, svc.Unbook(context.Background(), key, 2))
		assert.NoError(t, svc.Unbook(context.Background(), key, 2))
		assert.NoError(t, svc.Unbook(context.Background(), key, 2))

		assert.Equal(t, 0, repo.record.BookedCapacity)
	})

	t.Run("repeated force release never drives reserved below zero", func(t *testing.T) {
		assert.NoError(t, svc.ForceRelease(context.Background(), key, 2))
		assert.NoError(t, svc.ForceRelease(context.Background(), key, 2))
		assert.NoError(t, svc.ForceRelease(context.Background(), key, 2))

		assert.Equal(t, 0, repo.record.ReservedCapacity)
	})

	time.Sleep(50 * time.Millisecond)
}
