package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/srgjo27/hotel_reservation/internal/core/domain"
	"github.com/srgjo27/hotel_reservation/internal/core/ports"
	"github.com/srgjo27/hotel_reservation/internal/core/ports/mocks"
	"github.com/srgjo27/hotel_reservation/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCard = "4111111111111111"

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixture struct {
	store    *mocks.ReservationRepository
	payments *mocks.PaymentGateway
	cache    *mocks.AvailabilityCache
	events   *mocks.EventPublisher
	service  *services.ReservationService
}

func newFixture(t *testing.T, now string) *fixture {
	f := &fixture{
		store:    mocks.NewReservationRepository(t),
		payments: mocks.NewPaymentGateway(t),
		cache:    mocks.NewAvailabilityCache(t),
		events:   mocks.NewEventPublisher(t),
	}
	f.service = services.NewReservationService(
		services.NewCatalog(domain.DefaultRooms()),
		f.store,
		f.payments,
		services.WithAvailabilityCache(f.cache),
		services.WithEventPublisher(f.events),
		services.WithClock(fixedClock{now: date(now).Add(10 * time.Hour)}),
	)
	return f
}

func amountOf(v int64) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(v)) })
}

func strPtr(s string) *string { return &s }

func confirmed(id int64, roomID int, in, out string) *domain.Reservation {
	r := reservation(id, roomID, in, out, domain.ReservationConfirmed)
	r.TotalAmount = decimal.NewFromInt(11997)
	r.PaymentTxnID = strPtr("PAY-1")
	return &r
}

func TestBook_Success(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()
	created := confirmed(1001, 3, "2024-03-01", "2024-03-04")

	f.store.On("LoadAll", ctx).Return([]domain.Reservation{}, nil)
	f.payments.On("Charge", testCard, amountOf(11997)).Return(domain.PaymentResult{Success: true, TxnID: "PAY-1"})
	f.store.On("CreateIfAvailable", ctx, mock.MatchedBy(func(in domain.NewReservation) bool {
		return in.RoomID == 3 && in.GuestName == "Asha" && in.Amount.Equal(decimal.NewFromInt(11997)) &&
			in.PaymentTxnID != nil && *in.PaymentTxnID == "PAY-1" &&
			in.CheckIn.Equal(date("2024-03-01")) && in.CheckOut.Equal(date("2024-03-04"))
	})).Return(created, nil)
	f.cache.On("Invalidate", ctx).Return(nil)
	f.events.On("Publish", ctx, mock.MatchedBy(func(ev ports.ReservationEvent) bool {
		return ev.Type == ports.EventReservationConfirmed && ev.ReservationID == 1001
	})).Return(nil)

	res, err := f.service.Book(ctx, services.BookRequest{
		RoomID:     3,
		GuestName:  "Asha",
		CheckIn:    date("2024-03-01"),
		CheckOut:   date("2024-03-04"),
		CardNumber: "4111 1111 1111 1111",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1001), res.ID)
}

func TestBook_PaymentDeclinedWritesNothing(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()

	f.store.On("LoadAll", ctx).Return(nil, nil)
	f.payments.On("Charge", "4111111111111112", amountOf(2499)).Return(domain.PaymentResult{Message: "card declined"})

	res, err := f.service.Book(ctx, services.BookRequest{
		RoomID:     1,
		GuestName:  "Asha",
		CheckIn:    date("2024-03-01"),
		CheckOut:   date("2024-03-02"),
		CardNumber: "4111111111111112",
	})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)
	assert.Contains(t, err.Error(), "card declined")
	f.store.AssertNotCalled(t, "CreateIfAvailable", mock.Anything, mock.Anything)
}

func TestBook_RoomAlreadyTakenSkipsCharge(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()

	f.store.On("LoadAll", ctx).Return([]domain.Reservation{*confirmed(1001, 3, "2024-03-01", "2024-03-04")}, nil)

	_, err := f.service.Book(ctx, services.BookRequest{
		RoomID:     3,
		CheckIn:    date("2024-03-03"),
		CheckOut:   date("2024-03-05"),
		CardNumber: testCard,
	})

	assert.ErrorIs(t, err, domain.ErrRoomUnavailable)
	f.payments.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestBook_LostRaceRefundsCharge(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()

	f.store.On("LoadAll", ctx).Return(nil, nil)
	f.payments.On("Charge", testCard, amountOf(6999)).Return(domain.PaymentResult{Success: true, TxnID: "PAY-9"})
	f.store.On("CreateIfAvailable", ctx, mock.Anything).Return(nil, domain.ErrRoomUnavailable)
	f.payments.On("Refund", "PAY-9", amountOf(6999)).Return(domain.PaymentResult{Success: true, TxnID: "RFD-9"})

	_, err := f.service.Book(ctx, services.BookRequest{
		RoomID:     5,
		CheckIn:    date("2024-03-01"),
		CheckOut:   date("2024-03-02"),
		CardNumber: testCard,
	})

	assert.ErrorIs(t, err, domain.ErrRoomUnavailable)
}

func TestBook_InvalidInput(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()

	_, err := f.service.Book(ctx, services.BookRequest{RoomID: 1, CheckIn: date("2024-03-02"), CheckOut: date("2024-03-02")})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = f.service.Book(ctx, services.BookRequest{RoomID: 77, CheckIn: date("2024-03-01"), CheckOut: date("2024-03-02")})
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBook_StorageFailurePropagates(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()
	ioErr := errors.New("disk gone")

	f.store.On("LoadAll", ctx).Return(nil, ioErr)

	_, err := f.service.Book(ctx, services.BookRequest{RoomID: 1, CheckIn: date("2024-03-01"), CheckOut: date("2024-03-02"), CardNumber: testCard})

	assert.ErrorIs(t, err, ioErr)
}

func TestCancel_RefundsOutsideWindow(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()
	existing := confirmed(1001, 3, "2024-03-01", "2024-03-04")
	cancelled := existing.Cancelled(strPtr("RFD-1"))

	f.store.On("FindByID", ctx, int64(1001)).Return(existing, nil)
	f.payments.On("Refund", "PAY-1", amountOf(11997)).Return(domain.PaymentResult{Success: true, TxnID: "RFD-1"})
	f.store.On("Cancel", ctx, int64(1001), strPtr("RFD-1")).Return(&cancelled, nil)
	f.cache.On("Invalidate", ctx).Return(nil)
	f.events.On("Publish", ctx, mock.MatchedBy(func(ev ports.ReservationEvent) bool {
		return ev.Type == ports.EventReservationCancelled && ev.PaymentStatus == "REFUNDED"
	})).Return(nil)

	result, err := f.service.Cancel(ctx, 1001)

	require.NoError(t, err)
	assert.True(t, result.Refunded)
	assert.Equal(t, domain.ReservationCancelled, result.Reservation.Status)
	assert.Equal(t, domain.PaymentRefunded, result.Reservation.PaymentStatus)
}

func TestCancel_BoundaryDayStillRefunds(t *testing.T) {
	f := newFixture(t, "2024-02-28")
	ctx := context.Background()
	existing := confirmed(1001, 3, "2024-03-01", "2024-03-04")
	cancelled := existing.Cancelled(strPtr("RFD-2"))

	f.store.On("FindByID", ctx, int64(1001)).Return(existing, nil)
	f.payments.On("Refund", "PAY-1", mock.Anything).Return(domain.PaymentResult{Success: true, TxnID: "RFD-2"})
	f.store.On("Cancel", ctx, int64(1001), strPtr("RFD-2")).Return(&cancelled, nil)
	f.cache.On("Invalidate", ctx).Return(nil)
	f.events.On("Publish", ctx, mock.Anything).Return(nil)

	result, err := f.service.Cancel(ctx, 1001)

	require.NoError(t, err)
	assert.True(t, result.Refunded)
}

func TestCancel_NoRefundInsideWindow(t *testing.T) {
	f := newFixture(t, "2024-02-29")
	ctx := context.Background()
	existing := confirmed(1001, 3, "2024-03-01", "2024-03-04")
	cancelled := existing.Cancelled(nil)

	f.store.On("FindByID", ctx, int64(1001)).Return(existing, nil)
	f.store.On("Cancel", ctx, int64(1001), (*string)(nil)).Return(&cancelled, nil)
	f.cache.On("Invalidate", ctx).Return(errors.New("redis down"))
	f.events.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))

	result, err := f.service.Cancel(ctx, 1001)

	require.NoError(t, err)
	assert.False(t, result.Refunded)
	assert.Equal(t, domain.PaymentPaid, result.Reservation.PaymentStatus)
	f.payments.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
}

func TestCancel_RefundFailureAborts(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()
	existing := confirmed(1001, 3, "2024-03-01", "2024-03-04")
	existing.PaymentTxnID = nil

	f.store.On("FindByID", ctx, int64(1001)).Return(existing, nil)
	f.payments.On("Refund", "", mock.Anything).Return(domain.PaymentResult{Message: "original payment missing"})

	_, err := f.service.Cancel(ctx, 1001)

	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)
	f.store.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()
	existing := confirmed(1001, 3, "2024-03-01", "2024-03-04").Cancelled(nil)

	f.store.On("FindByID", ctx, int64(1001)).Return(&existing, nil)

	_, err := f.service.Cancel(ctx, 1001)

	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
}

func TestCancel_NotFound(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()

	f.store.On("FindByID", ctx, int64(4242)).Return(nil, domain.ErrReservationNotFound)

	_, err := f.service.Cancel(ctx, 4242)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchAvailability_CacheHit(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()

	f.cache.On("Generation", ctx).Return(int64(2), nil)
	f.cache.On("Get", ctx, int64(2), "2024-03-01:2024-03-04:ANY").Return([]int{3, 1, 99}, true, nil)

	rooms, err := f.service.SearchAvailability(ctx, services.SearchQuery{CheckIn: date("2024-03-01"), CheckOut: date("2024-03-04")})

	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, roomIDs(rooms))
	f.store.AssertNotCalled(t, "LoadAll", mock.Anything)
}

func TestSearchAvailability_CacheMiss(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()
	suite := domain.RoomSuite

	f.cache.On("Generation", ctx).Return(int64(0), nil)
	f.cache.On("Get", ctx, int64(0), "2024-03-01:2024-03-04:SUITE").Return(nil, false, nil)
	f.store.On("LoadAll", ctx).Return([]domain.Reservation{}, nil)
	f.cache.On("Set", ctx, int64(0), "2024-03-01:2024-03-04:SUITE", []int{5}).Return(nil)

	rooms, err := f.service.SearchAvailability(ctx, services.SearchQuery{CheckIn: date("2024-03-01"), CheckOut: date("2024-03-04"), Type: &suite})

	require.NoError(t, err)
	assert.Equal(t, []int{5}, roomIDs(rooms))
}

func TestSearchAvailability_CacheErrorFallsBack(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()

	f.cache.On("Generation", ctx).Return(int64(1), nil)
	f.cache.On("Get", ctx, int64(1), mock.Anything).Return(nil, false, errors.New("timeout"))
	f.store.On("LoadAll", ctx).Return([]domain.Reservation{*confirmed(1001, 3, "2024-03-01", "2024-03-04")}, nil)
	f.cache.On("Set", ctx, int64(1), mock.Anything, []int{1, 2, 4, 5}).Return(errors.New("timeout"))

	rooms, err := f.service.SearchAvailability(ctx, services.SearchQuery{CheckIn: date("2024-03-02"), CheckOut: date("2024-03-03")})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4, 5}, roomIDs(rooms))
}

func TestSearchAvailability_GenerationErrorSkipsCache(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()

	f.cache.On("Generation", ctx).Return(int64(0), errors.New("timeout"))
	f.store.On("LoadAll", ctx).Return([]domain.Reservation{}, nil)

	rooms, err := f.service.SearchAvailability(ctx, services.SearchQuery{CheckIn: date("2024-03-01"), CheckOut: date("2024-03-02")})

	require.NoError(t, err)
	assert.Len(t, rooms, 5)
	f.cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchAvailability_StoresUnderGenerationReadBeforeLoad(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()
	key := "2024-03-01:2024-03-04:ANY"

	f.cache.On("Generation", ctx).Return(int64(6), nil).Once()
	f.cache.On("Get", ctx, int64(6), key).Return(nil, false, nil)
	f.store.On("LoadAll", ctx).Return([]domain.Reservation{}, nil)
	f.cache.On("Set", ctx, int64(6), key, []int{1, 2, 3, 4, 5}).Return(nil)

	_, err := f.service.SearchAvailability(ctx, services.SearchQuery{CheckIn: date("2024-03-01"), CheckOut: date("2024-03-04")})

	require.NoError(t, err)
	f.cache.AssertNumberOfCalls(t, "Generation", 1)
}

func TestSearchAvailability_InvalidRange(t *testing.T) {
	f := newFixture(t, "2024-02-20")

	_, err := f.service.SearchAvailability(context.Background(), services.SearchQuery{CheckIn: date("2024-03-04"), CheckOut: date("2024-03-01")})

	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestGetReservation_DanglingRoom(t *testing.T) {
	f := newFixture(t, "2024-02-20")
	ctx := context.Background()

	f.store.On("FindByID", ctx, int64(1001)).Return(confirmed(1001, 42, "2024-03-01", "2024-03-04"), nil)
	f.store.On("FindByID", ctx, int64(1002)).Return(confirmed(1002, 3, "2024-03-01", "2024-03-04"), nil)

	details, err := f.service.GetReservation(ctx, 1001)
	require.NoError(t, err)
	assert.Nil(t, details.Room)

	details, err = f.service.GetReservation(ctx, 1002)
	require.NoError(t, err)
	require.NotNil(t, details.Room)
	assert.Equal(t, "201", details.Room.Number)
}
