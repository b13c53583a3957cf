package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/srgjo27/hotel_reservation/internal/core/domain"
	"github.com/srgjo27/hotel_reservation/internal/core/ports"
	"github.com/srgjo27/hotel_reservation/internal/platform/clock"
)

const DefaultRefundWindowDays = 2

type SearchQuery struct {
	CheckIn  time.Time
	CheckOut time.Time
	Type     *domain.RoomType
}

type BookRequest struct {
	RoomID     int
	GuestName  string
	CheckIn    time.Time
	CheckOut   time.Time
	CardNumber string
}

type CancelResult struct {
	Reservation *domain.Reservation
	Refunded    bool
}

type ReservationDetails struct {
	Reservation *domain.Reservation
	// Room is nil when the reservation points at a room no longer in the catalog.
	Room *domain.Room
}

type Option func(*ReservationService)

func WithAvailabilityCache(cache ports.AvailabilityCache) Option {
	return func(s *ReservationService) { s.cache = cache }
}

func WithEventPublisher(events ports.EventPublisher) Option {
	return func(s *ReservationService) { s.events = events }
}

func WithClock(c ports.Clock) Option {
	return func(s *ReservationService) { s.clock = c }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *ReservationService) { s.log = log }
}

// WithRefundWindow sets how many whole days before check-in a cancellation
// still earns a refund.
func WithRefundWindow(days int) Option {
	return func(s *ReservationService) { s.refundWindowDays = days }
}

type ReservationService struct {
	catalog          *Catalog
	store            ports.ReservationRepository
	payments         ports.PaymentGateway
	cache            ports.AvailabilityCache
	events           ports.EventPublisher
	clock            ports.Clock
	log              *zap.Logger
	refundWindowDays int
}

func NewReservationService(catalog *Catalog, store ports.ReservationRepository, payments ports.PaymentGateway, opts ...Option) *ReservationService {
	s := &ReservationService{
		catalog:          catalog,
		store:            store,
		payments:         payments,
		clock:            clock.System{},
		log:              zap.NewNop(),
		refundWindowDays: DefaultRefundWindowDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReservationService) ListRooms() []domain.Room {
	return s.catalog.All()
}

func (s *ReservationService) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	return s.store.LoadAll(ctx)
}

func (s *ReservationService) GetReservation(ctx context.Context, id int64) (*ReservationDetails, error) {
	res, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &ReservationDetails{Reservation: res}
	if room, ok := s.catalog.ByID(res.RoomID); ok {
		details.Room = &room
	}
	return details, nil
}

// SearchAvailability answers from the cache when it can. The cache
// generation is read before the store, so an answer computed from a snapshot
// that a concurrent write has since invalidated lands in a dead generation.
func (s *ReservationService) SearchAvailability(ctx context.Context, q SearchQuery) ([]domain.Room, error) {
	if !(domain.DateRange{Start: q.CheckIn, End: q.CheckOut}).Valid() {
		return nil, domain.ErrInvalidDateRange
	}

	key := availabilityKey(q)
	gen, cacheable := s.cacheGeneration(ctx)
	if cacheable {
		if rooms, ok := s.cachedAvailability(ctx, gen, key); ok {
			return rooms, nil
		}
	}

	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	rooms := s.catalog.FindAvailable(q.CheckIn, q.CheckOut, q.Type, all)

	if cacheable {
		ids := make([]int, 0, len(rooms))
		for _, r := range rooms {
			ids = append(ids, r.ID)
		}
		if err := s.cache.Set(ctx, gen, key, ids); err != nil {
			s.log.Warn("availability cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return rooms, nil
}

// Book charges the card and persists a confirmed reservation. Nothing is
// written when the charge is declined; when the room is taken between the
// availability check and the insert the charge is refunded.
func (s *ReservationService) Book(ctx context.Context, req BookRequest) (*domain.Reservation, error) {
	stay := domain.DateRange{Start: domain.Date(req.CheckIn), End: domain.Date(req.CheckOut)}
	if !stay.Valid() {
		return nil, domain.ErrInvalidDateRange
	}

	room, ok := s.catalog.ByID(req.RoomID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrRoomNotFound, req.RoomID)
	}

	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if !isFree(room.ID, stay, all) {
		return nil, fmt.Errorf("%w: room %s", domain.ErrRoomUnavailable, room.Number)
	}

	amount := room.PricePerNight.Mul(decimal.NewFromInt(int64(stay.Nights())))
	card := strings.Join(strings.Fields(req.CardNumber), "")

	payment := s.payments.Charge(card, amount)
	if !payment.Success {
		s.log.Info("charge declined", zap.Int("room_id", room.ID), zap.String("reason", payment.Message))
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, payment.Message)
	}

	res, err := s.store.CreateIfAvailable(ctx, domain.NewReservation{
		RoomID:       room.ID,
		GuestName:    req.GuestName,
		CheckIn:      stay.Start,
		CheckOut:     stay.End,
		Amount:       amount,
		PaymentTxnID: domain.StringPtr(payment.TxnID),
	})
	if err != nil {
		s.rollbackCharge(payment.TxnID, amount, err)
		return nil, err
	}

	s.log.Info("reservation confirmed",
		zap.Int64("reservation_id", res.ID),
		zap.Int("room_id", res.RoomID),
		zap.String("amount", amount.String()),
		zap.String("payment_txn", payment.TxnID),
	)
	s.afterWrite(ctx, ports.EventReservationConfirmed, res)
	return res, nil
}

// Cancel applies the refund policy and cancels the reservation. A refund
// that fails aborts the cancellation.
func (s *ReservationService) Cancel(ctx context.Context, id int64) (*CancelResult, error) {
	res, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !res.Active() {
		return nil, fmt.Errorf("%w: %d", domain.ErrAlreadyCancelled, id)
	}

	var refundTxn *string
	if s.refundable(res) {
		originalTxn := ""
		if res.PaymentTxnID != nil {
			originalTxn = *res.PaymentTxnID
		}
		refund := s.payments.Refund(originalTxn, res.TotalAmount)
		if !refund.Success {
			s.log.Warn("refund failed, cancellation aborted", zap.Int64("reservation_id", id), zap.String("reason", refund.Message))
			return nil, fmt.Errorf("%w: refund failed: %s", domain.ErrPaymentDeclined, refund.Message)
		}
		refundTxn = domain.StringPtr(refund.TxnID)
	}

	updated, err := s.store.Cancel(ctx, id, refundTxn)
	if err != nil {
		if refundTxn != nil {
			s.log.Error("refund issued but cancellation not stored",
				zap.Int64("reservation_id", id), zap.String("refund_txn", *refundTxn), zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("reservation cancelled", zap.Int64("reservation_id", id), zap.Bool("refunded", refundTxn != nil))
	s.afterWrite(ctx, ports.EventReservationCancelled, updated)
	return &CancelResult{Reservation: updated, Refunded: refundTxn != nil}, nil
}

func (s *ReservationService) refundable(res *domain.Reservation) bool {
	today := domain.Date(s.clock.Now())
	daysBefore := int(domain.Date(res.CheckIn).Sub(today).Hours() / 24)
	return daysBefore >= s.refundWindowDays
}

func (s *ReservationService) rollbackCharge(txnID string, amount decimal.Decimal, cause error) {
	refund := s.payments.Refund(txnID, amount)
	if !refund.Success {
		s.log.Error("charge could not be reversed", zap.String("payment_txn", txnID), zap.String("reason", refund.Message), zap.NamedError("cause", cause))
		return
	}
	s.log.Warn("charge reversed after failed booking", zap.String("payment_txn", txnID), zap.String("refund_txn", refund.TxnID), zap.NamedError("cause", cause))
}

// afterWrite runs the best-effort side effects of a committed change.
func (s *ReservationService) afterWrite(ctx context.Context, eventType string, res *domain.Reservation) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Warn("availability cache invalidation failed", zap.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, newEvent(eventType, res, s.clock.Now())); err != nil {
			s.log.Warn("event publish failed", zap.String("type", eventType), zap.Int64("reservation_id", res.ID), zap.Error(err))
		}
	}
}

func (s *ReservationService) cacheGeneration(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.Warn("availability cache generation read failed", zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (s *ReservationService) cachedAvailability(ctx context.Context, gen int64, key string) ([]domain.Room, bool) {
	ids, ok, err := s.cache.Get(ctx, gen, key)
	if err != nil {
		s.log.Warn("availability cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	rooms := make([]domain.Room, 0, len(ids))
	for _, id := range ids {
		if r, found := s.catalog.ByID(id); found {
			rooms = append(rooms, r)
		}
	}
	return rooms, true
}

func availabilityKey(q SearchQuery) string {
	roomType := "ANY"
	if q.Type != nil {
		roomType = string(*q.Type)
	}
	return fmt.Sprintf("%s:%s:%s", q.CheckIn.Format(domain.DateLayout), q.CheckOut.Format(domain.DateLayout), roomType)
}

func newEvent(eventType string, res *domain.Reservation, at time.Time) ports.ReservationEvent {
	return ports.ReservationEvent{
		Type:          eventType,
		ReservationID: res.ID,
		RoomID:        res.RoomID,
		GuestName:     res.GuestName,
		CheckIn:       res.CheckIn.Format(domain.DateLayout),
		CheckOut:      res.CheckOut.Format(domain.DateLayout),
		TotalAmount:   res.TotalAmount.String(),
		PaymentStatus: string(res.PaymentStatus),
		Status:        string(res.Status),
		OccurredAt:    at.UTC(),
	}
}
