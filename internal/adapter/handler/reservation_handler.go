package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/srgjo27/hotel_reservation/internal/core/domain"
	"github.com/srgjo27/hotel_reservation/internal/core/services"
)

type ReservationHandler struct {
	svc *services.ReservationService
	log *zap.Logger
}

func NewReservationHandler(svc *services.ReservationService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{svc: svc, log: log}
}

func (h *ReservationHandler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /rooms", h.ListRooms)
	mux.HandleFunc("GET /rooms/available", h.SearchAvailability)
	mux.HandleFunc("GET /reservations", h.ListReservations)
	mux.HandleFunc("POST /reservations", h.CreateReservation)
	mux.HandleFunc("GET /reservations/{id}", h.GetReservation)
	mux.HandleFunc("POST /reservations/{id}/cancel", h.CancelReservation)

	return mux
}

type roomResponse struct {
	ID            int    `json:"id"`
	Number        string `json:"number"`
	Type          string `json:"type"`
	PricePerNight string `json:"price_per_night"`
}

type reservationResponse struct {
	ID            int64         `json:"id"`
	RoomID        int           `json:"room_id"`
	GuestName     string        `json:"guest_name"`
	CheckIn       string        `json:"check_in"`
	CheckOut      string        `json:"check_out"`
	Nights        int           `json:"nights"`
	TotalAmount   string        `json:"total_amount"`
	CreatedAt     time.Time     `json:"created_at"`
	PaymentTxnID  *string       `json:"payment_txn_id"`
	PaymentStatus string        `json:"payment_status"`
	Status        string        `json:"status"`
	RefundTxnID   *string       `json:"refund_txn_id"`
	Room          *roomResponse `json:"room,omitempty"`
}

type cancelResponse struct {
	Reservation reservationResponse `json:"reservation"`
	Refunded    bool                `json:"refunded"`
}

type createReservationRequest struct {
	RoomID     int    `json:"room_id"`
	GuestName  string `json:"guest_name"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	CardNumber string `json:"card_number"`
}

func (h *ReservationHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ReservationHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toRoomResponses(h.svc.ListRooms()))
}

func (h *ReservationHandler) SearchAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	checkIn, err := parseDateParam("check_in", q.Get("check_in"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	checkOut, err := parseDateParam("check_out", q.Get("check_out"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := services.SearchQuery{CheckIn: checkIn, CheckOut: checkOut}
	if raw := q.Get("type"); raw != "" {
		roomType, err := domain.ParseRoomType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		query.Type = &roomType
	}

	rooms, err := h.svc.SearchAvailability(r.Context(), query)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomResponses(rooms))
}

func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.ListReservations(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}

	out := make([]reservationResponse, 0, len(all))
	for i := range all {
		out = append(out, toReservationResponse(&all[i], nil))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	guest := strings.TrimSpace(req.GuestName)
	if guest == "" {
		writeError(w, http.StatusBadRequest, "guest_name is required")
		return
	}
	checkIn, err := parseDateParam("check_in", req.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	checkOut, err := parseDateParam("check_out", req.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Book(r.Context(), services.BookRequest{
		RoomID:     req.RoomID,
		GuestName:  guest,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		CardNumber: req.CardNumber,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(res, nil))
}

func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	details, err := h.svc.GetReservation(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(details.Reservation, details.Room))
}

func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{
		Reservation: toReservationResponse(result.Reservation, nil),
		Refunded:    result.Refunded,
	})
}

// fail maps domain errors to status codes. Storage failures are logged and
// hidden from the client.
func (h *ReservationHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDateRange), errors.Is(err, domain.ErrInvalidRoomType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrRoomUnavailable), errors.Is(err, domain.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrPaymentDeclined):
		writeError(w, http.StatusPaymentRequired, err.Error())
	default:
		h.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid reservation id %q", raw))
		return 0, false
	}
	return id, true
}

func parseDateParam(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want YYYY-MM-DD", name, value)
	}
	return d, nil
}

func toRoomResponse(room domain.Room) roomResponse {
	return roomResponse{
		ID:            room.ID,
		Number:        room.Number,
		Type:          string(room.Type),
		PricePerNight: room.PricePerNight.StringFixed(2),
	}
}

func toRoomResponses(rooms []domain.Room) []roomResponse {
	out := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomResponse(room))
	}
	return out
}

func toReservationResponse(res *domain.Reservation, room *domain.Room) reservationResponse {
	out := reservationResponse{
		ID:            res.ID,
		RoomID:        res.RoomID,
		GuestName:     res.GuestName,
		CheckIn:       res.CheckIn.Format(domain.DateLayout),
		CheckOut:      res.CheckOut.Format(domain.DateLayout),
		Nights:        res.Nights(),
		TotalAmount:   res.TotalAmount.StringFixed(2),
		CreatedAt:     res.CreatedAt,
		PaymentTxnID:  res.PaymentTxnID,
		PaymentStatus: string(res.PaymentStatus),
		Status:        string(res.Status),
		RefundTxnID:   res.RefundTxnID,
	}
	if room != nil {
		rr := toRoomResponse(*room)
		out.Room = &rr
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
