// Package csvfile persists rooms and reservations as comma-separated records,
// one per line, quoting fields that contain the delimiter or a quote.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/srgjo27/hotel_reservation/internal/core/domain"
)

const (
	roomFields        = 4
	reservationFields = 11
)

// createdAt layouts accepted on read; the first one is used on write.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

func EncodeRoom(r domain.Room) string {
	return encodeFields(roomToFields(r))
}

func DecodeRoom(line string) (domain.Room, error) {
	fields, err := splitLine(line, roomFields)
	if err != nil {
		return domain.Room{}, err
	}
	return roomFromFields(fields)
}

func EncodeReservation(r domain.Reservation) string {
	return encodeFields(reservationToFields(r))
}

func DecodeReservation(line string) (domain.Reservation, error) {
	fields, err := splitLine(line, reservationFields)
	if err != nil {
		return domain.Reservation{}, err
	}
	return reservationFromFields(fields)
}

func roomToFields(r domain.Room) []string {
	return []string{
		strconv.Itoa(r.ID),
		r.Number,
		string(r.Type),
		r.PricePerNight.String(),
	}
}

func roomFromFields(f []string) (domain.Room, error) {
	if len(f) != roomFields {
		return domain.Room{}, fieldCountError(len(f), roomFields)
	}
	id, err := parseID(f[0], "room id")
	if err != nil {
		return domain.Room{}, err
	}
	rt, err := domain.ParseCanonicalRoomType(f[2])
	if err != nil {
		return domain.Room{}, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}
	price, err := parseAmount(f[3], "price per night")
	if err != nil {
		return domain.Room{}, err
	}
	return domain.Room{ID: int(id), Number: f[1], Type: rt, PricePerNight: price}, nil
}

func reservationToFields(r domain.Reservation) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		strconv.Itoa(r.RoomID),
		r.GuestName,
		r.CheckIn.Format(domain.DateLayout),
		r.CheckOut.Format(domain.DateLayout),
		r.TotalAmount.String(),
		r.CreatedAt.UTC().Format(timestampLayouts[0]),
		optional(r.PaymentTxnID),
		string(r.PaymentStatus),
		string(r.Status),
		optional(r.RefundTxnID),
	}
}

func reservationFromFields(f []string) (domain.Reservation, error) {
	var res domain.Reservation
	if len(f) != reservationFields {
		return res, fieldCountError(len(f), reservationFields)
	}

	var err error
	if res.ID, err = parseID(f[0], "reservation id"); err != nil {
		return res, err
	}
	roomID, err := parseID(f[1], "room id")
	if err != nil {
		return res, err
	}
	res.RoomID = int(roomID)
	res.GuestName = f[2]
	if res.CheckIn, err = parseDate(f[3], "check-in"); err != nil {
		return res, err
	}
	if res.CheckOut, err = parseDate(f[4], "check-out"); err != nil {
		return res, err
	}
	if res.TotalAmount, err = parseAmount(f[5], "total amount"); err != nil {
		return res, err
	}
	if res.CreatedAt, err = parseTimestamp(f[6]); err != nil {
		return res, err
	}
	res.PaymentTxnID = domain.StringPtr(f[7])
	if res.PaymentStatus, err = domain.ParsePaymentStatus(f[8]); err != nil {
		return res, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}
	if res.Status, err = domain.ParseReservationStatus(f[9]); err != nil {
		return res, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}
	res.RefundTxnID = domain.StringPtr(f[10])
	return res, nil
}

func encodeFields(fields []string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	// strings.Builder never fails, so the only possible error is a bad Comma.
	_ = w.Write(fields)
	w.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

func splitLine(line string, want int) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(keepQuotedCRLF([]byte(line))))
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty line", domain.ErrMalformedRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}
	if len(fields) != want {
		return nil, fieldCountError(len(fields), want)
	}
	return fields, nil
}

// keepQuotedCRLF doubles the CR of every CRLF inside a quoted field.
// csv.Reader folds CRLF into LF on each physical line it reads, including the
// lines of a multi-line quoted field, and the extra CR is what it drops.
// Record terminators are written as a bare LF, and a CRLF outside quotes is
// left for the reader to fold as before.
func keepQuotedCRLF(data []byte) []byte {
	if !bytes.Contains(data, []byte("\r\n")) {
		return data
	}

	out := make([]byte, 0, len(data)+16)
	inQuotes := false
	for i, b := range data {
		switch b {
		case '"':
			inQuotes = !inQuotes
		case '\r':
			if inQuotes && i+1 < len(data) && data[i+1] == '\n' {
				out = append(out, '\r')
			}
		}
		out = append(out, b)
	}
	return out
}

func fieldCountError(got, want int) error {
	return fmt.Errorf("%w: expected %d fields, got %d", domain.ErrMalformedRecord, want, got)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q", domain.ErrMalformedRecord, what, s)
	}
	return id, nil
}

func parseDate(s, what string) (time.Time, error) {
	t, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q", domain.ErrMalformedRecord, what, s)
	}
	return t, nil
}

func parseAmount(s, what string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s %q", domain.ErrMalformedRecord, what, s)
	}
	return d, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: created at %q", domain.ErrMalformedRecord, s)
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
