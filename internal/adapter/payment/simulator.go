// Package payment provides a stand-in payment gateway. No money moves: the
// simulator validates its input and hands back synthetic transaction ids.
package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/srgjo27/hotel_reservation/internal/core/domain"
	"github.com/srgjo27/hotel_reservation/internal/core/ports"
)

const (
	chargePrefix = "PAY"
	refundPrefix = "RFD"
	cardDigits   = 16
)

var _ ports.PaymentGateway = Simulator{}

// Simulator is stateless; the zero value is ready to use.
type Simulator struct{}

func NewSimulator() Simulator {
	return Simulator{}
}

func (Simulator) Charge(cardNumber string, amount decimal.Decimal) domain.PaymentResult {
	if !amount.IsPositive() {
		return domain.PaymentResult{Message: "invalid amount"}
	}
	if !validCard(cardNumber) {
		return domain.PaymentResult{Message: "card declined"}
	}
	return domain.PaymentResult{
		Success: true,
		TxnID:   newTxnID(chargePrefix),
		Message: fmt.Sprintf("charged %s", amount.StringFixed(2)),
	}
}

// Refund does not check that originalTxnID was ever charged.
func (Simulator) Refund(originalTxnID string, amount decimal.Decimal) domain.PaymentResult {
	if originalTxnID == "" {
		return domain.PaymentResult{Message: "original payment missing"}
	}
	return domain.PaymentResult{
		Success: true,
		TxnID:   newTxnID(refundPrefix),
		Message: fmt.Sprintf("refunded %s", amount.StringFixed(2)),
	}
}

func validCard(card string) bool {
	if len(card) != cardDigits {
		return false
	}
	for _, c := range card {
		if c < '0' || c > '9' {
			return false
		}
	}
	return luhn(card)
}

func luhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		n := int(digits[i] - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

// newTxnID combines 48 random bits with the current unix millisecond.
func newTxnID(prefix string) string {
	id := uuid.NewString()
	random := strings.ToUpper(id[len(id)-12:])
	return fmt.Sprintf("%s-%s-%d", prefix, random, time.Now().UnixMilli())
}
