package domain

// PaymentResult is the outcome of a charge or refund.
type PaymentResult struct {
	Success bool
	TxnID   string
	Message string
}
