// internal/domain/payment/simulator.go
package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Failure codes reported by the simulator
const (
	FailureInsufficientFunds   = "INSUFFICIENT_FUNDS"
	FailureNetworkTimeout      = "NETWORK_TIMEOUT"
	FailureFraudDetected       = "FRAUD_DETECTED"
	FailureCardExpired         = "CARD_EXPIRED"
	FailureInvalidCVV          = "INVALID_CVV"
	FailureCardDeclined        = "CARD_DECLINED"
	FailurePayPalAccountIssue  = "PAYPAL_ACCOUNT_ISSUE"
	FailureInvalidAmount       = "INVALID_AMOUNT"
	FailureAmountLimitExceeded = "AMOUNT_LIMIT_EXCEEDED"
	FailureUnsupportedMethod   = "UNSUPPORTED_METHOD"
)

var (
	unlucky       = decimal.RequireFromString("666.00")
	lucky         = decimal.RequireFromString("777.00")
	amountLimit   = decimal.RequireFromString("10000.00")
	unluckyRefund = decimal.RequireFromString("13.00")
)

// Result is the outcome of one payment attempt
type Result struct {
	Success       bool                `json:"success"`
	TransactionID string              `json:"transaction_id"`
	Status        order.PaymentStatus `json:"status"`
	Message       string              `json:"message"`
	FailureReason *string             `json:"failure_reason,omitempty"`
	ProcessedAt   time.Time           `json:"processed_at"`
}

// RefundResult is the outcome of one refund attempt
type RefundResult struct {
	Success        bool            `json:"success"`
	TransactionID  string          `json:"transaction_id"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
	Message        string          `json:"message"`
	ProcessedAt    time.Time       `json:"processed_at"`
}

// Processor is the payment gateway seen by the payment service
type Processor interface {
	ProcessPayment(ctx context.Context, method *PaymentMethod, amount decimal.Decimal) Result
	ProcessRefund(ctx context.Context, transactionID string, amount decimal.Decimal, reason string) RefundResult
}

type cardOutcome struct {
	failure string
	message string
}

// cardOutcomes maps stored last-four digits to canned gateway answers.
// Any other last four succeeds.
var cardOutcomes = map[string]cardOutcome{
	"0000": {"", "Payment successful"},
	"1111": {FailureInsufficientFunds, "Payment failed: Insufficient funds"},
	"2222": {FailureNetworkTimeout, "Payment failed: Network timeout"},
	"3333": {FailureFraudDetected, "Payment failed: Fraud detection triggered"},
	"4444": {FailureCardExpired, "Payment failed: Card expired"},
	"5555": {FailureInvalidCVV, "Payment failed: Invalid CVV"},
	"6666": {FailureCardDeclined, "Payment failed: Card declined by issuer"},
}

// Simulator is a deterministic stand-in for a payment gateway
type Simulator struct {
	latency time.Duration
	now     func() time.Time
}

// NewSimulator creates a simulator that sleeps latency before every answer
func NewSimulator(latency time.Duration) *Simulator {
	return &Simulator{latency: latency, now: time.Now}
}

// ProcessPayment decides the outcome from the instrument first, then lets
// the amount rules override it
func (s *Simulator) ProcessPayment(_ context.Context, method *PaymentMethod, amount decimal.Decimal) Result {
	s.wait()

	result := Result{
		TransactionID: newTransactionID(),
		ProcessedAt:   s.now().UTC(),
	}

	switch {
	case method.Type.IsCard():
		last4 := "0000"
		if method.CardNumberLast4 != nil {
			last4 = *method.CardNumberLast4
		}
		outcome, ok := cardOutcomes[last4]
		if !ok {
			outcome = cardOutcome{message: "Payment successful"}
		}
		if outcome.failure == "" {
			result.succeed(outcome.message)
		} else {
			result.fail(outcome.failure, outcome.message)
		}
	case method.Type == MethodTypePayPal:
		if method.PayPalEmail != nil && strings.Contains(*method.PayPalEmail, "fail") {
			result.fail(FailurePayPalAccountIssue, "Payment failed: PayPal account issue")
		} else {
			result.succeed("PayPal payment successful")
		}
	default:
		result.fail(FailureUnsupportedMethod, "Payment failed: Unsupported payment method")
	}

	switch {
	case amount.Equal(unlucky):
		result.fail(FailureInvalidAmount, "Payment failed: Amount validation failed")
	case amount.Equal(lucky):
		result.succeed("Payment successful (lucky amount)")
	case amount.GreaterThanOrEqual(amountLimit):
		result.fail(FailureAmountLimitExceeded, "Payment failed: Amount exceeds limit")
	}

	return result
}

// ProcessRefund refuses transactions marked NOREFUND and the unlucky amount
func (s *Simulator) ProcessRefund(_ context.Context, transactionID string, amount decimal.Decimal, _ string) RefundResult {
	s.wait()

	result := RefundResult{
		TransactionID:  transactionID,
		RefundedAmount: decimal.Zero,
		ProcessedAt:    s.now().UTC(),
	}

	switch {
	case strings.Contains(transactionID, "NOREFUND"):
		result.Message = "Refund failed: Transaction not refundable"
	case amount.Equal(unluckyRefund):
		result.Message = "Refund failed: Unlucky amount"
	default:
		result.Success = true
		result.RefundedAmount = amount
		result.Message = fmt.Sprintf("Refund successful: $%s", amount.StringFixed(2))
	}
	return result
}

func (s *Simulator) wait() {
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
}

func (r *Result) succeed(message string) {
	r.Success = true
	r.Status = order.PaymentStatusCompleted
	r.Message = message
	r.FailureReason = nil
}

func (r *Result) fail(reason, message string) {
	r.Success = false
	r.Status = order.PaymentStatusFailed
	r.Message = message
	r.FailureReason = &reason
}

func newTransactionID() string {
	return "TXN_" + strings.ToUpper(uuid.NewString()[:8])
}
