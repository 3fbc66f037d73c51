// internal/domain/payment/entity.go
package payment

import (
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// MethodType identifies the kind of stored instrument
type MethodType string

const (
	MethodTypeCreditCard MethodType = "CreditCard"
	MethodTypeDebitCard  MethodType = "DebitCard"
	MethodTypePayPal     MethodType = "PayPal"
)

// IsCard reports whether t is a card type
func (t MethodType) IsCard() bool {
	return t == MethodTypeCreditCard || t == MethodTypeDebitCard
}

// IsValid reports whether t is a known method type
func (t MethodType) IsValid() bool {
	return t.IsCard() || t == MethodTypePayPal
}

// PaymentMethod is a stored instrument. Only the last four digits and a
// masked form of a card number are kept; CVVs are never stored.
type PaymentMethod struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	Type             MethodType `gorm:"not null;size:20" json:"type"`
	CardHolderName   *string    `gorm:"size:255" json:"card_holder_name,omitempty"`
	CardNumberMasked *string    `gorm:"size:25" json:"card_number_masked,omitempty"`
	CardNumberLast4  *string    `gorm:"size:4" json:"card_number_last4,omitempty"`
	ExpiryMonth      *string    `gorm:"size:2" json:"expiry_month,omitempty"`
	ExpiryYear       *string    `gorm:"size:4" json:"expiry_year,omitempty"`
	PayPalEmail      *string    `gorm:"column:paypal_email;size:255" json:"paypal_email,omitempty"`
	IsDefault        bool       `gorm:"not null;default:false" json:"is_default"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Transaction records one payment attempt. OrderID is set only when the
// payment succeeded.
type Transaction struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	TransactionID   string              `gorm:"uniqueIndex;not null;size:50" json:"transaction_id"`
	OrderID         *uint               `gorm:"index" json:"order_id"`
	UserID          uint                `gorm:"not null;index" json:"user_id"`
	Amount          decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status          order.PaymentStatus `gorm:"not null;size:20;index" json:"status"`
	PaymentMethodID uint                `gorm:"not null" json:"payment_method_id"`
	ProcessedAt     time.Time           `gorm:"not null" json:"processed_at"`
	ResponseMessage string              `gorm:"size:255" json:"response_message"`
	FailureReason   *string             `gorm:"size:50" json:"failure_reason,omitempty"`
	RefundedAmount  decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0" json:"refunded_amount"`
}

// Refund is an append-only audit row written for every successful refund call
type Refund struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TransactionID string          `gorm:"not null;index;size:50" json:"transaction_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Reason        string          `gorm:"size:500" json:"reason"`
	ProcessedBy   uint            `gorm:"not null" json:"processed_by"`
	ProcessedAt   time.Time       `gorm:"not null" json:"processed_at"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }
func (Transaction) TableName() string   { return "payment_transactions" }
func (Refund) TableName() string        { return "payment_refunds" }

// Remaining is the amount still refundable
func (t *Transaction) Remaining() decimal.Decimal {
	return t.Amount.Sub(t.RefundedAmount)
}

// IsRefundable reports whether the transaction status allows a refund
func (t *Transaction) IsRefundable() bool {
	return t.Status == order.PaymentStatusCompleted || t.Status == order.PaymentStatusPartiallyRefunded
}

// IsSuccessful reports whether the payment went through, regardless of later refunds
func (t *Transaction) IsSuccessful() bool {
	switch t.Status {
	case order.PaymentStatusCompleted, order.PaymentStatusPartiallyRefunded, order.PaymentStatusRefunded:
		return true
	}
	return false
}
