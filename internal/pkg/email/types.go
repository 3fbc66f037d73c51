// internal/pkg/email/types.go
package email

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypePaymentReceipt EmailType = "payment_receipt"
	EmailTypeRefundNotice   EmailType = "refund_notice"
	EmailTypeOrderCancelled EmailType = "order_cancelled"
)

// Email represents an email message
type Email struct {
	To          []string               `json:"to"`
	Subject     string                 `json:"subject"`
	HTMLContent string                 `json:"html_content"`
	Type        EmailType              `json:"type"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// PaymentReceiptData feeds the payment receipt template
type PaymentReceiptData struct {
	ShopName      string
	CustomerName  string
	OrderID       uint
	TransactionID string
	Amount        string
	Method        string
	ProcessedAt   string
}

// RefundNoticeData feeds the refund notice template
type RefundNoticeData struct {
	ShopName        string
	CustomerName    string
	OrderID         uint
	TransactionID   string
	RefundedAmount  string
	RemainingAmount string
	Reason          string
}

// OrderCancelledData feeds the order cancellation template
type OrderCancelledData struct {
	ShopName     string
	CustomerName string
	OrderID      uint
	Reason       string
}
