// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/sirupsen/logrus"
)

// EmailService renders and delivers customer notifications
type EmailService struct {
	config    *config.Config
	logger    *logrus.Logger
	templates map[EmailType]*template.Template

	mu   sync.Mutex
	sent []Email
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.Config, logger *logrus.Logger) *EmailService {
	return &EmailService{
		config: cfg,
		logger: logger,
		templates: map[EmailType]*template.Template{
			EmailTypePaymentReceipt: template.Must(template.New("receipt").Parse(paymentReceiptTemplate)),
			EmailTypeRefundNotice:   template.Must(template.New("refund").Parse(refundNoticeTemplate)),
			EmailTypeOrderCancelled: template.Must(template.New("cancelled").Parse(orderCancelledTemplate)),
		},
	}
}

// SendEmail sends an email using the configured provider
func (s *EmailService) SendEmail(ctx context.Context, email *Email) error {
	if len(email.To) == 0 || email.To[0] == "" {
		return fmt.Errorf("email has no recipient")
	}

	switch s.config.Email.Provider {
	case "smtp":
		if err := s.sendSMTPEmail(email); err != nil {
			return err
		}
	case "log", "":
		s.logger.WithFields(logrus.Fields{
			"to":      email.To,
			"subject": email.Subject,
			"type":    email.Type,
		}).Info("email (log provider)")
	default:
		return fmt.Errorf("unsupported email provider: %s", s.config.Email.Provider)
	}

	s.mu.Lock()
	s.sent = append(s.sent, *email)
	s.mu.Unlock()
	return nil
}

// Sent returns the emails delivered by this process
func (s *EmailService) Sent() []Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Email, len(s.sent))
	copy(out, s.sent)
	return out
}

// SendPaymentReceipt confirms a successful payment
func (s *EmailService) SendPaymentReceipt(ctx context.Context, to string, data PaymentReceiptData) error {
	data.ShopName = s.config.App.CompanyName
	return s.sendTemplate(ctx, to, fmt.Sprintf("Payment received for order #%d", data.OrderID), EmailTypePaymentReceipt, data)
}

// SendRefundNotice tells the customer a refund was issued
func (s *EmailService) SendRefundNotice(ctx context.Context, to string, data RefundNoticeData) error {
	data.ShopName = s.config.App.CompanyName
	return s.sendTemplate(ctx, to, fmt.Sprintf("Refund issued for order #%d", data.OrderID), EmailTypeRefundNotice, data)
}

// SendOrderCancelled tells the customer their order was cancelled
func (s *EmailService) SendOrderCancelled(ctx context.Context, to string, data OrderCancelledData) error {
	data.ShopName = s.config.App.CompanyName
	return s.sendTemplate(ctx, to, fmt.Sprintf("Order #%d cancelled", data.OrderID), EmailTypeOrderCancelled, data)
}

func (s *EmailService) sendTemplate(ctx context.Context, to, subject string, emailType EmailType, data interface{}) error {
	tmpl, ok := s.templates[emailType]
	if !ok {
		return fmt.Errorf("template %s not found", emailType)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s email: %w", emailType, err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{to},
		Subject:     subject,
		HTMLContent: buf.String(),
		Type:        emailType,
	})
}

const paymentReceiptTemplate = `<h2>{{.ShopName}}</h2>
<p>Hi {{.CustomerName}},</p>
<p>We received your payment of <strong>{{.Amount}}</strong> for order #{{.OrderID}}.</p>
<table>
  <tr><td>Transaction</td><td>{{.TransactionID}}</td></tr>
  <tr><td>Method</td><td>{{.Method}}</td></tr>
  <tr><td>Processed</td><td>{{.ProcessedAt}}</td></tr>
</table>`

const refundNoticeTemplate = `<h2>{{.ShopName}}</h2>
<p>Hi {{.CustomerName}},</p>
<p>A refund of <strong>{{.RefundedAmount}}</strong> was issued for order #{{.OrderID}} (transaction {{.TransactionID}}).</p>
<p>Remaining charged amount: {{.RemainingAmount}}</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`

const orderCancelledTemplate = `<h2>{{.ShopName}}</h2>
<p>Hi {{.CustomerName}},</p>
<p>Your order #{{.OrderID}} was cancelled{{if .Reason}}: {{.Reason}}{{end}}.</p>`
