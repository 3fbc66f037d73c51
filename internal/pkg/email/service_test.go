package email

import (
	"context"
	"testing"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(provider string) *EmailService {
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{
		App:   config.AppConfig{CompanyName: "LittleBugShop Books"},
		Email: config.EmailConfig{Provider: provider},
	}
	return NewEmailService(cfg, logger)
}

func TestPaymentReceiptRendersTemplate(t *testing.T) {
	svc := newTestService("log")

	err := svc.SendPaymentReceipt(context.Background(), "user@example.com", PaymentReceiptData{
		CustomerName:  "John Doe",
		OrderID:       7,
		TransactionID: "TXN_ABCD1234",
		Amount:        "$42.00",
		Method:        "**** **** **** 0000",
	})
	require.NoError(t, err)

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"user@example.com"}, sent[0].To)
	assert.Equal(t, EmailTypePaymentReceipt, sent[0].Type)
	assert.Contains(t, sent[0].Subject, "#7")
	assert.Contains(t, sent[0].HTMLContent, "TXN_ABCD1234")
	assert.Contains(t, sent[0].HTMLContent, "LittleBugShop Books")
}

func TestRefundNoticeOmitsEmptyReason(t *testing.T) {
	svc := newTestService("log")

	require.NoError(t, svc.SendRefundNotice(context.Background(), "user@example.com", RefundNoticeData{
		OrderID:        3,
		RefundedAmount: "$5.00",
	}))
	assert.NotContains(t, svc.Sent()[0].HTMLContent, "Reason:")
}

func TestSendEmailRejectsMissingRecipient(t *testing.T) {
	svc := newTestService("log")

	err := svc.SendOrderCancelled(context.Background(), "", OrderCancelledData{OrderID: 1})
	assert.Error(t, err)
	assert.Empty(t, svc.Sent())
}

func TestUnknownProvider(t *testing.T) {
	svc := newTestService("carrier-pigeon")

	err := svc.SendEmail(context.Background(), &Email{To: []string{"a@b.c"}, Subject: "x"})
	assert.Error(t, err)
}
