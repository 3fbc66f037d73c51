package payment_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/farumdev/bookstore-backend/internal/domain/payment"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/dbtest"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/logger"
	"github.com/farumdev/bookstore-backend/internal/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMethodKeepsOnlyLastFour(t *testing.T) {
	db := dbtest.New(t)
	svc := payment.NewMethodService(db, logger.Discard())
	ctx := context.Background()

	method, err := svc.AddMethod(ctx, 3, &payment.AddMethodRequest{
		Type:           payment.MethodTypeDebitCard,
		CardHolderName: "Jane Smith",
		CardNumber:     "4111 1111 1111 4242",
		ExpiryMonth:    "08",
		ExpiryYear:     "2030",
		CVV:            "123",
	})
	require.NoError(t, err)
	assert.Equal(t, "4242", *method.CardNumberLast4)
	assert.Equal(t, "**** **** **** 4242", *method.CardNumberMasked)
	assert.False(t, method.IsDefault)

	var stored map[string]interface{}
	require.NoError(t, db.Table("payment_methods").Where("id = ?", method.ID).Take(&stored).Error)
	for column, value := range stored {
		assert.NotContains(t, fmt.Sprint(value), "4111111111114242", column)
	}
	assert.NotContains(t, stored, "cvv")
}

func TestAddMethodValidation(t *testing.T) {
	svc := payment.NewMethodService(dbtest.New(t), logger.Discard())
	ctx := context.Background()

	invalid := []payment.AddMethodRequest{
		{Type: payment.MethodTypeCreditCard, CardNumber: "4111111111111111", ExpiryMonth: "01", ExpiryYear: "2030", CVV: "123"},
		{Type: payment.MethodTypeCreditCard, CardHolderName: "A", CardNumber: "4111", ExpiryMonth: "01", ExpiryYear: "2030", CVV: "123"},
		{Type: payment.MethodTypeCreditCard, CardHolderName: "A", CardNumber: "4111111111111111", CVV: "123"},
		{Type: payment.MethodTypeCreditCard, CardHolderName: "A", CardNumber: "4111111111111111", ExpiryMonth: "01", ExpiryYear: "2030", CVV: "12"},
		{Type: payment.MethodTypePayPal},
		{Type: "Cash"},
	}
	for i := range invalid {
		_, err := svc.AddMethod(ctx, 2, &invalid[i])
		assert.True(t, apperror.Is(err, apperror.KindInvalidArgument), "case %d", i)
	}
}

func TestFirstMethodBecomesDefault(t *testing.T) {
	db := dbtest.New(t)
	svc := payment.NewMethodService(db, logger.Discard())
	ctx := context.Background()

	require.NoError(t, db.Where("user_id = ?", 3).Delete(&payment.PaymentMethod{}).Error)

	method, err := svc.AddMethod(ctx, 3, &payment.AddMethodRequest{Type: payment.MethodTypePayPal, PayPalEmail: "jane@example.com"})
	require.NoError(t, err)
	assert.True(t, method.IsDefault)
}

func TestMethodsAreScopedToOwner(t *testing.T) {
	svc := payment.NewMethodService(dbtest.New(t), logger.Discard())
	ctx := context.Background()

	// seeded methods 3, 4, 5, 8 and 9
	methods, err := svc.GetMethods(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, methods, 5)

	_, err = svc.GetMethod(ctx, 2, 6)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	err = svc.DeleteMethod(ctx, 2, 6)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestUpdateMethod(t *testing.T) {
	svc := payment.NewMethodService(dbtest.New(t), logger.Discard())
	ctx := context.Background()

	holder := "Johnny Doe"
	month, year := "01", "2031"
	updated, err := svc.UpdateMethod(ctx, 2, 4, &payment.UpdateMethodRequest{CardHolderName: &holder, ExpiryMonth: &month, ExpiryYear: &year})
	require.NoError(t, err)
	assert.Equal(t, "Johnny Doe", *updated.CardHolderName)
	assert.Equal(t, "2031", *updated.ExpiryYear)
	assert.Equal(t, "1111", *updated.CardNumberLast4)

	_, err = svc.UpdateMethod(ctx, 2, 4, &payment.UpdateMethodRequest{ExpiryMonth: &month})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	email := "john.new@example.com"
	updated, err = svc.UpdateMethod(ctx, 2, 5, &payment.UpdateMethodRequest{PayPalEmail: &email})
	require.NoError(t, err)
	assert.Equal(t, email, *updated.PayPalEmail)
}

func TestSetDefaultAndDeletePromotion(t *testing.T) {
	db := dbtest.New(t)
	svc := payment.NewMethodService(db, logger.Discard())
	ctx := context.Background()

	method, err := svc.SetDefault(ctx, 2, 5)
	require.NoError(t, err)
	assert.True(t, method.IsDefault)

	methods, err := svc.GetMethods(ctx, 2)
	require.NoError(t, err)
	defaults := 0
	for _, m := range methods {
		if m.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)

	require.NoError(t, svc.DeleteMethod(ctx, 2, 5))
	promoted, err := svc.GetMethod(ctx, 2, 3)
	require.NoError(t, err)
	assert.True(t, promoted.IsDefault)
}

func TestDeleteMethodBlockedByPendingOrder(t *testing.T) {
	db := dbtest.New(t)
	svc := payment.NewMethodService(db, logger.Discard())

	methodID := uint(4)
	require.NoError(t, db.Create(&order.Order{
		UserID:          2,
		Status:          order.OrderStatusPending,
		PaymentStatus:   order.PaymentStatusPending,
		SubtotalPrice:   money.MustParse("10.99"),
		TotalPrice:      money.MustParse("10.99"),
		PaymentMethodID: &methodID,
		OrderDate:       time.Now().UTC(),
	}).Error)

	err := svc.DeleteMethod(context.Background(), 2, 4)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
}
