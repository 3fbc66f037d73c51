// internal/domain/payment/method_service.go
package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MethodService manages stored payment instruments
type MethodService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMethodService creates a new payment method service
func NewMethodService(db *gorm.DB, logger *logrus.Logger) *MethodService {
	return &MethodService{
		db:     db,
		logger: logger,
	}
}

// AddMethodRequest carries a new instrument. CardNumber and CVV are used
// for validation only.
type AddMethodRequest struct {
	Type           MethodType `json:"type" binding:"required"`
	CardHolderName string     `json:"card_holder_name"`
	CardNumber     string     `json:"card_number"`
	ExpiryMonth    string     `json:"expiry_month"`
	ExpiryYear     string     `json:"expiry_year"`
	CVV            string     `json:"cvv"`
	PayPalEmail    string     `json:"paypal_email"`
}

// UpdateMethodRequest changes holder, expiry or PayPal email. The card number is fixed.
type UpdateMethodRequest struct {
	CardHolderName *string `json:"card_holder_name"`
	ExpiryMonth    *string `json:"expiry_month"`
	ExpiryYear     *string `json:"expiry_year"`
	PayPalEmail    *string `json:"paypal_email"`
}

// GetMethods lists the caller's payment methods
func (s *MethodService) GetMethods(ctx context.Context, userID uint) ([]PaymentMethod, error) {
	var methods []PaymentMethod
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&methods).Error; err != nil {
		return nil, apperror.Internal(err, "failed to retrieve payment methods")
	}
	return methods, nil
}

// GetMethod returns one of the caller's payment methods
func (s *MethodService) GetMethod(ctx context.Context, userID, id uint) (*PaymentMethod, error) {
	return FindMethod(s.db.WithContext(ctx), userID, id)
}

// AddMethod validates and stores an instrument. The caller's first method becomes the default.
func (s *MethodService) AddMethod(ctx context.Context, userID uint, req *AddMethodRequest) (*PaymentMethod, error) {
	if err := validateNewMethod(req); err != nil {
		return nil, err
	}

	method := PaymentMethod{
		UserID:    userID,
		Type:      req.Type,
		CreatedAt: time.Now().UTC(),
	}
	if req.Type.IsCard() {
		number := strings.ReplaceAll(req.CardNumber, " ", "")
		last4 := number[len(number)-4:]
		masked := "**** **** **** " + last4
		method.CardHolderName = stringPtr(strings.TrimSpace(req.CardHolderName))
		method.CardNumberLast4 = &last4
		method.CardNumberMasked = &masked
		method.ExpiryMonth = stringPtr(req.ExpiryMonth)
		method.ExpiryYear = stringPtr(req.ExpiryYear)
	} else {
		method.PayPalEmail = stringPtr(strings.TrimSpace(req.PayPalEmail))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&PaymentMethod{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return apperror.Internal(err, "failed to count payment methods")
		}
		method.IsDefault = existing == 0
		if err := tx.Create(&method).Error; err != nil {
			return apperror.Internal(err, "failed to add payment method")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"method_id": method.ID,
		"type":      method.Type,
	}).Info("payment method added")
	return &method, nil
}

// UpdateMethod changes the mutable fields of an instrument
func (s *MethodService) UpdateMethod(ctx context.Context, userID, id uint, req *UpdateMethodRequest) (*PaymentMethod, error) {
	db := s.db.WithContext(ctx)
	method, err := FindMethod(db, userID, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if method.Type.IsCard() {
		if req.CardHolderName != nil {
			if strings.TrimSpace(*req.CardHolderName) == "" {
				return nil, apperror.InvalidArgument("Card holder name is required")
			}
			updates["card_holder_name"] = strings.TrimSpace(*req.CardHolderName)
		}
		if req.ExpiryMonth != nil || req.ExpiryYear != nil {
			if req.ExpiryMonth == nil || req.ExpiryYear == nil || *req.ExpiryMonth == "" || *req.ExpiryYear == "" {
				return nil, apperror.InvalidArgument("Expiry date is required")
			}
			updates["expiry_month"] = *req.ExpiryMonth
			updates["expiry_year"] = *req.ExpiryYear
		}
	} else if req.PayPalEmail != nil {
		if strings.TrimSpace(*req.PayPalEmail) == "" {
			return nil, apperror.InvalidArgument("PayPal email is required")
		}
		updates["paypal_email"] = strings.TrimSpace(*req.PayPalEmail)
	}

	if len(updates) > 0 {
		if err := db.Model(method).Updates(updates).Error; err != nil {
			return nil, apperror.Internal(err, "failed to update payment method")
		}
	}
	return FindMethod(db, userID, id)
}

// DeleteMethod removes an instrument unless a pending order references it.
// Deleting the default promotes the caller's oldest remaining method.
func (s *MethodService) DeleteMethod(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		method, err := FindMethod(tx, userID, id)
		if err != nil {
			return err
		}

		var pending int64
		err = tx.Model(&order.Order{}).
			Where("user_id = ? AND payment_method_id = ? AND payment_status = ?", userID, id, order.PaymentStatusPending).
			Count(&pending).Error
		if err != nil {
			return apperror.Internal(err, "failed to check pending orders")
		}
		if pending > 0 {
			return apperror.InvalidState("Cannot delete payment method with pending orders. Please complete or cancel those orders first.")
		}

		if err := tx.Delete(method).Error; err != nil {
			return apperror.Internal(err, "failed to delete payment method")
		}

		if method.IsDefault {
			var next PaymentMethod
			err := tx.Where("user_id = ?", userID).Order("id asc").First(&next).Error
			switch {
			case err == nil:
				if err := tx.Model(&next).Update("is_default", true).Error; err != nil {
					return apperror.Internal(err, "failed to promote default payment method")
				}
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return apperror.Internal(err, "failed to promote default payment method")
			}
		}
		return nil
	})
}

// SetDefault makes id the caller's only default method
func (s *MethodService) SetDefault(ctx context.Context, userID, id uint) (*PaymentMethod, error) {
	var method *PaymentMethod
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		method, err = FindMethod(tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&PaymentMethod{}).Where("user_id = ?", userID).Update("is_default", false).Error; err != nil {
			return apperror.Internal(err, "failed to reset default payment method")
		}
		if err := tx.Model(method).Update("is_default", true).Error; err != nil {
			return apperror.Internal(err, "failed to set default payment method")
		}
		method.IsDefault = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return method, nil
}

// FindMethod loads a payment method owned by userID
func FindMethod(db *gorm.DB, userID, id uint) (*PaymentMethod, error) {
	var method PaymentMethod
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&method).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Payment method not found")
		}
		return nil, apperror.Internal(err, "failed to retrieve payment method")
	}
	return &method, nil
}

func validateNewMethod(req *AddMethodRequest) error {
	switch {
	case req.Type.IsCard():
		number := strings.ReplaceAll(req.CardNumber, " ", "")
		if strings.TrimSpace(req.CardHolderName) == "" {
			return apperror.InvalidArgument("Card holder name is required")
		}
		if len(number) < 13 {
			return apperror.InvalidArgument("Invalid card number")
		}
		if req.ExpiryMonth == "" || req.ExpiryYear == "" {
			return apperror.InvalidArgument("Expiry date is required")
		}
		if len(req.CVV) < 3 {
			return apperror.InvalidArgument("Invalid CVV")
		}
	case req.Type == MethodTypePayPal:
		if strings.TrimSpace(req.PayPalEmail) == "" {
			return apperror.InvalidArgument("PayPal email is required")
		}
	default:
		return apperror.InvalidArgument("Payment method type must be CreditCard, DebitCard or PayPal")
	}
	return nil
}

func stringPtr(s string) *string {
	return &s
}
