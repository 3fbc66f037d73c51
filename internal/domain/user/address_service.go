// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AddressService handles address business logic
type AddressService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB, logger *logrus.Logger) *AddressService {
	return &AddressService{
		db:     db,
		logger: logger,
	}
}

// AddressRequest carries a full address; updates replace every field
type AddressRequest struct {
	AddressType AddressType `json:"address_type"`
	Street      string      `json:"street" binding:"required"`
	City        string      `json:"city" binding:"required"`
	State       string      `json:"state"`
	PostalCode  string      `json:"postal_code"`
	Country     string      `json:"country"`
	IsDefault   bool        `json:"is_default"`
}

// GetAddresses lists the caller's addresses, default first
func (s *AddressService) GetAddresses(ctx context.Context, userID uint) ([]Address, error) {
	var addresses []Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, id ASC").
		Find(&addresses).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to retrieve addresses")
	}
	return addresses, nil
}

// AddAddress stores a new address. Marking it default clears the flag on the others.
func (s *AddressService) AddAddress(ctx context.Context, userID uint, req *AddressRequest) (*Address, error) {
	address := Address{UserID: userID}
	if err := fillAddress(&address, req); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findUser(tx, userID); err != nil {
			return err
		}
		if address.IsDefault {
			if err := unsetDefaults(tx, userID, 0); err != nil {
				return err
			}
		}
		if err := tx.Create(&address).Error; err != nil {
			return apperror.Internal(err, "failed to create address")
		}
		return touchUser(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "address_id": address.ID}).Info("address added")
	return &address, nil
}

// UpdateAddress replaces an address owned by the caller
func (s *AddressService) UpdateAddress(ctx context.Context, userID, addressID uint, req *AddressRequest) (*Address, error) {
	var address *Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		address, err = findAddress(tx, userID, addressID)
		if err != nil {
			return err
		}
		if err := fillAddress(address, req); err != nil {
			return err
		}
		if address.IsDefault {
			if err := unsetDefaults(tx, userID, address.ID); err != nil {
				return err
			}
		}
		// Select("*") so a cleared default flag is written too
		if err := tx.Model(address).Select("*").Updates(address).Error; err != nil {
			return apperror.Internal(err, "failed to update address")
		}
		return touchUser(tx, userID)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress removes an address. Removing the default promotes the oldest remaining one.
func (s *AddressService) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		address, err := findAddress(tx, userID, addressID)
		if err != nil {
			return err
		}
		if err := tx.Delete(address).Error; err != nil {
			return apperror.Internal(err, "failed to delete address")
		}

		if address.IsDefault {
			var next Address
			err := tx.Where("user_id = ?", userID).Order("id asc").First(&next).Error
			switch {
			case err == nil:
				if err := tx.Model(&next).Update("is_default", true).Error; err != nil {
					return apperror.Internal(err, "failed to promote default address")
				}
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return apperror.Internal(err, "failed to promote default address")
			}
		}
		return touchUser(tx, userID)
	})
}

// SetDefault makes addressID the caller's only default address
func (s *AddressService) SetDefault(ctx context.Context, userID, addressID uint) (*Address, error) {
	var address *Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		address, err = findAddress(tx, userID, addressID)
		if err != nil {
			return err
		}
		if err := unsetDefaults(tx, userID, address.ID); err != nil {
			return err
		}
		if err := tx.Model(address).Update("is_default", true).Error; err != nil {
			return apperror.Internal(err, "failed to set default address")
		}
		address.IsDefault = true
		return touchUser(tx, userID)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func fillAddress(address *Address, req *AddressRequest) error {
	addressType := req.AddressType
	if addressType == "" {
		addressType = AddressTypeShipping
	}
	if !addressType.IsValid() {
		return apperror.InvalidArgument("Address type must be Shipping, Billing or Both")
	}
	if strings.TrimSpace(req.Street) == "" || strings.TrimSpace(req.City) == "" {
		return apperror.InvalidArgument("Street and city are required")
	}

	address.AddressType = addressType
	address.Street = strings.TrimSpace(req.Street)
	address.City = strings.TrimSpace(req.City)
	address.State = strings.TrimSpace(req.State)
	address.PostalCode = strings.TrimSpace(req.PostalCode)
	address.Country = strings.TrimSpace(req.Country)
	address.IsDefault = req.IsDefault
	return nil
}

func findAddress(db *gorm.DB, userID, addressID uint) (*Address, error) {
	var address Address
	if err := db.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Address not found or access denied")
		}
		return nil, apperror.Internal(err, "failed to retrieve address")
	}
	return &address, nil
}

func unsetDefaults(tx *gorm.DB, userID, exceptID uint) error {
	err := tx.Model(&Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, exceptID, true).
		Update("is_default", false).Error
	if err != nil {
		return apperror.Internal(err, "failed to reset default address")
	}
	return nil
}

func touchUser(tx *gorm.DB, userID uint) error {
	if err := tx.Model(&User{}).Where("id = ?", userID).Update("updated_at", time.Now().UTC()).Error; err != nil {
		return apperror.Internal(err, "failed to update user")
	}
	return nil
}
