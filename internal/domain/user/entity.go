// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents the user entity
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null;size:100" json:"username"`
	Password    string    `gorm:"not null;size:255" json:"-"` // bcrypt hash, never returned
	Role        string    `gorm:"not null;size:20;default:'User'" json:"role"`
	Email       string    `gorm:"size:255;index" json:"email"`
	FirstName   string    `gorm:"size:100" json:"first_name"`
	LastName    string    `gorm:"size:100" json:"last_name"`
	PhoneNumber string    `gorm:"size:30" json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Addresses []Address `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"addresses,omitempty"`
}

// AddressType tells which checkout step an address may serve
type AddressType string

const (
	AddressTypeShipping AddressType = "Shipping"
	AddressTypeBilling  AddressType = "Billing"
	AddressTypeBoth     AddressType = "Both"
)

// IsValid reports whether t is a known address type
func (t AddressType) IsValid() bool {
	switch t {
	case AddressTypeShipping, AddressTypeBilling, AddressTypeBoth:
		return true
	}
	return false
}

// Address represents user addresses
type Address struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	AddressType AddressType `gorm:"size:20;not null;default:'Shipping'" json:"address_type"`
	Street      string      `gorm:"size:255;not null" json:"street"`
	City        string      `gorm:"size:100;not null" json:"city"`
	State       string      `gorm:"size:100" json:"state"`
	PostalCode  string      `gorm:"size:20" json:"postal_code"`
	Country     string      `gorm:"size:100" json:"country"`
	IsDefault   bool        `gorm:"default:false" json:"is_default"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// TableName overrides the table name for Address
func (Address) TableName() string {
	return "addresses"
}

// BeforeCreate hook to handle business logic before user creation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// Email should be lowercase
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = "User"
	}
	return nil
}

// GetFullName returns the user's full name
func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// GetDisplayName returns display name (full name or username)
func (u *User) GetDisplayName() string {
	fullName := u.GetFullName()
	if fullName != "" {
		return fullName
	}
	return u.Username
}

// UserInfo is the public projection of a user
type UserInfo struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Info builds the public projection
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}
