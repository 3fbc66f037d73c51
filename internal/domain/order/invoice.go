package order

import (
	"context"
	"strings"

	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/auth"
)

// InvoiceAddress is the shipping address printed on an invoice
type InvoiceAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Lines formats the address for display, skipping empty parts
func (a *InvoiceAddress) Lines() []string {
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(a.City, strings.TrimSpace(a.State+" "+a.PostalCode)), ", "))
	return nonEmpty(a.Street, cityLine, a.Country)
}

// Invoice is an order with the customer details needed to bill it
type Invoice struct {
	Order           *Order          `json:"order"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	ShippingAddress *InvoiceAddress `json:"shipping_address,omitempty"`
}

// GetInvoice loads an order visible to the caller together with its
// customer and shipping address
func (s *Service) GetInvoice(ctx context.Context, id uint, caller *auth.Identity) (*Invoice, error) {
	order, err := s.GetOrder(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	recipient, err := LookupRecipient(db, order.UserID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to retrieve customer")
	}

	invoice := &Invoice{
		Order:         order,
		CustomerName:  recipient.FullName(),
		CustomerEmail: recipient.Email,
	}

	if order.ShippingAddressID != nil {
		var rows []InvoiceAddress
		err := db.Raw("SELECT street, city, state, postal_code, country FROM addresses WHERE id = ?", *order.ShippingAddressID).
			Scan(&rows).Error
		if err != nil {
			return nil, apperror.Internal(err, "failed to retrieve shipping address")
		}
		// the address may have been deleted since the order was placed
		if len(rows) > 0 {
			invoice.ShippingAddress = &rows[0]
		}
	}
	return invoice, nil
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
