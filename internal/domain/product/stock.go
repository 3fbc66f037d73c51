// internal/domain/product/stock.go
package product

import (
	"sort"

	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// StockLine is a quantity of one product to reserve or restore
type StockLine struct {
	ProductID uint
	Quantity  int
}

// ReserveStock validates every line against live stock and then decrements
// all of them. It must run inside the caller's transaction: a failure on
// any line returns an error and the caller rolls back, so nothing is
// partially reserved. Returns the products keyed by id as they were before
// the reservation, for snapshotting.
func ReserveStock(tx *gorm.DB, lines []StockLine) (map[uint]*Product, error) {
	totals, order := mergeLines(lines)

	products := make(map[uint]*Product, len(order))
	for _, id := range order {
		product, err := findProduct(tx, id)
		if err != nil {
			return nil, err
		}
		if totals[id] <= 0 {
			return nil, apperror.InvalidArgument("Quantity for product '%s' must be greater than zero.", product.Name)
		}
		if !product.IsAvailable(totals[id]) {
			return nil, apperror.InsufficientStock("Insufficient stock for product '%s'. Available: %d, Requested: %d",
				product.Name, product.StockQuantity, totals[id])
		}
		products[id] = product
	}

	for _, id := range order {
		ok, err := decrementStock(tx, id, totals[id])
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost a race with another reservation after validation
			return nil, apperror.InsufficientStock("Insufficient stock for product '%s'. Requested: %d",
				products[id].Name, totals[id])
		}
	}

	return products, nil
}

// RestoreStock returns reserved quantities to the catalog. Lines whose
// product no longer exists are skipped.
func RestoreStock(tx *gorm.DB, lines []StockLine) error {
	totals, order := mergeLines(lines)
	for _, id := range order {
		if totals[id] <= 0 {
			continue
		}
		if err := incrementStock(tx, id, totals[id]); err != nil && !apperror.Is(err, apperror.KindNotFound) {
			return err
		}
	}
	return nil
}

func decrementStock(tx *gorm.DB, id uint, quantity int) (bool, error) {
	result := tx.Model(&Product{}).
		Where("id = ? AND stock_quantity >= ?", id, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return false, apperror.Internal(result.Error, "failed to reserve stock")
	}
	return result.RowsAffected == 1, nil
}

func incrementStock(tx *gorm.DB, id uint, quantity int) error {
	result := tx.Model(&Product{}).
		Where("id = ?", id).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity))
	if result.Error != nil {
		return apperror.Internal(result.Error, "failed to restore stock")
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("Product with ID %d not found.", id)
	}
	return nil
}

// mergeLines sums quantities per product and returns ids in ascending
// order so concurrent reservations touch rows in the same sequence
func mergeLines(lines []StockLine) (map[uint]int, []uint) {
	totals := make(map[uint]int, len(lines))
	order := make([]uint, 0, len(lines))
	for _, line := range lines {
		if _, seen := totals[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		totals[line.ProductID] += line.Quantity
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return totals, order
}
