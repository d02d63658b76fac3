package orders

import (
	"github.com/shopspring/decimal"

	"github.com/medsupply-io/backoffice/internal/domain"
)

// LineInput is a caller-supplied order line. The unit price is a snapshot
// taken at order time; it is never re-read from the catalog later.
type LineInput struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// BuildItems computes per-line totals and the order grand total. Quantities
// below 1 and negative prices are rejected before anything is computed.
func BuildItems(lines []LineInput) ([]domain.OrderItem, decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, decimal.Zero, &domain.InvalidArgumentError{Field: "items", Reason: "order must have at least one item"}
	}

	items := make([]domain.OrderItem, 0, len(lines))
	total := decimal.Zero

	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, decimal.Zero, &domain.InvalidArgumentError{Field: "quantity", Reason: "must be at least 1"}
		}
		if line.UnitPrice.IsNegative() {
			return nil, decimal.Zero, &domain.InvalidArgumentError{Field: "unit_price", Reason: "must not be negative"}
		}

		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, domain.OrderItem{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: lineTotal,
		})
		total = total.Add(lineTotal)
	}

	return items, total, nil
}
