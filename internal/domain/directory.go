package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type SalesRep struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CustomerDirectory, SalesRepDirectory and ProductCatalog are the external
// systems an order references. Implementations return NotFoundError when the
// id does not resolve.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id string) (*Customer, error)
}

type SalesRepDirectory interface {
	GetSalesRep(ctx context.Context, id string) (*SalesRep, error)
}

type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}
