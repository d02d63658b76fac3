package orders

import (
	"context"
	"fmt"

	"github.com/medsupply-io/backoffice/internal/domain"
)

// ResolvedReferences carries the entities resolved during validation so the
// created order can be returned hydrated without a second round of lookups.
type ResolvedReferences struct {
	Customer *domain.Customer
	SalesRep *domain.SalesRep
	Products map[string]*domain.Product
}

// ReferenceValidator confirms that every external reference on an incoming
// order resolves. Validation is sequential and stops at the first missing
// reference.
type ReferenceValidator struct {
	customers domain.CustomerDirectory
	salesReps domain.SalesRepDirectory
	catalog   domain.ProductCatalog
}

func NewReferenceValidator(customers domain.CustomerDirectory, salesReps domain.SalesRepDirectory, catalog domain.ProductCatalog) *ReferenceValidator {
	return &ReferenceValidator{
		customers: customers,
		salesReps: salesReps,
		catalog:   catalog,
	}
}

func (v *ReferenceValidator) Validate(ctx context.Context, customerID, salesRepID string, productIDs []string) (*ResolvedReferences, error) {
	customer, err := v.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("validate customer: %w", err)
	}

	salesRep, err := v.salesReps.GetSalesRep(ctx, salesRepID)
	if err != nil {
		return nil, fmt.Errorf("validate sales rep: %w", err)
	}

	products := make(map[string]*domain.Product, len(productIDs))
	for _, id := range productIDs {
		if _, ok := products[id]; ok {
			continue
		}
		product, err := v.catalog.GetProduct(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("validate product: %w", err)
		}
		products[id] = product
	}

	return &ResolvedReferences{
		Customer: customer,
		SalesRep: salesRep,
		Products: products,
	}, nil
}
