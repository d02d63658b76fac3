package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/medsupply-io/backoffice/internal/domain"
)

var serviceMeter = otel.Meter("orders/service")

// createAttempts bounds the allocation+write retry loop. Each retry
// re-allocates against the current store state; a stale candidate number is
// never reused.
const createAttempts = 3

// Store is the transactional boundary for order and item rows.
type Store interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	LastOrderNumber(ctx context.Context, prefix string) (string, error)
}

// Publisher emits a lifecycle event. A nil Publisher disables publication.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type CreateOrderInput struct {
	CustomerID      string      `json:"customer_id"`
	SalesRepID      string      `json:"sales_rep_id"`
	Items           []LineInput `json:"items"`
	ShippingAddress string      `json:"shipping_address"`
	BillingAddress  string      `json:"billing_address"`
	Notes           string      `json:"notes"`
}

// Service drives the order lifecycle: reference validation, total
// calculation, order number allocation and atomic persistence for creation,
// and status transitions for updates.
type Service struct {
	store     Store
	customers domain.CustomerDirectory
	salesReps domain.SalesRepDirectory
	catalog   domain.ProductCatalog
	validator *ReferenceValidator
	allocator *SequenceAllocator

	createdEvents Publisher
	statusEvents  Publisher
	logger        *slog.Logger

	ordersCreated metric.Int64Counter
	now           func() time.Time
}

func NewService(store Store, customers domain.CustomerDirectory, salesReps domain.SalesRepDirectory,
	catalog domain.ProductCatalog, createdEvents, statusEvents Publisher, logger *slog.Logger) (*Service, error) {

	ordersCreated, err := serviceMeter.Int64Counter("orders.created",
		metric.WithDescription("Number of orders successfully created"))
	if err != nil {
		return nil, fmt.Errorf("create orders.created counter: %w", err)
	}

	return &Service{
		store:         store,
		customers:     customers,
		salesReps:     salesReps,
		catalog:       catalog,
		validator:     NewReferenceValidator(customers, salesReps, catalog),
		allocator:     NewSequenceAllocator(store),
		createdEvents: createdEvents,
		statusEvents:  statusEvents,
		logger:        logger,
		ordersCreated: ordersCreated,
		now:           time.Now,
	}, nil
}

// Create validates references, computes totals, allocates an order number
// and persists the order atomically. An order number conflict from a
// concurrent creation is retried with a fresh allocation up to
// createAttempts times; every other failure stops the pipeline before any
// write.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if input.ShippingAddress == "" {
		return nil, &domain.InvalidArgumentError{Field: "shipping_address", Reason: "must not be empty"}
	}
	if input.BillingAddress == "" {
		return nil, &domain.InvalidArgumentError{Field: "billing_address", Reason: "must not be empty"}
	}

	productIDs := make([]string, 0, len(input.Items))
	for _, line := range input.Items {
		productIDs = append(productIDs, line.ProductID)
	}

	refs, err := s.validator.Validate(ctx, input.CustomerID, input.SalesRepID, productIDs)
	if err != nil {
		return nil, err
	}

	items, total, err := BuildItems(input.Items)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= createAttempts; attempt++ {
		number, err := s.allocator.Next(ctx, s.now())
		if err != nil {
			return nil, err
		}

		order := &domain.Order{
			OrderNumber:     number,
			CustomerID:      input.CustomerID,
			SalesRepID:      input.SalesRepID,
			Status:          domain.OrderStatusDraft,
			TotalAmount:     total,
			ShippingAddress: input.ShippingAddress,
			BillingAddress:  input.BillingAddress,
			Notes:           input.Notes,
			Items:           items,
			CreatedAt:       s.now().UTC(),
		}

		err = s.store.Create(ctx, order)
		if errors.Is(err, domain.ErrWriteConflict) {
			s.logger.Warn("order number conflict, re-allocating",
				"order_number", number, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.hydrateFromRefs(order, refs)
		s.ordersCreated.Add(ctx, 1)
		s.publishCreated(ctx, order)

		return order, nil
	}

	return nil, fmt.Errorf("allocate order number after %d attempts: %w", createAttempts, domain.ErrWriteConflict)
}

// Get loads an order and resolves its customer, sales rep and product names
// for display.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.resolve(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// List returns all orders, newest first, hydrated for display.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if err := s.resolve(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// SetStatus transitions an order to the target status. Transitions are not
// validated against a graph; the store stamps the matching timestamp on the
// first transition into a timestamped status.
func (s *Service) SetStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !domain.ValidStatus(status) {
		return nil, &domain.InvalidArgumentError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}

	order, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	if err := s.resolve(ctx, order); err != nil {
		return nil, err
	}

	s.publishStatusChanged(ctx, order)

	return order, nil
}

func (s *Service) hydrateFromRefs(order *domain.Order, refs *ResolvedReferences) {
	order.Customer = refs.Customer
	order.SalesRep = refs.SalesRep
	for i := range order.Items {
		if product := refs.Products[order.Items[i].ProductID]; product != nil {
			order.Items[i].ProductName = product.Name
		}
	}
}

// resolve hydrates an order for display. References are validated only at
// creation time, so one that has since disappeared is left unresolved rather
// than failing the read.
func (s *Service) resolve(ctx context.Context, order *domain.Order) error {
	customer, err := s.customers.GetCustomer(ctx, order.CustomerID)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("resolve customer for order %s: %w", order.ID, err)
	}
	order.Customer = customer

	salesRep, err := s.salesReps.GetSalesRep(ctx, order.SalesRepID)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("resolve sales rep for order %s: %w", order.ID, err)
	}
	order.SalesRep = salesRep

	for i := range order.Items {
		product, err := s.catalog.GetProduct(ctx, order.Items[i].ProductID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return fmt.Errorf("resolve product for order %s: %w", order.ID, err)
		}
		order.Items[i].ProductName = product.Name
	}

	return nil
}

func isNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}

func (s *Service) publishCreated(ctx context.Context, order *domain.Order) {
	if s.createdEvents == nil {
		return
	}

	event := domain.OrderCreatedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		SalesRepID:  order.SalesRepID,
		TotalAmount: order.TotalAmount.String(),
		Items:       order.Items,
		Timestamp:   order.CreatedAt,
	}
	if err := s.createdEvents.Publish(ctx, order.ID, event); err != nil {
		s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
	}
}

func (s *Service) publishStatusChanged(ctx context.Context, order *domain.Order) {
	if s.statusEvents == nil {
		return
	}

	event := domain.OrderStatusChangedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Timestamp:   s.now().UTC(),
	}
	if err := s.statusEvents.Publish(ctx, order.ID, event); err != nil {
		s.logger.Error("failed to publish order status changed event", "error", err, "order_id", order.ID)
	}
}
