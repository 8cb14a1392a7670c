package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/pou26/rugas/internal/customer"
	"github.com/pou26/rugas/internal/product"
)

var (
	ErrInvalidOrder            = errors.New("invalid order request")
	ErrProductNotFound         = errors.New("product not found")
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// CatalogAccessor resolves products at order-creation time. Satisfied by
// product.Service.
type CatalogAccessor interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
}

// CustomerAccessor resolves customers when strict customer validation is
// enabled. Satisfied by customer.Service.
type CustomerAccessor interface {
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
}

// Policy selects between the legacy permissive behavior and the stricter
// variants.
type Policy struct {
	// StrictTransitions rejects status updates that are not legal under the
	// state machine. When false any recognized status value is accepted.
	StrictTransitions bool
	// ValidateCustomer requires the referenced customer to exist before an
	// order is built.
	ValidateCustomer bool
}

type LineItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderInput struct {
	CustomerID string          `json:"customer"`
	Items      []LineItemInput `json:"products"`
	Notes      string          `json:"notes"`
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target OrderStatus) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]Order, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}

type service struct {
	repo      Repository
	catalog   CatalogAccessor
	customers CustomerAccessor
	numbers   *NumberGenerator
	policy    Policy
}

func NewService(repo Repository, catalog CatalogAccessor, customers CustomerAccessor, numbers *NumberGenerator, policy Policy) Service {
	return &service{
		repo:      repo,
		catalog:   catalog,
		customers: customers,
		numbers:   numbers,
		policy:    policy,
	}
}

// CreateOrder validates the request, resolves every line item against the
// catalog, snapshots unit prices, computes the total and persists the order
// under a freshly generated order number. Any resolution failure aborts the
// whole order.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if input.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer required", ErrInvalidOrder)
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: products required", ErrInvalidOrder)
	}
	for i, item := range input.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			return nil, fmt.Errorf("%w: each product must have productId and quantity (item %d)", ErrInvalidOrder, i+1)
		}
	}

	customerID, err := uuid.FromString(input.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid customer id %q", ErrInvalidOrder, input.CustomerID)
	}

	if s.policy.ValidateCustomer {
		if _, err := s.customers.GetCustomerByID(ctx, customerID); err != nil {
			if errors.Is(err, customer.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
			}
			return nil, fmt.Errorf("service: failed to resolve customer: %w", err)
		}
	}

	items := make([]OrderItem, 0, len(input.Items))
	total := decimal.Zero

	for _, in := range input.Items {
		productID, err := uuid.FromString(in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, in.ProductID)
		}

		p, err := s.catalog.GetProductByID(ctx, productID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, in.ProductID)
			}
			return nil, fmt.Errorf("service: failed to resolve product %s: %w", in.ProductID, err)
		}

		items = append(items, OrderItem{
			ProductID:       p.ID,
			Quantity:        in.Quantity,
			PriceSnapshot:   p.Price,
			ProductName:     p.Name,
			ProductCategory: p.Category,
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(in.Quantity))))
	}

	o := &Order{
		CustomerID:  customerID,
		Items:       items,
		TotalAmount: total,
		Status:      StatusPlaced,
		Notes:       input.Notes,
	}

	// The unique index on order_number is the backstop for the generator: on
	// a collision, regenerate once with a fresh sequence value and timestamp.
	if err := s.persistWithNumber(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicateOrderNumber) {
			log.Warn().Str("order_number", o.OrderNumber).Msg("service: duplicate order number, regenerating")
			o.ID = uuid.Nil
			if err := s.persistWithNumber(ctx, o); err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	log.Info().
		Stringer("order_id", o.ID).
		Str("order_number", o.OrderNumber).
		Stringer("customer_id", o.CustomerID).
		Str("total_amount", o.TotalAmount.String()).
		Msg("service: order created")

	enriched, err := s.repo.GetByID(ctx, o.ID)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", o.ID).Msg("service: failed to reload order after create")
		return o, nil
	}
	return enriched, nil
}

func (s *service) persistWithNumber(ctx context.Context, o *Order) error {
	seq, err := s.repo.NextNumberSeq(ctx)
	if err != nil {
		return fmt.Errorf("service: failed to allocate order number: %w", err)
	}
	o.OrderNumber = s.numbers.Generate(seq)

	if err := s.repo.Create(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicateOrderNumber) {
			return ErrDuplicateOrderNumber
		}
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return fmt.Errorf("service: failed to create order: %w", err)
	}
	return nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return o, nil
}

// UpdateStatus moves an order to the requested status. Under the strict
// policy the transition must be legal for the order's current status; under
// the permissive policy any recognized value is accepted.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, target OrderStatus) (*Order, error) {
	if !IsValidStatus(target) {
		return nil, fmt.Errorf("%w: status must be one of %s", ErrInvalidStatus, validStatusList())
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to load order for status update")
		return nil, fmt.Errorf("service: failed to load order for status update: %w", err)
	}

	if s.policy.StrictTransitions && !CanTransition(current.Status, target) {
		log.Warn().
			Stringer("order_id", id).
			Stringer("current_status", current.Status).
			Stringer("new_status", target).
			Msg("service: illegal status transition attempt")
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, target)
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Stringer("new_status", target).Msg("service: failed to update order status")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().
		Stringer("order_id", id).
		Stringer("old_status", current.Status).
		Stringer("new_status", target).
		Msg("service: order status updated")

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to reload order after status update: %w", err)
	}
	return updated, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) ([]Order, error) {
	if filter.Status != "" && !IsValidStatus(filter.Status) {
		return nil, fmt.Errorf("%w: status must be one of %s", ErrInvalidStatus, validStatusList())
	}

	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}

	return orders, nil
}

func (s *service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats, err := s.repo.DashboardStats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load dashboard stats")
		return nil, fmt.Errorf("service: failed to load dashboard stats: %w", err)
	}

	return stats, nil
}

func validStatusList() string {
	names := make([]string, len(ValidStatuses))
	for i, s := range ValidStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
