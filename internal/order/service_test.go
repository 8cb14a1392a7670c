package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pou26/rugas/internal/customer"
	"github.com/pou26/rugas/internal/order"
	"github.com/pou26/rugas/internal/product"
)

type mockRepository struct {
	createFunc       func(ctx context.Context, o *order.Order) error
	getByIDFunc      func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	updateStatusFunc func(ctx context.Context, id uuid.UUID, status order.OrderStatus) error
	listFunc         func(ctx context.Context, filter order.ListFilter) ([]order.Order, error)
	nextSeqFunc      func(ctx context.Context) (int64, error)
	statsFunc        func(ctx context.Context) (*order.DashboardStats, error)
}

func (m *mockRepository) Create(ctx context.Context, o *order.Order) error {
	return m.createFunc(ctx, o)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status order.OrderStatus) error {
	return m.updateStatusFunc(ctx, id, status)
}

func (m *mockRepository) List(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	return m.listFunc(ctx, filter)
}

func (m *mockRepository) NextNumberSeq(ctx context.Context) (int64, error) {
	return m.nextSeqFunc(ctx)
}

func (m *mockRepository) DashboardStats(ctx context.Context) (*order.DashboardStats, error) {
	return m.statsFunc(ctx)
}

type mockCatalog struct {
	products map[uuid.UUID]*product.Product
	calls    int
}

func (m *mockCatalog) GetProductByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	m.calls++
	p, ok := m.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

type mockCustomers struct {
	customers map[uuid.UUID]*customer.Customer
	calls     int
}

func (m *mockCustomers) GetCustomerByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	m.calls++
	c, ok := m.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c, nil
}

var (
	customerID = uuid.Must(uuid.FromString("123e4567-e89b-12d3-a456-426614174000"))
	productID1 = uuid.Must(uuid.FromString("550e8400-e29b-41d4-a716-446655440001"))
	productID2 = uuid.Must(uuid.FromString("550e8400-e29b-41d4-a716-446655440002"))
)

func newTestCatalog() *mockCatalog {
	return &mockCatalog{products: map[uuid.UUID]*product.Product{
		productID1: {ID: productID1, Name: "Laptop", Category: "electronics", Price: decimal.RequireFromString("10.00"), Stock: 5, Active: true},
		productID2: {ID: productID2, Name: "Mouse", Category: "electronics", Price: decimal.RequireFromString("5.50"), Stock: 12, Active: true},
	}}
}

// newTestRepo captures created orders and reports not-found on reload, so
// CreateOrder returns the built order itself for inspection.
func newTestRepo() (*mockRepository, *[]order.Order) {
	created := &[]order.Order{}
	seq := int64(0)
	repo := &mockRepository{
		createFunc: func(ctx context.Context, o *order.Order) error {
			o.ID = uuid.Must(uuid.NewV4())
			*created = append(*created, *o)
			return nil
		},
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
		nextSeqFunc: func(ctx context.Context) (int64, error) {
			seq++
			return seq, nil
		},
	}
	return repo, created
}

func newService(repo order.Repository, catalog order.CatalogAccessor, customers order.CustomerAccessor, policy order.Policy) order.Service {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gen := order.NewNumberGeneratorWithClock(func() time.Time { return fixed })
	return order.NewService(repo, catalog, customers, gen, policy)
}

func TestService_CreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name       string
		input      order.CreateOrderInput
		wantErrMsg string
	}{
		{
			name:       "missing_customer",
			input:      order.CreateOrderInput{Items: []order.LineItemInput{{ProductID: productID1.String(), Quantity: 1}}},
			wantErrMsg: "customer required",
		},
		{
			name:       "missing_products",
			input:      order.CreateOrderInput{CustomerID: customerID.String()},
			wantErrMsg: "products required",
		},
		{
			name: "item_without_product_id",
			input: order.CreateOrderInput{
				CustomerID: customerID.String(),
				Items:      []order.LineItemInput{{ProductID: "", Quantity: 2}},
			},
			wantErrMsg: "each product must have productId and quantity",
		},
		{
			name: "item_zero_quantity",
			input: order.CreateOrderInput{
				CustomerID: customerID.String(),
				Items: []order.LineItemInput{
					{ProductID: productID1.String(), Quantity: 1},
					{ProductID: productID2.String(), Quantity: 0},
				},
			},
			wantErrMsg: "each product must have productId and quantity (item 2)",
		},
		{
			name: "malformed_customer_id",
			input: order.CreateOrderInput{
				CustomerID: "not-a-uuid",
				Items:      []order.LineItemInput{{ProductID: productID1.String(), Quantity: 1}},
			},
			wantErrMsg: "invalid customer id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, created := newTestRepo()
			svc := newService(repo, newTestCatalog(), &mockCustomers{}, order.Policy{StrictTransitions: true})

			_, err := svc.CreateOrder(context.Background(), tt.input)

			assert.ErrorIs(t, err, order.ErrInvalidOrder)
			assert.Contains(t, err.Error(), tt.wantErrMsg)
			assert.Empty(t, *created, "no order must be persisted on validation failure")
		})
	}
}

func TestService_CreateOrder_UnknownProductAbortsOrder(t *testing.T) {
	repo, created := newTestRepo()
	catalog := newTestCatalog()
	unknown := uuid.Must(uuid.NewV4())
	svc := newService(repo, catalog, &mockCustomers{}, order.Policy{StrictTransitions: true})

	_, err := svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: customerID.String(),
		Items: []order.LineItemInput{
			{ProductID: productID1.String(), Quantity: 2},
			{ProductID: unknown.String(), Quantity: 1},
		},
	})

	assert.ErrorIs(t, err, order.ErrProductNotFound)
	assert.Contains(t, err.Error(), unknown.String())
	assert.Empty(t, *created, "a failed line item must abort the whole order")
}

func TestService_CreateOrder_ComputesExactTotal(t *testing.T) {
	repo, created := newTestRepo()
	svc := newService(repo, newTestCatalog(), &mockCustomers{}, order.Policy{StrictTransitions: true})

	got, err := svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: customerID.String(),
		Items: []order.LineItemInput{
			{ProductID: productID1.String(), Quantity: 2},
			{ProductID: productID2.String(), Quantity: 3},
		},
		Notes: "deliver before friday",
	})

	require.NoError(t, err)
	require.Len(t, *created, 1)

	assert.Equal(t, order.StatusPlaced, got.Status)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("36.50")),
		"expected total 36.50, got %s", got.TotalAmount)
	assert.Regexp(t, `^ORD-\d+-\d{4}$`, got.OrderNumber)
	assert.Equal(t, customerID, got.CustomerID)
	assert.Equal(t, "deliver before friday", got.Notes)

	require.Len(t, got.Items, 2)
	assert.True(t, got.Items[0].PriceSnapshot.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, got.Items[1].PriceSnapshot.Equal(decimal.RequireFromString("5.50")))
	assert.Equal(t, 3, got.Items[1].Quantity)
}

func TestService_CreateOrder_SnapshotDecoupledFromCatalog(t *testing.T) {
	repo, created := newTestRepo()
	catalog := newTestCatalog()
	svc := newService(repo, catalog, &mockCustomers{}, order.Policy{StrictTransitions: true})

	_, err := svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: customerID.String(),
		Items:      []order.LineItemInput{{ProductID: productID1.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	// Catalog price changes after the order was placed.
	catalog.products[productID1].Price = decimal.RequireFromString("99.99")

	require.Len(t, *created, 1)
	stored := (*created)[0]
	assert.True(t, stored.Items[0].PriceSnapshot.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("10.00")))
}

func TestService_CreateOrder_RetriesOnceOnDuplicateNumber(t *testing.T) {
	createCalls := 0
	seq := int64(0)
	var persisted *order.Order

	repo := &mockRepository{
		createFunc: func(ctx context.Context, o *order.Order) error {
			createCalls++
			if createCalls == 1 {
				return order.ErrDuplicateOrderNumber
			}
			o.ID = uuid.Must(uuid.NewV4())
			copied := *o
			persisted = &copied
			return nil
		},
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
		nextSeqFunc: func(ctx context.Context) (int64, error) {
			seq++
			return seq, nil
		},
	}
	svc := newService(repo, newTestCatalog(), &mockCustomers{}, order.Policy{StrictTransitions: true})

	got, err := svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: customerID.String(),
		Items:      []order.LineItemInput{{ProductID: productID1.String(), Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, createCalls)
	assert.Equal(t, int64(2), seq, "retry must draw a fresh sequence value")
	require.NotNil(t, persisted)
	assert.Equal(t, persisted.OrderNumber, got.OrderNumber)
}

func TestService_CreateOrder_ConflictAfterSecondDuplicate(t *testing.T) {
	createCalls := 0
	repo := &mockRepository{
		createFunc: func(ctx context.Context, o *order.Order) error {
			createCalls++
			return order.ErrDuplicateOrderNumber
		},
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
		nextSeqFunc: func(ctx context.Context) (int64, error) { return 1, nil },
	}
	svc := newService(repo, newTestCatalog(), &mockCustomers{}, order.Policy{StrictTransitions: true})

	_, err := svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: customerID.String(),
		Items:      []order.LineItemInput{{ProductID: productID1.String(), Quantity: 1}},
	})

	assert.ErrorIs(t, err, order.ErrDuplicateOrderNumber)
	assert.Equal(t, 2, createCalls, "generation is retried exactly once")
}

func TestService_CreateOrder_CustomerValidationPolicy(t *testing.T) {
	t.Run("permissive_skips_lookup", func(t *testing.T) {
		repo, _ := newTestRepo()
		customers := &mockCustomers{}
		svc := newService(repo, newTestCatalog(), customers, order.Policy{})

		_, err := svc.CreateOrder(context.Background(), order.CreateOrderInput{
			CustomerID: customerID.String(),
			Items:      []order.LineItemInput{{ProductID: productID1.String(), Quantity: 1}},
		})

		require.NoError(t, err)
		assert.Zero(t, customers.calls, "permissive mode stores the reference without a lookup")
	})

	t.Run("strict_rejects_unknown_customer", func(t *testing.T) {
		repo, created := newTestRepo()
		customers := &mockCustomers{}
		svc := newService(repo, newTestCatalog(), customers, order.Policy{ValidateCustomer: true})

		_, err := svc.CreateOrder(context.Background(), order.CreateOrderInput{
			CustomerID: customerID.String(),
			Items:      []order.LineItemInput{{ProductID: productID1.String(), Quantity: 1}},
		})

		assert.ErrorIs(t, err, order.ErrCustomerNotFound)
		assert.Equal(t, 1, customers.calls)
		assert.Empty(t, *created)
	})

	t.Run("strict_accepts_known_customer", func(t *testing.T) {
		repo, _ := newTestRepo()
		customers := &mockCustomers{customers: map[uuid.UUID]*customer.Customer{
			customerID: {ID: customerID, Name: "Asha", Email: "asha@example.com"},
		}}
		svc := newService(repo, newTestCatalog(), customers, order.Policy{ValidateCustomer: true})

		_, err := svc.CreateOrder(context.Background(), order.CreateOrderInput{
			CustomerID: customerID.String(),
			Items:      []order.LineItemInput{{ProductID: productID1.String(), Quantity: 1}},
		})

		require.NoError(t, err)
	})
}

func TestService_UpdateStatus(t *testing.T) {
	orderID := uuid.Must(uuid.FromString("9f0e8400-e29b-41d4-a716-446655440000"))

	tests := []struct {
		name          string
		current       order.OrderStatus
		target        order.OrderStatus
		strict        bool
		wantErrIs     error
		wantPersisted bool
	}{
		{name: "placed_to_shipped", current: order.StatusPlaced, target: order.StatusShipped, strict: true, wantPersisted: true},
		{name: "shipped_to_delivered", current: order.StatusShipped, target: order.StatusDelivered, strict: true, wantPersisted: true},
		{name: "placed_to_cancelled", current: order.StatusPlaced, target: order.StatusCancelled, strict: true, wantPersisted: true},
		{name: "unknown_status_value", current: order.StatusPlaced, target: "archived", strict: true, wantErrIs: order.ErrInvalidStatus},
		{name: "cancelled_to_shipped_rejected", current: order.StatusCancelled, target: order.StatusShipped, strict: true, wantErrIs: order.ErrInvalidStatusTransition},
		{name: "delivered_is_terminal", current: order.StatusDelivered, target: order.StatusCancelled, strict: true, wantErrIs: order.ErrInvalidStatusTransition},
		{name: "repeat_shipped_rejected", current: order.StatusShipped, target: order.StatusShipped, strict: true, wantErrIs: order.ErrInvalidStatusTransition},
		{name: "placed_to_delivered_rejected", current: order.StatusPlaced, target: order.StatusDelivered, strict: true, wantErrIs: order.ErrInvalidStatusTransition},
		{name: "permissive_accepts_any_recognized", current: order.StatusDelivered, target: order.StatusPlaced, strict: false, wantPersisted: true},
		{name: "permissive_still_rejects_unknown", current: order.StatusPlaced, target: "archived", strict: false, wantErrIs: order.ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var persistedStatus order.OrderStatus
			persisted := false

			repo := &mockRepository{
				getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
					return &order.Order{ID: orderID, Status: tt.current, Items: []order.OrderItem{}}, nil
				},
				updateStatusFunc: func(ctx context.Context, id uuid.UUID, status order.OrderStatus) error {
					persisted = true
					persistedStatus = status
					return nil
				},
			}
			svc := newService(repo, newTestCatalog(), &mockCustomers{}, order.Policy{StrictTransitions: tt.strict})

			_, err := svc.UpdateStatus(context.Background(), orderID, tt.target)

			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.False(t, persisted, "no write may happen on a rejected transition")
				return
			}

			require.NoError(t, err)
			assert.True(t, persisted)
			assert.Equal(t, tt.target, persistedStatus)
		})
	}
}

func TestService_UpdateStatus_OrderNotFound(t *testing.T) {
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
	}
	svc := newService(repo, newTestCatalog(), &mockCustomers{}, order.Policy{StrictTransitions: true})

	_, err := svc.UpdateStatus(context.Background(), uuid.Must(uuid.NewV4()), order.StatusShipped)

	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestService_UpdateStatus_InvalidValueListsOptions(t *testing.T) {
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			t.Fatal("order must not be loaded for an unrecognized status value")
			return nil, nil
		},
	}
	svc := newService(repo, newTestCatalog(), &mockCustomers{}, order.Policy{StrictTransitions: true})

	_, err := svc.UpdateStatus(context.Background(), uuid.Must(uuid.NewV4()), "archived")

	require.ErrorIs(t, err, order.ErrInvalidStatus)
	for _, s := range order.ValidStatuses {
		assert.Contains(t, err.Error(), string(s))
	}
}

func TestService_ListOrders_RejectsUnknownStatusFilter(t *testing.T) {
	repo := &mockRepository{
		listFunc: func(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
			t.Fatal("repository must not be queried with an unknown status filter")
			return nil, nil
		},
	}
	svc := newService(repo, newTestCatalog(), &mockCustomers{}, order.Policy{StrictTransitions: true})

	_, err := svc.ListOrders(context.Background(), order.ListFilter{Status: "archived"})

	assert.ErrorIs(t, err, order.ErrInvalidStatus)
}
