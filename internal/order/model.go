package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPlaced    OrderStatus = "placed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

func (os OrderStatus) String() string {
	return string(os)
}

// ValidStatuses lists every recognized status value, in lifecycle order.
var ValidStatuses = []OrderStatus{StatusPlaced, StatusShipped, StatusDelivered, StatusCancelled}

func IsValidStatus(s OrderStatus) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// allowedTransitions is the status state machine. Delivered and cancelled are
// terminal.
var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPlaced: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition reports whether moving from one status to another is legal
// under the strict policy.
func CanTransition(from, to OrderStatus) bool {
	targets, ok := allowedTransitions[from]
	return ok && targets[to]
}

type OrderItem struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"order_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      int             `json:"quantity"`
	PriceSnapshot decimal.Decimal `json:"price_snapshot"`

	// Display fields, populated by the query layer's join against the
	// catalog. Empty when the product was deleted after the order was placed.
	ProductName     string `json:"product_name,omitempty"`
	ProductCategory string `json:"product_category,omitempty"`
}

// CustomerSummary carries the customer display fields joined onto an order.
type CustomerSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Order struct {
	ID          uuid.UUID        `json:"id"`
	OrderNumber string           `json:"order_number"`
	CustomerID  uuid.UUID        `json:"customer_id"`
	Customer    *CustomerSummary `json:"customer,omitempty"`
	Items       []OrderItem      `json:"items"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Status      OrderStatus      `json:"status"`
	Notes       string           `json:"notes,omitempty"`
	OrderDate   time.Time        `json:"order_date"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
