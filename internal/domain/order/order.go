package order

import (
	"strings"
	"time"

	"github.com/xenking/order-analytics/internal/domain/customer"
)

// Status enumerates the lifecycle stages of an order.
type Status string

const (
	// StatusNew is a placed but unfulfilled order.
	StatusNew Status = "NEW"
	// StatusShipped is an order that has been dispatched.
	StatusShipped Status = "SHIPPED"
	// StatusDelivered is a completed order.
	StatusDelivered Status = "DELIVERED"
	// StatusCancelled is a voided order.
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsFulfilled reports whether an order in this status counts toward revenue.
func (s Status) IsFulfilled() bool {
	return s == StatusShipped || s == StatusDelivered
}

// ParseStatus converts a case-insensitive status name into a Status.
func ParseStatus(v string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(v)))
	return s, s.Valid()
}

// Category classifies the product on a line item.
type Category string

const (
	CategoryElectronics Category = "ELECTRONICS"
	CategoryBooks       Category = "BOOKS"
	CategoryClothing    Category = "CLOTHING"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryBooks, CategoryClothing:
		return true
	default:
		return false
	}
}

// ParseCategory converts a case-insensitive category name into a Category.
func ParseCategory(v string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(v)))
	return c, c.Valid()
}

// Order is a customer order with its line items.
type Order struct {
	ID        string
	CreatedAt time.Time
	Customer  customer.Customer
	Items     []OrderItem
	Status    Status
}

// Total returns the sum of the line totals of every item on the order.
// An order without items totals zero.
func (o Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.LineTotal()
	}
	return total
}

// OrderItem represents a single line item in an order. Price is per unit.
type OrderItem struct {
	ProductName string
	Quantity    int
	Price       float64
	Category    Category
}

// LineTotal returns quantity * price.
func (i OrderItem) LineTotal() float64 {
	return float64(i.Quantity) * i.Price
}
