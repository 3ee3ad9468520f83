package analytics

import (
	"github.com/xenking/order-analytics/internal/domain/customer"
	"github.com/xenking/order-analytics/internal/domain/order"
)

// Report bundles every analytic computed over one order collection.
type Report struct {
	OrderCount     int
	Cities         []string
	TotalIncome    float64
	MinOrderCount  int
	LoyalCustomers []customer.Customer

	// MostPopularProduct is meaningful only when HasMostPopularProduct is set.
	MostPopularProduct    string
	HasMostPopularProduct bool

	// AverageCheck is meaningful only when HasAverageCheck is set.
	AverageCheck    float64
	HasAverageCheck bool
}

// Summarize computes the full Report for orders, using minOrderCount as the
// exclusive threshold for loyal customers.
func Summarize(orders []order.Order, minOrderCount int) Report {
	r := Report{
		OrderCount:     len(orders),
		Cities:         UniqueCities(orders),
		TotalIncome:    TotalIncome(orders),
		MinOrderCount:  minOrderCount,
		LoyalCustomers: CustomersWithMoreThanNOrders(orders, minOrderCount),
	}
	r.MostPopularProduct, r.HasMostPopularProduct = MostPopularProduct(orders)
	r.AverageCheck, r.HasAverageCheck = AverageCheckForDeliveredOrders(orders)
	return r
}
