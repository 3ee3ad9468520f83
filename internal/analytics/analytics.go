// Package analytics computes descriptive statistics over a fully
// materialized collection of orders.
//
// Functions are pure and never mutate their input. A nil or empty slice is
// "no data" and yields the empty result instead of an error. Concurrent use
// on shared read-only input is safe.
package analytics

import (
	"slices"

	"github.com/xenking/order-analytics/internal/domain/customer"
	"github.com/xenking/order-analytics/internal/domain/order"
)

// UniqueCities returns the distinct cities of the customers that placed the
// given orders, sorted ascending. The result is never nil.
func UniqueCities(orders []order.Order) []string {
	seen := make(map[string]struct{}, len(orders))
	cities := make([]string, 0)
	for _, o := range orders {
		city := o.Customer.City
		if _, ok := seen[city]; ok {
			continue
		}
		seen[city] = struct{}{}
		cities = append(cities, city)
	}
	slices.Sort(cities)
	return cities
}

// TotalIncome sums the line totals of every item on fulfilled (shipped or
// delivered) orders. New and cancelled orders are excluded.
func TotalIncome(orders []order.Order) float64 {
	var income float64
	for _, o := range orders {
		if !o.Status.IsFulfilled() {
			continue
		}
		for _, item := range o.Items {
			income += item.LineTotal()
		}
	}
	return income
}

// MostPopularProduct returns the product with the highest quantity summed
// across all orders, regardless of status. Ties resolve to the
// lexicographically smallest product name. The boolean is false when the
// orders carry no items at all.
func MostPopularProduct(orders []order.Order) (string, bool) {
	quantities := make(map[string]int)
	for _, o := range orders {
		for _, item := range o.Items {
			quantities[item.ProductName] += item.Quantity
		}
	}

	var (
		best    string
		bestQty int
		found   bool
	)
	for name, qty := range quantities {
		if !found || qty > bestQty || (qty == bestQty && name < best) {
			best, bestQty, found = name, qty, true
		}
	}
	return best, found
}

// AverageCheckForDeliveredOrders returns the mean order total across
// delivered orders. An order without items contributes zero to the mean. The
// boolean is false when there are no delivered orders.
func AverageCheckForDeliveredOrders(orders []order.Order) (float64, bool) {
	var (
		sum   float64
		count int
	)
	for _, o := range orders {
		if o.Status != order.StatusDelivered {
			continue
		}
		sum += o.Total()
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// CustomersWithMoreThanNOrders returns the customers that placed strictly
// more than minOrderCount orders. Customers are grouped by ID; the first
// instance seen for an ID represents it in the result. Customers appear in
// the order of their first order in the input. The result is never nil.
func CustomersWithMoreThanNOrders(orders []order.Order, minOrderCount int) []customer.Customer {
	type tally struct {
		customer customer.Customer
		count    int
	}

	counts := make(map[string]*tally, len(orders))
	firstSeen := make([]string, 0)
	for _, o := range orders {
		key := o.Customer.Key()
		t, ok := counts[key]
		if !ok {
			t = &tally{customer: o.Customer}
			counts[key] = t
			firstSeen = append(firstSeen, key)
		}
		t.count++
	}

	result := make([]customer.Customer, 0)
	for _, key := range firstSeen {
		if t := counts[key]; t.count > minOrderCount {
			result = append(result, t.customer)
		}
	}
	return result
}
