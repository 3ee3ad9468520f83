package customer

import "time"

// Customer is a buyer referenced by orders. Two customers are the same
// customer when their IDs match, whatever the other fields say.
type Customer struct {
	ID           string
	Name         string
	Email        string
	RegisteredAt time.Time
	Age          int
	City         string
}

// Key returns the value customers are grouped by.
func (c Customer) Key() string {
	return c.ID
}

// Equal reports whether c and other identify the same customer.
func (c Customer) Equal(other Customer) bool {
	return c.ID == other.ID
}
