package handler

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/order-analytics/internal/analytics"
	"github.com/xenking/order-analytics/internal/domain/customer"
	"github.com/xenking/order-analytics/internal/domain/order"
)

// ErrMissingCustomer is returned when an order in the request has no customer.
var ErrMissingCustomer = errors.New("order has no customer")

// InvalidFieldError indicates a request field holds a value that cannot be
// mapped onto the domain model.
type InvalidFieldError struct {
	Field string
	Value string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

// decodeOrders parses a {"orders":[...]} request body. An empty body, a null
// document, and a null or absent orders array all decode to no orders.
func decodeOrders(data []byte) ([]order.Order, error) {
	if len(data) == 0 {
		return nil, nil
	}

	d := jx.DecodeBytes(data)
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var orders []order.Order
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "orders" {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		return d.Arr(func(d *jx.Decoder) error {
			o, err := decodeOrder(d)
			if err != nil {
				return errors.Wrapf(err, "orders[%d]", len(orders))
			}
			orders = append(orders, o)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func decodeOrder(d *jx.Decoder) (order.Order, error) {
	var (
		o           order.Order
		hasCustomer bool
		status      string
	)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			o.ID, err = d.Str()
		case "created_at":
			o.CreatedAt, err = decodeTime(d, "created_at")
		case "status":
			status, err = d.Str()
		case "customer":
			if d.Next() == jx.Null {
				return d.Null()
			}
			hasCustomer = true
			o.Customer, err = decodeCustomer(d)
		case "items":
			if d.Next() == jx.Null {
				return d.Null()
			}
			err = d.Arr(func(d *jx.Decoder) error {
				item, err := decodeItem(d)
				if err != nil {
					return err
				}
				o.Items = append(o.Items, item)
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return order.Order{}, err
	}

	if !hasCustomer {
		return order.Order{}, errors.Wrapf(ErrMissingCustomer, "order %q", o.ID)
	}
	s, ok := order.ParseStatus(status)
	if !ok {
		return order.Order{}, &InvalidFieldError{Field: "status", Value: status}
	}
	o.Status = s
	return o, nil
}

func decodeCustomer(d *jx.Decoder) (customer.Customer, error) {
	var c customer.Customer
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			c.ID, err = d.Str()
		case "name":
			c.Name, err = d.Str()
		case "email":
			c.Email, err = d.Str()
		case "registered_at":
			c.RegisteredAt, err = decodeTime(d, "registered_at")
		case "age":
			c.Age, err = d.Int()
		case "city":
			c.City, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return c, err
}

func decodeItem(d *jx.Decoder) (order.OrderItem, error) {
	var (
		item     order.OrderItem
		category string
	)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "product_name":
			item.ProductName, err = d.Str()
		case "quantity":
			item.Quantity, err = d.Int()
		case "price":
			item.Price, err = d.Float64()
		case "category":
			category, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return order.OrderItem{}, err
	}

	c, ok := order.ParseCategory(category)
	if !ok {
		return order.OrderItem{}, &InvalidFieldError{Field: "category", Value: category}
	}
	item.Category = c
	return item, nil
}

// decodeTime reads an RFC 3339 timestamp. Null leaves the zero time.
func decodeTime(d *jx.Decoder, field string) (time.Time, error) {
	if d.Next() == jx.Null {
		return time.Time{}, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &InvalidFieldError{Field: field, Value: s}
	}
	return t, nil
}

func encodeCities(e *jx.Encoder, cities []string) {
	e.FieldStart("cities")
	e.ArrStart()
	for _, c := range cities {
		e.Str(c)
	}
	e.ArrEnd()
}

func encodeIncome(e *jx.Encoder, income float64) {
	e.FieldStart("total_income")
	e.Float64(income)
}

func encodePopularProduct(e *jx.Encoder, name string, ok bool) {
	e.FieldStart("product")
	if !ok {
		e.Null()
		return
	}
	e.Str(name)
}

func encodeAverageCheck(e *jx.Encoder, avg float64, ok bool) {
	e.FieldStart("average_check")
	if !ok {
		e.Null()
		return
	}
	e.Float64(avg)
}

func encodeLoyalCustomers(e *jx.Encoder, minOrders int, customers []customer.Customer) {
	e.FieldStart("min_orders")
	e.Int(minOrders)
	e.FieldStart("customers")
	e.ArrStart()
	for _, c := range customers {
		encodeCustomer(e, c)
	}
	e.ArrEnd()
}

func encodeCustomer(e *jx.Encoder, c customer.Customer) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("email")
	e.Str(c.Email)
	if !c.RegisteredAt.IsZero() {
		e.FieldStart("registered_at")
		e.Str(c.RegisteredAt.Format(time.RFC3339))
	}
	e.FieldStart("age")
	e.Int(c.Age)
	e.FieldStart("city")
	e.Str(c.City)
	e.ObjEnd()
}

func encodeReport(e *jx.Encoder, r analytics.Report) {
	e.FieldStart("order_count")
	e.Int(r.OrderCount)
	encodeCities(e, r.Cities)
	encodeIncome(e, r.TotalIncome)
	encodePopularProduct(e, r.MostPopularProduct, r.HasMostPopularProduct)
	encodeAverageCheck(e, r.AverageCheck, r.HasAverageCheck)
	encodeLoyalCustomers(e, r.MinOrderCount, r.LoyalCustomers)
}
