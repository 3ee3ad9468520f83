package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/order-analytics/internal/analytics"
	"github.com/xenking/order-analytics/internal/domain/order"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// MaxBodyBytes caps the size of a request body. Zero means 10 MiB.
	MaxBodyBytes int64
	// DefaultMinOrders is the loyal-customer threshold used when the request
	// does not carry a min_orders query parameter.
	DefaultMinOrders int
}

// Handler serves the analytics HTTP API. Each endpoint receives the whole
// order collection in the request body and responds with one aggregate.
type Handler struct {
	tracer           trace.Tracer
	orders           metric.Int64Counter
	maxBodyBytes     int64
	defaultMinOrders int
}

// NewHandler constructs a Handler that reports spans to tracer and order
// counters to meter.
func NewHandler(cfg HandlerConfig, tracer trace.Tracer, meter metric.Meter) (*Handler, error) {
	orders, err := meter.Int64Counter("analytics.orders",
		metric.WithDescription("Number of orders analysed"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	return &Handler{
		tracer:           tracer,
		orders:           orders,
		maxBodyBytes:     maxBody,
		defaultMinOrders: cfg.DefaultMinOrders,
	}, nil
}

// Register mounts every analytics endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/analytics/cities", h.handle("cities", h.cities))
	mux.Handle("POST /api/analytics/income", h.handle("income", h.income))
	mux.Handle("POST /api/analytics/popular-product", h.handle("popular_product", h.popularProduct))
	mux.Handle("POST /api/analytics/average-check", h.handle("average_check", h.averageCheck))
	mux.Handle("POST /api/analytics/loyal-customers", h.handle("loyal_customers", h.loyalCustomers))
	mux.Handle("POST /api/analytics/report", h.handle("report", h.report))
}

// operation writes the fields of one analytics response into an already
// opened JSON object.
type operation func(r *http.Request, orders []order.Order, e *jx.Encoder) error

func (h *Handler) handle(name string, op operation) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "analytics."+name)
		defer span.End()
		r = r.WithContext(ctx)

		orders, err := h.readOrders(w, r)
		if err != nil {
			h.fail(ctx, w, name, span, err)
			return
		}
		span.SetAttributes(attribute.Int("analytics.orders", len(orders)))
		h.orders.Add(ctx, int64(len(orders)), metric.WithAttributes(attribute.String("operation", name)))

		var e jx.Encoder
		e.ObjStart()
		if err := op(r, orders, &e); err != nil {
			h.fail(ctx, w, name, span, err)
			return
		}
		e.ObjEnd()

		zctx.From(ctx).Debug("Analytics computed",
			zap.String("operation", name),
			zap.Int("orders", len(orders)),
		)
		writeJSON(w, http.StatusOK, e.Bytes())
	})
}

func (h *Handler) readOrders(w http.ResponseWriter, r *http.Request) ([]order.Order, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	orders, err := decodeOrders(data)
	if err != nil {
		return nil, &badRequestError{err: err}
	}
	return orders, nil
}

func (h *Handler) cities(_ *http.Request, orders []order.Order, e *jx.Encoder) error {
	encodeCities(e, analytics.UniqueCities(orders))
	return nil
}

func (h *Handler) income(_ *http.Request, orders []order.Order, e *jx.Encoder) error {
	encodeIncome(e, analytics.TotalIncome(orders))
	return nil
}

func (h *Handler) popularProduct(_ *http.Request, orders []order.Order, e *jx.Encoder) error {
	name, ok := analytics.MostPopularProduct(orders)
	encodePopularProduct(e, name, ok)
	return nil
}

func (h *Handler) averageCheck(_ *http.Request, orders []order.Order, e *jx.Encoder) error {
	avg, ok := analytics.AverageCheckForDeliveredOrders(orders)
	encodeAverageCheck(e, avg, ok)
	return nil
}

func (h *Handler) loyalCustomers(r *http.Request, orders []order.Order, e *jx.Encoder) error {
	minOrders, err := h.minOrders(r)
	if err != nil {
		return err
	}
	encodeLoyalCustomers(e, minOrders, analytics.CustomersWithMoreThanNOrders(orders, minOrders))
	return nil
}

func (h *Handler) report(r *http.Request, orders []order.Order, e *jx.Encoder) error {
	minOrders, err := h.minOrders(r)
	if err != nil {
		return err
	}
	encodeReport(e, analytics.Summarize(orders, minOrders))
	return nil
}

// minOrders reads the loyal-customer threshold from the min_orders query
// parameter, falling back to the configured default.
func (h *Handler) minOrders(r *http.Request) (int, error) {
	v := r.URL.Query().Get("min_orders")
	if v == "" {
		return h.defaultMinOrders, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &badRequestError{err: &InvalidFieldError{Field: "min_orders", Value: v}}
	}
	return n, nil
}
