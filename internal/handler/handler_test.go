package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// referenceBody is the six-order reference dataset in wire form.
const referenceBody = `{"orders":[
  {"id":"o1","created_at":"2024-03-01T12:00:00Z","status":"DELIVERED",
   "customer":{"id":"c1","name":"Ivan Petrov","email":"ivan@example.com","registered_at":"2024-01-10T09:00:00Z","age":30,"city":"Moscow"},
   "items":[{"product_name":"Laptop","quantity":1,"price":1500.0,"category":"ELECTRONICS"},
            {"product_name":"Mouse","quantity":1,"price":50.0,"category":"ELECTRONICS"}]},
  {"id":"o2","created_at":"2024-03-02T12:00:00Z","status":"SHIPPED",
   "customer":{"id":"c2","name":"Anna Sidorova","email":"anna@example.com","age":25,"city":"Minsk"},
   "items":[{"product_name":"Book 'Java'","quantity":2,"price":30.0,"category":"BOOKS"}]},
  {"id":"o3","status":"CANCELLED",
   "customer":{"id":"c3","name":"Sergey Smirnov","email":"sergey@example.com","age":42,"city":"Moscow"},
   "items":[{"product_name":"T-Shirt","quantity":5,"price":20.0,"category":"CLOTHING"}]},
  {"id":"o4","status":"DELIVERED",
   "customer":{"id":"c4","name":"Elena Kuznetsova","email":"elena@example.com","age":35,"city":"Kyiv"},
   "items":[{"product_name":"Book 'Java'","quantity":1,"price":30.0,"category":"BOOKS"},
            {"product_name":"Dress","quantity":1,"price":100.0,"category":"CLOTHING"}]},
  {"id":"o5","status":"NEW",
   "customer":{"id":"c1","name":"Ivan Petrov","email":"ivan@example.com","age":30,"city":"Moscow"},
   "items":[{"product_name":"Headphones","quantity":1,"price":200.0,"category":"ELECTRONICS"}]},
  {"id":"o6","status":"delivered",
   "customer":{"id":"c1","name":"Ivan Petrov","email":"ivan@example.com","age":30,"city":"Moscow"},
   "items":[{"product_name":"Book 'Java'","quantity":1,"price":30.0,"category":"BOOKS"}]}
]}`

// --- Helpers ---

func newTestHandler(t *testing.T, cfg HandlerConfig) http.Handler {
	t.Helper()

	h, err := NewHandler(cfg,
		tracenoop.NewTracerProvider().Tracer("test"),
		metricnoop.NewMeterProvider().Meter("test"),
	)
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// fields decodes a flat JSON object into raw values keyed by field name.
func fields(t *testing.T, body []byte) map[string]jx.Raw {
	t.Helper()

	out := make(map[string]jx.Raw)
	err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		out[key] = append(jx.Raw(nil), raw...)
		return nil
	})
	require.NoError(t, err, string(body))
	return out
}

func decodeStrings(t *testing.T, raw jx.Raw) []string {
	t.Helper()

	var out []string
	err := jx.DecodeBytes(raw).Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		out = append(out, s)
		return err
	})
	require.NoError(t, err)
	return out
}

func customerIDs(t *testing.T, raw jx.Raw) []string {
	t.Helper()

	var ids []string
	err := jx.DecodeBytes(raw).Arr(func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "id" {
				return d.Skip()
			}
			id, err := d.Str()
			ids = append(ids, id)
			return err
		})
	})
	require.NoError(t, err)
	return ids
}

func str(t *testing.T, raw jx.Raw) string {
	t.Helper()

	v, err := jx.DecodeBytes(raw).Str()
	require.NoError(t, err)
	return v
}

func float(t *testing.T, raw jx.Raw) float64 {
	t.Helper()

	v, err := jx.DecodeBytes(raw).Float64()
	require.NoError(t, err)
	return v
}

// --- Tests ---

func TestCities(t *testing.T) {
	w := post(t, newTestHandler(t, HandlerConfig{}), "/api/analytics/cities", referenceBody)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	got := fields(t, w.Body.Bytes())
	assert.Equal(t, []string{"Kyiv", "Minsk", "Moscow"}, decodeStrings(t, got["cities"]))
}

func TestIncome(t *testing.T) {
	w := post(t, newTestHandler(t, HandlerConfig{}), "/api/analytics/income", referenceBody)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.InDelta(t, 1770.0, float(t, fields(t, w.Body.Bytes())["total_income"]), 0.001)
}

func TestPopularProduct(t *testing.T) {
	w := post(t, newTestHandler(t, HandlerConfig{}), "/api/analytics/popular-product", referenceBody)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `"T-Shirt"`, fields(t, w.Body.Bytes())["product"].String())
}

func TestAverageCheck(t *testing.T) {
	w := post(t, newTestHandler(t, HandlerConfig{}), "/api/analytics/average-check", referenceBody)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.InDelta(t, 570.0, float(t, fields(t, w.Body.Bytes())["average_check"]), 0.001)
}

func TestLoyalCustomers(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{DefaultMinOrders: 5})

	w := post(t, h, "/api/analytics/loyal-customers?min_orders=2", referenceBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := fields(t, w.Body.Bytes())
	assert.Equal(t, "2", got["min_orders"].String())
	assert.Equal(t, []string{"c1"}, customerIDs(t, got["customers"]))

	// Without the parameter the configured default applies.
	w = post(t, h, "/api/analytics/loyal-customers", referenceBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got = fields(t, w.Body.Bytes())
	assert.Equal(t, "5", got["min_orders"].String())
	assert.Empty(t, customerIDs(t, got["customers"]))
}

func TestLoyalCustomers_InvalidThreshold(t *testing.T) {
	w := post(t, newTestHandler(t, HandlerConfig{}), "/api/analytics/loyal-customers?min_orders=many", referenceBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "min_orders")
}

func TestReport(t *testing.T) {
	w := post(t, newTestHandler(t, HandlerConfig{}), "/api/analytics/report?min_orders=2", referenceBody)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := fields(t, w.Body.Bytes())
	assert.Equal(t, "6", got["order_count"].String())
	assert.Equal(t, []string{"Kyiv", "Minsk", "Moscow"}, decodeStrings(t, got["cities"]))
	assert.InDelta(t, 1770.0, float(t, got["total_income"]), 0.001)
	assert.Equal(t, `"T-Shirt"`, got["product"].String())
	assert.InDelta(t, 570.0, float(t, got["average_check"]), 0.001)
	assert.Equal(t, []string{"c1"}, customerIDs(t, got["customers"]))
}

func TestEmptyInput(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	for _, body := range []string{"", "null", "{}", `{"orders":null}`, `{"orders":[]}`} {
		t.Run(body, func(t *testing.T) {
			w := post(t, h, "/api/analytics/report", body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			got := fields(t, w.Body.Bytes())
			assert.Equal(t, "0", got["order_count"].String())
			assert.Empty(t, decodeStrings(t, got["cities"]))
			assert.Zero(t, float(t, got["total_income"]))
			assert.Equal(t, "null", got["product"].String())
			assert.Equal(t, "null", got["average_check"].String())
			assert.Empty(t, customerIDs(t, got["customers"]))
		})
	}
}

func TestBadRequests(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "malformed JSON",
			body:    `{"orders":[`,
			message: "",
		},
		{
			name:    "missing customer",
			body:    `{"orders":[{"id":"o1","status":"NEW","items":[]}]}`,
			message: "order has no customer",
		},
		{
			name:    "null customer",
			body:    `{"orders":[{"id":"o1","status":"NEW","customer":null}]}`,
			message: "order has no customer",
		},
		{
			name:    "unknown status",
			body:    `{"orders":[{"id":"o1","status":"LOST","customer":{"id":"c1"}}]}`,
			message: `invalid status "LOST"`,
		},
		{
			name:    "unknown category",
			body:    `{"orders":[{"id":"o1","status":"NEW","customer":{"id":"c1"},"items":[{"product_name":"Kite","quantity":1,"price":5,"category":"TOYS"}]}]}`,
			message: `invalid category "TOYS"`,
		},
		{
			name:    "bad timestamp",
			body:    `{"orders":[{"id":"o1","status":"NEW","created_at":"yesterday","customer":{"id":"c1"}}]}`,
			message: `invalid created_at "yesterday"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h, "/api/analytics/income", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			got := fields(t, w.Body.Bytes())
			assert.Equal(t, "400", got["code"].String())
			assert.Contains(t, str(t, got["message"]), tt.message)
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	w := post(t, newTestHandler(t, HandlerConfig{MaxBodyBytes: 64}), "/api/analytics/income", referenceBody)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/analytics/report", nil)
	w := httptest.NewRecorder()
	newTestHandler(t, HandlerConfig{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
