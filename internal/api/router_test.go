package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/metrics"
	"fooddelivery-client/internal/middleware"
	"fooddelivery-client/internal/session"
	"fooddelivery-client/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartJSON = `{
	"_id": "c1",
	"items": [{
		"_id": "i1",
		"dish_id": {"_id": "d1", "name": "Paneer Tikka", "price": 750, "restaurant_id": "r1"},
		"quantity": 2,
		"price": 750
	}],
	"restaurant": "r1",
	"subtotal": 1500,
	"delivery_fee": 40,
	"taxes": 75,
	"total_amount": 1615,
	"total_items": 2
}`

// fakeBackend answers like the food delivery API and records what it got.
type fakeBackend struct {
	mu          sync.Mutex
	conflict    bool
	orderBodies []map[string]any
	paths       []string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paths = append(b.paths, r.Method+" "+r.URL.Path)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/restaurants":
		_, _ = io.WriteString(w, `{"success": true, "data": {"restaurants": [{"_id": "r1", "name": "Spice Route", "image": "/uploads/r1.jpg"}]}}`)
	case r.URL.Path == "/api/dishes/d1":
		_, _ = io.WriteString(w, `{"success": true, "data": {"_id": "d1", "name": "Paneer Tikka", "price": 1250, "preparation_time": "14:30", "restaurant_id": "r1"}}`)
	case r.URL.Path == "/api/food-cart" && r.Method == http.MethodGet:
		_, _ = io.WriteString(w, `{"success": true, "data": `+cartJSON+`}`)
	case r.URL.Path == "/api/food-cart/add":
		if b.conflict {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"success": false, "message": "You can only order from one restaurant at a time"}`)
			return
		}
		_, _ = io.WriteString(w, `{"success": true, "data": `+cartJSON+`}`)
	case r.URL.Path == "/api/food-orders" && r.Method == http.MethodPost:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.orderBodies = append(b.orderBodies, body)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success": true, "data": {"_id": "o1", "status": "pending", "total_amount": 1615}}`)
	case r.URL.Path == "/api/food-orders/o1":
		_, _ = io.WriteString(w, `{"success": true, "data": {"_id": "o1", "status": "delivered", "total_amount": 1615}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"success": false, "message": "Not found"}`)
	}
}

type testServer struct {
	backend *fakeBackend
	handler http.Handler
}

func newTestServer(t *testing.T, limiter *middleware.Limiter) *testServer {
	t.Helper()

	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	manager := session.NewManager(session.Config{
		BaseURL:          srv.URL,
		InitialLoadDelay: time.Hour,
	}, storage.NewMemory(), m)
	t.Cleanup(func() { _ = manager.Close() })

	return &testServer{
		backend: backend,
		handler: NewRouter(Deps{
			Sessions:       manager,
			Gatherer:       reg,
			Limiter:        limiter,
			AllowedOrigins: []string{"http://localhost:3000"},
			ImageBaseURL:   "https://cdn.example.com",
			TrackInterval:  10 * time.Millisecond,
		}),
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer opaque-token")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope.Envelope[map[string]any] {
	t.Helper()
	var env envelope.Envelope[map[string]any]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	s.do(t, "GET", "/v1/cart", "")

	req = httptest.NewRequest("GET", "/metrics", nil)
	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cart_sessions_open 1")
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/v1/cart", nil)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decode(t, w)
	assert.Equal(t, envelope.CodeUnauthorized, env.Code)
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("Restaurants resolve image urls", func(t *testing.T) {
		w := s.do(t, "GET", "/v1/restaurants?is_veg=true&page=2", "")
		require.Equal(t, http.StatusOK, w.Code)

		var env envelope.Envelope[[]map[string]any]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		require.Len(t, env.Data, 1)
		assert.Equal(t, "https://cdn.example.com/uploads/r1.jpg", env.Data[0]["image"])
	})

	t.Run("Bad filter", func(t *testing.T) {
		w := s.do(t, "GET", "/v1/restaurants?page=zero", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Dish carries display fields", func(t *testing.T) {
		w := s.do(t, "GET", "/v1/dishes/d1", "")
		require.Equal(t, http.StatusOK, w.Code)

		env := decode(t, w)
		assert.Equal(t, "₹1,250", env.Data["price_display"])
		assert.Equal(t, "2:30 PM", env.Data["preparation_time_display"])
	})

	t.Run("Unknown dish", func(t *testing.T) {
		w := s.do(t, "GET", "/v1/dishes/missing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCart(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("Empty before anything happens", func(t *testing.T) {
		w := s.do(t, "GET", "/v1/cart", "")
		require.Equal(t, http.StatusOK, w.Code)

		env := decode(t, w)
		assert.Nil(t, env.Data["cart"])
		assert.EqualValues(t, 0, env.Data["cart_item_count"])
	})

	t.Run("Add returns formatted totals", func(t *testing.T) {
		w := s.do(t, "POST", "/v1/cart/items", `{"dish_id": "d1", "quantity": 2, "restaurant_id": "r1"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		env := decode(t, w)
		assert.True(t, env.Success)
		assert.EqualValues(t, 2, env.Data["cart_item_count"])
		assert.Equal(t, "loaded", env.Data["state"])

		totals := env.Data["totals"].(map[string]any)
		assert.Equal(t, "₹1,500", totals["subtotal"])
		assert.Equal(t, "₹40", totals["delivery_fee"])
		assert.Equal(t, "₹1,615", totals["total"])
	})

	t.Run("Snapshot reflects the add", func(t *testing.T) {
		env := decode(t, s.do(t, "GET", "/v1/cart", ""))
		assert.EqualValues(t, 2, env.Data["cart_item_count"])
	})

	t.Run("Another restaurant is a conflict", func(t *testing.T) {
		w := s.do(t, "POST", "/v1/cart/items", `{"dish_id": "d9", "quantity": 1, "restaurant_id": "r2"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, envelope.CodeVendorConflict, decode(t, w).Code)
	})

	t.Run("Backend conflict message is detected", func(t *testing.T) {
		s.backend.mu.Lock()
		s.backend.conflict = true
		s.backend.mu.Unlock()
		defer func() {
			s.backend.mu.Lock()
			s.backend.conflict = false
			s.backend.mu.Unlock()
		}()

		w := s.do(t, "POST", "/v1/cart/items", `{"dish_id": "d9", "quantity": 1}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Update needs a quantity", func(t *testing.T) {
		w := s.do(t, "PUT", "/v1/cart/items/i1", `{}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Invalid body", func(t *testing.T) {
		w := s.do(t, "POST", "/v1/cart/items", `{"dish_id": `)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, envelope.CodeValidation, decode(t, w).Code)
	})

	t.Run("Zero quantity is rejected before the backend", func(t *testing.T) {
		w := s.do(t, "POST", "/v1/cart/items", `{"dish_id": "d1", "quantity": 0}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestAddressAndCheckout(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("Checkout without address reports every gap", func(t *testing.T) {
		s.do(t, "POST", "/v1/cart/items", `{"dish_id": "d1", "quantity": 2}`)

		w := s.do(t, "POST", "/v1/orders", `{"payment_method": "cod"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		env := decode(t, w)
		assert.Contains(t, env.Message, "delivery_address.city")
		assert.Contains(t, env.Message, "delivery_address.pincode")
	})

	t.Run("Incomplete address is not saved", func(t *testing.T) {
		w := s.do(t, "PUT", "/v1/address", `{"address_line1": "12 MG Road", "pincode": "5600"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, decode(t, w).Message, "pincode")

		w = s.do(t, "GET", "/v1/address", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Save and read address", func(t *testing.T) {
		w := s.do(t, "PUT", "/v1/address", `{
			"address_line1": "12 MG Road",
			"city": "Bengaluru",
			"state": "Karnataka",
			"pincode": "560 001",
			"phone": "9876543210"
		}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		env := decode(t, s.do(t, "GET", "/v1/address", ""))
		assert.Equal(t, "560001", env.Data["pincode"])
		assert.Equal(t, "12 MG Road, Bengaluru, Karnataka, 560001", env.Data["display"])
	})

	t.Run("Checkout uses the saved address", func(t *testing.T) {
		w := s.do(t, "POST", "/v1/orders", `{"payment_method": "upi", "delivery_instructions": "Ring twice"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "o1", decode(t, w).Data["_id"])

		s.backend.mu.Lock()
		defer s.backend.mu.Unlock()
		require.Len(t, s.backend.orderBodies, 1)
		body := s.backend.orderBodies[0]
		assert.Equal(t, "r1", body["restaurant_id"])
		assert.Equal(t, "upi", body["payment_method"])
		assert.Equal(t, "Ring twice", body["delivery_instructions"])
		assert.Equal(t, "Bengaluru", body["delivery_address"].(map[string]any)["city"])
		assert.Len(t, body["items"], 1)
	})

	t.Run("Clear address", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, s.do(t, "DELETE", "/v1/address", "").Code)
		assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/v1/address", "").Code)
	})
}

func TestLocation(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/v1/location", "").Code)

	w := s.do(t, "PUT", "/v1/location", `{"latitude": 123.4, "longitude": 77.59}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, "PUT", "/v1/location", `{"latitude": 12.97, "longitude": 77.59, "address": "MG Road"}`)
	require.Equal(t, http.StatusOK, w.Code)

	env := decode(t, s.do(t, "GET", "/v1/location", ""))
	assert.Equal(t, "MG Road", env.Data["address"])
}

func TestTrackOrder(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, "GET", "/v1/orders/o1/track", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event: status")
	assert.Contains(t, w.Body.String(), `"status":"delivered"`)
	assert.Contains(t, w.Body.String(), `"total":"₹1,615"`)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, middleware.NewLimiter(1, 1))

	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/v1/cart", "").Code)

	w := s.do(t, "GET", "/v1/cart", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, envelope.CodeRateLimit, decode(t, w).Code)
}
