package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type memoryIdempotencyStore struct {
	values map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{values: map[string]string{}}
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return m.values[key], nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func checkoutTestRouter(store *memoryIdempotencyStore, hits *atomic.Int64) http.Handler {
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	r.Post("/api/v1/checkout", func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"order_id":"` + uuid.NewString() + `"}}`))
	})
	return r
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	t.Parallel()

	store := newMemoryIdempotencyStore()
	var hits atomic.Int64
	router := checkoutTestRouter(store, &hits)

	body := `{"payment_method":"card"}`
	key := uuid.NewString()

	// scope includes the user id, so pin one
	userID := uuid.NewString()
	sendAs := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", key)
		req = req.WithContext(WithUserID(req.Context(), userID))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	first := sendAs()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", first.Code)
	}

	second := sendAs()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replay must return the stored body")
	}
	if hits.Load() != 1 {
		t.Fatalf("handler should run once, ran %d times", hits.Load())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	t.Parallel()

	store := newMemoryIdempotencyStore()
	var hits atomic.Int64
	router := checkoutTestRouter(store, &hits)

	key := uuid.NewString()
	userID := uuid.NewString()

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", key)
		req = req.WithContext(WithUserID(req.Context(), userID))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	if resp := send(`{"payment_method":"card"}`); resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	conflict := send(`{"payment_method":"cash"}`)
	if conflict.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", conflict.Code)
	}
	if hits.Load() != 1 {
		t.Fatalf("second request must not reach the handler")
	}
}

func TestIdempotencyRequiresKeyOnCheckout(t *testing.T) {
	t.Parallel()

	store := newMemoryIdempotencyStore()
	var hits atomic.Int64
	router := checkoutTestRouter(store, &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req = req.WithContext(WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if hits.Load() != 0 {
		t.Fatalf("handler must not run without a key")
	}
}

func TestIdempotencySkipsUnlistedRoutes(t *testing.T) {
	t.Parallel()

	store := newMemoryIdempotencyStore()
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	var hits atomic.Int64
	r.Get("/api/v1/orders", func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("unlisted route must not be cached, hits=%d", hits.Load())
	}
}
