package orders

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medsupply-io/backoffice/internal/domain"
)

func newTestMux(t *testing.T, store *fakeStore) *http.ServeMux {
	t.Helper()

	service := newTestService(t, store, nil, nil)
	handler := NewHandler(service, service.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", handler.HandleList)
	mux.HandleFunc("POST /orders", handler.HandleCreate)
	mux.HandleFunc("GET /orders/{id}", handler.HandleGet)
	mux.HandleFunc("PATCH /orders/{id}/status", handler.HandleUpdateStatus)

	return mux
}

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("creates an order and returns 201", func(t *testing.T) {
		mux := newTestMux(t, &fakeStore{})

		body := `{
			"customer_id": "cust-1",
			"sales_rep_id": "rep-1",
			"items": [{"product_id": "prod-1", "quantity": 2, "unit_price": "100.00"}],
			"shipping_address": "123 Main St",
			"billing_address": "123 Main St"
		}`
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var order domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if order.OrderNumber != "ORD2603150001" {
			t.Errorf("expected ORD2603150001, got %s", order.OrderNumber)
		}
		if order.Status != domain.OrderStatusDraft {
			t.Errorf("expected DRAFT, got %s", order.Status)
		}
		if order.Customer == nil || order.Customer.Name != "Mercy General Hospital" {
			t.Errorf("expected resolved customer, got %+v", order.Customer)
		}
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		mux := newTestMux(t, &fakeStore{})

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"customer_id":`))
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on empty billing address", func(t *testing.T) {
		mux := newTestMux(t, &fakeStore{})

		body := `{
			"customer_id": "cust-1",
			"sales_rep_id": "rep-1",
			"items": [{"product_id": "prod-1", "quantity": 1, "unit_price": "10.00"}],
			"shipping_address": "123 Main St",
			"billing_address": ""
		}`
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 404 when a reference does not resolve", func(t *testing.T) {
		mux := newTestMux(t, &fakeStore{})

		body := `{
			"customer_id": "cust-404",
			"sales_rep_id": "rep-1",
			"items": [{"product_id": "prod-1", "quantity": 1, "unit_price": "10.00"}],
			"shipping_address": "123 Main St",
			"billing_address": "123 Main St"
		}`
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !strings.Contains(resp["error"], "cust-404") {
			t.Errorf("expected error naming the missing reference, got %q", resp["error"])
		}
	})

	t.Run("returns 409 when retries are exhausted", func(t *testing.T) {
		store := &fakeStore{
			createErrs: []error{domain.ErrWriteConflict, domain.ErrWriteConflict, domain.ErrWriteConflict},
		}
		mux := newTestMux(t, store)

		body := `{
			"customer_id": "cust-1",
			"sales_rep_id": "rep-1",
			"items": [{"product_id": "prod-1", "quantity": 1, "unit_price": "10.00"}],
			"shipping_address": "123 Main St",
			"billing_address": "123 Main St"
		}`
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("expected status 409, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleGet(t *testing.T) {
	t.Run("returns 404 for a missing order", func(t *testing.T) {
		mux := newTestMux(t, &fakeStore{orders: map[string]*domain.Order{}})

		req := httptest.NewRequest(http.MethodGet, "/orders/order-404", nil)
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleUpdateStatus(t *testing.T) {
	t.Run("returns 400 for an unknown status", func(t *testing.T) {
		store := &fakeStore{orders: map[string]*domain.Order{
			"order-1": {ID: "order-1", CustomerID: "cust-1", SalesRepID: "rep-1", Status: domain.OrderStatusDraft},
		}}
		mux := newTestMux(t, store)

		req := httptest.NewRequest(http.MethodPatch, "/orders/order-1/status", strings.NewReader(`{"status": "LOST"}`))
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("updates the status", func(t *testing.T) {
		store := &fakeStore{orders: map[string]*domain.Order{
			"order-1": {ID: "order-1", CustomerID: "cust-1", SalesRepID: "rep-1", Status: domain.OrderStatusDraft},
		}}
		mux := newTestMux(t, store)

		req := httptest.NewRequest(http.MethodPatch, "/orders/order-1/status", strings.NewReader(`{"status": "CONFIRMED"}`))
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var order domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if order.Status != domain.OrderStatusConfirmed {
			t.Errorf("expected CONFIRMED, got %s", order.Status)
		}
	})
}
