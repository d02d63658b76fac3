package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medsupply-io/backoffice/internal/domain"
)

func TestHandler_Handle(t *testing.T) {
	event := domain.OrderStatusChangedEvent{
		OrderID:     "order-1",
		OrderNumber: "ORD2603150001",
		Status:      domain.OrderStatusShipped,
		Timestamp:   time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC),
	}
	payload, _ := json.Marshal(event)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("posts a notification to the webhook", func(t *testing.T) {
		var received map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("failed to decode notification: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		handler := NewHandler(server.URL, server.Client(), logger)

		if err := handler.Handle(context.Background(), payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if received["order_number"] != "ORD2603150001" {
			t.Errorf("expected order number in notification, got %q", received["order_number"])
		}
		if received["status"] != "SHIPPED" {
			t.Errorf("expected SHIPPED, got %q", received["status"])
		}
	})

	t.Run("fails on a non-200 webhook response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		handler := NewHandler(server.URL, server.Client(), logger)

		if err := handler.Handle(context.Background(), payload); err == nil {
			t.Fatal("expected error for webhook status 502")
		}
	})

	t.Run("fails on a malformed event", func(t *testing.T) {
		handler := NewHandler("http://unused", http.DefaultClient, logger)

		if err := handler.Handle(context.Background(), []byte(`{"order_id":`)); err == nil {
			t.Fatal("expected error for malformed payload")
		}
	})
}
