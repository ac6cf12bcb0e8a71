package kds

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"

	"github.com/adrian08041/cardapio/internal/order"
	"github.com/adrian08041/cardapio/internal/stream"
)

type fakeAdvancer struct {
	advanceOrder *order.Order
	advanceErr   error
	gotID        string
}

func (f *fakeAdvancer) Advance(ctx context.Context, id string) (*order.Order, error) {
	f.gotID = id
	return f.advanceOrder, f.advanceErr
}

func (f *fakeAdvancer) Refresh(ctx context.Context) error {
	return nil
}

func newTestRouter(advancer *fakeAdvancer) *chi.Mux {
	cache := seedCache(&order.Order{
		ID:        "o1",
		Status:    "preparing",
		Items:     []order.OrderItem{{ProductID: "p1", Name: "Burger", Quantity: 1, Station: "kitchen"}},
		CreatedAt: time.Now(),
	})
	h := NewHandler(NewProjector(cache), advancer, stream.NewHub(time.Hour, nil), apt.NewNoopLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestListLanes(t *testing.T) {
	r := newTestRouter(&fakeAdvancer{})

	req := httptest.NewRequest(http.MethodGet, "/lanes", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, station := range []string{"kitchen", "bar", "dessert"} {
		if !strings.Contains(body, station) {
			t.Errorf("expected lane %q in payload", station)
		}
	}
}

func TestGetLane(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{name: "knownStation", path: "/lanes/kitchen", expectedStatus: http.StatusOK},
		{name: "unknownStation", path: "/lanes/sushi", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeAdvancer{})

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}

func TestAdvanceOrder(t *testing.T) {
	advancer := &fakeAdvancer{
		advanceOrder: &order.Order{ID: "o1", Status: "ready"},
	}
	r := newTestRouter(advancer)

	req := httptest.NewRequest(http.MethodPatch, "/orders/o1/advance", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if advancer.gotID != "o1" {
		t.Errorf("expected advance on o1, got %q", advancer.gotID)
	}
}

func TestAdvanceOrderConflict(t *testing.T) {
	r := newTestRouter(&fakeAdvancer{advanceErr: errors.New("terminal")})

	req := httptest.NewRequest(http.MethodPatch, "/orders/o1/advance", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestListLanesWithReadyColumn(t *testing.T) {
	cache := seedCache(&order.Order{
		ID:        "o9",
		Status:    "ready",
		Type:      order.TypePickup,
		Items:     []order.OrderItem{{ProductID: "p1", Name: "Burger", Quantity: 1, Station: "kitchen"}},
		CreatedAt: time.Now(),
	})
	h := NewHandler(NewProjector(cache), &fakeAdvancer{}, stream.NewHub(time.Hour, nil), apt.NewNoopLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/lanes?include_ready=1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Prontos / Retirada") || !strings.Contains(body, "o9") {
		t.Errorf("expected pickup column with o9, got %s", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/lanes", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if body := rec.Body.String(); strings.Contains(body, "Prontos / Retirada") {
		t.Error("expected no pickup column without the flag")
	}
}
