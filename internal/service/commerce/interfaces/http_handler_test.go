package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace/noop"

	"inkverse/internal/pkg/httpx"
	"inkverse/internal/service/commerce/application"
	"inkverse/internal/service/commerce/domain"
)

type memoryCatalog map[string]domain.Product

func (m memoryCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

type memoryVouchers struct{}

func (memoryVouchers) FindByCode(context.Context, string) (*domain.Voucher, error) { return nil, nil }
func (memoryVouchers) UsageHistory(context.Context, string) (domain.UsageHistory, error) {
	return domain.UsageHistory{}, nil
}
func (memoryVouchers) IncrementUsage(context.Context, string, string, string) (bool, error) {
	return true, nil
}
func (memoryVouchers) DecrementUsage(context.Context, string, string, string) error { return nil }

type memoryOrders struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

func (m *memoryOrders) Save(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = *order
	return nil
}

func (m *memoryOrders) FindByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

type noStock struct{}

func (noStock) Reserve(context.Context, string, int, int, int) (bool, error) { return false, nil }
func (noStock) Release(context.Context, string, int) error                   { return nil }
func (noStock) Sold(context.Context, string) (int, bool, error)              { return 0, false, nil }

type discardPublisher struct{}

func (discardPublisher) PublishOrderPlaced(context.Context, *domain.OrderPlaced) error { return nil }

func newTestRouter() http.Handler {
	svc := application.NewCommerceApplicationService(application.Dependencies{
		Catalog: memoryCatalog{
			"poster": {ID: "poster", Name: "Poster", BasePrice: 2500},
			"ebook":  {ID: "ebook", Name: "E-book", BasePrice: 3000, IsDigital: true},
		},
		Vouchers:  memoryVouchers{},
		Orders:    &memoryOrders{orders: map[string]domain.Order{}},
		Stock:     noStock{},
		Publisher: discardPublisher{},
		Tracer:    noop.NewTracerProvider().Tracer("test"),
	})
	r := chi.NewRouter()
	NewCommerceHandler(svc).RegisterRoutes(r)
	return r
}

func TestCommerceRoutes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "price product", method: http.MethodGet, path: "/products/poster/pricing?quantity=2", wantCode: http.StatusOK},
		{name: "unknown product", method: http.MethodGet, path: "/products/missing/pricing", wantCode: http.StatusNotFound, wantErr: "NOT_FOUND"},
		{name: "bad quantity", method: http.MethodGet, path: "/products/poster/pricing?quantity=two", wantCode: http.StatusBadRequest, wantErr: "VALIDATION"},
		{name: "preview", method: http.MethodPost, path: "/cart/preview", body: `{"userId":"u-1","lines":[{"productId":"poster","quantity":3}]}`, wantCode: http.StatusOK},
		{name: "preview unknown field", method: http.MethodPost, path: "/cart/preview", body: `{"userId":"u-1","items":[]}`, wantCode: http.StatusBadRequest, wantErr: "VALIDATION"},
		{name: "digital line", method: http.MethodPost, path: "/cart/preview", body: `{"userId":"u-1","lines":[{"productId":"ebook","quantity":1}]}`, wantCode: http.StatusBadRequest, wantErr: "VALIDATION"},
		{name: "voucher not found", method: http.MethodPost, path: "/vouchers/validate", body: `{"userId":"u-1","code":"NOPE","lines":[{"productId":"poster","quantity":1}]}`, wantCode: http.StatusNotFound, wantErr: "NOT_FOUND"},
		{name: "checkout", method: http.MethodPost, path: "/checkout", body: `{"userId":"u-1","lines":[{"productId":"poster","quantity":2}],"expectedTotal":5000}`, wantCode: http.StatusCreated},
		{name: "checkout stale total", method: http.MethodPost, path: "/checkout", body: `{"userId":"u-1","lines":[{"productId":"poster","quantity":2}],"expectedTotal":4000}`, wantCode: http.StatusConflict, wantErr: "PRICE_CHANGED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantErr == "" {
				return
			}
			var body httpx.ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body is not json: %v", err)
			}
			if body.Code != tt.wantErr {
				t.Fatalf("code = %q, want %q", body.Code, tt.wantErr)
			}
		})
	}
}

func TestCheckoutResponse(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/checkout",
		strings.NewReader(`{"userId":"u-1","lines":[{"productId":"poster","quantity":2}],"expectedTotal":5000}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp application.CheckoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not json: %v", err)
	}
	if resp.OrderID == "" || resp.Total != 5000 || resp.State != domain.StatePlaced {
		t.Fatalf("checkout response = %+v", resp)
	}
}
