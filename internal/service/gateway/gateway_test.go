package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace/noop"

	"inkverse/internal/pkg/httpclient"
)

func newTestGateway(t *testing.T, upstreams httpclient.StaticResolver) http.Handler {
	t.Helper()
	client := httpclient.NewClient(noop.NewTracerProvider().Tracer("test"), upstreams)
	r := chi.NewRouter()
	New(client, DefaultRoutes()).RegisterRoutes(r)
	return r
}

func TestProxyStripsPrefix(t *testing.T) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	var gotPath, gotBaggage string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBaggage = r.Header.Get("Baggage")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"ok":true}`)
	}))
	defer upstream.Close()

	h := newTestGateway(t, httpclient.StaticResolver{
		"commerce-service":    upstream.URL,
		"progression-service": upstream.URL,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/progression/profiles/u-1/reading", strings.NewReader(`{"amount":10}`))
	req.Header.Set(channelHeader, "ios")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if gotPath != "/profiles/u-1/reading" {
		t.Fatalf("upstream path = %q", gotPath)
	}
	if !strings.Contains(gotBaggage, "client_channel=ios") {
		t.Fatalf("baggage = %q, want client_channel=ios", gotBaggage)
	}
}

func TestProxyUpstreamErrors(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	downURL := down.URL
	down.Close()

	tests := []struct {
		name      string
		upstreams httpclient.StaticResolver
		want      int
	}{
		{name: "unresolvable", upstreams: httpclient.StaticResolver{}, want: http.StatusServiceUnavailable},
		{name: "connection refused", upstreams: httpclient.StaticResolver{"commerce-service": downURL}, want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestGateway(t, tt.upstreams)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/commerce/products", nil))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if !strings.Contains(rec.Body.String(), "UPSTREAM_UNAVAILABLE") {
				t.Fatalf("body = %q", rec.Body.String())
			}
		})
	}
}

func TestReadyz(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	tests := []struct {
		name      string
		upstreams httpclient.StaticResolver
		want      int
	}{
		{
			name:      "all healthy",
			upstreams: httpclient.StaticResolver{"commerce-service": healthy.URL, "progression-service": healthy.URL},
			want:      http.StatusOK,
		},
		{
			name:      "one failing",
			upstreams: httpclient.StaticResolver{"commerce-service": healthy.URL, "progression-service": failing.URL},
			want:      http.StatusServiceUnavailable,
		},
		{
			name:      "one missing",
			upstreams: httpclient.StaticResolver{"commerce-service": healthy.URL},
			want:      http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestGateway(t, tt.upstreams)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
