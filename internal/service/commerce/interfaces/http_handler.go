package interfaces

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inkverse/internal/pkg/apperr"
	"inkverse/internal/pkg/httpx"
	"inkverse/internal/service/commerce/application"
)

const serviceName = "commerce-service"

// CommerceHandler 封装了 commerce 服务的 HTTP 处理器
type CommerceHandler struct {
	service *application.CommerceApplicationService
}

func NewCommerceHandler(service *application.CommerceApplicationService) *CommerceHandler {
	return &CommerceHandler{service: service}
}

// RegisterRoutes 在路由上注册所有接口
func (h *CommerceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(httpx.Tracing(serviceName))
		r.Get("/products/{id}/pricing", h.priceProduct)
		r.Post("/cart/preview", h.previewCart)
		r.Post("/vouchers/validate", h.applyVoucher)
		r.Post("/checkout", h.checkout)
	})
}

func (h *CommerceHandler) priceProduct(w http.ResponseWriter, r *http.Request) {
	quantity := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, r, apperr.Validation("quantity must be an integer"))
			return
		}
		quantity = q
	}

	quote, err := h.service.PriceProduct(r.Context(), chi.URLParam(r, "id"), quantity)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, quote)
}

func (h *CommerceHandler) previewCart(w http.ResponseWriter, r *http.Request) {
	var req application.PreviewCartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	quote, err := h.service.PreviewCart(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, quote)
}

func (h *CommerceHandler) applyVoucher(w http.ResponseWriter, r *http.Request) {
	var req application.ApplyVoucherRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	resp, err := h.service.ApplyVoucher(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *CommerceHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req application.CheckoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	resp, err := h.service.Checkout(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}
