package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkverse/internal/pkg/apperr"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{name: "rejection", err: apperr.Reject("OUT_OF_SEQUENCE", "unlock previous chapters first"), wantStatus: http.StatusForbidden, wantCode: "OUT_OF_SEQUENCE"},
		{name: "conflict", err: apperr.NewConflict("STOCK_CHANGED", "review cart"), wantStatus: http.StatusConflict, wantCode: "STOCK_CHANGED"},
		{name: "internal hides details", err: errors.New("dial tcp 10.0.0.1:3306"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL", wantMsg: "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if tt.wantMsg != "" && body.Message != tt.wantMsg {
				t.Fatalf("message = %q, want %q", body.Message, tt.wantMsg)
			}
		})
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var v struct {
		Amount int64 `json:"amount"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount": 5, "total": 1}`))
	if err := DecodeJSON(r, &v); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount": 5}`))
	if err := DecodeJSON(r, &v); err != nil || v.Amount != 5 {
		t.Fatalf("DecodeJSON() = %v, amount = %d", err, v.Amount)
	}
}
