package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
)

var errSample = Reject("OUT_OF_SEQUENCE", "chapter must be unlocked in order")

func TestRejectionMatching(t *testing.T) {
	wrapped := fmt.Errorf("unlock: %w", errSample)

	if !errors.Is(wrapped, errSample) {
		t.Fatalf("wrapped rejection should match its sentinel")
	}
	if !errors.Is(wrapped, ErrRejected) {
		t.Fatalf("wrapped rejection should match ErrRejected")
	}
	if errors.Is(wrapped, ErrConflict) {
		t.Fatalf("rejection must not match ErrConflict")
	}
	if got := CodeOf(wrapped); got != "OUT_OF_SEQUENCE" {
		t.Fatalf("CodeOf() = %q, want OUT_OF_SEQUENCE", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "validation", err: Validation("quantity must be >= 1"), want: http.StatusBadRequest},
		{name: "rejection", err: errSample, want: http.StatusForbidden},
		{name: "not found", err: Reject("NOT_FOUND", "voucher not found"), want: http.StatusNotFound},
		{name: "conflict", err: errors.Wrap(NewConflict("STOCK_CHANGED", "stock changed"), "checkout"), want: http.StatusConflict},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
