package rule

import (
	"errors"
	"testing"

	"inkverse/internal/pkg/apperr"
	"inkverse/internal/service/commerce/domain"
)

func TestEvaluatorDispatch(t *testing.T) {
	ev, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	in := domain.EligibilityInput{Subtotal: 44000, UserID: "vip-42", LineCount: 2, HasFlashSale: true}

	tests := []struct {
		name string
		rule string
		want bool
	}{
		{name: "cel", rule: "subtotal >= 40000", want: true},
		{name: "jsonlogic threshold", rule: `{">=": [{"var": "subtotal"}, 40000]}`, want: true},
		{name: "jsonlogic no stacking", rule: `{"!": [{"var": "has_flash_sale"}]}`, want: false},
		{name: "jsonlogic and", rule: ` {"and": [{"==": [{"var": "user_id"}, "vip-42"]}, {"<=": [{"var": "line_count"}, 3]}]}`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Evaluate(tt.rule, in)
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.rule, err)
			}
			if got != tt.want {
				t.Fatalf("Evaluate(%q) = %v, want %v", tt.rule, got, tt.want)
			}
		})
	}
}

func TestJSONLogicEvaluatorRejectsBadRules(t *testing.T) {
	ev := NewJSONLogicEvaluator()
	for _, rule := range []string{`{">=": [`, `{"+": [{"var": "subtotal"}, 1]}`} {
		if _, err := ev.Evaluate(rule, domain.EligibilityInput{Subtotal: 1}); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Evaluate(%q) err = %v, want validation error", rule, err)
		}
	}
}
