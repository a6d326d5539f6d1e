package rule

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"

	"inkverse/internal/pkg/apperr"
	"inkverse/internal/service/commerce/domain"
)

// JSONLogicEvaluator 执行 JSON Logic 格式的资格规则，例如
//
//	{"and": [{">=": [{"var": "subtotal"}, 40000]}, {"!": [{"var": "has_flash_sale"}]}]}
//
// 可用变量与 CEL 相同。
type JSONLogicEvaluator struct{}

func NewJSONLogicEvaluator() *JSONLogicEvaluator {
	return &JSONLogicEvaluator{}
}

func (e *JSONLogicEvaluator) Evaluate(rule string, in domain.EligibilityInput) (bool, error) {
	if !json.Valid([]byte(rule)) {
		return false, apperr.Validation("invalid eligibility rule %q: not json", rule)
	}
	data, err := json.Marshal(map[string]any{
		"subtotal":       in.Subtotal,
		"user_id":        in.UserID,
		"line_count":     in.LineCount,
		"has_flash_sale": in.HasFlashSale,
	})
	if err != nil {
		return false, err
	}

	var out bytes.Buffer
	if err := jsonlogic.Apply(strings.NewReader(rule), bytes.NewReader(data), &out); err != nil {
		return false, apperr.Validation("eligibility rule %q failed: %v", rule, err)
	}
	var result any
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		return false, apperr.Validation("eligibility rule %q produced invalid output", rule)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, apperr.Validation("eligibility rule %q did not produce a bool", rule)
	}
	return ok, nil
}

// Evaluator 按规则格式分发：以 { 开头的是 JSON Logic，其余按 CEL 表达式处理
type Evaluator struct {
	cel       *CELEvaluator
	jsonLogic *JSONLogicEvaluator
}

func NewEvaluator() (*Evaluator, error) {
	celEvaluator, err := NewCELEvaluator()
	if err != nil {
		return nil, err
	}
	return &Evaluator{cel: celEvaluator, jsonLogic: NewJSONLogicEvaluator()}, nil
}

func (e *Evaluator) Evaluate(rule string, in domain.EligibilityInput) (bool, error) {
	if strings.HasPrefix(strings.TrimSpace(rule), "{") {
		return e.jsonLogic.Evaluate(rule, in)
	}
	return e.cel.Evaluate(rule, in)
}
