// Package rule 执行券的资格规则，支持 CEL 表达式和 JSON Logic 两种格式。
package rule

import (
	"sync"

	"github.com/google/cel-go/cel"

	"inkverse/internal/pkg/apperr"
	"inkverse/internal/service/commerce/domain"
)

// CELEvaluator 是 port.EligibilityEvaluator 的实现，编译结果按表达式缓存。
//
// 表达式可以使用的变量：
//
//	subtotal       int    订单小计
//	user_id        string 用户 ID
//	line_count     int    购物车行数
//	has_flash_sale bool   是否有按秒杀价计费的行
type CELEvaluator struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

func NewCELEvaluator() (*CELEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("subtotal", cel.IntType),
		cel.Variable("user_id", cel.StringType),
		cel.Variable("line_count", cel.IntType),
		cel.Variable("has_flash_sale", cel.BoolType),
	)
	if err != nil {
		return nil, err
	}
	return &CELEvaluator{env: env, programs: make(map[string]cel.Program)}, nil
}

// Evaluate 表达式本身非法时返回校验错误，这属于券配置问题而不是用户问题
func (e *CELEvaluator) Evaluate(rule string, in domain.EligibilityInput) (bool, error) {
	prg, err := e.program(rule)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{
		"subtotal":       in.Subtotal,
		"user_id":        in.UserID,
		"line_count":     int64(in.LineCount),
		"has_flash_sale": in.HasFlashSale,
	})
	if err != nil {
		return false, apperr.Validation("eligibility rule %q failed: %v", rule, err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, apperr.Validation("eligibility rule %q did not produce a bool", rule)
	}
	return ok, nil
}

func (e *CELEvaluator) program(rule string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[rule]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := e.env.Compile(rule)
	if iss != nil && iss.Err() != nil {
		return nil, apperr.Validation("invalid eligibility rule %q: %v", rule, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, apperr.Validation("eligibility rule %q must be a boolean expression", rule)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, apperr.Validation("invalid eligibility rule %q: %v", rule, err)
	}

	e.mu.Lock()
	e.programs[rule] = prg
	e.mu.Unlock()
	return prg, nil
}
