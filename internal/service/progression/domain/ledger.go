package domain

import (
	"math"

	"inkverse/internal/pkg/apperr"
)

// GrantResult 是一次经验发放的结果，Profile 是更新后的副本
type GrantResult struct {
	Profile       UserProfile
	NewLevel      int
	NewExp        float64
	LeveledUp     bool
	LevelsGained  int
	ExpGained     float64
	CoinsCredited int64
	// Event 只在升级时非空，只携带最终等级
	Event *LevelUp
}

// GrantExp 按行为发放经验。recharge 会在同一个档案副本上同时入账金币，
// 调用方只需一次保存即可让两者一起生效。
func (r Rules) GrantExp(p UserProfile, source Source, amount int64) (GrantResult, error) {
	rate, ok := r.BaseRates[source]
	if !ok {
		return GrantResult{}, apperr.Validation("unknown exp source %q", source)
	}
	if amount < 0 {
		return GrantResult{}, apperr.Validation("amount must be >= 0, got %d", amount)
	}
	if p.Level < 1 {
		return GrantResult{}, apperr.Validation("profile level must be >= 1, got %d", p.Level)
	}

	var coins int64
	if source == SourceRecharge {
		coins = amount
		p.CoinBalance += amount
	}
	res := r.gainExp(p, float64(amount)*rate)
	res.CoinsCredited = coins
	return res, nil
}

// gainExp 把基础经验按当前等级衰减后累加并处理连续升级，不涉及金币
func (r Rules) gainExp(p UserProfile, baseExp float64) GrantResult {
	startLevel := p.Level
	actual := baseExp * math.Pow(r.DecayFactor, float64(p.Level-1))

	p.Exp = roundExp(p.Exp + actual)
	for p.Exp >= ExpPerLevel {
		p.Level++
		p.Exp = roundExp(p.Exp - ExpPerLevel)
	}
	if p.Exp < 0 {
		p.Exp = 0
	}

	res := GrantResult{
		Profile:      p,
		NewLevel:     p.Level,
		NewExp:       p.Exp,
		LevelsGained: p.Level - startLevel,
		ExpGained:    actual,
	}
	if res.LevelsGained > 0 {
		res.LeveledUp = true
		res.Event = &LevelUp{UserID: p.UserID, Level: p.Level}
	}
	return res
}

// expPrecision 是经验累加的固定精度，多次小额发放不会因浮点误差停在 99.99999 而错过升级
const expPrecision = 1e6

func roundExp(v float64) float64 {
	return math.Round(v*expPrecision) / expPrecision
}
