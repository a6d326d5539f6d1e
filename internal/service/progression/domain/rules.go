package domain

import (
	"inkverse/internal/pkg/apperr"
)

// Source 是获得经验的行为类型
type Source string

const (
	SourceReading  Source = "reading"
	SourceRecharge Source = "recharge"
)

type RewardType string

const (
	RewardCoin    RewardType = "coin"
	RewardVoucher RewardType = "voucher"
)

// Reward 是签到阶梯上的一格
type Reward struct {
	Amount int64
	Type   RewardType
}

// RewardPolicy 决定签到奖励是否同时发放经验，经验按 recharge 费率计算
type RewardPolicy struct {
	CoinRewardsGrantExp    bool
	NonCoinRewardsGrantExp bool
}

const (
	ExpPerLevel = 100

	DefaultLevelSystem   = "classic"
	defaultLevelsPerTier = 5
)

// Rules 是唯一的等级与奖励规则表，由配置注入
type Rules struct {
	BaseRates     map[Source]float64
	DecayFactor   float64
	Ladder        []Reward
	Policy        RewardPolicy
	LevelSystems  map[string][]string
	LevelsPerTier int
}

// DefaultRules 返回线上使用的默认规则
func DefaultRules() Rules {
	return Rules{
		BaseRates: map[Source]float64{
			SourceReading:  0.05,
			SourceRecharge: 0.2,
		},
		DecayFactor: 0.5,
		Ladder: []Reward{
			{Amount: 10, Type: RewardCoin},
			{Amount: 15, Type: RewardCoin},
			{Amount: 20, Type: RewardCoin},
			{Amount: 25, Type: RewardCoin},
			{Amount: 30, Type: RewardCoin},
			{Amount: 40, Type: RewardCoin},
			{Amount: 100, Type: RewardCoin},
		},
		LevelSystems: map[string][]string{
			"cultivation": {"Qi Refining", "Foundation Establishment", "Core Formation", "Nascent Soul", "Spirit Severing", "Immortal Ascension"},
			"knight":      {"Squire", "Knight", "Knight Captain", "Paladin", "Lord Commander"},
		},
		LevelsPerTier: defaultLevelsPerTier,
	}
}

// Validate 在启动时检查规则表，避免错误配置在运行时才暴露
func (r Rules) Validate() error {
	for _, src := range []Source{SourceReading, SourceRecharge} {
		if rate, ok := r.BaseRates[src]; !ok || rate < 0 {
			return apperr.Validation("base rate for %s must be configured and >= 0", src)
		}
	}
	if r.DecayFactor <= 0 || r.DecayFactor > 1 {
		return apperr.Validation("decay factor must be in (0, 1], got %v", r.DecayFactor)
	}
	if len(r.Ladder) == 0 {
		return apperr.Validation("daily reward ladder must not be empty")
	}
	for i, rw := range r.Ladder {
		if rw.Amount < 0 {
			return apperr.Validation("ladder entry %d has a negative amount", i)
		}
		if rw.Type != RewardCoin && rw.Type != RewardVoucher {
			return apperr.Validation("ladder entry %d has unknown type %q", i, rw.Type)
		}
	}
	if r.LevelsPerTier < 1 {
		return apperr.Validation("levels per tier must be >= 1")
	}
	for name, tiers := range r.LevelSystems {
		if len(tiers) == 0 {
			return apperr.Validation("level system %q has no tiers", name)
		}
	}
	return nil
}
