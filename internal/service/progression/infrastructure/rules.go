package infrastructure

import (
	"context"
	"sync"

	"inkverse/internal/pkg/bootstrap"
	"inkverse/internal/pkg/logger"
	"inkverse/internal/service/progression/domain"
)

// RulesFromConfig 在默认规则之上叠加配置中出现的字段，然后统一校验
func RulesFromConfig(cfg bootstrap.ProgressionConfig) (domain.Rules, error) {
	rules := domain.DefaultRules()

	if len(cfg.BaseRates) > 0 {
		rules.BaseRates = make(map[domain.Source]float64, len(cfg.BaseRates))
		for src, rate := range cfg.BaseRates {
			rules.BaseRates[domain.Source(src)] = rate
		}
	}
	if cfg.DecayFactor != 0 {
		rules.DecayFactor = cfg.DecayFactor
	}
	if len(cfg.DailyLadder) > 0 {
		rules.Ladder = make([]domain.Reward, 0, len(cfg.DailyLadder))
		for _, rw := range cfg.DailyLadder {
			typ := domain.RewardType(rw.Type)
			if typ == "" {
				typ = domain.RewardCoin
			}
			rules.Ladder = append(rules.Ladder, domain.Reward{Amount: rw.Amount, Type: typ})
		}
	}
	rules.Policy = domain.RewardPolicy{
		CoinRewardsGrantExp:    cfg.RewardPolicy.CoinRewardsGrantExp,
		NonCoinRewardsGrantExp: cfg.RewardPolicy.NonCoinRewardsGrantExp,
	}
	for name, tiers := range cfg.LevelSystems {
		rules.LevelSystems[name] = tiers
	}
	if cfg.LevelsPerTier != 0 {
		rules.LevelsPerTier = cfg.LevelsPerTier
	}

	if err := rules.Validate(); err != nil {
		return domain.Rules{}, err
	}
	return rules, nil
}

// RulesProvider 跟随当前配置快照重建规则表，新配置校验失败时继续使用上一份有效规则
type RulesProvider struct {
	mu      sync.Mutex
	current func() *bootstrap.Config
	source  *bootstrap.Config
	rules   domain.Rules
}

func NewRulesProvider(current func() *bootstrap.Config) (*RulesProvider, error) {
	cfg := current()
	rules, err := RulesFromConfig(cfg.Progression)
	if err != nil {
		return nil, err
	}
	return &RulesProvider{current: current, source: cfg, rules: rules}, nil
}

func (p *RulesProvider) Rules() domain.Rules {
	cfg := p.current()

	p.mu.Lock()
	defer p.mu.Unlock()
	if cfg == p.source {
		return p.rules
	}
	p.source = cfg
	rules, err := RulesFromConfig(cfg.Progression)
	if err != nil {
		logger.Ctx(context.Background()).Error().Err(err).Msg("Invalid progression rules in new config, keeping previous rules.")
		return p.rules
	}
	p.rules = rules
	return rules
}
