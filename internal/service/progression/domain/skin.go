package domain

import (
	"fmt"

	"inkverse/internal/pkg/apperr"
)

// HasLevelSystem 判断是否是可选的等级皮肤，classic 总是存在
func (r Rules) HasLevelSystem(name string) bool {
	if name == DefaultLevelSystem {
		return true
	}
	_, ok := r.LevelSystems[name]
	return ok
}

// LevelTitle 返回等级在指定皮肤下的展示名。
// 每个境界包含 LevelsPerTier 个小阶，超过最后一个境界后停留在最后一个境界继续累加小阶。
func (r Rules) LevelTitle(system string, level int) string {
	tiers, ok := r.LevelSystems[system]
	if !ok || len(tiers) == 0 || system == DefaultLevelSystem {
		return fmt.Sprintf("Lv.%d", level)
	}
	per := r.LevelsPerTier
	if per < 1 {
		per = defaultLevelsPerTier
	}
	if level < 1 {
		level = 1
	}
	tier := (level - 1) / per
	if tier >= len(tiers) {
		last := len(tiers) - 1
		return fmt.Sprintf("%s %d", tiers[last], level-last*per)
	}
	return fmt.Sprintf("%s %d", tiers[tier], (level-1)%per+1)
}

// SetLevelSystem 切换用户的等级皮肤
func (r Rules) SetLevelSystem(p UserProfile, system string) (UserProfile, error) {
	if !r.HasLevelSystem(system) {
		return p, apperr.Validation("unknown level system %q", system)
	}
	p.LevelSystem = system
	return p, nil
}
