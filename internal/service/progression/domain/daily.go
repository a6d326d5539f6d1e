package domain

import (
	"math"
	"time"
)

// ClaimResult 是一次签到的结果
type ClaimResult struct {
	Profile      UserProfile
	Granted      Reward
	NewStreak    int
	StreakReset  bool
	CoinsAwarded int64
	// Exp 仅在奖励策略开启时非空
	Exp   *GrantResult
	Event *RewardClaimed
}

// sameCalendarDay 在 now 的时区下比较年月日
func sameCalendarDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CanClaim 只做预览，不修改档案
func (r Rules) CanClaim(p UserProfile, now time.Time) bool {
	return p.LastDailyLogin == nil || !sameCalendarDay(now, *p.LastDailyLogin)
}

// nextStreak 计算本次签到后的连续天数，间隔按 24 小时四舍五入为整天
func nextStreak(p UserProfile, now time.Time) (streak int, reset bool) {
	if p.LastDailyLogin == nil {
		return 1, false
	}
	diffDays := math.Round(math.Abs(now.Sub(*p.LastDailyLogin).Hours()) / 24)
	if diffDays > 1 {
		return 1, p.ConsecutiveLoginDays > 0
	}
	return p.ConsecutiveLoginDays + 1, false
}

// RewardFor 返回第 streak 天对应的阶梯奖励
func (r Rules) RewardFor(streak int) Reward {
	return r.Ladder[(streak-1)%len(r.Ladder)]
}

// ClaimDailyReward 领取每日签到奖励。同一自然日重复领取返回 ErrAlreadyClaimedToday，档案保持不变。
func (r Rules) ClaimDailyReward(p UserProfile, now time.Time) (ClaimResult, error) {
	if !r.CanClaim(p, now) {
		return ClaimResult{}, ErrAlreadyClaimedToday
	}

	streak, reset := nextStreak(p, now)
	reward := r.RewardFor(streak)

	claimedAt := now
	p.LastDailyLogin = &claimedAt
	p.ConsecutiveLoginDays = streak

	res := ClaimResult{Granted: reward, NewStreak: streak, StreakReset: reset}
	if reward.Type == RewardCoin {
		p.CoinBalance += reward.Amount
		res.CoinsAwarded = reward.Amount
	}

	if r.grantsExp(reward) {
		grant := r.gainExp(p, float64(reward.Amount)*r.BaseRates[SourceRecharge])
		p = grant.Profile
		res.Exp = &grant
	}

	res.Profile = p
	res.Event = &RewardClaimed{
		UserID:    p.UserID,
		Day:       streak,
		Amount:    reward.Amount,
		Type:      reward.Type,
		ClaimedAt: now,
	}
	return res, nil
}

func (r Rules) grantsExp(reward Reward) bool {
	if reward.Type == RewardCoin {
		return r.Policy.CoinRewardsGrantExp
	}
	return r.Policy.NonCoinRewardsGrantExp
}

// DailyStatus 是签到入口的展示数据
type DailyStatus struct {
	CanClaim      bool
	CurrentStreak int
	// NextStreak 和 NextReward 表示今天（或明天）领取时会得到的结果
	NextStreak int
	NextReward Reward
}

// Status 计算签到入口的预览。已领取时展示明天的奖励，假设明天继续签到。
// 已断签时 CurrentStreak 显示为 0。
func (r Rules) Status(p UserProfile, now time.Time) DailyStatus {
	if !r.CanClaim(p, now) {
		next := p.ConsecutiveLoginDays + 1
		return DailyStatus{CurrentStreak: p.ConsecutiveLoginDays, NextStreak: next, NextReward: r.RewardFor(next)}
	}

	next, _ := nextStreak(p, now)
	current := p.ConsecutiveLoginDays
	if next == 1 {
		current = 0
	}
	return DailyStatus{CanClaim: true, CurrentStreak: current, NextStreak: next, NextReward: r.RewardFor(next)}
}
