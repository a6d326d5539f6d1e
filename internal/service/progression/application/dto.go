package application

import (
	"time"

	"inkverse/internal/service/progression/domain"
)

// ProfileView 是对外展示的档案，附带当前皮肤下的等级名
type ProfileView struct {
	UserID               string     `json:"userId"`
	CoinBalance          int64      `json:"coinBalance"`
	Level                int        `json:"level"`
	LevelTitle           string     `json:"levelTitle"`
	LevelSystem          string     `json:"levelSystem"`
	Exp                  float64    `json:"exp"`
	ConsecutiveLoginDays int        `json:"consecutiveLoginDays"`
	LastDailyLogin       *time.Time `json:"lastDailyLogin,omitempty"`
}

type GrantExpRequest struct {
	Amount int64 `json:"amount"`
}

type GrantExpResponse struct {
	Profile       ProfileView `json:"profile"`
	LeveledUp     bool        `json:"leveledUp"`
	LevelsGained  int         `json:"levelsGained"`
	ExpGained     float64     `json:"expGained"`
	CoinsCredited int64       `json:"coinsCredited,omitempty"`
}

type RewardView struct {
	Amount int64             `json:"amount"`
	Type   domain.RewardType `json:"type"`
}

type ClaimResponse struct {
	Profile      ProfileView `json:"profile"`
	Reward       RewardView  `json:"reward"`
	NewStreak    int         `json:"newStreak"`
	StreakReset  bool        `json:"streakReset"`
	CoinsAwarded int64       `json:"coinsAwarded"`
	LeveledUp    bool        `json:"leveledUp,omitempty"`
}

type DailyStatusResponse struct {
	CanClaim      bool       `json:"canClaim"`
	CurrentStreak int        `json:"currentStreak"`
	NextStreak    int        `json:"nextStreak"`
	NextReward    RewardView `json:"nextReward"`
}

type UnlockResponse struct {
	Profile      ProfileView `json:"profile"`
	ChapterID    string      `json:"chapterId"`
	CoinsSpent   int64       `json:"coinsSpent"`
	FullPurchase bool        `json:"fullPurchase,omitempty"`
}

type SetLevelSystemRequest struct {
	LevelSystem string `json:"levelSystem"`
}

func toProfileView(p domain.UserProfile, rules domain.Rules) ProfileView {
	return ProfileView{
		UserID:               p.UserID,
		CoinBalance:          p.CoinBalance,
		Level:                p.Level,
		LevelTitle:           rules.LevelTitle(p.LevelSystem, p.Level),
		LevelSystem:          p.LevelSystem,
		Exp:                  p.Exp,
		ConsecutiveLoginDays: p.ConsecutiveLoginDays,
		LastDailyLogin:       p.LastDailyLogin,
	}
}

func toRewardView(r domain.Reward) RewardView {
	return RewardView{Amount: r.Amount, Type: r.Type}
}
