package domain

import "time"

// UserProfile 是等级、经验、金币与签到状态的聚合。
// Exp 是当前等级内的百分比进度，始终落在 [0, 100)。
type UserProfile struct {
	UserID               string
	CoinBalance          int64
	Level                int
	Exp                  float64
	LastDailyLogin       *time.Time
	ConsecutiveLoginDays int
	LevelSystem          string
	// Version 用于乐观锁，每次保存递增
	Version int64
}

// NewUserProfile 创建注册时的初始档案
func NewUserProfile(userID string) UserProfile {
	return UserProfile{
		UserID:      userID,
		Level:       1,
		LevelSystem: DefaultLevelSystem,
	}
}
