package domain

import "time"

// LevelUp 在一次发放中升级时产生，连升多级也只产生一个事件
type LevelUp struct {
	UserID string `json:"userId"`
	Level  int    `json:"level"`
}

type RewardClaimed struct {
	UserID    string     `json:"userId"`
	Day       int        `json:"day"`
	Amount    int64      `json:"amount"`
	Type      RewardType `json:"type"`
	ClaimedAt time.Time  `json:"claimedAt"`
}

type ChapterUnlocked struct {
	UserID     string  `json:"userId"`
	ComicID    string  `json:"comicId"`
	ChapterID  string  `json:"chapterId"`
	Number     float64 `json:"number"`
	CoinsSpent int64   `json:"coinsSpent"`
}

// 事件类型名，作为 Kafka 消息信封的 type 字段
const (
	LevelUpEventType         = "LevelUp"
	RewardClaimedEventType   = "RewardClaimed"
	ChapterUnlockedEventType = "ChapterUnlocked"
)
