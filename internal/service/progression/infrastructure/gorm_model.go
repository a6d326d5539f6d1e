package infrastructure

import (
	"time"
)

// UserProfileModel 对应 user_profiles 表，Version 用于乐观锁
type UserProfileModel struct {
	UserID               string `gorm:"primaryKey;size:64"`
	CoinBalance          int64
	Level                int
	Exp                  float64
	LastDailyLogin       *time.Time
	ConsecutiveLoginDays int
	LevelSystem          string `gorm:"size:32"`
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (UserProfileModel) TableName() string {
	return "user_profiles"
}

// ChapterModel 对应 chapters 表
type ChapterModel struct {
	ID      string  `gorm:"primaryKey;size:64"`
	ComicID string  `gorm:"size:64;index:idx_chapter_comic,priority:1"`
	Number  float64 `gorm:"index:idx_chapter_comic,priority:2"`
	Price   int64
}

func (ChapterModel) TableName() string {
	return "chapters"
}

// ChapterUnlockModel 每个用户每章最多一行，唯一索引挡住重复扣费
type ChapterUnlockModel struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     string `gorm:"size:64;uniqueIndex:uk_unlock_user_chapter,priority:1;index:idx_unlock_user_comic,priority:1"`
	ComicID    string `gorm:"size:64;index:idx_unlock_user_comic,priority:2"`
	ChapterID  string `gorm:"size:64;uniqueIndex:uk_unlock_user_chapter,priority:2"`
	CoinsSpent int64
	CreatedAt  time.Time
}

func (ChapterUnlockModel) TableName() string {
	return "chapter_unlocks"
}

// ComicPurchaseModel 表示整本购买，存在即视为全部章节已解锁
type ComicPurchaseModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"size:64;uniqueIndex:uk_purchase_user_comic,priority:1"`
	ComicID   string `gorm:"size:64;uniqueIndex:uk_purchase_user_comic,priority:2"`
	CreatedAt time.Time
}

func (ComicPurchaseModel) TableName() string {
	return "comic_purchases"
}

// Models 返回需要迁移的全部模型
func Models() []interface{} {
	return []interface{}{&UserProfileModel{}, &ChapterModel{}, &ChapterUnlockModel{}, &ComicPurchaseModel{}}
}
