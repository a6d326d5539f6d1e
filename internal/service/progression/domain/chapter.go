package domain

import (
	"inkverse/internal/pkg/apperr"
)

// Chapter 是漫画的一个章节，Number 在同一漫画内严格递增，支持 12.5 这样的番外编号
type Chapter struct {
	ID      string
	ComicID string
	Number  float64
	// Price 为解锁所需金币，0 表示免费
	Price int64
}

func (c Chapter) IsFree() bool {
	return c.Price == 0
}

// UnlockedSet 是用户已解锁的章节 ID 集合，免费章节同样需要按顺序解锁（零金币）才会记录
type UnlockedSet map[string]struct{}

func NewUnlockedSet(ids ...string) UnlockedSet {
	s := make(UnlockedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s UnlockedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s UnlockedSet) clone() UnlockedSet {
	out := make(UnlockedSet, len(s)+1)
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

type UnlockRequest struct {
	UserID string
	// Chapters 必须按 Number 升序排列
	Chapters    []Chapter
	Unlocked    UnlockedSet
	TargetID    string
	CoinBalance int64
	// FullPurchase 表示用户已整本购买，所有章节视为已解锁
	FullPurchase bool
}

type UnlockResult struct {
	Allowed    bool
	Chapter    Chapter
	Unlocked   UnlockedSet
	CoinsSpent int64
	NewBalance int64
	Event      *ChapterUnlocked
}

// CanRead 判断用户是否可以阅读章节，免费章节无需解锁记录
func CanRead(c Chapter, unlocked UnlockedSet) bool {
	return c.IsFree() || unlocked.Has(c.ID)
}

// unlockedPrefix 返回从第一章开始连续出现在解锁记录中的章节数，遇到缺口即停止。
// 免费章节同样需要按顺序记录，否则也算缺口。
func unlockedPrefix(chapters []Chapter, unlocked UnlockedSet) int {
	n := 0
	for _, c := range chapters {
		if !unlocked.Has(c.ID) {
			break
		}
		n++
	}
	return n
}

// HighestUnlockedChapterNumber 返回连续解锁前缀中最后一章的编号，没有时返回 0
func HighestUnlockedChapterNumber(chapters []Chapter, unlocked UnlockedSet) float64 {
	n := unlockedPrefix(chapters, unlocked)
	if n == 0 {
		return 0
	}
	return chapters[n-1].Number
}

func validateChapters(chapters []Chapter) error {
	seen := make(map[string]bool, len(chapters))
	for i, c := range chapters {
		if seen[c.ID] {
			return apperr.Validation("duplicate chapter id %s", c.ID)
		}
		seen[c.ID] = true
		if c.Price < 0 {
			return apperr.Validation("chapter %s has a negative price", c.ID)
		}
		if i > 0 && c.Number <= chapters[i-1].Number {
			return apperr.Validation("chapter numbers must be strictly increasing at %s", c.ID)
		}
	}
	return nil
}

// RequestUnlock 判断能否解锁目标章节。章节必须严格按顺序解锁：
// 目标必须紧跟在连续解锁前缀之后，免费章节跳过余额检查但同样遵守顺序。
func RequestUnlock(req UnlockRequest) (UnlockResult, error) {
	if err := validateChapters(req.Chapters); err != nil {
		return UnlockResult{}, err
	}
	idx := -1
	for i, c := range req.Chapters {
		if c.ID == req.TargetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return UnlockResult{}, ErrChapterNotFound
	}
	target := req.Chapters[idx]

	if req.FullPurchase {
		return UnlockResult{Allowed: true, Chapter: target, Unlocked: req.Unlocked.clone(), NewBalance: req.CoinBalance}, nil
	}

	if req.Unlocked.Has(target.ID) {
		return UnlockResult{}, ErrAlreadyUnlocked
	}
	if idx != unlockedPrefix(req.Chapters, req.Unlocked) {
		return UnlockResult{}, ErrOutOfSequence
	}
	if req.CoinBalance < target.Price {
		return UnlockResult{}, ErrInsufficientBalance
	}

	unlocked := req.Unlocked.clone()
	unlocked[target.ID] = struct{}{}
	return UnlockResult{
		Allowed:    true,
		Chapter:    target,
		Unlocked:   unlocked,
		CoinsSpent: target.Price,
		NewBalance: req.CoinBalance - target.Price,
		Event: &ChapterUnlocked{
			UserID:     req.UserID,
			ComicID:    target.ComicID,
			ChapterID:  target.ID,
			Number:     target.Number,
			CoinsSpent: target.Price,
		},
	}, nil
}
