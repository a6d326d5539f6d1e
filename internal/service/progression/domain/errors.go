package domain

import (
	"inkverse/internal/pkg/apperr"
)

var (
	ErrAlreadyClaimedToday = apperr.Reject("ALREADY_CLAIMED_TODAY", "daily reward already claimed today")
	ErrOutOfSequence       = apperr.Reject("OUT_OF_SEQUENCE", "previous chapters must be unlocked first")
	ErrInsufficientBalance = apperr.Reject("INSUFFICIENT_BALANCE", "not enough coins to unlock this chapter")
	ErrAlreadyUnlocked     = apperr.Reject("ALREADY_UNLOCKED", "chapter is already readable")
	ErrProfileNotFound     = apperr.Reject("NOT_FOUND", "user profile not found")
	ErrChapterNotFound     = apperr.Reject("NOT_FOUND", "chapter not found")

	// ErrProfileChanged 表示保存时版本号已被其它请求推进
	ErrProfileChanged = apperr.NewConflict("PROFILE_CHANGED", "profile was modified concurrently, please retry")
)
