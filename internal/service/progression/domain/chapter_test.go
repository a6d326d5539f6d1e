package domain

import (
	"errors"
	"testing"

	"inkverse/internal/pkg/apperr"
)

func testChapters() []Chapter {
	return []Chapter{
		{ID: "c1", ComicID: "comic-1", Number: 1},
		{ID: "c2", ComicID: "comic-1", Number: 2},
		{ID: "c3", ComicID: "comic-1", Number: 3, Price: 20},
		{ID: "c3.5", ComicID: "comic-1", Number: 3.5, Price: 5},
	}
}

func TestRequestUnlockSequence(t *testing.T) {
	tests := []struct {
		name        string
		unlocked    UnlockedSet
		target      string
		balance     int64
		wantErr     error
		wantBalance int64
	}{
		{name: "next paid chapter", unlocked: NewUnlockedSet("c1", "c2"), target: "c3", balance: 20, wantBalance: 0},
		{name: "gap at chapter 2", unlocked: NewUnlockedSet("c1"), target: "c3", balance: 20, wantErr: ErrOutOfSequence},
		{name: "out of order unlock does not advance past gap", unlocked: NewUnlockedSet("c1", "c3"), target: "c3.5", balance: 100, wantErr: ErrOutOfSequence},
		{name: "free chapter obeys sequence", unlocked: NewUnlockedSet(), target: "c2", balance: 100, wantErr: ErrOutOfSequence},
		{name: "free chapter skips balance", unlocked: NewUnlockedSet("c1"), target: "c2", balance: 0, wantBalance: 0},
		{name: "first chapter with nil set", unlocked: nil, target: "c1", balance: 0, wantBalance: 0},
		{name: "insufficient balance", unlocked: NewUnlockedSet("c1", "c2"), target: "c3", balance: 19, wantErr: ErrInsufficientBalance},
		{name: "already unlocked", unlocked: NewUnlockedSet("c1", "c2"), target: "c2", balance: 100, wantErr: ErrAlreadyUnlocked},
		{name: "half chapter", unlocked: NewUnlockedSet("c1", "c2", "c3"), target: "c3.5", balance: 7, wantBalance: 2},
		{name: "unknown chapter", unlocked: NewUnlockedSet(), target: "c9", balance: 7, wantErr: ErrChapterNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := RequestUnlock(UnlockRequest{
				UserID:      "u-1",
				Chapters:    testChapters(),
				Unlocked:    tt.unlocked,
				TargetID:    tt.target,
				CoinBalance: tt.balance,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !res.Allowed || res.NewBalance != tt.wantBalance {
				t.Fatalf("allowed=%v balance=%d, want true/%d", res.Allowed, res.NewBalance, tt.wantBalance)
			}
			if res.CoinsSpent != tt.balance-tt.wantBalance {
				t.Fatalf("coins spent = %d", res.CoinsSpent)
			}
			if !res.Unlocked.Has(tt.target) {
				t.Fatalf("target %s missing from new unlocked set", tt.target)
			}
			if tt.unlocked.Has(tt.target) {
				t.Fatalf("input unlocked set must not be mutated")
			}
			if res.Event == nil || res.Event.ChapterID != tt.target || res.Event.UserID != "u-1" {
				t.Fatalf("event = %+v", res.Event)
			}
		})
	}
}

func TestRequestUnlockFullPurchase(t *testing.T) {
	res, err := RequestUnlock(UnlockRequest{
		Chapters:     testChapters(),
		Unlocked:     NewUnlockedSet(),
		TargetID:     "c3.5",
		CoinBalance:  3,
		FullPurchase: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Allowed || res.CoinsSpent != 0 || res.NewBalance != 3 || res.Event != nil {
		t.Fatalf("full purchase should short-circuit, got %+v", res)
	}
}

func TestRequestUnlockRejectsBadCatalog(t *testing.T) {
	tests := []struct {
		name     string
		chapters []Chapter
	}{
		{name: "not increasing", chapters: []Chapter{{ID: "a", Number: 2}, {ID: "b", Number: 1}}},
		{name: "repeated number", chapters: []Chapter{{ID: "a", Number: 1}, {ID: "b", Number: 1}}},
		{name: "duplicate id", chapters: []Chapter{{ID: "a", Number: 1}, {ID: "a", Number: 2}}},
		{name: "negative price", chapters: []Chapter{{ID: "a", Number: 1, Price: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RequestUnlock(UnlockRequest{Chapters: tt.chapters, TargetID: "a"})
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestHighestUnlockedChapterNumber(t *testing.T) {
	chapters := testChapters()
	tests := []struct {
		name     string
		unlocked UnlockedSet
		want     float64
	}{
		{name: "nothing", unlocked: NewUnlockedSet(), want: 0},
		{name: "prefix", unlocked: NewUnlockedSet("c1", "c2", "c3"), want: 3},
		{name: "gap halts scan", unlocked: NewUnlockedSet("c1", "c3", "c3.5"), want: 1},
		{name: "all", unlocked: NewUnlockedSet("c1", "c2", "c3", "c3.5"), want: 3.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighestUnlockedChapterNumber(chapters, tt.unlocked); got != tt.want {
				t.Fatalf("HighestUnlockedChapterNumber() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanRead(t *testing.T) {
	chapters := testChapters()
	if !CanRead(chapters[1], nil) {
		t.Fatalf("free chapter should be readable without a record")
	}
	if CanRead(chapters[2], NewUnlockedSet("c1")) {
		t.Fatalf("paid chapter should need an unlock")
	}
}
