package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"inkverse/internal/service/progression/domain"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeProfiles 模拟带版本号的乐观锁存储
type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]domain.UserProfile
	saves    int
}

func (f *fakeProfiles) Load(_ context.Context, userID string) (domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return domain.UserProfile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Create(_ context.Context, p domain.UserProfile) (domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.profiles[p.UserID]; ok {
		return existing, nil
	}
	p.Version = 1
	f.profiles[p.UserID] = p
	return p, nil
}

func (f *fakeProfiles) Save(_ context.Context, p domain.UserProfile) (domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.profiles[p.UserID]
	if !ok || current.Version != p.Version {
		return domain.UserProfile{}, domain.ErrProfileChanged
	}
	p.Version++
	f.profiles[p.UserID] = p
	f.saves++
	return p, nil
}

type fakeChapters struct {
	profiles *fakeProfiles
	chapters map[string][]domain.Chapter
	unlocked map[string]domain.UnlockedSet
	full     map[string]bool
	commits  int
}

func unlockKey(userID, comicID string) string { return userID + "/" + comicID }

func (f *fakeChapters) ListChapters(_ context.Context, comicID string) ([]domain.Chapter, error) {
	return f.chapters[comicID], nil
}

func (f *fakeChapters) GetUnlockedSet(_ context.Context, userID, comicID string) (domain.UnlockedSet, error) {
	set := domain.NewUnlockedSet()
	for id := range f.unlocked[unlockKey(userID, comicID)] {
		set[id] = struct{}{}
	}
	return set, nil
}

func (f *fakeChapters) HasFullPurchase(_ context.Context, userID, comicID string) (bool, error) {
	return f.full[unlockKey(userID, comicID)], nil
}

func (f *fakeChapters) CommitUnlock(ctx context.Context, p domain.UserProfile, c domain.Chapter) (domain.UserProfile, error) {
	key := unlockKey(p.UserID, c.ComicID)
	if f.unlocked[key].Has(c.ID) {
		return domain.UserProfile{}, domain.ErrAlreadyUnlocked
	}
	saved, err := f.profiles.Save(ctx, p)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if f.unlocked[key] == nil {
		f.unlocked[key] = domain.NewUnlockedSet()
	}
	f.unlocked[key][c.ID] = struct{}{}
	f.commits++
	return saved, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	levelUps []domain.LevelUp
	claims   []domain.RewardClaimed
	unlocks  []domain.ChapterUnlocked
	fail     bool
}

func (f *fakePublisher) PublishLevelUp(_ context.Context, e *domain.LevelUp) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.levelUps = append(f.levelUps, *e)
	return nil
}

func (f *fakePublisher) PublishRewardClaimed(_ context.Context, e *domain.RewardClaimed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.claims = append(f.claims, *e)
	return nil
}

func (f *fakePublisher) PublishChapterUnlocked(_ context.Context, e *domain.ChapterUnlocked) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.unlocks = append(f.unlocks, *e)
	return nil
}

type fakeLocker struct {
	mu    sync.Mutex
	locks int
	err   error
}

func (f *fakeLocker) Lock(_ context.Context, _ string) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.locks++
	return f.mu.Unlock, nil
}

type fixture struct {
	svc       *ProgressionApplicationService
	profiles  *fakeProfiles
	chapters  *fakeChapters
	publisher *fakePublisher
	locker    *fakeLocker
	now       time.Time
}

func newFixture() *fixture {
	profiles := &fakeProfiles{profiles: map[string]domain.UserProfile{}}
	f := &fixture{
		profiles: profiles,
		chapters: &fakeChapters{
			profiles: profiles,
			chapters: map[string][]domain.Chapter{
				"comic-1": {
					{ID: "c1", ComicID: "comic-1", Number: 1},
					{ID: "c2", ComicID: "comic-1", Number: 2},
					{ID: "c3", ComicID: "comic-1", Number: 3, Price: 20},
				},
			},
			unlocked: map[string]domain.UnlockedSet{},
			full:     map[string]bool{},
		},
		publisher: &fakePublisher{},
		locker:    &fakeLocker{},
		now:       fixedNow,
	}
	f.svc = NewProgressionApplicationService(Dependencies{
		Profiles:  f.profiles,
		Chapters:  f.chapters,
		Publisher: f.publisher,
		Locker:    f.locker,
		Tracer:    noop.NewTracerProvider().Tracer("test"),
		Now:       func() time.Time { return f.now },
	})
	return f
}

// seed 直接写入一个档案，版本号从 1 开始
func (f *fixture) seed(p domain.UserProfile) {
	p.Version = 1
	f.profiles.profiles[p.UserID] = p
}
