package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"inkverse/internal/pkg/apperr"
	"inkverse/internal/pkg/logger"
	"inkverse/internal/pkg/metrics"
	"inkverse/internal/service/progression/domain"
	"inkverse/internal/service/progression/domain/port"
)

// Dependencies 是应用服务依赖的出站端口
type Dependencies struct {
	Profiles  domain.ProfileRepository
	Chapters  port.ChapterRepository
	Publisher port.EventPublisher
	Locker    port.UserLocker
	Tracer    trace.Tracer

	// 以下为可选项，Rules 每次调用时读取，配置热更新后立即生效
	Rules       func() domain.Rules
	Now         func() time.Time
	PushEnabled func() bool
}

// ProgressionApplicationService 编排等级、签到与章节解锁。
// 每个写操作都是：加用户锁 → 读档案 → 纯计算 → 带版本号保存 → 发布事件。
type ProgressionApplicationService struct {
	deps Dependencies
}

func NewProgressionApplicationService(deps Dependencies) *ProgressionApplicationService {
	if deps.Rules == nil {
		rules := domain.DefaultRules()
		deps.Rules = func() domain.Rules { return rules }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.PushEnabled == nil {
		deps.PushEnabled = func() bool { return true }
	}
	return &ProgressionApplicationService{deps: deps}
}

// GetProfile 返回用户档案，首次访问时创建初始档案
func (s *ProgressionApplicationService) GetProfile(ctx context.Context, userID string) (*ProfileView, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "app.GetProfile")
	defer span.End()

	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	p, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	view := toProfileView(p, s.deps.Rules())
	return &view, nil
}

// ReadPages 按阅读页数发放经验
func (s *ProgressionApplicationService) ReadPages(ctx context.Context, userID string, pages int64) (*GrantExpResponse, error) {
	return s.grantExp(ctx, "app.ReadPages", userID, domain.SourceReading, pages)
}

// Recharge 充值金币并按充值额发放经验，两者一次保存
func (s *ProgressionApplicationService) Recharge(ctx context.Context, userID string, coins int64) (*GrantExpResponse, error) {
	return s.grantExp(ctx, "app.Recharge", userID, domain.SourceRecharge, coins)
}

func (s *ProgressionApplicationService) grantExp(ctx context.Context, spanName, userID string, source domain.Source, amount int64) (resp *GrantExpResponse, err error) {
	ctx, span := s.deps.Tracer.Start(ctx, spanName)
	defer span.End()
	defer recordSpanError(span, &err)
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int64("amount", amount))

	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	rules := s.deps.Rules()

	var res domain.GrantResult
	err = s.withUserLock(ctx, userID, func() error {
		p, err := s.loadOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if res, err = rules.GrantExp(p, source, amount); err != nil {
			return err
		}
		res.Profile, err = s.deps.Profiles.Save(ctx, res.Profile)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.ExpGranted.WithLabelValues(string(source)).Add(res.ExpGained)
	if res.LeveledUp {
		metrics.LevelUps.Add(float64(res.LevelsGained))
		logger.Ctx(ctx).Info().Str("user_id", userID).Int("level", res.NewLevel).Msg("User leveled up.")
		s.publish(ctx, func() error { return s.deps.Publisher.PublishLevelUp(ctx, res.Event) })
	}

	return &GrantExpResponse{
		Profile:       toProfileView(res.Profile, rules),
		LeveledUp:     res.LeveledUp,
		LevelsGained:  res.LevelsGained,
		ExpGained:     res.ExpGained,
		CoinsCredited: res.CoinsCredited,
	}, nil
}

// ClaimDailyReward 领取每日签到奖励，同一天重复领取返回 ALREADY_CLAIMED_TODAY
func (s *ProgressionApplicationService) ClaimDailyReward(ctx context.Context, userID string) (resp *ClaimResponse, err error) {
	ctx, span := s.deps.Tracer.Start(ctx, "app.ClaimDailyReward")
	defer span.End()
	defer recordSpanError(span, &err)
	span.SetAttributes(attribute.String("user.id", userID))

	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	rules := s.deps.Rules()

	var res domain.ClaimResult
	err = s.withUserLock(ctx, userID, func() error {
		p, err := s.loadOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if res, err = rules.ClaimDailyReward(p, s.deps.Now()); err != nil {
			return err
		}
		res.Profile, err = s.deps.Profiles.Save(ctx, res.Profile)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyClaimedToday) {
			metrics.DailyClaims.WithLabelValues("already_claimed").Inc()
		}
		return nil, err
	}

	result := "claimed"
	if res.StreakReset {
		result = "streak_reset"
	}
	metrics.DailyClaims.WithLabelValues(result).Inc()
	s.publish(ctx, func() error { return s.deps.Publisher.PublishRewardClaimed(ctx, res.Event) })

	resp = &ClaimResponse{
		Profile:      toProfileView(res.Profile, rules),
		Reward:       toRewardView(res.Granted),
		NewStreak:    res.NewStreak,
		StreakReset:  res.StreakReset,
		CoinsAwarded: res.CoinsAwarded,
	}
	if res.Exp != nil && res.Exp.LeveledUp {
		resp.LeveledUp = true
		metrics.LevelUps.Add(float64(res.Exp.LevelsGained))
		s.publish(ctx, func() error { return s.deps.Publisher.PublishLevelUp(ctx, res.Exp.Event) })
	}
	return resp, nil
}

// DailyStatus 预览签到入口，不修改档案
func (s *ProgressionApplicationService) DailyStatus(ctx context.Context, userID string) (*DailyStatusResponse, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "app.DailyStatus")
	defer span.End()

	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	p, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	st := s.deps.Rules().Status(p, s.deps.Now())
	return &DailyStatusResponse{
		CanClaim:      st.CanClaim,
		CurrentStreak: st.CurrentStreak,
		NextStreak:    st.NextStreak,
		NextReward:    toRewardView(st.NextReward),
	}, nil
}

// UnlockChapter 按顺序解锁章节。扣费与解锁记录在同一个事务中提交。
func (s *ProgressionApplicationService) UnlockChapter(ctx context.Context, userID, comicID, chapterID string) (resp *UnlockResponse, err error) {
	ctx, span := s.deps.Tracer.Start(ctx, "app.UnlockChapter")
	defer span.End()
	defer func() {
		result := "UNLOCKED"
		if err != nil {
			result = apperr.CodeOf(err)
		}
		metrics.ChapterUnlocks.WithLabelValues(result).Inc()
	}()
	defer recordSpanError(span, &err)
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("comic.id", comicID),
		attribute.String("chapter.id", chapterID),
	)

	if userID == "" || comicID == "" || chapterID == "" {
		return nil, apperr.Validation("userId, comicId and chapterId are required")
	}
	rules := s.deps.Rules()

	var res domain.UnlockResult
	var profile domain.UserProfile
	err = s.withUserLock(ctx, userID, func() error {
		p, err := s.loadOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		chapters, err := s.deps.Chapters.ListChapters(ctx, comicID)
		if err != nil {
			return err
		}
		unlocked, err := s.deps.Chapters.GetUnlockedSet(ctx, userID, comicID)
		if err != nil {
			return err
		}
		full, err := s.deps.Chapters.HasFullPurchase(ctx, userID, comicID)
		if err != nil {
			return err
		}

		res, err = domain.RequestUnlock(domain.UnlockRequest{
			UserID:       userID,
			Chapters:     chapters,
			Unlocked:     unlocked,
			TargetID:     chapterID,
			CoinBalance:  p.CoinBalance,
			FullPurchase: full,
		})
		if err != nil {
			return err
		}
		if full {
			profile = p
			return nil
		}

		p.CoinBalance = res.NewBalance
		profile, err = s.deps.Chapters.CommitUnlock(ctx, p, res.Chapter)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp = &UnlockResponse{
		Profile:    toProfileView(profile, rules),
		ChapterID:  res.Chapter.ID,
		CoinsSpent: res.CoinsSpent,
	}
	if res.Event == nil {
		resp.FullPurchase = true
		return resp, nil
	}
	logger.Ctx(ctx).Info().Str("user_id", userID).Str("chapter_id", chapterID).Int64("coins", res.CoinsSpent).Msg("Chapter unlocked.")
	s.publish(ctx, func() error { return s.deps.Publisher.PublishChapterUnlocked(ctx, res.Event) })
	return resp, nil
}

// SetLevelSystem 切换等级皮肤，只影响展示名
func (s *ProgressionApplicationService) SetLevelSystem(ctx context.Context, userID, system string) (view *ProfileView, err error) {
	ctx, span := s.deps.Tracer.Start(ctx, "app.SetLevelSystem")
	defer span.End()
	defer recordSpanError(span, &err)

	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	rules := s.deps.Rules()

	var saved domain.UserProfile
	err = s.withUserLock(ctx, userID, func() error {
		p, err := s.loadOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if p, err = rules.SetLevelSystem(p, system); err != nil {
			return err
		}
		saved, err = s.deps.Profiles.Save(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	v := toProfileView(saved, rules)
	return &v, nil
}

func (s *ProgressionApplicationService) withUserLock(ctx context.Context, userID string, fn func() error) error {
	unlock, err := s.deps.Locker.Lock(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to lock user %s: %w", userID, err)
	}
	defer unlock()
	return fn()
}

func (s *ProgressionApplicationService) loadOrCreate(ctx context.Context, userID string) (domain.UserProfile, error) {
	p, err := s.deps.Profiles.Load(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return s.deps.Profiles.Create(ctx, domain.NewUserProfile(userID))
	}
	return p, err
}

// publish 发送事件，推送失败不影响已提交的档案变更
func (s *ProgressionApplicationService) publish(ctx context.Context, send func() error) {
	if s.deps.Publisher == nil || !s.deps.PushEnabled() {
		return
	}
	if err := send(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Failed to publish progression event.")
		trace.SpanFromContext(ctx).RecordError(err)
	}
}

func recordSpanError(span trace.Span, err *error) {
	if *err == nil {
		return
	}
	span.RecordError(*err)
	span.SetStatus(codes.Error, apperr.CodeOf(*err))
}
