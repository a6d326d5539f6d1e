package infrastructure

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inkverse/internal/service/progression/domain"
)

const mysqlDuplicateEntry = 1062

// GormProfileRepository 是 domain.ProfileRepository 的 GORM 实现
type GormProfileRepository struct {
	db *gorm.DB
}

func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) Load(ctx context.Context, userID string) (domain.UserProfile, error) {
	var model UserProfileModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserProfile{}, domain.ErrProfileNotFound
		}
		return domain.UserProfile{}, pkgerrors.Wrapf(err, "load profile %s", userID)
	}
	return ToDomainProfile(&model), nil
}

// Create 用 INSERT IGNORE 语义插入初始档案，并发创建时以先到者为准
func (r *GormProfileRepository) Create(ctx context.Context, p domain.UserProfile) (domain.UserProfile, error) {
	model := FromDomainProfile(p)
	model.Version = 1
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(model).Error
	if err != nil {
		return domain.UserProfile{}, pkgerrors.Wrapf(err, "create profile %s", p.UserID)
	}
	return r.Load(ctx, p.UserID)
}

func (r *GormProfileRepository) Save(ctx context.Context, p domain.UserProfile) (domain.UserProfile, error) {
	saved, err := saveProfile(r.db.WithContext(ctx), p)
	if err != nil && !errors.Is(err, domain.ErrProfileChanged) {
		return domain.UserProfile{}, pkgerrors.Wrapf(err, "save profile %s", p.UserID)
	}
	return saved, err
}

// saveProfile 按版本号条件更新，版本号不匹配说明期间有其它写入
func saveProfile(tx *gorm.DB, p domain.UserProfile) (domain.UserProfile, error) {
	res := tx.Model(&UserProfileModel{}).
		Where("user_id = ? AND version = ?", p.UserID, p.Version).
		Updates(map[string]interface{}{
			"coin_balance":           p.CoinBalance,
			"level":                  p.Level,
			"exp":                    p.Exp,
			"last_daily_login":       p.LastDailyLogin,
			"consecutive_login_days": p.ConsecutiveLoginDays,
			"level_system":           p.LevelSystem,
			"version":                gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return domain.UserProfile{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.UserProfile{}, domain.ErrProfileChanged
	}
	p.Version++
	return p, nil
}

// GormChapterRepository 是 port.ChapterRepository 的 GORM 实现
type GormChapterRepository struct {
	db *gorm.DB
}

func NewGormChapterRepository(db *gorm.DB) *GormChapterRepository {
	return &GormChapterRepository{db: db}
}

func (r *GormChapterRepository) ListChapters(ctx context.Context, comicID string) ([]domain.Chapter, error) {
	var models []ChapterModel
	err := r.db.WithContext(ctx).Where("comic_id = ?", comicID).Order("number ASC").Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "list chapters of %s", comicID)
	}
	chapters := make([]domain.Chapter, 0, len(models))
	for i := range models {
		chapters = append(chapters, ToDomainChapter(&models[i]))
	}
	return chapters, nil
}

func (r *GormChapterRepository) GetUnlockedSet(ctx context.Context, userID, comicID string) (domain.UnlockedSet, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&ChapterUnlockModel{}).
		Where("user_id = ? AND comic_id = ?", userID, comicID).
		Pluck("chapter_id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "load unlocked chapters of %s/%s", userID, comicID)
	}
	return domain.NewUnlockedSet(ids...), nil
}

func (r *GormChapterRepository) HasFullPurchase(ctx context.Context, userID, comicID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ComicPurchaseModel{}).
		Where("user_id = ? AND comic_id = ?", userID, comicID).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrapf(err, "check full purchase of %s/%s", userID, comicID)
	}
	return count > 0, nil
}

// CommitUnlock 先插入解锁记录再扣减金币，唯一索引冲突时整个事务回滚
func (r *GormChapterRepository) CommitUnlock(ctx context.Context, p domain.UserProfile, chapter domain.Chapter) (domain.UserProfile, error) {
	var saved domain.UserProfile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unlock := &ChapterUnlockModel{
			UserID:     p.UserID,
			ComicID:    chapter.ComicID,
			ChapterID:  chapter.ID,
			CoinsSpent: chapter.Price,
		}
		if err := tx.Create(unlock).Error; err != nil {
			if isDuplicateEntry(err) {
				return domain.ErrAlreadyUnlocked
			}
			return err
		}
		var err error
		saved, err = saveProfile(tx, p)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyUnlocked) || errors.Is(err, domain.ErrProfileChanged) {
			return domain.UserProfile{}, err
		}
		return domain.UserProfile{}, pkgerrors.Wrapf(err, "commit unlock of %s for %s", chapter.ID, p.UserID)
	}
	return saved, nil
}

// isDuplicateEntry 同时识别 TranslateError 翻译后的错误和原始的 MySQL 1062
func isDuplicateEntry(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
