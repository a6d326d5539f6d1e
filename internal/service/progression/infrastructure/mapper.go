package infrastructure

import (
	"inkverse/internal/service/progression/domain"
)

func ToDomainProfile(model *UserProfileModel) domain.UserProfile {
	return domain.UserProfile{
		UserID:               model.UserID,
		CoinBalance:          model.CoinBalance,
		Level:                model.Level,
		Exp:                  model.Exp,
		LastDailyLogin:       model.LastDailyLogin,
		ConsecutiveLoginDays: model.ConsecutiveLoginDays,
		LevelSystem:          model.LevelSystem,
		Version:              model.Version,
	}
}

func FromDomainProfile(p domain.UserProfile) *UserProfileModel {
	return &UserProfileModel{
		UserID:               p.UserID,
		CoinBalance:          p.CoinBalance,
		Level:                p.Level,
		Exp:                  p.Exp,
		LastDailyLogin:       p.LastDailyLogin,
		ConsecutiveLoginDays: p.ConsecutiveLoginDays,
		LevelSystem:          p.LevelSystem,
		Version:              p.Version,
	}
}

func ToDomainChapter(model *ChapterModel) domain.Chapter {
	return domain.Chapter{
		ID:      model.ID,
		ComicID: model.ComicID,
		Number:  model.Number,
		Price:   model.Price,
	}
}
