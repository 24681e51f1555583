package repository

import (
	"errors"

	"coldwatch/internal/models"

	"gorm.io/gorm"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get 获取系统配置（单行记录），不存在时创建默认配置
func (r *SettingsRepository) Get() (*models.SystemSettings, error) {
	var settings models.SystemSettings
	err := r.db.First(&settings, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 首次访问时写入默认配置
		settings = models.SystemSettings{
			ID:              1,
			NormalTempMin:   2,
			NormalTempMax:   8,
			CriticalTempMin: 0,
			CriticalTempMax: 10,
			ReadingInterval: 20,
			AlertResetTime:  30,
			Require2FA:      true,
		}
		if err := r.db.Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update 保存系统配置
func (r *SettingsRepository) Update(settings *models.SystemSettings) error {
	settings.ID = 1
	return r.db.Save(settings).Error
}
