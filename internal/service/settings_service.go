package service

import (
	"fmt"
	"sync"
	"time"

	"coldwatch/internal/models"
	"coldwatch/internal/monitoring"
	"coldwatch/internal/repository"
)

// SettingsService 系统配置服务
// 配置读取走内存缓存，更新时显式失效，保证下一次读取拿到新值
type SettingsService struct {
	settingsRepo *repository.SettingsRepository

	mutex  sync.RWMutex
	cached *models.SystemSettings
}

func NewSettingsService(settingsRepo *repository.SettingsRepository) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
	}
}

// Get 获取系统配置（缓存优先）
func (s *SettingsService) Get() (*models.SystemSettings, error) {
	s.mutex.RLock()
	if s.cached != nil {
		settings := *s.cached
		s.mutex.RUnlock()
		return &settings, nil
	}
	s.mutex.RUnlock()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	// 双重检查，避免并发回源
	if s.cached != nil {
		settings := *s.cached
		return &settings, nil
	}

	settings, err := s.settingsRepo.Get()
	if err != nil {
		return nil, err
	}
	s.cached = settings

	copied := *settings
	return &copied, nil
}

// Update 校验并保存系统配置，保存成功后失效缓存
func (s *SettingsService) Update(settings *models.SystemSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	if err := s.settingsRepo.Update(settings); err != nil {
		return err
	}

	// 显式失效，下一次读取回源
	s.mutex.Lock()
	s.cached = nil
	s.mutex.Unlock()

	return nil
}

// Invalidate 手动失效缓存
func (s *SettingsService) Invalidate() {
	s.mutex.Lock()
	s.cached = nil
	s.mutex.Unlock()
}

// CurrentPolicy 获取当前温度阈值策略
func (s *SettingsService) CurrentPolicy() (monitoring.ThresholdPolicy, error) {
	settings, err := s.Get()
	if err != nil {
		return monitoring.ThresholdPolicy{}, err
	}
	return monitoring.PolicyFromSettings(settings), nil
}

// AlertResetWindow 获取告警抑制窗口
func (s *SettingsService) AlertResetWindow() (time.Duration, error) {
	settings, err := s.Get()
	if err != nil {
		return 0, err
	}
	return time.Duration(settings.AlertResetTime) * time.Minute, nil
}
