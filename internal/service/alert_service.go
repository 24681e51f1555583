package service

import (
	"errors"
	"time"

	"coldwatch/internal/models"
	"coldwatch/internal/repository"

	"gorm.io/gorm"
)

type AlertService struct {
	alertRepo    *repository.AlertRepository
	operatorRepo *repository.OperatorRepository
}

// AlertStats 告警统计数据
type AlertStats struct {
	TotalCount    int64 `json:"total_count"`    // 告警总数
	ActiveCount   int64 `json:"active_count"`   // 未解决告警数
	ResolvedCount int64 `json:"resolved_count"` // 已解决告警数
	Last24hCount  int64 `json:"last_24h_count"` // 最近24小时告警数
}

func NewAlertService(alertRepo *repository.AlertRepository, operatorRepo *repository.OperatorRepository) *AlertService {
	return &AlertService{
		alertRepo:    alertRepo,
		operatorRepo: operatorRepo,
	}
}

// Get 获取告警详情
func (s *AlertService) Get(id uint) (*models.Alert, error) {
	alert, err := s.alertRepo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("告警 %d 不存在", id)
	}
	return alert, err
}

// List 分页获取告警列表
func (s *AlertService) List(current, size int, alertType, deviceID string, resolved *bool) ([]models.Alert, int64, error) {
	filters := make(map[string]interface{})
	if alertType != "" {
		filters["type"] = alertType
	}
	if deviceID != "" {
		filters["device_id"] = deviceID
	}
	if resolved != nil {
		filters["resolved"] = *resolved
	}
	return s.alertRepo.List(current, size, filters)
}

// GetActive 获取所有未解决的告警
func (s *AlertService) GetActive() ([]models.Alert, error) {
	return s.alertRepo.GetActive()
}

// Resolve 操作员解决告警
// 告警的类型和级别创建后不变，只允许更新解决状态
func (s *AlertService) Resolve(id, operatorID uint) (*models.Alert, error) {
	alert, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	operator, err := s.operatorRepo.GetByID(operatorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("操作员 %d 不存在", operatorID)
	}
	if err != nil {
		return nil, err
	}

	if alert.Resolved {
		return nil, conflictError("告警已经被解决")
	}

	now := time.Now()
	alert.Resolved = true
	alert.ResolvedAt = &now
	alert.ResolvedByID = &operator.ID

	if err := s.alertRepo.Update(alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// Stats 统计告警情况
func (s *AlertService) Stats() (*AlertStats, error) {
	stats := &AlertStats{}

	var err error
	stats.TotalCount, err = s.count(nil)
	if err != nil {
		return nil, err
	}

	stats.ActiveCount, err = s.count(map[string]interface{}{"resolved": false})
	if err != nil {
		return nil, err
	}
	stats.ResolvedCount = stats.TotalCount - stats.ActiveCount

	stats.Last24hCount, err = s.alertRepo.CountSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *AlertService) count(filters map[string]interface{}) (int64, error) {
	_, total, err := s.alertRepo.List(1, 1, filters)
	return total, err
}
