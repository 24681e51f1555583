package repository

import (
	"time"

	"coldwatch/internal/models"

	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create 创建告警
func (r *AlertRepository) Create(alert *models.Alert) error {
	return r.db.Create(alert).Error
}

// GetByID 根据ID获取告警
func (r *AlertRepository) GetByID(id uint) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.First(&alert, id).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// Update 更新告警
func (r *AlertRepository) Update(alert *models.Alert) error {
	return r.db.Save(alert).Error
}

// LastOfType 获取设备指定类型的最近一条告警（去重窗口恢复使用）
func (r *AlertRepository) LastOfType(deviceID string, alertType models.AlertType) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.Where("device_id = ? AND type = ?", deviceID, alertType).
		Order("created_at DESC").First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// List 分页获取告警列表
func (r *AlertRepository) List(current, size int, filters map[string]interface{}) ([]models.Alert, int64, error) {
	var alerts []models.Alert
	var total int64

	query := r.db.Model(&models.Alert{})

	// 应用过滤条件
	for key, value := range filters {
		if value != nil && value != "" {
			query = query.Where(key+" = ?", value)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (current - 1) * size
	if err := query.Offset(offset).Limit(size).Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

// GetActive 获取所有未解决的告警
func (r *AlertRepository) GetActive() ([]models.Alert, error) {
	var alerts []models.Alert
	err := r.db.Where("resolved = ?", false).Order("created_at DESC").Find(&alerts).Error
	return alerts, err
}

// GetByDevice 获取设备的告警列表
func (r *AlertRepository) GetByDevice(deviceID string, limit int) ([]models.Alert, error) {
	var alerts []models.Alert
	query := r.db.Where("device_id = ?", deviceID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&alerts).Error
	return alerts, err
}

// CountSince 统计某时间之后的告警数量
func (r *AlertRepository) CountSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Alert{}).
		Where("created_at >= ?", since).Count(&count).Error
	return count, err
}
