package repository

import (
	"time"

	"coldwatch/internal/models"

	"gorm.io/gorm"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create 创建设备
func (r *DeviceRepository) Create(device *models.Device) error {
	return r.db.Create(device).Error
}

// GetByID 根据主键获取设备
func (r *DeviceRepository) GetByID(id uint) (*models.Device, error) {
	var device models.Device
	err := r.db.First(&device, id).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// GetByDeviceID 根据设备唯一标识获取设备
func (r *DeviceRepository) GetByDeviceID(deviceID string) (*models.Device, error) {
	var device models.Device
	err := r.db.Where("device_id = ?", deviceID).First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// Update 更新设备信息
func (r *DeviceRepository) Update(device *models.Device) error {
	return r.db.Save(device).Error
}

// Touch 更新设备状态和最后读数时间
func (r *DeviceRepository) Touch(deviceID string, status models.DeviceStatus, lastReading time.Time) error {
	return r.db.Model(&models.Device{}).
		Where("device_id = ?", deviceID).
		Updates(map[string]interface{}{
			"status":          status,
			"last_reading_at": lastReading,
		}).Error
}

// UpdateStatus 更新设备状态
func (r *DeviceRepository) UpdateStatus(deviceID string, status models.DeviceStatus) error {
	return r.db.Model(&models.Device{}).
		Where("device_id = ?", deviceID).
		Update("status", status).Error
}

// List 分页获取设备列表
func (r *DeviceRepository) List(current, size int, filters map[string]interface{}) ([]models.Device, int64, error) {
	var devices []models.Device
	var total int64

	query := r.db.Model(&models.Device{})

	// 应用过滤条件
	for key, value := range filters {
		if value != nil && value != "" {
			switch key {
			case "name":
				query = query.Where("name LIKE ?", "%"+value.(string)+"%")
			case "location":
				query = query.Where("location LIKE ?", "%"+value.(string)+"%")
			default:
				query = query.Where(key+" = ?", value)
			}
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (current - 1) * size
	if err := query.Offset(offset).Limit(size).Order("created_at DESC").Find(&devices).Error; err != nil {
		return nil, 0, err
	}

	return devices, total, nil
}

// ListAll 获取全部设备（离线巡检使用）
func (r *DeviceRepository) ListAll() ([]models.Device, error) {
	var devices []models.Device
	err := r.db.Find(&devices).Error
	return devices, err
}

// Count 统计设备数量
func (r *DeviceRepository) Count(filters map[string]interface{}) (int64, error) {
	var count int64
	query := r.db.Model(&models.Device{})

	for key, value := range filters {
		if value != nil && value != "" {
			query = query.Where(key+" = ?", value)
		}
	}

	err := query.Count(&count).Error
	return count, err
}
