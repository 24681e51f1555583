package repository

import (
	"time"

	"coldwatch/internal/models"

	"gorm.io/gorm"
)

type ReadingRepository struct {
	db *gorm.DB
}

func NewReadingRepository(db *gorm.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// TemperatureStats 时间段内的温度聚合统计
type TemperatureStats struct {
	MinTemperature float64 `json:"min_temperature"` // 最低温度
	MaxTemperature float64 `json:"max_temperature"` // 最高温度
	AvgTemperature float64 `json:"avg_temperature"` // 平均温度
	Count          int64   `json:"count"`           // 读数条数
}

// Create 写入一条读数
func (r *ReadingRepository) Create(reading *models.Reading) error {
	return r.db.Create(reading).Error
}

// GetByID 根据ID获取读数
func (r *ReadingRepository) GetByID(id uint) (*models.Reading, error) {
	var reading models.Reading
	err := r.db.First(&reading, id).Error
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// Latest 获取设备按采样时间最新的一条读数
func (r *ReadingRepository) Latest(deviceID string) (*models.Reading, error) {
	var reading models.Reading
	err := r.db.Where("device_id = ?", deviceID).
		Order("timestamp DESC").First(&reading).Error
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// PrecedingBy 获取设备在指定采样时间之前的最近一条读数
// 按采样时间排序而不是入库顺序，容忍乱序到达
func (r *ReadingRepository) PrecedingBy(deviceID string, ts time.Time) (*models.Reading, error) {
	var reading models.Reading
	err := r.db.Where("device_id = ? AND timestamp < ?", deviceID, ts).
		Order("timestamp DESC").First(&reading).Error
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// InRange 查询时间段内的读数，deviceID为空时不限设备
func (r *ReadingRepository) InRange(deviceID string, start, end time.Time, limit int) ([]models.Reading, error) {
	var readings []models.Reading
	query := r.db.Where("timestamp >= ? AND timestamp <= ?", start, end)
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("timestamp DESC").Find(&readings).Error
	return readings, err
}

// List 分页获取读数列表
func (r *ReadingRepository) List(current, size int, deviceID string) ([]models.Reading, int64, error) {
	var readings []models.Reading
	var total int64

	query := r.db.Model(&models.Reading{})
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (current - 1) * size
	if err := query.Offset(offset).Limit(size).Order("timestamp DESC").Find(&readings).Error; err != nil {
		return nil, 0, err
	}

	return readings, total, nil
}

// Stats 统计时间段内的温度极值与均值
func (r *ReadingRepository) Stats(deviceID string, start, end time.Time) (*TemperatureStats, error) {
	stats := &TemperatureStats{}
	query := r.db.Model(&models.Reading{}).
		Where("timestamp >= ? AND timestamp <= ?", start, end)
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	err := query.Select(
		"COALESCE(MIN(temperature), 0) AS min_temperature, " +
			"COALESCE(MAX(temperature), 0) AS max_temperature, " +
			"COALESCE(AVG(temperature), 0) AS avg_temperature, " +
			"COUNT(*) AS count").
		Scan(stats).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
