package service

import (
	"errors"
	"fmt"
	"time"

	"coldwatch/internal/models"
	"coldwatch/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeviceService struct {
	deviceRepo *repository.DeviceRepository
}

// DeviceOverview 设备概览统计数据
type DeviceOverview struct {
	TotalCount   int64 `json:"total_count"`   // 设备总数
	OnlineCount  int64 `json:"online_count"`  // 在线设备数
	OfflineCount int64 `json:"offline_count"` // 离线设备数
	WarningCount int64 `json:"warning_count"` // 告警中设备数
}

func NewDeviceService(deviceRepo *repository.DeviceRepository) *DeviceService {
	return &DeviceService{
		deviceRepo: deviceRepo,
	}
}

// Register 显式注册设备
func (s *DeviceService) Register(device *models.Device) error {
	if device.DeviceID == "" {
		// 未提供唯一标识时自动生成
		device.DeviceID = uuid.NewString()
	}
	if device.Name == "" {
		return validationError("设备名称不能为空")
	}

	existing, _ := s.deviceRepo.GetByDeviceID(device.DeviceID)
	if existing != nil {
		return conflictError("设备标识 %s 已存在", device.DeviceID)
	}

	return s.deviceRepo.Create(device)
}

// Touch 按设备标识获取设备，不存在时自动创建（幂等）
// 同时把设备置为在线并刷新最后读数时间
func (s *DeviceService) Touch(deviceID string, readingTime time.Time) (*models.Device, error) {
	device, err := s.deviceRepo.GetByDeviceID(deviceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 首条读数自动建档
		device = &models.Device{
			DeviceID: deviceID,
			Name:     fmt.Sprintf("设备 %s", deviceID),
			Status:   models.DeviceStatusOnline,
		}
		if createErr := s.deviceRepo.Create(device); createErr != nil {
			// 并发首报可能已经建过档，回读到了就继续，读不到才算失败
			device, err = s.deviceRepo.GetByDeviceID(deviceID)
			if err != nil {
				return nil, createErr
			}
		}
	} else if err != nil {
		return nil, err
	}

	if err := s.deviceRepo.Touch(deviceID, models.DeviceStatusOnline, readingTime); err != nil {
		return nil, err
	}
	device.Status = models.DeviceStatusOnline
	device.LastReadingAt = &readingTime

	return device, nil
}

// MarkStatus 更新设备状态（离线巡检和告警流程使用）
func (s *DeviceService) MarkStatus(deviceID string, status models.DeviceStatus) error {
	return s.deviceRepo.UpdateStatus(deviceID, status)
}

// Get 获取设备详情
func (s *DeviceService) Get(id uint) (*models.Device, error) {
	device, err := s.deviceRepo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("设备不存在")
	}
	return device, err
}

// GetByDeviceID 根据设备唯一标识获取设备
func (s *DeviceService) GetByDeviceID(deviceID string) (*models.Device, error) {
	device, err := s.deviceRepo.GetByDeviceID(deviceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("设备 %s 不存在", deviceID)
	}
	return device, err
}

// List 分页获取设备列表
func (s *DeviceService) List(current, size int, filters map[string]interface{}) ([]models.Device, int64, error) {
	return s.deviceRepo.List(current, size, filters)
}

// ListAll 获取全部设备
func (s *DeviceService) ListAll() ([]models.Device, error) {
	return s.deviceRepo.ListAll()
}

// Update 更新设备信息
func (s *DeviceService) Update(device *models.Device) error {
	existing, err := s.deviceRepo.GetByID(device.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError("设备不存在")
	}
	if err != nil {
		return err
	}

	// 唯一标识不允许修改，事件和读数都引用它
	device.DeviceID = existing.DeviceID
	return s.deviceRepo.Update(device)
}

// Overview 统计设备概览
func (s *DeviceService) Overview() (*DeviceOverview, error) {
	overview := &DeviceOverview{}

	var err error
	overview.TotalCount, err = s.deviceRepo.Count(nil)
	if err != nil {
		return nil, err
	}

	overview.OnlineCount, err = s.deviceRepo.Count(map[string]interface{}{
		"status": models.DeviceStatusOnline,
	})
	if err != nil {
		return nil, err
	}

	overview.OfflineCount, err = s.deviceRepo.Count(map[string]interface{}{
		"status": models.DeviceStatusOffline,
	})
	if err != nil {
		return nil, err
	}

	overview.WarningCount, err = s.deviceRepo.Count(map[string]interface{}{
		"status": models.DeviceStatusWarning,
	})
	if err != nil {
		return nil, err
	}

	return overview, nil
}
