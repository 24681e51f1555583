package models

import (
	"time"

	"gorm.io/gorm"
)

// DeviceStatus 定义设备状态
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"  // 在线
	DeviceStatusOffline DeviceStatus = "offline" // 离线（超过上报周期未收到读数）
	DeviceStatusWarning DeviceStatus = "warning" // 告警中
	DeviceStatusError   DeviceStatus = "error"   // 故障
)

// Device 表示冷库温度监控设备
// swagger:model
type Device struct {
	ID              uint         `json:"id" gorm:"primarykey,autoIncrement"`             // 设备ID
	CreatedAt       time.Time    `json:"created_at"`                                     // 创建时间
	UpdatedAt       time.Time    `json:"updated_at"`                                     // 更新时间
	DeviceID        string       `json:"device_id" gorm:"size:100;not null;uniqueIndex"` // 设备唯一标识（传感器上报使用）
	Name            string       `json:"name" gorm:"size:100;not null"`                  // 设备名称
	Location        string       `json:"location" gorm:"size:200"`                       // 安装位置
	Status          DeviceStatus `json:"status" gorm:"size:20;not null"`                 // 设备状态
	ReadingInterval int          `json:"reading_interval" gorm:"default:20"`             // 上报间隔（分钟）
	LastReadingAt   *time.Time   `json:"last_reading_at,omitempty"`                      // 最后一次读数时间
	Description     string       `json:"description" gorm:"size:500"`                    // 设备描述
}

// BeforeCreate 创建前的钩子函数
func (d *Device) BeforeCreate(tx *gorm.DB) error {
	// 如果没有指定状态，默认为离线状态
	if d.Status == "" {
		d.Status = DeviceStatusOffline
	}
	return nil
}
