package models

import "time"

// PowerStatus 供电状态
type PowerStatus string

const (
	PowerStatusLine    PowerStatus = "line"    // 市电供电
	PowerStatusBattery PowerStatus = "battery" // 电池供电
)

// Reading 表示设备的一条遥测读数，写入后不再修改
// swagger:model
type Reading struct {
	ID           uint        `json:"id" gorm:"primarykey,autoIncrement"`                     // 读数ID
	CreatedAt    time.Time   `json:"created_at"`                                             // 入库时间
	DeviceID     string      `json:"device_id" gorm:"size:100;not null;index:idx_dev_ts"`    // 设备唯一标识
	Temperature  float64     `json:"temperature" gorm:"not null"`                            // 温度（摄氏度）
	Humidity     float64     `json:"humidity" gorm:"not null"`                               // 湿度（0-100%）
	PowerStatus  PowerStatus `json:"power_status" gorm:"size:20;not null;default:'line'"`    // 供电状态
	BatteryLevel float64     `json:"battery_level" gorm:"default:100"`                       // 电池电量（0-100%）
	Timestamp    time.Time   `json:"timestamp" gorm:"not null;index:idx_dev_ts;index"`       // 采样时间（允许乱序到达）
}
