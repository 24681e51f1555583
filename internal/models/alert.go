package models

import "time"

// AlertType 告警类型枚举
type AlertType string

const (
	AlertTypeHighTemperature AlertType = "high_temperature" // 温度过高
	AlertTypeLowTemperature  AlertType = "low_temperature"  // 温度过低
	AlertTypePowerFailure    AlertType = "power_failure"    // 市电断电
	AlertTypePowerRestored   AlertType = "power_restored"   // 市电恢复
	AlertTypeLowBattery      AlertType = "low_battery"      // 电池电量低
	AlertTypeConnectionLost  AlertType = "connection_lost"  // 设备失联
)

// AlertSeverity 告警严重级别枚举
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "info"     // 信息（仅记录和通知，不产生事件）
	AlertSeverityWarning  AlertSeverity = "warning"  // 警告
	AlertSeverityCritical AlertSeverity = "critical" // 严重
	AlertSeveritySevere   AlertSeverity = "severe"   // 危急
)

// Alert 告警数据模型，由单条异常读数派生
// 类型和级别在创建后不再变化，只允许更新 resolved/resolved_at 字段
type Alert struct {
	ID           uint          `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt    time.Time     `json:"created_at" gorm:"autoCreateTime;index:idx_alert_type_time"`
	Type         AlertType     `json:"type" gorm:"size:30;not null;index:idx_alert_type_time"` // 告警类型
	Severity     AlertSeverity `json:"severity" gorm:"size:20;not null"`                       // 严重级别
	DeviceID     string        `json:"device_id" gorm:"size:100;not null;index"`               // 触发设备
	ReadingID    *uint         `json:"reading_id,omitempty"`                                   // 触发读数（失联告警没有读数）
	Message      string        `json:"message" gorm:"type:text"`                               // 告警消息
	Resolved     bool          `json:"resolved" gorm:"default:false;index"`                    // 是否已解决
	ResolvedAt   *time.Time    `json:"resolved_at,omitempty"`                                  // 解决时间
	ResolvedByID *uint         `json:"resolved_by_id,omitempty"`                               // 解决人（操作员ID）
}
