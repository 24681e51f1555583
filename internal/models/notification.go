package models

import "time"

// NotificationChannel 通知通道枚举
type NotificationChannel string

const (
	NotificationChannelEmail    NotificationChannel = "email"    // 邮件
	NotificationChannelTelegram NotificationChannel = "telegram" // Telegram
	NotificationChannelSMS      NotificationChannel = "sms"      // 短信（预留，暂无服务商）
)

// NotificationStatus 通知状态枚举
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"   // 待发送
	NotificationStatusSent      NotificationStatus = "sent"      // 已发送
	NotificationStatusFailed    NotificationStatus = "failed"    // 发送失败（重试耗尽）
	NotificationStatusDelivered NotificationStatus = "delivered" // 已送达
	NotificationStatusRead      NotificationStatus = "read"      // 已读
	NotificationStatusCancelled NotificationStatus = "cancelled" // 已取消
)

// Notification 表示向一名操作员通过一个通道的一次投递
type Notification struct {
	ID           uint                `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt    time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
	OperatorID   uint                `json:"operator_id" gorm:"not null;index"`      // 接收操作员
	AlertID      *uint               `json:"alert_id,omitempty"`                     // 关联告警（可选）
	IncidentID   *uint               `json:"incident_id,omitempty" gorm:"index"`     // 关联事件（可选）
	Channel      NotificationChannel `json:"channel" gorm:"size:20;not null"`        // 投递通道
	Message      string              `json:"message" gorm:"type:text"`               // 消息内容
	Status       NotificationStatus  `json:"status" gorm:"size:20;not null;index"`   // 投递状态
	RetryCount   int                 `json:"retry_count" gorm:"default:0"`           // 已重试次数
	SentAt       *time.Time          `json:"sent_at,omitempty"`                      // 发送时间
	DeliveredAt  *time.Time          `json:"delivered_at,omitempty"`                 // 送达时间
	ReadAt       *time.Time          `json:"read_at,omitempty"`                      // 已读时间
	ErrorMessage string              `json:"error_message,omitempty" gorm:"type:text"` // 最近一次失败原因
}
