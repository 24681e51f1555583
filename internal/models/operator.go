package models

import "time"

// 操作员优先级（升级层级）
const (
	OperatorPriorityPrimary   = 1 // 一级（首先通知）
	OperatorPrioritySecondary = 2 // 二级
	OperatorPriorityTertiary  = 3 // 三级
)

// Operator 值班操作员，优先级决定事件升级到哪一级时通知
type Operator struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	Name            string    `json:"name" gorm:"size:100;not null"`              // 姓名
	Priority        int       `json:"priority" gorm:"not null;default:1;index"`   // 优先级（1-3）
	IsActive        bool      `json:"is_active" gorm:"default:true;index"`        // 是否在值
	Email           string    `json:"email" gorm:"size:100"`                      // 邮箱地址
	TelegramID      string    `json:"telegram_id" gorm:"size:100"`                // Telegram chat id
	Phone           string    `json:"phone" gorm:"size:50"`                       // 手机号（短信通道预留）
	EmailEnabled    bool      `json:"email_enabled" gorm:"default:true"`          // 启用邮件通知
	TelegramEnabled bool      `json:"telegram_enabled" gorm:"default:true"`       // 启用Telegram通知
	UserID          *uint     `json:"user_id,omitempty" gorm:"index"`             // 关联的登录账号
}

// AddressFor 返回操作员在指定通道上的投递地址
func (o *Operator) AddressFor(channel NotificationChannel) string {
	switch channel {
	case NotificationChannelEmail:
		return o.Email
	case NotificationChannelTelegram:
		return o.TelegramID
	case NotificationChannelSMS:
		return o.Phone
	default:
		return ""
	}
}

// NotificationChannels 根据偏好和联系方式解析可用的通知通道
func (o *Operator) NotificationChannels() []NotificationChannel {
	var channels []NotificationChannel
	if o.EmailEnabled && o.Email != "" {
		channels = append(channels, NotificationChannelEmail)
	}
	if o.TelegramEnabled && o.TelegramID != "" {
		channels = append(channels, NotificationChannelTelegram)
	}
	return channels
}
