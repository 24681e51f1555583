package models

import "time"

// IncidentStatus 事件状态枚举
type IncidentStatus string

const (
	IncidentStatusOpen          IncidentStatus = "open"          // 未处理
	IncidentStatusAcknowledged  IncidentStatus = "acknowledged"  // 已确认
	IncidentStatusInvestigating IncidentStatus = "investigating" // 排查中
	IncidentStatusResolved      IncidentStatus = "resolved"      // 已解决
	IncidentStatusClosed        IncidentStatus = "closed"        // 已关闭（终态）
)

// ActiveIncidentStatuses 视为"进行中"的状态集合
// 不变量：同一设备同一时刻最多存在一个进行中的事件
var ActiveIncidentStatuses = []IncidentStatus{
	IncidentStatusOpen,
	IncidentStatusAcknowledged,
	IncidentStatusInvestigating,
}

// IsActive 事件是否处于进行中状态
func (s IncidentStatus) IsActive() bool {
	switch s {
	case IncidentStatusOpen, IncidentStatusAcknowledged, IncidentStatusInvestigating:
		return true
	default:
		return false
	}
}

// Incident 表示一次连续异常期间内同一设备告警的聚合事件
type Incident struct {
	ID                     uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt              time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt              time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeviceID               string         `json:"device_id" gorm:"size:100;not null;index:idx_incident_dev_status"`     // 所属设备
	AlertID                uint           `json:"alert_id" gorm:"not null"`                                             // 触发事件的首个告警
	Description            string         `json:"description" gorm:"type:text"`                                         // 事件描述
	Status                 IncidentStatus `json:"status" gorm:"size:20;not null;index:idx_incident_dev_status;index"`   // 事件状态
	AlertCount             int            `json:"alert_count" gorm:"default:1"`                                         // 累计告警次数（只增不减）
	CurrentEscalationLevel int            `json:"current_escalation_level" gorm:"default:1"`                            // 当前升级级别（1-3，只升不降）
	StartTime              time.Time      `json:"start_time" gorm:"not null;index"`                                     // 开始时间
	EndTime                *time.Time     `json:"end_time,omitempty"`                                                   // 结束时间
	AssignedToID           *uint          `json:"assigned_to_id,omitempty"`                                             // 确认处理的操作员
	ResolvedByID           *uint          `json:"resolved_by_id,omitempty"`                                             // 解决事件的操作员（自动解决时为空）
}

// TimelineEventType 时间线事件类型枚举
type TimelineEventType string

const (
	TimelineEventAlertCreated      TimelineEventType = "alert_created"      // 告警产生
	TimelineEventNotificationSent  TimelineEventType = "notification_sent"  // 通知已发送
	TimelineEventCommentAdded      TimelineEventType = "comment_added"      // 添加备注
	TimelineEventStatusChanged     TimelineEventType = "status_changed"     // 状态变更
	TimelineEventEscalationChanged TimelineEventType = "escalation_changed" // 升级级别变更
)

// IncidentTimelineEvent 事件时间线记录，只追加不修改，作为审计依据
type IncidentTimelineEvent struct {
	ID          uint              `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`
	IncidentID  uint              `json:"incident_id" gorm:"not null;index"`  // 所属事件
	EventType   TimelineEventType `json:"event_type" gorm:"size:30;not null"` // 事件类型
	Description string            `json:"description" gorm:"type:text"`       // 描述
	Temperature *float64          `json:"temperature,omitempty"`              // 当时温度快照（可选）
	OperatorID  *uint             `json:"operator_id,omitempty"`              // 相关操作员（可选）
	Metadata    string            `json:"metadata,omitempty" gorm:"type:text"` // 结构化元数据（JSON格式）
}

// IncidentComment 操作员对事件的处理备注
type IncidentComment struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	IncidentID  uint      `json:"incident_id" gorm:"not null;index"` // 所属事件
	OperatorID  uint      `json:"operator_id" gorm:"not null"`       // 备注操作员
	Comment     string    `json:"comment" gorm:"type:text;not null"` // 备注内容
	ActionTaken bool      `json:"action_taken" gorm:"default:false"` // 是否已采取处理措施（触发确认流转）
}
