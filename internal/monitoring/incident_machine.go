package monitoring

import (
	"time"

	"coldwatch/internal/models"
)

// 累计告警次数达到以下阈值时事件升级
const (
	EscalationLevel2Threshold = 4 // 第4次告警升至二级
	EscalationLevel3Threshold = 7 // 第7次告警升至三级
	MaxEscalationLevel        = 3
)

// CanTransition 检查事件状态流转是否合法
// Closed 为终态；Resolved 只能流转到 Closed
func CanTransition(from, to models.IncidentStatus) bool {
	switch from {
	case models.IncidentStatusOpen:
		return to == models.IncidentStatusAcknowledged ||
			to == models.IncidentStatusInvestigating ||
			to == models.IncidentStatusResolved
	case models.IncidentStatusAcknowledged:
		return to == models.IncidentStatusInvestigating ||
			to == models.IncidentStatusResolved
	case models.IncidentStatusInvestigating:
		return to == models.IncidentStatusAcknowledged ||
			to == models.IncidentStatusResolved
	case models.IncidentStatusResolved:
		return to == models.IncidentStatusClosed
	case models.IncidentStatusClosed:
		return false
	default:
		return false
	}
}

// CanAcknowledge 是否允许操作员确认
// 已确认、已解决、已关闭状态下确认请求均视为冲突
func CanAcknowledge(status models.IncidentStatus) bool {
	return status == models.IncidentStatusOpen || status == models.IncidentStatusInvestigating
}

// EscalationLevelFor 根据累计告警次数计算升级级别
// 级别在事件存续期间只升不降
func EscalationLevelFor(alertCount, currentLevel int) int {
	level := currentLevel
	if alertCount >= EscalationLevel3Threshold && level < 3 {
		level = 3
	} else if alertCount >= EscalationLevel2Threshold && level < 2 {
		level = 2
	}
	return level
}

// IsStale 设备是否超过离线判定窗口未上报
// 窗口取上报间隔的2倍，避免单次延迟误判
func IsStale(lastReadingAt *time.Time, intervalMinutes int, now time.Time) bool {
	if lastReadingAt == nil {
		return false
	}
	if intervalMinutes <= 0 {
		intervalMinutes = 20
	}
	return now.Sub(*lastReadingAt) > time.Duration(intervalMinutes)*time.Minute*2
}
