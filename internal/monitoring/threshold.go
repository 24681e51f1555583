package monitoring

import "coldwatch/internal/models"

// TempClass 温度分级
type TempClass int

const (
	TempNormal   TempClass = iota // 正常区间内
	TempCritical                  // 严重区间（正常区间外、严重阈值内）
	TempSevere                    // 危急（超出严重阈值）
)

// TempDirection 偏离方向
type TempDirection string

const (
	DirectionHigh TempDirection = "high" // 偏高
	DirectionLow  TempDirection = "low"  // 偏低
)

// ThresholdPolicy 温度阈值策略，由系统配置派生的纯值对象
// 区间关系：CriticalMin <= NormalMin < NormalMax <= CriticalMax
type ThresholdPolicy struct {
	NormalMin   float64
	NormalMax   float64
	CriticalMin float64
	CriticalMax float64
}

// PolicyFromSettings 从系统配置构造阈值策略
func PolicyFromSettings(s *models.SystemSettings) ThresholdPolicy {
	return ThresholdPolicy{
		NormalMin:   s.NormalTempMin,
		NormalMax:   s.NormalTempMax,
		CriticalMin: s.CriticalTempMin,
		CriticalMax: s.CriticalTempMax,
	}
}

// Classify 对温度分级，区间边界均为闭区间
// 恰好等于正常上下限判定为正常，恰好等于严重上下限判定为严重而非危急
func (p ThresholdPolicy) Classify(temperature float64) TempClass {
	if temperature >= p.NormalMin && temperature <= p.NormalMax {
		return TempNormal
	}
	if temperature >= p.CriticalMin && temperature <= p.CriticalMax {
		return TempCritical
	}
	return TempSevere
}

// Direction 判断温度偏离方向
func (p ThresholdPolicy) Direction(temperature float64) TempDirection {
	if temperature > p.NormalMax {
		return DirectionHigh
	}
	return DirectionLow
}

// String 分级的可读名称
func (c TempClass) String() string {
	switch c {
	case TempNormal:
		return "normal"
	case TempCritical:
		return "critical"
	case TempSevere:
		return "severe"
	default:
		return "unknown"
	}
}

// Severity 分级对应的告警级别
func (c TempClass) Severity() models.AlertSeverity {
	switch c {
	case TempCritical:
		return models.AlertSeverityCritical
	case TempSevere:
		return models.AlertSeveritySevere
	default:
		return models.AlertSeverityInfo
	}
}
