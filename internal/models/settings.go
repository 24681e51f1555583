package models

import (
	"errors"
	"time"
)

// 温度合法取值范围（读数校验同样使用）
const (
	TemperatureMin = -10.0
	TemperatureMax = 50.0
)

// SystemSettings 系统配置（单行记录），保存温度阈值和监控参数
// 阈值关系：critical_min <= normal_min < normal_max <= critical_max
type SystemSettings struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	NormalTempMin   float64   `json:"normal_temp_min" gorm:"default:2"`    // 正常温度下限
	NormalTempMax   float64   `json:"normal_temp_max" gorm:"default:8"`    // 正常温度上限
	CriticalTempMin float64   `json:"critical_temp_min" gorm:"default:0"`  // 严重温度下限
	CriticalTempMax float64   `json:"critical_temp_max" gorm:"default:10"` // 严重温度上限
	ReadingInterval int       `json:"reading_interval" gorm:"default:20"`  // 读数上报间隔（分钟）
	AlertResetTime  int       `json:"alert_reset_time" gorm:"default:30"`  // 同类告警抑制窗口（分钟）
	Require2FA      bool      `json:"require_2fa" gorm:"default:true"`     // 是否强制双因素认证
}

// Validate 校验阈值配置的合法性，更新配置前必须通过
func (s *SystemSettings) Validate() error {
	if s.NormalTempMin >= s.NormalTempMax {
		return errors.New("正常温度下限必须小于上限")
	}
	if s.CriticalTempMin >= s.CriticalTempMax {
		return errors.New("严重温度下限必须小于上限")
	}
	if s.CriticalTempMin > s.NormalTempMin {
		return errors.New("严重温度下限不能高于正常温度下限")
	}
	if s.CriticalTempMax < s.NormalTempMax {
		return errors.New("严重温度上限不能低于正常温度上限")
	}
	if s.ReadingInterval <= 0 {
		return errors.New("读数上报间隔必须为正数")
	}
	if s.AlertResetTime <= 0 {
		return errors.New("告警抑制窗口必须为正数")
	}
	return nil
}
