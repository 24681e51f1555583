package monitoring

import (
	"errors"
	"fmt"

	"coldwatch/internal/models"

	"gorm.io/gorm"
)

// 电池电量低于该百分比且处于电池供电时产生低电量告警
const LowBatteryThreshold = 20.0

// ClassificationResult 单条读数的温度评估结果
type ClassificationResult struct {
	IsAbnormal bool                 `json:"is_abnormal"` // 是否异常
	Class      TempClass            `json:"-"`           // 温度分级
	Direction  TempDirection        `json:"direction"`   // 偏离方向
	Severity   models.AlertSeverity `json:"severity"`    // 告警级别
	AlertType  models.AlertType     `json:"alert_type"`  // 对应告警类型
}

// EvaluateTemperature 按阈值策略评估一条读数的温度，无副作用
func EvaluateTemperature(policy ThresholdPolicy, reading *models.Reading) ClassificationResult {
	class := policy.Classify(reading.Temperature)
	if class == TempNormal {
		return ClassificationResult{IsAbnormal: false, Class: TempNormal}
	}

	direction := policy.Direction(reading.Temperature)
	alertType := models.AlertTypeHighTemperature
	if direction == DirectionLow {
		alertType = models.AlertTypeLowTemperature
	}

	return ClassificationResult{
		IsAbnormal: true,
		Class:      class,
		Direction:  direction,
		Severity:   class.Severity(),
		AlertType:  alertType,
	}
}

// PowerSignal 供电状态变化信号
type PowerSignal struct {
	AlertType models.AlertType     // power_failure 或 power_restored
	Severity  models.AlertSeverity // 断电为危急，恢复为信息级
	Message   string
}

// EvaluatePowerTransition 对比前一条读数（按采样时间排序）评估供电状态变化
// 设备第一条读数没有前序读数，不产生信号
func EvaluatePowerTransition(reading, preceding *models.Reading) *PowerSignal {
	if preceding == nil {
		return nil
	}
	if preceding.PowerStatus == reading.PowerStatus {
		return nil
	}

	if reading.PowerStatus == models.PowerStatusBattery {
		return &PowerSignal{
			AlertType: models.AlertTypePowerFailure,
			Severity:  models.AlertSeveritySevere,
			Message: fmt.Sprintf("设备 %s 市电断电，切换至电池供电（电量 %.0f%%）",
				reading.DeviceID, reading.BatteryLevel),
		}
	}

	return &PowerSignal{
		AlertType: models.AlertTypePowerRestored,
		Severity:  models.AlertSeverityInfo,
		Message:   fmt.Sprintf("设备 %s 市电已恢复", reading.DeviceID),
	}
}

// EvaluateBattery 评估电池电量，仅在电池供电时告警
func EvaluateBattery(reading *models.Reading) *PowerSignal {
	if reading.PowerStatus != models.PowerStatusBattery {
		return nil
	}
	if reading.BatteryLevel >= LowBatteryThreshold {
		return nil
	}
	return &PowerSignal{
		AlertType: models.AlertTypeLowBattery,
		Severity:  models.AlertSeverityWarning,
		Message: fmt.Sprintf("设备 %s 电池电量不足：%.0f%%",
			reading.DeviceID, reading.BatteryLevel),
	}
}

// ValidateReading 校验读数字段取值范围，不合法的读数在入库前拒绝
func ValidateReading(reading *models.Reading) error {
	if reading.DeviceID == "" {
		return errors.New("设备标识不能为空")
	}
	if reading.Temperature < models.TemperatureMin || reading.Temperature > models.TemperatureMax {
		return fmt.Errorf("温度超出合法范围 [%.0f, %.0f]", models.TemperatureMin, models.TemperatureMax)
	}
	if reading.Humidity < 0 || reading.Humidity > 100 {
		return errors.New("湿度必须在 0-100 之间")
	}
	if reading.BatteryLevel < 0 || reading.BatteryLevel > 100 {
		return errors.New("电池电量必须在 0-100 之间")
	}
	switch reading.PowerStatus {
	case models.PowerStatusLine, models.PowerStatusBattery:
	default:
		return errors.New("无效的供电状态")
	}
	return nil
}

// IsNotFound 查询前序读数时区分"没有前序读数"和真正的错误
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
