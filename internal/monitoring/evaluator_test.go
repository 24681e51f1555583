package monitoring

import (
	"testing"

	"coldwatch/internal/models"
)

var testPolicy = ThresholdPolicy{NormalMin: 2, NormalMax: 8, CriticalMin: 0, CriticalMax: 10}

// TestEvaluateTemperature 测试温度评估结果
func TestEvaluateTemperature(t *testing.T) {
	normal := EvaluateTemperature(testPolicy, &models.Reading{Temperature: 5})
	if normal.IsAbnormal {
		t.Error("正常温度不应判定为异常")
	}

	critical := EvaluateTemperature(testPolicy, &models.Reading{Temperature: 9})
	if !critical.IsAbnormal {
		t.Fatal("超出正常区间应判定为异常")
	}
	if critical.Severity != models.AlertSeverityCritical {
		t.Errorf("严重区间期望 critical 级别，实际 %s", critical.Severity)
	}
	if critical.AlertType != models.AlertTypeHighTemperature {
		t.Errorf("偏高期望 high_temperature 类型，实际 %s", critical.AlertType)
	}

	severe := EvaluateTemperature(testPolicy, &models.Reading{Temperature: -5})
	if severe.Severity != models.AlertSeveritySevere {
		t.Errorf("超出严重阈值期望 severe 级别，实际 %s", severe.Severity)
	}
	if severe.AlertType != models.AlertTypeLowTemperature {
		t.Errorf("偏低期望 low_temperature 类型，实际 %s", severe.AlertType)
	}
}

// TestEvaluatePowerTransition 测试供电状态变化信号
func TestEvaluatePowerTransition(t *testing.T) {
	line := &models.Reading{DeviceID: "dev-1", PowerStatus: models.PowerStatusLine}
	battery := &models.Reading{DeviceID: "dev-1", PowerStatus: models.PowerStatusBattery, BatteryLevel: 80}

	// 第一条读数没有前序，不产生信号
	if signal := EvaluatePowerTransition(battery, nil); signal != nil {
		t.Error("首条读数不应产生供电信号")
	}

	// 状态未变化
	if signal := EvaluatePowerTransition(line, line); signal != nil {
		t.Error("供电状态未变化不应产生信号")
	}

	// 市电 -> 电池：断电
	failure := EvaluatePowerTransition(battery, line)
	if failure == nil {
		t.Fatal("切换到电池供电应产生断电信号")
	}
	if failure.AlertType != models.AlertTypePowerFailure || failure.Severity != models.AlertSeveritySevere {
		t.Errorf("断电期望 power_failure/severe，实际 %s/%s", failure.AlertType, failure.Severity)
	}

	// 电池 -> 市电：恢复
	restored := EvaluatePowerTransition(line, battery)
	if restored == nil {
		t.Fatal("切回市电应产生恢复信号")
	}
	if restored.AlertType != models.AlertTypePowerRestored || restored.Severity != models.AlertSeverityInfo {
		t.Errorf("恢复期望 power_restored/info，实际 %s/%s", restored.AlertType, restored.Severity)
	}
}

// TestEvaluateBattery 低电量告警只在电池供电时产生
func TestEvaluateBattery(t *testing.T) {
	onLine := &models.Reading{DeviceID: "dev-1", PowerStatus: models.PowerStatusLine, BatteryLevel: 10}
	if signal := EvaluateBattery(onLine); signal != nil {
		t.Error("市电供电时不应产生低电量告警")
	}

	enough := &models.Reading{DeviceID: "dev-1", PowerStatus: models.PowerStatusBattery, BatteryLevel: 20}
	if signal := EvaluateBattery(enough); signal != nil {
		t.Error("电量恰好20%不应产生低电量告警")
	}

	low := &models.Reading{DeviceID: "dev-1", PowerStatus: models.PowerStatusBattery, BatteryLevel: 19}
	signal := EvaluateBattery(low)
	if signal == nil {
		t.Fatal("电池供电且电量不足应产生告警")
	}
	if signal.AlertType != models.AlertTypeLowBattery || signal.Severity != models.AlertSeverityWarning {
		t.Errorf("低电量期望 low_battery/warning，实际 %s/%s", signal.AlertType, signal.Severity)
	}
}

// TestValidateReading 测试读数入库前校验
func TestValidateReading(t *testing.T) {
	valid := &models.Reading{
		DeviceID:     "dev-1",
		Temperature:  5,
		Humidity:     60,
		BatteryLevel: 100,
		PowerStatus:  models.PowerStatusLine,
	}
	if err := ValidateReading(valid); err != nil {
		t.Errorf("合法读数不应校验失败: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r *models.Reading)
	}{
		{"缺少设备标识", func(r *models.Reading) { r.DeviceID = "" }},
		{"温度超上限", func(r *models.Reading) { r.Temperature = 51 }},
		{"温度超下限", func(r *models.Reading) { r.Temperature = -11 }},
		{"湿度越界", func(r *models.Reading) { r.Humidity = 101 }},
		{"电量越界", func(r *models.Reading) { r.BatteryLevel = -1 }},
		{"非法供电状态", func(r *models.Reading) { r.PowerStatus = "solar" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := *valid
			tt.mutate(&r)
			if err := ValidateReading(&r); err == nil {
				t.Error("期望校验失败，实际通过")
			}
		})
	}
}
