package monitoring

import "testing"

// TestClassifyBoundaries 测试阈值边界分级（边界为闭区间）
func TestClassifyBoundaries(t *testing.T) {
	policy := ThresholdPolicy{
		NormalMin:   2,
		NormalMax:   8,
		CriticalMin: 0,
		CriticalMax: 10,
	}

	tests := []struct {
		name        string
		temperature float64
		want        TempClass
	}{
		{"正常区间内", 5, TempNormal},
		{"恰好等于正常下限", 2, TempNormal},
		{"恰好等于正常上限", 8, TempNormal},
		{"高于正常上限", 8.1, TempCritical},
		{"低于正常下限", 1.9, TempCritical},
		{"恰好等于严重上限", 10, TempCritical},
		{"恰好等于严重下限", 0, TempCritical},
		{"超出严重上限", 10.1, TempSevere},
		{"低于严重下限", -0.1, TempSevere},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Classify(tt.temperature); got != tt.want {
				t.Errorf("Classify(%.1f) = %v, 期望 %v", tt.temperature, got, tt.want)
			}
		})
	}
}

// TestDirection 测试偏离方向判定
func TestDirection(t *testing.T) {
	policy := ThresholdPolicy{NormalMin: 2, NormalMax: 8, CriticalMin: 0, CriticalMax: 10}

	if got := policy.Direction(12); got != DirectionHigh {
		t.Errorf("Direction(12) = %v, 期望 high", got)
	}
	if got := policy.Direction(-3); got != DirectionLow {
		t.Errorf("Direction(-3) = %v, 期望 low", got)
	}
}
