package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"coldwatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProcessReadingNormal 正常读数：落库、设备上线、无告警
func TestProcessReadingNormal(t *testing.T) {
	env := newTestEnv(t)
	env.createDevice(t, "dev-1")

	result := env.ingest(t, "dev-1", 5, time.Now())

	assert.False(t, result.Abnormal)
	assert.Empty(t, result.Alerts)
	assert.Nil(t, result.IncidentID)
	require.NotZero(t, result.Reading.ID)

	device, err := env.deviceService.GetByDeviceID("dev-1")
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusOnline, device.Status)
	require.NotNil(t, device.LastReadingAt)
}

// TestProcessReadingUnknownDevice 未注册设备的读数自动注册设备
func TestProcessReadingUnknownDevice(t *testing.T) {
	env := newTestEnv(t)

	result := env.ingest(t, "dev-new", 5, time.Now())
	require.NotZero(t, result.Reading.ID)

	device, err := env.deviceService.GetByDeviceID("dev-new")
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusOnline, device.Status)
}

// TestProcessReadingValidation 越界读数拒绝入库
func TestProcessReadingValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.monitoringService.ProcessReading(&ReadingInput{
		DeviceID:    "dev-1",
		Temperature: 60,
		Humidity:    50,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var count int64
	env.db.Model(&models.Reading{}).Count(&count)
	assert.Zero(t, count, "非法读数不应入库")
}

// TestAbnormalCreatesIncident 异常读数产生告警并创建事件
func TestAbnormalCreatesIncident(t *testing.T) {
	env := newTestEnv(t)
	env.createDevice(t, "dev-1")
	env.createOperator(t, "primary", models.OperatorPriorityPrimary)

	result := env.ingest(t, "dev-1", 12, time.Now())

	assert.True(t, result.Abnormal)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, models.AlertTypeHighTemperature, result.Alerts[0].Type)
	assert.Equal(t, models.AlertSeveritySevere, result.Alerts[0].Severity)
	require.NotNil(t, result.IncidentID)

	incident, err := env.incidentService.Get(*result.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusOpen, incident.Status)
	assert.Equal(t, 1, incident.AlertCount)
	assert.Equal(t, 1, incident.CurrentEscalationLevel)

	// 设备进入告警状态
	device, err := env.deviceService.GetByDeviceID("dev-1")
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusWarning, device.Status)

	// 时间线记录了告警产生
	timeline, err := env.incidentService.GetTimeline(incident.ID)
	require.NoError(t, err)
	require.NotEmpty(t, timeline)
	assert.Equal(t, models.TimelineEventAlertCreated, timeline[0].EventType)

	// 一级操作员收到一条待发送通知
	notifications, err := env.notificationRepo.GetByIncident(incident.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationStatusPending, notifications[0].Status)
	assert.Equal(t, models.NotificationChannelEmail, notifications[0].Channel)
}

// TestDedupSuppressesRepeatAlerts 抑制窗口内重复异常不再产生告警
func TestDedupSuppressesRepeatAlerts(t *testing.T) {
	env := newTestEnv(t)
	env.createDevice(t, "dev-1")

	first := env.ingest(t, "dev-1", 12, time.Now())
	require.Len(t, first.Alerts, 1)
	require.NotNil(t, first.IncidentID)

	second := env.ingest(t, "dev-1", 13, time.Now())
	assert.True(t, second.Abnormal)
	assert.Empty(t, second.Alerts, "窗口内的重复异常应被抑制")

	// 被抑制的读数不累加事件告警次数
	incident, err := env.incidentService.Get(*first.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, 1, incident.AlertCount)
}

// TestAutoResolveOnNormalReading 温度恢复后事件自动解决
func TestAutoResolveOnNormalReading(t *testing.T) {
	env := newTestEnv(t)
	env.createDevice(t, "dev-1")

	abnormal := env.ingest(t, "dev-1", 12, time.Now())
	require.NotNil(t, abnormal.IncidentID)

	env.ingest(t, "dev-1", 5, time.Now().Add(time.Minute))

	incident, err := env.incidentService.Get(*abnormal.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusResolved, incident.Status)
	require.NotNil(t, incident.EndTime)
	assert.Nil(t, incident.ResolvedByID, "自动解决没有操作员")

	// 恢复后抑制记录被清除，下一轮异常立即产生新告警新事件
	next := env.ingest(t, "dev-1", 12, time.Now().Add(2*time.Minute))
	require.Len(t, next.Alerts, 1)
	require.NotNil(t, next.IncidentID)
	assert.NotEqual(t, *abnormal.IncidentID, *next.IncidentID)
}

// TestPowerFailureAlertWithoutIncident 断电告警只通知，不进入事件流转
func TestPowerFailureAlertWithoutIncident(t *testing.T) {
	env := newTestEnv(t)
	env.createDevice(t, "dev-1")
	env.createOperator(t, "primary", models.OperatorPriorityPrimary)

	base := time.Now()
	battery := 80.0
	_, err := env.monitoringService.ProcessReading(&ReadingInput{
		DeviceID: "dev-1", Temperature: 5, Humidity: 60,
		PowerStatus: string(models.PowerStatusLine), Timestamp: &base,
	})
	require.NoError(t, err)

	later := base.Add(time.Minute)
	result, err := env.monitoringService.ProcessReading(&ReadingInput{
		DeviceID: "dev-1", Temperature: 5, Humidity: 60,
		PowerStatus: string(models.PowerStatusBattery), BatteryLevel: &battery, Timestamp: &later,
	})
	require.NoError(t, err)

	require.Len(t, result.Alerts, 1)
	assert.Equal(t, models.AlertTypePowerFailure, result.Alerts[0].Type)
	assert.Equal(t, models.AlertSeveritySevere, result.Alerts[0].Severity)
	assert.Nil(t, result.IncidentID, "供电告警不创建事件")

	var count int64
	env.db.Model(&models.Incident{}).Count(&count)
	assert.Zero(t, count)
}

// TestLowBatteryAlert 电池供电且电量不足时产生低电量告警
func TestLowBatteryAlert(t *testing.T) {
	env := newTestEnv(t)
	env.createDevice(t, "dev-1")

	base := time.Now()
	battery := 15.0
	result, err := env.monitoringService.ProcessReading(&ReadingInput{
		DeviceID: "dev-1", Temperature: 5, Humidity: 60,
		PowerStatus: string(models.PowerStatusBattery), BatteryLevel: &battery, Timestamp: &base,
	})
	require.NoError(t, err)

	// 首条读数没有前序，不产生断电信号，只有低电量
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, models.AlertTypeLowBattery, result.Alerts[0].Type)
	assert.Equal(t, models.AlertSeverityWarning, result.Alerts[0].Severity)
}

// TestPowerRestoredInfoAlert 市电恢复产生信息级告警
func TestPowerRestoredInfoAlert(t *testing.T) {
	env := newTestEnv(t)
	env.createDevice(t, "dev-1")

	base := time.Now()
	battery := 80.0
	env.monitoringService.ProcessReading(&ReadingInput{
		DeviceID: "dev-1", Temperature: 5, Humidity: 60,
		PowerStatus: string(models.PowerStatusBattery), BatteryLevel: &battery, Timestamp: &base,
	})

	later := base.Add(time.Minute)
	result, err := env.monitoringService.ProcessReading(&ReadingInput{
		DeviceID: "dev-1", Temperature: 5, Humidity: 60,
		PowerStatus: string(models.PowerStatusLine), Timestamp: &later,
	})
	require.NoError(t, err)

	require.Len(t, result.Alerts, 1)
	assert.Equal(t, models.AlertTypePowerRestored, result.Alerts[0].Type)
	assert.Equal(t, models.AlertSeverityInfo, result.Alerts[0].Severity)
}

// TestSingleActiveIncidentInvariant 并发上报同一设备只产生一个进行中事件
func TestSingleActiveIncidentInvariant(t *testing.T) {
	env := newTestEnv(t)
	env.createDevice(t, "dev-1")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			ts := time.Now().Add(time.Duration(offset) * time.Millisecond)
			env.monitoringService.ProcessReading(&ReadingInput{
				DeviceID: "dev-1", Temperature: 12, Humidity: 60, Timestamp: &ts,
			})
		}(i)
	}
	wg.Wait()

	count, err := env.incidentRepo.CountActiveByDevice("dev-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "同一设备同一时刻最多一个进行中事件")
}

// TestStatsRange 统计接口校验时间段
func TestStatsRange(t *testing.T) {
	env := newTestEnv(t)
	env.createDevice(t, "dev-1")

	base := time.Now()
	env.ingest(t, "dev-1", 4, base)
	env.ingest(t, "dev-1", 6, base.Add(time.Minute))

	stats, err := env.monitoringService.Stats("dev-1", base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Count)
	assert.Equal(t, 4.0, stats.MinTemperature)
	assert.Equal(t, 6.0, stats.MaxTemperature)

	_, err = env.monitoringService.Stats("dev-1", base, base.Add(-time.Hour))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

// restartMonitoring 在同一个数据库上装配一个新的读数管线实例，
// 内存中的去重状态归零，模拟进程重启
func restartMonitoring(env *testEnv) *MonitoringService {
	return NewMonitoringService(
		env.readingRepo, env.alertRepo,
		env.deviceService, env.incidentService, env.escalationService, env.settingsService, env.metricsService,
		env.locks, nil,
	)
}

// TestDedupWindowRestoredAfterRestart 重启后用库里最近一条同类告警恢复抑制窗口
func TestDedupWindowRestoredAfterRestart(t *testing.T) {
	env := newTestEnv(t)
	env.createDevice(t, "dev-restart")

	result := env.ingest(t, "dev-restart", 12, time.Now())
	require.Len(t, result.Alerts, 1)

	// 重启后窗口内的异常读数仍被抑制
	restarted := restartMonitoring(env)
	again, err := restarted.ProcessReading(&ReadingInput{
		DeviceID: "dev-restart", Temperature: 12, Humidity: 60,
	})
	require.NoError(t, err)
	assert.Empty(t, again.Alerts, "抑制窗口不应因重启而清零")

	// 把历史告警挪到窗口外，再次重启后恢复的窗口已过期，放行新告警
	stale := time.Now().Add(-40 * time.Minute)
	require.NoError(t, env.db.Model(&models.Alert{}).
		Where("device_id = ?", "dev-restart").
		Update("created_at", stale).Error)

	expired := restartMonitoring(env)
	later, err := expired.ProcessReading(&ReadingInput{
		DeviceID: "dev-restart", Temperature: 12, Humidity: 60,
	})
	require.NoError(t, err)
	assert.Len(t, later.Alerts, 1, "窗口过期后应放行新告警")
}
