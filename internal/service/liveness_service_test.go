package service

import (
	"testing"
	"time"

	"coldwatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLiveness(env *testEnv) *LivenessService {
	return NewLivenessService(
		env.deviceService, env.alertRepo, env.escalationService, env.settingsService,
		env.monitoringService.Deduplicator(), nil, time.Minute,
	)
}

// TestSweepMarksStaleDeviceOffline 超过上报周期2倍未上报的设备标记离线并产生失联告警
func TestSweepMarksStaleDeviceOffline(t *testing.T) {
	env := newTestEnv(t)
	env.createOperator(t, "primary", models.OperatorPriorityPrimary)

	base := time.Now()
	env.ingest(t, "dev-1", 5, base)

	liveness := newLiveness(env)
	liveness.Sweep(base.Add(41 * time.Minute))

	device, err := env.deviceService.GetByDeviceID("dev-1")
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusOffline, device.Status)

	alerts, err := env.alertRepo.GetByDevice("dev-1", 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertTypeConnectionLost, alerts[0].Type)
	assert.Equal(t, models.AlertSeverityCritical, alerts[0].Severity)
	assert.Nil(t, alerts[0].ReadingID, "失联告警没有关联读数")
}

// TestSweepSkipsRecentDevice 未超窗口的设备不受影响
func TestSweepSkipsRecentDevice(t *testing.T) {
	env := newTestEnv(t)

	base := time.Now()
	env.ingest(t, "dev-1", 5, base)

	liveness := newLiveness(env)
	liveness.Sweep(base.Add(30 * time.Minute))

	device, err := env.deviceService.GetByDeviceID("dev-1")
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusOnline, device.Status)
}

// TestSweepDedupsConnectionLost 连续两轮巡检只产生一次失联告警
func TestSweepDedupsConnectionLost(t *testing.T) {
	env := newTestEnv(t)

	base := time.Now()
	env.ingest(t, "dev-1", 5, base)

	liveness := newLiveness(env)
	liveness.Sweep(base.Add(41 * time.Minute))
	liveness.Sweep(base.Add(46 * time.Minute))

	alerts, err := env.alertRepo.GetByDevice("dev-1", 10)
	require.NoError(t, err)
	assert.Len(t, alerts, 1, "抑制窗口内重复失联只告警一次")
}

// TestSweepSkipsNeverReported 从未上报的设备不判定为失联
func TestSweepSkipsNeverReported(t *testing.T) {
	env := newTestEnv(t)
	env.createDevice(t, "dev-1")

	liveness := newLiveness(env)
	liveness.Sweep(time.Now().Add(24 * time.Hour))

	alerts, err := env.alertRepo.GetByDevice("dev-1", 10)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
