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

// TestRegisterDevice 注册设备，未提供标识时自动生成
func TestRegisterDevice(t *testing.T) {
	env := newTestEnv(t)

	device := &models.Device{Name: "一号冷库"}
	require.NoError(t, env.deviceService.Register(device))
	assert.NotEmpty(t, device.DeviceID, "未提供标识时应自动生成")

	// 重复标识冲突
	dup := &models.Device{Name: "重复设备", DeviceID: device.DeviceID}
	err := env.deviceService.Register(dup)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	// 缺少名称
	err = env.deviceService.Register(&models.Device{DeviceID: "dev-x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

// TestTouchIdempotent Touch 对未注册设备自动建档，重复调用幂等
func TestTouchIdempotent(t *testing.T) {
	env := newTestEnv(t)

	now := time.Now()
	first, err := env.deviceService.Touch("dev-1", now)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusOnline, first.Status)

	second, err := env.deviceService.Touch("dev-1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	env.db.Model(&models.Device{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

// TestUpdateKeepsDeviceID 更新设备时唯一标识不可变
func TestUpdateKeepsDeviceID(t *testing.T) {
	env := newTestEnv(t)
	device := env.createDevice(t, "dev-1")

	device.DeviceID = "dev-changed"
	device.Name = "改名后的冷库"
	require.NoError(t, env.deviceService.Update(device))

	updated, err := env.deviceService.Get(device.ID)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", updated.DeviceID)
	assert.Equal(t, "改名后的冷库", updated.Name)
}

// TestDeviceOverview 概览统计各状态设备数
func TestDeviceOverview(t *testing.T) {
	env := newTestEnv(t)
	env.createDevice(t, "dev-1")
	env.createDevice(t, "dev-2")
	require.NoError(t, env.deviceService.MarkStatus("dev-2", models.DeviceStatusWarning))

	overview, err := env.deviceService.Overview()
	require.NoError(t, err)
	assert.Equal(t, int64(2), overview.TotalCount)
	assert.Equal(t, int64(1), overview.OnlineCount)
	assert.Equal(t, int64(1), overview.WarningCount)
	assert.Equal(t, int64(0), overview.OfflineCount)
}

// TestTouchConcurrentFirstReadings 未注册设备的并发首报：
// 自动建档只成功一次，撞上唯一索引的一方回读继续，不报错
func TestTouchConcurrentFirstReadings(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.deviceService.Touch("dev-race", now)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err, "并发建档不应让任何一条读数评估失败")
	}

	var count int64
	require.NoError(t, env.db.Model(&models.Device{}).
		Where("device_id = ?", "dev-race").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
