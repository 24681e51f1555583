package service

import (
	"testing"
	"time"

	"coldwatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNotifyIncidentLevelSelectsNewTier 默认只通知新到达的层级
func TestNotifyIncidentLevelSelectsNewTier(t *testing.T) {
	env := newTestEnv(t)
	device := env.createDevice(t, "dev-1")
	env.createOperator(t, "primary", models.OperatorPriorityPrimary)
	secondary := env.createOperator(t, "secondary", models.OperatorPrioritySecondary)

	incident := openIncident(t, env, "dev-1")
	reading := &models.Reading{DeviceID: "dev-1", Temperature: 12, Timestamp: time.Now()}

	require.NoError(t, env.escalationService.NotifyIncidentLevel(incident, device, reading, 2))

	notifications, err := env.notificationRepo.GetByIncident(incident.ID)
	require.NoError(t, err)

	// 事件创建时已通知一级一条，升级到2级只新增二级操作员的通知
	var secondTier []models.Notification
	for _, n := range notifications {
		if n.OperatorID == secondary.ID {
			secondTier = append(secondTier, n)
		}
	}
	require.Len(t, secondTier, 1)
	assert.Equal(t, models.NotificationStatusPending, secondTier[0].Status)
	assert.Contains(t, secondTier[0].Message, "2级")
}

// TestNotifyLowerTiersCoversAllLevels 配置覆盖模式时通知所有不高于当前级别的层级
func TestNotifyLowerTiersCoversAllLevels(t *testing.T) {
	env := newTestEnv(t)
	device := env.createDevice(t, "dev-1")
	env.createOperator(t, "primary", models.OperatorPriorityPrimary)
	env.createOperator(t, "secondary", models.OperatorPrioritySecondary)

	covering := NewEscalationService(env.operatorRepo, env.notificationRepo, env.dispatcher, true)

	incident := openIncident(t, env, "dev-1")
	reading := &models.Reading{DeviceID: "dev-1", Temperature: 12, Timestamp: time.Now()}
	require.NoError(t, covering.NotifyIncidentLevel(incident, device, reading, 2))

	notifications, err := env.notificationRepo.GetByIncident(incident.ID)
	require.NoError(t, err)
	// 事件创建时的1条 + 覆盖通知1级和2级各1条
	assert.Len(t, notifications, 3)
}

// TestNotifyAlertGoesToPrimaryTier 独立告警直接通知一级操作员
func TestNotifyAlertGoesToPrimaryTier(t *testing.T) {
	env := newTestEnv(t)
	device := env.createDevice(t, "dev-1")
	primary := env.createOperator(t, "primary", models.OperatorPriorityPrimary)
	env.createOperator(t, "secondary", models.OperatorPrioritySecondary)

	alert := &models.Alert{
		Type: models.AlertTypePowerFailure, Severity: models.AlertSeveritySevere,
		DeviceID: "dev-1", Message: "市电断电",
	}
	require.NoError(t, env.alertRepo.Create(alert))
	require.NoError(t, env.escalationService.NotifyAlert(alert, device))

	notifications, _, err := env.notificationRepo.List(1, 100, map[string]interface{}{})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, primary.ID, notifications[0].OperatorID)
	require.NotNil(t, notifications[0].AlertID)
	assert.Equal(t, alert.ID, *notifications[0].AlertID)
}

// TestOperatorWithoutChannelsSkipped 没有可用通道的操作员被跳过
func TestOperatorWithoutChannelsSkipped(t *testing.T) {
	env := newTestEnv(t)
	device := env.createDevice(t, "dev-1")

	operator := &models.Operator{
		Name: "无通道", Priority: models.OperatorPriorityPrimary, IsActive: true,
		EmailEnabled: false, TelegramEnabled: false,
	}
	require.NoError(t, env.operatorRepo.Create(operator))

	incident := openIncident(t, env, "dev-1")
	reading := &models.Reading{DeviceID: "dev-1", Temperature: 12, Timestamp: time.Now()}
	require.NoError(t, env.escalationService.NotifyIncidentLevel(incident, device, reading, 1))

	notifications, err := env.notificationRepo.GetByIncident(incident.ID)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

// TestMultiChannelOperator 双通道操作员每个通道各一条通知
func TestMultiChannelOperator(t *testing.T) {
	env := newTestEnv(t)
	device := env.createDevice(t, "dev-1")

	operator := &models.Operator{
		Name: "双通道", Priority: models.OperatorPriorityPrimary, IsActive: true,
		Email: "dual@example.com", EmailEnabled: true,
		TelegramID: "10086", TelegramEnabled: true,
	}
	require.NoError(t, env.operatorRepo.Create(operator))

	incident := openIncident(t, env, "dev-1")
	reading := &models.Reading{DeviceID: "dev-1", Temperature: 12, Timestamp: time.Now()}
	require.NoError(t, env.escalationService.NotifyIncidentLevel(incident, device, reading, 1))

	notifications, err := env.notificationRepo.GetByIncident(incident.ID)
	require.NoError(t, err)

	channels := make(map[models.NotificationChannel]int)
	for _, n := range notifications {
		channels[n.Channel]++
	}
	assert.GreaterOrEqual(t, channels[models.NotificationChannelEmail], 1)
	assert.GreaterOrEqual(t, channels[models.NotificationChannelTelegram], 1)
}
