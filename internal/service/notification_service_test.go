package service

import (
	"errors"
	"testing"

	"coldwatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createNotification(t *testing.T, env *testEnv, operatorID uint, status models.NotificationStatus) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		OperatorID: operatorID,
		Channel:    models.NotificationChannelEmail,
		Message:    "测试通知",
		Status:     status,
	}
	require.NoError(t, env.notificationRepo.Create(notification))
	return notification
}

// TestMarkReadIdempotent 标记已读幂等，重复标记不报错
func TestMarkReadIdempotent(t *testing.T) {
	env := newTestEnv(t)
	operator := env.createOperator(t, "张三", models.OperatorPriorityPrimary)
	notification := createNotification(t, env, operator.ID, models.NotificationStatusSent)

	require.NoError(t, env.notificationService.MarkRead(notification.ID))

	updated, err := env.notificationRepo.GetByID(notification.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusRead, updated.Status)
	firstReadAt := updated.ReadAt
	require.NotNil(t, firstReadAt)

	// 重复标记不改变已读时间
	require.NoError(t, env.notificationService.MarkRead(notification.ID))
	again, err := env.notificationRepo.GetByID(notification.ID)
	require.NoError(t, err)
	assert.Equal(t, firstReadAt.Unix(), again.ReadAt.Unix())
}

// TestMarkReadNotFound 不存在的通知
func TestMarkReadNotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.notificationService.MarkRead(9999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

// TestGetUnreadIncludesFailed 未读列表包含发送失败的通知
func TestGetUnreadIncludesFailed(t *testing.T) {
	env := newTestEnv(t)
	operator := env.createOperator(t, "张三", models.OperatorPriorityPrimary)

	createNotification(t, env, operator.ID, models.NotificationStatusSent)
	createNotification(t, env, operator.ID, models.NotificationStatusFailed)
	read := createNotification(t, env, operator.ID, models.NotificationStatusSent)
	require.NoError(t, env.notificationService.MarkRead(read.ID))

	unread, err := env.notificationService.GetUnread(operator.ID)
	require.NoError(t, err)
	assert.Len(t, unread, 2, "未读列表包含已发送未读和发送失败的通知")
}

// TestOperatorValidation 操作员字段校验
func TestOperatorValidation(t *testing.T) {
	env := newTestEnv(t)

	err := env.operatorService.Create(&models.Operator{Priority: 1, EmailEnabled: false})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation), "缺少姓名")

	err = env.operatorService.Create(&models.Operator{Name: "张三", Priority: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation), "优先级越界")

	err = env.operatorService.Create(&models.Operator{Name: "张三", Priority: 1, EmailEnabled: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation), "启用邮件但没有邮箱")

	err = env.operatorService.Create(&models.Operator{
		Name: "张三", Priority: 1, IsActive: true,
		Email: "zhangsan@example.com", EmailEnabled: true,
	})
	require.NoError(t, err)
}
