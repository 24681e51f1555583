package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coldwatch/internal/models"
	"coldwatch/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dispatcherDBCounter int64

// fakeSender 可控的测试发送器，前 failures 次调用返回错误
type fakeSender struct {
	mutex    sync.Mutex
	failures int
	calls    int
	sent     []string
}

func (f *fakeSender) Send(ctx context.Context, address, message string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New("模拟发送失败")
	}
	f.sent = append(f.sent, address)
	return nil
}

func (f *fakeSender) callCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls
}

func setupDispatcherTest(t *testing.T, sender Sender) (*Dispatcher, *repository.NotificationRepository, *repository.IncidentRepository) {
	t.Helper()

	dsn := fmt.Sprintf("file:dispatch_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dispatcherDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}, &models.Incident{}, &models.IncidentTimelineEvent{}, &models.Operator{}))

	gateway := NewGateway()
	if sender != nil {
		gateway.Register(models.NotificationChannelEmail, sender)
	}

	notificationRepo := repository.NewNotificationRepository(db)
	incidentRepo := repository.NewIncidentRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)
	require.NoError(t, operatorRepo.Create(&models.Operator{
		Name: "值班员", Priority: 1, IsActive: true,
		Email: "op@example.com", EmailEnabled: true,
	}))

	dispatcher := NewDispatcher(gateway, notificationRepo, incidentRepo, operatorRepo, 1)
	dispatcher.SetRetryPolicy(2, 10*time.Millisecond, 100*time.Millisecond)
	return dispatcher, notificationRepo, incidentRepo
}

func createPending(t *testing.T, repo *repository.NotificationRepository, incidentID *uint) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		OperatorID: 1,
		IncidentID: incidentID,
		Channel:    models.NotificationChannelEmail,
		Message:    "测试通知",
		Status:     models.NotificationStatusPending,
	}
	require.NoError(t, repo.Create(notification))
	return notification
}

// TestDispatcherDelivers 投递成功后通知标记为已发送
func TestDispatcherDelivers(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, repo, _ := setupDispatcherTest(t, sender)
	dispatcher.Start()

	notification := createPending(t, repo, nil)
	dispatcher.Enqueue(Job{
		NotificationID: notification.ID,
		OperatorID:     1,
		Channel:        models.NotificationChannelEmail,
		Address:        "op@example.com",
		Message:        notification.Message,
	})
	dispatcher.Stop()

	updated, err := repo.GetByID(notification.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusSent, updated.Status)
	require.NotNil(t, updated.SentAt)
	assert.Equal(t, 1, sender.callCount())
}

// TestDispatcherRetriesUntilSuccess 失败后重试，重试成功仍标记为已发送
func TestDispatcherRetriesUntilSuccess(t *testing.T) {
	sender := &fakeSender{failures: 2}
	dispatcher, repo, _ := setupDispatcherTest(t, sender)
	dispatcher.Start()

	notification := createPending(t, repo, nil)
	dispatcher.Enqueue(Job{
		NotificationID: notification.ID,
		OperatorID:     1,
		Channel:        models.NotificationChannelEmail,
		Address:        "op@example.com",
	})
	dispatcher.Stop()

	updated, err := repo.GetByID(notification.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusSent, updated.Status)
	assert.Equal(t, 3, sender.callCount(), "两次失败加一次成功")
}

// TestDispatcherMarksFailedAfterRetries 重试耗尽后标记失败并记录原因
func TestDispatcherMarksFailedAfterRetries(t *testing.T) {
	sender := &fakeSender{failures: 10}
	dispatcher, repo, _ := setupDispatcherTest(t, sender)
	dispatcher.Start()

	notification := createPending(t, repo, nil)
	dispatcher.Enqueue(Job{
		NotificationID: notification.ID,
		OperatorID:     1,
		Channel:        models.NotificationChannelEmail,
		Address:        "op@example.com",
	})
	dispatcher.Stop()

	updated, err := repo.GetByID(notification.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusFailed, updated.Status)
	assert.Equal(t, 2, updated.RetryCount)
	assert.NotEmpty(t, updated.ErrorMessage)
	assert.Equal(t, 3, sender.callCount(), "首次加两次重试")
}

// TestDispatcherUnsupportedChannel 未接入的通道不重试，直接失败
func TestDispatcherUnsupportedChannel(t *testing.T) {
	dispatcher, repo, _ := setupDispatcherTest(t, nil)
	dispatcher.Start()

	notification := createPending(t, repo, nil)
	dispatcher.Enqueue(Job{
		NotificationID: notification.ID,
		OperatorID:     1,
		Channel:        models.NotificationChannelEmail,
		Address:        "op@example.com",
	})
	dispatcher.Stop()

	updated, err := repo.GetByID(notification.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusFailed, updated.Status)
}

// TestBatchTrackerTimelineOncePerOperator 同一操作员多通道投递只记录一条时间线
func TestBatchTrackerTimelineOncePerOperator(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, repo, incidentRepo := setupDispatcherTest(t, sender)

	incident := &models.Incident{
		DeviceID: "dev-1", AlertID: 1, Status: models.IncidentStatusOpen,
		AlertCount: 1, CurrentEscalationLevel: 1, StartTime: time.Now(),
	}
	require.NoError(t, incidentRepo.Create(incident))

	dispatcher.Start()
	tracker := NewBatchTracker(1)
	for i := 0; i < 2; i++ {
		notification := createPending(t, repo, &incident.ID)
		dispatcher.Enqueue(Job{
			NotificationID: notification.ID,
			OperatorID:     1,
			IncidentID:     &incident.ID,
			Channel:        models.NotificationChannelEmail,
			Address:        "op@example.com",
			Tracker:        tracker,
		})
	}
	dispatcher.Stop()

	timeline, err := incidentRepo.GetTimeline(incident.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, models.TimelineEventNotificationSent, timeline[0].EventType)
}

// TestEnqueueQueueFullMarksFailed 队列满时通知标记为失败，进入未读列表可见
func TestEnqueueQueueFullMarksFailed(t *testing.T) {
	dispatcher, repo, _ := setupDispatcherTest(t, &fakeSender{})

	// 不启动工作协程，填满队列
	for i := 0; i < cap(dispatcher.queue); i++ {
		dispatcher.queue <- Job{NotificationID: 0}
	}

	notification := createPending(t, repo, nil)
	dispatcher.Enqueue(Job{
		NotificationID: notification.ID,
		OperatorID:     1,
		Channel:        models.NotificationChannelEmail,
		Address:        "op@example.com",
	})

	updated, err := repo.GetByID(notification.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusFailed, updated.Status, "溢出的通知不能停留在待发送状态")
	assert.NotEmpty(t, updated.ErrorMessage)

	unread, err := repo.GetUnread(1)
	require.NoError(t, err)
	require.Len(t, unread, 1, "溢出的通知要出现在未读列表里")
	assert.Equal(t, notification.ID, unread[0].ID)
}

// TestStartRecoversPendingNotifications 启动时重新入队重启前遗留的待发送通知
func TestStartRecoversPendingNotifications(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, repo, _ := setupDispatcherTest(t, sender)

	// 进程退出前遗留：一条可投递的邮件通知，一条未接入通道的通知
	recoverable := createPending(t, repo, nil)
	orphaned := &models.Notification{
		OperatorID: 1,
		Channel:    models.NotificationChannelTelegram,
		Message:    "测试通知",
		Status:     models.NotificationStatusPending,
	}
	require.NoError(t, repo.Create(orphaned))

	dispatcher.Start()
	dispatcher.Stop()

	updated, err := repo.GetByID(recoverable.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusSent, updated.Status)
	assert.Equal(t, 1, sender.callCount())

	failed, err := repo.GetByID(orphaned.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusFailed, failed.Status, "未接入通道的遗留通知直接标记失败")
}
