package service

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"coldwatch/internal/models"
	"coldwatch/internal/monitoring"
	"coldwatch/internal/notify"
	"coldwatch/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

// testEnv 测试用的服务依赖装配，使用内存数据库
type testEnv struct {
	db *gorm.DB

	deviceRepo       *repository.DeviceRepository
	readingRepo      *repository.ReadingRepository
	alertRepo        *repository.AlertRepository
	incidentRepo     *repository.IncidentRepository
	operatorRepo     *repository.OperatorRepository
	notificationRepo *repository.NotificationRepository
	settingsRepo     *repository.SettingsRepository

	deviceService       *DeviceService
	settingsService     *SettingsService
	metricsService      *MetricsService
	incidentService     *IncidentService
	escalationService   *EscalationService
	monitoringService   *MonitoringService
	alertService        *AlertService
	operatorService     *OperatorService
	notificationService *NotificationService
	dispatcher          *notify.Dispatcher
	locks               *monitoring.DeviceLocks
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Device{},
		&models.Reading{},
		&models.Alert{},
		&models.Incident{},
		&models.IncidentTimelineEvent{},
		&models.IncidentComment{},
		&models.Operator{},
		&models.Notification{},
		&models.SystemSettings{},
	)
	require.NoError(t, err)

	env := &testEnv{
		db:               db,
		deviceRepo:       repository.NewDeviceRepository(db),
		readingRepo:      repository.NewReadingRepository(db),
		alertRepo:        repository.NewAlertRepository(db),
		incidentRepo:     repository.NewIncidentRepository(db),
		operatorRepo:     repository.NewOperatorRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		settingsRepo:     repository.NewSettingsRepository(db),
	}

	// 测试中不启动投递协程，通知停留在 pending 状态便于断言
	gateway := notify.NewGateway()
	env.dispatcher = notify.NewDispatcher(gateway, env.notificationRepo, env.incidentRepo, env.operatorRepo, 1)
	env.locks = monitoring.NewDeviceLocks()

	env.deviceService = NewDeviceService(env.deviceRepo)
	env.settingsService = NewSettingsService(env.settingsRepo)
	env.alertService = NewAlertService(env.alertRepo, env.operatorRepo)
	env.operatorService = NewOperatorService(env.operatorRepo)
	env.notificationService = NewNotificationService(env.notificationRepo)
	env.metricsService = NewMetricsService()
	env.incidentService = NewIncidentService(env.incidentRepo, env.operatorRepo, env.readingRepo, env.settingsService, env.locks)
	env.escalationService = NewEscalationService(env.operatorRepo, env.notificationRepo, env.dispatcher, false)
	env.monitoringService = NewMonitoringService(
		env.readingRepo, env.alertRepo,
		env.deviceService, env.incidentService, env.escalationService, env.settingsService, env.metricsService,
		env.locks, nil,
	)

	return env
}

// createDevice 创建测试设备
func (env *testEnv) createDevice(t *testing.T, deviceID string) *models.Device {
	t.Helper()
	device := &models.Device{
		DeviceID:        deviceID,
		Name:            "测试冷库-" + deviceID,
		Location:        "一号仓库",
		Status:          models.DeviceStatusOnline,
		ReadingInterval: 20,
	}
	require.NoError(t, env.deviceRepo.Create(device))
	return device
}

// createOperator 创建指定优先级的在值操作员
func (env *testEnv) createOperator(t *testing.T, name string, priority int) *models.Operator {
	t.Helper()
	operator := &models.Operator{
		Name:            name,
		Priority:        priority,
		IsActive:        true,
		Email:           name + "@example.com",
		EmailEnabled:    true,
		TelegramEnabled: false,
	}
	require.NoError(t, env.operatorRepo.Create(operator))
	return operator
}

// ingest 提交一条读数并返回处理结果
func (env *testEnv) ingest(t *testing.T, deviceID string, temperature float64, ts time.Time) *IngestResult {
	t.Helper()
	result, err := env.monitoringService.ProcessReading(&ReadingInput{
		DeviceID:    deviceID,
		Temperature: temperature,
		Humidity:    60,
		Timestamp:   &ts,
	})
	require.NoError(t, err)
	return result
}
