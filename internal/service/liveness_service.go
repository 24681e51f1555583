package service

import (
	"fmt"
	"log"
	"sync"
	"time"

	"coldwatch/internal/models"
	"coldwatch/internal/monitoring"
	"coldwatch/internal/repository"
)

// LivenessService 设备离线巡检
// 周期性扫描全部设备，超过上报周期2倍未收到读数的设备
// 标记为离线并产生 connection_lost 告警（同样走去重抑制）
type LivenessService struct {
	deviceService     *DeviceService
	alertRepo         *repository.AlertRepository
	escalationService *EscalationService
	settingsService   *SettingsService
	dedup             *monitoring.Deduplicator
	hub               Broadcaster

	interval time.Duration
	quit     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func NewLivenessService(
	deviceService *DeviceService,
	alertRepo *repository.AlertRepository,
	escalationService *EscalationService,
	settingsService *SettingsService,
	dedup *monitoring.Deduplicator,
	hub Broadcaster,
	interval time.Duration,
) *LivenessService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &LivenessService{
		deviceService:     deviceService,
		alertRepo:         alertRepo,
		escalationService: escalationService,
		settingsService:   settingsService,
		dedup:             dedup,
		hub:               hub,
		interval:          interval,
		quit:              make(chan struct{}),
	}
}

// Start 启动巡检协程
func (s *LivenessService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Printf("[Liveness] 离线巡检已启动，周期 %s", s.interval)
		for {
			select {
			case <-ticker.C:
				s.Sweep(time.Now())
			case <-s.quit:
				return
			}
		}
	}()
}

// Stop 停止巡检
func (s *LivenessService) Stop() {
	s.once.Do(func() {
		close(s.quit)
	})
	s.wg.Wait()
}

// Sweep 执行一轮巡检
func (s *LivenessService) Sweep(now time.Time) {
	devices, err := s.deviceService.ListAll()
	if err != nil {
		log.Printf("[Liveness] 获取设备列表失败: %v", err)
		return
	}

	settings, err := s.settingsService.Get()
	if err != nil {
		log.Printf("[Liveness] 获取系统配置失败: %v", err)
		return
	}
	window := time.Duration(settings.AlertResetTime) * time.Minute

	for i := range devices {
		device := &devices[i]
		if device.Status == models.DeviceStatusOffline {
			continue
		}

		interval := device.ReadingInterval
		if interval <= 0 {
			interval = settings.ReadingInterval
		}
		if !monitoring.IsStale(device.LastReadingAt, interval, now) {
			continue
		}

		if err := s.deviceService.MarkStatus(device.DeviceID, models.DeviceStatusOffline); err != nil {
			log.Printf("[Liveness] 标记设备 %s 离线失败: %v", device.DeviceID, err)
			continue
		}

		if !s.dedup.ShouldAlert(device.DeviceID, models.AlertTypeConnectionLost, now, window) {
			continue
		}

		alert := &models.Alert{
			Type:     models.AlertTypeConnectionLost,
			Severity: models.AlertSeverityCritical,
			DeviceID: device.DeviceID,
			Message: fmt.Sprintf("设备 %s（%s）已失联，最后读数时间 %s",
				device.Name, device.Location, lastReadingText(device.LastReadingAt)),
		}
		if err := s.alertRepo.Create(alert); err != nil {
			log.Printf("[Liveness] 创建失联告警失败: %v", err)
			continue
		}

		if err := s.escalationService.NotifyAlert(alert, device); err != nil {
			log.Printf("[Liveness] 失联告警通知失败: %v", err)
		}
		if s.hub != nil {
			s.hub.BroadcastAlert(alert)
		}
	}

	// 顺带清理过期的去重记录
	s.dedup.Cleanup(now, window)
}

func lastReadingText(t *time.Time) string {
	if t == nil {
		return "无"
	}
	return t.Format(time.DateTime)
}
