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

// Broadcaster 实时推送接口（由websocket hub实现），为空时不推送
type Broadcaster interface {
	BroadcastReading(reading interface{})
	BroadcastAlert(alert interface{})
	BroadcastIncident(incident interface{})
}

// ReadingInput 设备上报的原始读数载荷
type ReadingInput struct {
	DeviceID     string     `json:"device_id" binding:"required"`
	Temperature  float64    `json:"temperature"`
	Humidity     float64    `json:"humidity"`
	PowerStatus  string     `json:"power_status"`
	BatteryLevel *float64   `json:"battery_level"`
	Timestamp    *time.Time `json:"timestamp"` // 可选，缺省取服务器时间
}

// IngestResult 一次读数接入的处理结果
type IngestResult struct {
	Reading    *models.Reading `json:"reading"`
	Alerts     []models.Alert  `json:"alerts,omitempty"`      // 本次产生的告警
	IncidentID *uint           `json:"incident_id,omitempty"` // 关联的进行中事件
	Abnormal   bool            `json:"abnormal"`              // 温度是否异常
}

// MonitoringService 读数接入管线
// 读数先落库再评估，评估失败不丢读数，只累计健康计数并记录日志。
// 评估全程持有设备锁，保证同一设备的事件流转串行
type MonitoringService struct {
	readingRepo       *repository.ReadingRepository
	alertRepo         *repository.AlertRepository
	deviceService     *DeviceService
	incidentService   *IncidentService
	escalationService *EscalationService
	settingsService   *SettingsService
	metricsService    *MetricsService

	dedup *monitoring.Deduplicator
	locks *monitoring.DeviceLocks
	hub   Broadcaster

	// 进程启动后每个去重键只回查一次数据库，恢复重启前的抑制窗口
	seedMutex  sync.Mutex
	dedupSeeds map[string]bool
}

func NewMonitoringService(
	readingRepo *repository.ReadingRepository,
	alertRepo *repository.AlertRepository,
	deviceService *DeviceService,
	incidentService *IncidentService,
	escalationService *EscalationService,
	settingsService *SettingsService,
	metricsService *MetricsService,
	locks *monitoring.DeviceLocks,
	hub Broadcaster,
) *MonitoringService {
	return &MonitoringService{
		readingRepo:       readingRepo,
		alertRepo:         alertRepo,
		deviceService:     deviceService,
		incidentService:   incidentService,
		escalationService: escalationService,
		settingsService:   settingsService,
		metricsService:    metricsService,
		dedup:             monitoring.NewDeduplicator(),
		locks:             locks,
		hub:               hub,
		dedupSeeds:        make(map[string]bool),
	}
}

// Deduplicator 暴露去重器（离线巡检共用同一个抑制窗口）
func (s *MonitoringService) Deduplicator() *monitoring.Deduplicator {
	return s.dedup
}

// shouldAlert 去重判定
// 进程启动后首次遇到某个键时，先用库里最近一条同类告警的时间
// 播种抑制窗口，重启不会在窗口内放出重复告警
func (s *MonitoringService) shouldAlert(deviceID string, alertType models.AlertType, now time.Time, window time.Duration) bool {
	key := fmt.Sprintf("%s:%s", deviceID, alertType)
	s.seedMutex.Lock()
	first := !s.dedupSeeds[key]
	s.dedupSeeds[key] = true
	s.seedMutex.Unlock()

	if first {
		if last, err := s.alertRepo.LastOfType(deviceID, alertType); err == nil {
			s.dedup.Seed(deviceID, alertType, last.CreatedAt)
		}
	}

	return s.dedup.ShouldAlert(deviceID, alertType, now, window)
}

// ProcessReading 接入一条读数：校验、落库、评估、告警、事件流转
func (s *MonitoringService) ProcessReading(input *ReadingInput) (*IngestResult, error) {
	reading, err := s.buildReading(input)
	if err != nil {
		return nil, err
	}

	// 读数先持久化，后续评估失败也不丢数据
	if err := s.readingRepo.Create(reading); err != nil {
		return nil, err
	}

	result := &IngestResult{Reading: reading}

	if err := s.evaluate(reading, result); err != nil {
		// 告警管线故障通过健康计数暴露，不作为接入失败返回
		s.metricsService.RecordPipelineFailure()
		log.Printf("[Monitoring] 读数 %d 评估失败: %v", reading.ID, err)
	}

	s.metricsService.RecordReading()
	if s.hub != nil {
		s.hub.BroadcastReading(reading)
	}

	return result, nil
}

func (s *MonitoringService) buildReading(input *ReadingInput) (*models.Reading, error) {
	reading := &models.Reading{
		DeviceID:     input.DeviceID,
		Temperature:  input.Temperature,
		Humidity:     input.Humidity,
		PowerStatus:  models.PowerStatus(input.PowerStatus),
		BatteryLevel: 100,
		Timestamp:    time.Now(),
	}
	if input.PowerStatus == "" {
		reading.PowerStatus = models.PowerStatusLine
	}
	if input.BatteryLevel != nil {
		reading.BatteryLevel = *input.BatteryLevel
	}
	if input.Timestamp != nil {
		reading.Timestamp = *input.Timestamp
	}

	if err := monitoring.ValidateReading(reading); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return reading, nil
}

// evaluate 评估一条已落库的读数，持设备锁执行
func (s *MonitoringService) evaluate(reading *models.Reading, result *IngestResult) error {
	device, err := s.deviceService.Touch(reading.DeviceID, reading.Timestamp)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(reading.DeviceID)
	defer unlock()

	settings, err := s.settingsService.Get()
	if err != nil {
		return err
	}
	policy := monitoring.PolicyFromSettings(settings)
	window := time.Duration(settings.AlertResetTime) * time.Minute
	now := time.Now()

	// 温度评估
	classification := monitoring.EvaluateTemperature(policy, reading)
	result.Abnormal = classification.IsAbnormal

	if classification.IsAbnormal {
		if err := s.handleAbnormal(device, reading, classification, now, window, result); err != nil {
			return err
		}
	} else {
		if err := s.handleNormal(device, reading); err != nil {
			return err
		}
	}

	// 供电状态评估：与前一条读数（按采样时间）对比
	if err := s.evaluatePower(device, reading, now, window, result); err != nil {
		return err
	}

	return nil
}

// handleAbnormal 异常读数：去重放行后产生告警并驱动事件流转
func (s *MonitoringService) handleAbnormal(device *models.Device, reading *models.Reading, classification monitoring.ClassificationResult, now time.Time, window time.Duration, result *IngestResult) error {
	if err := s.deviceService.MarkStatus(device.DeviceID, models.DeviceStatusWarning); err != nil {
		log.Printf("[Monitoring] 更新设备 %s 状态失败: %v", device.DeviceID, err)
	}

	if !s.shouldAlert(device.DeviceID, classification.AlertType, now, window) {
		// 抑制窗口内：不产生告警，也不累加事件计数
		return nil
	}

	direction := "过低"
	if classification.Direction == monitoring.DirectionHigh {
		direction = "过高"
	}
	policy, err := s.settingsService.CurrentPolicy()
	if err != nil {
		return err
	}
	alert := &models.Alert{
		Type:      classification.AlertType,
		Severity:  classification.Severity,
		DeviceID:  device.DeviceID,
		ReadingID: &reading.ID,
		Message: fmt.Sprintf("设备 %s 温度%s：%.1f°C（正常区间 %.1f°C ~ %.1f°C）",
			device.Name, direction, reading.Temperature, policy.NormalMin, policy.NormalMax),
	}
	if err := s.alertRepo.Create(alert); err != nil {
		return err
	}
	result.Alerts = append(result.Alerts, *alert)
	s.metricsService.RecordAlert()

	incident, notifyLevel, err := s.incidentService.HandleAbnormal(device, reading, alert)
	if err != nil {
		return err
	}
	result.IncidentID = &incident.ID

	if notifyLevel > 0 {
		if err := s.escalationService.NotifyIncidentLevel(incident, device, reading, notifyLevel); err != nil {
			log.Printf("[Monitoring] 事件 %d 通知失败: %v", incident.ID, err)
		}
		if s.hub != nil {
			s.hub.BroadcastIncident(incident)
		}
	}
	if s.hub != nil {
		s.hub.BroadcastAlert(alert)
	}

	return nil
}

// handleNormal 正常读数：自动解决该设备所有进行中的事件
func (s *MonitoringService) handleNormal(device *models.Device, reading *models.Reading) error {
	resolved, err := s.incidentService.AutoResolve(device.DeviceID, reading)
	if err != nil {
		return err
	}
	if len(resolved) == 0 {
		return nil
	}

	// 恢复后清除温度告警的抑制记录，下一轮异常立即可告警
	s.dedup.Reset(device.DeviceID, models.AlertTypeHighTemperature)
	s.dedup.Reset(device.DeviceID, models.AlertTypeLowTemperature)

	if s.hub != nil {
		for i := range resolved {
			s.hub.BroadcastIncident(&resolved[i])
		}
	}
	return nil
}

// evaluatePower 评估供电状态变化和电池电量
func (s *MonitoringService) evaluatePower(device *models.Device, reading *models.Reading, now time.Time, window time.Duration, result *IngestResult) error {
	preceding, err := s.readingRepo.PrecedingBy(reading.DeviceID, reading.Timestamp)
	if err != nil && !monitoring.IsNotFound(err) {
		return err
	}

	if signal := monitoring.EvaluatePowerTransition(reading, preceding); signal != nil {
		s.raisePowerAlert(device, reading, signal, now, window, result)
	}

	if signal := monitoring.EvaluateBattery(reading); signal != nil {
		s.raisePowerAlert(device, reading, signal, now, window, result)
	}

	return nil
}

// raisePowerAlert 供电类告警：记录并直接通知一级操作员，不进入事件流转
func (s *MonitoringService) raisePowerAlert(device *models.Device, reading *models.Reading, signal *monitoring.PowerSignal, now time.Time, window time.Duration, result *IngestResult) {
	if !s.shouldAlert(device.DeviceID, signal.AlertType, now, window) {
		return
	}

	alert := &models.Alert{
		Type:      signal.AlertType,
		Severity:  signal.Severity,
		DeviceID:  device.DeviceID,
		ReadingID: &reading.ID,
		Message:   signal.Message,
	}
	if err := s.alertRepo.Create(alert); err != nil {
		log.Printf("[Monitoring] 创建供电告警失败: %v", err)
		return
	}
	result.Alerts = append(result.Alerts, *alert)
	s.metricsService.RecordAlert()

	if err := s.escalationService.NotifyAlert(alert, device); err != nil {
		log.Printf("[Monitoring] 供电告警通知失败: %v", err)
	}
	if s.hub != nil {
		s.hub.BroadcastAlert(alert)
	}
}

// ListReadings 分页获取读数
func (s *MonitoringService) ListReadings(current, size int, deviceID string) ([]models.Reading, int64, error) {
	return s.readingRepo.List(current, size, deviceID)
}

// LatestReading 获取设备最新读数
func (s *MonitoringService) LatestReading(deviceID string) (*models.Reading, error) {
	reading, err := s.readingRepo.Latest(deviceID)
	if err != nil && monitoring.IsNotFound(err) {
		return nil, notFoundError("设备 %s 还没有读数", deviceID)
	}
	return reading, err
}

// Stats 统计时间段内的温度极值和均值
func (s *MonitoringService) Stats(deviceID string, start, end time.Time) (*repository.TemperatureStats, error) {
	if end.Before(start) {
		return nil, validationError("结束时间不能早于开始时间")
	}
	return s.readingRepo.Stats(deviceID, start, end)
}
