package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"coldwatch/internal/models"
	"coldwatch/internal/monitoring"
	"coldwatch/internal/repository"

	"gorm.io/gorm"
)

// IncidentService 事件状态机服务
// 事件生命周期：open -> acknowledged/investigating -> resolved -> closed，
// 自动解决路径允许从 open/acknowledged/investigating 直接到 resolved。
// 单设备单进行中事件的不变量由本服务配合设备锁维护，不依赖存储层约束。
// 操作员流转和读数评估共用同一把设备锁：两边都是先读后整条写回，
// 不串行会把过期的事件状态写回去
type IncidentService struct {
	incidentRepo    *repository.IncidentRepository
	operatorRepo    *repository.OperatorRepository
	readingRepo     *repository.ReadingRepository
	settingsService *SettingsService
	locks           *monitoring.DeviceLocks
}

func NewIncidentService(incidentRepo *repository.IncidentRepository, operatorRepo *repository.OperatorRepository, readingRepo *repository.ReadingRepository, settingsService *SettingsService, locks *monitoring.DeviceLocks) *IncidentService {
	return &IncidentService{
		incidentRepo:    incidentRepo,
		operatorRepo:    operatorRepo,
		readingRepo:     readingRepo,
		settingsService: settingsService,
		locks:           locks,
	}
}

// HandleAbnormal 处理一条产生了新告警的异常读数，必须在设备锁内调用
// 无进行中事件时创建新事件，否则累加告警次数并重新计算升级级别。
// 返回事件和需要通知的级别（0表示本次无需通知）
func (s *IncidentService) HandleAbnormal(device *models.Device, reading *models.Reading, alert *models.Alert) (*models.Incident, int, error) {
	active, err := s.incidentRepo.GetActiveByDevice(device.DeviceID)
	if err != nil {
		return nil, 0, err
	}

	if len(active) == 0 {
		incident, err := s.create(device, reading, alert)
		if err != nil {
			return nil, 0, err
		}
		// 新事件只通知一级
		return incident, 1, nil
	}

	// 不变量之外的多余事件只会来自历史数据，更新最早的一个
	incident := &active[0]
	incident.AlertCount++

	previousLevel := incident.CurrentEscalationLevel
	incident.CurrentEscalationLevel = monitoring.EscalationLevelFor(incident.AlertCount, previousLevel)

	if err := s.incidentRepo.Update(incident); err != nil {
		return nil, 0, err
	}

	if incident.CurrentEscalationLevel > previousLevel {
		s.appendTimeline(&models.IncidentTimelineEvent{
			IncidentID:  incident.ID,
			EventType:   models.TimelineEventEscalationChanged,
			Description: fmt.Sprintf("事件升级至 %d 级（累计告警 %d 次）", incident.CurrentEscalationLevel, incident.AlertCount),
			Temperature: &reading.Temperature,
			Metadata:    fmt.Sprintf(`{"new_level":%d,"alert_count":%d}`, incident.CurrentEscalationLevel, incident.AlertCount),
		})
		// 升级时只通知新到达的层级
		return incident, incident.CurrentEscalationLevel, nil
	}

	return incident, 0, nil
}

// create 创建新事件并记录首条时间线
func (s *IncidentService) create(device *models.Device, reading *models.Reading, alert *models.Alert) (*models.Incident, error) {
	incident := &models.Incident{
		DeviceID:               device.DeviceID,
		AlertID:                alert.ID,
		Description:            alert.Message,
		Status:                 models.IncidentStatusOpen,
		AlertCount:             1,
		CurrentEscalationLevel: 1,
		StartTime:              reading.Timestamp,
	}
	if err := s.incidentRepo.Create(incident); err != nil {
		return nil, err
	}

	s.appendTimeline(&models.IncidentTimelineEvent{
		IncidentID:  incident.ID,
		EventType:   models.TimelineEventAlertCreated,
		Description: alert.Message,
		Temperature: &reading.Temperature,
		Metadata:    fmt.Sprintf(`{"alert_id":%d,"alert_type":"%s"}`, alert.ID, alert.Type),
	})

	return incident, nil
}

// AutoResolve 读数恢复正常时自动解决设备所有进行中的事件
// 按设备+状态集合扫描而不是假设唯一，必须在设备锁内调用
func (s *IncidentService) AutoResolve(deviceID string, reading *models.Reading) ([]models.Incident, error) {
	active, err := s.incidentRepo.GetActiveByDevice(deviceID)
	if err != nil {
		return nil, err
	}

	var resolved []models.Incident
	now := time.Now()
	for i := range active {
		incident := &active[i]
		previous := incident.Status
		incident.Status = models.IncidentStatusResolved
		incident.EndTime = &now

		if err := s.incidentRepo.Update(incident); err != nil {
			log.Printf("[Incident] 自动解决事件 %d 失败: %v", incident.ID, err)
			continue
		}

		s.appendTimeline(&models.IncidentTimelineEvent{
			IncidentID:  incident.ID,
			EventType:   models.TimelineEventStatusChanged,
			Description: fmt.Sprintf("温度恢复正常（%.1f°C），事件自动解决", reading.Temperature),
			Temperature: &reading.Temperature,
			Metadata:    fmt.Sprintf(`{"from":"%s","to":"%s","auto":true}`, previous, incident.Status),
		})
		resolved = append(resolved, *incident)
	}

	return resolved, nil
}

// Acknowledge 操作员确认事件
// 仅允许从 open/investigating 确认；确认后如设备最新读数已恢复正常，
// 在同一次操作内级联自动解决（时间线分别记录确认和解决两条）
func (s *IncidentService) Acknowledge(incidentID, operatorID uint, note string) (*models.Incident, error) {
	incident, unlock, err := s.lockIncident(incidentID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.acknowledgeLocked(incident, operatorID, note)
}

// lockIncident 获取事件对应的设备锁，持锁后重读事件，返回解锁函数
func (s *IncidentService) lockIncident(incidentID uint) (*models.Incident, func(), error) {
	incident, err := s.getIncident(incidentID)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.Lock(incident.DeviceID)
	// 等锁期间读数评估可能已流转了事件，重读拿最新状态
	incident, err = s.getIncident(incidentID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return incident, unlock, nil
}

// acknowledgeLocked 在持有设备锁的前提下执行确认流转
func (s *IncidentService) acknowledgeLocked(incident *models.Incident, operatorID uint, note string) (*models.Incident, error) {
	operator, err := s.getOperator(operatorID)
	if err != nil {
		return nil, err
	}

	if !monitoring.CanAcknowledge(incident.Status) {
		return nil, conflictError("事件当前状态为 %s，无法确认", incident.Status)
	}

	previous := incident.Status
	incident.Status = models.IncidentStatusAcknowledged
	incident.AssignedToID = &operator.ID
	if err := s.incidentRepo.Update(incident); err != nil {
		return nil, err
	}

	description := fmt.Sprintf("操作员 %s 已确认事件", operator.Name)
	if note != "" {
		description = fmt.Sprintf("%s：%s", description, note)
	}
	s.appendTimeline(&models.IncidentTimelineEvent{
		IncidentID:  incident.ID,
		EventType:   models.TimelineEventStatusChanged,
		Description: description,
		OperatorID:  &operator.ID,
		Metadata:    fmt.Sprintf(`{"from":"%s","to":"%s"}`, previous, incident.Status),
	})

	// 最新读数已恢复正常时级联解决
	if s.latestReadingIsNormal(incident.DeviceID) {
		now := time.Now()
		incident.Status = models.IncidentStatusResolved
		incident.EndTime = &now
		incident.ResolvedByID = &operator.ID
		if err := s.incidentRepo.Update(incident); err != nil {
			return nil, err
		}

		s.appendTimeline(&models.IncidentTimelineEvent{
			IncidentID:  incident.ID,
			EventType:   models.TimelineEventStatusChanged,
			Description: "确认时设备温度已恢复正常，事件自动解决",
			OperatorID:  &operator.ID,
			Metadata:    fmt.Sprintf(`{"from":"%s","to":"%s","auto":true}`, models.IncidentStatusAcknowledged, incident.Status),
		})
	}

	return incident, nil
}

// Resolve 操作员手动解决事件
func (s *IncidentService) Resolve(incidentID, operatorID uint) (*models.Incident, error) {
	incident, unlock, err := s.lockIncident(incidentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	operator, err := s.getOperator(operatorID)
	if err != nil {
		return nil, err
	}

	if !monitoring.CanTransition(incident.Status, models.IncidentStatusResolved) {
		return nil, conflictError("事件当前状态为 %s，无法解决", incident.Status)
	}

	previous := incident.Status
	now := time.Now()
	incident.Status = models.IncidentStatusResolved
	incident.EndTime = &now
	incident.ResolvedByID = &operator.ID
	if err := s.incidentRepo.Update(incident); err != nil {
		return nil, err
	}

	s.appendTimeline(&models.IncidentTimelineEvent{
		IncidentID:  incident.ID,
		EventType:   models.TimelineEventStatusChanged,
		Description: fmt.Sprintf("操作员 %s 解决了事件", operator.Name),
		OperatorID:  &operator.ID,
		Metadata:    fmt.Sprintf(`{"from":"%s","to":"%s"}`, previous, incident.Status),
	})

	return incident, nil
}

// AddComment 添加处理备注，已关闭的事件不再接受备注
// 标记"已采取措施"的备注同时执行确认流转（当前状态允许时）
func (s *IncidentService) AddComment(incidentID, operatorID uint, comment string, actionTaken bool) (*models.IncidentComment, error) {
	if comment == "" {
		return nil, validationError("备注内容不能为空")
	}

	incident, unlock, err := s.lockIncident(incidentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if incident.Status == models.IncidentStatusClosed {
		return nil, conflictError("事件已关闭，无法添加备注")
	}

	operator, err := s.getOperator(operatorID)
	if err != nil {
		return nil, err
	}

	record := &models.IncidentComment{
		IncidentID:  incident.ID,
		OperatorID:  operator.ID,
		Comment:     comment,
		ActionTaken: actionTaken,
	}
	if err := s.incidentRepo.CreateComment(record); err != nil {
		return nil, err
	}

	s.appendTimeline(&models.IncidentTimelineEvent{
		IncidentID:  incident.ID,
		EventType:   models.TimelineEventCommentAdded,
		Description: fmt.Sprintf("操作员 %s 添加了备注", operator.Name),
		OperatorID:  &operator.ID,
		Metadata:    fmt.Sprintf(`{"comment_id":%d,"action_taken":%t}`, record.ID, actionTaken),
	})

	if actionTaken && monitoring.CanAcknowledge(incident.Status) {
		if _, err := s.acknowledgeLocked(incident, operator.ID, ""); err != nil {
			log.Printf("[Incident] 备注触发确认失败: %v", err)
		}
	}

	return record, nil
}

// Close 关闭已解决的事件
func (s *IncidentService) Close(incidentID, operatorID uint) (*models.Incident, error) {
	incident, unlock, err := s.lockIncident(incidentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	operator, err := s.getOperator(operatorID)
	if err != nil {
		return nil, err
	}

	if !monitoring.CanTransition(incident.Status, models.IncidentStatusClosed) {
		return nil, conflictError("事件当前状态为 %s，无法关闭", incident.Status)
	}

	previous := incident.Status
	incident.Status = models.IncidentStatusClosed
	if err := s.incidentRepo.Update(incident); err != nil {
		return nil, err
	}

	s.appendTimeline(&models.IncidentTimelineEvent{
		IncidentID:  incident.ID,
		EventType:   models.TimelineEventStatusChanged,
		Description: fmt.Sprintf("操作员 %s 关闭了事件", operator.Name),
		OperatorID:  &operator.ID,
		Metadata:    fmt.Sprintf(`{"from":"%s","to":"%s"}`, previous, incident.Status),
	})

	return incident, nil
}

// List 分页获取事件列表
func (s *IncidentService) List(current, size int, status string, start, end *time.Time) ([]models.Incident, int64, error) {
	return s.incidentRepo.List(current, size, status, start, end)
}

// Get 获取事件详情
func (s *IncidentService) Get(id uint) (*models.Incident, error) {
	return s.getIncident(id)
}

// GetTimeline 获取事件时间线
func (s *IncidentService) GetTimeline(incidentID uint) ([]models.IncidentTimelineEvent, error) {
	if _, err := s.getIncident(incidentID); err != nil {
		return nil, err
	}
	return s.incidentRepo.GetTimeline(incidentID)
}

// GetComments 获取事件备注
func (s *IncidentService) GetComments(incidentID uint) ([]models.IncidentComment, error) {
	if _, err := s.getIncident(incidentID); err != nil {
		return nil, err
	}
	return s.incidentRepo.GetComments(incidentID)
}

func (s *IncidentService) getIncident(id uint) (*models.Incident, error) {
	incident, err := s.incidentRepo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("事件 %d 不存在", id)
	}
	return incident, err
}

func (s *IncidentService) getOperator(id uint) (*models.Operator, error) {
	operator, err := s.operatorRepo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("操作员 %d 不存在", id)
	}
	return operator, err
}

// latestReadingIsNormal 设备最新读数是否在正常区间内
func (s *IncidentService) latestReadingIsNormal(deviceID string) bool {
	reading, err := s.readingRepo.Latest(deviceID)
	if err != nil {
		return false
	}
	policy, err := s.settingsService.CurrentPolicy()
	if err != nil {
		return false
	}
	return policy.Classify(reading.Temperature) == monitoring.TempNormal
}

// appendTimeline 追加时间线，失败只记录日志，不影响主流程
func (s *IncidentService) appendTimeline(event *models.IncidentTimelineEvent) {
	if err := s.incidentRepo.AppendTimelineEvent(event); err != nil {
		log.Printf("[Incident] 记录时间线失败: %v", err)
	}
}
