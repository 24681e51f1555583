package service

import (
	"fmt"
	"log"
	"time"

	"coldwatch/internal/models"
	"coldwatch/internal/notify"
	"coldwatch/internal/repository"
)

// EscalationService 事件升级通知服务
// 根据升级级别选择操作员层级，按通道偏好生成通知记录并提交异步投递
type EscalationService struct {
	operatorRepo     *repository.OperatorRepository
	notificationRepo *repository.NotificationRepository
	dispatcher       *notify.Dispatcher

	// 为真时通知所有不高于当前级别的层级，为假时只通知新到达的层级
	// 历史实现两种语义都出现过，默认采用只通知新层级
	notifyLowerTiers bool
}

func NewEscalationService(operatorRepo *repository.OperatorRepository, notificationRepo *repository.NotificationRepository, dispatcher *notify.Dispatcher, notifyLowerTiers bool) *EscalationService {
	return &EscalationService{
		operatorRepo:     operatorRepo,
		notificationRepo: notificationRepo,
		dispatcher:       dispatcher,
		notifyLowerTiers: notifyLowerTiers,
	}
}

// NotifyIncidentLevel 通知事件升级到指定级别
// 每个（操作员, 通道）生成一条 pending 通知并入队，
// 通知记录先落库再投递，投递失败不回滚事件状态
func (s *EscalationService) NotifyIncidentLevel(incident *models.Incident, device *models.Device, reading *models.Reading, level int) error {
	operators, err := s.selectOperators(level)
	if err != nil {
		return err
	}
	if len(operators) == 0 {
		log.Printf("[Escalation] 没有 %d 级在值操作员，事件 %d 的通知被跳过", level, incident.ID)
		return nil
	}

	message := s.buildIncidentMessage(incident, device, reading, level)
	tracker := notify.NewBatchTracker(level)

	for _, operator := range operators {
		channels := operator.NotificationChannels()
		if len(channels) == 0 {
			log.Printf("[Escalation] 操作员 %s 没有可用通知通道", operator.Name)
			continue
		}

		for _, channel := range channels {
			if err := s.enqueue(&operator, channel, message, nil, &incident.ID, tracker); err != nil {
				log.Printf("[Escalation] 创建通知记录失败: %v", err)
			}
		}
	}

	return nil
}

// NotifyAlert 将独立告警（断电、低电量、失联等）直接通知一级操作员
func (s *EscalationService) NotifyAlert(alert *models.Alert, device *models.Device) error {
	operators, err := s.operatorRepo.GetActiveByPriority(models.OperatorPriorityPrimary)
	if err != nil {
		return err
	}

	message := s.buildAlertMessage(alert, device)

	for _, operator := range operators {
		for _, channel := range operator.NotificationChannels() {
			if err := s.enqueue(&operator, channel, message, &alert.ID, nil, nil); err != nil {
				log.Printf("[Escalation] 创建告警通知失败: %v", err)
			}
		}
	}

	return nil
}

// selectOperators 选择指定级别的在值操作员
func (s *EscalationService) selectOperators(level int) ([]models.Operator, error) {
	if s.notifyLowerTiers {
		return s.operatorRepo.GetActiveUpToPriority(level)
	}
	return s.operatorRepo.GetActiveByPriority(level)
}

// enqueue 落库一条 pending 通知并提交投递
func (s *EscalationService) enqueue(operator *models.Operator, channel models.NotificationChannel, message string, alertID, incidentID *uint, tracker *notify.BatchTracker) error {
	notification := &models.Notification{
		OperatorID: operator.ID,
		AlertID:    alertID,
		IncidentID: incidentID,
		Channel:    channel,
		Message:    message,
		Status:     models.NotificationStatusPending,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return err
	}

	s.dispatcher.Enqueue(notify.Job{
		NotificationID: notification.ID,
		OperatorID:     operator.ID,
		IncidentID:     incidentID,
		Channel:        channel,
		Address:        operator.AddressFor(channel),
		Message:        message,
		Tracker:        tracker,
	})
	return nil
}

func (s *EscalationService) buildIncidentMessage(incident *models.Incident, device *models.Device, reading *models.Reading, level int) string {
	temperature := "未知"
	if reading != nil {
		temperature = fmt.Sprintf("%.1f°C", reading.Temperature)
	}
	return fmt.Sprintf(
		"【冷库告警 %d级】设备: %s（%s）\n当前温度: %s\n累计告警: %d 次\n事件开始: %s\n请尽快处理。",
		level, device.Name, device.Location, temperature,
		incident.AlertCount, incident.StartTime.Format(time.DateTime))
}

func (s *EscalationService) buildAlertMessage(alert *models.Alert, device *models.Device) string {
	return fmt.Sprintf("【冷库告警】设备: %s（%s）\n%s\n时间: %s",
		device.Name, device.Location, alert.Message,
		alert.CreatedAt.Format(time.DateTime))
}
