package service

import (
	"errors"
	"time"

	"coldwatch/internal/models"
	"coldwatch/internal/repository"

	"gorm.io/gorm"
)

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
}

func NewNotificationService(notificationRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
	}
}

// List 分页获取通知列表
func (s *NotificationService) List(current, size int, operatorID uint, status string) ([]models.Notification, int64, error) {
	filters := make(map[string]interface{})
	if operatorID > 0 {
		filters["operator_id"] = operatorID
	}
	if status != "" {
		filters["status"] = status
	}
	return s.notificationRepo.List(current, size, filters)
}

// GetUnread 获取操作员的未读通知（含投递失败的，供人工跟进）
func (s *NotificationService) GetUnread(operatorID uint) ([]models.Notification, error) {
	return s.notificationRepo.GetUnread(operatorID)
}

// MarkRead 标记通知已读
func (s *NotificationService) MarkRead(id uint) error {
	notification, err := s.notificationRepo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError("通知 %d 不存在", id)
	}
	if err != nil {
		return err
	}

	if notification.Status == models.NotificationStatusRead {
		return nil
	}
	return s.notificationRepo.MarkRead(id, time.Now())
}

// GetByIncident 获取事件关联的通知
func (s *NotificationService) GetByIncident(incidentID uint) ([]models.Notification, error) {
	return s.notificationRepo.GetByIncident(incidentID)
}
