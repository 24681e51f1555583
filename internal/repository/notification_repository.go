package repository

import (
	"time"

	"coldwatch/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create 创建通知记录
func (r *NotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// GetByID 根据ID获取通知
func (r *NotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.First(&notification, id).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// Update 更新通知
func (r *NotificationRepository) Update(notification *models.Notification) error {
	return r.db.Save(notification).Error
}

// MarkSent 标记通知发送成功
func (r *NotificationRepository) MarkSent(id uint, sentAt time.Time) error {
	return r.db.Model(&models.Notification{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  models.NotificationStatusSent,
			"sent_at": sentAt,
		}).Error
}

// MarkFailed 标记通知失败并记录原因
func (r *NotificationRepository) MarkFailed(id uint, retryCount int, errMsg string) error {
	return r.db.Model(&models.Notification{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.NotificationStatusFailed,
			"retry_count":   retryCount,
			"error_message": errMsg,
		}).Error
}

// MarkRead 标记通知已读
func (r *NotificationRepository) MarkRead(id uint, readAt time.Time) error {
	return r.db.Model(&models.Notification{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  models.NotificationStatusRead,
			"read_at": readAt,
		}).Error
}

// List 分页获取通知列表
func (r *NotificationRepository) List(current, size int, filters map[string]interface{}) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	query := r.db.Model(&models.Notification{})
	for key, value := range filters {
		if value != nil && value != "" {
			query = query.Where(key+" = ?", value)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (current - 1) * size
	if err := query.Offset(offset).Limit(size).Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// GetPending 获取所有待发送的通知（调度器启动时重新入队）
func (r *NotificationRepository) GetPending() ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("status = ?", models.NotificationStatusPending).
		Order("created_at ASC").Find(&notifications).Error
	return notifications, err
}

// GetUnread 获取未读通知（含发送失败的，供操作员人工跟进）
func (r *NotificationRepository) GetUnread(operatorID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("operator_id = ? AND status IN ?", operatorID,
		[]models.NotificationStatus{
			models.NotificationStatusSent,
			models.NotificationStatusDelivered,
			models.NotificationStatusFailed,
		}).Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

// GetByIncident 获取事件关联的通知
func (r *NotificationRepository) GetByIncident(incidentID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("incident_id = ?", incidentID).
		Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}
