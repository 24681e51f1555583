package repository

import (
	"time"

	"coldwatch/internal/models"

	"gorm.io/gorm"
)

type IncidentRepository struct {
	db *gorm.DB
}

func NewIncidentRepository(db *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// Create 创建事件
func (r *IncidentRepository) Create(incident *models.Incident) error {
	return r.db.Create(incident).Error
}

// GetByID 根据ID获取事件
func (r *IncidentRepository) GetByID(id uint) (*models.Incident, error) {
	var incident models.Incident
	err := r.db.First(&incident, id).Error
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

// Update 更新事件
func (r *IncidentRepository) Update(incident *models.Incident) error {
	return r.db.Save(incident).Error
}

// GetActiveByDevice 获取设备所有进行中的事件
// 按状态集合扫描而不是假设唯一，不变量由监控核心维护
func (r *IncidentRepository) GetActiveByDevice(deviceID string) ([]models.Incident, error) {
	var incidents []models.Incident
	err := r.db.Where("device_id = ? AND status IN ?", deviceID, models.ActiveIncidentStatuses).
		Order("start_time ASC").Find(&incidents).Error
	return incidents, err
}

// CountActiveByDevice 统计设备进行中的事件数量
func (r *IncidentRepository) CountActiveByDevice(deviceID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Incident{}).
		Where("device_id = ? AND status IN ?", deviceID, models.ActiveIncidentStatuses).
		Count(&count).Error
	return count, err
}

// List 分页获取事件列表，支持状态和时间段过滤
func (r *IncidentRepository) List(current, size int, status string, start, end *time.Time) ([]models.Incident, int64, error) {
	var incidents []models.Incident
	var total int64

	query := r.db.Model(&models.Incident{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if start != nil {
		query = query.Where("start_time >= ?", *start)
	}
	if end != nil {
		query = query.Where("start_time <= ?", *end)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (current - 1) * size
	if err := query.Offset(offset).Limit(size).Order("start_time DESC").Find(&incidents).Error; err != nil {
		return nil, 0, err
	}

	return incidents, total, nil
}

// AppendTimelineEvent 追加时间线记录（只增不改）
func (r *IncidentRepository) AppendTimelineEvent(event *models.IncidentTimelineEvent) error {
	return r.db.Create(event).Error
}

// GetTimeline 获取事件的时间线，按时间正序
func (r *IncidentRepository) GetTimeline(incidentID uint) ([]models.IncidentTimelineEvent, error) {
	var events []models.IncidentTimelineEvent
	err := r.db.Where("incident_id = ?", incidentID).
		Order("created_at ASC, id ASC").Find(&events).Error
	return events, err
}

// CreateComment 创建事件备注
func (r *IncidentRepository) CreateComment(comment *models.IncidentComment) error {
	return r.db.Create(comment).Error
}

// GetComments 获取事件的全部备注，按时间倒序
func (r *IncidentRepository) GetComments(incidentID uint) ([]models.IncidentComment, error) {
	var comments []models.IncidentComment
	err := r.db.Where("incident_id = ?", incidentID).
		Order("created_at DESC").Find(&comments).Error
	return comments, err
}
