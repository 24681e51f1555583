package repository

import (
	"coldwatch/internal/models"

	"gorm.io/gorm"
)

type OperatorRepository struct {
	db *gorm.DB
}

func NewOperatorRepository(db *gorm.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

// Create 创建操作员
func (r *OperatorRepository) Create(operator *models.Operator) error {
	return r.db.Create(operator).Error
}

// GetByID 根据ID获取操作员
func (r *OperatorRepository) GetByID(id uint) (*models.Operator, error) {
	var operator models.Operator
	err := r.db.First(&operator, id).Error
	if err != nil {
		return nil, err
	}
	return &operator, nil
}

// Update 更新操作员信息
func (r *OperatorRepository) Update(operator *models.Operator) error {
	return r.db.Save(operator).Error
}

// Delete 删除操作员
func (r *OperatorRepository) Delete(id uint) error {
	return r.db.Delete(&models.Operator{}, id).Error
}

// List 获取操作员列表，按优先级和姓名排序
func (r *OperatorRepository) List() ([]models.Operator, error) {
	var operators []models.Operator
	err := r.db.Order("priority ASC, name ASC").Find(&operators).Error
	return operators, err
}

// GetActiveByPriority 获取指定优先级的在值操作员
func (r *OperatorRepository) GetActiveByPriority(priority int) ([]models.Operator, error) {
	var operators []models.Operator
	err := r.db.Where("is_active = ? AND priority = ?", true, priority).
		Order("name ASC").Find(&operators).Error
	return operators, err
}

// GetActiveUpToPriority 获取优先级不高于指定级别的在值操作员
// 用于可配置的"通知所有已升级层级"策略
func (r *OperatorRepository) GetActiveUpToPriority(priority int) ([]models.Operator, error) {
	var operators []models.Operator
	err := r.db.Where("is_active = ? AND priority <= ?", true, priority).
		Order("priority ASC, name ASC").Find(&operators).Error
	return operators, err
}
