package service

import (
	"errors"

	"coldwatch/internal/models"
	"coldwatch/internal/repository"

	"gorm.io/gorm"
)

type OperatorService struct {
	operatorRepo *repository.OperatorRepository
}

func NewOperatorService(operatorRepo *repository.OperatorRepository) *OperatorService {
	return &OperatorService{
		operatorRepo: operatorRepo,
	}
}

// Create 创建操作员
func (s *OperatorService) Create(operator *models.Operator) error {
	if err := s.validate(operator); err != nil {
		return err
	}
	return s.operatorRepo.Create(operator)
}

// Get 获取操作员详情
func (s *OperatorService) Get(id uint) (*models.Operator, error) {
	operator, err := s.operatorRepo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("操作员 %d 不存在", id)
	}
	return operator, err
}

// List 获取操作员列表
func (s *OperatorService) List() ([]models.Operator, error) {
	return s.operatorRepo.List()
}

// Update 更新操作员
func (s *OperatorService) Update(operator *models.Operator) error {
	if _, err := s.Get(operator.ID); err != nil {
		return err
	}
	if err := s.validate(operator); err != nil {
		return err
	}
	return s.operatorRepo.Update(operator)
}

// Delete 删除操作员
func (s *OperatorService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.operatorRepo.Delete(id)
}

// validate 校验操作员字段
func (s *OperatorService) validate(operator *models.Operator) error {
	if operator.Name == "" {
		return validationError("操作员姓名不能为空")
	}
	if operator.Priority < models.OperatorPriorityPrimary || operator.Priority > models.OperatorPriorityTertiary {
		return validationError("优先级必须在 1-3 之间")
	}
	if operator.EmailEnabled && operator.Email == "" {
		return validationError("启用邮件通知时必须填写邮箱")
	}
	if operator.TelegramEnabled && operator.TelegramID == "" {
		return validationError("启用Telegram通知时必须填写chat id")
	}
	return nil
}
