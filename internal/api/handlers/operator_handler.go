package handlers

import (
	"errors"
	"strconv"

	"coldwatch/internal/models"
	"coldwatch/internal/service"
	"coldwatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

type OperatorHandler struct {
	operatorService *service.OperatorService
}

func NewOperatorHandler(operatorService *service.OperatorService) *OperatorHandler {
	return &OperatorHandler{
		operatorService: operatorService,
	}
}

// CreateOperator godoc
// @Summary 创建值班人员
// @Description 创建值班人员（仅管理员），优先级决定升级梯次
// @Tags 值班人员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param operator body models.Operator true "值班人员信息"
// @Success 200 {object} utils.Response{data=models.Operator}
// @Failure 400 {object} utils.Response
// @Router /operators [post]
func (h *OperatorHandler) CreateOperator(c *gin.Context) {
	var operator models.Operator
	if err := c.ShouldBindJSON(&operator); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, err.Error())
		return
	}

	if err := h.operatorService.Create(&operator); err != nil {
		if errors.Is(err, service.ErrValidation) {
			utils.Error(c, utils.VALIDATION_ERROR, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "创建值班人员失败")
		return
	}

	utils.Success(c, operator)
}

// ListOperators godoc
// @Summary 获取值班人员列表
// @Tags 值班人员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response{data=[]models.Operator}
// @Router /operators [get]
func (h *OperatorHandler) ListOperators(c *gin.Context) {
	operators, err := h.operatorService.List()
	if err != nil {
		utils.Error(c, utils.ERROR, "获取值班人员列表失败")
		return
	}

	utils.Success(c, operators)
}

// GetOperator godoc
// @Summary 获取值班人员详情
// @Tags 值班人员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "值班人员ID"
// @Success 200 {object} utils.Response{data=models.Operator}
// @Failure 404 {object} utils.Response
// @Router /operators/{id} [get]
func (h *OperatorHandler) GetOperator(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的人员ID")
		return
	}

	operator, err := h.operatorService.Get(uint(id))
	if err != nil {
		utils.Error(c, utils.NOT_FOUND, "值班人员不存在")
		return
	}

	utils.Success(c, operator)
}

// UpdateOperator godoc
// @Summary 更新值班人员
// @Description 更新联系方式、优先级、通知渠道和启用状态（仅管理员）
// @Tags 值班人员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "值班人员ID"
// @Param operator body models.Operator true "值班人员信息"
// @Success 200 {object} utils.Response{data=models.Operator}
// @Failure 404 {object} utils.Response
// @Router /operators/{id} [put]
func (h *OperatorHandler) UpdateOperator(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的人员ID")
		return
	}

	operator, err := h.operatorService.Get(uint(id))
	if err != nil {
		utils.Error(c, utils.NOT_FOUND, "值班人员不存在")
		return
	}

	var input models.Operator
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, err.Error())
		return
	}

	operator.Name = input.Name
	operator.Email = input.Email
	operator.TelegramID = input.TelegramID
	operator.Phone = input.Phone
	operator.Priority = input.Priority
	operator.EmailEnabled = input.EmailEnabled
	operator.TelegramEnabled = input.TelegramEnabled
	operator.IsActive = input.IsActive

	if err := h.operatorService.Update(operator); err != nil {
		if errors.Is(err, service.ErrValidation) {
			utils.Error(c, utils.VALIDATION_ERROR, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "更新值班人员失败")
		return
	}

	utils.Success(c, operator)
}

// DeleteOperator godoc
// @Summary 删除值班人员
// @Tags 值班人员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "值班人员ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /operators/{id} [delete]
func (h *OperatorHandler) DeleteOperator(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的人员ID")
		return
	}

	if err := h.operatorService.Delete(uint(id)); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.Error(c, utils.NOT_FOUND, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "删除值班人员失败")
		return
	}

	utils.SuccessWithMessage(c, nil, "删除成功")
}
