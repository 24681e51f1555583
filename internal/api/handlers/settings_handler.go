package handlers

import (
	"errors"

	"coldwatch/internal/models"
	"coldwatch/internal/service"
	"coldwatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
	}
}

// GetSettings godoc
// @Summary 获取系统设置
// @Description 获取当前的温度阈值与告警抑制配置
// @Tags 系统设置
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response{data=models.SystemSettings}
// @Router /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Get()
	if err != nil {
		utils.Error(c, utils.ERROR, "获取系统设置失败")
		return
	}

	utils.Success(c, settings)
}

// UpdateSettings godoc
// @Summary 更新系统设置
// @Description 更新温度阈值与告警抑制窗口（仅管理员），新阈值只作用于后续读数
// @Tags 系统设置
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param settings body models.SystemSettings true "系统设置"
// @Success 200 {object} utils.Response{data=models.SystemSettings}
// @Failure 400 {object} utils.Response
// @Router /settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	current, err := h.settingsService.Get()
	if err != nil {
		utils.Error(c, utils.ERROR, "获取系统设置失败")
		return
	}

	var input models.SystemSettings
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, err.Error())
		return
	}

	// 保留单例主键，仅覆盖可配置字段
	input.ID = current.ID
	if err := h.settingsService.Update(&input); err != nil {
		if errors.Is(err, service.ErrValidation) {
			utils.Error(c, utils.VALIDATION_ERROR, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "更新系统设置失败")
		return
	}

	utils.Success(c, input)
}
