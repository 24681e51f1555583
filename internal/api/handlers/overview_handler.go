package handlers

import (
	"coldwatch/internal/service"
	"coldwatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

type OverviewHandler struct {
	deviceService *service.DeviceService
	alertService  *service.AlertService
}

func NewOverviewHandler(deviceService *service.DeviceService, alertService *service.AlertService) *OverviewHandler {
	return &OverviewHandler{
		deviceService: deviceService,
		alertService:  alertService,
	}
}

// GetOverview godoc
// @Summary 监控总览
// @Description 汇总设备在线情况与告警统计，用于首页大盘
// @Tags 系统监控
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Router /overview [get]
func (h *OverviewHandler) GetOverview(c *gin.Context) {
	devices, err := h.deviceService.Overview()
	if err != nil {
		utils.Error(c, utils.ERROR, "获取设备总览失败")
		return
	}

	alerts, err := h.alertService.Stats()
	if err != nil {
		utils.Error(c, utils.ERROR, "获取告警统计失败")
		return
	}

	utils.Success(c, gin.H{
		"devices": devices,
		"alerts":  alerts,
	})
}
