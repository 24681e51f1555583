package handlers

import (
	"errors"
	"strconv"

	"coldwatch/internal/service"
	"coldwatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	alertService *service.AlertService
}

func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
	}
}

// ListAlerts godoc
// @Summary 获取告警列表
// @Description 分页获取告警记录（支持类型/设备/解决状态过滤）
// @Tags 告警管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param current query int false "当前页" default(1)
// @Param size query int false "每页大小" default(20)
// @Param type query string false "告警类型"
// @Param device_id query string false "设备唯一标识"
// @Param resolved query bool false "是否已解决"
// @Success 200 {object} utils.Response{data=utils.PageResult}
// @Router /alerts [get]
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	current, _ := strconv.Atoi(c.DefaultQuery("current", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	var resolved *bool
	if raw := c.Query("resolved"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			utils.Error(c, utils.VALIDATION_ERROR, "无效的resolved参数")
			return
		}
		resolved = &value
	}

	alerts, total, err := h.alertService.List(current, size, c.Query("type"), c.Query("device_id"), resolved)
	if err != nil {
		utils.Error(c, utils.ERROR, "获取告警列表失败")
		return
	}

	utils.SuccessWithPage(c, alerts, current, size, total)
}

// GetActiveAlerts godoc
// @Summary 获取当前活动告警
// @Tags 告警管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response{data=[]models.Alert}
// @Router /alerts/active [get]
func (h *AlertHandler) GetActiveAlerts(c *gin.Context) {
	alerts, err := h.alertService.GetActive()
	if err != nil {
		utils.Error(c, utils.ERROR, "获取活动告警失败")
		return
	}

	utils.Success(c, alerts)
}

// GetAlert godoc
// @Summary 获取告警详情
// @Tags 告警管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "告警ID"
// @Success 200 {object} utils.Response{data=models.Alert}
// @Failure 404 {object} utils.Response
// @Router /alerts/{id} [get]
func (h *AlertHandler) GetAlert(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的告警ID")
		return
	}

	alert, err := h.alertService.Get(uint(id))
	if err != nil {
		utils.Error(c, utils.NOT_FOUND, "告警不存在")
		return
	}

	utils.Success(c, alert)
}

// ResolveAlert godoc
// @Summary 手动解决告警
// @Description 将告警标记为已解决（已解决的告警重复操作返回冲突）
// @Tags 告警管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "告警ID"
// @Success 200 {object} utils.Response{data=models.Alert}
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /alerts/{id}/resolve [post]
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的告警ID")
		return
	}

	userID := c.GetUint("userID")
	alert, err := h.alertService.Resolve(uint(id), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.Error(c, utils.NOT_FOUND, err.Error())
			return
		}
		if errors.Is(err, service.ErrConflict) {
			utils.Error(c, utils.CONFLICT, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "解决告警失败")
		return
	}

	utils.Success(c, alert)
}

// GetAlertStats godoc
// @Summary 告警统计
// @Description 按类型和严重级别统计告警数量
// @Tags 告警管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response{data=service.AlertStats}
// @Router /alerts/stats [get]
func (h *AlertHandler) GetAlertStats(c *gin.Context) {
	stats, err := h.alertService.Stats()
	if err != nil {
		utils.Error(c, utils.ERROR, "告警统计失败")
		return
	}

	utils.Success(c, stats)
}
