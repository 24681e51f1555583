package handlers

import (
	"errors"
	"strconv"

	"coldwatch/internal/service"
	"coldwatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// ListNotifications godoc
// @Summary 获取通知列表
// @Description 分页获取通知记录（支持操作员和状态过滤）
// @Tags 通知管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param current query int false "当前页" default(1)
// @Param size query int false "每页大小" default(20)
// @Param operator_id query int false "值班人员ID"
// @Param status query string false "通知状态" Enums(pending, sending, sent, failed, read)
// @Success 200 {object} utils.Response{data=utils.PageResult}
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	current, _ := strconv.Atoi(c.DefaultQuery("current", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	operatorID, _ := strconv.ParseUint(c.DefaultQuery("operator_id", "0"), 10, 32)

	notifications, total, err := h.notificationService.List(current, size, uint(operatorID), c.Query("status"))
	if err != nil {
		utils.Error(c, utils.ERROR, "获取通知列表失败")
		return
	}

	utils.SuccessWithPage(c, notifications, current, size, total)
}

// GetUnreadNotifications godoc
// @Summary 获取未读通知
// @Description 获取操作员的未读及发送失败的通知
// @Tags 通知管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param operator_id query int true "值班人员ID"
// @Success 200 {object} utils.Response{data=[]models.Notification}
// @Router /notifications/unread [get]
func (h *NotificationHandler) GetUnreadNotifications(c *gin.Context) {
	operatorID, err := strconv.ParseUint(c.Query("operator_id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的人员ID")
		return
	}

	notifications, err := h.notificationService.GetUnread(uint(operatorID))
	if err != nil {
		utils.Error(c, utils.ERROR, "获取未读通知失败")
		return
	}

	utils.Success(c, notifications)
}

// MarkNotificationRead godoc
// @Summary 标记通知已读
// @Description 将通知标记为已读（重复标记为幂等操作）
// @Tags 通知管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "通知ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的通知ID")
		return
	}

	if err := h.notificationService.MarkRead(uint(id)); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.Error(c, utils.NOT_FOUND, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "标记已读失败")
		return
	}

	utils.SuccessWithMessage(c, nil, "已标记为已读")
}

// GetIncidentNotifications godoc
// @Summary 获取事件相关通知
// @Tags 通知管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "事件ID"
// @Success 200 {object} utils.Response{data=[]models.Notification}
// @Router /incidents/{id}/notifications [get]
func (h *NotificationHandler) GetIncidentNotifications(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的事件ID")
		return
	}

	notifications, err := h.notificationService.GetByIncident(uint(id))
	if err != nil {
		utils.Error(c, utils.ERROR, "获取事件通知失败")
		return
	}

	utils.Success(c, notifications)
}
