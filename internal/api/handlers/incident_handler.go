package handlers

import (
	"errors"
	"strconv"
	"time"

	"coldwatch/internal/service"
	"coldwatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

type IncidentHandler struct {
	incidentService *service.IncidentService
}

func NewIncidentHandler(incidentService *service.IncidentService) *IncidentHandler {
	return &IncidentHandler{
		incidentService: incidentService,
	}
}

// AcknowledgeRequest 确认事件的请求体
type AcknowledgeRequest struct {
	OperatorID uint   `json:"operator_id" binding:"required"`
	Note       string `json:"note"`
}

// ResolveRequest 解决/关闭事件的请求体
type ResolveRequest struct {
	OperatorID uint `json:"operator_id" binding:"required"`
}

// CommentRequest 事件备注的请求体
type CommentRequest struct {
	OperatorID  uint   `json:"operator_id" binding:"required"`
	Comment     string `json:"comment" binding:"required"`
	ActionTaken bool   `json:"action_taken"`
}

// ListIncidents godoc
// @Summary 获取事件列表
// @Description 分页获取事件（支持状态和时间段过滤）
// @Tags 事件管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param current query int false "当前页" default(1)
// @Param size query int false "每页大小" default(20)
// @Param status query string false "事件状态" Enums(open, acknowledged, investigating, resolved, closed)
// @Param start query string false "开始时间(RFC3339)"
// @Param end query string false "结束时间(RFC3339)"
// @Success 200 {object} utils.Response{data=utils.PageResult}
// @Router /incidents [get]
func (h *IncidentHandler) ListIncidents(c *gin.Context) {
	current, _ := strconv.Atoi(c.DefaultQuery("current", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	var start, end *time.Time
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.Error(c, utils.VALIDATION_ERROR, "无效的开始时间")
			return
		}
		start = &t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.Error(c, utils.VALIDATION_ERROR, "无效的结束时间")
			return
		}
		end = &t
	}

	incidents, total, err := h.incidentService.List(current, size, c.Query("status"), start, end)
	if err != nil {
		utils.Error(c, utils.ERROR, "获取事件列表失败")
		return
	}

	utils.SuccessWithPage(c, incidents, current, size, total)
}

// GetIncident godoc
// @Summary 获取事件详情
// @Tags 事件管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "事件ID"
// @Success 200 {object} utils.Response{data=models.Incident}
// @Failure 404 {object} utils.Response
// @Router /incidents/{id} [get]
func (h *IncidentHandler) GetIncident(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的事件ID")
		return
	}

	incident, err := h.incidentService.Get(uint(id))
	if err != nil {
		utils.Error(c, utils.NOT_FOUND, "事件不存在")
		return
	}

	utils.Success(c, incident)
}

// AcknowledgeIncident godoc
// @Summary 确认事件
// @Description 值班人员确认事件；若设备最新读数已恢复正常则级联解决
// @Tags 事件管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "事件ID"
// @Param request body AcknowledgeRequest true "确认信息"
// @Success 200 {object} utils.Response{data=models.Incident}
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /incidents/{id}/acknowledge [post]
func (h *IncidentHandler) AcknowledgeIncident(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的事件ID")
		return
	}

	var req AcknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, err.Error())
		return
	}

	incident, err := h.incidentService.Acknowledge(uint(id), req.OperatorID, req.Note)
	if err != nil {
		h.writeError(c, err, "确认事件失败")
		return
	}

	utils.Success(c, incident)
}

// ResolveIncident godoc
// @Summary 解决事件
// @Tags 事件管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "事件ID"
// @Param request body ResolveRequest true "操作人信息"
// @Success 200 {object} utils.Response{data=models.Incident}
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /incidents/{id}/resolve [post]
func (h *IncidentHandler) ResolveIncident(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的事件ID")
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, err.Error())
		return
	}

	incident, err := h.incidentService.Resolve(uint(id), req.OperatorID)
	if err != nil {
		h.writeError(c, err, "解决事件失败")
		return
	}

	utils.Success(c, incident)
}

// CloseIncident godoc
// @Summary 关闭事件
// @Description 关闭已解决的事件，关闭后不再接受任何变更
// @Tags 事件管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "事件ID"
// @Param request body ResolveRequest true "操作人信息"
// @Success 200 {object} utils.Response{data=models.Incident}
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /incidents/{id}/close [post]
func (h *IncidentHandler) CloseIncident(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的事件ID")
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, err.Error())
		return
	}

	incident, err := h.incidentService.Close(uint(id), req.OperatorID)
	if err != nil {
		h.writeError(c, err, "关闭事件失败")
		return
	}

	utils.Success(c, incident)
}

// AddComment godoc
// @Summary 添加事件备注
// @Description 为事件追加处理备注；action_taken 为 true 时同时确认事件
// @Tags 事件管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "事件ID"
// @Param request body CommentRequest true "备注内容"
// @Success 200 {object} utils.Response{data=models.IncidentComment}
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /incidents/{id}/comments [post]
func (h *IncidentHandler) AddComment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的事件ID")
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, err.Error())
		return
	}

	comment, err := h.incidentService.AddComment(uint(id), req.OperatorID, req.Comment, req.ActionTaken)
	if err != nil {
		h.writeError(c, err, "添加备注失败")
		return
	}

	utils.Success(c, comment)
}

// GetTimeline godoc
// @Summary 获取事件时间线
// @Description 按时间顺序获取事件的全部变更记录
// @Tags 事件管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "事件ID"
// @Success 200 {object} utils.Response{data=[]models.IncidentTimelineEvent}
// @Failure 404 {object} utils.Response
// @Router /incidents/{id}/timeline [get]
func (h *IncidentHandler) GetTimeline(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的事件ID")
		return
	}

	events, err := h.incidentService.GetTimeline(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.Error(c, utils.NOT_FOUND, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "获取时间线失败")
		return
	}

	utils.Success(c, events)
}

// GetComments godoc
// @Summary 获取事件备注列表
// @Tags 事件管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "事件ID"
// @Success 200 {object} utils.Response{data=[]models.IncidentComment}
// @Failure 404 {object} utils.Response
// @Router /incidents/{id}/comments [get]
func (h *IncidentHandler) GetComments(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的事件ID")
		return
	}

	comments, err := h.incidentService.GetComments(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.Error(c, utils.NOT_FOUND, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "获取备注失败")
		return
	}

	utils.Success(c, comments)
}

// writeError 将服务层错误映射为统一的业务响应码
func (h *IncidentHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		utils.Error(c, utils.NOT_FOUND, err.Error())
	case errors.Is(err, service.ErrConflict):
		utils.Error(c, utils.CONFLICT, err.Error())
	case errors.Is(err, service.ErrValidation):
		utils.Error(c, utils.VALIDATION_ERROR, err.Error())
	default:
		utils.Error(c, utils.ERROR, fallback)
	}
}
