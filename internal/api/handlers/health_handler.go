package handlers

import (
	"time"

	"coldwatch/internal/service"
	"coldwatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	metricsService *service.MetricsService
	startedAt      time.Time
}

func NewHealthHandler(metricsService *service.MetricsService) *HealthHandler {
	return &HealthHandler{
		metricsService: metricsService,
		startedAt:      time.Now(),
	}
}

// HealthCheck godoc
// @Summary 健康检查
// @Description 返回服务运行状态和管道失败计数
// @Tags 系统监控
// @Accept json
// @Produce json
// @Success 200 {object} utils.Response
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":            "ok",
		"uptime_seconds":    int64(time.Since(h.startedAt).Seconds()),
		"pipeline_failures": h.metricsService.PipelineFailures(),
	})
}

// GetSystemMetrics godoc
// @Summary 获取系统指标
// @Description 获取CPU/内存/磁盘占用及监控管道计数
// @Tags 系统监控
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response{data=models.SystemMetrics}
// @Router /metrics [get]
func (h *HealthHandler) GetSystemMetrics(c *gin.Context) {
	metrics, err := h.metricsService.GetSystemMetrics()
	if err != nil {
		utils.Error(c, utils.ERROR, "获取系统指标失败")
		return
	}

	utils.Success(c, metrics)
}
