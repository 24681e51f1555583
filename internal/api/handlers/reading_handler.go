package handlers

import (
	"errors"
	"strconv"
	"time"

	"coldwatch/internal/service"
	"coldwatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ReadingHandler struct {
	monitoringService *service.MonitoringService
}

func NewReadingHandler(monitoringService *service.MonitoringService) *ReadingHandler {
	return &ReadingHandler{
		monitoringService: monitoringService,
	}
}

// CreateReading godoc
// @Summary 接收设备读数
// @Description 接收传感器上报的温湿度/供电读数，评估告警并驱动事件流转
// @Tags 监控数据
// @Accept json
// @Produce json
// @Param reading body service.ReadingInput true "读数载荷"
// @Success 200 {object} utils.Response{data=service.IngestResult}
// @Failure 400 {object} utils.Response
// @Router /readings [post]
func (h *ReadingHandler) CreateReading(c *gin.Context) {
	var input service.ReadingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, err.Error())
		return
	}

	result, err := h.monitoringService.ProcessReading(&input)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			utils.Error(c, utils.VALIDATION_ERROR, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "读数入库失败")
		return
	}

	utils.Success(c, result)
}

// ListReadings godoc
// @Summary 获取读数列表
// @Description 分页获取历史读数（支持设备过滤）
// @Tags 监控数据
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param current query int false "当前页" default(1)
// @Param size query int false "每页大小" default(20)
// @Param device_id query string false "设备唯一标识"
// @Success 200 {object} utils.Response{data=utils.PageResult}
// @Router /readings [get]
func (h *ReadingHandler) ListReadings(c *gin.Context) {
	current, _ := strconv.Atoi(c.DefaultQuery("current", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	deviceID := c.Query("device_id")

	readings, total, err := h.monitoringService.ListReadings(current, size, deviceID)
	if err != nil {
		utils.Error(c, utils.ERROR, "获取读数列表失败")
		return
	}

	utils.SuccessWithPage(c, readings, current, size, total)
}

// GetLatestReading godoc
// @Summary 获取设备最新读数
// @Description 按采样时间获取设备最新一条读数
// @Tags 监控数据
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param device_id path string true "设备唯一标识"
// @Success 200 {object} utils.Response{data=models.Reading}
// @Failure 404 {object} utils.Response
// @Router /readings/latest/{device_id} [get]
func (h *ReadingHandler) GetLatestReading(c *gin.Context) {
	deviceID := c.Param("device_id")

	reading, err := h.monitoringService.LatestReading(deviceID)
	if err != nil {
		utils.Error(c, utils.NOT_FOUND, err.Error())
		return
	}

	utils.Success(c, reading)
}

// GetStats godoc
// @Summary 温度统计
// @Description 统计时间段内的最低/最高/平均温度（支持设备过滤）
// @Tags 监控数据
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param start query string true "开始时间(RFC3339)"
// @Param end query string true "结束时间(RFC3339)"
// @Param device_id query string false "设备唯一标识"
// @Success 200 {object} utils.Response{data=repository.TemperatureStats}
// @Failure 400 {object} utils.Response
// @Router /readings/stats [get]
func (h *ReadingHandler) GetStats(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的开始时间")
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的结束时间")
		return
	}

	stats, err := h.monitoringService.Stats(c.Query("device_id"), start, end)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			utils.Error(c, utils.VALIDATION_ERROR, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "统计失败")
		return
	}

	utils.Success(c, stats)
}
