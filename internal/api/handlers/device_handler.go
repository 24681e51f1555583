package handlers

import (
	"errors"
	"strconv"

	"coldwatch/internal/models"
	"coldwatch/internal/service"
	"coldwatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	deviceService *service.DeviceService
}

func NewDeviceHandler(deviceService *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
	}
}

// CreateDevice godoc
// @Summary 注册设备
// @Description 注册新的冷库监测设备（device_id 为空时自动生成）
// @Tags 设备管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param device body models.Device true "设备信息"
// @Success 200 {object} utils.Response{data=models.Device}
// @Failure 400 {object} utils.Response
// @Router /devices [post]
func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var device models.Device
	if err := c.ShouldBindJSON(&device); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, err.Error())
		return
	}

	if err := h.deviceService.Register(&device); err != nil {
		if errors.Is(err, service.ErrValidation) {
			utils.Error(c, utils.VALIDATION_ERROR, err.Error())
			return
		}
		if errors.Is(err, service.ErrConflict) {
			utils.Error(c, utils.CONFLICT, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "注册设备失败")
		return
	}

	utils.Success(c, device)
}

// ListDevices godoc
// @Summary 获取设备列表
// @Description 分页获取设备列表（支持状态过滤）
// @Tags 设备管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param current query int false "当前页" default(1)
// @Param size query int false "每页大小" default(20)
// @Param status query string false "设备状态" Enums(online, offline, warning, error)
// @Success 200 {object} utils.Response{data=utils.PageResult}
// @Router /devices [get]
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	current, _ := strconv.Atoi(c.DefaultQuery("current", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}

	devices, total, err := h.deviceService.List(current, size, filters)
	if err != nil {
		utils.Error(c, utils.ERROR, "获取设备列表失败")
		return
	}

	utils.SuccessWithPage(c, devices, current, size, total)
}

// GetDevice godoc
// @Summary 获取设备详情
// @Tags 设备管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param device_id path string true "设备唯一标识"
// @Success 200 {object} utils.Response{data=models.Device}
// @Failure 404 {object} utils.Response
// @Router /devices/{device_id} [get]
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	device, err := h.deviceService.GetByDeviceID(c.Param("device_id"))
	if err != nil {
		utils.Error(c, utils.NOT_FOUND, "设备不存在")
		return
	}

	utils.Success(c, device)
}

// UpdateDevice godoc
// @Summary 更新设备信息
// @Description 更新设备名称、位置和上报间隔
// @Tags 设备管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param device_id path string true "设备唯一标识"
// @Param device body models.Device true "设备信息"
// @Success 200 {object} utils.Response{data=models.Device}
// @Failure 404 {object} utils.Response
// @Router /devices/{device_id} [put]
func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	device, err := h.deviceService.GetByDeviceID(c.Param("device_id"))
	if err != nil {
		utils.Error(c, utils.NOT_FOUND, "设备不存在")
		return
	}

	var input models.Device
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, err.Error())
		return
	}

	device.Name = input.Name
	device.Location = input.Location
	if input.ReadingInterval > 0 {
		device.ReadingInterval = input.ReadingInterval
	}

	if err := h.deviceService.Update(device); err != nil {
		if errors.Is(err, service.ErrValidation) {
			utils.Error(c, utils.VALIDATION_ERROR, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "更新设备失败")
		return
	}

	utils.Success(c, device)
}
