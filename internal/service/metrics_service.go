package service

import (
	"runtime"
	"sync/atomic"
	"time"

	"coldwatch/internal/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// MetricsService 运行指标服务
// 除主机资源外还暴露告警管线的健康计数，
// 评估失败不会使接入请求失败，只能从这里观察到
type MetricsService struct {
	readingsProcessed atomic.Int64
	alertsCreated     atomic.Int64
	pipelineFailures  atomic.Int64
}

func NewMetricsService() *MetricsService {
	return &MetricsService{}
}

// RecordReading 累计已处理读数
func (s *MetricsService) RecordReading() {
	s.readingsProcessed.Add(1)
}

// RecordAlert 累计已产生告警
func (s *MetricsService) RecordAlert() {
	s.alertsCreated.Add(1)
}

// RecordPipelineFailure 累计告警管线故障
func (s *MetricsService) RecordPipelineFailure() {
	s.pipelineFailures.Add(1)
}

// PipelineFailures 当前管线故障计数
func (s *MetricsService) PipelineFailures() int64 {
	return s.pipelineFailures.Load()
}

// GetSystemMetrics 获取系统监控指标
func (s *MetricsService) GetSystemMetrics() (*models.SystemMetrics, error) {
	metrics := &models.SystemMetrics{
		Timestamp: time.Now(),
	}

	// 获取CPU使用率
	cpuPercent, err := cpu.Percent(time.Millisecond*100, false)
	if err == nil && len(cpuPercent) > 0 {
		metrics.CPUUsage = cpuPercent[0]
	}

	// 获取内存信息
	memInfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.MemTotal = memInfo.Total
		metrics.MemUsed = memInfo.Used
		metrics.MemFree = memInfo.Free
		metrics.MemUsageRate = memInfo.UsedPercent
	}

	// 获取Goroutine数量
	metrics.GoroutineCount = runtime.NumGoroutine()

	// 管线健康计数
	metrics.ReadingsProcessed = s.readingsProcessed.Load()
	metrics.AlertsCreated = s.alertsCreated.Load()
	metrics.PipelineFailures = s.pipelineFailures.Load()

	return metrics, nil
}
