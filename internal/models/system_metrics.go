package models

import "time"

// SystemMetrics 系统监控指标
type SystemMetrics struct {
	Timestamp time.Time `json:"timestamp"` // 采集时间

	// CPU相关
	CPUUsage float64 `json:"cpu_usage"` // CPU使用率 (0-100)

	// 内存相关
	MemTotal     uint64  `json:"mem_total"`      // 总内存 (bytes)
	MemUsed      uint64  `json:"mem_used"`       // 已用内存 (bytes)
	MemFree      uint64  `json:"mem_free"`       // 空闲内存 (bytes)
	MemUsageRate float64 `json:"mem_usage_rate"` // 内存使用率 (0-100)

	// Goroutine数量
	GoroutineCount int `json:"goroutine_count"`

	// 告警管线健康计数
	ReadingsProcessed int64 `json:"readings_processed"` // 已处理读数
	AlertsCreated     int64 `json:"alerts_created"`     // 已产生告警
	PipelineFailures  int64 `json:"pipeline_failures"`  // 评估管线故障次数
}
