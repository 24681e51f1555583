package monitoring

import (
	"fmt"
	"sync"
	"time"

	"coldwatch/internal/models"
)

// Deduplicator 告警去重器
// 同一设备同一类型的告警在抑制窗口内只产生一次，
// 每次放行都会重置窗口（滑动窗口而非固定分桶）
type Deduplicator struct {
	mutex         sync.Mutex
	lastAlertTime map[string]time.Time
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		lastAlertTime: make(map[string]time.Time),
	}
}

// ShouldAlert 判断是否允许产生新告警，放行时记录本次时间
func (d *Deduplicator) ShouldAlert(deviceID string, alertType models.AlertType, now time.Time, window time.Duration) bool {
	key := dedupKey(deviceID, alertType)

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if last, exists := d.lastAlertTime[key]; exists {
		if now.Sub(last) < window {
			// 窗口内，抑制
			return false
		}
	}

	d.lastAlertTime[key] = now
	return true
}

// Seed 注入一条历史告警时间作为窗口起点，已有记录时不覆盖
// 进程重启后用库里最近一条同类告警恢复抑制状态
func (d *Deduplicator) Seed(deviceID string, alertType models.AlertType, last time.Time) {
	key := dedupKey(deviceID, alertType)

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, exists := d.lastAlertTime[key]; !exists {
		d.lastAlertTime[key] = last
	}
}

// Reset 清除设备某类告警的抑制记录（告警解决后调用，使后续异常立即可告警）
func (d *Deduplicator) Reset(deviceID string, alertType models.AlertType) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	delete(d.lastAlertTime, dedupKey(deviceID, alertType))
}

// Cleanup 清理过期记录，避免长期运行内存增长
func (d *Deduplicator) Cleanup(now time.Time, window time.Duration) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for key, last := range d.lastAlertTime {
		if now.Sub(last) > window*2 {
			delete(d.lastAlertTime, key)
		}
	}
}

func dedupKey(deviceID string, alertType models.AlertType) string {
	return fmt.Sprintf("%s:%s", deviceID, alertType)
}
