package monitoring

import "sync"

// DeviceLocks 按设备粒度的互斥锁
// 同一设备的读数评估必须串行执行，否则两条并发读数可能同时
// 观察到"无进行中事件"而各自创建一个，破坏单事件不变量；
// 不同设备的读数互不影响，可以并行
type DeviceLocks struct {
	mutex sync.Mutex
	locks map[string]*sync.Mutex
}

func NewDeviceLocks() *DeviceLocks {
	return &DeviceLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock 锁定指定设备，返回对应的解锁函数
func (l *DeviceLocks) Lock(deviceID string) func() {
	l.mutex.Lock()
	lock, exists := l.locks[deviceID]
	if !exists {
		lock = &sync.Mutex{}
		l.locks[deviceID] = lock
	}
	l.mutex.Unlock()

	lock.Lock()
	return lock.Unlock
}
