package monitoring

import (
	"sync"
	"testing"
)

// TestDeviceLocksSerialization 同一设备的操作串行执行
func TestDeviceLocksSerialization(t *testing.T) {
	locks := NewDeviceLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("dev-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("期望计数 100，实际 %d", counter)
	}
}

// TestDeviceLocksIndependent 不同设备的锁互不阻塞
func TestDeviceLocksIndependent(t *testing.T) {
	locks := NewDeviceLocks()

	unlock1 := locks.Lock("dev-1")
	defer unlock1()

	done := make(chan struct{})
	go func() {
		unlock2 := locks.Lock("dev-2")
		unlock2()
		close(done)
	}()

	<-done
}
