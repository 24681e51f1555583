package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"coldwatch/internal/models"
	"coldwatch/internal/repository"
)

// Job 一次投递任务，对应一条已落库的 pending 通知
// 触发它的事件/告警/时间线状态在入队前已经持久化，
// 投递语义为至少一次：允许重复，不允许丢失
type Job struct {
	NotificationID uint
	OperatorID     uint
	IncidentID     *uint
	Channel        models.NotificationChannel
	Address        string
	Message        string
	Tracker        *BatchTracker // 同一批次内按操作员记录首次成功（可为空）
}

// BatchTracker 跟踪一次升级通知批次中每个操作员的首次投递成功
// notification_sent 时间线按操作员记录一次，而不是按通道
type BatchTracker struct {
	mutex    sync.Mutex
	notified map[uint]bool
	Level    int
}

func NewBatchTracker(level int) *BatchTracker {
	return &BatchTracker{
		notified: make(map[uint]bool),
		Level:    level,
	}
}

// firstSuccess 操作员是否首次投递成功
func (t *BatchTracker) firstSuccess(operatorID uint) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.notified[operatorID] {
		return false
	}
	t.notified[operatorID] = true
	return true
}

// Dispatcher 异步通知调度器
// 投递为IO密集操作，不能阻塞读数评估路径，
// 失败按固定间隔重试，重试耗尽后标记为永久失败
type Dispatcher struct {
	gateway          *Gateway
	notificationRepo *repository.NotificationRepository
	incidentRepo     *repository.IncidentRepository
	operatorRepo     *repository.OperatorRepository

	queue      chan Job
	workers    int
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration

	wg   sync.WaitGroup
	quit chan struct{}
	once sync.Once
}

func NewDispatcher(gateway *Gateway, notificationRepo *repository.NotificationRepository, incidentRepo *repository.IncidentRepository, operatorRepo *repository.OperatorRepository, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	return &Dispatcher{
		gateway:          gateway,
		notificationRepo: notificationRepo,
		incidentRepo:     incidentRepo,
		operatorRepo:     operatorRepo,
		queue:            make(chan Job, 256),
		workers:          workers,
		maxRetries:       3,
		backoff:          30 * time.Second,
		timeout:          10 * time.Second,
		quit:             make(chan struct{}),
	}
}

// SetRetryPolicy 调整重试策略（测试用）
func (d *Dispatcher) SetRetryPolicy(maxRetries int, backoff, timeout time.Duration) {
	d.maxRetries = maxRetries
	d.backoff = backoff
	d.timeout = timeout
}

// Start 启动投递工作协程，并重新入队重启前遗留的待发送通知
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	log.Printf("[Dispatcher] 通知调度器已启动，工作协程数: %d", d.workers)
	d.recoverPending()
}

// recoverPending 把库里残留的 pending 通知重新入队
// 进程退出时未投递完的通知不能永远停在待发送状态
func (d *Dispatcher) recoverPending() {
	pending, err := d.notificationRepo.GetPending()
	if err != nil {
		log.Printf("[Dispatcher] 读取待发送通知失败: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	log.Printf("[Dispatcher] 重新入队 %d 条待发送通知", len(pending))
	for i := range pending {
		notification := &pending[i]
		if !d.gateway.Supports(notification.Channel) {
			d.markFailed(notification.ID, 0, ErrChannelUnsupported.Error())
			continue
		}
		operator, err := d.operatorRepo.GetByID(notification.OperatorID)
		if err != nil {
			d.markFailed(notification.ID, 0, fmt.Sprintf("接收操作员 %d 不存在", notification.OperatorID))
			continue
		}
		d.Enqueue(Job{
			NotificationID: notification.ID,
			OperatorID:     notification.OperatorID,
			IncidentID:     notification.IncidentID,
			Channel:        notification.Channel,
			Address:        operator.AddressFor(notification.Channel),
			Message:        notification.Message,
		})
	}
}

// Stop 停止调度器并等待在途任务完成
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		close(d.quit)
	})
	d.wg.Wait()
}

// Enqueue 提交投递任务，队列满时不阻塞调用方
// 未入队的通知立即标记失败，进入未读/失败列表供人工跟进
func (d *Dispatcher) Enqueue(job Job) {
	select {
	case d.queue <- job:
	default:
		log.Printf("[Dispatcher] 投递队列已满，通知 %d 标记为失败", job.NotificationID)
		d.markFailed(job.NotificationID, 0, "投递队列已满")
	}
}

func (d *Dispatcher) markFailed(notificationID uint, retryCount int, reason string) {
	if err := d.notificationRepo.MarkFailed(notificationID, retryCount, reason); err != nil {
		log.Printf("[Dispatcher] 更新通知 %d 失败状态出错: %v", notificationID, err)
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.queue:
			d.deliver(job)
		case <-d.quit:
			// 清空剩余任务后退出
			for {
				select {
				case job := <-d.queue:
					d.deliver(job)
				default:
					return
				}
			}
		}
	}
}

// deliver 执行一次投递，带超时和有限次重试
func (d *Dispatcher) deliver(job Job) {
	var lastErr error

	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(d.backoff)
		}

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		lastErr = d.gateway.Deliver(ctx, job.Channel, job.Address, job.Message)
		cancel()

		if lastErr == nil {
			d.onSuccess(job)
			return
		}

		// 未接入的通道没有重试意义
		if errors.Is(lastErr, ErrChannelUnsupported) {
			break
		}
		log.Printf("[Dispatcher] 通知 %d 第 %d 次投递失败: %v", job.NotificationID, attempt+1, lastErr)
	}

	d.markFailed(job.NotificationID, d.maxRetries, lastErr.Error())
}

func (d *Dispatcher) onSuccess(job Job) {
	now := time.Now()
	if err := d.notificationRepo.MarkSent(job.NotificationID, now); err != nil {
		log.Printf("[Dispatcher] 更新通知 %d 发送状态出错: %v", job.NotificationID, err)
	}

	// 同一操作员在一个批次中只记录一次 notification_sent
	if job.Tracker != nil && job.IncidentID != nil && job.Tracker.firstSuccess(job.OperatorID) {
		operatorID := job.OperatorID
		event := &models.IncidentTimelineEvent{
			IncidentID:  *job.IncidentID,
			EventType:   models.TimelineEventNotificationSent,
			Description: fmt.Sprintf("已通知 %d 级操作员", job.Tracker.Level),
			OperatorID:  &operatorID,
			Metadata:    fmt.Sprintf(`{"level":%d,"channel":"%s"}`, job.Tracker.Level, job.Channel),
		}
		if err := d.incidentRepo.AppendTimelineEvent(event); err != nil {
			log.Printf("[Dispatcher] 记录通知时间线出错: %v", err)
		}
	}
}
