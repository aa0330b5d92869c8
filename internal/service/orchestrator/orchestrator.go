package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"k8s.io/klog/v2"
)

// -----------------------------
// Job 定义
// -----------------------------
type Job struct {
	DocumentID string
	Reason     string
	EnqueuedAt time.Time
	RetryCount int
	MaxRetries int
	Timeout    time.Duration
}

// -----------------------------
// DocumentIndexer 接口
// -----------------------------
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, docID string) error
}

// Orchestrator 后台文档索引调度器：文档上传、更新或文件变更后重新提取文本
type Orchestrator struct {
	jobQueue    *jobQueue
	retryQueue  *jobQueue
	retryTicker *time.Ticker

	pool *ants.Pool

	indexer DocumentIndexer

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup

	// pending 已入队但尚未执行的文档，同一文档的重复事件只保留一个任务
	pending      map[string]bool
	pendingMutex sync.Mutex
}

// -----------------------------
// 错误定义
// -----------------------------
var (
	ErrOrchestratorStopped = errors.New("orchestrator is stopped")
	ErrQueueFull           = errors.New("job queue is full")
)

const (
	defaultMaxRetries = 3
	defaultJobTimeout = 2 * time.Minute
	maxBackoff        = 30 * time.Second
)

// NewIndexJob
// 说明：创建一个文档索引任务，初始化最大重试次数与超时
// 参数：docID 文档ID；reason 触发原因（upload/update/file_changed 等），仅用于日志
func NewIndexJob(docID, reason string) *Job {
	return &Job{
		DocumentID: docID,
		Reason:     reason,
		EnqueuedAt: time.Now(),
		MaxRetries: defaultMaxRetries,
		Timeout:    defaultJobTimeout,
	}
}

// NewOrchestrator 创建调度器，maxWorkers 为并发索引的协程数
func NewOrchestrator(maxWorkers int, indexer DocumentIndexer) (*Orchestrator, error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	pool, err := ants.NewPool(maxWorkers,
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(200),
		ants.WithExpiryDuration(5*time.Minute),
	)
	if err != nil {
		cancel()
		klog.Errorf("[Orchestrator] ants 协程池初始化失败: %v", err)
		return nil, err
	}

	return &Orchestrator{
		jobQueue:    newJobQueue(500),
		retryQueue:  newJobQueue(500),
		retryTicker: time.NewTicker(500 * time.Millisecond),
		pool:        pool,
		indexer:     indexer,
		ctx:         ctx,
		cancel:      cancel,
		pending:     make(map[string]bool),
	}, nil
}

// Start 启动分发循环与重试循环
func (o *Orchestrator) Start() {
	o.wg.Add(2)
	go func() {
		defer o.wg.Done()
		o.dispatchLoop()
	}()
	go func() {
		defer o.wg.Done()
		o.processRetryQueue()
	}()
}

// Stop 停止接收新任务，等待运行中的索引任务结束
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		klog.V(6).Infof("[Orchestrator] 正在停止...")

		o.cancel()
		o.jobQueue.Close()
		o.retryQueue.Close()
		o.wg.Wait()

		if running := o.pool.Running(); running > 0 {
			klog.V(6).Infof("[Orchestrator] 等待 %d 个运行中的索引任务结束", running)
		}
		timeout := defaultJobTimeout + 10*time.Second
		if err := o.pool.ReleaseTimeout(timeout); err != nil {
			klog.Warningf("[Orchestrator] 等待超时 %v，部分索引任务可能被中断", timeout)
		}

		klog.V(6).Infof("[Orchestrator] 已停止")
	})
}

// EnqueueJob 入队索引任务；同一文档已有待执行任务时直接忽略
func (o *Orchestrator) EnqueueJob(job *Job) error {
	select {
	case <-o.ctx.Done():
		return ErrOrchestratorStopped
	default:
	}

	if !o.markPending(job.DocumentID) {
		klog.V(6).Infof("[Orchestrator] 文档已在队列中，忽略: docID=%s, reason=%s", job.DocumentID, job.Reason)
		return nil
	}
	if err := o.jobQueue.Enqueue(job); err != nil {
		o.clearPending(job.DocumentID)
		if errors.Is(err, ErrQueueFull) {
			klog.Warningf("[Orchestrator] 任务队列已满: docID=%s", job.DocumentID)
		}
		return err
	}
	klog.V(6).Infof("[Orchestrator] 索引任务入队: docID=%s, reason=%s", job.DocumentID, job.Reason)
	return nil
}

// Enqueue 便捷方法：为文档创建索引任务并入队
func (o *Orchestrator) Enqueue(docID, reason string) error {
	return o.EnqueueJob(NewIndexJob(docID, reason))
}

func (o *Orchestrator) EnqueueBatch(jobs []*Job) error {
	var failed int
	for _, job := range jobs {
		if err := o.EnqueueJob(job); err != nil {
			klog.Warningf("[Orchestrator] 批量入队失败: docID=%s, err=%v", job.DocumentID, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to enqueue %d jobs (total %d)", failed, len(jobs))
	}
	return nil
}

func (o *Orchestrator) markPending(docID string) bool {
	o.pendingMutex.Lock()
	defer o.pendingMutex.Unlock()
	if o.pending[docID] {
		return false
	}
	o.pending[docID] = true
	return true
}

func (o *Orchestrator) clearPending(docID string) {
	o.pendingMutex.Lock()
	defer o.pendingMutex.Unlock()
	delete(o.pending, docID)
}

// -----------------------------
// Dispatch Loop
// -----------------------------
func (o *Orchestrator) dispatchLoop() {
	for {
		select {
		case <-o.ctx.Done():
			return
		default:
			job, ok := o.jobQueue.Dequeue()
			if !ok {
				continue
			}
			o.tryDispatch(job)
		}
	}
}

// -----------------------------
// Retry Queue Loop
// -----------------------------
func (o *Orchestrator) processRetryQueue() {
	defer o.retryTicker.Stop()
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("[Orchestrator] 重试循环 panic: %v", r)
		}
	}()
	for {
		select {
		case <-o.ctx.Done():
			return
		case <-o.retryTicker.C:
			for range 10 {
				job, ok := o.retryQueue.TryDequeue()
				if !ok {
					break
				}
				o.tryDispatch(job)
			}
		}
	}
}

// tryDispatch
// 说明：提交任务到协程池；提交失败时按重试上限重新入队
func (o *Orchestrator) tryDispatch(job *Job) {
	if job.MaxRetries <= 0 || job.RetryCount >= job.MaxRetries {
		klog.Warningf("[Orchestrator] 任务重试已达上限，放弃: docID=%s, retry=%d/%d", job.DocumentID, job.RetryCount, job.MaxRetries)
		o.clearPending(job.DocumentID)
		return
	}
	err := o.pool.Submit(func() {
		o.executeJob(job)
	})
	if err == nil {
		return
	}
	klog.Errorf("[Orchestrator] 提交任务到协程池失败: docID=%s, err=%v", job.DocumentID, err)

	job.RetryCount++
	if job.RetryCount >= job.MaxRetries {
		klog.Warningf("[Orchestrator] 任务重试已达上限，放弃: docID=%s", job.DocumentID)
		o.clearPending(job.DocumentID)
		return
	}
	if err := o.retryQueue.Enqueue(job); err != nil {
		klog.Errorf("[Orchestrator] 任务重试入队失败: docID=%s, err=%v", job.DocumentID, err)
		o.clearPending(job.DocumentID)
	}
}

// executeJob 执行索引，失败时指数退避重试
func (o *Orchestrator) executeJob(job *Job) {
	// 执行开始后允许同一文档再次入队，执行期间的新变更不会丢失
	o.clearPending(job.DocumentID)
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("[Orchestrator] 索引任务 panic: docID=%s, err=%v", job.DocumentID, r)
		}
	}()

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(o.ctx, timeout)
	defer cancel()

	for i := job.RetryCount; i < job.MaxRetries; i++ {
		job.RetryCount = i

		err := o.indexer.IndexDocument(ctx, job.DocumentID)
		if err == nil {
			klog.V(6).Infof("[Orchestrator] 索引完成: docID=%s, reason=%s", job.DocumentID, job.Reason)
			return
		}

		backoff := 100 * time.Millisecond << i
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		klog.Warningf("[Orchestrator] 索引失败: docID=%s, retry=%d/%d, err=%v, backoff=%v",
			job.DocumentID, i+1, job.MaxRetries, err, backoff)

		select {
		case <-ctx.Done():
			klog.Warningf("[Orchestrator] 索引任务被取消或超时: docID=%s", job.DocumentID)
			return
		case <-time.After(backoff):
		}
	}

	klog.Errorf("[Orchestrator] 索引失败且超过重试上限: docID=%s", job.DocumentID)
}

// -----------------------------
// Queue Status
// -----------------------------
type QueueStatus struct {
	QueueLength   int `json:"queue_length"`
	RetryLength   int `json:"retry_length"`
	ActiveWorkers int `json:"active_workers"`
}

func (o *Orchestrator) GetQueueStatus() *QueueStatus {
	return &QueueStatus{
		QueueLength:   o.jobQueue.Len(),
		RetryLength:   o.retryQueue.Len(),
		ActiveWorkers: o.pool.Running(),
	}
}

// -----------------------------
// JobQueue (Reject New)
// -----------------------------
type jobQueue struct {
	maxSize int
	items   []*Job
	mutex   sync.Mutex
	cond    *sync.Cond
	closed  bool
}

func newJobQueue(maxSize int) *jobQueue {
	q := &jobQueue{
		maxSize: maxSize,
		items:   make([]*Job, 0, maxSize),
	}
	q.cond = sync.NewCond(&q.mutex)
	return q
}

func (q *jobQueue) Enqueue(job *Job) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.closed {
		return ErrOrchestratorStopped
	}
	if q.maxSize > 0 && len(q.items) >= q.maxSize {
		return ErrQueueFull
	}
	q.items = append(q.items, job)
	q.cond.Signal()
	return nil
}

// Dequeue 阻塞直到有任务或队列关闭
func (q *jobQueue) Dequeue() (*Job, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	return q.pop()
}

// TryDequeue 非阻塞出队
func (q *jobQueue) TryDequeue() (*Job, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.pop()
}

func (q *jobQueue) pop() (*Job, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	job := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return job, true
}

func (q *jobQueue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.items)
}

func (q *jobQueue) Close() {
	q.mutex.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mutex.Unlock()
}
