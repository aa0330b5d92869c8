package subscriber

import (
	"context"

	"github.com/Andrew-Beniash/tai/internal/eventbus"
	"k8s.io/klog/v2"
)

// CacheInvalidator 切片缓存失效接口，rag.MemoryChunkCache 满足该接口
type CacheInvalidator interface {
	Invalidate(docID string)
}

// IndexEnqueuer 索引任务入队接口，orchestrator.Orchestrator 满足该接口
type IndexEnqueuer interface {
	Enqueue(docID, reason string) error
}

// DocEventSubscriber 文档事件订阅者：内容变化时失效切片缓存并重新索引
type DocEventSubscriber struct {
	cache   CacheInvalidator
	indexer IndexEnqueuer
}

// NewDocEventSubscriber 创建订阅者，cache 与 indexer 均可为 nil
func NewDocEventSubscriber(cache CacheInvalidator, indexer IndexEnqueuer) *DocEventSubscriber {
	return &DocEventSubscriber{cache: cache, indexer: indexer}
}

func (s *DocEventSubscriber) Register(bus *eventbus.DocEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.DocEventCreated, s.handleContentChanged)
	bus.Subscribe(eventbus.DocEventUpdated, s.handleContentChanged)
	bus.Subscribe(eventbus.DocEventFileChanged, s.handleContentChanged)
	bus.Subscribe(eventbus.DocEventDeleted, s.handleDocGone)
	bus.Subscribe(eventbus.DocEventIndexed, s.handleDocIndexed)
}

// handleContentChanged 文档新建、更新或文件变化
func (s *DocEventSubscriber) handleContentChanged(ctx context.Context, event eventbus.DocEvent) error {
	s.invalidate(event.DocumentID)
	if s.indexer == nil {
		return nil
	}
	if err := s.indexer.Enqueue(event.DocumentID, string(event.Type)); err != nil {
		klog.Warningf("[DocEventSubscriber] 索引任务入队失败: type=%s, docID=%s, err=%v", event.Type, event.DocumentID, err)
		return err
	}
	klog.V(6).Infof("[DocEventSubscriber] 文档内容变化，已安排重新索引: type=%s, docID=%s", event.Type, event.DocumentID)
	return nil
}

func (s *DocEventSubscriber) handleDocGone(ctx context.Context, event eventbus.DocEvent) error {
	s.invalidate(event.DocumentID)
	klog.V(6).Infof("[DocEventSubscriber] 文档删除事件处理成功: docID=%s", event.DocumentID)
	return nil
}

// handleDocIndexed 索引完成后文本可能变化，旧切片作废
func (s *DocEventSubscriber) handleDocIndexed(ctx context.Context, event eventbus.DocEvent) error {
	s.invalidate(event.DocumentID)
	klog.V(6).Infof("[DocEventSubscriber] 文档索引事件处理成功: docID=%s", event.DocumentID)
	return nil
}

func (s *DocEventSubscriber) invalidate(docID string) {
	if s.cache != nil {
		s.cache.Invalidate(docID)
	}
}
