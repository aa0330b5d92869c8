package main

import (
	"context"
	"time"

	"k8s.io/klog/v2"

	"github.com/Andrew-Beniash/tai/internal/pkg/docsource"
	"github.com/Andrew-Beniash/tai/internal/service"
)

const fileEventTimeout = 30 * time.Second

// fileEventAdapter 将目录监听回调适配为 DocumentService 调用
// 避免 docsource 和 service 之间的循环依赖
type fileEventAdapter struct {
	docService *service.DocumentService
}

// OnFileEvent 处理单个文件事件
// 实现 docsource.Watcher 的回调签名
func (a *fileEventAdapter) OnFileEvent(ev docsource.FileEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), fileEventTimeout)
	defer cancel()
	if err := a.docService.HandleFileEvent(ctx, ev); err != nil {
		klog.Warningf("[FileWatch] 处理文件事件失败: type=%s, path=%s, err=%v", ev.Type, ev.Path, err)
	}
}
