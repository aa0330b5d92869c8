package docsource

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"
)

// FileEventType 文件事件类型
type FileEventType string

const (
	FileChanged FileEventType = "changed"
	FileRemoved FileEventType = "removed"
)

// FileEvent 文档目录中的文件变化，Path 为相对文档目录的路径（使用 / 分隔）
type FileEvent struct {
	Type FileEventType
	Path string
}

// Watcher 监听文档目录（含子目录），同一文件的连续事件在 debounce 内合并为一次回调
type Watcher struct {
	dir      string
	debounce time.Duration
	callback func(FileEvent)

	fsw      *fsnotify.Watcher
	mu       sync.Mutex
	timers   map[string]*time.Timer
	stopped  bool
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher 创建文件监听器
func NewWatcher(dir string, debounce time.Duration, callback func(FileEvent)) *Watcher {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		callback: callback,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
}

// Start 开始监听，目录不存在时自动创建
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	if err := w.addTree(w.dir); err != nil {
		fsw.Close()
		return err
	}

	go w.loop()
	klog.V(6).Infof("[Watcher] 开始监听文档目录: %s", w.dir)
	return nil
}

// Stop 停止监听，未触发的合并事件被丢弃
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		for path, t := range w.timers {
			t.Stop()
			delete(w.timers, path)
		}
		w.mu.Unlock()

		if w.fsw != nil {
			w.fsw.Close()
			<-w.done
		}
		klog.V(6).Infof("[Watcher] 停止监听文档目录: %s", w.dir)
	})
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			klog.Warningf("[Watcher] 监听错误: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod && event.Op&^fsnotify.Chmod == 0 {
		return
	}
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				klog.Warningf("[Watcher] 添加子目录失败: %s, err=%v", event.Name, err)
			}
			return
		}
	}
	w.schedule(event.Name)
}

// schedule 重置该文件的合并定时器
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.fire(path)
	})
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	delete(w.timers, path)
	w.mu.Unlock()

	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return
	}
	ev := FileEvent{Type: FileChanged, Path: filepath.ToSlash(rel)}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		ev.Type = FileRemoved
	case err != nil:
		klog.Warningf("[Watcher] 读取文件信息失败: %s, err=%v", path, err)
		return
	case info.IsDir():
		return
	}

	klog.V(6).Infof("[Watcher] 文件变化: type=%s, path=%s", ev.Type, ev.Path)
	if w.callback != nil {
		w.callback(ev)
	}
}
