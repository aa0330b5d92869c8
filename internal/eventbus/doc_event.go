package eventbus

type DocEventType string

const (
	DocEventCreated     DocEventType = "DocCreated"
	DocEventUpdated     DocEventType = "DocUpdated"
	DocEventDeleted     DocEventType = "DocDeleted"
	DocEventIndexed     DocEventType = "DocIndexed"
	DocEventFileChanged DocEventType = "DocFileChanged"
)

type DocEvent struct {
	Type        DocEventType
	DocumentID  string
	ProjectID   string
	StoragePath string // 相对文档目录的路径，文件事件时有值
}

type DocEventHandler = Handler[DocEvent]
type DocEventBus = Bus[DocEventType, DocEvent]

func NewDocEventBus() *DocEventBus {
	return NewBus[DocEventType, DocEvent]()
}
