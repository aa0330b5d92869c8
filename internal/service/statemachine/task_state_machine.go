package statemachine

import (
	"fmt"

	"k8s.io/klog/v2"
)

// TaskStatus 税务任务的所有可能状态，取值与 model 中的状态字符串一致
type TaskStatus string

const (
	TaskStatusNotStarted     TaskStatus = "Not Started"
	TaskStatusInProgress     TaskStatus = "In Progress"
	TaskStatusReadyForReview TaskStatus = "Ready for Review"
	TaskStatusUnderReview    TaskStatus = "Under Review"
	TaskStatusCompleted      TaskStatus = "Completed"
)

// AllStatuses 按流程顺序列出全部状态
func AllStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusNotStarted,
		TaskStatusInProgress,
		TaskStatusReadyForReview,
		TaskStatusUnderReview,
		TaskStatusCompleted,
	}
}

// ParseTaskStatus 校验状态字符串
func ParseTaskStatus(s string) (TaskStatus, bool) {
	for _, st := range AllStatuses() {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// TaskTransition 定义任务状态迁移
type TaskTransition struct {
	From TaskStatus
	To   TaskStatus
}

// TaskStateMachine 任务状态机
type TaskStateMachine struct {
	allowedTransitions map[TaskTransition]bool
}

// NewTaskStateMachine 创建新的任务状态机
func NewTaskStateMachine() *TaskStateMachine {
	sm := &TaskStateMachine{
		allowedTransitions: make(map[TaskTransition]bool),
	}

	// Not Started -> In Progress -> Ready for Review -> Under Review -> Completed
	// Ready for Review/Under Review -> In Progress（退回修改）
	// Completed -> In Progress（重新打开）
	transitions := []TaskTransition{
		{TaskStatusNotStarted, TaskStatusInProgress},
		{TaskStatusInProgress, TaskStatusReadyForReview},
		{TaskStatusReadyForReview, TaskStatusUnderReview},
		{TaskStatusUnderReview, TaskStatusCompleted},

		{TaskStatusReadyForReview, TaskStatusInProgress},
		{TaskStatusUnderReview, TaskStatusInProgress},

		{TaskStatusCompleted, TaskStatusInProgress},
	}

	for _, t := range transitions {
		sm.allowedTransitions[t] = true
	}

	return sm
}

// CanTransition 检查状态迁移是否合法
func (sm *TaskStateMachine) CanTransition(from, to TaskStatus) bool {
	if from == to {
		return false
	}
	return sm.allowedTransitions[TaskTransition{From: from, To: to}]
}

// ValidateTransition 验证状态迁移并返回错误
func (sm *TaskStateMachine) ValidateTransition(from, to TaskStatus) error {
	if !sm.CanTransition(from, to) {
		return &InvalidStateTransitionError{
			From: string(from),
			To:   string(to),
		}
	}
	return nil
}

// Transition 执行状态迁移（带日志）
func (sm *TaskStateMachine) Transition(from, to TaskStatus, taskID string) error {
	if err := sm.ValidateTransition(from, to); err != nil {
		klog.V(6).Infof("任务状态迁移被拒绝: taskID=%s, %s -> %s, error=%v",
			taskID, from, to, err)
		return err
	}

	klog.V(6).Infof("任务状态迁移成功: taskID=%s, %s -> %s", taskID, from, to)
	return nil
}

// NextStatuses 当前状态可迁移到的状态，按流程顺序
func (sm *TaskStateMachine) NextStatuses(from TaskStatus) []TaskStatus {
	var next []TaskStatus
	for _, st := range AllStatuses() {
		if sm.CanTransition(from, st) {
			next = append(next, st)
		}
	}
	return next
}

// InvalidStateTransitionError 无效的状态迁移错误
type InvalidStateTransitionError struct {
	From string
	To   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid task state transition: %s -> %s", e.From, e.To)
}

// IsTerminal 判断是否为完成态
func IsTerminal(status TaskStatus) bool {
	return status == TaskStatusCompleted
}

// InReview 判断任务是否处于复核阶段
func InReview(status TaskStatus) bool {
	return status == TaskStatusReadyForReview || status == TaskStatusUnderReview
}
