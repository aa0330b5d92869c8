package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Andrew-Beniash/tai/internal/model"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/Andrew-Beniash/tai/internal/service/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskCreateDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	svc := NewTaskService(env.tasks, env.projects, env.docs)
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateTaskRequest{ProjectID: "proj-001", Title: "  Prepare Form 1065  ", DocumentIDs: []string{"doc-002"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(task.ID, "task-"))
	assert.Equal(t, "Prepare Form 1065", task.Title)
	assert.Equal(t, model.TaskStatusNotStarted, task.Status)

	docs, err := svc.ListDocuments(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-002", docs[0].ID)
}

func TestTaskCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	svc := NewTaskService(env.tasks, env.projects, env.docs)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateTaskRequest{ProjectID: "proj-001"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, CreateTaskRequest{ProjectID: "proj-404", Title: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Create(ctx, CreateTaskRequest{ProjectID: "proj-001", Title: "x", Status: "Archived"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTaskStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	svc := NewTaskService(env.tasks, env.projects, env.docs)
	ctx := context.Background()

	next, err := svc.NextStatuses(ctx, "task-001")
	require.NoError(t, err)
	assert.Equal(t, []string{model.TaskStatusReadyForReview}, next)

	task, err := svc.UpdateStatus(ctx, "task-001", model.TaskStatusReadyForReview)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusReadyForReview, task.Status)

	_, err = svc.UpdateStatus(ctx, "task-001", model.TaskStatusCompleted)
	var transitionErr *statemachine.InvalidStateTransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, statemachine.TaskStatus(model.TaskStatusReadyForReview), transitionErr.From)

	_, err = svc.UpdateStatus(ctx, "task-001", "Archived")
	assert.ErrorIs(t, err, ErrInvalidInput)

	stored, err := svc.Get(ctx, "task-001")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusReadyForReview, stored.Status)
}

func TestTaskUpdateFields(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	svc := NewTaskService(env.tasks, env.projects, env.docs)
	ctx := context.Background()

	assignee := "hanna"
	form := "1120-S"
	task, err := svc.Update(ctx, "task-001", UpdateTaskRequest{AssignedTo: &assignee, TaxForm: &form})
	require.NoError(t, err)
	assert.Equal(t, "hanna", task.AssignedTo)
	assert.Equal(t, "1120-S", task.TaxForm)
	assert.Equal(t, model.TaskStatusInProgress, task.Status)

	tasks, err := svc.List(ctx, repository.TaskFilter{AssignedTo: "hanna"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task-001", tasks[0].ID)

	blank := " "
	_, err = svc.Update(ctx, "task-001", UpdateTaskRequest{Title: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAttachDocumentsValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	svc := NewTaskService(env.tasks, env.projects, env.docs)
	ctx := context.Background()

	err := svc.AttachDocuments(ctx, "task-001", []string{"doc-002", "doc-404"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = svc.AttachDocuments(ctx, "task-001", []string{"doc-004"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, svc.AttachDocuments(ctx, "task-001", []string{"doc-002", "doc-001"}))
	docs, err := svc.ListDocuments(ctx, "task-001")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-002", docs[0].ID)
	assert.Equal(t, "doc-001", docs[1].ID)
}

func TestTaskDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	svc := NewTaskService(env.tasks, env.projects, env.docs)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "task-001"))
	_, err := svc.Get(ctx, "task-001")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "task-001"), repository.ErrNotFound)
}
