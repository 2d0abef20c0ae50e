package repository

import (
	"context"
	"time"

	"fleet/internal/permissions"
	"fleet/internal/stats"
	"fleet/models"
)

type TaskFilter struct {
	Status     models.TaskStatus
	Priority   models.Priority
	AssignedTo string
}

// TaskRepository stores ship maintenance tasks.
type TaskRepository struct {
	c     collection[models.Task, *models.Task]
	scope shipScope
}

func validateTask(op string, in *models.TaskInput) error {
	var v validator
	v.require(present(in.Title), "title")
	v.require(in.Priority.IsValid(), "priority")
	v.require(in.Status.IsValid(), "status")
	return v.err(op)
}

func (r *TaskRepository) Create(ctx context.Context, p permissions.Principal, shipID string, in models.TaskInput) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if in.Status == "" {
		in.Status = models.TaskPending
	}
	if err := validateTask(r.c.op("create"), &in); err != nil {
		return "", err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("create")); err != nil {
		return "", err
	}
	task := &models.Task{TaskInput: in}
	if in.Status == models.TaskCompleted {
		task.CompletedAt = r.c.timestamp()
		task.CompletedBy = p.UserID
	}
	if err := r.c.insert(ctx, p, shipID, task); err != nil {
		return "", err
	}
	return task.ID, nil
}

func (r *TaskRepository) Get(ctx context.Context, p permissions.Principal, shipID, id string) (task *models.Task, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("get")); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, shipID, id)
}

func (r *TaskRepository) List(ctx context.Context, p permissions.Principal, shipID string, f TaskFilter) (tasks []models.Task, err error) {
	defer r.c.track(ctx, "list")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("list")); err != nil {
		return nil, err
	}
	all, err := r.c.all(ctx, p, shipID)
	if err != nil {
		return nil, err
	}
	return keep(all, func(t *models.Task) bool {
		return eq(f.Status, t.Status) && eq(f.Priority, t.Priority) && eq(f.AssignedTo, t.AssignedTo)
	}), nil
}

func (r *TaskRepository) Update(ctx context.Context, p permissions.Principal, shipID, id string, patch models.TaskPatch) (task *models.Task, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("update")); err != nil {
		return nil, err
	}
	return r.c.modify(ctx, p, shipID, id, "update", patch.Version, func(t *models.Task) error {
		patch.Apply(&t.TaskInput)
		if err := validateTask(r.c.op("update"), &t.TaskInput); err != nil {
			return err
		}
		r.stampCompletion(p, t)
		return nil
	})
}

// Complete marks the task completed. Completing a completed task keeps the
// original completion stamp.
func (r *TaskRepository) Complete(ctx context.Context, p permissions.Principal, shipID, id string) (task *models.Task, err error) {
	defer r.c.track(ctx, "complete")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("complete")); err != nil {
		return nil, err
	}
	task, err = r.c.mustFind(ctx, p, shipID, id, "complete")
	if err != nil || task.Status == models.TaskCompleted {
		return task, err
	}
	task.Status = models.TaskCompleted
	r.stampCompletion(p, task)
	if err := r.c.save(ctx, "complete", task); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) stampCompletion(p permissions.Principal, t *models.Task) {
	switch {
	case t.Status == models.TaskCompleted && t.CompletedAt.IsZero():
		t.CompletedAt = r.c.timestamp()
		t.CompletedBy = p.UserID
	case t.Status != models.TaskCompleted:
		t.CompletedAt = time.Time{}
		t.CompletedBy = ""
	}
}

func (r *TaskRepository) Delete(ctx context.Context, p permissions.Principal, shipID, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("delete")); err != nil {
		return err
	}
	return r.c.remove(ctx, p, shipID, id)
}

func (r *TaskRepository) Stats(ctx context.Context, p permissions.Principal, shipID string) (stats.TaskStats, error) {
	tasks, err := r.List(ctx, p, shipID, TaskFilter{})
	if err != nil {
		return stats.TaskStats{}, err
	}
	return stats.Tasks(tasks, r.c.now()), nil
}
