package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck-go/internal/repository"
	"github.com/taskdeck/taskdeck-go/pkg/model"
)

var (
	ErrTitleRequired       = errors.New("title is required")
	ErrManualOrderRequired = errors.New("manual_order is required")
	ErrInvalidPriority     = errors.New("priority must be High, Medium, or Low")
	ErrInvalidDueDate      = errors.New("due_date must be a calendar date in YYYY-MM-DD form")
	ErrNoFieldsToUpdate    = errors.New("no valid fields provided for update")
	ErrInvalidCompleted    = errors.New("is_completed must be true or false")
	ErrInvalidReorder      = errors.New("invalid payload, expected a tasks array")
	ErrTaskNotFound        = errors.New("task not found")
	ErrInvalidListParams   = errors.New("invalid list parameters")
)

// TaskService handles task business logic, including the reorder batch.
type TaskService struct {
	repo *repository.TaskRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo *repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// List returns the caller's tasks matching q plus the total match count.
// Sort fields outside the allow-list are rejected, never passed through.
func (s *TaskService) List(ctx context.Context, userID string, q repository.TaskQuery) ([]model.Task, int, error) {
	if q.SortBy == "" {
		q.SortBy = "created_at"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Offset < 0 {
		return nil, 0, fmt.Errorf("%w: offset must not be negative", ErrInvalidListParams)
	}
	if q.Priority != nil && !q.Priority.Valid() {
		return nil, 0, ErrInvalidPriority
	}

	tasks, count, err := s.repo.List(ctx, userID, q)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidSortBy) || errors.Is(err, repository.ErrInvalidSortDir) {
			return nil, 0, fmt.Errorf("%w: %s", ErrInvalidListParams, err)
		}
		return nil, 0, err
	}
	return tasks, count, nil
}

// Get returns one task owned by the caller, or ErrTaskNotFound. A task owned
// by someone else yields the same error as a missing one.
func (s *TaskService) Get(ctx context.Context, userID, id string) (*model.Task, error) {
	task, err := s.repo.GetByID(ctx, userID, id)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil, ErrTaskNotFound
	}
	return task, err
}

// Create validates and persists a new task for the caller. Priority defaults
// to Medium; completion defaults to false; manual_order is required and
// stored verbatim.
func (s *TaskService) Create(ctx context.Context, userID string, req model.CreateTaskRequest) (*model.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}
	if req.ManualOrder == nil {
		return nil, ErrManualOrderRequired
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	if !req.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if req.DueDate != nil {
		normalized, err := normalizeDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		req.DueDate = &normalized
	}

	task := &model.Task{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		IsCompleted: req.IsCompleted,
		ManualOrder: *req.ManualOrder,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies a sparse patch to one of the caller's tasks. A patch with
// no recognized fields is a caller error, not a silent no-op.
func (s *TaskService) Update(ctx context.Context, userID, id string, req model.UpdateTaskRequest) (*model.Task, error) {
	if req.Empty() {
		return nil, ErrNoFieldsToUpdate
	}
	if req.Title.Set && (req.Title.Null || strings.TrimSpace(req.Title.Value) == "") {
		return nil, ErrTitleRequired
	}
	if req.Priority.Set && (req.Priority.Null || !req.Priority.Value.Valid()) {
		return nil, ErrInvalidPriority
	}
	if req.IsCompleted.Set && req.IsCompleted.Null {
		return nil, ErrInvalidCompleted
	}
	if req.ManualOrder.Set && req.ManualOrder.Null {
		return nil, ErrManualOrderRequired
	}
	if req.DueDate.Set && !req.DueDate.Null {
		normalized, err := normalizeDueDate(req.DueDate.Value)
		if err != nil {
			return nil, err
		}
		req.DueDate.Value = normalized
	}

	task, err := s.repo.Update(ctx, userID, id, req)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil, ErrTaskNotFound
	}
	return task, err
}

// Delete removes one of the caller's tasks.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return ErrTaskNotFound
	}
	return err
}

// Reorder applies a batch of manual_order assignments atomically and returns
// the caller's full list in its new canonical order. Rows that are missing or
// not owned by the caller are skipped without failing the batch; any
// persistence failure rolls the whole batch back.
func (s *TaskService) Reorder(ctx context.Context, userID string, items []model.ReorderItem) ([]model.Task, error) {
	if items == nil {
		return nil, ErrInvalidReorder
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, item := range items {
		if _, err := s.repo.UpdateOrderTx(ctx, tx, userID, item.ID, item.ManualOrder); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.repo.ListOrdered(ctx, userID)
}

// normalizeDueDate validates a calendar date and returns it in canonical
// YYYY-MM-DD form. Due dates carry no time-of-day or timezone.
func normalizeDueDate(value string) (string, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return "", ErrInvalidDueDate
	}
	return t.Format(time.DateOnly), nil
}
