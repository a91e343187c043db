package model

import "time"

// Priority is a task priority level.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is one of the three known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task represents a task row in the database. DueDate is a pure calendar
// date in YYYY-MM-DD form with no time-of-day or timezone semantics.
// ManualOrder is caller-assigned and not validated for uniqueness or
// contiguity; the server only rewrites it on an explicit reorder batch.
type Task struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	DueDate     *string   `db:"due_date" json:"due_date"`
	Priority    Priority  `db:"priority" json:"priority"`
	IsCompleted bool      `db:"is_completed" json:"is_completed"`
	ManualOrder int       `db:"manual_order" json:"manual_order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CreateTaskRequest represents a task creation request body. ManualOrder is
// a pointer so a missing field is distinguishable from an explicit zero.
type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	DueDate     *string  `json:"due_date"`
	Priority    Priority `json:"priority"`
	IsCompleted bool     `json:"is_completed"`
	ManualOrder *int     `json:"manual_order"`
}

// UpdateTaskRequest represents a sparse task patch. Each field records
// whether it appeared in the JSON body, so absent fields are left untouched
// while an explicit null clears the nullable ones.
type UpdateTaskRequest struct {
	Title       Optional[string]   `json:"title,omitzero"`
	Description Optional[string]   `json:"description,omitzero"`
	DueDate     Optional[string]   `json:"due_date,omitzero"`
	Priority    Optional[Priority] `json:"priority,omitzero"`
	IsCompleted Optional[bool]     `json:"is_completed,omitzero"`
	ManualOrder Optional[int]      `json:"manual_order,omitzero"`
}

// Empty reports whether the patch carries no fields at all.
func (r UpdateTaskRequest) Empty() bool {
	return !r.Title.Set && !r.Description.Set && !r.DueDate.Set &&
		!r.Priority.Set && !r.IsCompleted.Set && !r.ManualOrder.Set
}

// ReorderItem assigns a new manual order value to one task.
type ReorderItem struct {
	ID          string `json:"id"`
	ManualOrder int    `json:"manual_order"`
}

// ReorderRequest represents a batch reorder request body.
type ReorderRequest struct {
	Tasks []ReorderItem `json:"tasks"`
}

// TaskResponse wraps a single task in the API's data envelope.
type TaskResponse struct {
	Data Task `json:"data"`
}

// TaskListResponse wraps a page of tasks plus the total count of matches
// disregarding pagination.
type TaskListResponse struct {
	Data  []Task `json:"data"`
	Count int    `json:"count"`
}
