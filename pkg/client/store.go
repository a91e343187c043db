package client

import (
	"context"
	"sort"
	"sync"

	"github.com/taskdeck/taskdeck-go/pkg/model"
)

// State is a snapshot of the client-side cache: the authenticated user, the
// current task page, and the active filters.
type State struct {
	User    *model.UserResponse
	Token   string
	Tasks   []model.Task
	Count   int
	Filters Filters
}

// Store is the single owner of client-side state. All mutation goes through
// its action methods; views read snapshots and never write. Successful
// mutations install exactly the server-returned records, so the cache cannot
// drift from the server's view.
type Store struct {
	mu       sync.Mutex
	client   *Client
	state    State
	onChange func(State)
}

// NewStore creates a Store around c. onChange, if non-nil, is called with a
// snapshot after every state change.
func NewStore(c *Client, onChange func(State)) *Store {
	return &Store{client: c, onChange: onChange}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	snap := s.state
	snap.Tasks = append([]model.Task(nil), s.state.Tasks...)
	return snap
}

func (s *Store) notifyLocked() {
	if s.onChange != nil {
		s.onChange(s.snapshotLocked())
	}
}

// Signup creates an account and installs the returned identity.
func (s *Store) Signup(ctx context.Context, req model.SignupRequest) error {
	resp, err := s.client.Signup(ctx, req)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.installIdentityLocked(resp)
	return nil
}

// Login authenticates and installs the returned identity.
func (s *Store) Login(ctx context.Context, req model.LoginRequest) error {
	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.installIdentityLocked(resp)
	return nil
}

func (s *Store) installIdentityLocked(resp model.AuthResponse) {
	user := resp.Data
	s.state.User = &user
	s.state.Token = resp.Token
	s.client.SetToken(resp.Token)
	s.notifyLocked()
}

// Logout clears the identity and the cached task data in one step, so a
// stale task list is never visible under no identity.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
	s.client.SetToken("")
	s.notifyLocked()
}

// LoadTasks fetches the task list for the current filters and installs it.
func (s *Store) LoadTasks(ctx context.Context) error {
	s.mu.Lock()
	filters := s.state.Filters
	s.mu.Unlock()

	resp, err := s.client.ListTasks(ctx, filters)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Tasks = resp.Data
	s.state.Count = resp.Count
	s.notifyLocked()
	return nil
}

// SetFilters replaces the active filters and refetches from the server.
// The stale cached list is never re-filtered locally, because server-side
// matching semantics are not reproducible client-side.
func (s *Store) SetFilters(ctx context.Context, f Filters) error {
	s.mu.Lock()
	s.state.Filters = f
	s.mu.Unlock()

	return s.LoadTasks(ctx)
}

// CreateTask creates a task and appends the server-returned record.
func (s *Store) CreateTask(ctx context.Context, req model.CreateTaskRequest) (model.Task, error) {
	task, err := s.client.CreateTask(ctx, req)
	if err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Tasks = append(s.state.Tasks, task)
	s.state.Count++
	s.notifyLocked()
	return task, nil
}

// UpdateTask patches a task and installs the server-returned record in
// place of the cached one.
func (s *Store) UpdateTask(ctx context.Context, id string, req model.UpdateTaskRequest) (model.Task, error) {
	task, err := s.client.UpdateTask(ctx, id, req)
	if err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Tasks {
		if s.state.Tasks[i].ID == task.ID {
			s.state.Tasks[i] = task
			break
		}
	}
	s.notifyLocked()
	return task, nil
}

// DeleteTask deletes a task and drops it from the cache.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.client.DeleteTask(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Tasks {
		if s.state.Tasks[i].ID == id {
			s.state.Tasks = append(s.state.Tasks[:i], s.state.Tasks[i+1:]...)
			s.state.Count--
			break
		}
	}
	s.notifyLocked()
	return nil
}

// Reorder optimistically applies the batch to the cached list, submits it,
// and then overwrites the guess with the server's canonical order. On
// failure the cache reverts to the pre-drag state.
func (s *Store) Reorder(ctx context.Context, items []model.ReorderItem) error {
	s.mu.Lock()
	previous := s.snapshotLocked()
	s.applyOrderLocked(items)
	s.notifyLocked()
	s.mu.Unlock()

	resp, err := s.client.ReorderTasks(ctx, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state.Tasks = previous.Tasks
		s.state.Count = previous.Count
		s.notifyLocked()
		return err
	}

	s.state.Tasks = resp.Data
	s.state.Count = resp.Count
	s.notifyLocked()
	return nil
}

// applyOrderLocked rewrites cached manual_order values from the batch and
// re-sorts the cached list. This is only the optimistic guess; the server
// response is authoritative.
func (s *Store) applyOrderLocked(items []model.ReorderItem) {
	orders := make(map[string]int, len(items))
	for _, item := range items {
		orders[item.ID] = item.ManualOrder
	}
	for i := range s.state.Tasks {
		if order, ok := orders[s.state.Tasks[i].ID]; ok {
			s.state.Tasks[i].ManualOrder = order
		}
	}
	sort.SliceStable(s.state.Tasks, func(i, j int) bool {
		return s.state.Tasks[i].ManualOrder < s.state.Tasks[j].ManualOrder
	})
}
