package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

// fakeAgentStore is an in-memory store.AgentStore for unit tests.
type fakeAgentStore struct {
	mu     sync.Mutex
	agents map[uuid.UUID]*domain.Agent
}

func newFakeAgentStore() *fakeAgentStore {
	return &fakeAgentStore{agents: make(map[uuid.UUID]*domain.Agent)}
}

func (f *fakeAgentStore) Create(ctx context.Context, agent *domain.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.agents {
		if existing.TenantID == agent.TenantID && existing.Name == agent.Name {
			return store.ErrAgentNameExists
		}
	}
	cp := *agent
	f.agents[agent.ID] = &cp
	return nil
}

func (f *fakeAgentStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agent, ok := f.agents[id]
	if !ok || agent.TenantID != tenantID {
		return nil, store.ErrAgentNotFound
	}
	cp := *agent
	return &cp, nil
}

func (f *fakeAgentStore) GetByAPIKey(ctx context.Context, apiKey uuid.UUID) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, agent := range f.agents {
		if agent.APIKey == apiKey {
			cp := *agent
			return &cp, nil
		}
	}
	return nil, store.ErrAgentNotFound
}

func (f *fakeAgentStore) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	agent, ok := f.agents[id]
	if !ok {
		return store.ErrAgentNotFound
	}
	ts := at
	agent.LastSeenAt = &ts
	agent.UpdatedAt = at
	return nil
}

func (f *fakeAgentStore) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var agents []*domain.Agent
	for _, agent := range f.agents {
		if agent.TenantID == tenantID {
			cp := *agent
			agents = append(agents, &cp)
		}
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return agents, nil
}

func (f *fakeAgentStore) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*domain.Agent, error) {
	all, err := f.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var active []*domain.Agent
	for _, agent := range all {
		if agent.Active {
			active = append(active, agent)
		}
	}
	return active, nil
}

func (f *fakeAgentStore) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	agent, ok := f.agents[id]
	if !ok || agent.TenantID != tenantID {
		return store.ErrAgentNotFound
	}
	agent.Active = active
	return nil
}

func (f *fakeAgentStore) ResetAPIKey(ctx context.Context, tenantID, id uuid.UUID, newKey uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	agent, ok := f.agents[id]
	if !ok || agent.TenantID != tenantID {
		return store.ErrAgentNotFound
	}
	agent.APIKey = newKey
	return nil
}

func (f *fakeAgentStore) WithTx(tx *sql.Tx) store.AgentStore { return f }

// fakeTaskStore is an in-memory store.TaskStore. Its claim and transition
// paths hold the mutex for the whole operation, mirroring the atomicity the
// SQL implementation gets from conditional UPDATEs.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.BiometricTask
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.BiometricTask)}
}

func copyTask(task *domain.BiometricTask) *domain.BiometricTask {
	cp := *task
	if task.Result != nil {
		result := *task.Result
		cp.Result = &result
	}
	return &cp
}

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.BiometricTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.tasks {
		if existing.EmployeeID == task.EmployeeID && existing.Finger == task.Finger && existing.Status.Open() {
			return store.ErrOpenTaskExists
		}
	}
	f.tasks[task.ID] = copyTask(task)
	return nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.BiometricTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.TenantID != tenantID {
		return nil, store.ErrTaskNotFound
	}
	return copyTask(task), nil
}

func (f *fakeTaskStore) GetByIDForAgent(ctx context.Context, agentID, id uuid.UUID) (*domain.BiometricTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.AgentID != agentID {
		return nil, store.ErrTaskNotFound
	}
	return copyTask(task), nil
}

func (f *fakeTaskStore) HasOpenTask(ctx context.Context, employeeID uuid.UUID, finger domain.Finger) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, task := range f.tasks {
		if task.EmployeeID == employeeID && task.Finger == finger && task.Status.Open() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTaskStore) LatestCompletedTemplate(ctx context.Context, employeeID uuid.UUID, finger domain.Finger) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var (
		latest   time.Time
		template string
	)
	for _, task := range f.tasks {
		if task.EmployeeID != employeeID || task.Finger != finger {
			continue
		}
		if task.Status != domain.TaskStatusCompleted || task.Result == nil || task.Result.TemplateBase64 == "" {
			continue
		}
		completedAt := task.UpdatedAt
		if task.CompletedAt != nil {
			completedAt = *task.CompletedAt
		}
		if completedAt.After(latest) {
			latest = completedAt
			template = task.Result.TemplateBase64
		}
	}
	return template, nil
}

func (f *fakeTaskStore) ClaimOldestPending(ctx context.Context, agentID uuid.UUID, at time.Time) (*domain.BiometricTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var oldest *domain.BiometricTask
	for _, task := range f.tasks {
		if task.AgentID != agentID || task.Status != domain.TaskStatusPending {
			continue
		}
		if oldest == nil ||
			task.CreatedAt.Before(oldest.CreatedAt) ||
			(task.CreatedAt.Equal(oldest.CreatedAt) && task.ID.String() < oldest.ID.String()) {
			oldest = task
		}
	}
	if oldest == nil {
		return nil, nil
	}
	ts := at
	oldest.Status = domain.TaskStatusInProgress
	oldest.AssignedAt = &ts
	oldest.StartedAt = &ts
	oldest.UpdatedAt = at
	return copyTask(oldest), nil
}

func (f *fakeTaskStore) CancelExpired(ctx context.Context, agentID uuid.UUID, cutoff time.Time, reason string, at time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cancelled := 0
	for _, task := range f.tasks {
		if agentID != uuid.Nil && task.AgentID != agentID {
			continue
		}
		if task.Status != domain.TaskStatusInProgress || task.StartedAt == nil || task.StartedAt.After(cutoff) {
			continue
		}
		ts := at
		task.Status = domain.TaskStatusCancelled
		task.FailureReason = reason
		task.CompletedAt = &ts
		task.CompletedBy = domain.SystemActor()
		task.UpdatedAt = at
		cancelled++
	}
	return cancelled, nil
}

func (f *fakeTaskStore) ApplyTransition(ctx context.Context, task *domain.BiometricTask, from domain.TaskStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if stored.Status != from {
		return store.ErrTaskStateChanged
	}
	f.tasks[task.ID] = copyTask(task)
	return nil
}

func (f *fakeTaskStore) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*domain.BiometricTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tasks []*domain.BiometricTask
	for _, task := range f.tasks {
		if task.EmployeeID == employeeID {
			tasks = append(tasks, copyTask(task))
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks, nil
}

func (f *fakeTaskStore) DeleteByEmployee(ctx context.Context, employeeID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deleted := 0
	for id, task := range f.tasks {
		if task.EmployeeID == employeeID {
			delete(f.tasks, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return f }

// fakeEmployeeStore is an in-memory store.EmployeeStore.
type fakeEmployeeStore struct {
	mu        sync.Mutex
	employees map[uuid.UUID]*domain.Employee
}

func newFakeEmployeeStore() *fakeEmployeeStore {
	return &fakeEmployeeStore{employees: make(map[uuid.UUID]*domain.Employee)}
}

func (f *fakeEmployeeStore) Create(ctx context.Context, employee *domain.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *employee
	f.employees[employee.ID] = &cp
	return nil
}

func (f *fakeEmployeeStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	employee, ok := f.employees[id]
	if !ok || employee.TenantID != tenantID {
		return nil, store.ErrEmployeeNotFound
	}
	cp := *employee
	return &cp, nil
}

func (f *fakeEmployeeStore) WithTx(tx *sql.Tx) store.EmployeeStore { return f }

// fakeUserStore is an in-memory store.UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}
