package tasks

import (
	"context"
	"sync"

	"github.com/shaiso/Appo/internal/domain"
	"github.com/shaiso/Appo/internal/execution"
	"github.com/shaiso/Appo/internal/repo"
)

// fakeStore — Store в памяти с инъекцией ошибок.
type fakeStore struct {
	mu        sync.Mutex
	instances map[string]*domain.AppInstance
	ruleTasks map[string]*domain.AppRuleTask

	// err — если задан, возвращается любым методом.
	err   error
	calls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		instances: make(map[string]*domain.AppInstance),
		ruleTasks: make(map[string]*domain.AppRuleTask),
	}
}

func key(tenant, id string) string { return tenant + "/" + id }

func (s *fakeStore) begin() error {
	s.mu.Lock()
	s.calls++
	return s.err
}

func (s *fakeStore) CreateInstance(_ context.Context, inst *domain.AppInstance) (*domain.AppInstance, error) {
	defer s.mu.Unlock()
	if err := s.begin(); err != nil {
		return nil, err
	}
	k := key(inst.Tenant, inst.AppInstanceID)
	if _, ok := s.instances[k]; ok {
		return nil, repo.ErrAlreadyExists
	}
	cp := *inst
	s.instances[k] = &cp
	return &cp, nil
}

func (s *fakeStore) GetInstance(_ context.Context, tenant, id string) (*domain.AppInstance, error) {
	defer s.mu.Unlock()
	if err := s.begin(); err != nil {
		return nil, err
	}
	inst, ok := s.instances[key(tenant, id)]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *inst
	return &cp, nil
}

func (s *fakeStore) UpdateInstance(_ context.Context, tenant string, patch domain.InstancePatch) error {
	defer s.mu.Unlock()
	if err := s.begin(); err != nil {
		return err
	}
	inst, ok := s.instances[key(tenant, patch.AppInstanceID)]
	if !ok {
		return repo.ErrNotFound
	}
	patch.Apply(inst)
	return nil
}

func (s *fakeStore) DeleteInstance(_ context.Context, tenant, id string) error {
	defer s.mu.Unlock()
	if err := s.begin(); err != nil {
		return err
	}
	k := key(tenant, id)
	if _, ok := s.instances[k]; !ok {
		return repo.ErrNotFound
	}
	delete(s.instances, k)
	return nil
}

func (s *fakeStore) UpsertRuleTask(_ context.Context, task *domain.AppRuleTask) error {
	defer s.mu.Unlock()
	if err := s.begin(); err != nil {
		return err
	}
	k := key(task.Tenant, task.AppRuleTaskID)
	cp := *task
	if old, ok := s.ruleTasks[k]; ok && cp.AppRules == "" {
		cp.AppRules = old.AppRules
	}
	s.ruleTasks[k] = &cp
	return nil
}

func (s *fakeStore) GetRuleTask(_ context.Context, tenant, id string) (*domain.AppRuleTask, error) {
	defer s.mu.Unlock()
	if err := s.begin(); err != nil {
		return nil, err
	}
	task, ok := s.ruleTasks[key(tenant, id)]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *task
	return &cp, nil
}

func (s *fakeStore) DeleteRuleTask(_ context.Context, tenant, id string) error {
	defer s.mu.Unlock()
	if err := s.begin(); err != nil {
		return err
	}
	k := key(tenant, id)
	if _, ok := s.ruleTasks[k]; !ok {
		return repo.ErrNotFound
	}
	delete(s.ruleTasks, k)
	return nil
}

// newContext создаёт контекст с заданными значениями.
func newContext(values map[execution.Key]any) *execution.Context {
	ec := execution.New()
	for k, v := range values {
		ec.Set(k, v)
	}
	return ec
}
