package tasks

import (
	"fmt"
	"sort"
	"sync"
)

// Registry — реестр типов шагов.
//
// Позволяет регистрировать и получать реализации Task по типу.
// Потокобезопасен.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewRegistry создаёт реестр с переданными шагами.
func NewRegistry(tasks ...Task) *Registry {
	r := &Registry{
		tasks: make(map[string]Task),
	}
	for _, t := range tasks {
		r.Register(t)
	}
	return r
}

// DefaultRegistry создаёт реестр со всеми шагами Appo.
func DefaultRegistry(store Store, apm APMConfig, mepm MEPMConfig) *Registry {
	return NewRegistry(
		NewDBTask(store),
		NewAPMTask(apm),
		NewMEPMAdapter(mepm),
	)
}

// Register регистрирует шаг в реестре.
// Если шаг с таким типом уже существует, он будет перезаписан.
func (r *Registry) Register(task Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.Type()] = task
}

// Get возвращает шаг по типу.
// Возвращает ErrTaskNotFound, если шаг не найден.
func (r *Registry) Get(taskType string) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, exists := r.tasks[taskType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskType)
	}
	return task, nil
}

// Types возвращает отсортированный список зарегистрированных типов.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.tasks))
	for t := range r.tasks {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
