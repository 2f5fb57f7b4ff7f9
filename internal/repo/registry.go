package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Appo/internal/domain"
)

// Registry — реестр инстансов и задач правил поверх Postgres.
//
// Объединяет InstanceRepo и RuleTaskRepo под интерфейс, который
// потребляют шаги реестра.
type Registry struct {
	Instances *InstanceRepo
	RuleTasks *RuleTaskRepo
}

// NewRegistry создаёт Registry на общем пуле.
func NewRegistry(pool *pgxpool.Pool) *Registry {
	return &Registry{
		Instances: NewInstanceRepo(pool),
		RuleTasks: NewRuleTaskRepo(pool),
	}
}

func (r *Registry) CreateInstance(ctx context.Context, inst *domain.AppInstance) (*domain.AppInstance, error) {
	return r.Instances.Create(ctx, inst)
}

func (r *Registry) GetInstance(ctx context.Context, tenant, id string) (*domain.AppInstance, error) {
	return r.Instances.Get(ctx, tenant, id)
}

func (r *Registry) UpdateInstance(ctx context.Context, tenant string, patch domain.InstancePatch) error {
	return r.Instances.Update(ctx, tenant, patch)
}

func (r *Registry) DeleteInstance(ctx context.Context, tenant, id string) error {
	return r.Instances.Delete(ctx, tenant, id)
}

func (r *Registry) UpsertRuleTask(ctx context.Context, task *domain.AppRuleTask) error {
	return r.RuleTasks.Upsert(ctx, task)
}

func (r *Registry) GetRuleTask(ctx context.Context, tenant, id string) (*domain.AppRuleTask, error) {
	return r.RuleTasks.Get(ctx, tenant, id)
}

func (r *Registry) DeleteRuleTask(ctx context.Context, tenant, id string) error {
	return r.RuleTasks.Delete(ctx, tenant, id)
}
