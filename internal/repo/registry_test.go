package repo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Appo/internal/domain"
)

// newTestRegistry подключается к БД из APPO_TEST_DB_URL.
// Без переменной тест пропускается.
func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	dsn := os.Getenv("APPO_TEST_DB_URL")
	if dsn == "" {
		t.Skip("APPO_TEST_DB_URL is not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(pool))
	// Повторная миграция — не ошибка
	require.NoError(t, Migrate(pool))

	return NewRegistry(pool)
}

func TestRegistry_InstanceLifecycle(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	tenant := uuid.NewString()
	inst := &domain.AppInstance{
		Tenant:            tenant,
		AppInstanceID:     uuid.NewString(),
		MecHost:           "10.1.1.1",
		AppPackageID:      "pkg-1",
		AppID:             "app-1",
		AppName:           "demo",
		OperationalStatus: domain.StatusCreating,
	}

	created, err := reg.CreateInstance(ctx, inst)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreating, created.OperationalStatus)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = reg.CreateInstance(ctx, inst)
	assert.True(t, errors.Is(err, ErrAlreadyExists), "got %v", err)

	host := "10.2.2.2"
	require.NoError(t, reg.UpdateInstance(ctx, tenant, domain.InstancePatch{
		AppInstanceID:     inst.AppInstanceID,
		OperationalStatus: domain.StatusInstantiated,
		ApplcmHost:        &host,
	}))

	info := "ok"
	require.NoError(t, reg.UpdateInstance(ctx, tenant, domain.InstancePatch{
		AppInstanceID:     inst.AppInstanceID,
		OperationalStatus: domain.StatusRunning,
		OperationInfo:     &info,
	}))

	got, err := reg.GetInstance(ctx, tenant, inst.AppInstanceID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, got.OperationalStatus)
	assert.Equal(t, "10.2.2.2", got.ApplcmHost)
	assert.Equal(t, "ok", got.OperationInfo)

	require.NoError(t, reg.DeleteInstance(ctx, tenant, inst.AppInstanceID))
	assert.ErrorIs(t, reg.DeleteInstance(ctx, tenant, inst.AppInstanceID), ErrNotFound)

	_, err = reg.GetInstance(ctx, tenant, inst.AppInstanceID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = reg.UpdateInstance(ctx, tenant, domain.InstancePatch{AppInstanceID: "missing", OperationalStatus: domain.StatusFailed})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_RuleTaskLifecycle(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	tenant := uuid.NewString()
	id := uuid.NewString()

	// Новая задача: правила без результата
	require.NoError(t, reg.UpsertRuleTask(ctx, &domain.AppRuleTask{
		Tenant:        tenant,
		AppRuleTaskID: id,
		AppRules:      `{"appTrafficRule":[]}`,
	}))

	// Ответ платформы без правил не затирает их
	resp := domain.RuleTaskFromResponse(`{"taskId":"x","appInstanceId":"inst-9","detailed":"done"}`, false)
	resp.Tenant = tenant
	resp.AppRuleTaskID = id
	require.NoError(t, reg.UpsertRuleTask(ctx, resp))

	got, err := reg.GetRuleTask(ctx, tenant, id)
	require.NoError(t, err)
	assert.Equal(t, `{"appTrafficRule":[]}`, got.AppRules)
	assert.Equal(t, domain.ConfigResultSuccess, got.ConfigResult)
	assert.Equal(t, "inst-9", got.AppInstanceID)
	assert.Equal(t, "done", got.Detailed)

	// Janitor с будущей границей удаляет завершённую задачу
	n, err := reg.RuleTasks.DeleteCompletedBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	_, err = reg.GetRuleTask(ctx, tenant, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, reg.DeleteRuleTask(ctx, tenant, id), ErrNotFound)
}
