// Package janitor удаляет завершённые задачи правил из реестра.
//
// Результат задачи правил читается sequencer'ом через getAppRuleTask
// и затем удаляется deleteAppRuleTask. Если run оборвался между этими
// шагами, запись остаётся навсегда. Janitor по расписанию удаляет такие
// записи старше TTL.
//
//	j, err := janitor.New(janitor.Config{
//	    Cleaner:  ruleTaskRepo,
//	    Locker:   repo.NewAdvisoryLock(pool, janitor.LockKey),
//	    Schedule: "@every 10m",
//	    TTL:      24 * time.Hour,
//	    Logger:   logger,
//	})
//	err = j.Run(ctx)
//
// Несколько экземпляров безопасны: чистит только держатель
// pg_advisory_lock.
package janitor

// LockKey — ключ advisory lock для выбора лидера.
const LockKey int64 = 0x6170706f // "appo"
