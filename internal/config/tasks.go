package config

import "github.com/shaiso/Appo/internal/tasks"

// TaskRegistry собирает реестр шагов appo.db, appo.apm и appo.mepm.
func (c *Config) TaskRegistry(store tasks.Store) *tasks.Registry {
	return tasks.DefaultRegistry(store,
		tasks.APMConfig{
			Endpoint:    c.APM.Endpoint,
			PackagePath: c.MEPM.PackagePath,
			Timeout:     c.HTTP.Timeout,
		},
		tasks.MEPMConfig{
			SSLEnabled:  c.MEPM.SSLEnabled,
			PackagePath: c.MEPM.PackagePath,
			TrustStore: tasks.TrustStoreConfig{
				UseDefault: c.MEPM.UseDefaultTrustStore,
				Path:       c.MEPM.TrustStorePath,
				Password:   c.MEPM.TrustStorePassword,
			},
			Timeout: c.HTTP.Timeout,
		},
	)
}
