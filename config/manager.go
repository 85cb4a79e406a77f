package config

import (
	"sync/atomic"

	"github.com/saiset-co/sai-commerce/types"
)

type Manager struct {
	path   string
	loader *Loader
	config atomic.Pointer[types.ServiceConfig]
}

func NewManager(path string) types.ConfigManager {
	return &Manager{
		path:   path,
		loader: NewLoader(),
	}
}

func (m *Manager) Load() error {
	config, err := m.loader.LoadFromFile(m.path)
	if err != nil {
		return err
	}

	m.config.Store(config)
	return nil
}

func (m *Manager) GetConfig() *types.ServiceConfig {
	if config := m.config.Load(); config != nil {
		return config
	}

	return m.loader.Defaults()
}
