package config

// NewDefaults returns the built-in default configuration.
func NewDefaults() *Config {
	return &Config{
		Store: StoreConfig{
			DataDir:   ".talon",
			TasksFile: "tasks.json",
			MemoryDir: "memory",
		},
		History: HistoryConfig{
			GitBin:         "git",
			TimeoutSeconds: 30,
		},
		Search: SearchConfig{
			MaxHistoryFiles: 10,
			PageSize:        5,
		},
	}
}
