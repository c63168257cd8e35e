package config

// Config is the top-level configuration structure mapping to talon.toml.
type Config struct {
	Store   StoreConfig   `toml:"store"`
	History HistoryConfig `toml:"history"`
	Search  SearchConfig  `toml:"search"`
}

// StoreConfig maps to the [store] section in talon.toml.
type StoreConfig struct {
	// DataDir is the directory holding the snapshot file, the memory area,
	// and the history store. Relative paths resolve against the config file
	// location (or the working directory when no file exists).
	DataDir string `toml:"data_dir"`

	// TasksFile is the snapshot file name within DataDir.
	TasksFile string `toml:"tasks_file"`

	// MemoryDir is the archive/backup area name within DataDir.
	MemoryDir string `toml:"memory_dir"`
}

// HistoryConfig maps to the [history] section in talon.toml.
type HistoryConfig struct {
	// GitBin is the version-control executable used for the audit log.
	GitBin string `toml:"git_bin"`

	// TimeoutSeconds bounds each git invocation.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// SearchConfig maps to the [search] section in talon.toml.
type SearchConfig struct {
	// MaxHistoryFiles caps how many of the most recent memory-area files
	// the historical search pass inspects.
	MaxHistoryFiles int `toml:"max_history_files"`

	// PageSize is the default number of results per search page.
	PageSize int `toml:"page_size"`
}
