package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidationError describes a single invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for values the store cannot operate
// with. All problems are reported at once.
func Validate(cfg *Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Store.DataDir) == "" {
		errs = append(errs, ValidationError{"store.data_dir", "must not be empty"}.Error())
	}
	if strings.TrimSpace(cfg.Store.TasksFile) == "" {
		errs = append(errs, ValidationError{"store.tasks_file", "must not be empty"}.Error())
	} else if filepath.Base(cfg.Store.TasksFile) != cfg.Store.TasksFile {
		errs = append(errs, ValidationError{"store.tasks_file", "must be a bare file name, not a path"}.Error())
	}
	if strings.TrimSpace(cfg.Store.MemoryDir) == "" {
		errs = append(errs, ValidationError{"store.memory_dir", "must not be empty"}.Error())
	}
	if cfg.History.TimeoutSeconds < 0 {
		errs = append(errs, ValidationError{"history.timeout_seconds", "must not be negative"}.Error())
	}
	if cfg.Search.MaxHistoryFiles < 0 {
		errs = append(errs, ValidationError{"search.max_history_files", "must not be negative"}.Error())
	}
	if cfg.Search.PageSize < 0 {
		errs = append(errs, ValidationError{"search.page_size", "must not be negative"}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
