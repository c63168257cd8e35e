package task

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// searchParseWorkers bounds the parallel parsing of historical candidate
// files.
const searchParseWorkers = 4

// Pagination describes one page of search results.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalResults int  `json:"totalResults"`
	HasMore      bool `json:"hasMore"`
}

// SearchResult is one page of matching tasks.
type SearchResult struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

// Search looks for tasks in the live snapshot and in the memory area's
// historical snapshot files.
//
// With isID set the query is an exact task id. Otherwise the query splits
// into whitespace-separated keywords that must all appear (case-insensitive)
// in at least one of name, description, notes, implementation guide, or
// summary.
//
// Live results take precedence over historical ones with the same id.
// Completed tasks sort first by completion time descending; the rest sort
// by update time descending. The requested page is clamped into the valid
// range.
func (s *Store) Search(ctx context.Context, query string, isID bool, page, pageSize int) (*SearchResult, error) {
	data, err := s.Data(ctx)
	if err != nil {
		return nil, err
	}

	keywords := splitKeywords(query)

	var matched []Task
	seen := make(map[string]bool)
	for _, t := range data.Tasks {
		if taskMatches(&t, query, isID, keywords) {
			matched = append(matched, t)
			seen[t.ID] = true
		}
	}

	for _, t := range s.searchHistorical(ctx, query, isID, keywords) {
		if !seen[t.ID] {
			seen[t.ID] = true
			matched = append(matched, t)
		}
	}

	sortSearchResults(matched)
	return paginate(matched, page, pageSize), nil
}

// searchHistorical scans the memory area's most recent snapshot/backup
// files via the platform search utility. Every failure in this pass is
// logged and swallowed: historical search is best-effort on top of the
// authoritative live scan.
func (s *Store) searchHistorical(ctx context.Context, query string, isID bool, keywords []string) []Task {
	if s.searcher == nil {
		return nil
	}

	var candidates []string
	for _, pattern := range []string{archivePattern, backupPattern} {
		names, err := s.memoryFiles(pattern)
		if err != nil {
			s.logger.Warn("historical search: listing memory files failed", "error", err)
			return nil
		}
		candidates = append(candidates, names...)
	}
	// memoryFiles returns names newest first within each pattern; merge and
	// re-sort so the cap keeps the most recently named files overall.
	sort.Sort(sort.Reverse(sort.StringSlice(candidates)))
	if len(candidates) > s.maxHistoryFiles {
		candidates = candidates[:s.maxHistoryFiles]
	}
	if len(candidates) == 0 {
		return nil
	}

	paths := make([]string, len(candidates))
	for i, name := range candidates {
		paths[i] = filepath.Join(s.loc.MemoryDir, name)
	}

	matchedFiles, err := s.searcher.MatchingFiles(ctx, query, paths)
	if err != nil {
		s.logger.Warn("historical search: search command failed", "error", err)
		return nil
	}

	var (
		mu    sync.Mutex
		tasks []Task
	)
	var g errgroup.Group
	g.SetLimit(searchParseWorkers)
	for _, path := range matchedFiles {
		g.Go(func() error {
			fileTasks, err := readMemoryTasks(path)
			if err != nil {
				s.logger.Warn("historical search: skipping unreadable file",
					"file", filepath.Base(path), "error", err)
				return nil
			}
			var local []Task
			for _, t := range fileTasks {
				if taskMatches(&t, query, isID, keywords) {
					local = append(local, t)
				}
			}
			mu.Lock()
			tasks = append(tasks, local...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are logged per file

	return tasks
}

// readMemoryTasks loads the task list from an archive or backup file,
// whichever shape the file has.
func readMemoryTasks(path string) ([]Task, error) {
	if strings.HasPrefix(filepath.Base(path), backupPrefix) {
		env, err := readBackupFile(path)
		if err != nil {
			return nil, err
		}
		return env.allTasks(), nil
	}
	env, err := readArchiveFile(path)
	if err != nil {
		return nil, err
	}
	return env.Tasks, nil
}

// splitKeywords lowercases and splits a query on whitespace.
func splitKeywords(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// taskMatches applies the search rule: exact id match for id searches;
// otherwise every keyword must appear in at least one searchable field
// (AND across keywords, OR across fields).
func taskMatches(t *Task, query string, isID bool, keywords []string) bool {
	if isID {
		return t.ID == strings.TrimSpace(query)
	}
	if len(keywords) == 0 {
		return false
	}

	fields := []string{
		strings.ToLower(t.Name),
		strings.ToLower(t.Description),
		strings.ToLower(t.Notes),
		strings.ToLower(t.ImplementationGuide),
		strings.ToLower(t.Summary),
	}
	for _, kw := range keywords {
		found := false
		for _, f := range fields {
			if strings.Contains(f, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// sortSearchResults orders completed tasks first, by completion time
// descending, then everything else by update time descending.
func sortSearchResults(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ci, cj := tasks[i].CompletedAt, tasks[j].CompletedAt
		switch {
		case ci != nil && cj != nil:
			return ci.After(*cj)
		case ci != nil:
			return true
		case cj != nil:
			return false
		default:
			return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
		}
	})
}

// paginate clamps the requested page into [1, totalPages] and slices out
// one page of results.
func paginate(tasks []Task, page, pageSize int) *SearchResult {
	if pageSize <= 0 {
		pageSize = 5
	}

	total := len(tasks)
	totalPages := (total + pageSize - 1) / pageSize

	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &SearchResult{
		Tasks: tasks[start:end],
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalResults: total,
			HasMore:      page < totalPages,
		},
	}
}
