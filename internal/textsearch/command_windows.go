//go:build windows

package textsearch

// searchCommand builds the findstr invocation used on Windows: list
// matching file names only (/M), case-insensitive (/I), literal query (/C).
func searchCommand(query string, files []string) (string, []string) {
	args := append([]string{"/M", "/I", "/C:" + query}, files...)
	return "findstr", args
}
