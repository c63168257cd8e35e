//go:build !windows

package textsearch

// searchCommand builds the grep invocation used on Unix-like systems:
// list matching file names only, case-insensitive, fixed-string query.
func searchCommand(query string, files []string) (string, []string) {
	args := append([]string{"-l", "-i", "-F", "--", query}, files...)
	return "grep", args
}
