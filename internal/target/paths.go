package target

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultPaths is the crawl bootstrap used when no path file is given.
func DefaultPaths() []string {
	return []string{"/"}
}

// ReadPaths reads one URL path per line. Blank lines and lines starting with
// "#" are skipped; every remaining path must start with "/".
func ReadPaths(r io.Reader) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			return nil, fmt.Errorf("line %d: path %q must start with /", lineNo, line)
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading path file: %w", err)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("path file contains no paths")
	}
	return paths, nil
}
