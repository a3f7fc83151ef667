// Package wordlist loads wordlist files and expands entries into candidate
// request paths.
package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads a newline-delimited wordlist file. Blank lines and lines
// starting with '#' are ignored. Entries are de-duplicated while preserving
// first-seen order.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading wordlist %s: %w", path, err)
	}
	defer file.Close()

	seen := make(map[string]struct{})
	var words []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading wordlist %s: %w", path, err)
	}
	return words, nil
}
