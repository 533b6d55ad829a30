package hashlookup

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrInvalidHash is returned for configured hashes that are neither MD5 nor
// SHA-256 hex strings.
var ErrInvalidHash = errors.New("invalid hash value")

// hashPattern matches MD5 (32 hex digits) and SHA-256 (64 hex digits).
var hashPattern = regexp.MustCompile(`^(?:[0-9a-f]{32}|[0-9a-f]{64})$`)

// HashSet is a set of known file hashes.
type HashSet map[string]bool

// Add normalises and adds a hash.
func (s HashSet) Add(hash string) error {
	h := strings.ToLower(strings.TrimSpace(hash))
	if !hashPattern.MatchString(h) {
		return fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}
	s[h] = true
	return nil
}

// Contains reports whether any of the given hashes is in the set.
func (s HashSet) Contains(hashes ...string) bool {
	for _, h := range hashes {
		if h != "" && s[h] {
			return true
		}
	}
	return false
}

// LoadHashSet builds a hash set from inline values and hash set files.
//
// A hash set file holds one hash per line. Anything after the first comma
// or whitespace on a line is ignored, so md5sum output and simple CSV
// exports can be used as-is. Blank lines and lines starting with '#' are
// skipped.
func LoadHashSet(inline []string, files []string) (HashSet, error) {
	set := make(HashSet)
	for _, h := range inline {
		if err := set.Add(h); err != nil {
			return nil, err
		}
	}
	for _, path := range files {
		if err := set.addFile(path); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (s HashSet) addFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return fmt.Errorf("failed to open hash set %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.IndexAny(line, ", \t"); idx >= 0 {
			line = line[:idx]
		}
		if err := s.Add(line); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read hash set %s: %w", path, err)
	}
	return nil
}
