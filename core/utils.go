package core

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanTags lowers, trims and de-duplicates tags, dropping empty ones. Order is preserved.
// The result is never nil: array columns are NOT NULL.
func CleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = CleanString(tag, true /* lower */)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		cleaned = append(cleaned, tag)
	}
	return cleaned
}

// NewID generates a new primary key.
func NewID() string {
	return uuid.New().String()
}

// IsValidID reports whether id can be a primary key.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ContainsString reports whether the sorted slice `sorted` contains `s`.
func ContainsString(sorted []string, s string) bool {
	if i := sort.SearchStrings(sorted, s); i < len(sorted) {
		return sorted[i] == s
	}
	return false
}

// Getwd tries to find the project root: $WORK_DIR, else the closest parent holding a go.mod, else the cwd.
// go-test changes the working directory to the test package being run during tests...
// see: https://stackoverflow.com/questions/23847003/golang-tests-and-working-directory
func Getwd() string {
	if wd := os.Getenv("WORK_DIR"); wd != "" {
		return wd
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

// ContainsFold reports whether substr is within s, case-insensitively.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// HasTag reports whether tags contains tag, case-insensitively.
func HasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
