// Package hubconfig reads and mutates the hub config file, the single
// authoritative persisted state of the provisioning engine. The file is a
// flat sequence of statements; there is no schema, so every invariant is
// enforced by the callers in this package and in pkg/provision.
package hubconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/gofrs/flock"

	"github.com/classroom-sre/hub-manager/internal/errdef"
)

// Store provides line-granular access to the hub config file. All mutations
// go through a process-level advisory lock; the tool assumes a single
// operator, the lock makes concurrent invocations wait instead of corrupting
// the file.
type Store struct {
	path string
	lock *flock.Flock
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the location of the config file.
func (s *Store) Path() string {
	return s.path
}

// Read returns the file as ordered lines, without terminators.
func (s *Store) Read() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading hub config %q: %w", s.path, err)
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

// Append durably writes one statement plus line terminator.
func (s *Store) Append(statement string) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking hub config: %w", err)
	}
	defer s.unlock()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening hub config %q for append: %w", s.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(statement + "\n"); err != nil {
		return fmt.Errorf("appending to hub config %q: %w", s.path, err)
	}
	return f.Close()
}

// Rewrite replaces the file contents with the given lines. This is a plain
// truncate-and-write; a crash mid-write loses the file. Known limitation of
// the deployment, kept deliberately.
func (s *Store) Rewrite(lines []string) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking hub config: %w", err)
	}
	defer s.unlock()

	return s.rewrite(lines)
}

// Update applies fn to the current lines and rewrites the file with its
// result, holding the advisory lock across the whole read-modify-write.
func (s *Store) Update(fn func(lines []string) ([]string, error)) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking hub config: %w", err)
	}
	defer s.unlock()

	lines, err := s.Read()
	if err != nil {
		return err
	}

	updated, err := fn(lines)
	if err != nil {
		return err
	}

	return s.rewrite(updated)
}

func (s *Store) rewrite(lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("rewriting hub config %q: %w", s.path, err)
	}
	return nil
}

func (s *Store) unlock() {
	_ = s.lock.Unlock()
}

// FindLine returns the first line satisfying the predicate.
func (s *Store) FindLine(predicate func(line string) bool) (string, error) {
	lines, err := s.Read()
	if err != nil {
		return "", err
	}
	for _, line := range lines {
		if predicate(line) {
			return line, nil
		}
	}
	return "", errdef.NewNotFound("no matching line in hub config %q", s.path)
}

// Contains reports whether the file text contains the given substring. The
// existence checks of the provisioning workflows are built on this.
func (s *Store) Contains(substring string) (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, fmt.Errorf("reading hub config %q: %w", s.path, err)
	}
	return strings.Contains(string(data), substring), nil
}

// AdminToken extracts the admin API token stored at install time.
func (s *Store) AdminToken() (string, error) {
	line, err := s.FindLine(func(line string) bool {
		return strings.Contains(line, adminTokenKey)
	})
	if err != nil {
		return "", err
	}

	_, value, found := strings.Cut(line, "=")
	if !found {
		return "", errdef.NewMalformed("admin token line %q has no value", line)
	}
	parts := strings.Split(value, "'")
	if len(parts) < 2 || parts[1] == "" {
		return "", errdef.NewMalformed("admin token line %q is not quoted", line)
	}
	return parts[1], nil
}
