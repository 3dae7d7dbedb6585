package hubconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/classroom-sre/hub-manager/internal/errdef"
)

// NewAllocator returns the service port allocator backed by the given store.
func NewAllocator(store *Store) *Allocator {
	return &Allocator{store: store}
}

// Allocator hands out one unique port per registered service by decrementing
// the next_port counter persisted in the hub config.
type Allocator struct {
	store *Store
}

// Allocate returns the current counter value and persists the decrement,
// leaving every other line unchanged and in its original order. The
// read-modify-write runs under the store's advisory lock.
func (a *Allocator) Allocate() (int, error) {
	var port int
	err := a.store.Update(func(lines []string) ([]string, error) {
		updated := make([]string, 0, len(lines))
		found := false
		for _, line := range lines {
			if !found && strings.Contains(line, nextPortKey) {
				key, value, ok := strings.Cut(line, "=")
				if !ok {
					return nil, errdef.NewMalformed("port counter line %q has no value", line)
				}
				parsed, err := strconv.Atoi(strings.TrimSpace(value))
				if err != nil {
					return nil, errdef.NewMalformed("port counter line %q: %s", line, err)
				}
				port = parsed
				found = true
				updated = append(updated, fmt.Sprintf("%s=%d", key, parsed-1))
				continue
			}
			updated = append(updated, line)
		}
		if !found {
			return nil, errdef.NewMalformed("hub config %q has no %s line", a.store.Path(), nextPortKey)
		}
		return updated, nil
	})
	if err != nil {
		return 0, err
	}
	return port, nil
}
