// Package process resolves injection targets: it enumerates running
// processes and maps operator-supplied names onto PIDs.
package process

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
)

// Entry describes one running process.
type Entry struct {
	PID        int32
	Name       string
	Executable string
}

// Info manages a cached snapshot of the process list.
type Info struct {
	processes  []Entry
	mu         sync.RWMutex
	lastUpdate time.Time
}

// NewInfo creates a process information manager with an initial snapshot.
func NewInfo() *Info {
	info := &Info{}
	info.Refresh()
	return info
}

// Refresh re-reads the process list.
func (i *Info) Refresh() error {
	processes, err := process.Processes()
	if err != nil {
		return errors.Wrap(err, "listing processes")
	}

	var entries []Entry
	for _, p := range processes {
		name, err := p.Name()
		if err != nil {
			continue
		}

		exe, err := p.Exe()
		if err != nil {
			exe = ""
		}

		entries = append(entries, Entry{PID: p.Pid, Name: name, Executable: exe})
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].Name < entries[b].Name
	})

	i.mu.Lock()
	i.processes = entries
	i.lastUpdate = time.Now()
	i.mu.Unlock()

	return nil
}

// Processes returns a copy of the cached process list.
func (i *Info) Processes() []Entry {
	i.mu.RLock()
	defer i.mu.RUnlock()

	result := make([]Entry, len(i.processes))
	copy(result, i.processes)
	return result
}

// FindByName returns the cached processes whose name matches name,
// compared case-insensitively.
func (i *Info) FindByName(name string) []Entry {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var result []Entry
	for _, p := range i.processes {
		if strings.EqualFold(p.Name, name) {
			result = append(result, p)
		}
	}
	return result
}

// LastUpdateTime returns the time of the last snapshot.
func (i *Info) LastUpdateTime() time.Time {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.lastUpdate
}

// Exists reports whether pid refers to a running process.
func Exists(pid uint32) bool {
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}
