// Package capture holds the capture library's process-global state: the
// target-control identifier, the active capture options and log path, and
// the deferred environment modifications pushed in by the controller.
//
// The remote-call protocol serialises access from the controller side, but
// the state is also reachable from in-process callers once hooks are live,
// so a mutex guards it anyway.
package capture

import (
	"fmt"
	"net"
	"sync"

	"github.com/xiongyaya/renderdoc/internal/env"
)

// Target-control idents are TCP ports from a fixed 8-port range; the ident
// doubles as the port the controller reconnects on.
const (
	identBasePort  = 38920
	identPortCount = 8
)

type libState struct {
	mu sync.Mutex

	ident         uint32
	identListener net.Listener

	opts    Options
	logfile string

	staging env.Modification
	pending []env.Modification
}

var (
	stateOnce sync.Once
	state     *libState
)

func inst() *libState {
	stateOnce.Do(func() {
		state = &libState{}
	})
	return state
}

// SetLogFile records the log path pushed in by the controller.
func SetLogFile(path string) {
	s := inst()
	s.mu.Lock()
	s.logfile = path
	s.mu.Unlock()
}

// LogFile returns the current log path.
func LogFile() string {
	s := inst()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logfile
}

// SetCaptureOptions copies a raw options blob into library state.
func SetCaptureOptions(blob []byte) error {
	o, err := OptionsFromBytes(blob)
	if err != nil {
		return err
	}
	s := inst()
	s.mu.Lock()
	s.opts = *o
	s.mu.Unlock()
	return nil
}

// CaptureOptions returns a copy of the active options.
func CaptureOptions() Options {
	s := inst()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// TargetControlIdent returns the control identifier, minting it on first
// use by binding a listener on the first free port of the ident range. The
// listener stays open for the library's lifetime; the bound port is the
// ident. Returns 0 when the whole range is taken.
func TargetControlIdent() uint32 {
	s := inst()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ident != 0 {
		return s.ident
	}

	for port := identBasePort; port < identBasePort+identPortCount; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		s.identListener = l
		s.ident = uint32(port)
		break
	}

	return s.ident
}

// StageName copies name into the staging record.
func StageName(name string) {
	s := inst()
	s.mu.Lock()
	s.staging.Name = name
	s.mu.Unlock()
}

// StageValue copies value into the staging record.
func StageValue(value string) {
	s := inst()
	s.mu.Lock()
	s.staging.Value = value
	s.mu.Unlock()
}

// CommitMod completes the staging record with op and appends it to the
// pending list. The controller's call order Name, Value, CommitMod is a
// protocol contract; it is not validated here.
func CommitMod(op env.Op) {
	s := inst()
	s.mu.Lock()
	s.staging.Op = op
	s.pending = append(s.pending, s.staging)
	s.mu.Unlock()
}

// PendingMods returns a copy of the pending list.
func PendingMods() []env.Modification {
	s := inst()
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]env.Modification(nil), s.pending...)
}

// takePending atomically drains the pending list.
func takePending() []env.Modification {
	s := inst()
	s.mu.Lock()
	defer s.mu.Unlock()
	mods := s.pending
	s.pending = nil
	return mods
}

// ApplyEnvMods drains the pending list and merges it into the live
// environment. A second call with no intervening edits is a no-op.
func ApplyEnvMods() error {
	mods := takePending()
	if len(mods) == 0 {
		return nil
	}
	return applyLive(mods)
}
