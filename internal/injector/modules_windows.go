//go:build windows
// +build windows

package injector

import (
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// moduleSnapshot acquires a toolhelp module snapshot of the target, making
// up to ten attempts in all (the first plus nine retries) while the snapshot
// API reports the transient ERROR_BAD_LENGTH it returns when the target's
// module list is mid-update.
func (i *Injector) moduleSnapshot(pid uint32) (windows.Handle, error) {
	var snap windows.Handle
	var err error

	for attempt := 0; attempt < 10; attempt++ {
		snap, err = windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE, pid)
		if err == nil {
			return snap, nil
		}

		i.logger.Warn("Module snapshot failed", "pid", pid, "error", err)

		if err != windows.ERROR_BAD_LENGTH {
			break
		}
	}

	return windows.InvalidHandle, err
}

// FindRemoteModule returns the load address of the first module of the
// target process whose basename contains name (compared lowercased), or 0
// when the snapshot is unavailable or nothing matches. On a miss the target
// is probed for liveness so a crashed target logs differently from a
// missing module.
func (i *Injector) FindRemoteModule(pid uint32, name string) uintptr {
	query := strings.ToLower(name)

	snap, err := i.moduleSnapshot(pid)
	if err != nil {
		i.logger.Error("Couldn't create toolhelp dump of modules in process", "pid", pid, "error", err)
		return 0
	}
	defer windows.CloseHandle(snap)

	var me windows.ModuleEntry32
	me.Size = uint32(unsafe.Sizeof(me))

	if err := windows.Module32First(snap, &me); err != nil {
		i.logger.Error("Couldn't get first module in process", "pid", pid, "error", err)
		return 0
	}

	var base uintptr
	numModules := 0

	for {
		numModules++
		modname := strings.ToLower(windows.UTF16ToString(me.Module[:]))
		if strings.Contains(modname, query) {
			base = me.ModBaseAddr
			break
		}

		if err := windows.Module32Next(snap, &me); err != nil {
			break
		}
	}

	if base == 0 {
		if i.targetAlive(pid) {
			i.logger.Error("Couldn't find module among target's modules",
				"module", name, "pid", pid, "modules_seen", numModules)
		} else {
			i.logger.Error("Target process died during injection, possibly crashed in early startup",
				"pid", pid)
		}
	}

	return base
}

// targetAlive reports whether pid still refers to a running process.
func (i *Injector) targetAlive(pid uint32) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION, false, pid)
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var exitCode uint32
	if err := windows.GetExitCodeProcess(h, &exitCode); err != nil {
		return false
	}
	return exitCode == stillActive
}
