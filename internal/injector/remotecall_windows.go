//go:build windows
// +build windows

package injector

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// captureLibName is the capture library's file name. The controller keeps
// its own copy loaded so exported symbols can be resolved locally and
// translated to target addresses.
const captureLibName = "renderdoc.dll"

var (
	captureLibOnce sync.Once
	captureLibMod  windows.Handle
	captureLibErr  error
)

// captureLibrary returns the controller's own handle to the capture
// library, loading it from the executable's directory on first use.
func captureLibrary() (windows.Handle, error) {
	captureLibOnce.Do(func() {
		namep, err := windows.UTF16PtrFromString(captureLibName)
		if err != nil {
			captureLibErr = err
			return
		}

		if mod, err := windows.GetModuleHandle(namep); err == nil {
			captureLibMod = mod
			return
		}

		exe, err := os.Executable()
		if err != nil {
			captureLibErr = errors.Wrap(err, "locating own executable")
			return
		}

		path := filepath.Join(filepath.Dir(exe), captureLibName)
		mod, err := windows.LoadLibraryEx(path, 0, windows.LOAD_WITH_ALTERED_SEARCH_PATH)
		if err != nil {
			captureLibErr = errors.Wrapf(err, "loading %s", path)
			return
		}
		captureLibMod = mod
	})
	return captureLibMod, captureLibErr
}

// captureLibraryPath returns the absolute path of the controller's loaded
// capture library.
func captureLibraryPath() (string, error) {
	mod, err := captureLibrary()
	if err != nil {
		return "", err
	}

	var buf [windows.MAX_PATH]uint16
	n, err := windows.GetModuleFileName(mod, &buf[0], uint32(len(buf)))
	if err != nil {
		return "", errors.Wrap(err, "querying capture library path")
	}
	return windows.UTF16ToString(buf[:n]), nil
}

// captureLibraryExport resolves an exported symbol in the controller's own
// copy of the capture library.
func captureLibraryExport(name string) (uintptr, error) {
	mod, err := captureLibrary()
	if err != nil {
		return 0, err
	}
	addr, err := windows.GetProcAddress(mod, name)
	if err != nil {
		return 0, errors.Wrapf(err, "resolving export %s", name)
	}
	return addr, nil
}

// injectFunctionCall serialises one call into the target: it allocates a
// remote buffer, writes data into it, runs a remote thread whose entry
// point is the named capture-library export and whose single argument is
// the buffer address, and waits for it to finish. When readBack is set the
// mutated buffer is copied back into data. The buffer is freed and the
// thread handle closed on every exit path.
func (i *Injector) injectFunctionCall(process windows.Handle, remoteBase uintptr, funcName string, data []byte, readBack bool) error {
	if len(data) == 0 {
		err := errors.New("invalid function call injection attempt: empty argument")
		i.logger.Error("Remote call failed", "func", funcName, "error", err)
		return err
	}

	i.logger.Debug("Injecting call", "func", funcName)

	funcRemote, err := i.remoteFunctionAddress(process, remoteBase, funcName)
	if err != nil {
		i.logger.Error("Remote call failed", "func", funcName, "error", err)
		return err
	}

	region, err := allocRemote(process, uintptr(len(data)))
	if err != nil {
		i.logger.Error("Remote call failed", "func", funcName, "error", err)
		return err
	}
	defer region.Free()

	if err := region.Write(data); err != nil {
		i.logger.Error("Remote call failed", "func", funcName, "error", err)
		return err
	}

	thread, err := CreateRemoteThread(process, nil, 0, funcRemote, region.addr, 0, nil)
	if err != nil {
		err = errors.Wrap(err, "creating remote thread")
		i.logger.Error("Remote call failed", "func", funcName, "error", err)
		return err
	}
	defer windows.CloseHandle(thread)

	windows.WaitForSingleObject(thread, windows.INFINITE)

	if readBack {
		if err := region.Read(data); err != nil {
			i.logger.Error("Remote call read-back failed", "func", funcName, "error", err)
			return err
		}
	}

	return nil
}

// remoteFunctionAddress computes an export's address inside the target.
// The primary path assumes both processes mapped the capture library with
// the same relocation delta: remote = local + remoteBase - localBase. The
// result is cross-checked against the remote module's export table; on a
// mismatch the export table wins.
func (i *Injector) remoteFunctionAddress(process windows.Handle, remoteBase uintptr, funcName string) (uintptr, error) {
	mod, err := captureLibrary()
	if err != nil {
		return 0, err
	}

	funcLocal, err := captureLibraryExport(funcName)
	if err != nil {
		return 0, err
	}

	funcRemote := funcLocal + remoteBase - uintptr(mod)

	exported, err := findRemoteExport(process, remoteBase, funcName)
	if err != nil {
		i.logger.Debug("Remote export table unreadable, trusting relocation delta",
			"func", funcName, "error", err)
		return funcRemote, nil
	}
	if exported != 0 && exported != funcRemote {
		i.logger.Warn("Relocation delta disagrees with remote export table",
			"func", funcName,
			"delta_addr", funcRemote,
			"export_addr", exported)
		return exported, nil
	}

	return funcRemote, nil
}
