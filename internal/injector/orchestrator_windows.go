//go:build windows
// +build windows

package injector

import (
	"encoding/binary"
	"runtime"
	"strings"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/xiongyaya/renderdoc/internal/capture"
	"github.com/xiongyaya/renderdoc/internal/env"
)

// Injector drives the capture library into target processes.
type Injector struct {
	logger Logger
}

// New creates a new Injector instance
func New(logger Logger) *Injector {
	if logger == nil {
		logger = &SilentLogger{}
	}
	return &Injector{logger: logger}
}

const targetAccess = windows.PROCESS_CREATE_THREAD |
	windows.PROCESS_QUERY_INFORMATION |
	windows.PROCESS_VM_OPERATION |
	windows.PROCESS_VM_WRITE |
	windows.PROCESS_VM_READ |
	windows.SYNCHRONIZE

// InjectIntoProcess attaches to pid, loads the capture library into it,
// drives the boot sequence (log path, capture options, control ident,
// environment edits) and returns the non-zero control identifier, or 0 on
// failure. With waitForExit it blocks until the target exits; the returned
// identifier is still the pre-exit value.
func (i *Injector) InjectIntoProcess(pid uint32, mods []env.Modification, logfile string, opts *capture.Options, waitForExit bool) uint32 {
	var options capture.Options
	if opts != nil {
		options = *opts
	}

	hProcess, err := windows.OpenProcess(targetAccess, false, pid)
	if err != nil {
		i.logger.Error("Failed to open target process", "pid", pid, "error", err)
		return 0
	}
	defer windows.CloseHandle(hProcess)

	if options.DelayForDebugger > 0 {
		i.waitForDebugger(hProcess, pid, options.DelayForDebugger)
	}

	i.logger.Info("Injecting capture library into process", "pid", pid)

	libPath, err := captureLibraryPath()
	if err != nil {
		i.logger.Error("Couldn't resolve capture library path", "error", err)
		return 0
	}

	var targetWow64 bool
	if err := windows.IsWow64Process(hProcess, &targetWow64); err != nil {
		i.logger.Error("Couldn't determine bitness of process", "pid", pid, "error", err)
		return 0
	}

	if runtime.GOARCH == "386" {
		var selfWow64 bool
		if err := windows.IsWow64Process(windows.CurrentProcess(), &selfWow64); err != nil {
			i.logger.Error("Couldn't determine bitness of self", "error", err)
			return 0
		}

		// self running under WoW64 means a 64-bit host; a non-WoW64
		// target there is 64-bit and out of reach for a 32-bit controller
		if selfWow64 && !targetWow64 {
			i.logger.Error("Can't capture x64 process with x86 controller", "pid", pid)
			return 0
		}
	} else if targetWow64 {
		return i.delegateToX86(hProcess, pid, libPath, logfile, &options, mods, waitForExit)
	}

	if err := i.injectDLL(hProcess, libPath); err != nil {
		return 0
	}

	loc := i.FindRemoteModule(pid, captureLibName)

	var ident uint32

	if loc == 0 {
		i.logger.Error("Can't locate capture library in remote process", "pid", pid)
	} else {
		ident = i.bootCaptureLibrary(hProcess, loc, logfile, opts, mods)
	}

	if waitForExit {
		windows.WaitForSingleObject(hProcess, windows.INFINITE)
	}

	return ident
}

// bootCaptureLibrary runs the fixed-order boot sequence against the capture
// library mapped at loc in the target. Each step blocks on its remote
// thread before the next is issued. Returns the control identifier, or 0
// when any step fails; a partially-booted library is left in place.
func (i *Injector) bootCaptureLibrary(hProcess windows.Handle, loc uintptr, logfile string, opts *capture.Options, mods []env.Modification) uint32 {
	if logfile != "" {
		if err := i.injectFunctionCall(hProcess, loc, "RENDERDOC_SetLogFile", append([]byte(logfile), 0), false); err != nil {
			return 0
		}
	}

	if opts != nil {
		blob := append([]byte(nil), opts.Bytes()...)
		if err := i.injectFunctionCall(hProcess, loc, "RENDERDOC_SetCaptureOptions", blob, false); err != nil {
			return 0
		}
	}

	identBuf := make([]byte, 4)
	if err := i.injectFunctionCall(hProcess, loc, "RENDERDOC_GetTargetControlIdent", identBuf, true); err != nil {
		return 0
	}
	ident := binary.LittleEndian.Uint32(identBuf)

	applied := false
	for _, m := range mods {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}

		opBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(opBuf, uint32(m.Op))

		if err := i.injectFunctionCall(hProcess, loc, "RENDERDOC_EnvModName", append([]byte(name), 0), false); err != nil {
			return 0
		}
		if err := i.injectFunctionCall(hProcess, loc, "RENDERDOC_EnvModValue", append([]byte(m.Value), 0), false); err != nil {
			return 0
		}
		if err := i.injectFunctionCall(hProcess, loc, "RENDERDOC_EnvMod", opBuf, false); err != nil {
			return 0
		}
		applied = true
	}

	if applied {
		// argument is unused
		if err := i.injectFunctionCall(hProcess, loc, "RENDERDOC_ApplyEnvMods", make([]byte, 4), false); err != nil {
			return 0
		}
	}

	return ident
}

// injectDLL writes the capture library path into the target and calls
// LoadLibraryW there. The loader is mapped at the same base in every
// process of one architecture, so the controller's own LoadLibraryW
// address is valid in the target.
func (i *Injector) injectDLL(hProcess windows.Handle, libPath string) error {
	wide, err := windows.UTF16FromString(libPath)
	if err != nil {
		i.logger.Error("Invalid capture library path", "path", libPath, "error", err)
		return err
	}

	buf := make([]uint16, windows.MAX_PATH+1)
	copy(buf, wide)

	raw := make([]byte, len(buf)*2)
	for n, u := range buf {
		binary.LittleEndian.PutUint16(raw[n*2:], u)
	}

	region, err := allocRemote(hProcess, uintptr(len(raw)))
	if err != nil {
		i.logger.Error("Couldn't allocate remote memory for capture library path",
			"path", libPath, "error", err)
		return err
	}
	defer region.Free()

	if err := region.Write(raw); err != nil {
		i.logger.Error("Couldn't write capture library path", "error", err)
		return err
	}

	thread, err := CreateRemoteThread(hProcess, nil, 0, procLoadLibraryW.Addr(), region.addr, 0, nil)
	if err != nil {
		err = errors.Wrap(err, "creating LoadLibraryW thread")
		i.logger.Error("Couldn't load capture library in target", "error", err)
		return err
	}
	defer windows.CloseHandle(thread)

	windows.WaitForSingleObject(thread, windows.INFINITE)
	return nil
}

// waitForDebugger polls for an attached debugger every 10ms for up to
// seconds, returning early once one is present.
func (i *Injector) waitForDebugger(hProcess windows.Handle, pid uint32, seconds uint32) {
	i.logger.Debug("Waiting for debugger attach", "pid", pid)

	const step = 10 * time.Millisecond
	deadline := time.Duration(seconds) * time.Second
	waited := time.Duration(0)

	for waited < deadline {
		attached, err := CheckRemoteDebuggerPresent(hProcess)
		if err == nil && attached {
			i.logger.Debug("Debugger attach detected", "waited", waited)
			return
		}

		time.Sleep(step)
		waited += step
	}

	i.logger.Debug("Timed out waiting for debugger", "timeout_sec", seconds)
}

// delegateToX86 farms a WoW64 target off to the sibling 32-bit helper
// executable, marshalling all parameters through its command line. The
// helper's exit code is the control identifier.
func (i *Injector) delegateToX86(hProcess windows.Handle, pid uint32, libPath, logfile string, opts *capture.Options, mods []env.Modification, waitForExit bool) uint32 {
	helper := helperPath(libPath, true)
	cmdline := delegateCommandLine(helper, pid, logfile, capture.EncodeOptions(opts), mods)

	pi, err := i.createProcess(cmdline, "", windows.CREATE_SUSPENDED)
	if err != nil {
		i.logger.Error("Can't spawn x86 helper, missing files?", "helper", helper, "error", err)
		return 0
	}

	windows.ResumeThread(pi.Thread)
	windows.WaitForSingleObject(pi.Thread, windows.INFINITE)
	windows.CloseHandle(pi.Thread)

	var exitCode uint32
	windows.GetExitCodeProcess(pi.Process, &exitCode)
	windows.CloseHandle(pi.Process)

	if waitForExit {
		windows.WaitForSingleObject(hProcess, windows.INFINITE)
	}

	return exitCode
}

// createProcess spawns a child with the given raw command line. The
// parameter buffer is writable as CreateProcessW requires, and the child
// always gets a Unicode environment.
func (i *Injector) createProcess(cmdline, workdir string, flags uint32) (*windows.ProcessInformation, error) {
	params, err := windows.UTF16FromString(cmdline)
	if err != nil {
		return nil, errors.Wrap(err, "encoding command line")
	}

	var wdPtr *uint16
	if workdir != "" {
		wdPtr, err = windows.UTF16PtrFromString(workdir)
		if err != nil {
			return nil, errors.Wrap(err, "encoding working directory")
		}
	}

	si := new(windows.StartupInfo)
	si.Cb = uint32(unsafe.Sizeof(*si))
	pi := new(windows.ProcessInformation)

	err = windows.CreateProcess(nil, &params[0], nil, nil, false,
		flags|windows.CREATE_UNICODE_ENVIRONMENT, nil, wdPtr, si, pi)
	if err != nil {
		return nil, errors.Wrap(err, "creating process")
	}

	return pi, nil
}

// runProcess spawns app suspended so injection can happen before the
// target executes a single instruction.
func (i *Injector) runProcess(app, workingDir, cmdLine string) (*windows.ProcessInformation, error) {
	params := launchParams(app, cmdLine)
	workdir := launchWorkdir(app, workingDir)

	i.logger.Info("Running process", "app", app)

	return i.createProcess(params, workdir, windows.CREATE_SUSPENDED)
}

// LaunchProcess spawns a child suspended, resumes it immediately and
// returns its PID. No injection is performed.
func (i *Injector) LaunchProcess(app, workingDir, cmdLine string) uint32 {
	pi, err := i.runProcess(app, workingDir, cmdLine)
	if err != nil {
		i.logger.Error("Couldn't launch process", "app", app, "error", err)
		return 0
	}

	i.logger.Info("Launched process", "app", app, "cmdline", cmdLine, "pid", pi.ProcessId)

	windows.ResumeThread(pi.Thread)
	windows.CloseHandle(pi.Thread)
	windows.CloseHandle(pi.Process)

	return pi.ProcessId
}

// LaunchAndInjectIntoProcess spawns app suspended, injects the capture
// library into the suspended child, then resumes it. On injection failure
// the child's primary thread stays suspended and its handle is closed.
func (i *Injector) LaunchAndInjectIntoProcess(app, workingDir, cmdLine string, mods []env.Modification, logfile string, opts *capture.Options, waitForExit bool) uint32 {
	if _, err := captureLibraryExport("RENDERDOC_SetLogFile"); err != nil {
		i.logger.Error("Can't find required export in capture library, corrupted/missing file?", "error", err)
		return 0
	}

	pi, err := i.runProcess(app, workingDir, cmdLine)
	if err != nil {
		i.logger.Error("Couldn't launch process", "app", app, "error", err)
		return 0
	}

	ident := i.InjectIntoProcess(pi.ProcessId, mods, logfile, opts, false)

	windows.CloseHandle(pi.Process)

	if ident == 0 {
		windows.CloseHandle(pi.Thread)
		return 0
	}

	windows.ResumeThread(pi.Thread)

	if waitForExit {
		windows.WaitForSingleObject(pi.Thread, windows.INFINITE)
	}

	windows.CloseHandle(pi.Thread)

	return ident
}

// StartGlobalHook spawns the helper executable in global-hook mode, once
// with the native helper and once with the x86/ sibling on a 64-bit host.
func (i *Injector) StartGlobalHook(pathmatch, logfile string, opts *capture.Options) {
	if pathmatch == "" {
		return
	}

	var options capture.Options
	if opts != nil {
		options = *opts
	}

	libPath, err := captureLibraryPath()
	if err != nil {
		i.logger.Error("Couldn't resolve capture library path", "error", err)
		return
	}

	optsHex := capture.EncodeOptions(&options)

	helpers := []string{helperPath(libPath, false)}
	if runtime.GOARCH == "amd64" {
		helpers = append(helpers, helperPath(libPath, true))
	}

	for _, helper := range helpers {
		cmdline := globalHookCommandLine(helper, pathmatch, logfile, optsHex)

		pi, err := i.createProcess(cmdline, "", 0)
		if err != nil {
			i.logger.Error("Couldn't spawn global hook helper", "helper", helper, "error", err)
			return
		}

		windows.CloseHandle(pi.Thread)
		windows.CloseHandle(pi.Process)
	}
}
