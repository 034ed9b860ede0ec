//go:build windows
// +build windows

package injector

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows API function calls
var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procVirtualAllocEx             = kernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx              = kernel32.NewProc("VirtualFreeEx")
	procCreateRemoteThread         = kernel32.NewProc("CreateRemoteThread")
	procWriteProcessMemory         = kernel32.NewProc("WriteProcessMemory")
	procReadProcessMemory          = kernel32.NewProc("ReadProcessMemory")
	procCheckRemoteDebuggerPresent = kernel32.NewProc("CheckRemoteDebuggerPresent")
	procLoadLibraryW               = kernel32.NewProc("LoadLibraryW")
)

// exit code reported for processes that have not terminated
const stillActive = 259

// VirtualAllocEx allocates memory in remote process
func VirtualAllocEx(process windows.Handle, lpAddress uintptr, dwSize uintptr, flAllocationType uint32, flProtect uint32) (uintptr, error) {
	r1, _, e1 := procVirtualAllocEx.Call(
		uintptr(process),
		lpAddress,
		dwSize,
		uintptr(flAllocationType),
		uintptr(flProtect))
	if r1 == 0 {
		return 0, e1
	}
	return r1, nil
}

// VirtualFreeEx frees memory in remote process
func VirtualFreeEx(process windows.Handle, lpAddress uintptr, dwSize uintptr, dwFreeType uint32) error {
	r1, _, e1 := procVirtualFreeEx.Call(
		uintptr(process),
		lpAddress,
		dwSize,
		uintptr(dwFreeType))
	if r1 == 0 {
		return e1
	}
	return nil
}

// WriteProcessMemory writes to remote process memory
func WriteProcessMemory(process windows.Handle, baseAddress uintptr, buffer unsafe.Pointer, size uintptr, bytesWritten *uintptr) error {
	r1, _, e1 := procWriteProcessMemory.Call(
		uintptr(process),
		baseAddress,
		uintptr(buffer),
		size,
		uintptr(unsafe.Pointer(bytesWritten)))
	if r1 == 0 {
		return e1
	}
	return nil
}

// ReadProcessMemory reads from remote process memory
func ReadProcessMemory(process windows.Handle, baseAddress uintptr, buffer unsafe.Pointer, size uintptr, bytesRead *uintptr) error {
	r1, _, e1 := procReadProcessMemory.Call(
		uintptr(process),
		baseAddress,
		uintptr(buffer),
		size,
		uintptr(unsafe.Pointer(bytesRead)))
	if r1 == 0 {
		return e1
	}
	return nil
}

// CreateRemoteThread creates a thread in remote process
func CreateRemoteThread(process windows.Handle, threadAttributes *windows.SecurityAttributes, stackSize uint32, startAddress uintptr, parameter uintptr, creationFlags uint32, threadID *uint32) (windows.Handle, error) {
	r1, _, e1 := procCreateRemoteThread.Call(
		uintptr(process),
		uintptr(unsafe.Pointer(threadAttributes)),
		uintptr(stackSize),
		startAddress,
		parameter,
		uintptr(creationFlags),
		uintptr(unsafe.Pointer(threadID)))
	if r1 == 0 {
		return 0, e1
	}
	return windows.Handle(r1), nil
}

// CheckRemoteDebuggerPresent reports whether a debugger is attached to process
func CheckRemoteDebuggerPresent(process windows.Handle) (bool, error) {
	var present int32
	r1, _, e1 := procCheckRemoteDebuggerPresent.Call(
		uintptr(process),
		uintptr(unsafe.Pointer(&present)))
	if r1 == 0 {
		return false, e1
	}
	return present != 0, nil
}
