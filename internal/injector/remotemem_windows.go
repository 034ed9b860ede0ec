//go:build windows
// +build windows

package injector

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// remoteRegion is a buffer allocated in a foreign process. It serves both
// argument payloads and the LoadLibraryW path string, so it is allocated
// executable as well as writable.
type remoteRegion struct {
	process windows.Handle
	addr    uintptr
	size    uintptr
}

// allocRemote allocates size bytes in the target process.
func allocRemote(process windows.Handle, size uintptr) (*remoteRegion, error) {
	addr, err := VirtualAllocEx(process, 0, size,
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_EXECUTE_READWRITE)
	if err != nil {
		return nil, errors.Wrap(err, "allocating remote memory")
	}
	return &remoteRegion{process: process, addr: addr, size: size}, nil
}

// Write copies data into the region.
func (r *remoteRegion) Write(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if uintptr(len(data)) > r.size {
		return errors.Errorf("write of %d bytes exceeds remote region of %d", len(data), r.size)
	}
	var written uintptr
	err := WriteProcessMemory(r.process, r.addr, unsafe.Pointer(&data[0]), uintptr(len(data)), &written)
	return errors.Wrap(err, "writing remote memory")
}

// Read copies the region's (possibly mutated) contents back into data.
func (r *remoteRegion) Read(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if uintptr(len(data)) > r.size {
		return errors.Errorf("read of %d bytes exceeds remote region of %d", len(data), r.size)
	}
	var read uintptr
	err := ReadProcessMemory(r.process, r.addr, unsafe.Pointer(&data[0]), uintptr(len(data)), &read)
	return errors.Wrap(err, "reading remote memory")
}

// Free releases the region. Safe to call more than once.
func (r *remoteRegion) Free() {
	if r.addr == 0 {
		return
	}
	VirtualFreeEx(r.process, r.addr, 0, windows.MEM_RELEASE)
	r.addr = 0
}
