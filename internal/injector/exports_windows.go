//go:build windows
// +build windows

package injector

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// PE constants for the export walk
const (
	dosMagic = 0x5a4d     // MZ
	ntMagic  = 0x00004550 // PE\0\0

	optMagicPE32     = 0x10b
	optMagicPE32Plus = 0x20b

	// offset of the data directory array from the optional header start
	dataDirOffsetPE32     = 96
	dataDirOffsetPE32Plus = 112
)

// ImageExportDirectory is the PE export directory layout.
type ImageExportDirectory struct {
	Characteristics       uint32
	TimeDateStamp         uint32
	MajorVersion          uint16
	MinorVersion          uint16
	Name                  uint32
	Base                  uint32
	NumberOfFunctions     uint32
	NumberOfNames         uint32
	AddressOfFunctions    uint32
	AddressOfNames        uint32
	AddressOfNameOrdinals uint32
}

// readRemote copies size bytes from the target's address space.
func readRemote(process windows.Handle, addr uintptr, size int) ([]byte, error) {
	buf := make([]byte, size)
	var read uintptr
	err := ReadProcessMemory(process, addr, unsafe.Pointer(&buf[0]), uintptr(size), &read)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %d bytes at %#x", size, addr)
	}
	return buf, nil
}

func readRemoteU16(process windows.Handle, addr uintptr) (uint16, error) {
	b, err := readRemote(process, addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func readRemoteU32(process windows.Handle, addr uintptr) (uint32, error) {
	b, err := readRemote(process, addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readRemoteCString reads a NUL-terminated ASCII string, growing in small
// chunks so a name near the end of a mapped page still resolves.
func readRemoteCString(process windows.Handle, addr uintptr) (string, error) {
	const chunk = 64
	const max = 512

	var out []byte
	for len(out) < max {
		b, err := readRemote(process, addr+uintptr(len(out)), chunk)
		if err != nil {
			if len(out) > 0 {
				break
			}
			return "", err
		}
		if i := bytes.IndexByte(b, 0); i >= 0 {
			return string(append(out, b[:i]...)), nil
		}
		out = append(out, b...)
	}
	return "", errors.Errorf("unterminated string at %#x", addr)
}

// findRemoteExport walks the export directory of a module mapped in the
// target process and returns the named export's absolute address there, or
// 0 when the module does not export the name.
func findRemoteExport(process windows.Handle, base uintptr, name string) (uintptr, error) {
	dos, err := readRemote(process, base, 0x40)
	if err != nil {
		return 0, err
	}
	if binary.LittleEndian.Uint16(dos) != dosMagic {
		return 0, errors.New("remote module has no DOS header")
	}
	ntOff := uintptr(binary.LittleEndian.Uint32(dos[0x3c:]))

	sig, err := readRemoteU32(process, base+ntOff)
	if err != nil {
		return 0, err
	}
	if sig != ntMagic {
		return 0, errors.New("remote module has no PE signature")
	}

	// optional header follows the 4-byte signature and 20-byte file header
	optOff := ntOff + 24

	magic, err := readRemoteU16(process, base+optOff)
	if err != nil {
		return 0, err
	}

	var ddOff uintptr
	switch magic {
	case optMagicPE32:
		ddOff = dataDirOffsetPE32
	case optMagicPE32Plus:
		ddOff = dataDirOffsetPE32Plus
	default:
		return 0, errors.Errorf("unknown optional header magic %#x", magic)
	}

	exportRVA, err := readRemoteU32(process, base+optOff+ddOff)
	if err != nil {
		return 0, err
	}
	if exportRVA == 0 {
		return 0, nil
	}

	raw, err := readRemote(process, base+uintptr(exportRVA), int(unsafe.Sizeof(ImageExportDirectory{})))
	if err != nil {
		return 0, err
	}
	var dir ImageExportDirectory
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &dir); err != nil {
		return 0, errors.Wrap(err, "decoding export directory")
	}

	for n := uint32(0); n < dir.NumberOfNames; n++ {
		nameRVA, err := readRemoteU32(process, base+uintptr(dir.AddressOfNames)+uintptr(n)*4)
		if err != nil {
			return 0, err
		}

		exportName, err := readRemoteCString(process, base+uintptr(nameRVA))
		if err != nil {
			return 0, err
		}
		if exportName != name {
			continue
		}

		ordinal, err := readRemoteU16(process, base+uintptr(dir.AddressOfNameOrdinals)+uintptr(n)*2)
		if err != nil {
			return 0, err
		}

		funcRVA, err := readRemoteU32(process, base+uintptr(dir.AddressOfFunctions)+uintptr(ordinal)*4)
		if err != nil {
			return 0, err
		}

		return base + uintptr(funcRVA), nil
	}

	return 0, nil
}
