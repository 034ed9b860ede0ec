//go:build windows
// +build windows

package env

import (
	"strings"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// environBlockToMap walks a double-NUL-terminated environment block and
// returns a map keyed by lowercased variable name, for case-insensitive
// lookups against the live environment.
func environBlockToMap(block *uint16) map[string]string {
	ret := make(map[string]string)

	p := uintptr(unsafe.Pointer(block))
	for {
		n := 0
		for *(*uint16)(unsafe.Pointer(p + uintptr(n)*2)) != 0 {
			n++
		}
		if n == 0 {
			break
		}

		entry := windows.UTF16ToString(unsafe.Slice((*uint16)(unsafe.Pointer(p)), n))
		if idx := strings.IndexByte(entry, '='); idx >= 0 {
			ret[strings.ToLower(entry[:idx])] = entry[idx+1:]
		}

		// advance past the entry and its terminating NUL
		p += uintptr(n+1) * 2
	}

	return ret
}

// Apply merges mods into the process's live environment block, in order,
// then commits each result with SetEnvironmentVariableW. When a variable
// already exists the lookup key's lowercased name is used for the commit so
// the existing slot is updated regardless of the edit's casing.
func Apply(mods []Modification) error {
	block, err := windows.GetEnvironmentStrings()
	if err != nil {
		return errors.Wrap(err, "reading environment block")
	}
	current := environBlockToMap(block)
	windows.FreeEnvironmentStrings(block)

	for _, m := range mods {
		name := m.Name
		lowername := strings.ToLower(name)

		value := ""
		if v, ok := current[lowername]; ok {
			value = v
			name = lowername
		}

		value = modifiedValue(value, m)
		current[lowername] = value

		namep, err := windows.UTF16PtrFromString(name)
		if err != nil {
			return errors.Wrapf(err, "encoding variable name %q", name)
		}
		valuep, err := windows.UTF16PtrFromString(value)
		if err != nil {
			return errors.Wrapf(err, "encoding variable value for %q", name)
		}
		if err := windows.SetEnvironmentVariable(namep, valuep); err != nil {
			return errors.Wrapf(err, "setting %q", name)
		}
	}

	return nil
}
