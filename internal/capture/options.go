package capture

import (
	"unsafe"

	"github.com/pkg/errors"
)

// Options is the capture configuration blob shared between the controller
// and the capture library. The layout is plain bytes with a fixed size; the
// controller never interprets individual fields apart from DelayForDebugger.
type Options struct {
	AllowVSync                 uint32
	AllowFullscreen            uint32
	DebugDeviceMode            uint32
	CaptureCallstacks          uint32
	CaptureCallstacksOnlyDraws uint32
	DelayForDebugger           uint32
	VerifyMapWrites            uint32
	HookIntoChildren           uint32
	RefAllResources            uint32
	SaveAllInitials            uint32
	CaptureAllCmdLists         uint32
	DebugOutputMute            uint32
}

// OptionsSize is the wire size of Options in bytes.
const OptionsSize = int(unsafe.Sizeof(Options{}))

// Bytes returns the raw blob backing o.
func (o *Options) Bytes() []byte {
	return (*(*[OptionsSize]byte)(unsafe.Pointer(o)))[:]
}

// OptionsFromBytes copies a raw blob into an Options value.
func OptionsFromBytes(b []byte) (*Options, error) {
	if len(b) != OptionsSize {
		return nil, errors.Errorf("capture options blob is %d bytes, want %d", len(b), OptionsSize)
	}
	o := new(Options)
	copy(o.Bytes(), b)
	return o, nil
}

// EncodeOptions serialises the blob as two ASCII characters per byte, high
// nibble then low nibble, each nibble as 'a'+n. The result is ASCII-safe and
// free of shell metacharacters, so it can ride on a helper command line.
func EncodeOptions(o *Options) string {
	b := o.Bytes()
	out := make([]byte, 0, OptionsSize*2)
	for _, c := range b {
		out = append(out, 'a'+((c>>4)&0xf), 'a'+(c&0xf))
	}
	return string(out)
}

// DecodeOptions is the inverse of EncodeOptions.
func DecodeOptions(s string) (*Options, error) {
	if len(s) != OptionsSize*2 {
		return nil, errors.Errorf("encoded capture options are %d chars, want %d", len(s), OptionsSize*2)
	}

	b := make([]byte, OptionsSize)
	for i := 0; i < OptionsSize; i++ {
		hi := s[i*2] - 'a'
		lo := s[i*2+1] - 'a'
		if hi > 0xf || lo > 0xf {
			return nil, errors.Errorf("invalid capture options encoding at byte %d", i)
		}
		b[i] = hi<<4 | lo
	}

	return OptionsFromBytes(b)
}
