//go:build windows
// +build windows

// librenderdoc is the c-shared build of the capture library. The exported
// entry points below form the remote-call ABI: each takes exactly one
// pointer, pointing at a buffer the controller allocated in this process,
// and is invoked as a remote thread's start routine.
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/xiongyaya/renderdoc/internal/capture"
	"github.com/xiongyaya/renderdoc/internal/env"
)

//export RENDERDOC_GetTargetControlIdent
func RENDERDOC_GetTargetControlIdent(ident *C.uint32_t) {
	if ident != nil {
		*ident = C.uint32_t(capture.TargetControlIdent())
	}
}

//export RENDERDOC_SetCaptureOptions
func RENDERDOC_SetCaptureOptions(opts unsafe.Pointer) {
	if opts != nil {
		capture.SetCaptureOptions(C.GoBytes(opts, C.int(capture.OptionsSize)))
	}
}

//export RENDERDOC_SetLogFile
func RENDERDOC_SetLogFile(logfile *C.char) {
	if logfile != nil {
		capture.SetLogFile(C.GoString(logfile))
	}
}

//export RENDERDOC_EnvModName
func RENDERDOC_EnvModName(name *C.char) {
	if name != nil {
		capture.StageName(C.GoString(name))
	}
}

//export RENDERDOC_EnvModValue
func RENDERDOC_EnvModValue(value *C.char) {
	if value != nil {
		capture.StageValue(C.GoString(value))
	}
}

//export RENDERDOC_EnvMod
func RENDERDOC_EnvMod(op *C.uint32_t) {
	if op != nil {
		capture.CommitMod(env.Op(*op))
	}
}

//export RENDERDOC_ApplyEnvMods
func RENDERDOC_ApplyEnvMods(ignored unsafe.Pointer) {
	capture.ApplyEnvMods()
}

func main() {}
