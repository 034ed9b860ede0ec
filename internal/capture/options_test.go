package capture

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsSizeMatchesStruct(t *testing.T) {
	assert.Equal(t, uintptr(OptionsSize), unsafe.Sizeof(Options{}))
}

func TestEncodeKnownBytes(t *testing.T) {
	// 0x00 -> "aa", 0xFF -> "pp", 0x10 -> "ba"
	var o Options
	blob := o.Bytes()
	blob[0] = 0x00
	blob[1] = 0xFF
	blob[2] = 0x10

	enc := EncodeOptions(&o)
	assert.Equal(t, "aappba", enc[:6])
	assert.Len(t, enc, OptionsSize*2)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	o := &Options{
		AllowVSync:       1,
		DelayForDebugger: 30,
		HookIntoChildren: 1,
		RefAllResources:  0xdeadbeef,
	}

	dec, err := DecodeOptions(EncodeOptions(o))
	require.NoError(t, err)
	assert.Equal(t, o, dec)
}

func TestDecodeRejectsBadLength(t *testing.T) {
	_, err := DecodeOptions("aabb")
	assert.Error(t, err)
}

func TestDecodeRejectsBadNibble(t *testing.T) {
	enc := EncodeOptions(&Options{})
	_, err := DecodeOptions("z" + enc[1:])
	assert.Error(t, err)
}

func TestOptionsFromBytesLengthCheck(t *testing.T) {
	_, err := OptionsFromBytes(make([]byte, OptionsSize-1))
	assert.Error(t, err)

	o, err := OptionsFromBytes(make([]byte, OptionsSize))
	require.NoError(t, err)
	assert.Equal(t, &Options{}, o)
}
