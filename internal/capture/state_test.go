package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiongyaya/renderdoc/internal/env"
)

func drainPending() {
	takePending()
}

func TestStagingProtocol(t *testing.T) {
	drainPending()

	StageName("PATH")
	StageValue(`C:\tools`)
	CommitMod(env.PrependSemiColon)

	mods := PendingMods()
	require.Len(t, mods, 1)
	assert.Equal(t, env.Modification{Name: "PATH", Value: `C:\tools`, Op: env.PrependSemiColon}, mods[0])
}

func TestStagingRecordIsReused(t *testing.T) {
	drainPending()

	StageName("A")
	StageValue("1")
	CommitMod(env.Replace)

	// only the value changes; the staged name carries over
	StageValue("2")
	CommitMod(env.Append)

	mods := PendingMods()
	require.Len(t, mods, 2)
	assert.Equal(t, "A", mods[1].Name)
	assert.Equal(t, "2", mods[1].Value)
	assert.Equal(t, env.Append, mods[1].Op)
}

func TestApplyDrainsPendingList(t *testing.T) {
	drainPending()

	StageName("A")
	StageValue("1")
	CommitMod(env.Replace)

	require.NoError(t, ApplyEnvMods())
	assert.Empty(t, PendingMods())

	// second apply with no intervening edits is a no-op
	require.NoError(t, ApplyEnvMods())
	assert.Empty(t, PendingMods())
}

func TestSetLogFile(t *testing.T) {
	SetLogFile(`C:\logs\capture.log`)
	assert.Equal(t, `C:\logs\capture.log`, LogFile())
}

func TestSetCaptureOptionsBlob(t *testing.T) {
	o := Options{DelayForDebugger: 5, AllowVSync: 1}
	require.NoError(t, SetCaptureOptions(o.Bytes()))
	assert.Equal(t, o, CaptureOptions())

	assert.Error(t, SetCaptureOptions([]byte{1, 2, 3}))
}

func TestTargetControlIdentStable(t *testing.T) {
	first := TargetControlIdent()
	second := TargetControlIdent()
	assert.Equal(t, first, second, "ident must not change once minted")

	if first != 0 {
		assert.GreaterOrEqual(t, first, uint32(identBasePort))
		assert.Less(t, first, uint32(identBasePort+identPortCount))
	}
}
