//go:build windows
// +build windows

package capture

import "github.com/xiongyaya/renderdoc/internal/env"

func applyLive(mods []env.Modification) error {
	return env.Apply(mods)
}
