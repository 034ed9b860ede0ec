//go:build !windows
// +build !windows

package capture

import "github.com/xiongyaya/renderdoc/internal/env"

// The capture library only ships on Windows; everywhere else the drained
// edits have no environment block to land in.
func applyLive([]env.Modification) error {
	return nil
}
