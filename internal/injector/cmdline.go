package injector

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xiongyaya/renderdoc/internal/env"
)

// quoteDelegateArg wraps s in double quotes for the delegate helper's
// command line. Embedded quotes are backslash-escaped; a trailing backslash
// is doubled so it cannot escape the closing quote.
func quoteDelegateArg(s string) string {
	escaped := strings.ReplaceAll(s, `"`, `\"`)
	if strings.HasSuffix(escaped, `\`) {
		escaped += `\`
	}
	return `"` + escaped + `"`
}

// delegateCommandLine builds the full command line for farming a WoW64
// injection off to the 32-bit helper executable.
func delegateCommandLine(helper string, pid uint32, logfile, optsHex string, mods []env.Modification) string {
	var b strings.Builder
	fmt.Fprintf(&b, `"%s" cap32for64 --pid=%d --log="%s" --capopts="%s"`, helper, pid, logfile, optsHex)

	for _, m := range mods {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		fmt.Fprintf(&b, " +env-%s %s %s", m.Op, quoteDelegateArg(name), quoteDelegateArg(m.Value))
	}

	return b.String()
}

// globalHookCommandLine builds the command line for a global-hook helper.
func globalHookCommandLine(helper, pathmatch, logfile, optsHex string) string {
	return fmt.Sprintf(`"%s" globalhook --match %s --log %s --capopts "%s"`,
		helper, quoteDelegateArg(pathmatch), quoteDelegateArg(logfile), optsHex)
}

// launchParams builds the parameter buffer for process creation: the quoted
// application path followed by the caller's command line verbatim.
func launchParams(app, cmdLine string) string {
	params := `"` + app + `"`
	if cmdLine != "" {
		params += " " + cmdLine
	}
	return params
}

// launchWorkdir picks the working directory for a launched child: the
// caller's choice when given, else the application's own directory.
func launchWorkdir(app, workingDir string) string {
	if workingDir != "" {
		return workingDir
	}
	return filepath.Dir(app)
}

// helperPath returns the path of a helper executable next to the capture
// library, optionally under the x86/ sibling directory.
func helperPath(libraryPath string, x86 bool) string {
	dir := filepath.Dir(libraryPath)
	if x86 {
		dir = filepath.Join(dir, "x86")
	}
	return filepath.Join(dir, helperExeName)
}

// helperExeName is the command-line wrapper executable's file name.
const helperExeName = "renderdoccmd.exe"
