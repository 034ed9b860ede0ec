package main

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/xiongyaya/renderdoc/internal/env"
)

// parseEnvArgs parses the trailing environment-edit grammar shared by the
// inject and cap32for64 commands:
//
//	+env-<op> <name> <value> [ +env-<op> <name> <value> ]*
func parseEnvArgs(args []string) ([]env.Modification, error) {
	var mods []env.Modification

	for len(args) > 0 {
		if !strings.HasPrefix(args[0], "+env-") {
			return nil, errors.Errorf("unexpected argument %q, want +env-<op>", args[0])
		}
		if len(args) < 3 {
			return nil, errors.Errorf("%s needs a name and a value", args[0])
		}

		op, err := env.ParseOp(strings.TrimPrefix(args[0], "+env-"))
		if err != nil {
			return nil, err
		}

		mods = append(mods, env.Modification{Name: args[1], Value: args[2], Op: op})
		args = args[3:]
	}

	return mods, nil
}
