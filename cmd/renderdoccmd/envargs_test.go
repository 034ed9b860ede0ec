package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiongyaya/renderdoc/internal/env"
)

func TestParseEnvArgs(t *testing.T) {
	mods, err := parseEnvArgs([]string{
		"+env-prepend-semicolon", "PATH", `C:\b`,
		"+env-replace", "FOO", "1",
	})
	require.NoError(t, err)
	assert.Equal(t, []env.Modification{
		{Name: "PATH", Value: `C:\b`, Op: env.PrependSemiColon},
		{Name: "FOO", Value: "1", Op: env.Replace},
	}, mods)
}

func TestParseEnvArgsEmpty(t *testing.T) {
	mods, err := parseEnvArgs(nil)
	require.NoError(t, err)
	assert.Empty(t, mods)
}

func TestParseEnvArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"not an env arg", []string{"--pid=4"}},
		{"truncated triple", []string{"+env-replace", "FOO"}},
		{"unknown op", []string{"+env-merge", "FOO", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseEnvArgs(tt.args)
			assert.Error(t, err)
		})
	}
}
