package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeReplaceAndConcat(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		mods    []Modification
		want    map[string]string
	}{
		{
			name:    "replace overwrites existing",
			environ: map[string]string{"X": "old"},
			mods:    []Modification{{Name: "X", Value: "new", Op: Replace}},
			want:    map[string]string{"X": "new"},
		},
		{
			name:    "replace creates missing",
			environ: map[string]string{},
			mods:    []Modification{{Name: "X", Value: "new", Op: Replace}},
			want:    map[string]string{"X": "new"},
		},
		{
			name:    "append concatenates without separator",
			environ: map[string]string{"X": "a"},
			mods:    []Modification{{Name: "X", Value: "b", Op: Append}},
			want:    map[string]string{"X": "ab"},
		},
		{
			name:    "prepend concatenates without separator",
			environ: map[string]string{"X": "a"},
			mods:    []Modification{{Name: "X", Value: "b", Op: Prepend}},
			want:    map[string]string{"X": "ba"},
		},
		{
			name:    "sequenced edits see earlier results",
			environ: map[string]string{},
			mods: []Modification{
				{Name: "X", Value: "a", Op: Replace},
				{Name: "X", Value: "b", Op: Append},
			},
			want: map[string]string{"X": "ab"},
		},
		{
			name:    "edits to unrelated variables are independent",
			environ: map[string]string{"A": "1"},
			mods: []Modification{
				{Name: "B", Value: "2", Op: Replace},
				{Name: "A", Value: "0", Op: Prepend},
			},
			want: map[string]string{"A": "01", "B": "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.environ, tt.mods)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeSeparators(t *testing.T) {
	tests := []struct {
		op       Op
		existing string
		value    string
		want     string
	}{
		{AppendColon, "foo", "bar", "foo:bar"},
		{AppendSemiColon, "foo", "bar", "foo;bar"},
		{AppendPlatform, "foo", "bar", "foo;bar"},
		{PrependColon, "foo", "bar", "bar:foo"},
		{PrependSemiColon, "foo", "bar", "bar;foo"},
		{PrependPlatform, "foo", "bar", "bar;foo"},

		// separator suppressed when the existing value is empty
		{AppendColon, "", "bar", "bar"},
		{AppendSemiColon, "", "bar", "bar"},
		{AppendPlatform, "", "bar", "bar"},
		{PrependColon, "", "bar", "bar"},
		{PrependSemiColon, "", "bar", "bar"},
		{PrependPlatform, "", "bar", "bar"},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			environ := map[string]string{}
			if tt.existing != "" {
				environ["V"] = tt.existing
			}
			got := Merge(environ, []Modification{{Name: "V", Value: tt.value, Op: tt.op}})
			assert.Equal(t, tt.want, got["V"])
		})
	}
}

func TestMergeCaseInsensitiveAdoptsExistingName(t *testing.T) {
	environ := map[string]string{"PATH": "foo"}
	got := Merge(environ, []Modification{{Name: "path", Value: "bar", Op: AppendSemiColon}})

	assert.Equal(t, "foo;bar", got["PATH"])
	_, hasLower := got["path"]
	assert.False(t, hasLower, "existing casing must win over the edit's casing")
}

func TestMergeNewVariableKeepsEditCasing(t *testing.T) {
	got := Merge(map[string]string{}, []Modification{{Name: "MyVar", Value: "1", Op: AppendColon}})
	assert.Equal(t, map[string]string{"MyVar": "1"}, got)
}

func TestMergePrependSemicolonPath(t *testing.T) {
	environ := map[string]string{"PATH": `C:\a`}
	got := Merge(environ, []Modification{{Name: "Path", Value: `C:\b`, Op: PrependSemiColon}})
	assert.Equal(t, `C:\b;C:\a`, got["PATH"])
}

func TestMergeMissingVariableNoLeadingSeparator(t *testing.T) {
	got := Merge(map[string]string{}, []Modification{{Name: "FOO", Value: "1", Op: AppendColon}})
	assert.Equal(t, "1", got["FOO"])
}

func TestMergeEmptyModsIsIdentity(t *testing.T) {
	environ := map[string]string{"A": "1", "B": "2"}
	first := Merge(environ, nil)
	second := Merge(first, nil)
	assert.Equal(t, environ, first)
	assert.Equal(t, first, second)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	environ := map[string]string{"A": "1"}
	Merge(environ, []Modification{{Name: "A", Value: "2", Op: Replace}})
	assert.Equal(t, "1", environ["A"])
}

func TestOpNamesRoundTrip(t *testing.T) {
	ops := []Op{
		Replace, Append, AppendColon, AppendSemiColon, AppendPlatform,
		Prepend, PrependColon, PrependSemiColon, PrependPlatform,
	}
	for _, op := range ops {
		parsed, err := ParseOp(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
	}
}

func TestParseOpUnknown(t *testing.T) {
	_, err := ParseOp("append-comma")
	assert.Error(t, err)
}
