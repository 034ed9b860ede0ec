package injector

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xiongyaya/renderdoc/internal/env"
)

func TestQuoteDelegateArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `value`, `"value"`},
		{"embedded quote", `say "hi"`, `"say \"hi\""`},
		{"trailing backslash doubled", `C:\dir\`, `"C:\dir\\"`},
		{"quote then trailing backslash", `a"b\`, `"a\"b\\"`},
		{"empty", ``, `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quoteDelegateArg(tt.in))
		})
	}
}

func TestDelegateCommandLine(t *testing.T) {
	mods := []env.Modification{
		{Name: "PATH", Value: `C:\b`, Op: env.PrependSemiColon},
		{Name: "FOO", Value: "1", Op: env.Replace},
	}

	got := delegateCommandLine(`C:\rd\x86\renderdoccmd.exe`, 1234, `C:\log.txt`, "aabb", mods)

	want := `"C:\rd\x86\renderdoccmd.exe" cap32for64 --pid=1234 --log="C:\log.txt" --capopts="aabb"` +
		` +env-prepend-semicolon "PATH" "C:\b" +env-replace "FOO" "1"`
	assert.Equal(t, want, got)
}

func TestDelegateCommandLineSkipsEmptyNames(t *testing.T) {
	mods := []env.Modification{
		{Name: "  ", Value: "x", Op: env.Append},
		{Name: "", Value: "y", Op: env.Append},
	}

	got := delegateCommandLine("helper.exe", 1, "", "aa", mods)
	assert.Equal(t, `"helper.exe" cap32for64 --pid=1 --log="" --capopts="aa"`, got)
}

func TestGlobalHookCommandLine(t *testing.T) {
	got := globalHookCommandLine(`C:\rd\renderdoccmd.exe`, `game*.exe`, `C:\log.txt`, "aabb")
	want := `"C:\rd\renderdoccmd.exe" globalhook --match "game*.exe" --log "C:\log.txt" --capopts "aabb"`
	assert.Equal(t, want, got)
}

func TestLaunchParams(t *testing.T) {
	assert.Equal(t, `"C:\app.exe"`, launchParams(`C:\app.exe`, ""))
	assert.Equal(t, `"C:\app.exe" --flag value`, launchParams(`C:\app.exe`, "--flag value"))
}

func TestLaunchWorkdir(t *testing.T) {
	assert.Equal(t, `D:\work`, launchWorkdir(`C:\apps\app.exe`, `D:\work`))
	assert.Equal(t, filepath.Dir(`C:\apps\app.exe`), launchWorkdir(`C:\apps\app.exe`, ""))
}

func TestHelperPath(t *testing.T) {
	lib := filepath.Join("rd", "renderdoc.dll")
	assert.Equal(t, filepath.Join("rd", helperExeName), helperPath(lib, false))
	assert.Equal(t, filepath.Join("rd", "x86", helperExeName), helperPath(lib, true))
}
