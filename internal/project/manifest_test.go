package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeManifest(t, root, DefaultManifest())
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestLoadDefaultManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, DefaultManifest())

	m, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, root, m.Root)
	assert.Equal(t, []string{"templates/**/*.go"}, m.Config.Templates.Patterns)
	assert.Equal(t, []string{"vendor/**", "testdata/**"}, m.Config.Templates.Exclude)
	assert.Equal(t, "overrideFlags", m.Config.Generate.FlagSource)
	assert.Equal(t, "_override.go", m.Config.Generate.Suffix)
	assert.Equal(t, 100, m.Config.Build.MaxDiagnostics)
	assert.Equal(t, filepath.Join(root, ".overrider", "table.json"), m.Resolve(m.Config.Table.Path))
	assert.Equal(t, "", m.Resolve(""))
}

func TestLoadWithoutManifest(t *testing.T) {
	// временный каталог может лежать под чужим overrider.toml только в очень странной среде
	_, err := Load(t.TempDir())
	if err != nil {
		assert.ErrorIs(t, err, ErrNoManifest)
	}
}

func TestLoadRejectsBadManifests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "syntax", body: "[templates\n", want: "failed to parse TOML"},
		{name: "unknown key", body: "[generate]\nflag_sorce = \"x\"\n", want: "unknown keys: generate.flag_sorce"},
		{name: "empty patterns", body: "[templates]\npatterns = []\n", want: "patterns is empty"},
		{name: "empty pattern", body: "[templates]\npatterns = [\"\"]\n", want: "empty pattern"},
		{name: "negative jobs", body: "[build]\njobs = -1\n", want: "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
