package datadir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func layout(root string) Layout {
	return Layout{
		DataDir:           filepath.Join(root, "data"),
		DefaultsDir:       filepath.Join(root, "data-defaults"),
		UploadDir:         filepath.Join(root, "assets", "uploads"),
		ContentFile:       "content5.json",
		NavbarFile:        "navbar.json",
		LegacyContentFile: "content4.json",
	}
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

func TestPrepare_FreshRoot(t *testing.T) {
	root := t.TempDir()
	l := layout(root)

	rep, err := Prepare(l)
	require.NoError(t, err)
	require.DirExists(t, l.UploadDir)
	require.ElementsMatch(t, []string{"content5.json", "navbar.json"}, rep.Created)
	require.Equal(t, "{}", readFile(t, filepath.Join(l.DataDir, "content5.json")))
	require.Equal(t, "{}", readFile(t, filepath.Join(l.DataDir, "navbar.json")))
	require.False(t, rep.Migrated)
	require.Empty(t, rep.Restored)
}

func TestPrepare_RestoresDefaultsWithoutOverwriting(t *testing.T) {
	root := t.TempDir()
	l := layout(root)
	require.NoError(t, os.MkdirAll(l.DefaultsDir, 0o755))
	require.NoError(t, os.MkdirAll(l.DataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(l.DefaultsDir, "content5.json"), []byte(`{"seed":true}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(l.DefaultsDir, "navbar.json"), []byte(`{"seed":true}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(l.DataDir, "navbar.json"), []byte(`{"live":true}`), 0o644))

	rep, err := Prepare(l)
	require.NoError(t, err)
	require.Equal(t, []string{"content5.json"}, rep.Restored)
	require.Equal(t, `{"seed":true}`, readFile(t, filepath.Join(l.DataDir, "content5.json")))
	require.Equal(t, `{"live":true}`, readFile(t, filepath.Join(l.DataDir, "navbar.json")))
	require.Empty(t, rep.Created)
}

func TestPrepare_MigratesLegacyContentOnce(t *testing.T) {
	root := t.TempDir()
	l := layout(root)
	require.NoError(t, os.MkdirAll(l.DataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(l.DataDir, "content4.json"), []byte(`{"old":1}`), 0o644))

	rep, err := Prepare(l)
	require.NoError(t, err)
	require.True(t, rep.Migrated)
	require.Equal(t, `{"old":1}`, readFile(t, filepath.Join(l.DataDir, "content5.json")))
	require.NoFileExists(t, filepath.Join(l.DataDir, "content4.json"))

	// a legacy file appearing next to an existing content file is left alone
	require.NoError(t, os.WriteFile(filepath.Join(l.DataDir, "content4.json"), []byte(`{"older":1}`), 0o644))
	rep, err = Prepare(l)
	require.NoError(t, err)
	require.False(t, rep.Migrated)
	require.Equal(t, `{"old":1}`, readFile(t, filepath.Join(l.DataDir, "content5.json")))
}
