package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "a.txt", want: "a.txt"},
		{name: "nested", input: "dir/sub/a.txt", want: filepath.Join("dir", "sub", "a.txt")},
		{name: "backslashes", input: `dir\a.txt`, want: filepath.Join("dir", "a.txt")},
		{name: "dots inside names", input: "a..b.txt", want: "a..b.txt"},
		{name: "redundant parts", input: "./dir//a.txt", want: filepath.Join("dir", "a.txt")},
		{name: "parent", input: "../a.txt", wantErr: true},
		{name: "hidden parent", input: "dir/../../a.txt", wantErr: true},
		{name: "windows parent", input: `..\a.txt`, wantErr: true},
		{name: "absolute", input: "/etc/passwd", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "dot", input: ".", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePath(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDirectoryTraversal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetResolve(t *testing.T) {
	single := FileTarget("/out/file.bin")
	got, err := single.Resolve("anything/at/all.txt")
	require.NoError(t, err)
	assert.Equal(t, "/out/file.bin", got)
	assert.False(t, single.IsDirectory())

	dir := DirectoryTarget("/out")
	got, err = dir.Resolve("sub/a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "sub", "a.txt"), got)

	got, err = dir.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", defaultName), got)

	_, err = dir.Resolve("../escape")
	assert.ErrorIs(t, err, ErrDirectoryTraversal)

	assert.True(t, Target{}.IsZero())
	assert.False(t, dir.IsZero())
}

func TestTargetOpenCreatesParents(t *testing.T) {
	root := t.TempDir()
	f, path, err := DirectoryTarget(root).Open("a/b/c.txt")
	require.NoError(t, err)
	_, err = f.WriteString("data")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, filepath.Join(root, "a", "b", "c.txt"), path)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestTargetOpenTruncatesOrAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("existing"), 0o644))

	f, _, err := FileTarget(path).WithAppend(true).Open("ignored")
	require.NoError(t, err)
	_, err = f.WriteString("+more")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing+more", string(got))

	f, _, err = FileTarget(path).Open("ignored")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTargetOpenFailure(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, _, err := DirectoryTarget(blocker).Open("a.txt")
	assert.ErrorIs(t, err, ErrOutputFailure)
}
