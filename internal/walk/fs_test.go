package walk_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/usb-cleaner-box/ucb/internal/walk"
	"github.com/stretchr/testify/require"
)

func TestDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, name := range []string{"b.sh", "a.sh", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o755))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.sh"), 0o755))

	var paths []string
	var contents []string
	for entry, err := range walk.Dir(t.Context(), dir, ".sh") {
		require.NoError(t, err)
		paths = append(paths, entry.Path())
		f, err := entry.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(f)
		require.NoError(t, err)
		require.NoError(t, f.Close())
		contents = append(contents, string(b))
	}
	require.Equal(t, []string{filepath.Join(dir, "a.sh"), filepath.Join(dir, "b.sh")}, paths)
	require.Equal(t, []string{"a.sh", "b.sh"}, contents)
}

func TestDirMissing(t *testing.T) {
	t.Parallel()
	var errs int
	for entry, err := range walk.Dir(t.Context(), filepath.Join(t.TempDir(), "nope"), ".sh") {
		require.Nil(t, entry)
		require.Error(t, err)
		errs++
	}
	require.Equal(t, 1, errs)
}

func TestFS(t *testing.T) {
	t.Parallel()
	root := fstest.MapFS{
		"scan.sh":      {Data: []byte("#!/bin/sh\n"), Mode: 0o755},
		"wipe.sh":      {Data: []byte("#!/bin/sh\n"), Mode: 0o755},
		"deep/copy.sh": {Data: []byte("#!/bin/sh\n"), Mode: 0o755},
	}

	var names []string
	for entry, err := range walk.FS(t.Context(), root, "/workers", ".sh") {
		require.NoError(t, err)
		info, err := entry.Stat()
		require.NoError(t, err)
		require.True(t, info.Mode().IsRegular())
		names = append(names, entry.Path())
	}
	require.Equal(t, []string{"/workers/scan.sh", "/workers/wipe.sh"}, names)
}
