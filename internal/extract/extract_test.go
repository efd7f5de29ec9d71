package extract

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exmod-team/exiled-installer/internal/markup"
	"github.com/exmod-team/exiled-installer/internal/report"
	"github.com/exmod-team/exiled-installer/internal/testutil"
)

func newRoots(t *testing.T) Roots {
	t.Helper()
	return Roots{AppData: t.TempDir(), Exiled: t.TempDir()}
}

func byName(res Result) map[string]EntryResult {
	out := make(map[string]EntryResult, len(res.Entries))
	for _, e := range res.Entries {
		out[e.Name] = e
	}
	return out
}

func TestArchiveRoutesEntriesToRoots(t *testing.T) {
	roots := newRoots(t)
	archive := testutil.TarGz(t,
		testutil.Dir("EXILED"),
		testutil.Dir("EXILED/Plugins"),
		testutil.File("EXILED/Plugins/Exiled.Events.dll", "events"),
		testutil.File("SCP Secret Laboratory/PluginAPI/plugins/global/Exiled.Loader.dll", "loader"),
		testutil.File("README.md", "readme"),
		testutil.File("EXILED/Configs/example-config.yml", "example"),
	)

	var out, errOut bytes.Buffer
	res, err := Archive(context.Background(), bytes.NewReader(archive), Options{
		Roots:    roots,
		Reporter: report.New(&out, &errOut, false),
	})
	require.NoError(t, err)

	assert.Equal(t, "events", testutil.ReadFile(t, roots.Exiled, "EXILED/Plugins/Exiled.Events.dll"))
	assert.Equal(t, "loader", testutil.ReadFile(t, roots.AppData, "SCP Secret Laboratory/PluginAPI/plugins/global/Exiled.Loader.dll"))
	_, err = os.Stat(filepath.Join(roots.Exiled, "README.md"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(roots.Exiled, "EXILED", "Configs", "example-config.yml"))
	assert.True(t, os.IsNotExist(err))

	entries := byName(res)
	require.Len(t, res.Entries, 4, "directories are not recorded")
	assert.Equal(t, ActionCreate, entries["EXILED/Plugins/Exiled.Events.dll"].Action)
	assert.Equal(t, markup.Exiled, entries["EXILED/Plugins/Exiled.Events.dll"].Resolution)
	assert.Equal(t, markup.Absolute, entries["SCP Secret Laboratory/PluginAPI/plugins/global/Exiled.Loader.dll"].Resolution)
	assert.Equal(t, ActionUnresolved, entries["README.md"].Action)
	assert.Equal(t, ActionDisabled, entries["EXILED/Configs/example-config.yml"].Action)
	assert.Equal(t, 2, res.Count(ActionCreate))
	assert.Len(t, res.Written(), 2)
	assert.Empty(t, res.Failed())

	assert.Contains(t, out.String(), "Processing 'EXILED/Plugins/Exiled.Events.dll'")
	assert.Contains(t, errOut.String(), "README.md")
}

func TestArchiveReplacesGlobalWithTargetPort(t *testing.T) {
	roots := newRoots(t)
	archive := testutil.TarGz(t,
		testutil.File("SCP Secret Laboratory/PluginAPI/plugins/global/Exiled.Loader.dll", "loader"),
		testutil.File("EXILED/global/global.txt", "x"),
	)
	res, err := Archive(context.Background(), bytes.NewReader(archive), Options{Roots: roots, TargetPort: "7777"})
	require.NoError(t, err)

	assert.Equal(t, "loader", testutil.ReadFile(t, roots.AppData, "SCP Secret Laboratory/PluginAPI/plugins/7777/Exiled.Loader.dll"))
	assert.Equal(t, "x", testutil.ReadFile(t, roots.Exiled, "EXILED/7777/7777.txt"))
	assert.Equal(t, 2, res.Count(ActionCreate))
}

func TestArchiveOverwritesExistingFiles(t *testing.T) {
	roots := newRoots(t)
	testutil.WriteFile(t, roots.Exiled, "EXILED/Plugins/a.dll", "old-content-longer")
	archive := testutil.TarGz(t, testutil.File("EXILED/Plugins/a.dll", "new"))

	res, err := Archive(context.Background(), bytes.NewReader(archive), Options{Roots: roots})
	require.NoError(t, err)
	assert.Equal(t, "new", testutil.ReadFile(t, roots.Exiled, "EXILED/Plugins/a.dll"))
	assert.Equal(t, ActionOverwrite, res.Entries[0].Action)
}

func TestArchiveAppliesEntryMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	roots := newRoots(t)
	archive := testutil.TarGz(t, testutil.ArchiveEntry{Name: "EXILED/run.sh", Body: "#!/bin/sh\n", Mode: 0o755})
	_, err := Archive(context.Background(), bytes.NewReader(archive), Options{Roots: roots})
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(roots.Exiled, "EXILED", "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestArchiveOverwriteAppliesEntryMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	roots := newRoots(t)
	path := testutil.WriteFile(t, roots.Exiled, "EXILED/run.sh", "old\n")
	require.NoError(t, os.Chmod(path, 0o644))

	archive := testutil.TarGz(t, testutil.ArchiveEntry{Name: "EXILED/run.sh", Body: "#!/bin/sh\n", Mode: 0o755})
	res, err := Archive(context.Background(), bytes.NewReader(archive), Options{Roots: roots})
	require.NoError(t, err)
	assert.Equal(t, ActionOverwrite, byName(res)["EXILED/run.sh"].Action)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	assert.Equal(t, "#!/bin/sh\n", testutil.ReadFile(t, roots.Exiled, "EXILED/run.sh"))
}

func TestArchiveSkipsUnsupportedEntries(t *testing.T) {
	roots := newRoots(t)
	archive := testutil.TarGz(t,
		testutil.ArchiveEntry{Name: "EXILED/link", Type: tar.TypeSymlink, Linkname: "/etc/passwd"},
		testutil.File("EXILED/after.dll", "ok"),
	)
	res, err := Archive(context.Background(), bytes.NewReader(archive), Options{Roots: roots})
	require.NoError(t, err)
	assert.Equal(t, ActionUnsupported, byName(res)["EXILED/link"].Action)
	_, err = os.Lstat(filepath.Join(roots.Exiled, "EXILED", "link"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "ok", testutil.ReadFile(t, roots.Exiled, "EXILED/after.dll"))
}

func TestArchiveRejectsTraversalAndContinues(t *testing.T) {
	roots := newRoots(t)
	table, err := markup.Parse("EXILED\\:exiled\n")
	require.NoError(t, err)
	archive := testutil.TarGz(t,
		testutil.File("EXILED/../../escape.txt", "bad"),
		testutil.File("EXILED/good.txt", "good"),
	)
	res, err := Archive(context.Background(), bytes.NewReader(archive), Options{Roots: roots, Table: table})
	require.NoError(t, err)

	failed := res.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, ActionRejected, failed[0].Action)
	assert.True(t, errors.Is(failed[0].Err, ErrPathEscapesRoot))
	_, err = os.Stat(filepath.Join(filepath.Dir(roots.Exiled), "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "good", testutil.ReadFile(t, roots.Exiled, "EXILED/good.txt"))
}

func TestArchiveWriteFailureIsRecordedAndSkipped(t *testing.T) {
	roots := newRoots(t)
	// A directory where the file should go makes the open fail.
	require.NoError(t, os.MkdirAll(filepath.Join(roots.Exiled, "EXILED", "blocked.dll"), 0o755))
	archive := testutil.TarGz(t,
		testutil.File("EXILED/blocked.dll", "x"),
		testutil.File("EXILED/next.dll", "y"),
	)
	var errOut bytes.Buffer
	res, err := Archive(context.Background(), bytes.NewReader(archive), Options{
		Roots:    roots,
		Reporter: report.New(nil, &errOut, false),
	})
	require.NoError(t, err)
	assert.Equal(t, ActionFailed, byName(res)["EXILED/blocked.dll"].Action)
	assert.Equal(t, "y", testutil.ReadFile(t, roots.Exiled, "EXILED/next.dll"))
	assert.Contains(t, errOut.String(), "blocked.dll")
}

func TestArchiveCorruptStream(t *testing.T) {
	_, err := Archive(context.Background(), strings.NewReader("not gzip"), Options{Roots: newRoots(t)})
	require.ErrorIs(t, err, ErrCorruptArchive)

	archive := testutil.TarGz(t, testutil.File("EXILED/a.dll", strings.Repeat("a", 4096)))
	_, err = Archive(context.Background(), bytes.NewReader(archive[:len(archive)/2]), Options{Roots: newRoots(t)})
	require.ErrorIs(t, err, ErrCorruptArchive)
}

func TestArchiveCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	archive := testutil.TarGz(t, testutil.File("EXILED/a.dll", "a"))
	_, err := Archive(ctx, bytes.NewReader(archive), Options{Roots: newRoots(t)})
	require.ErrorIs(t, err, context.Canceled)
}

func TestArchiveMissingRootIsRejected(t *testing.T) {
	archive := testutil.TarGz(t, testutil.File("EXILED/a.dll", "a"))
	res, err := Archive(context.Background(), bytes.NewReader(archive), Options{Roots: Roots{AppData: t.TempDir()}})
	require.NoError(t, err)
	assert.Equal(t, ActionRejected, res.Entries[0].Action)
}

func TestEntryName(t *testing.T) {
	assert.Equal(t, "EXILED/Plugins/a.dll", EntryName(`EXILED\Plugins\a.dll`, ""))
	assert.Equal(t, "EXILED/a.dll", EntryName("./EXILED/a.dll", ""))
	assert.Equal(t, "x/global/y", EntryName("x/global/y", "  "))
	assert.Equal(t, "x/7777/y", EntryName("x/global/y", "7777"))
	assert.Equal(t, "x/Global/y", EntryName("x/Global/y", "7777"))
}

func TestDestination(t *testing.T) {
	roots := Roots{AppData: filepath.FromSlash("/data/app"), Exiled: filepath.FromSlash("/data/exiled")}
	table := markup.Default()

	dest, res, err := Destination("EXILED/Plugins/a.dll", roots, table)
	require.NoError(t, err)
	assert.Equal(t, markup.Exiled, res)
	assert.Equal(t, filepath.Join(roots.Exiled, "EXILED", "Plugins", "a.dll"), dest)

	dest, res, err = Destination("SCP Secret Laboratory/x.dll", roots, table)
	require.NoError(t, err)
	assert.Equal(t, markup.Absolute, res)
	assert.Equal(t, filepath.Join(roots.AppData, "SCP Secret Laboratory", "x.dll"), dest)

	dest, res, err = Destination("other.txt", roots, table)
	require.NoError(t, err)
	assert.Equal(t, markup.Undefined, res)
	assert.Empty(t, dest)
}

func TestSafeJoin(t *testing.T) {
	root := t.TempDir()
	_, err := safeJoin(root, "a/../../b")
	require.ErrorIs(t, err, ErrPathEscapesRoot)
	_, err = safeJoin(root, "")
	require.ErrorIs(t, err, ErrPathEscapesRoot)
	got, err := safeJoin(root, "a/../b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "b"), got)
}
