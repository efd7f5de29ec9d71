package download

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exmod-team/exiled-installer/internal/github"
)

func withNoSleep(t *testing.T) {
	t.Helper()
	orig := downloadSleep
	downloadSleep = func(_ time.Duration) {}
	t.Cleanup(func() { downloadSleep = orig })
}

func serveBytes(t *testing.T, body []byte, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if got := r.Header.Get("User-Agent"); got != "exiled-installer/test" {
			t.Errorf("user agent = %q", got)
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func readAll(t *testing.T, a *Archive) []byte {
	t.Helper()
	data, err := io.ReadAll(a)
	require.NoError(t, err)
	return data
}

func TestFetchWithoutCacheRemovesTempOnClose(t *testing.T) {
	body := []byte("archive-bytes")
	server := serveBytes(t, body, nil)
	var progress bytes.Buffer
	d := New(Options{UserAgent: "exiled-installer/test", Progress: &progress, HTTP: server.Client()})

	archive, err := d.Fetch(context.Background(), github.Asset{
		Name:               "exiled.tar.gz",
		Size:               int64(len(body)),
		BrowserDownloadURL: server.URL + "/exiled.tar.gz",
	}, "v9.0.0")
	require.NoError(t, err)
	assert.False(t, archive.Cached)
	assert.Equal(t, body, readAll(t, archive))
	assert.Contains(t, progress.String(), "exiled.tar.gz")

	path := archive.Path
	require.NoError(t, archive.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "temp archive should be removed, stat err=%v", err)
}

func TestFetchCachesAndReuses(t *testing.T) {
	body := []byte("cached-archive")
	var calls atomic.Int32
	server := serveBytes(t, body, &calls)
	cache := t.TempDir()
	d := New(Options{CacheDir: cache, UserAgent: "exiled-installer/test", HTTP: server.Client()})
	asset := github.Asset{Name: "exiled.tar.gz", Size: int64(len(body)), BrowserDownloadURL: server.URL}

	first, err := d.Fetch(context.Background(), asset, "v9.0.0")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, filepath.Join(cache, "v9.0.0", "exiled.tar.gz"), first.Path)
	assert.Equal(t, body, readAll(t, first))
	require.NoError(t, first.Close())
	_, err = os.Stat(first.Path)
	require.NoError(t, err, "cached archive must survive Close")

	second, err := d.Fetch(context.Background(), asset, "v9.0.0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	assert.True(t, second.Cached)
	assert.Equal(t, body, readAll(t, second))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRedownloadsWhenCachedSizeDiffers(t *testing.T) {
	body := []byte("fresh-archive")
	var calls atomic.Int32
	server := serveBytes(t, body, &calls)
	cache := t.TempDir()
	stale := filepath.Join(cache, "v9.0.0", "exiled.tar.gz")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	d := New(Options{CacheDir: cache, UserAgent: "exiled-installer/test", HTTP: server.Client()})
	archive, err := d.Fetch(context.Background(), github.Asset{Name: "exiled.tar.gz", Size: int64(len(body)), BrowserDownloadURL: server.URL}, "v9.0.0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = archive.Close() })
	assert.Equal(t, body, readAll(t, archive))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)
	d := New(Options{HTTP: server.Client()})
	_, err := d.Fetch(context.Background(), github.Asset{Name: "exiled.tar.gz", BrowserDownloadURL: server.URL}, "v1")
	require.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestFetchRetriesServerError(t *testing.T) {
	withNoSleep(t)
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(server.Close)
	d := New(Options{HTTP: server.Client()})
	archive, err := d.Fetch(context.Background(), github.Asset{Name: "a", BrowserDownloadURL: server.URL}, "v1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = archive.Close() })
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)
	d := New(Options{HTTP: server.Client()})
	_, err := d.Fetch(context.Background(), github.Asset{Name: "a", BrowserDownloadURL: server.URL}, "v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFetchTooLarge(t *testing.T) {
	server := serveBytes(t, bytes.Repeat([]byte("x"), 64), nil)
	d := New(Options{UserAgent: "exiled-installer/test", MaxBytes: 16, HTTP: server.Client()})
	_, err := d.Fetch(context.Background(), github.Asset{Name: "a", BrowserDownloadURL: server.URL}, "v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestFetchSizeMismatch(t *testing.T) {
	server := serveBytes(t, []byte("short"), nil)
	cache := t.TempDir()
	d := New(Options{CacheDir: cache, UserAgent: "exiled-installer/test", HTTP: server.Client()})
	_, err := d.Fetch(context.Background(), github.Asset{Name: "a", Size: 999, BrowserDownloadURL: server.URL}, "v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "999")

	entries, err := os.ReadDir(filepath.Join(cache, "v1"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestFetchRequiresURL(t *testing.T) {
	d := New(Options{})
	_, err := d.Fetch(context.Background(), github.Asset{Name: "a"}, "v1")
	require.Error(t, err)
}

func TestFetchCachedDirectoryIsError(t *testing.T) {
	cache := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cache, "v1", "a"), 0o755))
	d := New(Options{CacheDir: cache})
	_, err := d.Fetch(context.Background(), github.Asset{Name: "a", BrowserDownloadURL: "http://127.0.0.1:0"}, "v1")
	require.Error(t, err)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "v9.0.0", safeName("v9.0.0"))
	assert.Equal(t, "release_9", safeName("release/9"))
	assert.Equal(t, "a_b", safeName(`a\b`))
	assert.Equal(t, "_", safeName(".."))
	assert.Equal(t, "_", safeName("  "))
}

func TestNewAppliesDefaults(t *testing.T) {
	d := New(Options{})
	assert.Equal(t, DefaultTimeout, d.opts.Timeout)
	assert.Equal(t, DefaultMaxBytes, d.opts.MaxBytes)
	assert.Equal(t, DefaultTimeout, d.client.Timeout)
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	dir, err := DefaultCacheDir()
	require.NoError(t, err)
	assert.Equal(t, "releases", filepath.Base(dir))
	assert.Equal(t, "exiled-installer", filepath.Base(filepath.Dir(dir)))
}

func TestFetchRenameFailureLeavesNoFiles(t *testing.T) {
	body := []byte("archive")
	server := serveBytes(t, body, nil)
	cache := t.TempDir()

	orig := osRename
	t.Cleanup(func() { osRename = orig })
	renameErr := errors.New("rename failed")
	osRename = func(string, string) error { return renameErr }

	d := New(Options{CacheDir: cache, UserAgent: "exiled-installer/test", HTTP: server.Client()})
	_, err := d.Fetch(context.Background(), github.Asset{Name: "exiled.tar.gz", Size: int64(len(body)), BrowserDownloadURL: server.URL}, "v9.0.0")
	require.ErrorIs(t, err, renameErr)

	entries, err := os.ReadDir(filepath.Join(cache, "v9.0.0"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, strings.HasSuffix(e.Name(), ".lock"), "unexpected leftover %s", e.Name())
	}
}

func TestFetchCreateTempFailure(t *testing.T) {
	orig := osCreateTemp
	t.Cleanup(func() { osCreateTemp = orig })
	createErr := errors.New("no space")
	osCreateTemp = func(string, string) (*os.File, error) { return nil, createErr }

	d := New(Options{CacheDir: t.TempDir()})
	_, err := d.Fetch(context.Background(), github.Asset{Name: "a", BrowserDownloadURL: "http://127.0.0.1:0"}, "v1")
	require.ErrorIs(t, err, createErr)

	d = New(Options{})
	_, err = d.Fetch(context.Background(), github.Asset{Name: "a", BrowserDownloadURL: "http://127.0.0.1:0"}, "v1")
	require.ErrorIs(t, err, createErr)
}

func TestFetchUsesArchiveFinishedWhileWaiting(t *testing.T) {
	body := []byte("finished-by-other")
	var calls atomic.Int32
	server := serveBytes(t, body, &calls)
	cache := t.TempDir()
	path := filepath.Join(cache, "v9.0.0", "exiled.tar.gz")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, body, 0o644))

	// The first check misses; the one under the lock sees the finished file.
	orig := osStat
	t.Cleanup(func() { osStat = orig })
	stats := 0
	osStat = func(name string) (os.FileInfo, error) {
		stats++
		if stats == 1 {
			return nil, os.ErrNotExist
		}
		return orig(name)
	}

	d := New(Options{CacheDir: cache, UserAgent: "exiled-installer/test", HTTP: server.Client()})
	archive, err := d.Fetch(context.Background(), github.Asset{Name: "exiled.tar.gz", Size: int64(len(body)), BrowserDownloadURL: server.URL}, "v9.0.0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = archive.Close() })
	assert.Equal(t, body, readAll(t, archive))
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 2, stats)
}

func TestFetchStatErrorIsReturned(t *testing.T) {
	orig := osStat
	t.Cleanup(func() { osStat = orig })
	statErr := errors.New("permission denied")
	osStat = func(string) (os.FileInfo, error) { return nil, statErr }

	d := New(Options{CacheDir: t.TempDir()})
	_, err := d.Fetch(context.Background(), github.Asset{Name: "a", BrowserDownloadURL: "http://127.0.0.1:0"}, "v1")
	require.ErrorIs(t, err, statErr)
}

func TestArchiveEvict(t *testing.T) {
	body := []byte("bad-archive")
	var calls atomic.Int32
	server := serveBytes(t, body, &calls)
	cache := t.TempDir()
	d := New(Options{CacheDir: cache, UserAgent: "exiled-installer/test", HTTP: server.Client()})
	asset := github.Asset{Name: "exiled.tar.gz", Size: int64(len(body)), BrowserDownloadURL: server.URL}

	cached, err := d.Fetch(context.Background(), asset, "v9.0.0")
	require.NoError(t, err)
	require.NoError(t, cached.Evict())
	_, err = os.Stat(cached.Path)
	assert.True(t, os.IsNotExist(err))

	again, err := d.Fetch(context.Background(), asset, "v9.0.0")
	require.NoError(t, err)
	assert.False(t, again.Cached)
	require.NoError(t, again.Close())
	assert.Equal(t, int32(2), calls.Load())

	temp, err := New(Options{UserAgent: "exiled-installer/test", HTTP: server.Client()}).Fetch(context.Background(), asset, "v9.0.0")
	require.NoError(t, err)
	require.NoError(t, temp.Evict())
	_, err = os.Stat(temp.Path)
	assert.True(t, os.IsNotExist(err))

	var none *Archive
	assert.NoError(t, none.Evict())
}
