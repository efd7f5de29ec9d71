// Package download fetches release archives, reusing an on-disk cache when possible.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/exmod-team/exiled-installer/internal/github"
	"github.com/exmod-team/exiled-installer/internal/messages"
)

const (
	// DefaultTimeout bounds one download attempt.
	DefaultTimeout = 480 * time.Second
	// DefaultMaxBytes caps archive size.
	DefaultMaxBytes = int64(256 * 1024 * 1024) // 256 MiB

	downloadRetryCount   = 1
	downloadRetryBackoff = 250 * time.Millisecond
	cacheAppDir          = "exiled-installer"
)

var (
	osRename      = os.Rename
	osStat        = os.Stat
	osCreateTemp  = os.CreateTemp
	downloadSleep = time.Sleep
)

// ErrNotFound reports a 404 from the asset URL.
var ErrNotFound = errors.New(messages.DownloadNotFound)

// Options configures a Downloader.
type Options struct {
	// CacheDir holds downloaded archives by tag. Empty disables caching.
	CacheDir  string
	UserAgent string
	Timeout   time.Duration
	MaxBytes  int64
	// Progress receives human-readable progress lines; nil discards them.
	Progress io.Writer
	// HTTP overrides the client; its Timeout is left untouched when set.
	HTTP *http.Client
}

// Downloader fetches release assets.
type Downloader struct {
	opts   Options
	client *http.Client
}

// Archive is a downloaded asset opened for reading.
type Archive struct {
	*os.File
	// Path is where the archive lives on disk.
	Path string
	// Cached reports whether the file came from the cache without a download.
	Cached bool
	// inCache marks a file that stays in the cache after Close.
	inCache bool
	cleanup func()
}

// Close closes the file and removes it when it was not cached.
func (a *Archive) Close() error {
	if a == nil || a.File == nil {
		return nil
	}
	err := a.File.Close()
	if a.cleanup != nil {
		a.cleanup()
	}
	return err
}

// Evict closes a and deletes it from the cache so the next Fetch downloads it
// again. Temporary archives are only closed.
func (a *Archive) Evict() error {
	if a == nil || a.File == nil {
		return nil
	}
	if !a.inCache {
		return a.Close()
	}
	_ = a.File.Close()
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf(messages.DownloadEvictFmt, a.Path, err)
	}
	return nil
}

// New returns a Downloader with defaults applied.
func New(opts Options) *Downloader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	client := opts.HTTP
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Downloader{opts: opts, client: client}
}

// DefaultCacheDir returns the per-user archive cache root.
func DefaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf(messages.DownloadResolveCacheDirFmt, err)
	}
	return filepath.Join(dir, cacheAppDir, "releases"), nil
}

// Fetch returns the archive for asset, downloading it unless a cached copy of the
// expected size exists.
func (d *Downloader) Fetch(ctx context.Context, asset github.Asset, tag string) (*Archive, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(asset.BrowserDownloadURL) == "" {
		return nil, fmt.Errorf(messages.DownloadURLRequiredFmt, asset.Name)
	}
	if d.opts.CacheDir == "" {
		return d.fetchTemp(ctx, asset)
	}
	return d.fetchCached(ctx, asset, tag)
}

func (d *Downloader) fetchTemp(ctx context.Context, asset github.Asset) (*Archive, error) {
	dir, err := os.MkdirTemp("", "exiled-installer-*")
	if err != nil {
		return nil, fmt.Errorf(messages.DownloadCreateTempFileFmt, err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	tmp, err := osCreateTemp(dir, safeName(asset.Name)+".tmp-*")
	if err != nil {
		cleanup()
		return nil, fmt.Errorf(messages.DownloadCreateTempFileFmt, err)
	}
	if err := d.download(ctx, asset, tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		_ = tmp.Close()
		cleanup()
		return nil, fmt.Errorf(messages.DownloadResetOffsetFmt, err)
	}
	return &Archive{File: tmp, Path: tmp.Name(), cleanup: cleanup}, nil
}

func (d *Downloader) fetchCached(ctx context.Context, asset github.Asset, tag string) (*Archive, error) {
	path := filepath.Join(d.opts.CacheDir, safeName(tag), safeName(asset.Name))
	if archive, ok, err := openCached(path, asset.Size); err != nil || ok {
		return archive, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf(messages.DownloadCreateCacheDirFmt, err)
	}
	if err := withFileLock(path+".lock", func() error {
		// Another installer may have finished the download while we waited.
		if _, ok, err := statCached(path, asset.Size); err != nil || ok {
			return err
		}

		tmp, err := osCreateTemp(filepath.Dir(path), safeName(asset.Name)+".tmp-*")
		if err != nil {
			return fmt.Errorf(messages.DownloadCreateTempFileFmt, err)
		}
		tmpName := tmp.Name()
		committed := false
		defer func() {
			if !committed {
				_ = os.Remove(tmpName)
			}
		}()

		if err := d.download(ctx, asset, tmp); err != nil {
			_ = tmp.Close()
			return err
		}
		if err := tmp.Sync(); err != nil {
			_ = tmp.Close()
			return fmt.Errorf(messages.DownloadSyncTempFileFmt, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf(messages.DownloadCloseTempFileFmt, err)
		}
		if err := osRename(tmpName, path); err != nil {
			return fmt.Errorf(messages.DownloadMoveCachedFmt, err)
		}
		committed = true
		return nil
	}); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf(messages.DownloadOpenFileFmt, path, err)
	}
	return &Archive{File: file, Path: path, inCache: true}, nil
}

// statCached reports whether path holds a complete copy of an asset of size bytes.
// A size of zero or less accepts any existing file.
func statCached(path string, size int64) (os.FileInfo, bool, error) {
	info, err := osStat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf(messages.DownloadCheckCachedFmt, path, err)
	}
	if info.IsDir() {
		return nil, false, fmt.Errorf(messages.DownloadCachedIsDirFmt, path)
	}
	if size > 0 && info.Size() != size {
		return info, false, nil
	}
	return info, true, nil
}

func openCached(path string, size int64) (*Archive, bool, error) {
	_, ok, err := statCached(path, size)
	if err != nil || !ok {
		return nil, false, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf(messages.DownloadOpenFileFmt, path, err)
	}
	return &Archive{File: file, Path: path, Cached: true, inCache: true}, true, nil
}

// download fetches the asset into dest, retrying once on transient failures.
func (d *Downloader) download(ctx context.Context, asset github.Asset, dest *os.File) error {
	url := asset.BrowserDownloadURL
	_, _ = fmt.Fprintf(d.opts.Progress, messages.DownloadStartingFmt, asset.Name, url)
	for attempt := 0; attempt <= downloadRetryCount; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf(messages.DownloadFailedFmt, url, err)
		}
		if d.opts.UserAgent != "" {
			req.Header.Set("User-Agent", d.opts.UserAgent)
		}
		req.Header.Set("Accept", "application/octet-stream")

		resp, err := d.client.Do(req)
		if err != nil {
			if shouldRetryDownload(attempt, err, 0) {
				downloadSleep(downloadRetryBackoff)
				continue
			}
			if isTimeoutError(err) {
				return fmt.Errorf(messages.DownloadTimeoutFmt, url)
			}
			return fmt.Errorf(messages.DownloadFailedFmt, url, err)
		}

		if resp.StatusCode == http.StatusNotFound {
			_ = resp.Body.Close()
			return fmt.Errorf("%w: %s", ErrNotFound, url)
		}
		if resp.StatusCode != http.StatusOK {
			status := resp.StatusCode
			statusText := resp.Status
			_ = resp.Body.Close()
			if shouldRetryDownload(attempt, nil, status) {
				downloadSleep(downloadRetryBackoff)
				continue
			}
			return fmt.Errorf(messages.DownloadUnexpectedStatusFmt, url, statusText)
		}

		if err := dest.Truncate(0); err != nil {
			_ = resp.Body.Close()
			return fmt.Errorf(messages.DownloadTruncateTempFileFmt, err)
		}
		if _, err := dest.Seek(0, io.SeekStart); err != nil {
			_ = resp.Body.Close()
			return fmt.Errorf(messages.DownloadResetOffsetFmt, err)
		}

		n, copyErr := io.Copy(dest, io.LimitReader(resp.Body, d.opts.MaxBytes+1))
		_ = resp.Body.Close()
		if copyErr != nil {
			if shouldRetryDownload(attempt, copyErr, 0) {
				downloadSleep(downloadRetryBackoff)
				continue
			}
			return fmt.Errorf(messages.DownloadFailedFmt, url, copyErr)
		}
		if n > d.opts.MaxBytes {
			return fmt.Errorf(messages.DownloadTooLargeFmt, url, n, d.opts.MaxBytes)
		}
		if asset.Size > 0 && n != asset.Size {
			return fmt.Errorf(messages.DownloadSizeMismatchFmt, url, asset.Size, n)
		}
		_, _ = fmt.Fprintf(d.opts.Progress, messages.DownloadFinishedFmt, asset.Name, n)
		return nil
	}
	return fmt.Errorf(messages.DownloadFailedFmt, url, errors.New("retry budget exhausted"))
}

// isTimeoutError reports whether err is a network timeout.
func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func shouldRetryDownload(attempt int, err error, statusCode int) bool {
	if attempt >= downloadRetryCount {
		return false
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		var netErr net.Error
		return errors.As(err, &netErr)
	}
	return statusCode >= 500 && statusCode <= 599
}

// safeName flattens a tag or asset name into a single path element.
func safeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "_"
	}
	return cleaned
}
