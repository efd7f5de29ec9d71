// Package testutil holds archive and HTTP fixtures shared by package tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

// ArchiveEntry describes one tar member.
// A zero Type writes a regular file; a zero Mode uses 0o644.
type ArchiveEntry struct {
	Name     string
	Body     string
	Mode     int64
	Type     byte
	Linkname string
}

// Dir returns a directory entry for name.
func Dir(name string) ArchiveEntry {
	return ArchiveEntry{Name: strings.TrimSuffix(name, "/") + "/", Type: tar.TypeDir, Mode: 0o755}
}

// File returns a regular file entry.
func File(name string, body string) ArchiveEntry {
	return ArchiveEntry{Name: name, Body: body}
}

// TarGz builds a gzip-compressed tar archive from entries in order.
// t is the active test; entries are written exactly as given.
func TarGz(t *testing.T, entries ...ArchiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	modTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, entry := range entries {
		typ := entry.Type
		if typ == 0 {
			typ = tar.TypeReg
		}
		mode := entry.Mode
		if mode == 0 {
			mode = 0o644
		}
		hdr := &tar.Header{
			Name:     entry.Name,
			Typeflag: typ,
			Mode:     mode,
			Linkname: entry.Linkname,
			ModTime:  modTime,
		}
		if typ == tar.TypeReg {
			hdr.Size = int64(len(entry.Body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write tar header %s: %v", entry.Name, err)
		}
		if typ == tar.TypeReg {
			if _, err := tw.Write([]byte(entry.Body)); err != nil {
				t.Fatalf("write tar body %s: %v", entry.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

// ReleaseFixture is one release served by a FeedServer.
// Archive, when set, is served at the asset's download URL.
type ReleaseFixture struct {
	ID         int64
	Tag        string
	Prerelease bool
	CreatedAt  time.Time
	AssetName  string
	Archive    []byte
}

// FeedServer fakes the releases API and the asset download host.
type FeedServer struct {
	*httptest.Server
	// Downloads counts asset requests.
	Downloads atomic.Int32
}

// NewFeedServer serves releases for any owner/repo at /repos/{owner}/{repo}/releases
// and each fixture's archive at /download/{id}/{asset}.
func NewFeedServer(t *testing.T, releases ...ReleaseFixture) *FeedServer {
	t.Helper()
	fs := &FeedServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/releases", func(w http.ResponseWriter, _ *http.Request) {
		payload := make([]map[string]any, 0, len(releases))
		for _, r := range releases {
			assets := []map[string]any{}
			if r.AssetName != "" {
				assets = append(assets, map[string]any{
					"id":                   r.ID * 10,
					"name":                 r.AssetName,
					"size":                 len(r.Archive),
					"url":                  fs.URL + "/assets/" + r.AssetName,
					"browser_download_url": fs.URL + "/download/" + r.Tag + "/" + r.AssetName,
				})
			}
			payload = append(payload, map[string]any{
				"id":         r.ID,
				"tag_name":   r.Tag,
				"prerelease": r.Prerelease,
				"created_at": r.CreatedAt.UTC().Format(time.RFC3339),
				"assets":     assets,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode releases: %v", err)
		}
	})
	mux.HandleFunc("GET /download/{tag}/{asset}", func(w http.ResponseWriter, r *http.Request) {
		fs.Downloads.Add(1)
		for _, rel := range releases {
			if rel.Tag == r.PathValue("tag") && rel.AssetName == r.PathValue("asset") {
				_, _ = w.Write(rel.Archive)
				return
			}
		}
		http.NotFound(w, r)
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

// ReadFile returns the contents of root/rel using '/' separators in rel.
func ReadFile(t *testing.T, root string, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// WriteFile writes content to root/rel, creating parents.
func WriteFile(t *testing.T, root string, rel string, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WithWorkingDir runs fn with dir as the current working directory and restores the previous directory.
// t is the active test; dir is the temporary working directory for fn.
func WithWorkingDir(t *testing.T, dir string, fn func()) {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() {
		if err := os.Chdir(cwd); err != nil {
			t.Fatalf("restore chdir: %v", err)
		}
	}()
	fn()
}
