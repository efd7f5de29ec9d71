// Package extract walks a release archive and writes each entry under the root its
// markup rule selects.
package extract

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/exmod-team/exiled-installer/internal/markup"
	"github.com/exmod-team/exiled-installer/internal/messages"
	"github.com/exmod-team/exiled-installer/internal/report"
)

const (
	portPlaceholder = "global"
	disabledMarker  = "example"
	defaultFileMode = os.FileMode(0o644)
)

// ErrPathEscapesRoot reports an entry whose destination leaves its root.
var ErrPathEscapesRoot = errors.New(messages.ExtractPathEscapesRoot)

// ErrCorruptArchive marks a gzip or tar stream that cannot be read to the end.
var ErrCorruptArchive = errors.New(messages.ExtractCorruptArchive)

// Action is what happened (or would happen) to one archive entry.
type Action string

const (
	ActionCreate      Action = "create"
	ActionOverwrite   Action = "overwrite"
	ActionUnchanged   Action = "unchanged"
	ActionDisabled    Action = "skip-disabled"
	ActionUnresolved  Action = "skip-unresolved"
	ActionUnsupported Action = "skip-unsupported"
	ActionRejected    Action = "reject"
	ActionFailed      Action = "failed"
)

// Roots are the two destination directories.
type Roots struct {
	// AppData receives entries resolved as absolute.
	AppData string
	// Exiled receives entries resolved as exiled.
	Exiled string
}

// For returns the root for a resolution, or "" when unresolved.
func (r Roots) For(res markup.Resolution) string {
	switch res {
	case markup.Absolute:
		return r.AppData
	case markup.Exiled:
		return r.Exiled
	default:
		return ""
	}
}

// Options configures a walk.
type Options struct {
	Roots Roots
	// Table resolves entry names; nil uses markup.Default().
	Table *markup.Table
	// TargetPort replaces every "global" in entry names when set.
	TargetPort string
	// DryRun computes the plan without touching the filesystem.
	DryRun bool
	// DiffMaxLines caps each dry-run diff preview; <= 0 uses DefaultDiffMaxLines.
	DiffMaxLines int
	Reporter     *report.Reporter
}

// EntryResult records the outcome for one archive member.
type EntryResult struct {
	// Name is the normalized entry name after port substitution.
	Name       string
	Resolution markup.Resolution
	Dest       string
	Action     Action
	// Diff is a unified diff preview for dry-run overwrites of text files.
	Diff          string
	DiffTruncated bool
	Err           error
}

// Result summarizes a walk.
type Result struct {
	Entries []EntryResult
}

// Count returns how many entries ended with action a.
func (r Result) Count(a Action) int {
	n := 0
	for _, e := range r.Entries {
		if e.Action == a {
			n++
		}
	}
	return n
}

// Written returns destinations that were (or would be) written.
func (r Result) Written() []string {
	var out []string
	for _, e := range r.Entries {
		if e.Action == ActionCreate || e.Action == ActionOverwrite {
			out = append(out, e.Dest)
		}
	}
	return out
}

// Failed returns entries that errored or were rejected.
func (r Result) Failed() []EntryResult {
	var out []EntryResult
	for _, e := range r.Entries {
		if e.Action == ActionFailed || e.Action == ActionRejected {
			out = append(out, e)
		}
	}
	return out
}

// Archive reads a gzip-compressed tar stream and extracts (or plans) every entry.
// Per-entry failures are reported and recorded; only a broken stream returns an error.
func Archive(ctx context.Context, r io.Reader, opts Options) (Result, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return Result{}, fmt.Errorf(messages.ExtractOpenGzipFmt, ErrCorruptArchive, err)
	}
	defer func() { _ = gz.Close() }()
	return Tar(ctx, tar.NewReader(gz), opts)
}

// Tar walks an already-decompressed tar stream.
func Tar(ctx context.Context, tr *tar.Reader, opts Options) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Table == nil {
		opts.Table = markup.Default()
	}
	var result Result
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		// Insecure names still come with a header; safeJoin rejects them per entry.
		if err != nil && !(errors.Is(err, tar.ErrInsecurePath) && hdr != nil) {
			return result, fmt.Errorf(messages.ExtractReadEntryFmt, ErrCorruptArchive, err)
		}
		entry, ok := processEntry(tr, hdr, opts)
		if ok {
			result.Entries = append(result.Entries, entry)
		}
	}
}

// EntryName applies separator normalization and port substitution to a raw tar name.
func EntryName(raw string, targetPort string) string {
	name := markup.NormalizeName(raw)
	if port := strings.TrimSpace(targetPort); port != "" && strings.Contains(name, portPlaceholder) {
		name = strings.ReplaceAll(name, portPlaceholder, port)
	}
	return name
}

// Destination resolves name to a path under its root.
// It returns "" with Undefined when no rule matches.
func Destination(name string, roots Roots, table *markup.Table) (string, markup.Resolution, error) {
	res := table.Resolve(name)
	root := roots.For(res)
	if res == markup.Undefined {
		return "", res, nil
	}
	if strings.TrimSpace(root) == "" {
		return "", res, fmt.Errorf(messages.ExtractRootMissingFmt, res)
	}
	dest, err := safeJoin(root, name)
	return dest, res, err
}

// processEntry handles one header. Directory entries return ok=false.
func processEntry(tr io.Reader, hdr *tar.Header, opts Options) (EntryResult, bool) {
	rep := opts.Reporter
	name := EntryName(hdr.Name, opts.TargetPort)

	if hdr.Typeflag == tar.TypeDir {
		rep.Debugf(messages.ExtractDirectoryEntryFmt, name)
		return EntryResult{}, false
	}

	rep.Infof(messages.ExtractProcessingFmt, name)
	entry := EntryResult{Name: name}

	if hdr.Typeflag != tar.TypeReg {
		rep.Warnf(messages.ExtractUnsupportedTypeFmt, name, string(hdr.Typeflag))
		entry.Action = ActionUnsupported
		return entry, true
	}
	if strings.Contains(strings.ToLower(name), disabledMarker) {
		rep.Infof(messages.ExtractDisabledFmt, name)
		entry.Action = ActionDisabled
		return entry, true
	}

	dest, res, err := Destination(name, opts.Roots, opts.Table)
	entry.Resolution = res
	if res == markup.Undefined {
		rep.Warnf(messages.ExtractUnresolvedFmt, name)
		entry.Action = ActionUnresolved
		return entry, true
	}
	if err != nil {
		rep.Failf(messages.ExtractEntryFailedFmt, name, err)
		entry.Action = ActionRejected
		entry.Err = err
		return entry, true
	}
	entry.Dest = dest

	if opts.DryRun {
		planEntry(tr, hdr, &entry, opts)
		return entry, true
	}

	rep.Infof(messages.ExtractExtractingFmt, filepath.Base(dest), dest)
	existed := fileExists(dest)
	if err := writeEntry(tr, hdr, dest, rep); err != nil {
		rep.Failf(messages.ExtractEntryFailedFmt, name, err)
		entry.Action = ActionFailed
		entry.Err = err
		return entry, true
	}
	entry.Action = ActionCreate
	if existed {
		entry.Action = ActionOverwrite
	}
	return entry, true
}

// writeEntry copies the current tar member into dest, creating parents as needed.
func writeEntry(tr io.Reader, hdr *tar.Header, dest string, rep *report.Reporter) error {
	dir := filepath.Dir(dest)
	if rep.Verbose() {
		_, statErr := os.Stat(dir)
		rep.Debugf(messages.ExtractEnsureDirFmt, dir, statErr == nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf(messages.ExtractCreateDirFmt, dir, err)
	}

	mode := entryMode(hdr)
	file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf(messages.ExtractOpenFileFmt, dest, err)
	}
	// OpenFile only applies mode on create.
	if err := file.Chmod(mode); err != nil {
		_ = file.Close()
		return fmt.Errorf(messages.ExtractChmodFileFmt, dest, err)
	}
	if _, err := io.Copy(file, tr); err != nil {
		_ = file.Close()
		return fmt.Errorf(messages.ExtractWriteFileFmt, dest, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf(messages.ExtractWriteFileFmt, dest, err)
	}
	return nil
}

func entryMode(hdr *tar.Header) os.FileMode {
	perm := hdr.FileInfo().Mode().Perm()
	if perm == 0 {
		return defaultFileMode
	}
	return perm
}

// safeJoin joins root and a slash-separated name, refusing results outside root.
func safeJoin(root string, name string) (string, error) {
	cleanRoot := filepath.Clean(root)
	dest := filepath.Join(cleanRoot, filepath.FromSlash(name))
	rel, err := filepath.Rel(cleanRoot, dest)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, name)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, name)
	}
	return dest, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// sameContent reports whether path holds exactly data.
func sameContent(path string, data []byte) (bool, []byte, error) {
	current, err := os.ReadFile(path)
	if err != nil {
		return false, nil, err
	}
	return bytes.Equal(current, data), current, nil
}
