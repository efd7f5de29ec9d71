package extract

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/aymanbagabas/go-udiff"

	"github.com/exmod-team/exiled-installer/internal/messages"
)

const (
	// DefaultDiffMaxLines is the default maximum number of diff lines shown per file.
	DefaultDiffMaxLines = 40
	// diffLineCapFlagName is the CLI flag that raises per-file diff line caps.
	diffLineCapFlagName = "--diff-lines"
	// maxDiffBytes skips previews for files too large to diff usefully.
	maxDiffBytes = 1 << 20
)

// planEntry fills entry with the action a real run would take, without writing.
func planEntry(tr io.Reader, hdr *tar.Header, entry *EntryResult, opts Options) {
	info, err := os.Stat(entry.Dest)
	if os.IsNotExist(err) {
		entry.Action = ActionCreate
		opts.Reporter.Infof(messages.PlanCreateFmt, entry.Dest)
		return
	}
	if err != nil {
		entry.Action = ActionFailed
		entry.Err = err
		opts.Reporter.Failf(messages.ExtractEntryFailedFmt, entry.Name, err)
		return
	}
	if info.IsDir() {
		entry.Action = ActionFailed
		entry.Err = fmt.Errorf(messages.PlanDestIsDirFmt, entry.Dest)
		opts.Reporter.Failf(messages.ExtractEntryFailedFmt, entry.Name, entry.Err)
		return
	}

	// Large files are assumed to change.
	if hdr.Size > maxDiffBytes || info.Size() > maxDiffBytes {
		entry.Action = ActionOverwrite
		opts.Reporter.Infof(messages.PlanOverwriteFmt, entry.Dest)
		return
	}
	incoming, err := io.ReadAll(tr)
	if err != nil {
		entry.Action = ActionFailed
		entry.Err = err
		opts.Reporter.Failf(messages.ExtractEntryFailedFmt, entry.Name, err)
		return
	}
	same, current, err := sameContent(entry.Dest, incoming)
	if err != nil {
		entry.Action = ActionFailed
		entry.Err = err
		opts.Reporter.Failf(messages.ExtractEntryFailedFmt, entry.Name, err)
		return
	}
	if same {
		entry.Action = ActionUnchanged
		opts.Reporter.Infof(messages.PlanUnchangedFmt, entry.Dest)
		return
	}

	entry.Action = ActionOverwrite
	opts.Reporter.Infof(messages.PlanOverwriteFmt, entry.Dest)
	if isText(current) && isText(incoming) {
		entry.Diff, entry.DiffTruncated = renderTruncatedUnifiedDiff(
			entry.Name+" (installed)",
			entry.Name+" (release)",
			normalizeNewlines(string(current)),
			normalizeNewlines(string(incoming)),
			opts.DiffMaxLines,
		)
		if entry.Diff != "" {
			_, _ = io.WriteString(opts.Reporter.Out(), entry.Diff)
		}
	}
}

func isText(data []byte) bool {
	return utf8.Valid(data) && !bytes.Contains(data, []byte{0})
}

func normalizeNewlines(content string) string {
	return strings.ReplaceAll(content, "\r\n", "\n")
}

func normalizeDiffMaxLines(value int) int {
	if value <= 0 {
		return DefaultDiffMaxLines
	}
	return value
}

func renderTruncatedUnifiedDiff(fromName string, toName string, fromContent string, toContent string, maxLines int) (string, bool) {
	limit := normalizeDiffMaxLines(maxLines)
	diff := udiff.Unified(fromName, toName, fromContent, toContent)
	lines := splitDiffLines(diff)
	if len(lines) <= limit {
		return ensureTrailingNewline(strings.Join(lines, "\n")), false
	}
	truncated := lines[:limit]
	truncated = append(
		truncated,
		fmt.Sprintf(messages.PlanDiffTruncatedFmt, limit, diffLineCapFlagName),
	)
	return ensureTrailingNewline(strings.Join(truncated, "\n")), true
}

func splitDiffLines(content string) []string {
	trimmed := strings.TrimRight(content, "\n")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "\n")
}

func ensureTrailingNewline(content string) string {
	if content == "" {
		return ""
	}
	if strings.HasSuffix(content, "\n") {
		return content
	}
	return content + "\n"
}
