// Package markup maps archive entry names to the installation root they belong to.
package markup

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/exmod-team/exiled-installer/internal/messages"
)

//go:embed markup.txt
var defaultMarkup string

// Resolution identifies the root directory an archive entry is extracted into.
type Resolution int

const (
	// Undefined means no rule matched; the entry is not extracted.
	Undefined Resolution = iota
	// Absolute routes the entry under the AppData root.
	Absolute
	// Exiled routes the entry under the Exiled install root.
	Exiled
)

// String returns the lowercase resolution name used in markup files.
func (r Resolution) String() string {
	switch r {
	case Absolute:
		return "absolute"
	case Exiled:
		return "exiled"
	default:
		return "undefined"
	}
}

// ParseResolution parses a markup value case-insensitively.
// Unknown values yield Undefined.
func ParseResolution(raw string) Resolution {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "absolute":
		return Absolute
	case "exiled":
		return Exiled
	default:
		return Undefined
	}
}

// Rule is one line of the mapping table.
type Rule struct {
	// Key is the file name or folder name (without trailing separator).
	Key string
	// Folder reports whether the key ended with a path separator.
	Folder bool
	// Target is the parsed destination.
	Target Resolution
}

// Table is an ordered set of rules. The first matching rule wins.
type Table struct {
	rules []Rule
}

// Default returns the table embedded in the binary.
func Default() *Table {
	table, err := Parse(defaultMarkup)
	if err != nil {
		panic(fmt.Sprintf("embedded markup is invalid: %v", err))
	}
	return table
}

// Load reads a table from a file on disk.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(messages.MarkupReadFileFmt, path, err)
	}
	return Parse(string(data))
}

// Parse parses `key:value` lines into a table.
// Blank lines and lines starting with '#' are ignored; keys are unique case-insensitively.
func Parse(content string) (*Table, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	table := &Table{}
	seen := make(map[string]int, len(lines))
	for idx, raw := range lines {
		lineNo := idx + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf(messages.MarkupMissingSeparatorFmt, lineNo, line)
		}
		key = strings.TrimSpace(key)
		folder := strings.HasSuffix(key, `\`) || strings.HasSuffix(key, "/")
		if folder {
			key = strings.TrimRight(key, `\/`)
		}
		if key == "" {
			return nil, fmt.Errorf(messages.MarkupEmptyKeyFmt, lineNo)
		}
		folded := strings.ToLower(key)
		if folder {
			folded += "/"
		}
		if first, dup := seen[folded]; dup {
			return nil, fmt.Errorf(messages.MarkupDuplicateKeyFmt, key, lineNo, first)
		}
		seen[folded] = lineNo
		table.rules = append(table.rules, Rule{
			Key:    key,
			Folder: folder,
			Target: ParseResolution(value),
		})
	}
	return table, nil
}

// Rules returns a copy of the table rules in match order.
func (t *Table) Rules() []Rule {
	if t == nil {
		return nil
	}
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Resolve returns the destination class for an archive entry name.
// Names inside a folder match folder rules against their first path segment;
// top-level names match file rules against the whole name.
func (t *Table) Resolve(name string) Resolution {
	if t == nil {
		return Undefined
	}
	normalized := NormalizeName(name)
	first, _, inFolder := strings.Cut(normalized, "/")
	for _, rule := range t.rules {
		if inFolder && rule.Folder && strings.EqualFold(rule.Key, first) {
			return rule.Target
		}
		if !inFolder && !rule.Folder && strings.EqualFold(rule.Key, normalized) {
			return rule.Target
		}
	}
	return Undefined
}

// NormalizeName converts separators to '/' and drops a leading "./".
func NormalizeName(name string) string {
	normalized := strings.ReplaceAll(name, `\`, "/")
	for strings.HasPrefix(normalized, "./") {
		normalized = strings.TrimPrefix(normalized, "./")
	}
	return strings.TrimLeft(normalized, "/")
}
