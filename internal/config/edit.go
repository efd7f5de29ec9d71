package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// The v1 tree API supports keyed in-place edits that v2 does not expose.
	toml "github.com/pelletier/go-toml"

	"github.com/exmod-team/exiled-installer/internal/messages"
)

var (
	osRename     = os.Rename
	osCreateTemp = os.CreateTemp
)

// SetValue returns content with key set to raw. The value is typed by the field
// catalog and the result must still be a valid config. Comments are not preserved.
func SetValue(content []byte, key string, raw string, source string) ([]byte, error) {
	field, ok := LookupField(key)
	if !ok {
		return nil, fmt.Errorf(messages.ConfigUnknownKeyFmt, key)
	}
	value, err := field.Parse(raw)
	if err != nil {
		return nil, err
	}
	tree, err := toml.LoadBytes(content)
	if err != nil {
		return nil, fmt.Errorf(messages.ConfigInvalidConfigFmt, source, err)
	}
	tree.SetPath(strings.Split(key, "."), value)
	out, err := tree.Marshal()
	if err != nil {
		return nil, fmt.Errorf(messages.ConfigRenderFmt, source, err)
	}
	if _, err := ParseConfig(out, source); err != nil {
		return nil, err
	}
	return out, nil
}

// SetFile applies SetValue to the file at path, starting from the default
// config when the file does not exist yet.
func SetFile(path string, key string, raw string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf(messages.ConfigMissingFileFmt, path, err)
		}
		content = DefaultTOML()
	}
	out, err := SetValue(content, key, raw, path)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, out)
}

// WriteDefault writes the commented default config to path.
// An existing file is kept unless overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf(messages.ConfigAlreadyExistsFmt, path)
		}
	}
	return writeFileAtomic(path, DefaultTOML())
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf(messages.ConfigCreateDirFmt, dir, err)
	}
	tmp, err := osCreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf(messages.ConfigWriteFileFmt, path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf(messages.ConfigWriteFileFmt, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf(messages.ConfigWriteFileFmt, path, err)
	}
	if err := osRename(tmpName, path); err != nil {
		return fmt.Errorf(messages.ConfigWriteFileFmt, path, err)
	}
	return nil
}
