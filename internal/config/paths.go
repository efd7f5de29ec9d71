package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/exmod-team/exiled-installer/internal/messages"
)

const appDirName = "exiled-installer"

var userConfigDir = os.UserConfigDir

// Paths holds the resolved install roots.
type Paths struct {
	AppData string
	Exiled  string
}

// DefaultConfigPath returns <UserConfigDir>/exiled-installer/config.toml.
func DefaultConfigPath() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf(messages.ConfigResolveDirFmt, err)
	}
	return filepath.Join(dir, appDirName, "config.toml"), nil
}

// ExpandPath expands a leading ~ and cleans p. Empty input stays empty.
func ExpandPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf(messages.ConfigExpandPathFmt, p, err)
	}
	return filepath.Clean(expanded), nil
}

// ResolvePaths applies root defaults: AppData falls back to the user config dir and
// Exiled falls back to AppData.
func ResolvePaths(install InstallConfig) (Paths, error) {
	appData, err := ExpandPath(install.AppData)
	if err != nil {
		return Paths{}, err
	}
	if appData == "" {
		appData, err = userConfigDir()
		if err != nil {
			return Paths{}, fmt.Errorf(messages.ConfigResolveDirFmt, err)
		}
	}
	exiled, err := ExpandPath(install.Exiled)
	if err != nil {
		return Paths{}, err
	}
	if exiled == "" {
		exiled = appData
	}
	return Paths{AppData: appData, Exiled: exiled}, nil
}
