package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/exmod-team/exiled-installer/internal/messages"
)

// Validate ensures the config is complete and consistent.
func (c *Config) Validate(path string) error {
	if strings.TrimSpace(c.Feed.Owner) == "" {
		return fmt.Errorf(messages.ConfigFeedOwnerRequiredFmt, path)
	}
	if strings.TrimSpace(c.Feed.Repository) == "" {
		return fmt.Errorf(messages.ConfigFeedRepositoryRequiredFmt, path)
	}
	if strings.TrimSpace(c.Feed.Asset) == "" {
		return fmt.Errorf(messages.ConfigFeedAssetRequiredFmt, path)
	}
	if _, err := semver.NewVersion(c.Feed.MinimumVersion); err != nil {
		return fmt.Errorf(messages.ConfigMinimumVersionInvalidFmt, path, c.Feed.MinimumVersion, err)
	}
	if v := strings.TrimSpace(c.Install.TargetVersion); v != "" {
		if _, err := semver.NewVersion(v); err != nil {
			return fmt.Errorf(messages.ConfigTargetVersionInvalidFmt, path, v, err)
		}
	}
	if port := strings.TrimSpace(c.Install.TargetPort); port != "" && !ValidPort(port) {
		return fmt.Errorf(messages.ConfigTargetPortInvalidFmt, path, port)
	}
	if c.Download.TimeoutSeconds <= 0 {
		return fmt.Errorf(messages.ConfigTimeoutInvalidFmt, path)
	}
	if c.Download.MaxBytes <= 0 {
		return fmt.Errorf(messages.ConfigMaxBytesInvalidFmt, path)
	}
	return nil
}

// ValidPort reports whether s is a decimal TCP port in 1..65535.
func ValidPort(s string) bool {
	n, err := strconv.ParseUint(s, 10, 16)
	return err == nil && n > 0
}
