// Package release filters GitHub releases and picks the one to install.
package release

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/exmod-team/exiled-installer/internal/github"
	"github.com/exmod-team/exiled-installer/internal/messages"
)

// DefaultMinimumVersion is the lowest release line the installer considers.
// Only releases strictly newer than it are installable.
const DefaultMinimumVersion = "8.0.0"

// DefaultAssetName is the archive attached to every installable release.
const DefaultAssetName = "exiled.tar.gz"

var (
	// ErrNoRelease reports that no release satisfied the selection options.
	ErrNoRelease = errors.New(messages.ReleaseNoneAvailable)
	// ErrTargetNotFound reports that the requested target version has no release.
	ErrTargetNotFound = errors.New(messages.ReleaseTargetNotFound)
	// ErrAssetNotFound reports that the selected release lacks the archive asset.
	ErrAssetNotFound = errors.New(messages.ReleaseAssetNotFound)
)

// Options controls filtering and selection.
type Options struct {
	// MinimumVersion excludes releases at or below it. Empty uses DefaultMinimumVersion.
	MinimumVersion string
	// AllowPreReleases lets pre-releases be selected when no target is set.
	AllowPreReleases bool
	// TargetVersion selects an exact release version when non-empty.
	TargetVersion string
}

// Candidate is a release whose tag parsed as a semantic version.
type Candidate struct {
	github.Release
	Version *semver.Version
}

// ParseVersion parses a release tag, tolerating a leading "v".
func ParseVersion(tag string) (*semver.Version, error) {
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" {
		return nil, fmt.Errorf(messages.ReleaseVersionRequired)
	}
	v, err := semver.NewVersion(trimmed)
	if err != nil {
		return nil, fmt.Errorf(messages.ReleaseInvalidVersionFmt, tag, err)
	}
	return v, nil
}

// Filter drops drafts, non-semver tags and versions not above the minimum, then orders
// the remaining releases newest first by creation time.
func Filter(releases []github.Release, opts Options) ([]Candidate, error) {
	minimumRaw := strings.TrimSpace(opts.MinimumVersion)
	if minimumRaw == "" {
		minimumRaw = DefaultMinimumVersion
	}
	minimum, err := ParseVersion(minimumRaw)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(releases))
	for _, r := range releases {
		if r.Draft {
			continue
		}
		v, err := ParseVersion(r.TagName)
		if err != nil {
			continue
		}
		if !v.GreaterThan(minimum) {
			continue
		}
		out = append(out, Candidate{Release: r, Version: v})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Version.GreaterThan(out[j].Version)
	})
	return out, nil
}

// Find returns the release to install from candidates ordered by Filter.
func Find(candidates []Candidate, opts Options) (Candidate, error) {
	if target := strings.TrimSpace(opts.TargetVersion); target != "" {
		want, err := ParseVersion(target)
		if err != nil {
			return Candidate{}, err
		}
		for _, c := range candidates {
			if c.Version.Equal(want) {
				return c, nil
			}
		}
		return Candidate{}, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}

	for _, c := range candidates {
		if c.Prerelease && !opts.AllowPreReleases {
			continue
		}
		return c, nil
	}
	return Candidate{}, ErrNoRelease
}

// FindAsset returns the asset named name, compared case-insensitively.
func FindAsset(r github.Release, name string) (github.Asset, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultAssetName
	}
	for _, a := range r.Assets {
		if strings.EqualFold(a.Name, name) {
			return a, nil
		}
	}
	return github.Asset{}, fmt.Errorf("%w: %s in %s", ErrAssetNotFound, name, r.TagName)
}
