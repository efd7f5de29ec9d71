// Package installer runs an install end to end: list the feed's releases, pick one,
// download its archive and extract it into the install roots.
package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/exmod-team/exiled-installer/internal/config"
	"github.com/exmod-team/exiled-installer/internal/download"
	"github.com/exmod-team/exiled-installer/internal/extract"
	"github.com/exmod-team/exiled-installer/internal/github"
	"github.com/exmod-team/exiled-installer/internal/markup"
	"github.com/exmod-team/exiled-installer/internal/messages"
	"github.com/exmod-team/exiled-installer/internal/release"
	"github.com/exmod-team/exiled-installer/internal/report"
)

// Options is the resolved input for one run.
type Options struct {
	// ProgramName and Version form the banner and the User-Agent.
	ProgramName string
	Version     string

	Owner          string
	Repository     string
	Asset          string
	MinimumVersion string

	Roots         extract.Roots
	Table         *markup.Table
	PreReleases   bool
	TargetVersion string
	TargetPort    string
	Token         string

	// GetVersions lists the filtered releases first; with Exit the run stops there.
	GetVersions bool
	Exit        bool

	DryRun       bool
	DiffMaxLines int

	// CacheDir holds downloaded archives; empty downloads into a temp dir.
	CacheDir        string
	DownloadTimeout time.Duration
	MaxBytes        int64

	// BaseURL overrides the GitHub API root.
	BaseURL string
	// HTTP overrides the client used for both the API and the download.
	HTTP *http.Client
	// Selector picks the release interactively; nil selects automatically.
	Selector Selector
	Reporter *report.Reporter
}

// Result describes what a run did.
type Result struct {
	// Listed is set when the run stopped after listing versions.
	Listed  bool
	Release release.Candidate
	Asset   github.Asset
	// Cached reports that the archive came from the cache.
	Cached  bool
	Extract extract.Result
}

type installer struct {
	opts       Options
	rep        *report.Reporter
	client     *github.Client
	downloader *download.Downloader
	candidates []release.Candidate
}

// Run performs the install described by opts.
// Missing releases and assets return an *ExitError carrying the process exit code.
func Run(ctx context.Context, opts Options) (*Result, error) {
	inst := newInstaller(opts)
	rep := inst.rep
	rep.Infof(messages.InstallHeaderFmt, opts.ProgramName, opts.Version)
	if port := strings.TrimSpace(opts.TargetPort); port != "" && !config.ValidPort(port) {
		return nil, fmt.Errorf(messages.InstallTargetPortInvalidFmt, port)
	}

	if opts.GetVersions {
		if err := inst.listVersions(ctx); err != nil {
			return nil, err
		}
		if opts.Exit {
			return &Result{Listed: true}, nil
		}
	}

	rep.Infof(messages.InstallAppDataFmt, opts.Roots.AppData)
	rep.Infof(messages.InstallExiledFmt, opts.Roots.Exiled)
	if inst.client.Token != "" {
		rep.Println(messages.InstallTokenDetected)
	}
	rep.Infof(messages.InstallFeedFmt, opts.Owner, opts.Repository)
	rep.Println(messages.InstallReceivingReleases)
	rep.Infof(messages.InstallPreReleasesFmt, opts.PreReleases)
	target := strings.TrimSpace(opts.TargetVersion)
	if target == "" {
		target = messages.InstallTargetVersionNone
	}
	rep.Infof(messages.InstallTargetVersionFmt, target)

	candidates, err := inst.loadCandidates(ctx)
	if err != nil {
		return nil, err
	}
	if rep.Verbose() {
		rep.Debugf(messages.InstallReleasesHeader)
		for _, c := range candidates {
			rep.Debugf(messages.InstallReleaseSummaryFmt, c.TagName, c.ID, release.Channel(c.Release))
		}
	}

	rep.Println(messages.InstallSearching)
	chosen, err := inst.choose(candidates)
	if err != nil {
		if errors.Is(err, release.ErrNoRelease) || errors.Is(err, release.ErrTargetNotFound) {
			return nil, &ExitError{Code: ExitNoRelease, Err: fmt.Errorf(messages.InstallNoReleaseFmt, err)}
		}
		return nil, err
	}
	rep.Println(messages.InstallReleaseFound)
	rep.Println(release.FormatRelease(chosen.Release, false))

	asset, err := release.FindAsset(chosen.Release, opts.Asset)
	if err != nil {
		rep.Println(messages.InstallAssetsHeader)
		if assets := release.FormatAssets(chosen.Release); assets != "" {
			rep.Println(assets)
		}
		return nil, &ExitError{
			Code: ExitAssetMissing,
			Err:  fmt.Errorf(messages.InstallAssetMissingFmt, chosen.TagName, assetName(opts.Asset), err),
		}
	}
	rep.Println(messages.InstallAssetFound)
	rep.Println(release.FormatAsset(asset))

	result := &Result{Release: chosen, Asset: asset}
	rep.Infof(messages.InstallDownloadingFmt, chosen.TagName, chosen.ID, release.Channel(chosen.Release))
	archive, err := inst.downloader.Fetch(ctx, asset, chosen.TagName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = archive.Close() }()
	result.Cached = archive.Cached
	if archive.Cached {
		rep.Infof(messages.InstallCachedArchiveFmt, archive.Path)
	}

	if opts.DryRun {
		rep.Println(messages.InstallDryRunHeader)
	}
	extracted, err := extract.Archive(ctx, archive, extract.Options{
		Roots:        opts.Roots,
		Table:        opts.Table,
		TargetPort:   opts.TargetPort,
		DryRun:       opts.DryRun,
		DiffMaxLines: opts.DiffMaxLines,
		Reporter:     rep,
	})
	result.Extract = extracted
	if err != nil {
		if errors.Is(err, extract.ErrCorruptArchive) {
			if evictErr := archive.Evict(); evictErr != nil {
				rep.Warnf("%v", evictErr)
			} else if opts.CacheDir != "" {
				rep.Warnf(messages.InstallEvictedArchiveFmt, archive.Path)
			}
		}
		return result, err
	}

	inst.summarize(extracted)
	if opts.DryRun {
		rep.Successf(messages.InstallDryRunComplete)
	} else {
		rep.Successf(messages.InstallComplete)
	}
	return result, nil
}

// ListVersions prints every installable release with its assets.
func ListVersions(ctx context.Context, opts Options) ([]release.Candidate, error) {
	inst := newInstaller(opts)
	if err := inst.listVersions(ctx); err != nil {
		return nil, err
	}
	return inst.candidates, nil
}

func newInstaller(opts Options) *installer {
	if opts.ProgramName == "" {
		opts.ProgramName = "exiled-installer"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	userAgent := opts.ProgramName + "/" + opts.Version
	client := github.NewClient(userAgent, opts.Token)
	if opts.BaseURL != "" {
		client.BaseURL = opts.BaseURL
	}
	if opts.HTTP != nil {
		client.HTTP = opts.HTTP
	}
	downloader := download.New(download.Options{
		CacheDir:  opts.CacheDir,
		UserAgent: userAgent,
		Timeout:   opts.DownloadTimeout,
		MaxBytes:  opts.MaxBytes,
		Progress:  opts.Reporter.Out(),
		HTTP:      opts.HTTP,
	})
	return &installer{
		opts:       opts,
		rep:        opts.Reporter,
		client:     client,
		downloader: downloader,
	}
}

func (i *installer) releaseOptions() release.Options {
	return release.Options{
		MinimumVersion:   i.opts.MinimumVersion,
		AllowPreReleases: i.opts.PreReleases,
		TargetVersion:    i.opts.TargetVersion,
	}
}

// loadCandidates fetches and filters the feed once per run.
func (i *installer) loadCandidates(ctx context.Context) ([]release.Candidate, error) {
	if i.candidates != nil {
		return i.candidates, nil
	}
	releases, err := i.client.ListReleases(ctx, i.opts.Owner, i.opts.Repository)
	if err != nil {
		return nil, err
	}
	candidates, err := release.Filter(releases, i.releaseOptions())
	if err != nil {
		return nil, err
	}
	i.candidates = candidates
	return candidates, nil
}

func (i *installer) listVersions(ctx context.Context) error {
	candidates, err := i.loadCandidates(ctx)
	if err != nil {
		return err
	}
	i.rep.Println(messages.InstallAvailableVersions)
	for _, c := range candidates {
		i.rep.Println(release.FormatRelease(c.Release, true))
	}
	return nil
}

// choose applies the target version first; the selector only sees the
// releases the flags allow.
func (i *installer) choose(candidates []release.Candidate) (release.Candidate, error) {
	opts := i.releaseOptions()
	if i.opts.Selector == nil || strings.TrimSpace(opts.TargetVersion) != "" {
		return release.Find(candidates, opts)
	}
	allowed := make([]release.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Prerelease && !opts.AllowPreReleases {
			continue
		}
		allowed = append(allowed, c)
	}
	if len(allowed) == 0 {
		return release.Candidate{}, release.ErrNoRelease
	}
	return i.opts.Selector.SelectRelease(allowed)
}

func (i *installer) summarize(res extract.Result) {
	skipped := res.Count(extract.ActionDisabled) + res.Count(extract.ActionUnresolved) + res.Count(extract.ActionUnsupported)
	failed := len(res.Failed())
	i.rep.Infof(messages.InstallSummaryFmt, len(res.Written()), res.Count(extract.ActionUnchanged), skipped, failed)
	if failed > 0 {
		i.rep.Warnf(messages.InstallEntriesFailedFmt, failed)
	}
}

func assetName(name string) string {
	if strings.TrimSpace(name) == "" {
		return release.DefaultAssetName
	}
	return name
}
