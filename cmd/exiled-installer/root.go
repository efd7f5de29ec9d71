package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/exmod-team/exiled-installer/internal/config"
	"github.com/exmod-team/exiled-installer/internal/download"
	"github.com/exmod-team/exiled-installer/internal/extract"
	"github.com/exmod-team/exiled-installer/internal/installer"
	"github.com/exmod-team/exiled-installer/internal/markup"
	"github.com/exmod-team/exiled-installer/internal/messages"
	"github.com/exmod-team/exiled-installer/internal/prompt"
	"github.com/exmod-team/exiled-installer/internal/report"
	"github.com/exmod-team/exiled-installer/internal/terminal"
)

const programName = "exiled-installer"

var (
	installRun      = installer.Run
	listVersions    = installer.ListVersions
	isTerminal      = terminal.IsInteractive
	getenv          = os.Getenv
	defaultCacheDir = download.DefaultCacheDir
	newSelector     = func() installer.Selector { return prompt.NewHuhUI() }
	pause           = prompt.Pause
)

// rootFlags holds every flag; persistent ones are shared with subcommands.
type rootFlags struct {
	configPath  string
	appData     string
	exiled      string
	owner       string
	repository  string
	asset       string
	apiURL      string
	token       string
	targetPort  string
	preReleases bool
	verbose     bool
	noColor     bool

	targetVersion string
	getVersions   bool
	exit          bool
	dryRun        bool
	diffLines     int
	selectRelease bool
	noCache       bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", messages.FlagConfig)
	pf.StringVarP(&flags.appData, "appdata", "p", "", messages.FlagAppData)
	pf.StringVarP(&flags.exiled, "exiled", "e", "", messages.FlagExiled)
	pf.StringVar(&flags.owner, "owner", "", messages.FlagOwner)
	pf.StringVar(&flags.repository, "repo", "", messages.FlagRepo)
	pf.StringVar(&flags.asset, "asset", "", messages.FlagAsset)
	pf.StringVar(&flags.apiURL, "api-url", "", messages.FlagAPIURL)
	pf.StringVar(&flags.token, "github-token", "", messages.FlagGitHubToken)
	pf.StringVar(&flags.targetPort, "target-port", "", messages.FlagTargetPort)
	pf.BoolVar(&flags.preReleases, "pre-releases", false, messages.FlagPreReleases)
	pf.BoolVar(&flags.verbose, "verbose", false, messages.FlagVerbose)
	pf.BoolVar(&flags.noColor, "no-color", false, messages.FlagNoColor)

	f := cmd.Flags()
	f.StringVarP(&flags.targetVersion, "target-version", "v", "", messages.FlagTargetVersion)
	f.BoolVar(&flags.getVersions, "get-versions", false, messages.FlagGetVersions)
	f.BoolVar(&flags.exit, "exit", false, messages.FlagExit)
	f.BoolVar(&flags.dryRun, "dry-run", false, messages.FlagDryRun)
	f.IntVar(&flags.diffLines, "diff-lines", extract.DefaultDiffMaxLines, messages.FlagDiffLines)
	f.BoolVar(&flags.selectRelease, "select", false, messages.FlagSelect)
	f.BoolVar(&flags.noCache, "no-cache", false, messages.FlagNoCache)

	cmd.AddCommand(
		newVersionsCmd(flags),
		newResolveCmd(flags),
		newConfigCmd(flags),
	)
	return cmd
}

// runInstall reports a failure, prints the support hint and, on an interactive
// terminal without --exit, waits for Enter before returning the exit code.
func runInstall(cmd *cobra.Command, flags *rootFlags) error {
	rep := flags.reporter(cmd)
	err := install(cmd.Context(), cmd, flags, rep)
	if err == nil {
		return nil
	}
	rep.Failf("%v", err)
	rep.Warnf(messages.InstallFailureGuidance)
	if !flags.exit && isTerminal() {
		pause(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return &SilentExitError{Code: installer.ExitCode(err)}
}

func install(ctx context.Context, cmd *cobra.Command, flags *rootFlags, rep *report.Reporter) error {
	opts, err := flags.installerOptions(cmd, rep)
	if err != nil {
		return err
	}
	if flags.selectRelease {
		if !isTerminal() {
			return fmt.Errorf(messages.PromptRequiresTerminal)
		}
		opts.Selector = newSelector()
	}
	_, err = installRun(ctx, opts)
	return err
}

func (f *rootFlags) reporter(cmd *cobra.Command) *report.Reporter {
	if f.noColor {
		report.DisableColor()
	}
	return report.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), f.verbose)
}

// loadConfig reads the config file and layers changed flags on top of it.
func (f *rootFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, _, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	changed := func(name string) bool {
		flag := cmd.Flags().Lookup(name)
		return flag != nil && flag.Changed
	}
	if changed("owner") {
		cfg.Feed.Owner = f.owner
	}
	if changed("repo") {
		cfg.Feed.Repository = f.repository
	}
	if changed("asset") {
		cfg.Feed.Asset = f.asset
	}
	if changed("appdata") {
		cfg.Install.AppData = f.appData
	}
	if changed("exiled") {
		cfg.Install.Exiled = f.exiled
	}
	if changed("target-port") {
		cfg.Install.TargetPort = f.targetPort
	}
	if changed("pre-releases") {
		cfg.Install.PreReleases = f.preReleases
	}
	if changed("target-version") {
		cfg.Install.TargetVersion = f.targetVersion
	}
	if changed("no-cache") && f.noCache {
		disabled := false
		cfg.Download.Cache = &disabled
	}
	if err := cfg.Validate(messages.FlagsSource); err != nil {
		return nil, err
	}
	return cfg, nil
}

// githubToken prefers --github-token over the environment.
func (f *rootFlags) githubToken() string {
	if token := strings.TrimSpace(f.token); token != "" {
		return token
	}
	return config.GitHubToken(getenv)
}

func (f *rootFlags) installerOptions(cmd *cobra.Command, rep *report.Reporter) (installer.Options, error) {
	cfg, err := f.loadConfig(cmd)
	if err != nil {
		return installer.Options{}, err
	}
	paths, err := config.ResolvePaths(cfg.Install)
	if err != nil {
		return installer.Options{}, err
	}
	table, err := loadTable(cfg.Install.MarkupFile)
	if err != nil {
		return installer.Options{}, err
	}
	cacheDir := ""
	if cfg.Download.CacheEnabled() {
		cacheDir, err = defaultCacheDir()
		if err != nil {
			return installer.Options{}, fmt.Errorf(messages.InstallResolveCacheDirFmt, err)
		}
	}
	return installer.Options{
		ProgramName:     programName,
		Version:         Version,
		Owner:           cfg.Feed.Owner,
		Repository:      cfg.Feed.Repository,
		Asset:           cfg.Feed.Asset,
		MinimumVersion:  cfg.Feed.MinimumVersion,
		Roots:           extract.Roots{AppData: paths.AppData, Exiled: paths.Exiled},
		Table:           table,
		PreReleases:     cfg.Install.PreReleases,
		TargetVersion:   cfg.Install.TargetVersion,
		TargetPort:      cfg.Install.TargetPort,
		Token:           f.githubToken(),
		GetVersions:     f.getVersions,
		Exit:            f.exit,
		DryRun:          f.dryRun,
		DiffMaxLines:    f.diffLines,
		CacheDir:        cacheDir,
		DownloadTimeout: cfg.Download.Timeout(),
		MaxBytes:        cfg.Download.MaxBytes,
		BaseURL:         f.apiURL,
		Reporter:        rep,
	}, nil
}

// loadTable returns the table at path, or nil for the embedded default.
func loadTable(path string) (*markup.Table, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	if expanded == "" {
		return nil, nil
	}
	table, err := markup.Load(expanded)
	if err != nil {
		return nil, fmt.Errorf(messages.InstallLoadMarkupFmt, err)
	}
	return table, nil
}
