package messages

// Version output.
const (
	VersionTemplate  = "{{.Version}}\n"
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
)

// Root command text.
const (
	RootUse   = "exiled-installer"
	RootShort = "Install EXILED from its GitHub releases"
	RootLong  = `exiled-installer downloads the EXILED release archive from GitHub and
extracts it into the SCP: Secret Laboratory AppData folder and the EXILED
folder, routing each entry through the path-mapping table.

Without flags the newest stable release above the minimum version is installed.`
)

// Flag descriptions.
const (
	FlagConfig        = "path to the config file"
	FlagAppData       = "AppData root for entries mapped as absolute"
	FlagExiled        = "EXILED root for entries mapped as exiled (defaults to the AppData root)"
	FlagOwner         = "GitHub owner of the release feed"
	FlagRepo          = "GitHub repository of the release feed"
	FlagAsset         = "release asset holding the archive"
	FlagAPIURL        = "GitHub API base URL"
	FlagGitHubToken   = "GitHub token (defaults to EXILED_INSTALLER_GITHUB_TOKEN or GITHUB_TOKEN)"
	FlagTargetPort    = "server port that replaces \"global\" in plugin paths"
	FlagPreReleases   = "include pre-releases"
	FlagVerbose       = "print per-entry details"
	FlagNoColor       = "disable colored output"
	FlagTargetVersion = "install this exact version"
	FlagGetVersions   = "list available versions before installing"
	FlagExit          = "exit after listing versions, or without waiting on failure"
	FlagDryRun        = "show what would change without writing files"
	FlagDiffLines     = "maximum lines per dry-run diff preview"
	FlagSelect        = "pick the release interactively"
	FlagNoCache       = "always download the archive"
	FlagsSource       = "command line"
)

// Subcommand text.
const (
	VersionsUse     = "versions"
	VersionsShort   = "List the releases that can be installed"
	VersionsNoneFmt = "No installable releases in %s/%s"

	ResolveUse           = "resolve <entry>..."
	ResolveShort         = "Show where archive entries would be extracted"
	ResolveLong          = "Resolve archive entry names through the path-mapping table and print each destination."
	ResolveLineFmt       = "%-9s %s -> %s"
	ResolveErrorFmt      = "%s: %v"
	ResolveNoDestination = "(not extracted)"
)
