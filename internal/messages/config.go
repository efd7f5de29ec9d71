package messages

// Config messages for configuration loading, validation and editing.
const (
	// ConfigMissingFileFmt formats missing config file errors.
	ConfigMissingFileFmt      = "missing config file %s: %w"
	ConfigInvalidConfigFmt    = "invalid config %s: %w"
	ConfigUnrecognizedKeysFmt = "%s: unrecognized config keys: %w."
	ConfigValidationGuidance  = "Run 'exiled-installer config init --force' to restore the defaults or fix the file by hand."
	ConfigRenderFmt           = "failed to render config %s: %w"
	ConfigResolveDirFmt       = "failed to resolve user config directory: %w"
	ConfigExpandPathFmt       = "failed to expand path %s: %w"
	ConfigCreateDirFmt        = "failed to create config directory %s: %w"
	ConfigWriteFileFmt        = "failed to write config %s: %w"
	ConfigAlreadyExistsFmt    = "config %s already exists; pass --force to overwrite it"

	ConfigFeedOwnerRequiredFmt      = "%s: feed.owner is required"
	ConfigFeedRepositoryRequiredFmt = "%s: feed.repository is required"
	ConfigFeedAssetRequiredFmt      = "%s: feed.asset is required"
	ConfigMinimumVersionInvalidFmt  = "%s: feed.minimum_version %q is not a semantic version: %w"
	ConfigTargetVersionInvalidFmt   = "%s: install.target_version %q is not a semantic version: %w"
	ConfigTargetPortInvalidFmt      = "%s: install.target_port %q must be a port number between 1 and 65535"
	ConfigTimeoutInvalidFmt         = "%s: download.timeout_seconds must be positive"
	ConfigMaxBytesInvalidFmt        = "%s: download.max_bytes must be positive"

	ConfigUnknownKeyFmt         = "unknown config key %q; run 'exiled-installer config keys' to list valid keys"
	ConfigInvalidBoolFmt        = "%s expects true or false, got %q"
	ConfigInvalidPositiveIntFmt = "%s expects a positive integer, got %q"
)

// Field descriptions shown by 'config keys'.
const (
	FieldFeedOwner            = "GitHub owner of the release feed"
	FieldFeedRepository       = "GitHub repository of the release feed"
	FieldFeedAsset            = "release asset holding the archive"
	FieldFeedMinimumVersion   = "only releases newer than this version are offered"
	FieldInstallAppData       = "root for entries mapped as absolute"
	FieldInstallExiled        = "root for entries mapped as exiled"
	FieldInstallPreReleases   = "allow installing pre-releases"
	FieldInstallTargetVersion = "install this exact version"
	FieldInstallTargetPort    = "port that replaces \"global\" in archive paths"
	FieldInstallMarkupFile    = "replacement path-mapping table"
	FieldDownloadTimeout      = "download timeout in seconds"
	FieldDownloadMaxBytes     = "maximum archive size in bytes"
	FieldDownloadCache        = "reuse archives from the user cache directory"
)

// Config subcommand text.
const (
	ConfigUse                = "config"
	ConfigShort              = "Manage the installer config file"
	ConfigInitUse            = "init"
	ConfigInitShort          = "Write the default config file"
	ConfigInitWroteFmt       = "Wrote %s"
	ConfigInitKeptFmt        = "Kept existing %s"
	ConfigOverwritePromptFmt = "Overwrite %s with the defaults?"
	ConfigFlagForce          = "overwrite an existing config file"
	ConfigSetUse             = "set <key> <value>"
	ConfigSetShort           = "Set one config key"
	ConfigSetDoneFmt         = "Set %s = %s in %s"
	ConfigKeysUse            = "keys"
	ConfigKeysShort          = "List settable config keys"
	ConfigKeyLineFmt         = "%-24s %-13s %s\n"
	ConfigPathUse            = "path"
	ConfigPathShort          = "Print the config file location"
)
