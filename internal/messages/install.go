package messages

// Installer flow messages.
const (
	// InstallHeaderFmt formats the banner: program name and version.
	InstallHeaderFmt            = "%s-%s"
	InstallAvailableVersions    = "--- AVAILABLE VERSIONS ---"
	InstallAppDataFmt           = "AppData folder: %s"
	InstallExiledFmt            = "Exiled folder: %s"
	InstallTokenDetected        = "Token detected! Using the token..."
	InstallFeedFmt              = "FEED: %s/%s"
	InstallReceivingReleases    = "Receiving releases..."
	InstallPreReleasesFmt       = "Prereleases included - %t"
	InstallTargetVersionFmt     = "Target release version - %s"
	InstallTargetVersionNone    = "(null)"
	InstallReleasesHeader       = "--- RELEASES ---"
	InstallReleaseSummaryFmt    = "> '%s' (ID: %d) | CHANNEL: %s"
	InstallSearching            = "Searching for the latest release that matches the parameters..."
	InstallReleaseFound         = "Release found!"
	InstallAssetsHeader         = "--- ASSETS ---"
	InstallAssetFound           = "Asset found!"
	InstallDownloadingFmt       = "DOWNLOADING RELEASE: '%s' (ID: %d) | CHANNEL: %s"
	InstallEvictedArchiveFmt    = "Removed unreadable archive %s; the next run downloads it again"
	InstallCachedArchiveFmt     = "Using cached archive %s"
	InstallDryRunHeader         = "Dry run: no files will be written."
	InstallSummaryFmt           = "%d written, %d unchanged, %d skipped, %d failed"
	InstallComplete             = "Installation complete"
	InstallDryRunComplete       = "Dry run complete"
	InstallEntriesFailedFmt     = "%d entries could not be installed; see the messages above"
	InstallNoReleaseFmt         = "Unable to install EXILED! An error occurred while trying to get the latest release: %w"
	InstallAssetMissingFmt      = "Unable to install EXILED! Release %s has no asset named %s: %w"
	InstallLoadMarkupFmt        = "failed to load path-mapping table: %w"
	InstallResolveCacheDirFmt   = "failed to resolve the download cache: %w"
	InstallTargetPortInvalidFmt = "target port %q must be a port number between 1 and 65535"
	InstallFailureGuidance      = "Read the error message, read the README, and if you still don't understand what to do, contact #support in our Discord server with a screenshot of the full error."
	InstallPressEnter           = "Press Enter to exit..."
)

// Download messages.
const (
	DownloadNotFound             = "release asset download returned 404"
	DownloadResolveCacheDirFmt   = "failed to resolve user cache directory: %w"
	DownloadURLRequiredFmt       = "asset %s has no download url"
	DownloadCreateTempFileFmt    = "failed to create temp file for download: %w"
	DownloadResetOffsetFmt       = "failed to rewind downloaded archive: %w"
	DownloadCreateCacheDirFmt    = "failed to create download cache directory: %w"
	DownloadSyncTempFileFmt      = "failed to sync downloaded archive: %w"
	DownloadCloseTempFileFmt     = "failed to close downloaded archive: %w"
	DownloadEvictFmt             = "failed to remove cached archive %s: %w"
	DownloadMoveCachedFmt        = "failed to move archive into the cache: %w"
	DownloadOpenFileFmt          = "failed to open archive %s: %w"
	DownloadCheckCachedFmt       = "failed to check cached archive %s: %w"
	DownloadCachedIsDirFmt       = "cached archive path %s is a directory"
	DownloadStartingFmt          = "Downloading %s from %s\n"
	DownloadFinishedFmt          = "Downloaded %s (%d bytes)\n"
	DownloadFailedFmt            = "failed to download %s: %w"
	DownloadTimeoutFmt           = "timed out downloading %s"
	DownloadUnexpectedStatusFmt  = "failed to download %s: unexpected status %s"
	DownloadTruncateTempFileFmt  = "failed to reset partial download: %w"
	DownloadTooLargeFmt          = "download %s exceeds the size limit (%d > %d bytes); raise download.max_bytes to allow it"
	DownloadSizeMismatchFmt      = "download %s size mismatch: expected %d bytes, got %d"
	DownloadOpenLockFmt          = "failed to open download lock %s: %w"
	DownloadLockFmt              = "failed to lock %s: %w"
	DownloadLockTimeoutFmt       = "timed out after %s waiting for the download lock"
)

// Extraction messages.
const (
	ExtractPathEscapesRoot    = "archive entry escapes its destination root"
	ExtractOpenGzipFmt        = "%w: failed to open gzip stream: %w"
	ExtractReadEntryFmt       = "%w: failed to read archive entry: %w"
	ExtractCorruptArchive     = "corrupt archive"
	ExtractRootMissingFmt     = "no destination root configured for %s entries"
	ExtractDirectoryEntryFmt  = "Skipping directory entry '%s'"
	ExtractProcessingFmt      = "Processing '%s'"
	ExtractUnsupportedTypeFmt = "Skipping '%s': unsupported entry type %q"
	ExtractDisabledFmt        = "Extract for '%s' is disabled"
	ExtractUnresolvedFmt      = "Couldn't resolve path for '%s', update installer"
	ExtractEntryFailedFmt     = "An error occurred while trying to extract '%s': %v"
	ExtractExtractingFmt      = "Extracting '%s' into '%s'..."
	ExtractEnsureDirFmt       = "Ensuring directory path: %s (exists: %t)"
	ExtractCreateDirFmt       = "failed to create directory %s: %w"
	ExtractOpenFileFmt        = "failed to open %s for writing: %w"
	ExtractChmodFileFmt       = "failed to set permissions on %s: %w"
	ExtractWriteFileFmt       = "failed to write %s: %w"
)

// Dry-run plan messages.
const (
	PlanCreateFmt        = "would create %s"
	PlanOverwriteFmt     = "would overwrite %s"
	PlanUnchangedFmt     = "unchanged %s"
	PlanDestIsDirFmt     = "destination %s is a directory"
	PlanDiffTruncatedFmt = "... (truncated to %d lines; rerun with %s <n> to see more)"
)
