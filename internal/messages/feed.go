package messages

// GitHub release feed messages.
const (
	GitHubUnauthorized           = "github rejected the token (401); check --github-token or EXILED_INSTALLER_GITHUB_TOKEN"
	GitHubRepositoryNotFound     = "release feed repository not found (404)"
	GitHubFeedRequired           = "release feed owner and repository are required"
	GitHubCreateRequestErrFmt    = "failed to create releases request: %w"
	GitHubFetchReleasesErrFmt    = "failed to fetch releases: %w"
	GitHubFetchReleasesStatusFmt = "failed to fetch releases: unexpected status %s"
	GitHubDecodeReleasesErrFmt   = "failed to decode releases: %w"
)

// Release selection and formatting messages.
const (
	ReleaseNoneAvailable     = "no release available to install"
	ReleaseTargetNotFound    = "target release version not found"
	ReleaseAssetNotFound     = "release asset not found"
	ReleaseVersionRequired   = "release version is required"
	ReleaseInvalidVersionFmt = "release tag %q is not a semantic version: %w"

	// ReleaseLineFmt formats one release: prerelease flag, id, tag.
	ReleaseLineFmt = "PRE: %t | ID: %d | TAG: %s"
	// ReleaseAssetLineFmt formats one asset: id, name, size, api url, download url.
	ReleaseAssetLineFmt  = "ID: %d | NAME: %s | SIZE: %d | URL: %s | DownloadURL: %s"
	ReleaseChannelBeta   = "BETA"
	ReleaseChannelStable = "STABLE"
)

// Path-mapping table messages.
const (
	MarkupReadFileFmt         = "failed to read markup table %s: %w"
	MarkupMissingSeparatorFmt = "markup line %d: missing ':' separator in %q"
	MarkupEmptyKeyFmt         = "markup line %d: empty key"
	MarkupDuplicateKeyFmt     = "markup key %q on line %d duplicates line %d"
)
