package release

import (
	"fmt"
	"strings"

	"github.com/exmod-team/exiled-installer/internal/github"
	"github.com/exmod-team/exiled-installer/internal/messages"
)

// FormatRelease renders a one-line summary, optionally followed by its assets.
func FormatRelease(r github.Release, includeAssets bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, messages.ReleaseLineFmt, r.Prerelease, r.ID, r.TagName)
	if includeAssets {
		for _, a := range r.Assets {
			b.WriteString("\n   - ")
			b.WriteString(FormatAsset(a))
		}
	}
	return b.String()
}

// FormatAsset renders one asset line.
func FormatAsset(a github.Asset) string {
	return fmt.Sprintf(messages.ReleaseAssetLineFmt, a.ID, a.Name, a.Size, a.URL, a.BrowserDownloadURL)
}

// FormatAssets renders every asset of r on its own line.
func FormatAssets(r github.Release) string {
	lines := make([]string, 0, len(r.Assets))
	for _, a := range r.Assets {
		lines = append(lines, FormatAsset(a))
	}
	return strings.Join(lines, "\n")
}

// Channel returns the display channel of a release.
func Channel(r github.Release) string {
	if r.Prerelease {
		return messages.ReleaseChannelBeta
	}
	return messages.ReleaseChannelStable
}
