package installer

import "github.com/exmod-team/exiled-installer/internal/release"

// Selector picks the release to install from the allowed candidates.
type Selector interface {
	SelectRelease(candidates []release.Candidate) (release.Candidate, error)
}

// SelectFunc adapts a function into a Selector.
type SelectFunc func(candidates []release.Candidate) (release.Candidate, error)

// SelectRelease calls f.
func (f SelectFunc) SelectRelease(candidates []release.Candidate) (release.Candidate, error) {
	return f(candidates)
}
