package installer

import (
	"errors"

	"github.com/exmod-team/exiled-installer/internal/release"
)

// Process exit codes.
const (
	ExitOK = 0
	// ExitFailure covers every error without a more specific code.
	ExitFailure = 1
	// ExitNoRelease means no release matched (including a missing target version).
	ExitNoRelease = 2
	// ExitAssetMissing means the selected release lacks the archive asset.
	ExitAssetMissing = 3
)

// ExitError carries a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch {
	case errors.Is(err, release.ErrNoRelease), errors.Is(err, release.ErrTargetNotFound):
		return ExitNoRelease
	case errors.Is(err, release.ErrAssetNotFound):
		return ExitAssetMissing
	}
	return ExitFailure
}
