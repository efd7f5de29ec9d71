package messages

const (
	PromptCanceled               = "prompt canceled"
	PromptRequiresTerminal       = "interactive prompts require an interactive terminal; drop --select or run from a terminal"
	PromptSelectReleaseTitle     = "Select the release to install"
	PromptSelectionOutOfRangeFmt = "release selection %d is out of range"
	PromptUnknownDate            = "unknown date"
	PromptReleaseOptionFmt       = "%s (%s, %s)"
)
