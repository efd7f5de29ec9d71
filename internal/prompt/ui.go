// Package prompt holds the interactive pieces of the installer: the release
// picker, yes/no confirmations and the pause before exiting on failure.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/exmod-team/exiled-installer/internal/messages"
	"github.com/exmod-team/exiled-installer/internal/release"
	"github.com/exmod-team/exiled-installer/internal/terminal"
)

// ErrCanceled is returned when the user aborts a prompt with Esc or Ctrl+C.
var ErrCanceled = errors.New(messages.PromptCanceled)

const createdLayout = "2006-01-02"

// HuhUI implements the installer prompts using charmbracelet/huh.
type HuhUI struct {
	isTerminal func() bool
}

var runFormFunc = func(form *huh.Form) error { return form.Run() }

// NewHuhUI creates a HuhUI that requires terminal.IsInteractive.
func NewHuhUI() *HuhUI {
	return &HuhUI{isTerminal: terminal.IsInteractive}
}

// ensureInteractive returns an error when the UI is invoked without a terminal.
func (ui *HuhUI) ensureInteractive() error {
	checker := ui.isTerminal
	if checker == nil {
		checker = terminal.IsInteractive
	}
	if checker() {
		return nil
	}
	return fmt.Errorf(messages.PromptRequiresTerminal)
}

// keyMap makes both Esc and Ctrl+C abort and disables list filtering.
func keyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "cancel"))
	km.Select.Filter.SetEnabled(false)
	km.Select.SetFilter.SetEnabled(false)
	km.Select.ClearFilter.SetEnabled(false)
	return km
}

// interruptFilter turns InterruptMsg into QuitMsg so the renderer clears the form.
func interruptFilter(_ tea.Model, msg tea.Msg) tea.Msg {
	if _, ok := msg.(tea.InterruptMsg); ok {
		return tea.QuitMsg{}
	}
	return msg
}

func (ui *HuhUI) runForm(form *huh.Form) error {
	if err := ui.ensureInteractive(); err != nil {
		return err
	}
	form.WithKeyMap(keyMap())
	form.WithProgramOptions(
		tea.WithOutput(os.Stderr),
		tea.WithFilter(interruptFilter),
	)
	err := runFormFunc(form)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCanceled
	}
	return err
}

// SelectRelease lets the user pick one of candidates, newest first.
func (ui *HuhUI) SelectRelease(candidates []release.Candidate) (release.Candidate, error) {
	if len(candidates) == 0 {
		return release.Candidate{}, release.ErrNoRelease
	}
	opts := make([]huh.Option[int], len(candidates))
	for i, c := range candidates {
		opts[i] = huh.NewOption(ReleaseLabel(c), i)
	}
	chosen := 0
	err := ui.runForm(huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(messages.PromptSelectReleaseTitle).
				Options(opts...).
				Value(&chosen),
		),
	))
	if err != nil {
		return release.Candidate{}, err
	}
	if chosen < 0 || chosen >= len(candidates) {
		return release.Candidate{}, fmt.Errorf(messages.PromptSelectionOutOfRangeFmt, chosen)
	}
	return candidates[chosen], nil
}

// Confirm renders a yes/no prompt.
func (ui *HuhUI) Confirm(title string, value *bool) error {
	return ui.runForm(huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(value),
		),
	))
}

// ReleaseLabel renders one picker line: tag, channel and creation date.
func ReleaseLabel(c release.Candidate) string {
	created := messages.PromptUnknownDate
	if !c.CreatedAt.IsZero() {
		created = c.CreatedAt.UTC().Format(createdLayout)
	}
	return fmt.Sprintf(messages.PromptReleaseOptionFmt, c.TagName, release.Channel(c.Release), created)
}

// Pause prints the press-Enter hint and blocks until a line (or EOF) arrives on in.
func Pause(in io.Reader, out io.Writer) {
	_, _ = fmt.Fprintln(out, messages.InstallPressEnter)
	_, _ = bufio.NewReader(in).ReadString('\n')
}
