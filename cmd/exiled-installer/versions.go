package main

import (
	"github.com/spf13/cobra"

	"github.com/exmod-team/exiled-installer/internal/messages"
)

func newVersionsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.VersionsUse,
		Short: messages.VersionsShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep := flags.reporter(cmd)
			opts, err := flags.installerOptions(cmd, rep)
			if err != nil {
				return err
			}
			candidates, err := listVersions(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				rep.Warnf(messages.VersionsNoneFmt, opts.Owner, opts.Repository)
			}
			return nil
		},
	}
}
