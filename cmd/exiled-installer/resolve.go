package main

import (
	"github.com/spf13/cobra"

	"github.com/exmod-team/exiled-installer/internal/config"
	"github.com/exmod-team/exiled-installer/internal/extract"
	"github.com/exmod-team/exiled-installer/internal/markup"
	"github.com/exmod-team/exiled-installer/internal/messages"
)

func newResolveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ResolveUse,
		Short: messages.ResolveShort,
		Long:  messages.ResolveLong,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := flags.reporter(cmd)
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			paths, err := config.ResolvePaths(cfg.Install)
			if err != nil {
				return err
			}
			table, err := loadTable(cfg.Install.MarkupFile)
			if err != nil {
				return err
			}
			if table == nil {
				table = markup.Default()
			}
			roots := extract.Roots{AppData: paths.AppData, Exiled: paths.Exiled}
			for _, arg := range args {
				name := extract.EntryName(arg, cfg.Install.TargetPort)
				dest, res, err := extract.Destination(name, roots, table)
				switch {
				case err != nil:
					rep.Failf(messages.ResolveErrorFmt, name, err)
				case res == markup.Undefined:
					rep.Infof(messages.ResolveLineFmt, res, name, messages.ResolveNoDestination)
				default:
					rep.Infof(messages.ResolveLineFmt, res, name, dest)
				}
			}
			return nil
		},
	}
}
