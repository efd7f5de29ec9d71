package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/exmod-team/exiled-installer/internal/config"
	"github.com/exmod-team/exiled-installer/internal/messages"
	"github.com/exmod-team/exiled-installer/internal/prompt"
)

var confirmOverwrite = func(title string) (bool, error) {
	var ok bool
	err := prompt.NewHuhUI().Confirm(title, &ok)
	return ok, err
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.ConfigUse,
		Short: messages.ConfigShort,
	}
	cmd.AddCommand(
		newConfigInitCmd(flags),
		newConfigSetCmd(flags),
		newConfigKeysCmd(),
		newConfigPathCmd(flags),
	)
	return cmd
}

// configFile returns --config or the default location.
func (f *rootFlags) configFile() (string, error) {
	if f.configPath != "" {
		return config.ExpandPath(f.configPath)
	}
	return config.DefaultConfigPath()
}

func newConfigInitCmd(flags *rootFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   messages.ConfigInitUse,
		Short: messages.ConfigInitShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep := flags.reporter(cmd)
			path, err := flags.configFile()
			if err != nil {
				return err
			}
			overwrite := force
			if _, statErr := os.Stat(path); statErr == nil && !force && isTerminal() {
				overwrite, err = confirmOverwrite(fmt.Sprintf(messages.ConfigOverwritePromptFmt, path))
				if err != nil {
					return err
				}
				if !overwrite {
					rep.Infof(messages.ConfigInitKeptFmt, path)
					return nil
				}
			}
			if err := config.WriteDefault(path, overwrite); err != nil {
				return err
			}
			rep.Successf(messages.ConfigInitWroteFmt, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, messages.ConfigFlagForce)
	return cmd
}

func newConfigSetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ConfigSetUse,
		Short: messages.ConfigSetShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := flags.reporter(cmd)
			path, err := flags.configFile()
			if err != nil {
				return err
			}
			if err := config.SetFile(path, args[0], args[1]); err != nil {
				return err
			}
			rep.Successf(messages.ConfigSetDoneFmt, args[0], args[1], path)
			return nil
		},
	}
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   messages.ConfigKeysUse,
		Short: messages.ConfigKeysShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, field := range config.Fields() {
				if _, err := fmt.Fprintf(out, messages.ConfigKeyLineFmt, field.Key, field.Type, field.Description); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newConfigPathCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ConfigPathUse,
		Short: messages.ConfigPathShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := flags.configFile()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}
