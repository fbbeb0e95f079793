package main

import (
	"fmt"

	"pantry-planner/internal/settings"

	"github.com/spf13/cobra"
)

func (c *cli) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the preferences as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := c.svc.App.Settings().YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "apply <file>",
			Short: "Replace the preferences with a YAML file; missing keys keep their defaults",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := settings.LoadFile(args[0])
				if err != nil {
					return err
				}
				if err := c.svc.App.UpdateSettings(cmd.Context(), s); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Settings updated.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "export <file>",
			Short: "Write the preferences to a YAML file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.svc.App.Settings().SaveFile(args[0])
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the default preferences",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.svc.App.UpdateSettings(cmd.Context(), settings.Default())
			},
		},
	)
	return cmd
}
