package main

import (
	"fmt"

	"pantry-planner/internal/app"

	"github.com/spf13/cobra"
)

func (c *cli) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import recipes with AI extraction",
	}

	var tag string
	ghostCmd := &cobra.Command{
		Use:   "ghost",
		Short: "Import the recipes published on the configured Ghost blog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.svc.Importer.ImportGhost(cmd.Context(), tag)
			printReport(cmd, report)
			return err
		},
	}
	ghostCmd.Flags().StringVar(&tag, "tag", "", "Only import posts with this tag slug")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "files <pattern>",
			Short: `Import text, Markdown, HTML and PDF files, e.g. "recipes/**/*.{md,pdf}"`,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				report, err := c.svc.Importer.ImportFiles(cmd.Context(), args[0])
				printReport(cmd, report)
				return err
			},
		},
		&cobra.Command{
			Use:   "url <url>",
			Short: "Import the recipes on a web page",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				report, err := c.svc.Importer.ImportURL(cmd.Context(), args[0])
				printReport(cmd, report)
				return err
			},
		},
		ghostCmd,
		&cobra.Command{
			Use:   "watch <dir>",
			Short: "Import files dropped into a directory until interrupted",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.svc.Importer.Watch(cmd.Context(), args[0])
			},
		},
	)
	return cmd
}

func printReport(cmd *cobra.Command, report app.ImportReport) {
	out := cmd.OutOrStdout()
	for _, r := range report.Imported {
		fmt.Fprintf(out, "imported   %s (%s)\n", r.Name, r.ID)
	}
	for _, d := range report.Duplicates {
		fmt.Fprintf(out, "duplicate  %s (matches %s)\n", d.Name, d.ExistingName)
	}
	for _, f := range report.Failures {
		name := f.Name
		if name == "" {
			name = f.Source
		}
		fmt.Fprintf(out, "failed     %s: %v\n", name, f.Err)
	}
	fmt.Fprintf(out, "%d imported, %d duplicates, %d failed\n",
		len(report.Imported), len(report.Duplicates), len(report.Failures))
	if len(report.Duplicates) > 0 {
		fmt.Fprintln(out, "(use `recipes add --allow-duplicate` to keep a duplicate anyway)")
	}
}
