package main

import (
	"fmt"
	"text/tabwriter"

	"pantry-planner/internal/metrics"

	"github.com/spf13/cobra"
)

func (c *cli) metricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "AI usage and system health",
	}

	var days int
	usageCmd := &cobra.Command{
		Use:   "usage",
		Short: "Show daily AI token usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.metricsStore()
			if err != nil {
				return err
			}
			usage, err := store.GetDailyUsage(cmd.Context(), days)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tCALLS\tFAILED\tPROMPT\tCOMPLETION")
			for _, u := range usage {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", u.Date, u.TotalExecution, u.Failures, u.TotalPrompt, u.TotalCompletion)
			}
			w.Flush()

			h := metrics.GetSysHealth(c.svc.Config.DatabasePath)
			fmt.Fprintf(cmd.OutOrStdout(), "\nDatabase: %s, RAM: %dMB\n", h.DatabaseSize, h.AllocMB)
			return nil
		},
	}
	usageCmd.Flags().IntVar(&days, "days", 7, "Number of days to report")

	var keep int
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old metric records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.metricsStore()
			if err != nil {
				return err
			}
			affected, err := store.Cleanup(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
			return nil
		},
	}
	cleanupCmd.Flags().IntVar(&keep, "days", 30, "Keep records for the last N days")

	cmd.AddCommand(usageCmd, cleanupCmd)
	return cmd
}

func (c *cli) metricsStore() (*metrics.Store, error) {
	if c.svc.Metrics == nil {
		return nil, fmt.Errorf("metrics are not recorded in ephemeral mode")
	}
	return c.svc.Metrics, nil
}
