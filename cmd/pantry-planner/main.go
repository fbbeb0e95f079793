// Command pantry-planner manages the recipe library, meal plan and shopping
// list from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pantry-planner/internal/bootstrap"
	"pantry-planner/internal/config"
	"pantry-planner/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type cli struct {
	ephemeral bool
	logLevel  string

	svc *bootstrap.Services
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   "pantry-planner",
		Short: "Plan meals from your own recipe library",
		Long: `pantry-planner keeps a recipe library, builds AI-generated meal plans
from it and turns the plan into a categorized shopping list.

Configuration is read from the environment (and an optional .env file).`,
		SilenceUsage:       true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
	}

	cmd.PersistentFlags().BoolVar(&c.ephemeral, "ephemeral", false, "Keep all state in memory for this run")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.AddCommand(
		c.recipesCmd(),
		c.planCmd(),
		c.shoppingCmd(),
		c.importCmd(),
		c.settingsCmd(),
		c.metricsCmd(),
	)
	return cmd
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	c.log = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	c.svc, err = bootstrap.New(cmd.Context(), cfg, c.log, bootstrap.Options{Ephemeral: c.ephemeral})
	return err
}

func (c *cli) teardown(*cobra.Command, []string) error {
	if c.log != nil {
		defer c.log.Sync()
	}
	if c.svc == nil {
		return nil
	}
	return c.svc.Close()
}
