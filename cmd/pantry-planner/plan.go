package main

import (
	"fmt"
	"time"

	"pantry-planner/internal/planner"

	"github.com/spf13/cobra"
)

func (c *cli) planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate and edit the meal plan",
	}
	cmd.AddCommand(
		c.planShowCmd(),
		c.planGenerateCmd(),
		c.planEatenCmd(),
		c.planSetCmd(),
		c.planRemoveCmd(),
		c.planSwapCmd(),
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the whole meal plan",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				c.svc.App.ClearPlan(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), "Meal plan cleared.")
			},
		},
	)
	return cmd
}

func (c *cli) printPlan(cmd *cobra.Command, plan planner.MealPlan) {
	out := cmd.OutOrStdout()
	dates := plan.Dates()
	if len(dates) == 0 {
		fmt.Fprintln(out, "No meal plan yet.")
		return
	}

	eaten := c.svc.App.Snapshot().EatenLog
	for _, date := range dates {
		fmt.Fprintln(out, date)
		day := plan[date]
		for _, meal := range planner.MealTypes {
			r := day.Slot(meal)
			if r == nil {
				continue
			}
			mark := " "
			if eaten.IsEaten(date, meal) {
				mark = "x"
			}
			fmt.Fprintf(out, "  [%s] %-9s %s (%s)\n", mark, meal, r.Name, r.ID)
		}
	}
}

func (c *cli) planShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the meal plan",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			c.printPlan(cmd, c.svc.App.Snapshot().MealPlan)
		},
	}
}

func (c *cli) planGenerateCmd() *cobra.Command {
	var start string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Replace the plan with an AI-generated one and rebuild the shopping list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from := time.Now()
			if start != "" {
				t, err := planner.ParseDate(start)
				if err != nil {
					return err
				}
				from = t
			}

			result, err := c.svc.App.GeneratePlan(cmd.Context(), from)
			if err != nil {
				return err
			}
			c.printPlan(cmd, result.Plan)
			if result.ShoppingListErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: shopping list was not rebuilt: %v\n", result.ShoppingListErr)
				return nil
			}
			checked, total := result.ShoppingList.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "\nShopping list rebuilt: %d items (%d checked).\n", total, checked)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First day of the plan (YYYY-MM-DD, default today)")
	return cmd
}

func (c *cli) planEatenCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "eaten <date> <meal>",
		Short: "Mark a planned meal as eaten",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			meal, err := planner.ParseMealType(args[1])
			if err != nil {
				return err
			}
			return c.svc.App.MarkEaten(cmd.Context(), args[0], meal, !undo)
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Mark as not eaten")
	return cmd
}

func (c *cli) planSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <date> <meal> <recipe-id>",
		Short: "Put a recipe into a slot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			meal, err := planner.ParseMealType(args[1])
			if err != nil {
				return err
			}
			return c.svc.App.SetSlot(cmd.Context(), args[0], meal, args[2])
		},
	}
}

func (c *cli) planRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <date> <meal>",
		Short: "Empty a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			meal, err := planner.ParseMealType(args[1])
			if err != nil {
				return err
			}
			return c.svc.App.RemoveSlot(cmd.Context(), args[0], meal)
		},
	}
}

func (c *cli) planSwapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "swap <date> <meal> <date> <meal>",
		Short: "Exchange the contents of two slots",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := planner.ParseMealType(args[1])
			if err != nil {
				return err
			}
			b, err := planner.ParseMealType(args[3])
			if err != nil {
				return err
			}
			return c.svc.App.SwapSlots(cmd.Context(),
				planner.SlotRef{Date: args[0], Meal: a},
				planner.SlotRef{Date: args[2], Meal: b},
			)
		},
	}
}
