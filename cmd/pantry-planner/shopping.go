package main

import (
	"fmt"
	"strings"

	"pantry-planner/internal/shopping"

	"github.com/spf13/cobra"
)

func (c *cli) shoppingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopping",
		Short: "Show and edit the shopping list",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printShoppingList(cmd, c.svc.App.Snapshot().ShoppingList)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "regenerate",
			Short: "Rebuild the list from the meal plan",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				list, err := c.svc.App.RegenerateShoppingList(cmd.Context())
				if err != nil {
					return err
				}
				printShoppingList(cmd, list)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <item...>",
			Short: "Add an item; the AI picks its category",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				item, err := c.svc.App.AddItem(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s).\n", item.Name, item.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle <item-id>",
			Short: "Tick or untick an item",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.svc.App.ToggleItem(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "rename <item-id> <name...>",
			Short: "Rename an item",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.svc.App.RenameItem(cmd.Context(), args[0], strings.Join(args[1:], " "))
			},
		},
		&cobra.Command{
			Use:   "delete <item-id>",
			Short: "Remove an item",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.svc.App.DeleteItem(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the list",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				c.svc.App.ClearShoppingList(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), "Shopping list cleared.")
			},
		},
	)
	return cmd
}

func printShoppingList(cmd *cobra.Command, list shopping.List) {
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "Shopping list is empty.")
		return
	}
	checked, total := list.Counts()
	fmt.Fprintf(out, "Shopping list (%d/%d)\n", checked, total)
	for _, cat := range list {
		fmt.Fprintf(out, "\n%s\n", cat.Name)
		for _, it := range cat.Items {
			mark := " "
			if it.Checked {
				mark = "x"
			}
			fmt.Fprintf(out, "  [%s] %s (%s)\n", mark, it.Name, it.ID)
		}
	}
}
