package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"pantry-planner/internal/app"
	"pantry-planner/internal/recipe"

	"github.com/spf13/cobra"
)

func (c *cli) recipesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recipes",
		Aliases: []string{"recipe"},
		Short:   "Manage the recipe library",
	}
	cmd.AddCommand(
		c.recipesListCmd(),
		c.recipesShowCmd(),
		c.recipesAddCmd(),
		c.recipesDeleteCmd(),
		c.recipesVariationCmd(),
		c.recipesEditCmd(),
		c.recipesRateCmd(),
		c.recipesPublishCmd(),
	)
	return cmd
}

func (c *cli) recipesListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recipes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			recipes := c.svc.App.BaseRecipes()
			if all {
				recipes = c.svc.App.Snapshot().Recipes
			}
			printRecipes(cmd, recipes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include variations")
	return cmd
}

func printRecipes(cmd *cobra.Command, recipes []recipe.Recipe) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tKCAL\tHEALTH\tRATING\tTAGS")
	for _, r := range recipes {
		name := r.Name
		if r.IsVariation() {
			name = "↳ " + name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%.0f\t%d\t%s\n",
			r.ID, name, r.Category, r.Nutrition.Calories, r.HealthScore, r.Rating, strings.Join(r.Tags, ","))
	}
	w.Flush()
}

func (c *cli) recipesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recipe and its variations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.svc.App.Recipe(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s, serves %d)\n", r.Name, r.Category, r.Servings)
			n := r.Nutrition
			fmt.Fprintf(out, "%.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat per serving. Health %.0f/10.\n",
				n.Calories, n.Protein, n.Carbs, n.Fat, r.HealthScore)
			if len(r.Tags) > 0 {
				fmt.Fprintf(out, "Tags: %s\n", strings.Join(r.Tags, ", "))
			}
			fmt.Fprintf(out, "\nIngredients:\n")
			for _, line := range r.IngredientLines() {
				fmt.Fprintf(out, "  - %s\n", line)
			}
			if r.Instructions != "" {
				fmt.Fprintf(out, "\nInstructions:\n%s\n", r.Instructions)
			}
			if vars := c.svc.App.Variations(r.ID); len(vars) > 0 {
				fmt.Fprintf(out, "\nVariations:\n")
				printRecipes(cmd, vars)
			}
			return nil
		},
	}
}

func (c *cli) recipesAddCmd() *cobra.Command {
	var (
		d               recipe.Draft
		category        string
		ingredientsFile string
		opts            app.AddOptions
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recipe; nutrition and tags are filled in by the AI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d.Category = recipe.Category(category)
			if ingredientsFile != "" {
				data, err := os.ReadFile(ingredientsFile)
				if err != nil {
					return fmt.Errorf("failed to read ingredients: %w", err)
				}
				d.Ingredients = string(data)
			}

			r, err := c.svc.App.AddRecipe(cmd.Context(), d, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s): %.0f kcal per serving, serves %d.\n",
				r.Name, r.ID, r.Nutrition.Calories, r.Servings)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&d.Name, "name", "", "Recipe name")
	f.StringVar(&category, "category", string(recipe.CategoryDinner), "Breakfast, Dinner or Snack")
	f.StringVar(&d.Ingredients, "ingredients", "", "Ingredients, one per line")
	f.StringVar(&ingredientsFile, "ingredients-file", "", "Read ingredients from a file")
	f.StringVar(&d.Instructions, "instructions", "", "Preparation steps")
	f.IntVar(&d.Servings, "servings", 1, "Number of servings")
	f.IntVar(&d.Rating, "rating", 0, "Rating from 0 to 5")
	f.StringSliceVar(&d.Tags, "tags", nil, "Comma-separated tags")
	f.BoolVar(&d.AlsoBreakfast, "also-breakfast", false, "Can also be planned for breakfast")
	f.BoolVar(&opts.AllowDuplicate, "allow-duplicate", false, "Skip the duplicate checks")
	f.BoolVar(&opts.KeepServings, "keep-servings", false, "Do not scale to the household size")
	cmd.MarkFlagRequired("name")
	return cmd
}

func (c *cli) recipesDeleteCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a recipe and its variations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				c.svc.App.DeleteAllRecipes(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted all recipes.")
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("a recipe id or --all is required")
			}
			if err := c.svc.App.DeleteRecipe(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Delete the whole library")
	return cmd
}

func (c *cli) recipesVariationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variation <id> <instruction...>",
		Short: "Create an AI-edited variation, e.g. \"make it vegan\"",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.svc.App.CreateVariation(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s).\n", v.Name, v.ID)
			return nil
		},
	}
}

func (c *cli) recipesEditCmd() *cobra.Command {
	var (
		d               recipe.Draft
		category        string
		ingredientsFile string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a recipe; only the given flags are applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.svc.App.Recipe(args[0])
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if f.Changed("name") {
				r.Name = d.Name
			}
			if f.Changed("category") {
				r.Category = recipe.Category(category)
			}
			if f.Changed("ingredients") {
				r.Ingredients = d.Ingredients
			}
			if ingredientsFile != "" {
				data, err := os.ReadFile(ingredientsFile)
				if err != nil {
					return fmt.Errorf("failed to read ingredients: %w", err)
				}
				r.Ingredients = string(data)
			}
			if f.Changed("instructions") {
				r.Instructions = d.Instructions
			}
			if f.Changed("servings") {
				r.Servings = d.Servings
			}
			if f.Changed("tags") {
				r.Tags = d.Tags
			}
			if f.Changed("also-breakfast") {
				r.AlsoBreakfast = d.AlsoBreakfast
			}

			updated, err := c.svc.App.UpdateRecipe(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s).\n", updated.Name, updated.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&d.Name, "name", "", "Recipe name")
	f.StringVar(&category, "category", "", "Breakfast, Dinner or Snack")
	f.StringVar(&d.Ingredients, "ingredients", "", "Ingredients, one per line")
	f.StringVar(&ingredientsFile, "ingredients-file", "", "Read ingredients from a file")
	f.StringVar(&d.Instructions, "instructions", "", "Preparation steps")
	f.IntVar(&d.Servings, "servings", 0, "Number of servings")
	f.StringSliceVar(&d.Tags, "tags", nil, "Comma-separated tags, replacing the current ones")
	f.BoolVar(&d.AlsoBreakfast, "also-breakfast", false, "Can also be planned for breakfast")
	return cmd
}

func (c *cli) recipesRateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <id> <0-5>",
		Short: "Rate a recipe",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rating must be a number: %w", err)
			}
			r, err := c.svc.App.Recipe(args[0])
			if err != nil {
				return err
			}
			r.Rating = rating
			if _, err := c.svc.App.UpdateRecipe(cmd.Context(), r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rated %s %d/5.\n", r.Name, rating)
			return nil
		},
	}
}

func (c *cli) recipesPublishCmd() *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "publish <id>",
		Short: "Share a recipe to the configured Ghost blog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.svc.Ghost == nil {
				return fmt.Errorf("ghost blog is not configured")
			}
			r, err := c.svc.App.Recipe(args[0])
			if err != nil {
				return err
			}
			post, err := c.svc.Ghost.PublishRecipe(cmd.Context(), r, publish)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s post %s.\n", post.Status, post.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish immediately instead of saving a draft")
	return cmd
}
