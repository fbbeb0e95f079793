package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/storage"

	"go.uber.org/zap"
)

// AddOptions tunes AddRecipe.
type AddOptions struct {
	// AllowDuplicate skips both duplicate checks.
	AllowDuplicate bool
	// KeepServings skips adjusting the servings to the household size.
	KeepServings bool
}

// AddRecipe validates d, rejects duplicates, analyses nutrition and adds the
// recipe to the library.
//
// Exact duplicates are rejected before any AI call. The AI duplicate check runs
// only when enabled in settings and counts as "not a duplicate" when it fails.
// A failed analysis yields default nutrition and a failed serving adjustment
// keeps the original servings.
func (a *App) AddRecipe(ctx context.Context, d recipe.Draft, opts AddOptions) (recipe.Recipe, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return recipe.Recipe{}, validationError(err)
	}

	snap := a.Snapshot()

	if !opts.AllowDuplicate {
		if dup := exactDuplicate(snap.Recipes, d); dup != nil {
			return recipe.Recipe{}, dup
		}
		if snap.Settings.AIDuplicateCheck {
			if dup := a.aiDuplicate(ctx, snap.Recipes, d); dup != nil {
				return recipe.Recipe{}, dup
			}
		}
	}

	r := d.Build(a.newID(), a.now())
	if d.Nutrition == nil {
		analysis, err := a.gw.AnalyzeRecipe(ctx, d)
		if err != nil {
			a.logger.Warn("nutrition analysis failed, using defaults", zap.String("recipe", d.Name), zap.Error(err))
			r.Nutrition = recipe.DefaultNutrition
			r.HealthScore = recipe.DefaultHealthScore
		} else {
			r.Nutrition = analysis.Nutrition
			r.HealthScore = analysis.HealthScore
			r.Tags = recipe.LimitTags(recipe.MergeTags(r.Tags, analysis.Tags...))
		}
	}

	household := snap.Settings.HouseholdSize
	if !opts.KeepServings && household > 0 && r.Servings != household {
		edit, err := a.gw.ScaleRecipe(ctx, r, household)
		if err != nil {
			a.logger.Warn("serving adjustment failed, keeping original servings",
				zap.String("recipe", r.Name), zap.Int("servings", r.Servings), zap.Error(err))
		} else {
			r = edit.Apply(r)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// The library may have changed while the AI calls ran.
	if !opts.AllowDuplicate {
		if dup := exactDuplicate(a.state.Recipes, d); dup != nil {
			return recipe.Recipe{}, dup
		}
	}

	a.state.Recipes = append(a.state.Recipes, r)
	a.state.Tags = recipe.MergeTags(a.state.Tags, r.Tags...)
	a.persist(ctx, storage.KeyRecipes, storage.KeyRecipeCategories)

	a.logger.Info("recipe added", zap.String("id", r.ID), zap.String("name", r.Name))
	return r, nil
}

func exactDuplicate(recipes []recipe.Recipe, d recipe.Draft) *DuplicateError {
	key := d.Key()
	for _, r := range recipes {
		if r.Matches(key) {
			return &DuplicateError{
				Name:         d.Name,
				ExistingID:   r.ID,
				ExistingName: r.Name,
				Reason:       "same name and ingredients",
			}
		}
	}
	return nil
}

func (a *App) aiDuplicate(ctx context.Context, recipes []recipe.Recipe, d recipe.Draft) *DuplicateError {
	verdict, err := a.gw.CheckDuplicate(ctx, d, recipes)
	if err != nil {
		a.logger.Warn("duplicate check failed, assuming not a duplicate", zap.String("recipe", d.Name), zap.Error(err))
		return nil
	}
	if !verdict.IsDuplicate {
		return nil
	}

	dup := &DuplicateError{Name: d.Name, ExistingID: verdict.DuplicateOf, Reason: verdict.Reason}
	if i := recipe.Find(recipes, verdict.DuplicateOf); i >= 0 {
		dup.ExistingName = recipes[i].Name
	}
	return dup
}

// UpdateRecipe replaces the stored recipe with the same id and cascades the
// new version into every meal-plan slot holding it.
func (a *App) UpdateRecipe(ctx context.Context, r recipe.Recipe) (recipe.Recipe, error) {
	d := recipe.DraftOf(r).Normalize()
	if err := d.Validate(); err != nil {
		return recipe.Recipe{}, validationError(err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	i := recipe.Find(a.state.Recipes, r.ID)
	if i < 0 {
		return recipe.Recipe{}, fmt.Errorf("%w: %s", ErrRecipeNotFound, r.ID)
	}

	old := a.state.Recipes[i]
	updated := d.Build(old.ID, old.CreatedAt)
	updated.BaseRecipeID = old.BaseRecipeID
	if d.Key() == recipe.Key(old.Name, old.Ingredients) {
		updated.SourceKey = old.SourceKey
	}

	a.state.Recipes[i] = updated
	a.state.Tags = recipe.MergeTags(a.state.Tags, updated.Tags...)
	slots := a.state.MealPlan.ReplaceRecipe(updated)
	a.persist(ctx, storage.KeyRecipes, storage.KeyRecipeCategories, storage.KeyMealPlan)

	a.logger.Info("recipe updated", zap.String("id", updated.ID), zap.Int("plan_slots", slots))
	return updated, nil
}

// DeleteRecipe removes a recipe and all its variations. Planned copies stay in
// the meal plan until it is regenerated or cleared.
func (a *App) DeleteRecipe(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if recipe.Find(a.state.Recipes, id) < 0 {
		return fmt.Errorf("%w: %s", ErrRecipeNotFound, id)
	}

	before := len(a.state.Recipes)
	a.state.Recipes = slices.DeleteFunc(a.state.Recipes, func(r recipe.Recipe) bool {
		return r.ID == id || r.BaseRecipeID == id
	})
	a.persist(ctx, storage.KeyRecipes)

	a.logger.Info("recipe deleted", zap.String("id", id), zap.Int("removed", before-len(a.state.Recipes)))
	return nil
}

// DeleteAllRecipes clears the library together with the state derived from
// it: the meal plan and the shopping list. The eaten log is kept.
func (a *App) DeleteAllRecipes(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.Recipes = nil
	a.state.MealPlan = planner.MealPlan{}
	a.state.ShoppingList = nil
	a.persist(ctx, storage.KeyRecipes, storage.KeyMealPlan, storage.KeyShoppingList)
	a.logger.Info("all recipes deleted")
}

// CreateVariation asks the AI to rewrite a recipe following instruction and
// stores the result as a variation of the original base recipe.
func (a *App) CreateVariation(ctx context.Context, baseID, instruction string) (recipe.Recipe, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return recipe.Recipe{}, validationError(errors.New("instruction is required"))
	}

	base, err := a.Recipe(baseID)
	if err != nil {
		return recipe.Recipe{}, err
	}
	rootID := base.ID
	if base.IsVariation() {
		rootID = base.BaseRecipeID
	}

	edit, err := a.gw.EditRecipe(ctx, base, instruction)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to create variation: %w", err)
	}

	v := edit.Apply(base)
	v.ID = a.newID()
	v.BaseRecipeID = rootID
	v.CreatedAt = a.now()
	v.Tags = slices.Clone(base.Tags)
	v.SchemaVersion = recipe.CurrentSchemaVersion
	v.SourceKey = recipe.Key(v.Name, v.Ingredients)

	a.mu.Lock()
	defer a.mu.Unlock()

	if recipe.Find(a.state.Recipes, rootID) < 0 {
		return recipe.Recipe{}, fmt.Errorf("%w: %s", ErrRecipeNotFound, rootID)
	}
	a.state.Recipes = append(a.state.Recipes, v)
	a.persist(ctx, storage.KeyRecipes)

	a.logger.Info("variation created", zap.String("id", v.ID), zap.String("base", rootID))
	return v, nil
}

// BaseRecipes lists the recipes that are not variations.
func (a *App) BaseRecipes() []recipe.Recipe {
	return recipe.BaseOnly(a.Snapshot().Recipes)
}

// Variations lists the variations of a base recipe.
func (a *App) Variations(baseID string) []recipe.Recipe {
	return recipe.VariationsOf(a.Snapshot().Recipes, baseID)
}

// Recipe returns the recipe with the given id.
func (a *App) Recipe(id string) (recipe.Recipe, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := recipe.Find(a.state.Recipes, id)
	if i < 0 {
		return recipe.Recipe{}, fmt.Errorf("%w: %s", ErrRecipeNotFound, id)
	}
	r := a.state.Recipes[i]
	r.Tags = slices.Clone(r.Tags)
	return r, nil
}
