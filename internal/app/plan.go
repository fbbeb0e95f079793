package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"pantry-planner/internal/gateway"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/shopping"
	"pantry-planner/internal/storage"

	"go.uber.org/zap"
)

// MinRecipesForPlan is the smallest library a plan can be generated from.
const MinRecipesForPlan = 5

// PlanResult is the outcome of a successful generation. The plan is kept even
// when the follow-up shopping list could not be built.
type PlanResult struct {
	Plan            planner.MealPlan
	ShoppingList    shopping.List
	ShoppingListErr error
}

// GeneratePlan replaces the meal plan with an AI-generated one starting at
// start and covering the configured number of weeks, then rebuilds the
// shopping list from the planned recipes. Only one generation runs at a time.
func (a *App) GeneratePlan(ctx context.Context, start time.Time) (PlanResult, error) {
	if !a.generating.CompareAndSwap(false, true) {
		return PlanResult{}, ErrGenerationInProgress
	}
	defer a.generating.Store(false)

	snap := a.Snapshot()
	if len(snap.Recipes) < MinRecipesForPlan {
		return PlanResult{}, fmt.Errorf("%w: have %d, need at least %d", ErrNotEnoughRecipes, len(snap.Recipes), MinRecipesForPlan)
	}

	dates := planner.DateRange(start, snap.Settings.PlanDays())
	assignments, err := a.gw.GenerateMealPlan(ctx, gateway.PlanRequest{
		Settings: snap.Settings,
		Recipes:  snap.Recipes,
		Dates:    dates,
	})
	if err != nil {
		return PlanResult{}, fmt.Errorf("failed to generate meal plan: %w", err)
	}

	plan, unknown := planner.Build(dates, assignments, snap.Recipes)
	if len(unknown) > 0 {
		a.logger.Warn("meal plan referenced unknown recipes", zap.Strings("ids", unknown))
	}

	a.mu.Lock()
	a.state.MealPlan = plan
	a.persist(ctx, storage.KeyMealPlan)
	a.mu.Unlock()
	a.logger.Info("meal plan generated", zap.String("start", dates[0]), zap.Int("days", len(dates)))

	result := PlanResult{Plan: plan.Clone()}
	list, err := a.GenerateShoppingList(ctx, plan.Ingredients())
	if err != nil {
		a.logger.Warn("shopping list generation failed after meal plan", zap.Error(err))
		result.ShoppingListErr = err
	} else {
		result.ShoppingList = list
	}
	return result, nil
}

func validSlot(ref planner.SlotRef) error {
	if _, err := planner.ParseDate(ref.Date); err != nil {
		return err
	}
	if !slices.Contains(planner.MealTypes, ref.Meal) {
		return fmt.Errorf("%w: %q", ErrInvalidMealType, ref.Meal)
	}
	return nil
}

// MarkEaten records whether a planned meal was eaten. Setting the same value
// twice is a no-op.
func (a *App) MarkEaten(ctx context.Context, date string, meal planner.MealType, eaten bool) error {
	if err := validSlot(planner.SlotRef{Date: date, Meal: meal}); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.EatenLog.Set(date, meal, eaten) {
		a.persist(ctx, storage.KeyEatenLog)
	}
	return nil
}

// SetSlot plans a copy of a library recipe into a slot.
func (a *App) SetSlot(ctx context.Context, date string, meal planner.MealType, recipeID string) error {
	ref := planner.SlotRef{Date: date, Meal: meal}
	if err := validSlot(ref); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	i := recipe.Find(a.state.Recipes, recipeID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRecipeNotFound, recipeID)
	}
	a.state.MealPlan.Assign(ref, a.state.Recipes[i])
	a.persist(ctx, storage.KeyMealPlan)
	return nil
}

// RemoveSlot empties a slot.
func (a *App) RemoveSlot(ctx context.Context, date string, meal planner.MealType) error {
	ref := planner.SlotRef{Date: date, Meal: meal}
	if err := validSlot(ref); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.MealPlan.Clear(ref) {
		a.persist(ctx, storage.KeyMealPlan)
	}
	return nil
}

// SwapSlots exchanges the recipes of two slots.
func (a *App) SwapSlots(ctx context.Context, x, y planner.SlotRef) error {
	if err := validSlot(x); err != nil {
		return err
	}
	if err := validSlot(y); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.MealPlan.Swap(x, y)
	a.persist(ctx, storage.KeyMealPlan)
	return nil
}

// ClearPlan removes every planned meal.
func (a *App) ClearPlan(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.MealPlan = planner.MealPlan{}
	a.persist(ctx, storage.KeyMealPlan)
}
