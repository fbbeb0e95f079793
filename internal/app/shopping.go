package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pantry-planner/internal/shopping"
	"pantry-planner/internal/storage"

	"go.uber.org/zap"
)

// GenerateShoppingList replaces the shopping list with the AI categorization
// of ingredients. On failure the current list is left untouched.
func (a *App) GenerateShoppingList(ctx context.Context, ingredients []string) (shopping.List, error) {
	drafts, err := a.gw.CategorizeIngredients(ctx, ingredients)
	if err != nil {
		return nil, fmt.Errorf("failed to generate shopping list: %w", err)
	}
	list := shopping.FromDrafts(drafts)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.ShoppingList = list
	a.persist(ctx, storage.KeyShoppingList)
	return list.Clone(), nil
}

// RegenerateShoppingList rebuilds the list from the current meal plan.
func (a *App) RegenerateShoppingList(ctx context.Context) (shopping.List, error) {
	return a.GenerateShoppingList(ctx, a.Snapshot().MealPlan.Ingredients())
}

// ToggleItem flips the checked flag of an item.
func (a *App) ToggleItem(ctx context.Context, itemID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.state.ShoppingList.Toggle(itemID); err != nil {
		return err
	}
	a.persist(ctx, storage.KeyShoppingList)
	return nil
}

// RenameItem changes the name of an item.
func (a *App) RenameItem(ctx context.Context, itemID, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.state.ShoppingList.Rename(itemID, name); err != nil {
		if errors.Is(err, shopping.ErrEmptyName) {
			return validationError(err)
		}
		return err
	}
	a.persist(ctx, storage.KeyShoppingList)
	return nil
}

// DeleteItem removes an item, and its category when it was the last one.
func (a *App) DeleteItem(ctx context.Context, itemID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.state.ShoppingList.Delete(itemID); err != nil {
		return err
	}
	a.persist(ctx, storage.KeyShoppingList)
	return nil
}

// AddItem adds a manual item. Its category is chosen by the AI and falls back
// to shopping.OtherCategory when that call fails.
func (a *App) AddItem(ctx context.Context, name string) (shopping.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return shopping.Item{}, validationError(shopping.ErrEmptyName)
	}

	existing := a.Snapshot().ShoppingList.CategoryNames()
	category, err := a.gw.CategorizeItem(ctx, name, existing)
	if err != nil {
		a.logger.Warn("item categorization failed, using fallback category", zap.String("item", name), zap.Error(err))
		category = shopping.OtherCategory
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	item := a.state.ShoppingList.Add(category, name)
	a.persist(ctx, storage.KeyShoppingList)
	return item, nil
}

// ClearShoppingList removes every item.
func (a *App) ClearShoppingList(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.ShoppingList = nil
	a.persist(ctx, storage.KeyShoppingList)
}
