// Package app is the application core: it owns the in-memory state, runs
// the store operations and syncs every change to storage.
package app

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"pantry-planner/internal/gateway"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/settings"
	"pantry-planner/internal/shopping"
	"pantry-planner/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway is the subset of the AI gateway the stores depend on.
type Gateway interface {
	AnalyzeRecipe(ctx context.Context, d recipe.Draft) (gateway.Analysis, error)
	CheckDuplicate(ctx context.Context, candidate recipe.Draft, existing []recipe.Recipe) (gateway.DuplicateVerdict, error)
	EditRecipe(ctx context.Context, r recipe.Recipe, instruction string) (gateway.Edit, error)
	ScaleRecipe(ctx context.Context, r recipe.Recipe, servings int) (gateway.Edit, error)
	GenerateMealPlan(ctx context.Context, req gateway.PlanRequest) (map[string]map[planner.MealType]string, error)
	CategorizeIngredients(ctx context.Context, ingredients []string) ([]shopping.CategoryDraft, error)
	CategorizeItem(ctx context.Context, item string, existing []string) (string, error)
}

// State is everything the application persists.
type State struct {
	Settings     settings.Settings
	Tags         []string
	Recipes      []recipe.Recipe
	MealPlan     planner.MealPlan
	EatenLog     planner.EatenLog
	ShoppingList shopping.List
}

func (s State) clone() State {
	recipes := make([]recipe.Recipe, len(s.Recipes))
	for i, r := range s.Recipes {
		r.Tags = slices.Clone(r.Tags)
		recipes[i] = r
	}
	st := s.Settings
	st.Blacklist = slices.Clone(st.Blacklist)
	st.GenerationTags = slices.Clone(st.GenerationTags)

	return State{
		Settings:     st,
		Tags:         slices.Clone(s.Tags),
		Recipes:      recipes,
		MealPlan:     s.MealPlan.Clone(),
		EatenLog:     s.EatenLog.Clone(),
		ShoppingList: s.ShoppingList.Clone(),
	}
}

// App holds the application state and its dependencies. AI calls run outside
// the lock on snapshots; their results are applied under it.
type App struct {
	mu     sync.Mutex
	state  State
	loaded bool

	generating atomic.Bool

	store  *storage.Store
	gw     Gateway
	logger *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates an App with default state. Nothing is persisted until Load has run.
func New(store *storage.Store, gw Gateway, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		state: State{
			Settings: settings.Default(),
			MealPlan: planner.MealPlan{},
			EatenLog: planner.EatenLog{},
		},
		store:  store,
		gw:     gw,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Load reads the persisted state, migrates old records and opens the
// persistence gate. Unreadable values fall back to defaults.
func (a *App) Load(ctx context.Context) {
	st := State{
		Settings:     storage.Load(ctx, a.store, storage.KeySettings, settings.Default()),
		Tags:         storage.Load[[]string](ctx, a.store, storage.KeyRecipeCategories, nil),
		Recipes:      storage.Load[[]recipe.Recipe](ctx, a.store, storage.KeyRecipes, nil),
		MealPlan:     storage.Load(ctx, a.store, storage.KeyMealPlan, planner.MealPlan{}),
		EatenLog:     storage.Load(ctx, a.store, storage.KeyEatenLog, planner.EatenLog{}),
		ShoppingList: storage.Load[shopping.List](ctx, a.store, storage.KeyShoppingList, nil),
	}

	if err := st.Settings.Validate(); err != nil {
		a.logger.Warn("stored settings are invalid, using defaults", zap.Error(err))
		st.Settings = settings.Default()
	}
	if st.MealPlan == nil {
		st.MealPlan = planner.MealPlan{}
	}
	if st.EatenLog == nil {
		st.EatenLog = planner.EatenLog{}
	}

	migrated := 0
	for i, r := range st.Recipes {
		if m, changed := recipe.Migrate(r); changed {
			st.Recipes[i] = m
			st.MealPlan.ReplaceRecipe(m)
			migrated++
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = st
	a.loaded = true

	a.logger.Info("state loaded",
		zap.Int("recipes", len(st.Recipes)),
		zap.Int("planned_days", len(st.MealPlan)),
		zap.Int("migrated", migrated),
	)
	if migrated > 0 {
		a.persist(ctx, storage.KeyRecipes, storage.KeyMealPlan)
	}
}

// Loaded reports whether Load has completed.
func (a *App) Loaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loaded
}

// Snapshot returns a deep copy of the current state for rendering.
func (a *App) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.clone()
}

// Generating reports whether a meal-plan generation is running.
func (a *App) Generating() bool {
	return a.generating.Load()
}

// persist writes the given parts of the state. Must be called with a.mu held.
// Write failures are logged; the in-memory state stays authoritative.
func (a *App) persist(ctx context.Context, keys ...storage.Key) {
	if !a.loaded {
		a.logger.Debug("state not loaded yet, skipping persistence")
		return
	}
	ctx = context.WithoutCancel(ctx)

	for _, key := range keys {
		var v any
		switch key {
		case storage.KeySettings:
			v = a.state.Settings
		case storage.KeyRecipeCategories:
			v = a.state.Tags
		case storage.KeyRecipes:
			v = a.state.Recipes
		case storage.KeyMealPlan:
			v = a.state.MealPlan
		case storage.KeyEatenLog:
			v = a.state.EatenLog
		case storage.KeyShoppingList:
			v = a.state.ShoppingList
		default:
			continue
		}
		if err := a.store.Save(ctx, key, v); err != nil {
			a.logger.Error("failed to persist state", zap.String("key", string(key)), zap.Error(err))
		}
	}
}
