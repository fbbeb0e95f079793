package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"pantry-planner/internal/gateway"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/settings"
	"pantry-planner/internal/shopping"
	"pantry-planner/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls map[string]int

	analyze        func(recipe.Draft) (gateway.Analysis, error)
	duplicate      func(recipe.Draft, []recipe.Recipe) (gateway.DuplicateVerdict, error)
	edit           func(recipe.Recipe, string) (gateway.Edit, error)
	scale          func(recipe.Recipe, int) (gateway.Edit, error)
	plan           func(gateway.PlanRequest) (map[string]map[planner.MealType]string, error)
	categorize     func([]string) ([]shopping.CategoryDraft, error)
	categorizeItem func(string, []string) (string, error)
}

func (f *fakeGateway) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeGateway) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeGateway) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeGateway) AnalyzeRecipe(ctx context.Context, d recipe.Draft) (gateway.Analysis, error) {
	f.count("analyze")
	if f.analyze != nil {
		return f.analyze(d)
	}
	return gateway.Analysis{
		Nutrition:   recipe.Nutrition{Calories: 400, Protein: 20, Carbs: 40, Fat: 10},
		HealthScore: 7,
		Tags:        []string{"analyzed"},
	}, nil
}

func (f *fakeGateway) CheckDuplicate(ctx context.Context, d recipe.Draft, existing []recipe.Recipe) (gateway.DuplicateVerdict, error) {
	f.count("duplicate")
	if f.duplicate != nil {
		return f.duplicate(d, existing)
	}
	return gateway.DuplicateVerdict{}, nil
}

func (f *fakeGateway) EditRecipe(ctx context.Context, r recipe.Recipe, instruction string) (gateway.Edit, error) {
	f.count("edit")
	if f.edit != nil {
		return f.edit(r, instruction)
	}
	return gateway.Edit{Name: r.Name + " (edited)"}, nil
}

func (f *fakeGateway) ScaleRecipe(ctx context.Context, r recipe.Recipe, servings int) (gateway.Edit, error) {
	f.count("scale")
	if f.scale != nil {
		return f.scale(r, servings)
	}
	return gateway.Edit{Servings: servings}, nil
}

func (f *fakeGateway) GenerateMealPlan(ctx context.Context, req gateway.PlanRequest) (map[string]map[planner.MealType]string, error) {
	f.count("plan")
	if f.plan != nil {
		return f.plan(req)
	}
	out := make(map[string]map[planner.MealType]string)
	for i, date := range req.Dates {
		out[date] = map[planner.MealType]string{planner.Dinner: req.Recipes[i%len(req.Recipes)].ID}
	}
	return out, nil
}

func (f *fakeGateway) CategorizeIngredients(ctx context.Context, ingredients []string) ([]shopping.CategoryDraft, error) {
	f.count("categorize")
	if f.categorize != nil {
		return f.categorize(ingredients)
	}
	if len(ingredients) == 0 {
		return nil, nil
	}
	return []shopping.CategoryDraft{{Name: "Groceries", Items: ingredients}}, nil
}

func (f *fakeGateway) CategorizeItem(ctx context.Context, item string, existing []string) (string, error) {
	f.count("categorizeItem")
	if f.categorizeItem != nil {
		return f.categorizeItem(item, existing)
	}
	return "Pantry", nil
}

type testEnv struct {
	app     *App
	gw      *fakeGateway
	backend *storage.MemoryBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := storage.NewMemoryBackend()
	gw := &fakeGateway{}
	a := newTestApp(backend, gw)
	a.Load(context.Background())
	return &testEnv{app: a, gw: gw, backend: backend}
}

func newTestApp(backend storage.Backend, gw Gateway) *App {
	a := New(storage.NewStore(backend, nil), gw, nil)
	a.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	n := 0
	var mu sync.Mutex
	a.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return a
}

// reload builds a second App over the same backend.
func (e *testEnv) reload(t *testing.T) *App {
	t.Helper()
	a := newTestApp(e.backend, e.gw)
	a.Load(context.Background())
	return a
}

func (e *testEnv) stored(t *testing.T, key storage.Key) string {
	t.Helper()
	raw, ok, err := e.backend.Get(context.Background(), key)
	require.NoError(t, err)
	if !ok {
		return ""
	}
	return string(raw)
}

func draft(name, ingredients string) recipe.Draft {
	return recipe.Draft{
		Name:        name,
		Category:    recipe.CategoryDinner,
		Ingredients: ingredients,
		Servings:    2,
	}
}

func (e *testEnv) addRecipes(t *testing.T, n int) []recipe.Recipe {
	t.Helper()
	var out []recipe.Recipe
	for i := 0; i < n; i++ {
		r, err := e.app.AddRecipe(context.Background(), draft(fmt.Sprintf("Dish %d", i), fmt.Sprintf("ingredient %d", i)), AddOptions{})
		require.NoError(t, err)
		out = append(out, r)
	}
	return out
}

func TestNothingPersistedBeforeLoad(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	a := newTestApp(backend, &fakeGateway{})

	s := settings.Default()
	s.HouseholdSize = 3
	require.NoError(t, a.UpdateSettings(ctx, s))

	_, ok, err := backend.Get(ctx, storage.KeySettings)
	require.NoError(t, err)
	assert.False(t, ok, "state must not be written before load")
	assert.False(t, a.Loaded())

	a.Load(ctx)
	assert.True(t, a.Loaded())
	assert.Equal(t, settings.Default(), a.Settings(), "load replaces the unsynced state")

	require.NoError(t, a.UpdateSettings(ctx, s))
	_, ok, err = backend.Get(ctx, storage.KeySettings)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoadToleratesMalformedValues(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Put(ctx, storage.KeyMealPlan, []byte(`{"broken":`)))
	require.NoError(t, backend.Put(ctx, storage.KeySettings, []byte(`{"householdSize": -4}`)))

	a := newTestApp(backend, &fakeGateway{})
	a.Load(ctx)

	snap := a.Snapshot()
	assert.NotNil(t, snap.MealPlan)
	assert.Empty(t, snap.MealPlan)
	assert.Equal(t, settings.Default(), snap.Settings)
}

func TestLoadMigratesOldRecipes(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Put(ctx, storage.KeyRecipes, []byte(`[{"id":"old","name":"Stew","category":"dinner","ingredients":"beef","healthScore":12}]`)))

	a := newTestApp(backend, &fakeGateway{})
	a.Load(ctx)

	r, err := a.Recipe("old")
	require.NoError(t, err)
	assert.Equal(t, recipe.CategoryDinner, r.Category)
	assert.Equal(t, 1, r.Servings)
	assert.Equal(t, 10.0, r.HealthScore)

	raw, _, err := backend.Get(ctx, storage.KeyRecipes)
	require.NoError(t, err)
	var stored []recipe.Recipe
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, recipe.CurrentSchemaVersion, stored[0].SchemaVersion)
	assert.Equal(t, recipe.Key("Stew", "beef"), stored[0].SourceKey)

	_, err = a.AddRecipe(ctx, draft("stew", "Beef"), AddOptions{})
	assert.ErrorIs(t, err, ErrDuplicateRecipe)
}

func TestSnapshotIsIsolated(t *testing.T) {
	e := newTestEnv(t)
	e.addRecipes(t, 1)

	snap := e.app.Snapshot()
	snap.Recipes[0].Name = "changed"
	snap.Settings.Blacklist = append(snap.Settings.Blacklist, "x")

	assert.NotEqual(t, "changed", e.app.Snapshot().Recipes[0].Name)
	assert.Empty(t, e.app.Settings().Blacklist)
}

func TestUpdateSettings(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	bad := settings.Default()
	bad.PlanDurationWeeks = 0
	err := e.app.UpdateSettings(ctx, bad)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, settings.Default(), e.app.Settings())

	good := settings.Default()
	good.Blacklist = []string{"peanuts"}
	require.NoError(t, e.app.UpdateSettings(ctx, good))
	assert.Equal(t, good, e.reload(t).Settings())
}
