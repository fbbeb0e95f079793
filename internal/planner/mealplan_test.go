package planner

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pantry-planner/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMealType(t *testing.T) {
	m, err := ParseMealType(" Dinner ")
	require.NoError(t, err)
	assert.Equal(t, Dinner, m)

	_, err = ParseMealType("brunch")
	assert.True(t, errors.Is(err, ErrInvalidMealType))
}

func TestDateRange(t *testing.T) {
	start := time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}, DateRange(start, 4))

	_, err := ParseDate("29/02/2024")
	assert.True(t, errors.Is(err, ErrInvalidDate))
}

func TestMealPlanStoredAsPairs(t *testing.T) {
	r := recipe.Recipe{ID: "r1", Name: "Oats"}
	var plan MealPlan
	plan.Assign(SlotRef{Date: "2024-01-02", Meal: Breakfast}, r)

	data, err := json.Marshal(plan)
	require.NoError(t, err)

	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Contains(t, string(raw[0]), `["2024-01-02",{"date":"2024-01-02","breakfast":{`)

	var decoded MealPlan
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, plan, decoded)

	empty, err := json.Marshal(MealPlan(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(empty))
}

func TestMealPlanDatesChronological(t *testing.T) {
	plan := MealPlan{
		"2024-01-10": {Date: "2024-01-10"},
		"2024-01-02": {Date: "2024-01-02"},
		"2023-12-31": {Date: "2023-12-31"},
	}
	assert.Equal(t, []string{"2023-12-31", "2024-01-02", "2024-01-10"}, plan.Dates())
}

func TestMealPlanSlotOperations(t *testing.T) {
	a := recipe.Recipe{ID: "a", Name: "Chili"}
	b := recipe.Recipe{ID: "b", Name: "Salad"}

	var plan MealPlan
	plan.Assign(SlotRef{"2024-01-01", Dinner}, a)
	plan.Assign(SlotRef{"2024-01-02", Lunch}, b)

	t.Run("SwapAcrossDays", func(t *testing.T) {
		plan.Swap(SlotRef{"2024-01-01", Dinner}, SlotRef{"2024-01-02", Lunch})
		assert.Equal(t, "b", plan["2024-01-01"].Dinner.ID)
		assert.Equal(t, "a", plan["2024-01-02"].Lunch.ID)
	})

	t.Run("SwapWithEmptySlot", func(t *testing.T) {
		plan.Swap(SlotRef{"2024-01-01", Dinner}, SlotRef{"2024-01-01", Snack})
		assert.Nil(t, plan["2024-01-01"].Dinner)
		assert.Equal(t, "b", plan["2024-01-01"].Snack.ID)
	})

	t.Run("Clear", func(t *testing.T) {
		assert.True(t, plan.Clear(SlotRef{"2024-01-01", Snack}))
		assert.False(t, plan.Clear(SlotRef{"2024-01-01", Snack}))
		_, kept := plan["2024-01-01"]
		assert.True(t, kept)
	})

	t.Run("ReplaceRecipe", func(t *testing.T) {
		plan.Assign(SlotRef{"2024-01-03", Dinner}, a)
		updated := a
		updated.Name = "Smoky Chili"

		assert.Equal(t, 2, plan.ReplaceRecipe(updated))
		assert.Equal(t, "Smoky Chili", plan["2024-01-02"].Lunch.Name)
		assert.Equal(t, "Smoky Chili", plan["2024-01-03"].Dinner.Name)
	})
}

func TestMealPlanCloneIsDeep(t *testing.T) {
	var plan MealPlan
	plan.Assign(SlotRef{"2024-01-01", Dinner}, recipe.Recipe{ID: "a", Name: "Chili"})

	c := plan.Clone()
	c["2024-01-01"].Dinner.Name = "Changed"
	assert.Equal(t, "Chili", plan["2024-01-01"].Dinner.Name)
}

func TestMealPlanIngredientsDeduplicatesRecipes(t *testing.T) {
	chili := recipe.Recipe{ID: "a", Ingredients: "beans\nchili"}
	var plan MealPlan
	plan.Assign(SlotRef{"2024-01-01", Dinner}, chili)
	plan.Assign(SlotRef{"2024-01-02", Dinner}, chili)
	plan.Assign(SlotRef{"2024-01-02", Snack}, recipe.Recipe{ID: "b", Ingredients: "apple"})

	assert.Equal(t, []string{"beans", "chili", "apple"}, plan.Ingredients())
}

func TestBuild(t *testing.T) {
	catalog := []recipe.Recipe{{ID: "a"}, {ID: "b"}}
	dates := []string{"2024-01-01", "2024-01-02"}
	assignments := map[string]map[MealType]string{
		"2024-01-01": {Dinner: "a", Lunch: "ghost"},
		"2024-01-02": {Breakfast: "b"},
		"2024-05-05": {Dinner: "a"},
	}

	plan, unknown := Build(dates, assignments, catalog)
	assert.Equal(t, []string{"ghost"}, unknown)
	require.Len(t, plan, 2)
	assert.Equal(t, "a", plan["2024-01-01"].Dinner.ID)
	assert.Nil(t, plan["2024-01-01"].Lunch)
	assert.Equal(t, "b", plan["2024-01-02"].Breakfast.ID)
}
