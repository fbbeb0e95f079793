package gateway

import (
	"context"
	"strings"

	"pantry-planner/internal/llm"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/settings"
	"pantry-planner/internal/shopping"
)

// PlanRequest is the input of meal-plan generation.
type PlanRequest struct {
	Settings settings.Settings
	Recipes  []recipe.Recipe
	Dates    []string
}

type planDay struct {
	Date      string `json:"date"`
	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
	Snack     string `json:"snack"`
}

type planResponse struct {
	Days []planDay `json:"days"`
}

var planSchema = object(
	[]string{"days"},
	map[string]*llm.Schema{
		"days": arrayOf(object(
			[]string{"date"},
			map[string]*llm.Schema{
				"date":      stringSchema,
				"breakfast": stringSchema,
				"lunch":     stringSchema,
				"dinner":    stringSchema,
				"snack":     stringSchema,
			},
		)),
	},
)

// GenerateMealPlan asks the model to assign catalog recipe ids to the meal
// slots of each requested date.
func (g *Gateway) GenerateMealPlan(ctx context.Context, req PlanRequest) (map[string]map[planner.MealType]string, error) {
	resp, err := call[planResponse](ctx, g, "Planner", "generate_meal_plan.md", req, planSchema)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[planner.MealType]string, len(resp.Days))
	for _, d := range resp.Days {
		slots := map[planner.MealType]string{
			planner.Breakfast: strings.TrimSpace(d.Breakfast),
			planner.Lunch:     strings.TrimSpace(d.Lunch),
			planner.Dinner:    strings.TrimSpace(d.Dinner),
			planner.Snack:     strings.TrimSpace(d.Snack),
		}
		out[strings.TrimSpace(d.Date)] = slots
	}
	return out, nil
}

type categoriesResponse struct {
	Categories []shopping.CategoryDraft `json:"categories"`
}

var categoriesSchema = object(
	[]string{"categories"},
	map[string]*llm.Schema{
		"categories": arrayOf(object(
			[]string{"category", "items"},
			map[string]*llm.Schema{
				"category": stringSchema,
				"items":    arrayOf(stringSchema),
			},
		)),
	},
)

// CategorizeIngredients groups ingredient lines into shopping categories.
// No ingredients means no categories and no call.
func (g *Gateway) CategorizeIngredients(ctx context.Context, ingredients []string) ([]shopping.CategoryDraft, error) {
	if len(ingredients) == 0 {
		return nil, nil
	}
	resp, err := call[categoriesResponse](ctx, g, "ShoppingList", "categorize_ingredients.md", ingredients, categoriesSchema)
	if err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

type itemCategory struct {
	Category string `json:"category"`
}

var itemCategorySchema = object(
	[]string{"category"},
	map[string]*llm.Schema{"category": stringSchema},
)

// CategorizeItem picks the shopping category of a single item, preferring one
// of the existing category names. A blank answer yields shopping.OtherCategory.
func (g *Gateway) CategorizeItem(ctx context.Context, item string, existing []string) (string, error) {
	data := struct {
		Item       string
		Categories []string
	}{item, existing}

	resp, err := call[itemCategory](ctx, g, "ItemCategorizer", "categorize_item.md", data, itemCategorySchema)
	if err != nil {
		return "", err
	}
	category := strings.TrimSpace(resp.Category)
	if category == "" {
		return shopping.OtherCategory, nil
	}
	return category, nil
}
