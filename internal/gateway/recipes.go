package gateway

import (
	"context"
	"fmt"
	"strings"

	"pantry-planner/internal/llm"
	"pantry-planner/internal/recipe"
)

// Analysis is the model's nutrition estimate for a recipe.
type Analysis struct {
	Nutrition   recipe.Nutrition `json:"macros"`
	HealthScore float64          `json:"healthScore"`
	Tags        []string         `json:"tags"`
}

var analysisSchema = object(
	[]string{"macros", "healthScore", "tags"},
	map[string]*llm.Schema{
		"macros":      nutritionSchema,
		"healthScore": numberSchema,
		"tags":        arrayOf(stringSchema),
	},
)

// AnalyzeRecipe estimates per-serving nutrition, a health score and tags.
func (g *Gateway) AnalyzeRecipe(ctx context.Context, d recipe.Draft) (Analysis, error) {
	a, err := call[Analysis](ctx, g, "Analyst", "analyze_recipe.md", d, analysisSchema)
	if err != nil {
		return Analysis{}, err
	}
	a.HealthScore = max(1, min(10, a.HealthScore))
	return a, nil
}

// DuplicateVerdict is the model's answer to a duplicate check.
type DuplicateVerdict struct {
	IsDuplicate bool   `json:"isDuplicate"`
	DuplicateOf string `json:"duplicateOf"`
	Reason      string `json:"reason"`
}

var duplicateSchema = object(
	[]string{"isDuplicate", "duplicateOf", "reason"},
	map[string]*llm.Schema{
		"isDuplicate": booleanSchema,
		"duplicateOf": stringSchema,
		"reason":      stringSchema,
	},
)

// CheckDuplicate asks whether candidate is the same dish as one of existing.
// An empty library is never a duplicate and makes no call.
func (g *Gateway) CheckDuplicate(ctx context.Context, candidate recipe.Draft, existing []recipe.Recipe) (DuplicateVerdict, error) {
	if len(existing) == 0 {
		return DuplicateVerdict{}, nil
	}

	data := struct {
		Candidate recipe.Draft
		Existing  []recipe.Recipe
	}{candidate, existing}

	v, err := call[DuplicateVerdict](ctx, g, "DuplicateChecker", "check_duplicate.md", data, duplicateSchema)
	if err != nil {
		return DuplicateVerdict{}, err
	}
	if !v.IsDuplicate {
		v.DuplicateOf = ""
	} else if recipe.Find(existing, v.DuplicateOf) < 0 {
		// The model sometimes answers with the name instead of the id.
		v.DuplicateOf = idByName(existing, v.DuplicateOf)
	}
	return v, nil
}

func idByName(recipes []recipe.Recipe, name string) string {
	for _, r := range recipes {
		if strings.EqualFold(strings.TrimSpace(r.Name), strings.TrimSpace(name)) {
			return r.ID
		}
	}
	return ""
}

// Edit is a recipe rewritten by the model.
type Edit struct {
	Name         string           `json:"name"`
	Ingredients  []string         `json:"ingredients"`
	Instructions string           `json:"instructions"`
	Servings     int              `json:"servings"`
	Nutrition    recipe.Nutrition `json:"macros"`
}

var editSchema = object(
	[]string{"name", "ingredients", "instructions", "servings", "macros"},
	map[string]*llm.Schema{
		"name":         stringSchema,
		"ingredients":  arrayOf(stringSchema),
		"instructions": stringSchema,
		"servings":     integerSchema,
		"macros":       nutritionSchema,
	},
)

// Apply returns r with the edited fields. Empty fields keep r's values.
func (e Edit) Apply(r recipe.Recipe) recipe.Recipe {
	if name := strings.TrimSpace(e.Name); name != "" {
		r.Name = name
	}
	if len(e.Ingredients) > 0 {
		r.Ingredients = strings.Join(e.Ingredients, "\n")
	}
	if instr := strings.TrimSpace(e.Instructions); instr != "" {
		r.Instructions = instr
	}
	if e.Servings > 0 {
		r.Servings = e.Servings
	}
	if !e.Nutrition.IsZero() {
		r.Nutrition = e.Nutrition
	}
	return r
}

// EditRecipe rewrites r following a free-text instruction.
func (g *Gateway) EditRecipe(ctx context.Context, r recipe.Recipe, instruction string) (Edit, error) {
	data := struct {
		Recipe      recipe.Recipe
		Instruction string
	}{r, instruction}

	return call[Edit](ctx, g, "Editor", "edit_recipe.md", data, editSchema)
}

// ScaleRecipe rewrites r's quantities for a different number of servings.
func (g *Gateway) ScaleRecipe(ctx context.Context, r recipe.Recipe, servings int) (Edit, error) {
	instruction := fmt.Sprintf(
		"scale every ingredient quantity from %d to %d servings; keep the dish, name and per-serving nutrition unchanged",
		r.Servings, servings,
	)
	e, err := g.EditRecipe(ctx, r, instruction)
	if err != nil {
		return Edit{}, err
	}
	e.Servings = servings
	return e, nil
}

type extractedRecipe struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	Servings     int      `json:"servings"`
}

var extractSchema = object(
	[]string{"recipes"},
	map[string]*llm.Schema{
		"recipes": arrayOf(object(
			[]string{"name", "category", "ingredients", "instructions"},
			map[string]*llm.Schema{
				"name":         stringSchema,
				"category":     {Type: llm.TypeString, Enum: []string{"Breakfast", "Dinner", "Snack"}},
				"tags":         arrayOf(stringSchema),
				"ingredients":  arrayOf(stringSchema),
				"instructions": stringSchema,
				"servings":     integerSchema,
			},
		)),
	},
)

type extraction struct {
	Recipes []extractedRecipe `json:"recipes"`
}

// ExtractRecipes finds the recipes in a text document.
func (g *Gateway) ExtractRecipes(ctx context.Context, text string) ([]recipe.Draft, error) {
	data := struct {
		Text     string
		Attached bool
	}{Text: text}

	ex, err := call[extraction](ctx, g, "Extractor", "extract_recipes.md", data, extractSchema)
	if err != nil {
		return nil, err
	}
	return toDrafts(ex.Recipes), nil
}

// ExtractRecipesFromDocument forwards a binary document, such as a PDF, to the
// model and returns the recipes it finds.
func (g *Gateway) ExtractRecipesFromDocument(ctx context.Context, doc llm.Attachment) ([]recipe.Draft, error) {
	data := struct {
		Text     string
		Attached bool
	}{Attached: true}

	ex, err := call[extraction](ctx, g, "Extractor", "extract_recipes.md", data, extractSchema, llm.WithAttachment(doc))
	if err != nil {
		return nil, err
	}
	return toDrafts(ex.Recipes), nil
}

func toDrafts(in []extractedRecipe) []recipe.Draft {
	drafts := make([]recipe.Draft, 0, len(in))
	for _, e := range in {
		category, ok := recipe.ParseCategory(e.Category)
		if !ok {
			category = recipe.CategoryDinner
		}
		drafts = append(drafts, recipe.Draft{
			Name:         e.Name,
			Category:     category,
			Tags:         e.Tags,
			Ingredients:  strings.Join(e.Ingredients, "\n"),
			Instructions: e.Instructions,
			Servings:     e.Servings,
		}.Normalize())
	}
	return drafts
}
