package recipe

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// CurrentSchemaVersion is stamped on every record written by this version.
const CurrentSchemaVersion = 3

// Category is the course a recipe is filed under.
type Category string

const (
	CategoryBreakfast Category = "Breakfast"
	CategoryDinner    Category = "Dinner"
	CategorySnack     Category = "Snack"
)

// Categories lists the valid categories in display order.
var Categories = []Category{CategoryBreakfast, CategoryDinner, CategorySnack}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

// Nutrition holds per-serving macro nutrients.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// IsZero reports whether no macro has been set.
func (n Nutrition) IsZero() bool {
	return n == Nutrition{}
}

// Fallback values used when nutrition analysis is unavailable.
var (
	DefaultNutrition   = Nutrition{Calories: 500, Protein: 25, Carbs: 50, Fat: 20}
	DefaultHealthScore = 5.0
)

// Recipe is a dish in the library.
type Recipe struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Category      Category  `json:"category"`
	Tags          []string  `json:"tags"`
	Ingredients   string    `json:"ingredients"`
	Instructions  string    `json:"instructions"`
	Nutrition     Nutrition `json:"macros"`
	HealthScore   float64   `json:"healthScore"`
	Rating        int       `json:"rating"`
	Servings      int       `json:"servings"`
	AlsoBreakfast bool      `json:"isAlsoBreakfast,omitempty"`
	BaseRecipeID  string    `json:"baseRecipeId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	SchemaVersion int       `json:"schemaVersion"`
	// SourceKey is the duplicate key of the draft as entered, before the
	// ingredients were scaled to the household size.
	SourceKey string `json:"sourceKey,omitempty"`
}

// IsVariation reports whether r is an AI-edited derivative of another recipe.
func (r Recipe) IsVariation() bool {
	return r.BaseRecipeID != ""
}

// SuitsBreakfast reports whether r may fill a breakfast slot.
func (r Recipe) SuitsBreakfast() bool {
	return r.Category == CategoryBreakfast || r.AlsoBreakfast
}

// IngredientLines splits the ingredients block into trimmed, non-empty lines
// without list bullets.
func (r Recipe) IngredientLines() []string {
	return SplitLines(r.Ingredients)
}

// SplitLines splits a free-text block into trimmed, non-empty lines without list bullets.
func SplitLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•· ")
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Key identifies a recipe by name and ingredients, ignoring case and whitespace.
// Two recipes with the same Key are exact duplicates.
func Key(name, ingredients string) string {
	return normalize(name) + "\x00" + normalize(ingredients)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Matches reports whether key identifies r, either as entered or as stored.
func (r Recipe) Matches(key string) bool {
	return r.SourceKey == key || Key(r.Name, r.Ingredients) == key
}

// Find returns the index of the recipe with the given id, or -1.
func Find(recipes []Recipe, id string) int {
	return slices.IndexFunc(recipes, func(r Recipe) bool { return r.ID == id })
}

// BaseOnly filters out variations.
func BaseOnly(recipes []Recipe) []Recipe {
	var out []Recipe
	for _, r := range recipes {
		if !r.IsVariation() {
			out = append(out, r)
		}
	}
	return out
}

// VariationsOf returns the recipes derived from baseID.
func VariationsOf(recipes []Recipe, baseID string) []Recipe {
	var out []Recipe
	for _, r := range recipes {
		if r.BaseRecipeID == baseID {
			out = append(out, r)
		}
	}
	return out
}

// MergeTags appends to catalog every tag not already present (case-insensitive).
func MergeTags(catalog []string, tags ...string) []string {
	out := slices.Clone(catalog)
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if slices.ContainsFunc(out, func(t string) bool { return strings.EqualFold(t, tag) }) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// Tag limits enforced on every stored recipe.
const (
	MaxTags      = 20
	MaxTagLength = 40
)

// LimitTags drops tags longer than MaxTagLength and keeps at most MaxTags.
func LimitTags(tags []string) []string {
	out := make([]string, 0, min(len(tags), MaxTags))
	for _, tag := range tags {
		if len(out) == MaxTags {
			break
		}
		if utf8.RuneCountInString(tag) <= MaxTagLength {
			out = append(out, tag)
		}
	}
	return out
}

// Migrate upgrades a stored record to CurrentSchemaVersion. Older records may lack
// servings, carry an unknown category or out-of-range scores.
func Migrate(r Recipe) (Recipe, bool) {
	if r.SchemaVersion >= CurrentSchemaVersion {
		return r, false
	}

	if r.Servings <= 0 {
		r.Servings = 1
	}
	if c, ok := ParseCategory(string(r.Category)); ok {
		r.Category = c
	} else {
		r.Category = CategoryDinner
	}
	r.HealthScore = clamp(r.HealthScore, 0, 10)
	r.Rating = int(clamp(float64(r.Rating), 0, 5))
	r.Tags = LimitTags(MergeTags(nil, r.Tags...))
	if r.SourceKey == "" {
		r.SourceKey = Key(r.Name, r.Ingredients)
	}
	r.SchemaVersion = CurrentSchemaVersion
	return r, true
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
