package recipe

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecipe is returned when user input fails validation.
var ErrInvalidRecipe = errors.New("invalid recipe")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Draft is a recipe as entered by a user or extracted from an import, before
// analysis assigns nutrition and an id.
type Draft struct {
	Name          string     `json:"name" validate:"required,max=200"`
	Category      Category   `json:"category" validate:"required,oneof=Breakfast Dinner Snack"`
	Tags          []string   `json:"tags" validate:"max=20,dive,max=40"`
	Ingredients   string     `json:"ingredients" validate:"required"`
	Instructions  string     `json:"instructions"`
	Servings      int        `json:"servings" validate:"gte=1,lte=50"`
	Rating        int        `json:"rating" validate:"gte=0,lte=5"`
	AlsoBreakfast bool       `json:"isAlsoBreakfast"`
	Nutrition     *Nutrition `json:"macros,omitempty"`
	HealthScore   float64    `json:"healthScore,omitempty" validate:"gte=0,lte=10"`
}

// Normalize trims text fields, resolves the category case-insensitively and
// defaults servings to 1.
func (d Draft) Normalize() Draft {
	d.Name = strings.TrimSpace(d.Name)
	d.Ingredients = strings.TrimSpace(d.Ingredients)
	d.Instructions = strings.TrimSpace(d.Instructions)
	if c, ok := ParseCategory(string(d.Category)); ok {
		d.Category = c
	}
	if d.Servings == 0 {
		d.Servings = 1
	}
	d.Tags = MergeTags(nil, d.Tags...)
	return d
}

// Validate checks the required form fields.
func (d Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecipe, describe(err))
	}
	return nil
}

// Key returns the exact-duplicate key of the draft.
func (d Draft) Key() string {
	return Key(d.Name, d.Ingredients)
}

// Build turns a validated draft into a Recipe.
func (d Draft) Build(id string, now time.Time) Recipe {
	r := Recipe{
		ID:            id,
		Name:          d.Name,
		Category:      d.Category,
		Tags:          d.Tags,
		Ingredients:   d.Ingredients,
		Instructions:  d.Instructions,
		HealthScore:   d.HealthScore,
		Rating:        d.Rating,
		Servings:      d.Servings,
		AlsoBreakfast: d.AlsoBreakfast,
		CreatedAt:     now,
		SchemaVersion: CurrentSchemaVersion,
		SourceKey:     d.Key(),
	}
	if d.Nutrition != nil {
		r.Nutrition = *d.Nutrition
	}
	return r
}

// DraftOf returns the editable fields of r.
func DraftOf(r Recipe) Draft {
	n := r.Nutrition
	return Draft{
		Name:          r.Name,
		Category:      r.Category,
		Tags:          r.Tags,
		Ingredients:   r.Ingredients,
		Instructions:  r.Instructions,
		Servings:      r.Servings,
		Rating:        r.Rating,
		AlsoBreakfast: r.AlsoBreakfast,
		Nutrition:     &n,
		HealthScore:   r.HealthScore,
	}
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, ", ")
}
