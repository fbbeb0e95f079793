package app

import (
	"errors"
	"fmt"

	"pantry-planner/internal/planner"
	"pantry-planner/internal/shopping"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrDuplicateRecipe      = errors.New("duplicate recipe")
	ErrRecipeNotFound       = errors.New("recipe not found")
	ErrItemNotFound         = shopping.ErrItemNotFound
	ErrNotEnoughRecipes     = errors.New("not enough recipes to generate a meal plan")
	ErrGenerationInProgress = errors.New("meal plan generation already in progress")
	ErrInvalidDate          = planner.ErrInvalidDate
	ErrInvalidMealType      = planner.ErrInvalidMealType
)

// DuplicateError reports the library recipe a new recipe duplicates.
type DuplicateError struct {
	Name         string
	ExistingID   string
	ExistingName string
	Reason       string
}

func (e *DuplicateError) Error() string {
	if e.ExistingName == "" {
		return fmt.Sprintf("%q is a duplicate: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("%q duplicates %q: %s", e.Name, e.ExistingName, e.Reason)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateRecipe
}

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
