// Package settings holds the user's planning preferences.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSettings is returned when settings fail validation.
var ErrInvalidSettings = errors.New("invalid settings")

var validate = validator.New(validator.WithRequiredStructEnabled())

// MealsPerWeek is the number of meals of each type to plan per week.
type MealsPerWeek struct {
	Breakfast int `json:"breakfast" yaml:"breakfast" validate:"gte=0,lte=7"`
	Lunch     int `json:"lunch" yaml:"lunch" validate:"gte=0,lte=7"`
	Dinner    int `json:"dinner" yaml:"dinner" validate:"gte=0,lte=7"`
	Snack     int `json:"snack" yaml:"snack" validate:"gte=0,lte=7"`
}

// NutritionGoals are daily targets per person.
type NutritionGoals struct {
	Calories float64 `json:"calories" yaml:"calories" validate:"gte=0"`
	Protein  float64 `json:"protein" yaml:"protein" validate:"gte=0"`
	Carbs    float64 `json:"carbs" yaml:"carbs" validate:"gte=0"`
	Fat      float64 `json:"fat" yaml:"fat" validate:"gte=0"`
}

// Settings is the singleton preferences record.
type Settings struct {
	PlanDurationWeeks int            `json:"planDurationWeeks" yaml:"plan_duration_weeks" validate:"gte=1,lte=4"`
	HouseholdSize     int            `json:"householdSize" yaml:"household_size" validate:"gte=1,lte=20"`
	MealsPerWeek      MealsPerWeek   `json:"mealsPerWeek" yaml:"meals_per_week"`
	NutritionGoals    NutritionGoals `json:"nutritionGoals" yaml:"nutrition_goals"`
	// Blacklist names ingredients that must never be planned.
	Blacklist []string `json:"blacklist" yaml:"blacklist" validate:"dive,max=80"`
	// GenerationTags steer plan generation towards recipes carrying them.
	GenerationTags   []string `json:"generationTags" yaml:"generation_tags" validate:"dive,max=40"`
	AIDuplicateCheck bool     `json:"aiDuplicateCheck" yaml:"ai_duplicate_check"`
}

// Default returns the settings used before the user changes anything.
func Default() Settings {
	return Settings{
		PlanDurationWeeks: 1,
		HouseholdSize:     2,
		MealsPerWeek:      MealsPerWeek{Breakfast: 7, Lunch: 7, Dinner: 7, Snack: 3},
		NutritionGoals:    NutritionGoals{Calories: 2000, Protein: 100, Carbs: 250, Fat: 70},
		AIDuplicateCheck:  true,
	}
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(msgs, ", "))
	}
	return nil
}

// PlanDays is the number of days a generated plan covers.
func (s Settings) PlanDays() int {
	return s.PlanDurationWeeks * 7
}

// FromYAML parses YAML on top of the defaults, so omitted fields keep their
// default values.
func FromYAML(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadFile reads settings from a YAML file.
func LoadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}
	return FromYAML(data)
}

// YAML renders the settings as YAML.
func (s Settings) YAML() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	return data, nil
}

// SaveFile writes the settings to a YAML file, creating parent directories.
func (s Settings) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := s.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
