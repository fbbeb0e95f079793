package settings

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, 7, s.PlanDays())
	assert.True(t, s.AIDuplicateCheck)
}

func TestValidate(t *testing.T) {
	s := Default()
	s.HouseholdSize = 0
	s.MealsPerWeek.Dinner = 9

	err := s.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSettings))
	assert.Contains(t, err.Error(), "Settings.HouseholdSize")
	assert.Contains(t, err.Error(), "Settings.MealsPerWeek.Dinner")
}

func TestFromYAMLKeepsDefaults(t *testing.T) {
	s, err := FromYAML([]byte("household_size: 4\nblacklist: [cilantro]\n"))
	require.NoError(t, err)

	assert.Equal(t, 4, s.HouseholdSize)
	assert.Equal(t, []string{"cilantro"}, s.Blacklist)
	assert.Equal(t, Default().MealsPerWeek, s.MealsPerWeek)

	_, err = FromYAML([]byte("plan_duration_weeks: 12\n"))
	assert.True(t, errors.Is(err, ErrInvalidSettings))

	_, err = FromYAML([]byte("household_size: [\n"))
	assert.ErrorContains(t, err, "failed to parse settings")
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	s := Default()
	s.GenerationTags = []string{"quick", "vegetarian"}
	s.Blacklist = []string{"peanuts"}
	s.AIDuplicateCheck = false

	require.NoError(t, s.SaveFile(path))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}
