package telegram

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"pantry-planner/internal/app"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/shopping"

	"github.com/stretchr/testify/assert"
)

func TestFormatPlan(t *testing.T) {
	oats := &recipe.Recipe{Name: "Overnight_Oats", Nutrition: recipe.Nutrition{Calories: 300}}
	stew := &recipe.Recipe{Name: "Stew", Nutrition: recipe.Nutrition{Calories: 600}}
	plan := planner.MealPlan{
		"2024-03-02": {Date: "2024-03-02", Dinner: stew},
		"2024-03-01": {Date: "2024-03-01", Breakfast: oats, Dinner: stew},
	}
	eaten := planner.EatenLog{"2024-03-01": {planner.Breakfast: true}}

	out := formatPlan(plan, eaten)

	assert.Contains(t, out, "📅 *Meal Plan*")
	assert.Less(t, strings.Index(out, "Fri 01 Mar"), strings.Index(out, "Sat 02 Mar"))
	assert.Contains(t, out, `🥣 Overnight\_Oats ✅`)
	assert.Contains(t, out, "_900 kcal per person_")
	assert.Contains(t, formatPlan(nil, nil), "/generate")
}

func TestFormatShoppingList(t *testing.T) {
	list := shopping.List{
		{ID: "c1", Name: "Produce", Items: []shopping.Item{{ID: "i1", Name: "Kale", Checked: true}, {ID: "i2", Name: "Leeks"}}},
	}

	out := formatShoppingList(list)
	assert.Contains(t, out, "🛒 *Shopping List* (1/2)")
	assert.Contains(t, out, "☑️ Kale")
	assert.Contains(t, out, "⬜ Leeks")

	kb := shoppingKeyboard(list)
	assert.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "toggle|i2", *kb.InlineKeyboard[1][0].CallbackData)

	assert.Nil(t, shoppingKeyboard(nil))
	assert.Contains(t, formatShoppingList(nil), "empty")
}

func TestFormatImportReport(t *testing.T) {
	report := app.ImportReport{
		Imported:   []recipe.Recipe{{Name: "Dal"}},
		Duplicates: []*app.DuplicateError{{Name: "Chili", ExistingName: "Bean Chili"}},
		Failures:   []app.ImportFailure{{Source: "book.pdf", Err: errors.New("unreadable")}},
	}

	out := formatImportReport(report)
	assert.Contains(t, out, "Imported 1 recipe(s)")
	assert.Contains(t, out, "Chili (matches Bean Chili)")
	assert.Contains(t, out, "book.pdf: unreadable")
	assert.Contains(t, formatImportReport(app.ImportReport{}), "No recipes found")
}

func TestFormatError(t *testing.T) {
	dup := fmt.Errorf("add: %w", &app.DuplicateError{Name: "Chili", ExistingName: "Bean Chili"})
	assert.Contains(t, formatError("adding", dup), "already in your library as *Bean Chili*")
	assert.Contains(t, formatError("generating", app.ErrGenerationInProgress), "already being generated")
	assert.Contains(t, formatError("saving", errors.New("disk `full`")), "disk 'full'")
}

func TestFormatMetrics(t *testing.T) {
	out := formatMetrics([]metrics.DailyUsage{{Date: "2024-03-01", TotalPrompt: 100, TotalCompletion: 50, TotalExecution: 3, Failures: 1}}, metrics.SysHealth{DatabaseSize: "1.0 MB"})
	assert.Contains(t, out, "*2024-03-01*: 150 tokens (3 calls, 1 failed)")
	assert.Contains(t, out, "Database: 1.0 MB")
}

func TestTruncate(t *testing.T) {
	t.Run("ASCII", func(t *testing.T) {
		long := strings.Repeat("a", maxMessageLen+10)
		assert.LessOrEqual(t, len(truncate(long)), maxMessageLen)
		assert.Equal(t, "short", truncate("short"))
	})

	t.Run("Multibyte", func(t *testing.T) {
		out := truncate("a" + strings.Repeat("🍲", 2000))
		assert.LessOrEqual(t, len(out), maxMessageLen)
		assert.True(t, utf8.ValidString(out))
		assert.True(t, strings.HasSuffix(out, "\n…"))
	})

	t.Run("CutsAtLineBreak", func(t *testing.T) {
		var sb strings.Builder
		for sb.Len() < maxMessageLen*2 {
			sb.WriteString("• *Bowl* 🍲 with rice\n")
		}
		out := truncate(sb.String())
		assert.LessOrEqual(t, len(out), maxMessageLen)
		assert.True(t, utf8.ValidString(out))
		body := strings.TrimSuffix(out, "\n…")
		assert.True(t, strings.HasSuffix(body, "with rice"), "no line is cut mid-way")
		assert.Zero(t, strings.Count(body, "*")%2, "bold markers stay paired")
	})
}
