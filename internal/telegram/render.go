package telegram

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pantry-planner/internal/app"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/settings"
	"pantry-planner/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	toggleAction = "toggle"
	// Telegram rejects messages longer than this.
	maxMessageLen = 4096
)

var mealIcons = map[planner.MealType]string{
	planner.Breakfast: "🥣",
	planner.Lunch:     "🥪",
	planner.Dinner:    "🍲",
	planner.Snack:     "🍎",
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

const ellipsis = "\n…"

// truncate cuts s to fit one message. The cut falls on a line break when one
// is close enough, otherwise on a rune boundary, so no Markdown entity or
// UTF-8 sequence is split mid-way.
func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if nl := strings.LastIndexByte(s[:cut], '\n'); nl > cut/2 {
		cut = nl
	}
	return s[:cut] + ellipsis
}

func formatRecipes(recipes []recipe.Recipe) string {
	if len(recipes) == 0 {
		return "📖 Your recipe library is empty. Send a recipe URL or a file to import one."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 *Recipes* (%d)\n", len(recipes))

	for _, c := range recipe.Categories {
		var lines []string
		for _, r := range recipes {
			if r.Category != c {
				continue
			}
			lines = append(lines, fmt.Sprintf("• %s (%.0f kcal, ❤️ %.0f/10)", esc(r.Name), r.Nutrition.Calories, r.HealthScore))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n*%s*\n%s\n", c, strings.Join(lines, "\n"))
	}
	return truncate(sb.String())
}

func formatPlan(plan planner.MealPlan, eaten planner.EatenLog) string {
	dates := plan.Dates()
	if len(dates) == 0 {
		return "🗓️ No meal plan yet. Use /generate to create one."
	}

	var sb strings.Builder
	sb.WriteString("📅 *Meal Plan*\n")

	for _, date := range dates {
		day := plan[date]
		label := date
		if t, err := planner.ParseDate(date); err == nil {
			label = t.Format("Mon 02 Jan")
		}
		fmt.Fprintf(&sb, "\n*%s*\n", label)

		var kcal float64
		for _, meal := range planner.MealTypes {
			r := day.Slot(meal)
			if r == nil {
				continue
			}
			kcal += r.Nutrition.Calories
			mark := ""
			if eaten.IsEaten(date, meal) {
				mark = " ✅"
			}
			fmt.Fprintf(&sb, "%s %s%s\n", mealIcons[meal], esc(r.Name), mark)
		}
		if kcal > 0 {
			fmt.Fprintf(&sb, "_%.0f kcal per person_\n", kcal)
		}
	}
	return truncate(sb.String())
}

func formatShoppingList(list shopping.List) string {
	if len(list) == 0 {
		return "🛒 Your shopping list is empty."
	}

	checked, total := list.Counts()
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 *Shopping List* (%d/%d)\n", checked, total)

	for _, c := range list {
		fmt.Fprintf(&sb, "\n*%s*\n", esc(c.Name))
		for _, it := range c.Items {
			box := "⬜"
			if it.Checked {
				box = "☑️"
			}
			fmt.Fprintf(&sb, "%s %s\n", box, esc(it.Name))
		}
	}
	return truncate(sb.String())
}

// shoppingKeyboard has one button per item; tapping it toggles the item.
func shoppingKeyboard(list shopping.List) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range list {
		for _, it := range c.Items {
			label := "⬜ " + it.Name
			if it.Checked {
				label = "☑️ " + it.Name
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, toggleAction+"|"+it.ID),
			))
		}
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func formatSettings(s settings.Settings) string {
	var sb strings.Builder
	sb.WriteString("⚙️ *Settings*\n\n")
	fmt.Fprintf(&sb, "• Plan length: %d week(s)\n", s.PlanDurationWeeks)
	fmt.Fprintf(&sb, "• Household: %d\n", s.HouseholdSize)
	m := s.MealsPerWeek
	fmt.Fprintf(&sb, "• Meals/week: %d breakfast, %d lunch, %d dinner, %d snack\n", m.Breakfast, m.Lunch, m.Dinner, m.Snack)
	g := s.NutritionGoals
	fmt.Fprintf(&sb, "• Daily goals: %.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat\n", g.Calories, g.Protein, g.Carbs, g.Fat)
	if len(s.Blacklist) > 0 {
		fmt.Fprintf(&sb, "• Never plan: %s\n", esc(strings.Join(s.Blacklist, ", ")))
	}
	if len(s.GenerationTags) > 0 {
		fmt.Fprintf(&sb, "• Prefer tags: %s\n", esc(strings.Join(s.GenerationTags, ", ")))
	}
	dup := "off"
	if s.AIDuplicateCheck {
		dup = "on"
	}
	fmt.Fprintf(&sb, "• AI duplicate check: %s\n", dup)
	return sb.String()
}

func formatImportReport(report app.ImportReport) string {
	var sb strings.Builder
	if len(report.Imported) > 0 {
		fmt.Fprintf(&sb, "✅ *Imported %d recipe(s)*\n", len(report.Imported))
		for _, r := range report.Imported {
			fmt.Fprintf(&sb, "• %s\n", esc(r.Name))
		}
	}
	if len(report.Duplicates) > 0 {
		fmt.Fprintf(&sb, "\n♻️ *Skipped %d duplicate(s)*\n", len(report.Duplicates))
		for _, d := range report.Duplicates {
			fmt.Fprintf(&sb, "• %s (matches %s)\n", esc(d.Name), esc(d.ExistingName))
		}
	}
	if len(report.Failures) > 0 {
		fmt.Fprintf(&sb, "\n⚠️ *%d failed*\n", len(report.Failures))
		for _, f := range report.Failures {
			name := f.Name
			if name == "" {
				name = f.Source
			}
			fmt.Fprintf(&sb, "• %s: %s\n", esc(name), esc(f.Err.Error()))
		}
	}
	if sb.Len() == 0 {
		return "🤷 No recipes found."
	}
	return truncate(sb.String())
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent AI Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d calls, %d failed)\n",
			d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution, d.Failures)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime.Truncate(time.Second))
	fmt.Fprintf(&sb, "• Database: %s\n", health.DatabaseSize)
	return sb.String()
}

// formatError turns a store error into the message shown to the user.
func formatError(action string, err error) string {
	var dup *app.DuplicateError
	switch {
	case errors.As(err, &dup):
		return fmt.Sprintf("♻️ %s is already in your library as *%s*.", esc(dup.Name), esc(dup.ExistingName))
	case errors.Is(err, app.ErrNotEnoughRecipes):
		return fmt.Sprintf("📖 You need at least %d recipes before I can plan. Import some first.", app.MinRecipesForPlan)
	case errors.Is(err, app.ErrGenerationInProgress):
		return "⏳ A meal plan is already being generated. Hang on."
	case errors.Is(err, app.ErrInvalidDate), errors.Is(err, app.ErrInvalidMealType), errors.Is(err, app.ErrValidation):
		return "⚠️ " + esc(err.Error())
	}
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Error %s:*\n```\n%s\n```", action, safeErr)
}

const helpText = `🧑‍🍳 *Pantry Planner*

/recipes - list your recipes
/plan - show the meal plan
/generate [YYYY-MM-DD] - plan meals from a date (default today)
/eaten YYYY-MM-DD meal - mark a meal as eaten
/shopping - shopping list (tap an item to tick it)
/add item - add an item to the shopping list
/clearlist - empty the shopping list
/settings - show preferences

Send a recipe URL or a PDF, text or HTML file to import recipes.`
