package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"pantry-planner/internal/recipe"
	"pantry-planner/internal/shared"
)

// DateLayout is the ISO date format used as plan and log keys.
const DateLayout = "2006-01-02"

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMealType = errors.New("invalid meal type")
)

// MealType names a slot within a day.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// MealTypes lists the slots of a day in display order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

// ParseMealType matches s case-insensitively against the known meal types.
func ParseMealType(s string) (MealType, error) {
	for _, m := range MealTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMealType, s)
}

// ParseDate parses an ISO date key.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// DateRange returns days consecutive ISO dates starting at start.
func DateRange(start time.Time, days int) []string {
	dates := make([]string, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, start.AddDate(0, 0, i).Format(DateLayout))
	}
	return dates
}

// SlotRef addresses one meal slot of the plan.
type SlotRef struct {
	Date string
	Meal MealType
}

// PlannedMeal is the set of recipes planned for one date.
type PlannedMeal struct {
	Date      string         `json:"date"`
	Breakfast *recipe.Recipe `json:"breakfast,omitempty"`
	Lunch     *recipe.Recipe `json:"lunch,omitempty"`
	Dinner    *recipe.Recipe `json:"dinner,omitempty"`
	Snack     *recipe.Recipe `json:"snack,omitempty"`
}

// Slot returns the recipe planned for meal, or nil.
func (p PlannedMeal) Slot(meal MealType) *recipe.Recipe {
	switch meal {
	case Breakfast:
		return p.Breakfast
	case Lunch:
		return p.Lunch
	case Dinner:
		return p.Dinner
	case Snack:
		return p.Snack
	}
	return nil
}

// SetSlot assigns r (nil clears) to meal.
func (p *PlannedMeal) SetSlot(meal MealType, r *recipe.Recipe) {
	switch meal {
	case Breakfast:
		p.Breakfast = r
	case Lunch:
		p.Lunch = r
	case Dinner:
		p.Dinner = r
	case Snack:
		p.Snack = r
	}
}

// Recipes returns the planned recipes in slot order.
func (p PlannedMeal) Recipes() []recipe.Recipe {
	var out []recipe.Recipe
	for _, m := range MealTypes {
		if r := p.Slot(m); r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (p PlannedMeal) clone() PlannedMeal {
	c := PlannedMeal{Date: p.Date}
	for _, m := range MealTypes {
		if r := p.Slot(m); r != nil {
			cp := *r
			cp.Tags = slices.Clone(r.Tags)
			c.SetSlot(m, &cp)
		}
	}
	return c
}

// MealPlan maps an ISO date to the meals planned for it. It is stored as a
// list of [date, PlannedMeal] pairs.
type MealPlan map[string]PlannedMeal

func (p MealPlan) MarshalJSON() ([]byte, error) {
	return json.Marshal(shared.MapToPairs(map[string]PlannedMeal(p)))
}

func (p *MealPlan) UnmarshalJSON(data []byte) error {
	var pairs []shared.Pair[string, PlannedMeal]
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	*p = MealPlan(shared.PairsToMap(pairs))
	return nil
}

// Dates returns the planned dates sorted chronologically.
func (p MealPlan) Dates() []string {
	dates := make([]string, 0, len(p))
	for d := range p {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b string) int {
		ta, errA := ParseDate(a)
		tb, errB := ParseDate(b)
		if errA != nil || errB != nil {
			return strings.Compare(a, b)
		}
		return ta.Compare(tb)
	})
	return dates
}

// Assign puts a copy of r into the slot, creating the day if needed.
func (p *MealPlan) Assign(ref SlotRef, r recipe.Recipe) {
	if *p == nil {
		*p = make(MealPlan)
	}
	day, ok := (*p)[ref.Date]
	if !ok {
		day = PlannedMeal{Date: ref.Date}
	}
	day.SetSlot(ref.Meal, &r)
	(*p)[ref.Date] = day
}

// Clear empties the slot. The day entry itself is kept. It reports whether a
// recipe was removed.
func (p MealPlan) Clear(ref SlotRef) bool {
	day, ok := p[ref.Date]
	if !ok || day.Slot(ref.Meal) == nil {
		return false
	}
	day.SetSlot(ref.Meal, nil)
	p[ref.Date] = day
	return true
}

// Swap exchanges the contents of two slots. Either slot may be empty.
func (p *MealPlan) Swap(a, b SlotRef) {
	if *p == nil {
		*p = make(MealPlan)
	}
	dayA, ok := (*p)[a.Date]
	if !ok {
		dayA = PlannedMeal{Date: a.Date}
	}
	ra := dayA.Slot(a.Meal)

	dayB, ok := (*p)[b.Date]
	if !ok {
		dayB = PlannedMeal{Date: b.Date}
	}
	rb := dayB.Slot(b.Meal)

	if a.Date == b.Date {
		dayA.SetSlot(a.Meal, rb)
		dayA.SetSlot(b.Meal, ra)
		(*p)[a.Date] = dayA
		return
	}
	dayA.SetSlot(a.Meal, rb)
	dayB.SetSlot(b.Meal, ra)
	(*p)[a.Date] = dayA
	(*p)[b.Date] = dayB
}

// ReplaceRecipe puts a copy of r into every slot holding a recipe with r's id.
// It returns the number of slots updated.
func (p MealPlan) ReplaceRecipe(r recipe.Recipe) int {
	n := 0
	for date, day := range p {
		for _, m := range MealTypes {
			if cur := day.Slot(m); cur != nil && cur.ID == r.ID {
				cp := r
				day.SetSlot(m, &cp)
				n++
			}
		}
		p[date] = day
	}
	return n
}

// Clone returns a deep copy of the plan.
func (p MealPlan) Clone() MealPlan {
	c := make(MealPlan, len(p))
	for date, day := range p {
		c[date] = day.clone()
	}
	return c
}

// Ingredients aggregates the ingredient lines of every distinct planned recipe,
// in chronological order.
func (p MealPlan) Ingredients() []string {
	seen := make(map[string]struct{})
	var lines []string
	for _, date := range p.Dates() {
		for _, r := range p[date].Recipes() {
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}
			lines = append(lines, r.IngredientLines()...)
		}
	}
	return lines
}

// Build creates a plan covering dates from per-date recipe id assignments.
// Assignments for dates outside the range are ignored, as are ids missing from
// the catalog; the ignored ids are returned.
func Build(dates []string, assignments map[string]map[MealType]string, catalog []recipe.Recipe) (MealPlan, []string) {
	byID := make(map[string]recipe.Recipe, len(catalog))
	for _, r := range catalog {
		byID[r.ID] = r
	}

	plan := make(MealPlan, len(dates))
	var unknown []string
	for _, date := range dates {
		day := PlannedMeal{Date: date}
		for meal, id := range assignments[date] {
			if id == "" {
				continue
			}
			r, ok := byID[id]
			if !ok {
				unknown = append(unknown, id)
				continue
			}
			day.SetSlot(meal, &r)
		}
		plan[date] = day
	}
	return plan, unknown
}
