package gateway

import (
	"context"
	"errors"
	"testing"

	"pantry-planner/internal/llm"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/settings"
	"pantry-planner/internal/shared"
	"pantry-planner/internal/shopping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct {
	response string
	err      error
	prompts  []string
	requests []llm.Request
}

func (m *mockGenerator) GenerateContent(ctx context.Context, prompt string, opts ...llm.Option) (llm.ContentResponse, error) {
	m.prompts = append(m.prompts, prompt)
	m.requests = append(m.requests, llm.NewRequest(opts...))
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{
		Content: m.response,
		Usage:   shared.TokenUsage{TotalTokens: 42, Model: "mock"},
	}, nil
}

type recordedCall struct {
	meta shared.AgentMeta
	err  error
}

type mockRecorder struct {
	calls []recordedCall
}

func (m *mockRecorder) Record(ctx context.Context, meta shared.AgentMeta, err error) {
	m.calls = append(m.calls, recordedCall{meta, err})
}

func newTestGateway(response string) (*Gateway, *mockGenerator, *mockRecorder) {
	gen := &mockGenerator{response: response}
	rec := &mockRecorder{}
	return New(gen, rec, nil), gen, rec
}

func TestAnalyzeRecipe(t *testing.T) {
	g, gen, rec := newTestGateway("```json\n" +
		`{"macros":{"calories":420,"protein":30,"carbs":40,"fat":12},"healthScore":14,"tags":["high-protein"]}` +
		"\n```")

	a, err := g.AnalyzeRecipe(context.Background(), recipe.Draft{Name: "Chicken Bowl", Ingredients: "chicken\nrice", Servings: 2})
	require.NoError(t, err)

	assert.Equal(t, recipe.Nutrition{Calories: 420, Protein: 30, Carbs: 40, Fat: 12}, a.Nutrition)
	assert.Equal(t, 10.0, a.HealthScore, "health score is clamped")
	assert.Equal(t, []string{"high-protein"}, a.Tags)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Chicken Bowl")
	assert.Contains(t, gen.prompts[0], "chicken\nrice")
	require.NotNil(t, gen.requests[0].Schema)
	assert.Equal(t, llm.TypeObject, gen.requests[0].Schema.Type)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "Analyst", rec.calls[0].meta.AgentName)
	assert.Equal(t, 42, rec.calls[0].meta.Usage.TotalTokens)
	assert.NoError(t, rec.calls[0].err)
}

func TestInvalidJSONResponse(t *testing.T) {
	g, _, rec := newTestGateway("I'm sorry, I can't analyze that.")

	_, err := g.AnalyzeRecipe(context.Background(), recipe.Draft{Name: "Soup"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrInvalidJSON))

	require.Len(t, rec.calls, 1)
	assert.Error(t, rec.calls[0].err)
}

func TestTransportErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	g, gen, rec := newTestGateway("")
	gen.err = boom

	_, err := g.CategorizeItem(context.Background(), "milk", nil)
	assert.True(t, errors.Is(err, boom))
	require.Len(t, rec.calls, 1)
	assert.True(t, errors.Is(rec.calls[0].err, boom))
}

func TestCheckDuplicate(t *testing.T) {
	existing := []recipe.Recipe{
		{ID: "r1", Name: "Chili con Carne", Ingredients: "beef\nbeans"},
		{ID: "r2", Name: "Pancakes", Ingredients: "flour\nmilk"},
	}

	t.Run("EmptyLibrarySkipsCall", func(t *testing.T) {
		g, gen, _ := newTestGateway("")
		v, err := g.CheckDuplicate(context.Background(), recipe.Draft{Name: "Soup"}, nil)
		require.NoError(t, err)
		assert.False(t, v.IsDuplicate)
		assert.Empty(t, gen.prompts)
	})

	t.Run("MatchByID", func(t *testing.T) {
		g, gen, _ := newTestGateway(`{"isDuplicate":true,"duplicateOf":"r1","reason":"same dish"}`)
		v, err := g.CheckDuplicate(context.Background(), recipe.Draft{Name: "Beef Chili", Ingredients: "beef"}, existing)
		require.NoError(t, err)
		assert.True(t, v.IsDuplicate)
		assert.Equal(t, "r1", v.DuplicateOf)
		assert.Contains(t, gen.prompts[0], "id=r2 name=Pancakes ingredients=flour, milk")
	})

	t.Run("MatchByName", func(t *testing.T) {
		g, _, _ := newTestGateway(`{"isDuplicate":true,"duplicateOf":"pancakes","reason":"same"}`)
		v, err := g.CheckDuplicate(context.Background(), recipe.Draft{Name: "Hotcakes"}, existing)
		require.NoError(t, err)
		assert.Equal(t, "r2", v.DuplicateOf)
	})

	t.Run("NotDuplicateClearsID", func(t *testing.T) {
		g, _, _ := newTestGateway(`{"isDuplicate":false,"duplicateOf":"r1","reason":"different"}`)
		v, err := g.CheckDuplicate(context.Background(), recipe.Draft{Name: "Salad"}, existing)
		require.NoError(t, err)
		assert.Empty(t, v.DuplicateOf)
	})
}

func TestScaleRecipe(t *testing.T) {
	g, gen, _ := newTestGateway(`{"name":"Chili","ingredients":["400g beef","2 cans beans"],"instructions":"Cook.","servings":3,"macros":{"calories":600,"protein":40,"carbs":30,"fat":25}}`)
	r := recipe.Recipe{ID: "r1", Name: "Chili", Ingredients: "200g beef\n1 can beans", Servings: 2, Instructions: "Cook."}

	e, err := g.ScaleRecipe(context.Background(), r, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, e.Servings, "requested servings win over the model's answer")
	assert.Contains(t, gen.prompts[0], "from 2 to 4 servings")

	scaled := e.Apply(r)
	assert.Equal(t, "r1", scaled.ID)
	assert.Equal(t, "400g beef\n2 cans beans", scaled.Ingredients)
	assert.Equal(t, 4, scaled.Servings)
	assert.Equal(t, 600.0, scaled.Nutrition.Calories)
}

func TestEditApplyKeepsEmptyFields(t *testing.T) {
	r := recipe.Recipe{Name: "Soup", Ingredients: "water", Servings: 2, Nutrition: recipe.Nutrition{Calories: 100}}
	got := Edit{Name: "  "}.Apply(r)
	assert.Equal(t, r, got)
}

func TestGenerateMealPlan(t *testing.T) {
	g, gen, rec := newTestGateway(`{"days":[
		{"date":"2024-01-01","breakfast":"r2","lunch":"","dinner":"r1","snack":""},
		{"date":" 2024-01-02 ","dinner":"r1"}
	]}`)
	s := settings.Default()
	s.Blacklist = []string{"peanuts"}

	slots, err := g.GenerateMealPlan(context.Background(), PlanRequest{
		Settings: s,
		Recipes: []recipe.Recipe{
			{ID: "r1", Name: "Chili", Category: recipe.CategoryDinner},
			{ID: "r2", Name: "Oats", Category: recipe.CategoryBreakfast},
		},
		Dates: []string{"2024-01-01", "2024-01-02"},
	})
	require.NoError(t, err)

	assert.Equal(t, "r2", slots["2024-01-01"][planner.Breakfast])
	assert.Equal(t, "r1", slots["2024-01-02"][planner.Dinner])
	assert.Empty(t, slots["2024-01-02"][planner.Lunch])

	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "2024-01-01, 2024-01-02")
	assert.Contains(t, prompt, "Never use recipes containing: peanuts.")
	assert.Contains(t, prompt, "id=r2 name=Oats category=Breakfast breakfast=yes")
	assert.Contains(t, prompt, "id=r1 name=Chili category=Dinner breakfast=no")
	assert.NotContains(t, prompt, "Prefer recipes tagged")
	assert.Equal(t, "Planner", rec.calls[0].meta.AgentName)
}

func TestCategorizeIngredients(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		g, gen, _ := newTestGateway("")
		cats, err := g.CategorizeIngredients(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, cats)
		assert.Empty(t, gen.prompts)
	})

	t.Run("Categories", func(t *testing.T) {
		g, gen, _ := newTestGateway(`{"categories":[{"category":"Produce","items":["2 onions"]},{"category":"Dairy","items":["milk"]}]}`)
		cats, err := g.CategorizeIngredients(context.Background(), []string{"1 onion", "1 onion", "milk"})
		require.NoError(t, err)
		assert.Equal(t, []shopping.CategoryDraft{
			{Name: "Produce", Items: []string{"2 onions"}},
			{Name: "Dairy", Items: []string{"milk"}},
		}, cats)
		assert.Contains(t, gen.prompts[0], "- 1 onion\n- 1 onion\n- milk")
	})
}

func TestCategorizeItem(t *testing.T) {
	g, gen, _ := newTestGateway(`{"category":"Dairy"}`)
	c, err := g.CategorizeItem(context.Background(), "yogurt", []string{"Produce", "Dairy"})
	require.NoError(t, err)
	assert.Equal(t, "Dairy", c)
	assert.Contains(t, gen.prompts[0], "Produce, Dairy")

	g, _, _ = newTestGateway(`{"category":" "}`)
	c, err = g.CategorizeItem(context.Background(), "foil", nil)
	require.NoError(t, err)
	assert.Equal(t, shopping.OtherCategory, c)
}

func TestExtractRecipes(t *testing.T) {
	resp := `{"recipes":[
		{"name":" Shakshuka ","category":"breakfast","tags":["Eggs"],"ingredients":["4 eggs","1 can tomatoes"],"instructions":"Simmer.","servings":0},
		{"name":"Brownies","category":"Dessert","ingredients":["cocoa"],"instructions":"Bake.","servings":12}
	]}`

	t.Run("Text", func(t *testing.T) {
		g, gen, _ := newTestGateway(resp)
		drafts, err := g.ExtractRecipes(context.Background(), "My cookbook text")
		require.NoError(t, err)
		require.Len(t, drafts, 2)

		assert.Equal(t, "Shakshuka", drafts[0].Name)
		assert.Equal(t, recipe.CategoryBreakfast, drafts[0].Category)
		assert.Equal(t, "4 eggs\n1 can tomatoes", drafts[0].Ingredients)
		assert.Equal(t, 1, drafts[0].Servings)
		assert.Equal(t, recipe.CategoryDinner, drafts[1].Category)

		assert.Contains(t, gen.prompts[0], "My cookbook text")
		assert.Empty(t, gen.requests[0].Attachments)
	})

	t.Run("Document", func(t *testing.T) {
		g, gen, _ := newTestGateway(resp)
		doc := llm.Attachment{MIMEType: "application/pdf", Data: []byte("%PDF-1.4")}
		drafts, err := g.ExtractRecipesFromDocument(context.Background(), doc)
		require.NoError(t, err)
		assert.Len(t, drafts, 2)

		require.Len(t, gen.requests[0].Attachments, 1)
		assert.Equal(t, "application/pdf", gen.requests[0].Attachments[0].MIMEType)
		assert.Contains(t, gen.prompts[0], "(attached)")
		assert.NotContains(t, gen.prompts[0], "Document:")
	})
}
