// Package gateway turns application requests into prompts for the language
// model and parses the JSON it answers with. It performs no retries and no
// fallbacks; callers decide how to degrade.
package gateway

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"pantry-planner/internal/llm"
	"pantry-planner/internal/shared"

	"go.uber.org/zap"
)

//go:embed prompts/*.md
var promptFS embed.FS

var prompts = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(promptFS, "prompts/*.md"),
)

// Recorder receives the metadata of every model call.
type Recorder interface {
	Record(ctx context.Context, meta shared.AgentMeta, err error)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, shared.AgentMeta, error) {}

// Gateway is the integration boundary to the language model.
type Gateway struct {
	gen      llm.TextGenerator
	recorder Recorder
	logger   *zap.Logger
}

// New creates a Gateway. recorder and logger may be nil.
func New(gen llm.TextGenerator, recorder Recorder, logger *zap.Logger) *Gateway {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{gen: gen, recorder: recorder, logger: logger}
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

// call renders a prompt, sends it with the response schema and decodes the
// JSON answer into T.
func call[T any](ctx context.Context, g *Gateway, agent, tmpl string, data any, schema *llm.Schema, opts ...llm.Option) (T, error) {
	var zero T
	start := time.Now()

	prompt, err := render(tmpl, data)
	if err != nil {
		return zero, err
	}

	opts = append(opts, llm.WithSchema(schema))
	resp, err := g.gen.GenerateContent(ctx, prompt, opts...)
	meta := shared.AgentMeta{AgentName: agent, Usage: resp.Usage, Latency: time.Since(start)}
	if err != nil {
		g.recorder.Record(ctx, meta, err)
		return zero, fmt.Errorf("%s request failed: %w", agent, err)
	}

	v, err := llm.DecodeJSON[T](resp.Content)
	g.recorder.Record(ctx, meta, err)
	if err != nil {
		return zero, fmt.Errorf("failed to parse %s response: %w", agent, err)
	}

	g.logger.Debug("ai call completed",
		zap.String("agent", agent),
		zap.Int("total_tokens", meta.Usage.TotalTokens),
		zap.Duration("latency", meta.Latency),
	)
	return v, nil
}

func object(required []string, props map[string]*llm.Schema) *llm.Schema {
	return &llm.Schema{Type: llm.TypeObject, Properties: props, Required: required}
}

func arrayOf(items *llm.Schema) *llm.Schema {
	return &llm.Schema{Type: llm.TypeArray, Items: items}
}

var (
	stringSchema  = &llm.Schema{Type: llm.TypeString}
	numberSchema  = &llm.Schema{Type: llm.TypeNumber}
	integerSchema = &llm.Schema{Type: llm.TypeInteger}
	booleanSchema = &llm.Schema{Type: llm.TypeBoolean}

	nutritionSchema = object(
		[]string{"calories", "protein", "carbs", "fat"},
		map[string]*llm.Schema{
			"calories": numberSchema,
			"protein":  numberSchema,
			"carbs":    numberSchema,
			"fat":      numberSchema,
		},
	)
)
