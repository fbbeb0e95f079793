package llm

import (
	"context"
	"errors"
	"fmt"

	"pantry-planner/internal/config"
	"pantry-planner/internal/shared"
)

var (
	ErrNoContent              = errors.New("no content generated")
	ErrAttachmentsUnsupported = errors.New("provider does not accept attachments")
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// SchemaType is the JSON type of a Schema node.
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
)

// Schema declares the JSON shape a response is expected to have.
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// Attachment is a binary document sent alongside the prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Request collects the options of a single generation call.
type Request struct {
	Schema      *Schema
	Attachments []Attachment
}

// Option configures a generation call.
type Option func(*Request)

// WithSchema asks the model to answer with JSON of the given shape.
func WithSchema(s *Schema) Option {
	return func(r *Request) { r.Schema = s }
}

// WithAttachment forwards a binary document to the model.
func WithAttachment(a Attachment) Option {
	return func(r *Request) { r.Attachments = append(r.Attachments, a) }
}

// NewRequest applies opts to an empty Request.
func NewRequest(opts ...Option) Request {
	var r Request
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string, opts ...Option) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// New builds the configured provider client, paced by the configured rate limit.
func New(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	var gen TextGenerator
	switch cfg.AIProvider {
	case config.ProviderGroq:
		gen = NewGroqClient(cfg)
	case config.ProviderGemini:
		g, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		gen = g
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
	return NewRateLimited(gen, cfg.AIRateLimitPerMinute), nil
}
