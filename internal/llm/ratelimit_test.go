package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGenerator struct {
	calls  int
	closed bool
}

func (g *countingGenerator) GenerateContent(ctx context.Context, prompt string, opts ...Option) (ContentResponse, error) {
	g.calls++
	return ContentResponse{Content: prompt}, nil
}

func (g *countingGenerator) Close() error {
	g.closed = true
	return nil
}

func TestRateLimitedDelegates(t *testing.T) {
	next := &countingGenerator{}
	r := NewRateLimited(next, 0)

	for i := 0; i < 3; i++ {
		resp, err := r.GenerateContent(context.Background(), "p")
		require.NoError(t, err)
		assert.Equal(t, "p", resp.Content)
	}
	assert.Equal(t, 3, next.calls)

	require.NoError(t, r.Close())
	assert.True(t, next.closed)
}

func TestRateLimitedHonoursContext(t *testing.T) {
	next := &countingGenerator{}
	r := NewRateLimited(next, 1)

	_, err := r.GenerateContent(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.GenerateContent(ctx, "second")
	assert.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestToGenaiSchema(t *testing.T) {
	s := &Schema{
		Type:     TypeObject,
		Required: []string{"items"},
		Properties: map[string]*Schema{
			"items": {Type: TypeArray, Items: &Schema{Type: TypeString}},
			"count": {Type: TypeInteger},
		},
	}
	g := toGenaiSchema(s)
	require.NotNil(t, g)
	assert.Equal(t, []string{"items"}, g.Required)
	assert.Equal(t, genaiType(TypeArray), g.Properties["items"].Type)
	assert.Equal(t, genaiType(TypeString), g.Properties["items"].Items.Type)
	assert.Equal(t, genaiType(TypeInteger), g.Properties["count"].Type)
}

func TestNewRequest(t *testing.T) {
	s := &Schema{Type: TypeString}
	req := NewRequest(WithSchema(s), WithAttachment(Attachment{MIMEType: "application/pdf", Data: []byte("%PDF")}))
	assert.Same(t, s, req.Schema)
	assert.Len(t, req.Attachments, 1)
}
