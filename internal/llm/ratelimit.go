package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited paces calls to a TextGenerator.
type RateLimited struct {
	next    TextGenerator
	limiter *rate.Limiter
}

// NewRateLimited allows perMinute calls per minute to next. A non-positive
// perMinute disables pacing.
func NewRateLimited(next TextGenerator, perMinute int) *RateLimited {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, 1)}
}

// GenerateContent waits for the limiter, then delegates.
func (r *RateLimited) GenerateContent(ctx context.Context, prompt string, opts ...Option) (ContentResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ContentResponse{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.GenerateContent(ctx, prompt, opts...)
}

// Close closes the wrapped generator when it holds resources.
func (r *RateLimited) Close() error {
	if c, ok := r.next.(Closer); ok {
		return c.Close()
	}
	return nil
}
