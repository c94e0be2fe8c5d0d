package ai

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Chain tries its generators in order and returns the first success.
type Chain struct {
	generators []Generator
	logger     *zap.Logger
}

// NewChain builds a chain, skipping nil generators.
func NewChain(logger *zap.Logger, generators ...Generator) *Chain {
	c := &Chain{logger: logger}
	for _, g := range generators {
		if g != nil {
			c.generators = append(c.generators, g)
		}
	}
	return c
}

// Len reports how many providers are configured.
func (c *Chain) Len() int { return len(c.generators) }

func (c *Chain) Name() string {
	names := make([]string, len(c.generators))
	for i, g := range c.generators {
		names[i] = g.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// GenerateJSON falls through to the next provider on any error, so a quota-exhausted
// Gemini key hands over to OpenRouter. The last error is returned when all fail.
func (c *Chain) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	if len(c.generators) == 0 {
		return "", ErrNotConfigured
	}

	var lastErr error
	for _, g := range c.generators {
		out, err := g.GenerateJSON(ctx, system, prompt)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		if errors.Is(err, ErrQuotaExceeded) {
			c.logger.Warn("AI provider quota exceeded, trying next", zap.String("provider", g.Name()))
		} else {
			c.logger.Warn("AI provider failed, trying next", zap.String("provider", g.Name()), zap.Error(err))
		}
	}
	return "", lastErr
}
