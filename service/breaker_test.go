package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hmmmm3247/ContractGuard/config"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
)

func testBreakerConfig() *config.BreakerConfig {
	return &config.BreakerConfig{
		MaxRequests:     1,
		IntervalSeconds: 60,
		TimeoutSeconds:  60,
		FailureRatio:    0.5,
		MinRequests:     2,
	}
}

func TestBreakerPassesThrough(t *testing.T) {
	inner := replyText("ok")
	b := NewBreakerGenerator(inner, testBreakerConfig())

	res, err := b.Generate(context.Background(), &GenerateRequest{Purpose: "test"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	inner := replyErr(apperr.NewUnavailable("AI service unavailable.", errors.New("503")))
	b := NewBreakerGenerator(inner, testBreakerConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := b.Generate(ctx, &GenerateRequest{Purpose: "test"})
		require.Error(t, err)
	}
	assert.Equal(t, "open", b.State())

	_, err := b.Generate(ctx, &GenerateRequest{Purpose: "test"})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindServiceUnavailable, e.Kind)
	assert.Equal(t, "AI service temporarily unavailable. Please try again shortly.", e.Message)
	assert.Equal(t, 2, inner.calls())
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	inner := replyErr(context.Canceled)
	b := NewBreakerGenerator(inner, testBreakerConfig())

	for i := 0; i < 3; i++ {
		_, err := b.Generate(context.Background(), &GenerateRequest{Purpose: "test"})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", b.State())
	assert.Equal(t, 3, inner.calls())
}
