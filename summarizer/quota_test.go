package summarizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/config"
)

func TestQuotaLimiterDailyLimit(t *testing.T) {
	clock := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	l := NewQuotaLimiter(config.SummarizerConfig{RequestsPerDay: 2})
	l.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	assert.ErrorIs(t, l.Wait(ctx), ErrQuotaExhausted)

	// 날짜가 바뀌면 카운터가 초기화된다.
	clock = clock.Add(2 * time.Minute)
	assert.NoError(t, l.Wait(ctx))
}

func TestQuotaLimiterInterval(t *testing.T) {
	l := NewQuotaLimiter(config.SummarizerConfig{RequestsPerMinute: 1200})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestQuotaLimiterContextCancel(t *testing.T) {
	l := NewQuotaLimiter(config.SummarizerConfig{RequestsPerMinute: 1})
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestQuotaLimiterUnlimited(t *testing.T) {
	l := NewQuotaLimiter(config.SummarizerConfig{})
	for range 100 {
		require.NoError(t, l.Wait(context.Background()))
	}
}
