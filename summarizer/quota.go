package summarizer

import (
	"context"
	"errors"
	"sync"
	"time"

	"folio/config"
)

// ErrQuotaExhausted 는 일일 호출 한도를 모두 썼을 때 반환된다.
var ErrQuotaExhausted = errors.New("summarizer: daily request quota exhausted")

// QuotaLimiter 는 Gemini 호출의 분당 간격과 일일 횟수를 제한한다.
// 프로세스 메모리에만 있으므로 재시작하면 카운터가 초기화된다.
type QuotaLimiter struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	interval time.Duration
	lastCall time.Time

	now func() time.Time
}

func NewQuotaLimiter(cfg config.SummarizerConfig) *QuotaLimiter {
	l := &QuotaLimiter{dailyLimit: max(cfg.RequestsPerDay, 0), now: time.Now}
	if cfg.RequestsPerMinute > 0 {
		l.interval = time.Minute / time.Duration(cfg.RequestsPerMinute)
	}
	return l
}

// Wait 는 다음 호출이 허용될 때까지 기다린 뒤 한 번의 호출을 예약한다.
// 일일 한도를 넘으면 ErrQuotaExhausted, ctx 가 끝나면 ctx.Err() 를 반환한다.
func (l *QuotaLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()

		now := l.now().UTC()
		if key := now.Format("2006-01-02"); l.dayKey != key {
			l.dayKey = key
			l.usedToday = 0
		}

		if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
			l.mu.Unlock()
			return ErrQuotaExhausted
		}

		var delay time.Duration
		if l.interval > 0 && !l.lastCall.IsZero() {
			delay = l.lastCall.Add(l.interval).Sub(now)
		}

		if delay <= 0 {
			l.usedToday++
			l.lastCall = now
			l.mu.Unlock()
			return nil
		}

		l.mu.Unlock()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
