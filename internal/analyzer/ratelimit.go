package analyzer

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

type rateLimited struct {
	next    ChatModel
	limiter *rate.Limiter
}

// RateLimited spaces calls to m at rps requests per second. rps <= 0 returns m.
func RateLimited(m ChatModel, rps float64) ChatModel {
	if rps <= 0 {
		return m
	}
	burst := max(1, int(math.Ceil(rps)))
	return &rateLimited{next: m, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *rateLimited) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Chat(ctx, messages)
}
