package prep

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/sells-group/litreview-cli/internal/model"
)

// RateLimited wraps an enricher with a shared request budget so parallel
// workers do not hammer the upstream API.
type RateLimited struct {
	inner   Enricher
	limiter *rate.Limiter
}

// NewRateLimited allows rps requests per second with the given burst.
func NewRateLimited(inner Enricher, rps float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (l *RateLimited) Name() string {
	return l.inner.Name()
}

func (l *RateLimited) Lookup(ctx context.Context, r *model.Record) (*model.Record, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.Lookup(ctx, r)
}
