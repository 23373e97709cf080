package chain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// WithRetry calls fn until it succeeds, retrying up to maxRetries times
// with a doubling delay that starts at baseDelay.
func WithRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}

type balanceReader interface {
	BalanceOf(ctx context.Context, asset, holder common.Address) (uint64, error)
}

// RetryingReader retries failed balance reads of the wrapped reader.
type RetryingReader struct {
	Reader       balanceReader
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *zap.Logger
}

func (r *RetryingReader) BalanceOf(ctx context.Context, asset, holder common.Address) (uint64, error) {
	var balance uint64
	attempt := 0
	err := WithRetry(ctx, r.MaxRetries, r.RetryBackoff, func(ctx context.Context) error {
		attempt++
		var err error
		balance, err = r.Reader.BalanceOf(ctx, asset, holder)
		if err != nil && r.Logger != nil {
			r.Logger.Warn("balance read failed",
				zap.String("asset", asset.Hex()),
				zap.String("holder", holder.Hex()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	})
	return balance, err
}
