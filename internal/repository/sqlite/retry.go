package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/devfolio/internal/metrics"
)

// RetryConfig controls how RunInTx retries a busy or locked database.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 50 * time.Millisecond,
	MaxDelay:     time.Second,
	Multiplier:   2.0,
}

func retryWithBackoff(ctx context.Context, log *slog.Logger, cfg RetryConfig, operation func() error) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 1 {
				log.Info("database operation succeeded after retry", slog.Int("attempts", attempt))
			}
			return nil
		}

		lastErr = err

		if !isBusy(err) {
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		metrics.DBTxRetriesTotal.Inc()
		log.Warn("database busy, retrying",
			slog.Int("attempt", attempt),
			slog.Int("maxAttempts", cfg.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("sqlite: context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("sqlite: operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
