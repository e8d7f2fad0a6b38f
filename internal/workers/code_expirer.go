package workers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "promo-backend/internal/common/errors"
	"promo-backend/internal/common/logger"
)

// CodeExpirer is the slice of the code repository the expiry job needs.
type CodeExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// CodeExpiryWorker flips issued codes past expires_at to expired so admin
// listings reflect reality. Redemption checks expiry on its own.
type CodeExpiryWorker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	codes    CodeExpirer
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewCodeExpiryWorker(codes CodeExpirer, interval time.Duration) *CodeExpiryWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &CodeExpiryWorker{
		ctx:      ctx,
		cancel:   cancel,
		codes:    codes,
		interval: interval,
		now:      time.Now,
		log:      logger.With().Str("worker", "code_expiry").Logger(),
	}
}

func (w *CodeExpiryWorker) Start() {
	w.log.Info().Dur("interval", w.interval).Msg("Starting code expiry worker")
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := w.expire(); err != nil {
					w.log.Error().Err(err).Msg("Failed to expire codes")
				}
			case <-w.ctx.Done():
				return
			}
		}
	}()
}

func (w *CodeExpiryWorker) expire() (int64, error) {
	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	now := w.now()
	n, err := w.codes.ExpireDue(ctx, now)
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.ErrCodeDatabaseError, "Failed to expire codes due at %s", now.Format(time.RFC3339))
	}
	if n > 0 {
		w.log.Info().Int64("expired", n).Msg("Codes expired")
	}
	return n, nil
}

func (w *CodeExpiryWorker) Stop() {
	w.cancel()
	w.wg.Wait()
	w.log.Info().Msg("Code expiry worker stopped")
}
