package workers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"promo-backend/internal/common/logger"
	"promo-backend/internal/features/spin/reservation"
)

// ReservationSweeper evicts expired in-memory reservations on a fixed interval.
type ReservationSweeper struct {
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	store    reservation.Sweeper
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewReservationSweeper(store reservation.Sweeper, interval time.Duration) *ReservationSweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &ReservationSweeper{
		ctx:      ctx,
		cancel:   cancel,
		store:    store,
		interval: interval,
		now:      time.Now,
		log:      logger.With().Str("worker", "reservation_sweeper").Logger(),
	}
}

func (w *ReservationSweeper) Start() {
	w.log.Info().Dur("interval", w.interval).Msg("Starting reservation sweeper")
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.sweep()
			case <-w.ctx.Done():
				return
			}
		}
	}()
}

func (w *ReservationSweeper) sweep() int {
	n := w.store.Sweep(w.now())
	if n > 0 {
		w.log.Debug().Int("evicted", n).Msg("Expired reservations evicted")
	}
	return n
}

func (w *ReservationSweeper) Stop() {
	w.cancel()
	w.wg.Wait()
	w.log.Info().Msg("Reservation sweeper stopped")
}
