package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mwholloway/salescope/internal/app/store/refreshtokens"
)

// TokenCleanup is a background worker that removes expired refresh tokens.
// Mongo's TTL monitor does most of the work; this loop is the backstop that
// also surfaces counts in the logs.
type TokenCleanup struct {
	tokens   *refreshtokens.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewTokenCleanup creates a new token cleanup worker.
func NewTokenCleanup(store *refreshtokens.Store, logger *zap.Logger, interval time.Duration) *TokenCleanup {
	return &TokenCleanup{
		tokens:   store,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *TokenCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("token cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *TokenCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("token cleanup worker stopped")
}

func (w *TokenCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *TokenCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.tokens.DeleteExpired(ctx)
	if err != nil {
		w.log.Error("failed to delete expired refresh tokens", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("deleted expired refresh tokens", zap.Int64("count", count))
	}
}
