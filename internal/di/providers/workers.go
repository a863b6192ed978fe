package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/booksapp/books-server/internal/logger"
	"github.com/booksapp/books-server/internal/service"
)

const sessionCleanupInterval = time.Hour

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	<-j.done
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessions := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()

		// Initial cleanup on startup
		if count, err := sessions.DeleteExpired(ctx); err != nil {
			log.Warn("Initial session cleanup failed", "error", err)
		} else if count > 0 {
			log.Info("Initial session cleanup completed", "deleted", count)
		}

		for {
			select {
			case <-ticker.C:
				if count, err := sessions.DeleteExpired(ctx); err != nil {
					log.Warn("Session cleanup failed", "error", err)
				} else if count > 0 {
					log.Info("Session cleanup completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started", "interval", sessionCleanupInterval)

	return &SessionCleanupJob{cancel: cancel, done: done}, nil
}
