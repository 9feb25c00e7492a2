package run

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// shutdownTimeout bounds how long HTTPServer waits for in-flight
// requests to finish during shutdown.
const shutdownTimeout = 5 * time.Second

// HTTPServer adapts an *http.Server into a Func: it serves until ctx
// is cancelled, then shuts down gracefully. ctx itself is already
// cancelled by the time Shutdown runs, so Shutdown is given a fresh,
// short-lived context instead.
func HTTPServer(srv *http.Server) Func {
	return func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
				return
			}
			errCh <- nil
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return <-errCh
		}
	}
}
