package run

import (
	"context"

	"github.com/labconn/astm/pkg/astm/transport"
)

// TCPListener adapts an accept loop into a Func: it calls handle once
// per accepted connection, on its own goroutine, until ctx is
// cancelled, at which point the listener is closed and any accept
// error caused by that close is treated as a clean shutdown rather
// than a failure.
func TCPListener(l *transport.Listener, handle func(ctx context.Context, conn *transport.TCPTransport)) Func {
	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			<-ctx.Done()
			_ = l.Close()
			close(done)
		}()

		for {
			conn, err := l.Accept()
			if err != nil {
				select {
				case <-done:
					return nil
				default:
					return err
				}
			}
			go handle(ctx, conn)
		}
	}
}
