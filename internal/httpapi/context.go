package httpapi

import (
	"context"
	"net/http"
)

// serverBaseCtx is canceled on process shutdown so long-lived handlers
// (frame waits, event streams) return promptly.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// requestContext is canceled when the client goes away or the server base
// context ends, whichever comes first.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	stop := context.AfterFunc(serverBaseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
