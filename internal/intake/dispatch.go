package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/estate-intake/internal/pkg/logger"
)

// Dispatcher runs a best-effort side effect. Implementations must never
// block the caller and must never let a failure escape.
type Dispatcher func(name string, fn func(ctx context.Context))

// sinkTimeout bounds detached sink calls so a hung collector cannot
// outlive the request on function hosts.
const sinkTimeout = 5 * time.Second

// AsyncDispatch runs fn on a detached goroutine with a fresh timeout
// context. The HTTP response is never gated on fn; panics are recovered
// and logged here so the policy lives in one place.
func AsyncDispatch(name string, fn func(ctx context.Context)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("best-effort dispatch panic", "op", name, "panic", fmt.Sprintf("%v", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		fn(ctx)
	}()
}
