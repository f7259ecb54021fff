// pkg/interact/legacy.go
package interact

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/uitest-io/uitest/pkg/driver"
)

// AwaitHandleVisible polls an already-resolved element handle until it reports
// itself visible or the gateway's contract times out.
//
// Deprecated: this entry point exists only for incremental migration of code
// that still holds raw handles, and its guarantees are strictly weaker than
// Await's. If the handle is already stale, every poll reads as "not yet
// visible" and the loop runs to the full timeout instead of re-resolving and
// recovering. New code must pass a Locator to Await instead.
func (g *Gateway) AwaitHandleVisible(ctx context.Context, el driver.Element, desc string) error {
	start := time.Now()
	for {
		displayed, err := el.Displayed(ctx)
		if err == nil && displayed {
			return nil
		}
		if err != nil && !driver.IsTransient(err) {
			return err
		}

		if time.Since(start) >= g.contract.Timeout {
			g.logger.Warn("handle wait timed out; handle may have been stale from the start",
				zap.String("element", desc),
				zap.Duration("timeout", g.contract.Timeout))
			return &TimeoutError{
				Locator:   driver.Locator{Strategy: "handle", Value: desc},
				Predicate: Visible,
				Timeout:   g.contract.Timeout,
			}
		}
		if err := sleep(ctx, g.contract.Poll); err != nil {
			return err
		}
	}
}
