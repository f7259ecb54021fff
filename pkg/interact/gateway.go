// pkg/interact/gateway.go
package interact

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uitest-io/uitest/pkg/driver"
	"github.com/uitest-io/uitest/pkg/evidence"
)

// Gateway resolves symbolic locators to live elements under an explicit-wait
// contract and exposes safe action primitives on top of that. Elements are
// never cached across actions: every action re-resolves its locator at the
// last possible moment, which turns most stale-element failures into ordinary
// poll iterations instead of hard errors.
//
// A Gateway assumes single-caller-at-a-time usage scoped to one session.
type Gateway struct {
	drv      driver.Driver
	logger   *zap.Logger
	rec      evidence.Recorder
	contract Contract
}

// NewGateway builds a gateway over one browser session. rec may not be nil;
// pass evidence.Nop{} when no reporting is wanted.
func NewGateway(logger *zap.Logger, drv driver.Driver, rec evidence.Recorder, contract Contract) *Gateway {
	if contract.Timeout <= 0 {
		contract.Timeout = DefaultContract.Timeout
	}
	if contract.Poll <= 0 {
		contract.Poll = DefaultContract.Poll
	}
	return &Gateway{
		drv:      drv,
		logger:   logger.Named("interact"),
		rec:      rec,
		contract: contract,
	}
}

// WithContract returns a gateway sharing the same session but polling under a
// different wait contract. Used for page-specific overrides.
func (g *Gateway) WithContract(c Contract) *Gateway {
	clone := *g
	if c.Timeout > 0 {
		clone.contract.Timeout = c.Timeout
	}
	if c.Poll > 0 {
		clone.contract.Poll = c.Poll
	}
	return &clone
}

// Driver exposes the underlying session for call-through helpers.
func (g *Gateway) Driver() driver.Driver { return g.drv }

// Await polls the driver for elements matching loc until one satisfies pred or
// the contract's deadline elapses. Transient lookup failures (no match yet,
// stale reference, not yet interactable) are absorbed into the next poll; any
// other driver error propagates immediately. On deadline it fails with
// *TimeoutError after a diagnostic log entry. Await never returns a non-ready
// element.
func (g *Gateway) Await(ctx context.Context, loc driver.Locator, pred Predicate) (driver.Element, error) {
	return g.AwaitWith(ctx, loc, pred, g.contract)
}

// AwaitWith is Await under a caller-supplied contract.
func (g *Gateway) AwaitWith(ctx context.Context, loc driver.Locator, pred Predicate, c Contract) (driver.Element, error) {
	start := time.Now()
	for {
		el, err := g.resolveOnce(ctx, loc, pred)
		if err != nil {
			return nil, err
		}
		if el != nil {
			return el, nil
		}

		if time.Since(start) >= c.Timeout {
			g.logger.Warn("wait timed out",
				zap.Stringer("locator", loc),
				zap.Stringer("predicate", pred),
				zap.Duration("timeout", c.Timeout))
			return nil, &TimeoutError{Locator: loc, Predicate: pred, Timeout: c.Timeout}
		}
		if err := sleep(ctx, c.Poll); err != nil {
			return nil, err
		}
	}
}

// resolveOnce performs exactly one lookup pass. It returns (nil, nil) when no
// element is ready yet and a non-nil error only for non-transient driver
// failures.
func (g *Gateway) resolveOnce(ctx context.Context, loc driver.Locator, pred Predicate) (driver.Element, error) {
	els, err := g.drv.FindAll(ctx, loc)
	if err != nil {
		if driver.IsTransient(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	for _, el := range els {
		ok, err := pred.holds(ctx, el)
		if err != nil {
			if driver.IsTransient(err) {
				// The DOM moved under us mid-check; next poll re-resolves.
				continue
			}
			return nil, fmt.Errorf("check %s on %s: %w", pred, loc, err)
		}
		if ok {
			return el, nil
		}
	}
	return nil, nil
}

// Exists is a non-waiting existence check: true iff at least one match is
// present right now. Used for fast negative assertions and branchy flows
// where waiting would be wrong.
func (g *Gateway) Exists(ctx context.Context, loc driver.Locator) bool {
	els, err := g.drv.FindAll(ctx, loc)
	return err == nil && len(els) > 0
}

// Click waits for the element to become clickable and invokes a native click.
func (g *Gateway) Click(ctx context.Context, loc driver.Locator) error {
	el, err := g.Await(ctx, loc, Clickable)
	if err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	g.rec.Step(fmt.Sprintf("Clicked element %s", loc))
	return nil
}

// ClickViaScript looks the element up without waiting (existence only) and
// clicks it from JavaScript. Escape hatch for elements obscured by overlays
// where a native click is blocked; a script click needs no native hit-testing,
// so it does not wait for clickability. Use sparingly.
func (g *Gateway) ClickViaScript(ctx context.Context, loc driver.Locator) error {
	els, err := g.drv.FindAll(ctx, loc)
	if err != nil {
		return fmt.Errorf("find %s: %w", loc, err)
	}
	if len(els) == 0 {
		return fmt.Errorf("script click %s: %w", loc, driver.ErrNoSuchElement)
	}
	res, err := g.drv.ExecuteScript(ctx, scriptClickExpr(loc), nil)
	if err != nil {
		return fmt.Errorf("script click %s: %w", loc, err)
	}
	if clicked, ok := res.(bool); ok && !clicked {
		return fmt.Errorf("script click %s: %w", loc, driver.ErrNoSuchElement)
	}
	g.rec.Step(fmt.Sprintf("Clicked element %s via script", loc))
	return nil
}

// TypeText waits for visibility, clears any existing value and sends the
// text. Clearing then sending is not atomic in the browser but is treated as
// one logical action; a partial failure surfaces to the caller as-is.
func (g *Gateway) TypeText(ctx context.Context, loc driver.Locator, text string) error {
	el, err := g.Await(ctx, loc, Visible)
	if err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return fmt.Errorf("clear %s: %w", loc, err)
	}
	if err := el.SendKeys(ctx, text); err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	g.rec.Step(fmt.Sprintf("Typed %q into element %s", text, loc))
	return nil
}

// ReadText waits for visibility and returns the element's rendered text.
func (g *Gateway) ReadText(ctx context.Context, loc driver.Locator) (string, error) {
	el, err := g.Await(ctx, loc, Visible)
	if err != nil {
		return "", err
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", loc, err)
	}
	return text, nil
}

// sleep blocks for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
