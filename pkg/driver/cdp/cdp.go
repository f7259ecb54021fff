// pkg/driver/cdp/cdp.go
// Package cdp drives a locally launched Chrome through the DevTools protocol.
package cdp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/uitest-io/uitest/internal/config"
	"github.com/uitest-io/uitest/pkg/driver"
)

const queryTimeout = 10 * time.Second

// Driver owns one launched browser process and one tab session within it.
type Driver struct {
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	sessCtx     context.Context
	sessCancel  context.CancelFunc
}

// New launches a browser and opens one session. downloadDir, when non-empty,
// is where the browser is told to place downloads; for the local topology it
// must match the detector's destination directory.
func New(ctx context.Context, logger *zap.Logger, cfg config.DriverConfig, downloadDir string) (*Driver, error) {
	opts := buildAllocatorOptions(cfg)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	sessCtx, sessCancel := chromedp.NewContext(allocCtx)

	d := &Driver{
		logger:      logger.Named("cdp"),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		sessCtx:     sessCtx,
		sessCancel:  sessCancel,
	}

	// Confirm the browser starts and is responsive before handing it out.
	startCtx, cancel := context.WithTimeout(sessCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		d.close()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	if downloadDir != "" {
		err := chromedp.Run(sessCtx,
			browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
				WithDownloadPath(downloadDir))
		if err != nil {
			d.close()
			return nil, fmt.Errorf("set download dir %q: %w", downloadDir, err)
		}
	}

	d.logger.Info("browser launched", zap.Bool("headless", cfg.Headless))
	return d, nil
}

func buildAllocatorOptions(cfg config.DriverConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.Flag("disable-extensions", true),
	)
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	for _, arg := range cfg.Args {
		name := strings.TrimPrefix(arg, "--")
		if before, after, found := strings.Cut(name, "="); found {
			opts = append(opts, chromedp.Flag(before, after))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}
	return opts
}

func (d *Driver) close() {
	d.sessCancel()
	d.allocCancel()
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chromedp.Run(d.sessCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (d *Driver) FindAll(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, opts, err := cdpQuery(loc)
	if err != nil {
		return nil, err
	}
	return d.findNodes(sel, opts, nil)
}

func (d *Driver) findNodes(sel string, opts []chromedp.QueryOption, from *cdp.Node) ([]driver.Element, error) {
	qopts := append([]chromedp.QueryOption{chromedp.AtLeast(0)}, opts...)
	if from != nil {
		qopts = append(qopts, chromedp.FromNode(from))
	}

	// Nodes with AtLeast(0) still waits on a dead session; bound every query
	// so a wedged tab surfaces as an error instead of a hang.
	qctx, cancel := context.WithTimeout(d.sessCtx, queryTimeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(qctx, chromedp.Nodes(sel, &nodes, qopts...)); err != nil {
		return nil, fmt.Errorf("query %q: %w", sel, err)
	}

	els := make([]driver.Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &element{drv: d, node: n})
	}
	return els, nil
}

func (d *Driver) ExecuteScript(ctx context.Context, script string, _ []any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var res any
	if err := chromedp.Run(d.sessCtx, chromedp.Evaluate(script, &res)); err != nil {
		return nil, err
	}
	return res, nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf []byte
	if err := chromedp.Run(d.sessCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *Driver) Close(context.Context) error {
	d.close()
	return nil
}
