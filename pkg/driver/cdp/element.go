// pkg/driver/cdp/element.go
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/uitest-io/uitest/pkg/driver"
)

// element wraps one DOM node id. Node ids die with any DOM mutation around
// them; failures here surface as-is and the wait layer classifies them.
type element struct {
	drv  *Driver
	node *cdp.Node
}

// callOn resolves the node to a runtime object and invokes fnDecl with the
// element as `this`, unmarshaling the by-value result into out when non-nil.
func (e *element) callOn(ctx context.Context, fnDecl string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	qctx, cancel := context.WithTimeout(e.drv.sessCtx, queryTimeout)
	defer cancel()

	return chromedp.Run(qctx, chromedp.ActionFunc(func(cctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(cctx)
		if err != nil {
			return err
		}
		res, exc, err := runtime.CallFunctionOn(fnDecl).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(cctx)
		if err != nil {
			return err
		}
		if exc != nil {
			text := exc.Text
			if exc.Exception != nil && exc.Exception.Description != "" {
				text = exc.Exception.Description
			}
			return fmt.Errorf("script exception: %s", text)
		}
		if out == nil || res == nil || res.Value == nil {
			return nil
		}
		return json.Unmarshal(res.Value, out)
	}))
}

func (e *element) Displayed(ctx context.Context) (bool, error) {
	const fn = `function() {
		if (!this.isConnected) { return false; }
		const r = this.getBoundingClientRect();
		const s = window.getComputedStyle(this);
		return r.width > 0 && r.height > 0 && s.visibility !== "hidden" && s.display !== "none";
	}`
	var shown bool
	if err := e.callOn(ctx, fn, &shown); err != nil {
		return false, err
	}
	return shown, nil
}

func (e *element) Enabled(ctx context.Context) (bool, error) {
	var enabled bool
	if err := e.callOn(ctx, `function() { return !this.disabled; }`, &enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	const fn = `function() {
		const t = this.innerText !== undefined ? this.innerText : this.textContent;
		return t === null || t === undefined ? "" : t;
	}`
	var text string
	if err := e.callOn(ctx, fn, &text); err != nil {
		return "", err
	}
	return text, nil
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	qctx, cancel := context.WithTimeout(e.drv.sessCtx, queryTimeout)
	defer cancel()
	return chromedp.Run(qctx, chromedp.MouseClickNode(e.node))
}

func (e *element) Clear(ctx context.Context) error {
	const fn = `function() {
		this.value = "";
		this.dispatchEvent(new Event("input", { bubbles: true }));
		this.dispatchEvent(new Event("change", { bubbles: true }));
	}`
	return e.callOn(ctx, fn, nil)
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	qctx, cancel := context.WithTimeout(e.drv.sessCtx, queryTimeout)
	defer cancel()
	return chromedp.Run(qctx, chromedp.KeyEventNode(e.node, text))
}

func (e *element) TagName(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.ToLower(e.node.NodeName), nil
}

func (e *element) Attr(ctx context.Context, name string) (string, error) {
	if name == "outerHTML" {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		qctx, cancel := context.WithTimeout(e.drv.sessCtx, queryTimeout)
		defer cancel()
		var html string
		err := chromedp.Run(qctx, chromedp.ActionFunc(func(cctx context.Context) error {
			var err error
			html, err = dom.GetOuterHTML().WithNodeID(e.node.NodeID).Do(cctx)
			return err
		}))
		return html, err
	}

	// Attribute first, then property, matching the WebDriver backend.
	fn := `function() {
		const a = this.getAttribute(` + strconv.Quote(name) + `);
		if (a !== null) { return a; }
		const p = this[` + strconv.Quote(name) + `];
		return p === null || p === undefined ? "" : String(p);
	}`
	var val string
	if err := e.callOn(ctx, fn, &val); err != nil {
		return "", err
	}
	return val, nil
}

func (e *element) FindAll(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, opts, err := cdpQuery(loc)
	if err != nil {
		return nil, err
	}
	return e.drv.findNodes(sel, opts, e.node)
}
