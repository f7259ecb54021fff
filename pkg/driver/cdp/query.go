// pkg/driver/cdp/query.go
package cdp

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/uitest-io/uitest/pkg/driver"
)

// cdpQuery translates a locator into the selector and query options chromedp
// understands. ID and name lookups go through attribute selectors rather than
// "#"/"." shorthand so values containing CSS metacharacters still match.
func cdpQuery(loc driver.Locator) (string, []chromedp.QueryOption, error) {
	switch loc.Strategy {
	case driver.StrategyID:
		return fmt.Sprintf(`[id=%q]`, loc.Value), []chromedp.QueryOption{chromedp.ByQueryAll}, nil
	case driver.StrategyName:
		return fmt.Sprintf(`[name=%q]`, loc.Value), []chromedp.QueryOption{chromedp.ByQueryAll}, nil
	case driver.StrategyCSS:
		return loc.Value, []chromedp.QueryOption{chromedp.ByQueryAll}, nil
	case driver.StrategyTagName:
		return loc.Value, []chromedp.QueryOption{chromedp.ByQueryAll}, nil
	case driver.StrategyXPath:
		return loc.Value, []chromedp.QueryOption{chromedp.BySearch}, nil
	case driver.StrategyLinkText:
		return linkTextXPath(loc.Value), []chromedp.QueryOption{chromedp.BySearch}, nil
	default:
		return "", nil, fmt.Errorf("unsupported locator strategy %q", loc.Strategy)
	}
}

// linkTextXPath matches anchors whose rendered text equals the given string,
// mirroring the WebDriver "link text" strategy.
func linkTextXPath(text string) string {
	return fmt.Sprintf(`//a[normalize-space(.)=%s]`, xpathQuote(text))
}

// xpathQuote produces an XPath 1.0 string literal. XPath has no escape
// sequences, so a value containing both quote kinds needs concat().
func xpathQuote(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	var parts []string
	for i, piece := range strings.Split(s, `"`) {
		if i > 0 {
			parts = append(parts, `'"'`)
		}
		if piece != "" {
			parts = append(parts, `"`+piece+`"`)
		}
	}
	return "concat(" + strings.Join(parts, ", ") + ")"
}
