// pkg/interact/script.go
package interact

import (
	"fmt"
	"strconv"

	"github.com/uitest-io/uitest/pkg/driver"
)

// scriptClickExpr builds a self-contained JavaScript expression that finds the
// first element matching loc and clicks it, returning whether a click
// happened. Building the lookup into the script keeps the click independent of
// any previously resolved handle, so it cannot go stale between lookup and
// click.
func scriptClickExpr(loc driver.Locator) string {
	find := scriptFindExpr(loc)
	return fmt.Sprintf(`(function() {
	var el = %s;
	if (!el) { return false; }
	el.click();
	return true;
})()`, find)
}

// scriptFindExpr translates a locator into a JavaScript lookup expression
// evaluating to the first match or null.
func scriptFindExpr(loc driver.Locator) string {
	switch loc.Strategy {
	case driver.StrategyID:
		return fmt.Sprintf("document.getElementById(%s)", strconv.Quote(loc.Value))
	case driver.StrategyName:
		return fmt.Sprintf("document.querySelector('[name=' + JSON.stringify(%s) + ']')", strconv.Quote(loc.Value))
	case driver.StrategyCSS:
		return fmt.Sprintf("document.querySelector(%s)", strconv.Quote(loc.Value))
	case driver.StrategyTagName:
		return fmt.Sprintf("document.getElementsByTagName(%s)[0] || null", strconv.Quote(loc.Value))
	case driver.StrategyXPath:
		return fmt.Sprintf(
			"document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue",
			strconv.Quote(loc.Value))
	case driver.StrategyLinkText:
		return fmt.Sprintf(
			"Array.prototype.find.call(document.getElementsByTagName('a'), function(a) { return a.textContent.trim() === %s; }) || null",
			strconv.Quote(loc.Value))
	default:
		return "null"
	}
}
