// pkg/driver/locator.go
package driver

import "fmt"

// Strategy names an element-finding strategy understood by every backend.
type Strategy string

const (
	StrategyID       Strategy = "id"
	StrategyName     Strategy = "name"
	StrategyCSS      Strategy = "css"
	StrategyXPath    Strategy = "xpath"
	StrategyLinkText Strategy = "link text"
	StrategyTagName  Strategy = "tag name"
)

// Locator is an immutable, declarative description of how to find zero or more
// elements. A Locator never caches a resolved element; every action re-resolves
// it at the moment of use. Locators are write-once constants owned by a page
// definition.
type Locator struct {
	Strategy Strategy
	Value    string
}

// ID locates by the element's id attribute.
func ID(v string) Locator { return Locator{Strategy: StrategyID, Value: v} }

// Name locates by the element's name attribute.
func Name(v string) Locator { return Locator{Strategy: StrategyName, Value: v} }

// CSS locates by CSS selector.
func CSS(v string) Locator { return Locator{Strategy: StrategyCSS, Value: v} }

// XPath locates by XPath expression.
func XPath(v string) Locator { return Locator{Strategy: StrategyXPath, Value: v} }

// LinkText locates an anchor by its exact rendered text.
func LinkText(v string) Locator { return Locator{Strategy: StrategyLinkText, Value: v} }

// Tag locates by tag name.
func Tag(v string) Locator { return Locator{Strategy: StrategyTagName, Value: v} }

// String renders the locator in a human-readable form used in logs and errors.
func (l Locator) String() string {
	return fmt.Sprintf("%s=%q", l.Strategy, l.Value)
}

// Zero reports whether the locator is the zero value.
func (l Locator) Zero() bool {
	return l.Strategy == "" && l.Value == ""
}
