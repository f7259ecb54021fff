// pkg/interact/select.go
package interact

import (
	"context"
	"fmt"
	"strings"

	"github.com/uitest-io/uitest/pkg/driver"
)

// OptionSelector names one option of a selection-capable element.
type OptionSelector struct {
	byText  bool
	byValue bool
	text    string
	value   string
	index   int
}

// OptionText selects the option whose visible text matches exactly.
func OptionText(text string) OptionSelector { return OptionSelector{byText: true, text: text} }

// OptionValue selects the option whose value attribute matches exactly.
func OptionValue(value string) OptionSelector { return OptionSelector{byValue: true, value: value} }

// OptionIndex selects the option at the given zero-based position.
func OptionIndex(i int) OptionSelector { return OptionSelector{index: i} }

func (s OptionSelector) String() string {
	switch {
	case s.byText:
		return fmt.Sprintf("text=%q", s.text)
	case s.byValue:
		return fmt.Sprintf("value=%q", s.value)
	default:
		return fmt.Sprintf("index=%d", s.index)
	}
}

// SelectOption waits for the element to become visible, resolves its options
// and clicks the one the selector names.
func (g *Gateway) SelectOption(ctx context.Context, loc driver.Locator, sel OptionSelector) error {
	el, err := g.Await(ctx, loc, Visible)
	if err != nil {
		return err
	}

	options, err := el.FindAll(ctx, driver.Tag("option"))
	if err != nil {
		return fmt.Errorf("resolve options of %s: %w", loc, err)
	}
	if len(options) == 0 {
		return fmt.Errorf("element %s has no options", loc)
	}

	chosen, err := sel.pick(ctx, options)
	if err != nil {
		return fmt.Errorf("select %s in %s: %w", sel, loc, err)
	}
	if err := chosen.Click(ctx); err != nil {
		return fmt.Errorf("select %s in %s: %w", sel, loc, err)
	}
	g.rec.Step(fmt.Sprintf("Selected option %s in element %s", sel, loc))
	return nil
}

func (s OptionSelector) pick(ctx context.Context, options []driver.Element) (driver.Element, error) {
	switch {
	case s.byText:
		for _, opt := range options {
			text, err := opt.Text(ctx)
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(text) == s.text {
				return opt, nil
			}
		}
		return nil, fmt.Errorf("no option with text %q", s.text)
	case s.byValue:
		for _, opt := range options {
			val, err := opt.Attr(ctx, "value")
			if err != nil {
				return nil, err
			}
			if val == s.value {
				return opt, nil
			}
		}
		return nil, fmt.Errorf("no option with value %q", s.value)
	default:
		if s.index < 0 || s.index >= len(options) {
			return nil, fmt.Errorf("option index %d out of range (%d options)", s.index, len(options))
		}
		return options[s.index], nil
	}
}
