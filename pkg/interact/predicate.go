// pkg/interact/predicate.go
package interact

import (
	"context"
	"time"

	"github.com/uitest-io/uitest/pkg/driver"
)

// Predicate is a readiness condition over a DOM snapshot, ordered by
// strictness: Exists ⊂ Visible ⊂ Clickable.
type Predicate int

const (
	// Exists holds when the element is present in the DOM at all.
	Exists Predicate = iota
	// Visible holds when the element is present and rendered.
	Visible
	// Clickable holds when the element is visible and enabled.
	Clickable
)

func (p Predicate) String() string {
	switch p {
	case Exists:
		return "exists"
	case Visible:
		return "visible"
	case Clickable:
		return "clickable"
	default:
		return "unknown"
	}
}

// holds evaluates the predicate against one resolved element. Errors from the
// handle (stale, detached) surface to the caller, which decides whether they
// are transient.
func (p Predicate) holds(ctx context.Context, el driver.Element) (bool, error) {
	if p == Exists {
		return true, nil
	}
	displayed, err := el.Displayed(ctx)
	if err != nil || !displayed {
		return false, err
	}
	if p == Visible {
		return true, nil
	}
	enabled, err := el.Enabled(ctx)
	if err != nil {
		return false, err
	}
	return enabled, nil
}

// Contract is an explicit-wait contract: how long to keep polling and how
// often. One contract is shared by all interactions of a page-object instance
// unless a page-specific override is supplied at construction.
type Contract struct {
	Timeout time.Duration
	Poll    time.Duration
}

// DefaultContract mirrors the configuration fallbacks: a 20s deadline polled
// every 500ms.
var DefaultContract = Contract{Timeout: 20 * time.Second, Poll: 500 * time.Millisecond}
