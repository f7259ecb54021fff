// pkg/driver/errors.go
package driver

import (
	"errors"
	"strings"
)

// Sentinel conditions backends wrap their protocol errors with. They mark an
// element as currently unresolvable, which the wait engine absorbs into the
// next poll iteration instead of propagating.
var (
	ErrNoSuchElement   = errors.New("no such element")
	ErrStaleElement    = errors.New("stale element reference")
	ErrNotInteractable = errors.New("element not interactable")
)

// transientFragments covers raw protocol error messages from backends that do
// not wrap the sentinels, e.g. WebDriver remote ends and CDP node lookups.
var transientFragments = []string{
	"no such element",
	"stale element",
	"element not interactable",
	"element is not attached",
	"not visible",
	"is not clickable",
	"other element would receive the click",
	"could not find node",
	"node with given id does not belong",
	"cannot find context",
}

// IsTransient reports whether err is an "element currently unresolvable"
// condition: not found yet, stale reference, or not yet interactable. These
// are poll failures, not stable failures; anything else is propagated as-is.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoSuchElement) ||
		errors.Is(err, ErrStaleElement) ||
		errors.Is(err, ErrNotInteractable) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range transientFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
