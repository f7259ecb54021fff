// pkg/suite/suite.go
// Package suite holds the test definitions a binary registers before the
// runner executes them. Registration happens from init funcs or main, before
// Run; the registry is locked but execution-time reads take a snapshot.
package suite

import (
	"context"
	"fmt"
	"sync"

	"github.com/uitest-io/uitest/pkg/page"
)

// Test is one independently runnable browser test. Each test receives its own
// browser session and its own page handle; tests never share state through
// the framework.
type Test struct {
	// Name must be unique within its suite. It names the evidence directory,
	// so keep it filesystem-friendly.
	Name string
	// URL, when non-empty, is opened before Run is invoked.
	URL string
	// Run performs the test. A nil return is a pass; any error is a failure.
	Run func(ctx context.Context, pg *page.Page) error
}

// Suite is a named group of tests.
type Suite struct {
	Name  string
	Tests []Test
}

var (
	regMu  sync.Mutex
	suites []Suite
	seen   = make(map[string]struct{})
)

// Register adds a suite to the global registry. Suite names must be unique
// across the process, test names unique within their suite.
func Register(s Suite) error {
	if s.Name == "" {
		return fmt.Errorf("suite name must not be empty")
	}
	names := make(map[string]struct{}, len(s.Tests))
	for _, t := range s.Tests {
		if t.Name == "" {
			return fmt.Errorf("suite %q: test name must not be empty", s.Name)
		}
		if _, dup := names[t.Name]; dup {
			return fmt.Errorf("suite %q: duplicate test name %q", s.Name, t.Name)
		}
		names[t.Name] = struct{}{}
		if t.Run == nil {
			return fmt.Errorf("suite %q: test %q has no Run func", s.Name, t.Name)
		}
	}

	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := seen[s.Name]; dup {
		return fmt.Errorf("suite %q registered twice", s.Name)
	}
	seen[s.Name] = struct{}{}
	suites = append(suites, s)
	return nil
}

// MustRegister is Register for init funcs: it panics on error.
func MustRegister(s Suite) {
	if err := Register(s); err != nil {
		panic(err)
	}
}

// All returns a snapshot of the registered suites in registration order.
func All() []Suite {
	regMu.Lock()
	defer regMu.Unlock()
	out := make([]Suite, len(suites))
	copy(out, suites)
	return out
}

// ResetForTest empties the registry.
func ResetForTest() {
	regMu.Lock()
	defer regMu.Unlock()
	suites = nil
	seen = make(map[string]struct{})
}
