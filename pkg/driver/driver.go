// pkg/driver/driver.go
// The driver package defines the narrow browser capabilities the rest of the
// framework consumes. Backends (WebDriver, CDP) implement these interfaces;
// nothing above this package knows which protocol is in use.
package driver

import "context"

// Driver is one live browser session. Sessions are not shared across tests;
// each test owns exactly one Driver for its lifetime.
type Driver interface {
	// Navigate loads the given URL and blocks until the navigation commits.
	Navigate(ctx context.Context, url string) error
	// FindAll returns every element currently matching the locator. A page
	// with no matches yields an empty slice, not an error.
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
	// ExecuteScript evaluates JavaScript in the page and returns its result.
	ExecuteScript(ctx context.Context, script string, args []any) (any, error)
	// Screenshot captures the current viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
	// Close ends the session and releases browser resources.
	Close(ctx context.Context) error
}

// Element is a handle to one DOM node at the moment of lookup. It becomes
// invalid the instant the DOM mutates around it; every method may fail with a
// stale or not-found condition at any time. Callers treat such failures as
// transient (see IsTransient), not as hard errors.
type Element interface {
	Displayed(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	Text(ctx context.Context) (string, error)
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	TagName(ctx context.Context) (string, error)
	// Attr returns the named attribute or property. The pseudo-attribute
	// "outerHTML" is supported by every backend.
	Attr(ctx context.Context, name string) (string, error)
	// FindAll resolves elements nested under this one.
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
}

// RemoteFiles is the managed-download capability of a remote session: the
// server-side store of files the remote browser has downloaded.
type RemoteFiles interface {
	// ListDownloadableNames returns the names currently in the session's
	// managed-download manifest.
	ListDownloadableNames(ctx context.Context) ([]string, error)
	// Fetch transfers the named file into destDir. Fetching a name that was
	// already transferred fails with an already-exists condition, which
	// callers treat as success.
	Fetch(ctx context.Context, name, destDir string) error
	// ClearDownloadableFiles discards the session's manifest.
	ClearDownloadableFiles(ctx context.Context) error
}
