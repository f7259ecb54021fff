// pkg/interact/fakes_test.go
package interact

import (
	"context"
	"sync"

	"github.com/uitest-io/uitest/pkg/driver"
)

// fakeElement is a scriptable in-memory DOM node.
type fakeElement struct {
	mu        sync.Mutex
	displayed bool
	enabled   bool
	text      string
	tag       string
	attrs     map[string]string
	stale     bool

	clicks   int
	cleared  int
	typed    []string
	children map[driver.Locator][]driver.Element
}

func newFakeElement(displayed, enabled bool) *fakeElement {
	return &fakeElement{
		displayed: displayed,
		enabled:   enabled,
		attrs:     map[string]string{},
		children:  map[driver.Locator][]driver.Element{},
	}
}

func (e *fakeElement) guard() error {
	if e.stale {
		return driver.ErrStaleElement
	}
	return nil
}

func (e *fakeElement) Displayed(context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return false, err
	}
	return e.displayed, nil
}

func (e *fakeElement) Enabled(context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return false, err
	}
	return e.enabled, nil
}

func (e *fakeElement) Text(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return "", err
	}
	return e.text, nil
}

func (e *fakeElement) Click(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	e.clicks++
	return nil
}

func (e *fakeElement) Clear(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	e.cleared++
	return nil
}

func (e *fakeElement) SendKeys(_ context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	e.typed = append(e.typed, text)
	return nil
}

func (e *fakeElement) TagName(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tag, e.guard()
}

func (e *fakeElement) Attr(_ context.Context, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return "", err
	}
	return e.attrs[name], nil
}

func (e *fakeElement) FindAll(_ context.Context, loc driver.Locator) ([]driver.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return nil, err
	}
	return e.children[loc], nil
}

func (e *fakeElement) set(fn func(*fakeElement)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e)
}

// fakeDriver serves elements out of a mutable locator table and can be
// scripted to fail lookups.
type fakeDriver struct {
	mu       sync.Mutex
	elements map[driver.Locator][]driver.Element
	findErrs map[driver.Locator][]error // consumed one per FindAll call

	navigated []string
	scripts   []string
	shot      []byte
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		elements: map[driver.Locator][]driver.Element{},
		findErrs: map[driver.Locator][]error{},
	}
}

func (d *fakeDriver) put(loc driver.Locator, els ...driver.Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[loc] = els
}

func (d *fakeDriver) failNext(loc driver.Locator, errs ...error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.findErrs[loc] = append(d.findErrs[loc], errs...)
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigated = append(d.navigated, url)
	return nil
}

func (d *fakeDriver) FindAll(_ context.Context, loc driver.Locator) ([]driver.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if errs := d.findErrs[loc]; len(errs) > 0 {
		err := errs[0]
		d.findErrs[loc] = errs[1:]
		return nil, err
	}
	return d.elements[loc], nil
}

func (d *fakeDriver) ExecuteScript(_ context.Context, script string, _ []any) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scripts = append(d.scripts, script)
	return true, nil
}

func (d *fakeDriver) Screenshot(context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shot, nil
}

func (d *fakeDriver) Close(context.Context) error { return nil }

// fakeRecorder collects step messages for assertions.
type fakeRecorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *fakeRecorder) Step(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, msg)
}

func (r *fakeRecorder) Attach(string, []byte, string) {}

func (r *fakeRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.steps...)
}
