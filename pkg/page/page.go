// pkg/page/page.go
// The page package gives page objects an explicit session to hang off. There
// is no ambient per-thread browser handle anywhere in the framework: every
// page object receives its Session at construction, which makes ownership
// explicit per test.
package page

import (
	"context"

	"go.uber.org/zap"

	"github.com/uitest-io/uitest/pkg/download"
	"github.com/uitest-io/uitest/pkg/driver"
	"github.com/uitest-io/uitest/pkg/evidence"
	"github.com/uitest-io/uitest/pkg/interact"
)

// Session bundles everything one running test owns: the browser session, the
// action gateway over it, the download detector and the evidence recorder.
// Sessions are not shared across tests.
type Session struct {
	Driver    driver.Driver
	UI        *interact.Gateway
	Downloads *download.Detector
	Evidence  evidence.Recorder
	Logger    *zap.Logger
}

// NewSession wires a session from its parts.
func NewSession(logger *zap.Logger, drv driver.Driver, ui *interact.Gateway, dl *download.Detector, rec evidence.Recorder) *Session {
	return &Session{
		Driver:    drv,
		UI:        ui,
		Downloads: dl,
		Evidence:  rec,
		Logger:    logger,
	}
}

// Open navigates the session's browser and records the step.
func (s *Session) Open(ctx context.Context, url string) error {
	if err := s.Driver.Navigate(ctx, url); err != nil {
		return err
	}
	s.Evidence.Step("Opened " + url)
	return nil
}

// Page is the base type page objects embed. A page may carry its own wait
// contract; interactions then poll under the override instead of the
// session-wide default.
type Page struct {
	Sess *Session
	UI   *interact.Gateway
}

// New builds a page bound to the session's default wait contract.
func New(s *Session) Page {
	return Page{Sess: s, UI: s.UI}
}

// NewWithContract builds a page whose interactions poll under the given
// contract.
func NewWithContract(s *Session, c interact.Contract) Page {
	return Page{Sess: s, UI: s.UI.WithContract(c)}
}
