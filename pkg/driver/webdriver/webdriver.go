// pkg/driver/webdriver/webdriver.go
// Package webdriver drives a remote browser through the WebDriver protocol
// (a Selenium grid or a bare driver binary).
package webdriver

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
	"go.uber.org/zap"

	"github.com/uitest-io/uitest/internal/config"
	"github.com/uitest-io/uitest/pkg/driver"
)

// Driver adapts a remote WebDriver session to the driver capability set.
type Driver struct {
	logger *zap.Logger
	wd     selenium.WebDriver
	files  *gridFiles
}

// New opens a remote session against cfg.GridURL.
func New(logger *zap.Logger, cfg config.DriverConfig) (*Driver, error) {
	caps := selenium.Capabilities{"browserName": cfg.Browser}

	args := append([]string(nil), cfg.Args...)
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		args = append(args, fmt.Sprintf("--window-size=%d,%d", cfg.WindowWidth, cfg.WindowHeight))
	}

	switch cfg.Browser {
	case "firefox":
		ffArgs := args
		if cfg.Headless {
			ffArgs = append(ffArgs, "-headless")
		}
		caps.AddFirefox(firefox.Capabilities{Args: ffArgs})
	default:
		chromeArgs := args
		if cfg.Headless {
			chromeArgs = append(chromeArgs, "--headless=new")
		}
		caps.AddChrome(chrome.Capabilities{Args: chromeArgs})
	}

	wd, err := selenium.NewRemote(caps, cfg.GridURL)
	if err != nil {
		return nil, fmt.Errorf("open remote session at %s: %w", cfg.GridURL, err)
	}

	// All waiting is explicit; an implicit wait would double-count against
	// the wait engine's deadlines.
	if err := wd.SetImplicitWaitTimeout(0); err != nil {
		logger.Warn("failed to zero implicit wait", zap.Error(err))
	}

	d := &Driver{
		logger: logger.Named("webdriver"),
		wd:     wd,
		files:  newGridFiles(afero.NewOsFs(), cfg.GridURL, wd.SessionID()),
	}
	d.logger.Info("remote session opened",
		zap.String("browser", cfg.Browser),
		zap.String("session", wd.SessionID()))
	return d, nil
}

// Files exposes the grid's managed-download capability for this session.
func (d *Driver) Files() driver.RemoteFiles { return d.files }

func (d *Driver) Navigate(_ context.Context, url string) error {
	if err := d.wd.Get(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (d *Driver) FindAll(_ context.Context, loc driver.Locator) ([]driver.Element, error) {
	by, value, err := seleniumBy(loc)
	if err != nil {
		return nil, err
	}
	found, err := d.wd.FindElements(by, value)
	if err != nil {
		if driver.IsTransient(err) {
			// "no such element" from the remote end means zero matches.
			return nil, nil
		}
		return nil, err
	}
	els := make([]driver.Element, len(found))
	for i, we := range found {
		els[i] = &element{we: we}
	}
	return els, nil
}

func (d *Driver) ExecuteScript(_ context.Context, script string, args []any) (any, error) {
	if args == nil {
		args = []any{}
	}
	return d.wd.ExecuteScript("return "+script, args)
}

func (d *Driver) Screenshot(context.Context) ([]byte, error) {
	return d.wd.Screenshot()
}

func (d *Driver) Close(context.Context) error {
	return d.wd.Quit()
}

// SetPageLoadTimeout bounds navigations for the whole session.
func (d *Driver) SetPageLoadTimeout(t time.Duration) error {
	return d.wd.SetPageLoadTimeout(t)
}

func seleniumBy(loc driver.Locator) (string, string, error) {
	switch loc.Strategy {
	case driver.StrategyID:
		return selenium.ByID, loc.Value, nil
	case driver.StrategyName:
		return selenium.ByName, loc.Value, nil
	case driver.StrategyCSS:
		return selenium.ByCSSSelector, loc.Value, nil
	case driver.StrategyXPath:
		return selenium.ByXPATH, loc.Value, nil
	case driver.StrategyLinkText:
		return selenium.ByLinkText, loc.Value, nil
	case driver.StrategyTagName:
		return selenium.ByTagName, loc.Value, nil
	default:
		return "", "", fmt.Errorf("unsupported locator strategy %q", loc.Strategy)
	}
}

// element adapts one WebDriver element handle.
type element struct {
	we selenium.WebElement
}

func (e *element) Displayed(context.Context) (bool, error) { return e.we.IsDisplayed() }
func (e *element) Enabled(context.Context) (bool, error)   { return e.we.IsEnabled() }
func (e *element) Text(context.Context) (string, error)    { return e.we.Text() }
func (e *element) Click(context.Context) error             { return e.we.Click() }
func (e *element) Clear(context.Context) error             { return e.we.Clear() }
func (e *element) TagName(context.Context) (string, error) { return e.we.TagName() }

func (e *element) SendKeys(_ context.Context, text string) error {
	return e.we.SendKeys(text)
}

func (e *element) Attr(_ context.Context, name string) (string, error) {
	return e.we.GetAttribute(name)
}

func (e *element) FindAll(_ context.Context, loc driver.Locator) ([]driver.Element, error) {
	by, value, err := seleniumBy(loc)
	if err != nil {
		return nil, err
	}
	found, err := e.we.FindElements(by, value)
	if err != nil {
		if driver.IsTransient(err) {
			return nil, nil
		}
		return nil, err
	}
	els := make([]driver.Element, len(found))
	for i, we := range found {
		els[i] = &element{we: we}
	}
	return els, nil
}
