// File: internal/runner/runner.go
// Description: Executes registered suites against real browser sessions. Each
// test gets its own session, its own namespaced download directory and its own
// evidence directory; tests share nothing but the configuration.
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uitest-io/uitest/internal/config"
	"github.com/uitest-io/uitest/pkg/download"
	"github.com/uitest-io/uitest/pkg/driver"
	"github.com/uitest-io/uitest/pkg/driver/cdp"
	"github.com/uitest-io/uitest/pkg/driver/webdriver"
	"github.com/uitest-io/uitest/pkg/evidence"
	"github.com/uitest-io/uitest/pkg/interact"
	"github.com/uitest-io/uitest/pkg/page"
	"github.com/uitest-io/uitest/pkg/suite"
)

// Status is the outcome of one test.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Result records the outcome of one test.
type Result struct {
	Suite       string
	Test        string
	Status      Status
	Err         error
	Duration    time.Duration
	EvidenceDir string
}

// Summary aggregates the results of one Run call.
type Summary struct {
	Results  []Result
	Duration time.Duration
}

// Passed reports whether every test passed.
func (s *Summary) Passed() bool {
	for _, r := range s.Results {
		if r.Status != StatusPassed {
			return false
		}
	}
	return true
}

// Counts returns the number of passed and failed tests.
func (s *Summary) Counts() (passed, failed int) {
	for _, r := range s.Results {
		if r.Status == StatusPassed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// SessionFactory provisions one browser session. downloadDir is where the
// browser (or the fetch step, for managed downloads) must place files; the
// returned RemoteFiles is nil for backends without a managed-download store.
type SessionFactory func(ctx context.Context, logger *zap.Logger, cfg config.DriverConfig, downloadDir string) (driver.Driver, driver.RemoteFiles, error)

// DefaultSessionFactory selects the backend from the configuration.
func DefaultSessionFactory(ctx context.Context, logger *zap.Logger, cfg config.DriverConfig, downloadDir string) (driver.Driver, driver.RemoteFiles, error) {
	switch cfg.Backend {
	case config.BackendCDP:
		drv, err := cdp.New(ctx, logger, cfg, downloadDir)
		if err != nil {
			return nil, nil, err
		}
		return drv, nil, nil
	case config.BackendWebDriver:
		drv, err := webdriver.New(logger, cfg)
		if err != nil {
			return nil, nil, err
		}
		return drv, drv.Files(), nil
	default:
		return nil, nil, fmt.Errorf("unknown driver backend %q", cfg.Backend)
	}
}

// Runner executes suites with bounded parallelism.
type Runner struct {
	cfg        *config.Config
	logger     *zap.Logger
	fs         afero.Fs
	newSession SessionFactory
}

// New creates a Runner. A nil factory selects DefaultSessionFactory.
func New(cfg *config.Config, logger *zap.Logger, fsys afero.Fs, factory SessionFactory) (*Runner, error) {
	if cfg == nil || logger == nil || fsys == nil {
		return nil, fmt.Errorf("cannot initialize runner with nil dependencies")
	}
	if factory == nil {
		factory = DefaultSessionFactory
	}
	return &Runner{
		cfg:        cfg,
		logger:     logger.Named("runner"),
		fs:         fsys,
		newSession: factory,
	}, nil
}

// Run executes every test in the given suites and returns the summary. The
// returned error is non-nil only for infrastructure failures or fail-fast
// aborts; individual test failures live in the summary.
func (r *Runner) Run(ctx context.Context, suites []suite.Suite) (*Summary, error) {
	total := 0
	for _, s := range suites {
		total += len(s.Tests)
	}
	r.logger.Info("starting run",
		zap.Int("suites", len(suites)),
		zap.Int("tests", total),
		zap.Int("concurrency", r.cfg.Runner.Concurrency))

	start := time.Now()
	results := make([]Result, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Runner.Concurrency)

	var mu sync.Mutex
	idx := 0
	for _, s := range suites {
		for _, t := range s.Tests {
			s, t, slot := s, t, idx
			idx++
			g.Go(func() error {
				res := r.runTest(gctx, s, t)
				mu.Lock()
				results[slot] = res
				mu.Unlock()
				if res.Status == StatusFailed && r.cfg.Runner.FailFast {
					return fmt.Errorf("%s/%s failed: %w", s.Name, t.Name, res.Err)
				}
				return nil
			})
		}
	}

	err := g.Wait()
	sum := &Summary{Results: results, Duration: time.Since(start)}
	passed, failed := sum.Counts()
	r.logger.Info("run finished",
		zap.Int("passed", passed),
		zap.Int("failed", failed),
		zap.Duration("duration", sum.Duration))
	return sum, err
}

func (r *Runner) runTest(ctx context.Context, s suite.Suite, t suite.Test) Result {
	start := time.Now()
	res := Result{Suite: s.Name, Test: t.Name, Status: StatusFailed}

	testID := uuid.NewString()[:8]
	logger := r.logger.Named("test").With(
		zap.String("suite", s.Name),
		zap.String("test", t.Name),
		zap.String("id", testID))

	evidenceDir := filepath.Join(r.cfg.Report.Dir, pathSegment(s.Name), pathSegment(t.Name))
	res.EvidenceDir = evidenceDir
	rec, err := evidence.NewFileRecorder(logger, r.fs, evidenceDir)
	if err != nil {
		res.Err = fmt.Errorf("create evidence dir: %w", err)
		res.Duration = time.Since(start)
		return res
	}

	// Downloads land in a per-test directory so parallel tests cannot
	// observe each other's files.
	downloadDir := filepath.Join(r.cfg.Download.Dir, testID)

	drv, remote, err := r.newSession(ctx, logger, r.cfg.Driver, downloadDir)
	if err != nil {
		res.Err = fmt.Errorf("provision session: %w", err)
		res.Duration = time.Since(start)
		return res
	}
	defer func() {
		if cerr := drv.Close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warn("session close failed", zap.Error(cerr))
		}
	}()

	det, err := download.New(logger, r.fs, download.Options{
		Topology: downloadTopology(r.cfg.Download.Topology),
		Dir:      downloadDir,
		Remote:   remote,
		Timeout:  r.cfg.Download.Timeout,
		Poll:     r.cfg.Download.Poll,
	})
	if err != nil {
		res.Err = fmt.Errorf("configure download detector: %w", err)
		res.Duration = time.Since(start)
		return res
	}
	if err := det.Prepare(ctx); err != nil {
		res.Err = fmt.Errorf("prepare download dir: %w", err)
		res.Duration = time.Since(start)
		return res
	}

	gw := interact.NewGateway(logger, drv, rec, interact.Contract{
		Timeout: r.cfg.Wait.Timeout,
		Poll:    r.cfg.Wait.Poll,
	})
	sess := page.NewSession(logger, drv, gw, det, rec)
	pg := page.New(sess)

	logger.Info("test starting")
	err = r.invoke(ctx, sess, t, &pg)
	res.Duration = time.Since(start)

	if err != nil {
		res.Err = err
		logger.Error("test failed", zap.Error(err), zap.Duration("duration", res.Duration))
		if r.cfg.Report.ScreenshotOnFailure {
			evidence.CaptureScreenshot(context.WithoutCancel(ctx), drv, rec, "failure")
		}
		return res
	}

	res.Status = StatusPassed
	logger.Info("test passed", zap.Duration("duration", res.Duration))
	return res
}

// invoke runs one test body, converting panics into failures so a panicking
// test cannot take the whole run down.
func (r *Runner) invoke(ctx context.Context, sess *page.Session, t suite.Test, pg *page.Page) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("test panicked: %v", rec)
		}
	}()
	if t.URL != "" {
		if err := sess.Open(ctx, t.URL); err != nil {
			return fmt.Errorf("open %s: %w", t.URL, err)
		}
	}
	return t.Run(ctx, pg)
}

func downloadTopology(t config.DownloadTopology) download.Topology {
	switch t {
	case config.TopologyRemoteManaged:
		return download.RemoteManaged
	case config.TopologyRemoteMounted:
		return download.RemoteMounted
	default:
		return download.Local
	}
}

// pathSegment makes a suite or test name safe to use as a directory name.
func pathSegment(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
