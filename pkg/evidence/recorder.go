// pkg/evidence/recorder.go
// The evidence package records what a test did: step messages and binary
// attachments (screenshots, downloaded files, page dumps). Recording is
// fire-and-forget; nothing here ever affects test control flow.
package evidence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/uitest-io/uitest/pkg/driver"
)

const stepsFileFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY

// Recorder is the sink test actions report into.
type Recorder interface {
	// Step records a human-readable action message.
	Step(msg string)
	// Attach stores a named binary artifact with its mime type.
	Attach(name string, data []byte, mime string)
}

// Nop discards everything. Useful default when no report is wanted.
type Nop struct{}

func (Nop) Step(string)                  {}
func (Nop) Attach(string, []byte, string) {}

// FileRecorder writes evidence into one directory per test run: a steps.log
// transcript plus one file per attachment. Failures to write are logged and
// swallowed; evidence must never fail a test.
type FileRecorder struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger

	mu  sync.Mutex
	seq int
}

// NewFileRecorder creates the evidence directory and returns a recorder
// writing into it.
func NewFileRecorder(logger *zap.Logger, fs afero.Fs, dir string) (*FileRecorder, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence dir %q: %w", dir, err)
	}
	return &FileRecorder{
		fs:     fs,
		dir:    dir,
		logger: logger.Named("evidence"),
	}, nil
}

// Dir returns the directory this recorder writes into.
func (r *FileRecorder) Dir() string { return r.dir }

// Step appends the message to the run transcript and logs it.
func (r *FileRecorder) Step(msg string) {
	r.logger.Info(msg)

	r.mu.Lock()
	defer r.mu.Unlock()
	line := fmt.Sprintf("%s  %s\n", time.Now().Format("15:04:05.000"), msg)
	f, err := r.fs.OpenFile(filepath.Join(r.dir, "steps.log"), stepsFileFlags, 0o644)
	if err != nil {
		r.logger.Warn("failed to open steps transcript", zap.Error(err))
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		r.logger.Warn("failed to append step", zap.Error(err))
	}
}

// Attach writes the artifact next to the transcript. Names are sanitized and
// prefixed with a sequence number so repeated names never clobber each other.
func (r *FileRecorder) Attach(name string, data []byte, mime string) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	fileName := fmt.Sprintf("%03d-%s", seq, sanitizeName(name))
	if err := afero.WriteFile(r.fs, filepath.Join(r.dir, fileName), data, 0o644); err != nil {
		r.logger.Warn("failed to write attachment",
			zap.String("name", name), zap.String("mime", mime), zap.Error(err))
		return
	}
	r.logger.Debug("attachment recorded",
		zap.String("file", fileName), zap.String("mime", mime), zap.Int("bytes", len(data)))
}

// CaptureScreenshot grabs the current viewport and attaches it as PNG. Used on
// test failure; capture errors are logged, never propagated.
func CaptureScreenshot(ctx context.Context, drv driver.Driver, rec Recorder, name string) {
	png, err := drv.Screenshot(ctx)
	if err != nil {
		zap.L().Warn("screenshot capture failed", zap.String("name", name), zap.Error(err))
		return
	}
	rec.Attach(name+".png", png, "image/png")
}

func sanitizeName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if clean == "" {
		clean = "attachment"
	}
	return clean
}
