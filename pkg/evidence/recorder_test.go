// pkg/evidence/recorder_test.go
package evidence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uitest-io/uitest/pkg/driver"
)

func TestFileRecorderStepTranscript(t *testing.T) {
	fsys := afero.NewMemMapFs()
	rec, err := NewFileRecorder(zap.NewNop(), fsys, "/report/run-1")
	require.NoError(t, err)

	rec.Step("Opened login page")
	rec.Step("Clicked submit")

	data, err := afero.ReadFile(fsys, filepath.Join("/report/run-1", "steps.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Opened login page")
	assert.Contains(t, string(data), "Clicked submit")
}

func TestFileRecorderAttach(t *testing.T) {
	fsys := afero.NewMemMapFs()
	rec, err := NewFileRecorder(zap.NewNop(), fsys, "/report/run-2")
	require.NoError(t, err)

	rec.Attach("screenshot.png", []byte{0x89, 0x50}, "image/png")
	rec.Attach("page source?.html", []byte("<html/>"), "text/html")

	first, err := afero.ReadFile(fsys, filepath.Join("/report/run-2", "001-screenshot.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50}, first)

	// Unsafe characters are replaced, sequence numbers keep names unique.
	second, err := afero.ReadFile(fsys, filepath.Join("/report/run-2", "002-page_source_.html"))
	require.NoError(t, err)
	assert.Equal(t, []byte("<html/>"), second)
}

func TestNopRecorder(t *testing.T) {
	var rec Recorder = Nop{}
	rec.Step("ignored")
	rec.Attach("ignored", nil, "")
}

type screenshotDriver struct {
	driver.Driver
	png []byte
	err error
}

func (d *screenshotDriver) Screenshot(context.Context) ([]byte, error) { return d.png, d.err }

type captureRecorder struct {
	names []string
	mimes []string
}

func (r *captureRecorder) Step(string) {}
func (r *captureRecorder) Attach(name string, _ []byte, mime string) {
	r.names = append(r.names, name)
	r.mimes = append(r.mimes, mime)
}

func TestCaptureScreenshot(t *testing.T) {
	rec := &captureRecorder{}
	CaptureScreenshot(context.Background(), &screenshotDriver{png: []byte{1}}, rec, "failure")
	require.Equal(t, []string{"failure.png"}, rec.names)
	assert.Equal(t, []string{"image/png"}, rec.mimes)

	// Capture errors are swallowed; evidence never fails a test.
	CaptureScreenshot(context.Background(), &screenshotDriver{err: errors.New("session gone")}, rec, "failure")
	assert.Len(t, rec.names, 1)
}
