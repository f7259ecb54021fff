// pkg/driver/webdriver/gridfiles.go
package webdriver

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// gridFiles talks to a Selenium grid's managed-download endpoints
// (/session/{id}/se/files). The grid keeps files the remote browser
// downloaded; clients list them, fetch them (delivered as a base64-encoded
// zip) and discard the manifest.
type gridFiles struct {
	fs      afero.Fs
	client  *http.Client
	baseURL string
}

func newGridFiles(fsys afero.Fs, gridURL, sessionID string) *gridFiles {
	return &gridFiles{
		fs:      fsys,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(gridURL, "/") + path.Join("/session", sessionID, "se/files"),
	}
}

// ListDownloadableNames returns the names in the session's manifest.
func (g *gridFiles) ListDownloadableNames(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list grid downloads: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list grid downloads: unexpected status %s", resp.Status)
	}

	var body struct {
		Value struct {
			Names []string `json:"names"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode grid download listing: %w", err)
	}
	return body.Value.Names, nil
}

// Fetch transfers the named file into destDir. A destination file that is
// already present fails with fs.ErrExist, which callers treat as success: it
// means an earlier poll already transferred it.
func (g *gridFiles) Fetch(ctx context.Context, name, destDir string) error {
	dest := filepath.Join(destDir, name)
	if _, err := g.fs.Stat(dest); err == nil {
		return fmt.Errorf("fetch %q: %w", name, fs.ErrExist)
	}

	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %q: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %q: unexpected status %s", name, resp.Status)
	}

	var body struct {
		Value struct {
			Filename string `json:"filename"`
			Contents string `json:"contents"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode fetch response for %q: %w", name, err)
	}

	zipped, err := base64.StdEncoding.DecodeString(body.Value.Contents)
	if err != nil {
		return fmt.Errorf("decode contents of %q: %w", name, err)
	}
	return g.unzipTo(zipped, name, dest)
}

// unzipTo extracts the named entry (or the sole entry) of the zip the grid
// delivered and writes it to dest.
func (g *gridFiles) unzipTo(zipped []byte, name, dest string) error {
	zr, err := zip.NewReader(bytes.NewReader(zipped), int64(len(zipped)))
	if err != nil {
		return fmt.Errorf("open zip for %q: %w", name, err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if path.Base(f.Name) == name {
			entry = f
			break
		}
	}
	if entry == nil && len(zr.File) == 1 {
		entry = zr.File[0]
	}
	if entry == nil {
		return fmt.Errorf("zip for %q contains no matching entry", name)
	}

	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := g.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := g.fs.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("write %q: %w", dest, err)
	}
	return nil
}

// ClearDownloadableFiles discards the session's manifest.
func (g *gridFiles) ClearDownloadableFiles(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("clear grid downloads: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clear grid downloads: unexpected status %s", resp.Status)
	}
	return nil
}
