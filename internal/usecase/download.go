package usecase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/example/pawprint/internal/predictor"
)

// Downloader abstracts fetching a generated report to make testing easier.
type Downloader interface {
	Download(ctx context.Context, url, fileName string) (string, error)
}

// FileDownloader saves documents into a local directory.
type FileDownloader struct {
	client *http.Client
	dir    string
}

// NewFileDownloader constructs a downloader writing into dir.
func NewFileDownloader(client *http.Client, dir string) *FileDownloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &FileDownloader{client: client, dir: dir}
}

// Dir is where reports are written.
func (d *FileDownloader) Dir() string {
	return d.dir
}

// Download fetches url and stores it as fileName inside the report directory.
func (d *FileDownloader) Download(ctx context.Context, url, fileName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", predictor.NewNetworkError(err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", predictor.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", predictor.NewServerError(resp.StatusCode)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(d.dir, filepath.Base(fileName))

	tmp, err := os.CreateTemp(d.dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", predictor.NewNetworkError(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store report file: %w", err)
	}
	return path, nil
}
