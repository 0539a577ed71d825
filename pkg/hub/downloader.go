// Package hub fetches model artifacts over HTTPS into a local cache
// directory. Files are cached by name after the first download and never
// re-validated (trust-on-first-download); writes are atomic so two processes
// racing to populate the same entry cannot leave a corrupt partial file.
package hub

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
)

// Downloader fetches artifact files with a terminal progress bar.
type Downloader struct {
	client   *http.Client
	logger   *slog.Logger
	progress bool
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient replaces the HTTP client (tests point it at a local server).
func WithHTTPClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = client }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) DownloaderOption {
	return func(d *Downloader) { d.logger = logger }
}

// WithoutProgress disables the terminal progress bar.
func WithoutProgress() DownloaderOption {
	return func(d *Downloader) { d.progress = false }
}

// NewDownloader creates a Downloader with default settings.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client:   &http.Client{},
		logger:   slog.Default(),
		progress: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// EnsureFile makes the file at dest available, downloading it from url when
// the cache misses. An existing non-empty file is reused as-is.
func (d *Downloader) EnsureFile(ctx context.Context, url, dest string) error {
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		d.logger.Debug("model file already cached", slog.String("path", dest))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	d.logger.Info("downloading model file",
		slog.String("url", url),
		slog.String("path", dest))

	if err := d.download(ctx, url, dest); err != nil {
		return fmt.Errorf("download %s: %w", filepath.Base(dest), err)
	}
	return nil
}

// download streams url into a uniquely named temp file next to dest and
// renames it into place on success. Each call gets its own temp file, so a
// crashed download or two downloads racing to populate the same cache entry
// never yield a truncated or interleaved file; the rename is atomic and the
// last finisher wins with a complete copy.
func (d *Downloader) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	file, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".partial-*")
	if err != nil {
		return err
	}
	partial := file.Name()

	var w io.Writer = file
	if d.progress {
		bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(dest))
		w = io.MultiWriter(file, bar)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		file.Close()
		os.Remove(partial)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(partial)
		return err
	}

	if err := os.Rename(partial, dest); err != nil {
		os.Remove(partial)
		return err
	}
	return nil
}

// IsCached reports whether dest exists with non-zero size. No integrity
// check is performed.
func IsCached(dest string) bool {
	info, err := os.Stat(dest)
	return err == nil && info.Size() > 0
}
