// Package acquire runs the download pipeline: it resolves a DOI to a
// landing page on the mirror, extracts the PDF link, and streams the PDF to
// the output directory.
package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/sci-dl/internal/mirror"
	"github.com/pdiddy/sci-dl/pkg/types"
)

const (
	pdfContentType = "application/pdf"

	// chunkSize is the read size of the body copy loop; progress advances
	// once per chunk.
	chunkSize = 128 * 1024
)

// Fetcher performs a GET and returns the response with an unread body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*http.Response, error)
}

// Downloader wires the resolver and fetcher to the output directory.
type Downloader struct {
	Resolver *mirror.Resolver
	Fetcher  Fetcher

	// OutDir is the directory PDFs are written to. It must exist.
	OutDir string

	// Progress is called after every chunk written. Optional.
	Progress ProgressFunc

	// NewProgress, when set, supplies a fresh callback for each download
	// and takes precedence over Progress.
	NewProgress func(doi string) ProgressFunc

	Log zerolog.Logger
}

// Result describes a completed download.
type Result struct {
	DOI        string
	LandingURL string
	FileURL    string
	Path       string
	Bytes      int64
}

// FileName returns the output file name for a DOI: slashes become
// underscores and ".pdf" is appended.
func FileName(doi string) string {
	return strings.ReplaceAll(doi, "/", "_") + ".pdf"
}

// DownloadByDOI downloads the PDF for one DOI. Status lines are written to
// w. Errors carry their kind (see pkg/types) and abort the run; nothing is
// retried beyond the fetcher's own attempts.
func (d *Downloader) DownloadByDOI(ctx context.Context, doi string, w io.Writer) (*Result, error) {
	fmt.Fprintf(w, "Received DOI %s\n", doi)

	landingURL, err := d.Resolver.LandingPageURL(doi)
	if err != nil {
		return nil, err
	}
	log := d.Log.With().Str("doi", doi).Logger()
	log.Debug().Str("landing_url", landingURL).Msg("resolved landing page")

	fileURL, err := d.resolveFileURL(ctx, doi, landingURL, log)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Found PDF url %s\n", fileURL)

	path := filepath.Join(d.OutDir, FileName(doi))
	n, err := d.downloadFile(ctx, doi, fileURL, path, log)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "PDF was saved to %s successfully.\n", path)
	log.Info().Str("path", path).Int64("bytes", n).Msg("downloaded")

	return &Result{
		DOI:        doi,
		LandingURL: landingURL,
		FileURL:    fileURL,
		Path:       path,
		Bytes:      n,
	}, nil
}

// resolveFileURL fetches the landing page and extracts the file URL.
func (d *Downloader) resolveFileURL(ctx context.Context, doi, landingURL string, log zerolog.Logger) (string, error) {
	resp, err := d.Fetcher.Fetch(ctx, landingURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	log.Debug().Int("status", resp.StatusCode).Msg("fetched landing page")

	fileURL, ok, err := d.Resolver.ExtractFileURL(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading landing page %s: %w", landingURL, err)
	}
	if !ok {
		log.Error().
			Str("landing_url", landingURL).
			Str("selector", d.Resolver.Selector()).
			Msg("no file link on landing page")
		return "", &types.ExtractionError{Identifier: doi, LandingURL: landingURL}
	}
	log.Debug().Str("file_url", fileURL).Msg("extracted file url")
	return fileURL, nil
}

// downloadFile fetches fileURL and streams it to destPath through a
// temporary file in the same directory. The temporary file is renamed on
// success and removed on any failure, so destPath never holds a partial
// PDF. An existing destPath is replaced.
func (d *Downloader) downloadFile(ctx context.Context, doi, fileURL, destPath string, log zerolog.Logger) (int64, error) {
	resp, err := d.Fetcher.Fetch(ctx, fileURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType != pdfContentType {
		log.Error().
			Str("file_url", fileURL).
			Str("content_type", contentType).
			Int("status", resp.StatusCode).
			Msg("file response is not a PDF")
		return 0, &types.ContentTypeError{Identifier: doi, URL: fileURL, ContentType: contentType}
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".sci-dl-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	task := newDownloadTask(destPath, resp.ContentLength, d.progressFor(doi))
	copyErr := copyChunks(tmpFile, resp.Body, task)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing %s: %w", destPath, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return task.Transferred, nil
}

func (d *Downloader) progressFor(doi string) ProgressFunc {
	if d.NewProgress != nil {
		return d.NewProgress(doi)
	}
	return d.Progress
}

// copyChunks copies src to dst in chunkSize reads, advancing task after
// each chunk is written.
func copyChunks(dst io.Writer, src io.Reader, task *DownloadTask) error {
	buf := make([]byte, chunkSize)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return err
			}
			task.Advance(n)
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// BatchFailure pairs a DOI with the error that stopped it.
type BatchFailure struct {
	DOI string
	Err error
}

// BatchResult holds the outcome of a sequential multi-DOI run.
type BatchResult struct {
	Results  []*Result
	Failures []BatchFailure
}

// Total returns the number of DOIs processed.
func (r BatchResult) Total() int {
	return len(r.Results) + len(r.Failures)
}

// HasFailures reports whether any DOI failed.
func (r BatchResult) HasFailures() bool {
	return len(r.Failures) > 0
}

// DownloadBatch downloads each DOI in order, one at a time, continuing
// after individual failures. Consecutive downloads start at least delay
// apart. A cancelled context stops the batch; remaining DOIs are not
// attempted.
func (d *Downloader) DownloadBatch(ctx context.Context, dois []string, delay time.Duration, w io.Writer) BatchResult {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	var result BatchResult
	for _, doi := range dois {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		res, err := d.DownloadByDOI(ctx, doi, w)
		if err != nil {
			result.Failures = append(result.Failures, BatchFailure{DOI: doi, Err: err})
			continue
		}
		result.Results = append(result.Results, res)
	}
	if len(dois) > 1 {
		fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d failed (total: %d)\n",
			len(result.Results), len(result.Failures), result.Total())
	}
	return result
}
