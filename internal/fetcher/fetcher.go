// Package fetcher downloads pages and files over HTTP and reads the CSV,
// XLSX, JSON and HTML payloads the facility sources publish.
package fetcher

import (
	"context"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher retrieves remote resources.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path and returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)

	// Document fetches the URL and parses it as HTML.
	Document(ctx context.Context, url string) (*goquery.Document, error)

	// JSON fetches the URL and decodes the body into v.
	JSON(ctx context.Context, url string, v any) error
}
